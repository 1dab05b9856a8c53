package tracker

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
)

// Plot image size and margins in pixels
const (
	plotW      = 640
	plotH      = 400
	plotMargin = 40.0
)

var (
	background = color.White
	axisColour = color.Gray{Y: 0x60}
	lineColour = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
)

// Plot caches the history of each metric and draws each history as a
// learning curve in its own PNG file
type Plot struct {
	dir  string
	data series
}

// NewPlot returns a new Plot Tracker which will save its images in dir
func NewPlot(dir string) *Plot {
	return &Plot{dir: dir, data: make(series)}
}

// Track caches the value of tag at step
func (p *Plot) Track(tag string, value float64, step int) {
	p.data.add(tag, value, step)
}

// Save draws the history of each metric to <dir>/<tag>.png, with
// slashes in tags replaced by underscores
func (p *Plot) Save() error {
	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	for _, tag := range p.data.tags() {
		dc := draw(p.data[tag])
		if err := dc.SavePNG(filepath.Join(p.dir, filename(tag, ".png"))); err != nil {
			return fmt.Errorf("save: could not save %v plot: %w", tag, err)
		}
	}
	return nil
}

// draw draws a series as a line plot with its value range annotated
func draw(s *Series) *gg.Context {
	dc := gg.NewContext(plotW, plotH)
	dc.SetColor(background)
	dc.Clear()

	minX, maxX := float64(s.Steps[0]), float64(s.Steps[len(s.Steps)-1])
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		minY, maxY = math.Min(minY, v), math.Max(maxY, v)
	}
	if math.IsInf(minY, 1) {
		minY, maxY = 0, 1
	}
	if maxX == minX {
		maxX = minX + 1
	}
	if maxY == minY {
		maxY = minY + 1
	}

	toPixel := func(x, y float64) (float64, float64) {
		px := plotMargin + (x-minX)/(maxX-minX)*(plotW-2*plotMargin)
		py := plotH - plotMargin - (y-minY)/(maxY-minY)*(plotH-2*plotMargin)
		return px, py
	}

	// Axes
	dc.SetColor(axisColour)
	dc.SetLineWidth(1.0)
	dc.DrawLine(plotMargin, plotH-plotMargin, plotW-plotMargin,
		plotH-plotMargin)
	dc.DrawLine(plotMargin, plotMargin, plotMargin, plotH-plotMargin)
	dc.Stroke()

	// Curve, broken at non-finite values
	dc.SetColor(lineColour)
	dc.SetLineWidth(2.0)
	dc.ClearPath()
	started := false
	for i, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			started = false
			continue
		}
		x, y := toPixel(float64(s.Steps[i]), v)
		if !started {
			dc.MoveTo(x, y)
			started = true
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.Stroke()

	dc.SetColor(axisColour)
	dc.DrawString(s.Tag, plotMargin, plotMargin/2)
	dc.DrawString(fmt.Sprintf("%.3g", maxY), 2, plotMargin)
	dc.DrawString(fmt.Sprintf("%.3g", minY), 2, plotH-plotMargin)
	dc.DrawStringAnchored(fmt.Sprintf("%d", int(maxX)), plotW-plotMargin,
		plotH-plotMargin/2, 1, 0)

	return dc
}
