package stagedreach

import (
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
)

// Size of rendered images in pixels
const ViewportSize = 400

var (
	backgroundColour = color.RGBA{R: 250, G: 250, B: 245, A: 255}
	waypointColour   = color.RGBA{R: 200, G: 80, B: 60, A: 255}
	visitedColour    = color.RGBA{R: 70, G: 160, B: 90, A: 255}
	pointColour      = color.RGBA{R: 40, G: 60, B: 160, A: 255}
)

// Draw draws the arena, the waypoints, and the point mass. Visited
// waypoints are drawn in green and the rest in red.
func (s *StagedReach) Draw() *gg.Context {
	dc := gg.NewContext(ViewportSize, ViewportSize)
	dc.SetColor(backgroundColour)
	dc.Clear()

	scale := ViewportSize / (s.Arena.Max - s.Arena.Min)
	toPixel := func(x, y float64) (float64, float64) {
		return (x - s.Arena.Min) * scale, (s.Arena.Max - y) * scale
	}

	// Path between waypoints
	dc.SetRGB(0.7, 0.7, 0.7)
	dc.SetLineWidth(1.0)
	for i := 0; i < len(s.waypoints)-1; i++ {
		x1, y1 := toPixel(s.waypoints[i].AtVec(0), s.waypoints[i].AtVec(1))
		x2, y2 := toPixel(s.waypoints[i+1].AtVec(0), s.waypoints[i+1].AtVec(1))
		dc.DrawLine(x1, y1, x2, y2)
	}
	dc.Stroke()

	for i, w := range s.waypoints {
		x, y := toPixel(w.AtVec(0), w.AtVec(1))
		dc.DrawCircle(x, y, s.Radius*scale)
		if i < s.stage {
			dc.SetColor(visitedColour)
		} else {
			dc.SetColor(waypointColour)
		}
		dc.Fill()
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(fmt.Sprint(i+1), x, y, 0.5, 0.5)
	}

	x, y := toPixel(s.position.AtVec(0), s.position.AtVec(1))
	dc.DrawCircle(x, y, 5)
	dc.SetColor(pointColour)
	dc.Fill()

	return dc
}

// Render saves the current state as a PNG image at path
func (s *StagedReach) Render(path string) error {
	if err := s.Draw().SavePNG(path); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}
