// Package progressbar implements functionality of printing a progress
// bar to the terminal window
package progressbar

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ManualProgressBar implement progress bar functionality that must
// be manually managed. That is, the Display() function must be called
// whenever an updated progress bar should be printed.
//
// ManualProgressBar does not use concurrency.
type ManualProgressBar struct {
	out             io.Writer
	width           float64
	maxProgress     float64
	currentProgress float64
	bar             strings.Builder
	startTime       time.Time
}

// NewManualProgressBar returns a new ManualProgressBar width characters
// wide which is full at max and prints to out
func NewManualProgressBar(out io.Writer, width, max int) *ManualProgressBar {
	return &ManualProgressBar{
		out:         out,
		width:       float64(width),
		maxProgress: float64(max),
		startTime:   time.Now(),
	}
}

// Set sets the progress counter, clipped to [0, max]
func (p *ManualProgressBar) Set(progress int) {
	switch {
	case progress < 0:
		p.currentProgress = 0
	case float64(progress) > p.maxProgress:
		p.currentProgress = p.maxProgress
	default:
		p.currentProgress = float64(progress)
	}
}

// Increment increments the interal progress counter by one
func (p *ManualProgressBar) Increment() {
	if p.currentProgress < p.maxProgress {
		p.currentProgress++
	}
}

// String returns the current progress bar, including the progress made
// per second since the bar was created
func (p *ManualProgressBar) String() string {
	p.bar.Reset()
	p.bar.WriteString("|")

	filled := int(p.currentProgress / p.maxProgress * p.width)
	p.bar.WriteString(strings.Repeat("█", filled))
	p.bar.WriteString(strings.Repeat(" ", int(p.width)-filled))

	elapsed := time.Since(p.startTime)
	rate := 0.0
	if elapsed > 0 {
		rate = p.currentProgress / elapsed.Seconds()
	}
	p.bar.WriteString(fmt.Sprintf("| [%.2f%% | %.0f/%.0f | %.0f/s | "+
		"elapsed: %v]", p.currentProgress/p.maxProgress*100,
		p.currentProgress, p.maxProgress, rate,
		elapsed.Truncate(time.Second)))
	return p.bar.String()
}

// Display prints the progress bar over the current line
func (p *ManualProgressBar) Display() {
	fmt.Fprintf(p.out, "\n\033[1A\033[K%v", p.String())
}
