package progressbar

import (
	"bytes"
	"strings"
	"testing"
)

func TestManualProgressBar(t *testing.T) {
	var out bytes.Buffer
	p := NewManualProgressBar(&out, 10, 200)

	p.Set(50)
	bar := p.String()
	if !strings.HasPrefix(bar, "|"+strings.Repeat("█", 2)+" ") {
		t.Errorf("want 2 filled cells in %q", bar)
	}
	if !strings.Contains(bar, "25.00%") || !strings.Contains(bar, "50/200") {
		t.Errorf("want 25%% progress in %q", bar)
	}

	p.Set(1000)
	if !strings.Contains(p.String(), "200/200") {
		t.Errorf("progress should be clipped to the maximum: %q", p.String())
	}
	p.Increment()
	if !strings.Contains(p.String(), "200/200") {
		t.Errorf("increment should not pass the maximum: %q", p.String())
	}

	p.Display()
	if !strings.Contains(out.String(), "100.00%") {
		t.Errorf("display should print the bar, have %q", out.String())
	}
}
