package floatutils

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r1"
)

func TestClip(t *testing.T) {
	tests := []struct {
		value, want float64
	}{
		{-2, -1},
		{0.5, 0.5},
		{3, 1},
	}
	for _, test := range tests {
		if have := Clip(test.value, -1, 1); have != test.want {
			t.Errorf("Clip(%v): want %v have %v", test.value, test.want, have)
		}
		in := r1.Interval{Min: -1, Max: 1}
		if have := ClipInterval(test.value, in); have != test.want {
			t.Errorf("ClipInterval(%v): want %v have %v", test.value,
				test.want, have)
		}
	}
}
