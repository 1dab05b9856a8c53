package ring

import (
	"reflect"
	"testing"
)

func TestAdvance(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		adds     []int
		spans    []Span
		pos      int
		size     int
		full     bool
	}{
		{
			name:     "partial",
			capacity: 5,
			adds:     []int{3},
			spans:    []Span{{Start: 0, End: 3}},
			pos:      3,
			size:     3,
		},
		{
			name:     "exactly full",
			capacity: 5,
			adds:     []int{3, 2},
			spans:    []Span{{Start: 3, End: 5}},
			pos:      0,
			size:     5,
		},
		{
			name:     "wrap",
			capacity: 5,
			adds:     []int{3, 4},
			spans:    []Span{{Start: 3, End: 5}, {Start: 0, End: 2, Offset: 2}},
			pos:      2,
			size:     5,
			full:     true,
		},
		{
			name:     "batch larger than capacity",
			capacity: 4,
			adds:     []int{1, 9},
			spans: []Span{
				{Start: 1, End: 4},
				{Start: 0, End: 4, Offset: 3},
				{Start: 0, End: 2, Offset: 7},
			},
			pos:  2,
			size: 4,
			full: true,
		},
		{
			name:     "empty batch",
			capacity: 4,
			adds:     []int{0},
			pos:      0,
			size:     0,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c, err := New(test.capacity)
			if err != nil {
				t.Fatal(err)
			}

			var spans []Span
			for _, n := range test.adds {
				spans = c.Advance(n)
			}

			if !reflect.DeepEqual(spans, test.spans) {
				t.Errorf("spans: want(%v) \nhave(%v)", test.spans, spans)
			}
			if c.Pos() != test.pos {
				t.Errorf("pos: want(%v) have(%v)", test.pos, c.Pos())
			}
			if c.Size() != test.size {
				t.Errorf("size: want(%v) have(%v)", test.size, c.Size())
			}
			if c.Full() != test.full {
				t.Errorf("full: want(%v) have(%v)", test.full, c.Full())
			}
		})
	}
}

func TestNewInvalidCapacity(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Error("expected an error for zero capacity")
	}
}
