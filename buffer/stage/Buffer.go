// Package stage implements the per-stage observation buffers which
// provide the positive and negative examples used to train the
// stage discriminators.
package stage

import (
	"errors"
	"fmt"

	"github.com/samuelfneumann/drs/buffer/ring"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// ErrEmptyBuffer is returned when sampling from a buffer which holds
// no observations
var ErrEmptyBuffer = errors.New("buffer empty")

// ErrAllEmpty is returned when sampling from a group of buffers which
// together hold no observations
var ErrAllEmpty = errors.New("all buffers empty")

// Buffer is a fixed-capacity circular store of observations which all
// belong to the same stage of a task
type Buffer struct {
	cursor   *ring.Cursor
	data     []float64
	features int
}

// NewBuffer returns a new Buffer holding at most capacity observations
// of the given number of features
func NewBuffer(capacity, features int) (*Buffer, error) {
	if features <= 0 {
		return nil, fmt.Errorf("newBuffer: features must be positive but "+
			"got %v", features)
	}
	cursor, err := ring.New(capacity)
	if err != nil {
		return nil, fmt.Errorf("newBuffer: %w", err)
	}

	return &Buffer{
		cursor:   cursor,
		data:     make([]float64, capacity*features),
		features: features,
	}, nil
}

// Add adds each row of obs to the buffer, overwriting the oldest
// observations once the buffer is full
func (b *Buffer) Add(obs *mat.Dense) error {
	rows, cols := obs.Dims()
	if cols != b.features {
		return fmt.Errorf("add: expected observations with %v features "+
			"but got %v", b.features, cols)
	}

	for _, span := range b.cursor.Advance(rows) {
		for i := 0; i < span.Len(); i++ {
			row := b.data[(span.Start+i)*b.features : (span.Start+i+1)*b.features]
			mat.Row(row, span.Offset+i, obs)
		}
	}
	return nil
}

// Sample draws n observations uniformly with replacement from the
// buffer. The returned matrix has one observation per row.
func (b *Buffer) Sample(n int, rng *rand.Rand) (*mat.Dense, error) {
	size := b.Size()
	if size == 0 {
		return nil, fmt.Errorf("sample: %w", ErrEmptyBuffer)
	}

	out := mat.NewDense(n, b.features, nil)
	for i := 0; i < n; i++ {
		index := rng.Intn(size)
		out.SetRow(i, b.data[index*b.features:(index+1)*b.features])
	}
	return out, nil
}

// Size returns the number of observations in the buffer
func (b *Buffer) Size() int {
	return b.cursor.Size()
}

// Full returns whether more observations than the capacity have been
// added
func (b *Buffer) Full() bool {
	return b.cursor.Full()
}

// Capacity returns the maximum number of observations held
func (b *Buffer) Capacity() int {
	return b.cursor.Capacity()
}

// Features returns the number of features per observation
func (b *Buffer) Features() int {
	return b.features
}
