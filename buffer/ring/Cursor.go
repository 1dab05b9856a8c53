// Package ring implements the write cursor shared by the fixed-capacity
// circular buffers used during training.
package ring

import "fmt"

// Span is a contiguous run of ring slots [Start, End) which receives
// the source rows [Offset, Offset+End-Start) of a batch being written.
type Span struct {
	Start  int
	End    int
	Offset int
}

// Len returns the number of slots covered by the span
func (s Span) Len() int {
	return s.End - s.Start
}

// Cursor tracks the write position of a circular buffer of fixed
// capacity. Writing continues from slot 0 once the end of the buffer is
// reached, overwriting the oldest data.
type Cursor struct {
	capacity int
	pos      int
	total    int
}

// New returns a new Cursor over a buffer with the given capacity
func New(capacity int) (*Cursor, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("new: capacity must be positive but got %v",
			capacity)
	}
	return &Cursor{capacity: capacity}, nil
}

// Advance moves the cursor forward by n slots and returns the spans
// that the n rows should be written to, in order. A batch is split at
// the wrap point as many times as needed, so batches larger than the
// capacity are supported; writing the spans in order leaves the last
// capacity rows of the batch in the buffer.
func (c *Cursor) Advance(n int) []Span {
	if n < 0 {
		panic(fmt.Sprintf("advance: cannot advance by %v slots", n))
	}

	var spans []Span
	offset := 0
	for n > 0 {
		k := c.capacity - c.pos
		if n < k {
			k = n
		}
		spans = append(spans, Span{Start: c.pos, End: c.pos + k,
			Offset: offset})

		c.pos = (c.pos + k) % c.capacity
		c.total += k
		offset += k
		n -= k
	}

	return spans
}

// Size returns the number of valid slots in the buffer
func (c *Cursor) Size() int {
	if c.total > c.capacity {
		return c.capacity
	}
	return c.total
}

// Full returns whether more rows than the capacity have been written,
// so that the oldest rows have been overwritten
func (c *Cursor) Full() bool {
	return c.total > c.capacity
}

// Pos returns the next slot to be written
func (c *Cursor) Pos() int {
	return c.pos
}

// Capacity returns the total number of slots in the buffer
func (c *Cursor) Capacity() int {
	return c.capacity
}
