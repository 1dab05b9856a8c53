package stage

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Batch is a batch of observations drawn from a group of buffers.
// Rows are ordered by buffer, following the order the buffers were
// given to SampleFrom. Sources[i] is the index, within that group, of
// the buffer row i was drawn from.
type Batch struct {
	NextObservations *mat.Dense
	Sources          []int
}

// Shares splits n samples between buffers proportionally to their
// sizes. Each buffer receives floor(n*size/total) samples and the
// remainder goes to the largest buffer, the first one on ties.
func Shares(sizes []int, n int) ([]int, error) {
	total := 0
	for _, size := range sizes {
		total += size
	}
	if total == 0 {
		return nil, ErrAllEmpty
	}

	shares := make([]int, len(sizes))
	assigned := 0
	largest := 0
	for i, size := range sizes {
		shares[i] = n * size / total
		assigned += shares[i]
		if size > sizes[largest] {
			largest = i
		}
	}
	shares[largest] += n - assigned

	return shares, nil
}

// SampleFrom draws n observations from the union of buffers, each
// buffer contributing proportionally to the number of observations it
// holds. Buffers with a zero share are skipped.
func SampleFrom(buffers []*Buffer, n int, rng *rand.Rand) (Batch, error) {
	if len(buffers) == 0 {
		return Batch{}, fmt.Errorf("sampleFrom: %w", ErrAllEmpty)
	}

	sizes := make([]int, len(buffers))
	for i := range buffers {
		sizes[i] = buffers[i].Size()
	}
	shares, err := Shares(sizes, n)
	if err != nil {
		return Batch{}, fmt.Errorf("sampleFrom: %w", err)
	}

	features := buffers[0].Features()
	out := mat.NewDense(n, features, nil)
	sources := make([]int, 0, n)
	row := 0
	for i, share := range shares {
		if share == 0 {
			continue
		}
		if buffers[i].Features() != features {
			return Batch{}, fmt.Errorf("sampleFrom: buffer %v has %v "+
				"features but buffer 0 has %v", i, buffers[i].Features(),
				features)
		}

		samples, err := buffers[i].Sample(share, rng)
		if err != nil {
			return Batch{}, fmt.Errorf("sampleFrom: buffer %v: %w", i, err)
		}
		out.Slice(row, row+share, 0, features).(*mat.Dense).Copy(samples)
		for j := 0; j < share; j++ {
			sources = append(sources, i)
		}
		row += share
	}

	return Batch{NextObservations: out, Sources: sources}, nil
}
