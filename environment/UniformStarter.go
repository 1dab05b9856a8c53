package environment

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
)

// UniformStarter samples starting states uniformly from a box
type UniformStarter struct {
	bounds []r1.Interval
	rand   *distmv.Uniform
}

// NewUniformStarter returns a UniformStarter over the box given by
// bounds
func NewUniformStarter(bounds []r1.Interval, seed uint64) (*UniformStarter,
	error) {
	if len(bounds) == 0 {
		return nil, fmt.Errorf("newUniformStarter: no bounds given")
	}
	for i, b := range bounds {
		if b.Min > b.Max {
			return nil, fmt.Errorf("newUniformStarter: dimension %v has "+
				"min %v > max %v", i, b.Min, b.Max)
		}
	}

	u := &UniformStarter{bounds: append([]r1.Interval{}, bounds...)}
	u.Seed(seed)
	return u, nil
}

// Seed reseeds the starting state distribution
func (u *UniformStarter) Seed(seed uint64) {
	u.rand = distmv.NewUniform(u.bounds, rand.NewSource(seed))
}

// Start samples a starting state
func (u *UniformStarter) Start() *mat.VecDense {
	return mat.NewVecDense(len(u.bounds), u.rand.Rand(nil))
}
