package environment

import (
	"fmt"

	"github.com/samuelfneumann/drs/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// SpecType determines what kind of specification a Spec is
type SpecType int

const (
	Action SpecType = iota
	Observation
)

// Spec implements an environment specification, which tells the type,
// shape, and bounds of the actions or observations of an environment
type Spec struct {
	Shape      mat.Vector
	Type       SpecType
	LowerBound mat.Vector
	UpperBound mat.Vector
}

// NewSpec constructs a new environment specification.
// The shape argument outlines the shape of the data described by the
// specification. The argument t outlines what the specification is
// describing (actions or observations).
func NewSpec(shape mat.Vector, t SpecType, lowerBound,
	upperBound mat.Vector) Spec {
	if shape.Len() != lowerBound.Len() {
		panic(fmt.Sprintf("shape length %v must match lower bounds length %v",
			shape.Len(), lowerBound.Len()))
	}
	if shape.Len() != upperBound.Len() {
		panic(fmt.Sprintf("shape length %v must match upper bounds length %v",
			shape.Len(), upperBound.Len()))
	}
	return Spec{shape, t, lowerBound, upperBound}
}

// NewBoxSpec returns a Spec over the box with the given bounds
func NewBoxSpec(t SpecType, bounds []r1.Interval) Spec {
	low := mat.NewVecDense(len(bounds), nil)
	high := mat.NewVecDense(len(bounds), nil)
	for i, b := range bounds {
		low.SetVec(i, b.Min)
		high.SetVec(i, b.Max)
	}
	return NewSpec(mat.NewVecDense(len(bounds), nil), t, low, high)
}

// Dims returns the number of dimensions the Spec describes
func (s Spec) Dims() int {
	return s.Shape.Len()
}

// Bounds returns the per-dimension intervals of the Spec
func (s Spec) Bounds() []r1.Interval {
	bounds := make([]r1.Interval, s.Dims())
	for i := range bounds {
		bounds[i] = r1.Interval{
			Min: s.LowerBound.AtVec(i),
			Max: s.UpperBound.AtVec(i),
		}
	}
	return bounds
}

// Clip clips each element of v to the bounds of the Spec in place
func (s Spec) Clip(v *mat.VecDense) {
	for i := 0; i < v.Len(); i++ {
		v.SetVec(i, floatutils.Clip(v.AtVec(i), s.LowerBound.AtVec(i),
			s.UpperBound.AtVec(i)))
	}
}
