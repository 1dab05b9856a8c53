// Package environment outlines the interfaces needed to implement
// concrete environments, and batches single environments into a
// vectorized environment
package environment

import (
	ts "github.com/samuelfneumann/drs/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when an episode should be cut off
type Ender interface {
	// End marks t as the last step of its episode and returns true if
	// the episode should end at t
	End(t *ts.TimeStep) bool
}

// Environment implements a simulated environment with continuous
// actions. The boolean returned by Step indicates that the task
// reached a terminal state.
type Environment interface {
	Reset() (ts.TimeStep, error)
	Step(action *mat.VecDense) (ts.TimeStep, bool, error)
	ObservationSpec() Spec
	ActionSpec() Spec
	Close() error
}

// Seeder is an Environment whose randomness can be seeded
type Seeder interface {
	Seed(seed uint64)
}

// Successer is an Environment which reports whether the current
// episode succeeded. Environments that do not implement Successer
// succeed exactly when they terminate.
type Successer interface {
	Success() bool
}
