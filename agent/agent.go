// Package agent defines the interfaces of agents acting in a number of
// environments at once
package agent

import (
	"gonum.org/v1/gonum/mat"
)

// Policy represents a policy that an agent can have.
//
// Row i of each observation and action matrix belongs to environment i.
// Policies determine how agents select actions. The behaviour policy
// explores; the evaluation policy acts deterministically.
type Policy interface {
	SelectActions(obs *mat.Dense) (*mat.Dense, error)
	EvalActions(obs *mat.Dense) (*mat.Dense, error)

	// RandomActions returns n actions drawn uniformly from the action
	// space, used before learning starts
	RandomActions(n int) *mat.Dense
}

// Agent is a Policy holding resources which must be released
type Agent interface {
	Policy
	Close() error
}
