// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StepType denotes the type of step that a TimeStep can be, either the
// first environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// EndType describes why an episode ended
type EndType int

const (
	// Nonterminal is the EndType of a step which does not end an episode
	Nonterminal EndType = iota

	// TerminalStateReached denotes that the task itself ended the
	// episode. Bootstrapping must stop at such a step.
	TerminalStateReached

	// Timeout denotes that the episode was cut off by a step limit.
	// The next state still has a value.
	Timeout
)

func (e EndType) String() string {
	switch e {
	case TerminalStateReached:
		return "TerminalStateReached"
	case Timeout:
		return "Timeout"
	default:
		return "Nonterminal"
	}
}

// TimeStep packages together a single timestep in an environment
type TimeStep struct {
	stepType    StepType
	Reward      float64
	Observation *mat.VecDense
	Number      int
	EndType     EndType
}

// New returns a new TimeStep
func New(t StepType, r float64, o *mat.VecDense, n int) TimeStep {
	return TimeStep{stepType: t, Reward: r, Observation: o, Number: n}
}

// First returns whether a TimeStep is the first in an environment
func (t *TimeStep) First() bool {
	return t.stepType == First
}

// Mid returns whether a TimeStep is a middle step in an environment
func (t *TimeStep) Mid() bool {
	return t.stepType == Mid
}

// Last returns whether a TimeStep is the last step in an environment
func (t *TimeStep) Last() bool {
	return t.stepType == Last
}

// End marks the TimeStep as the last of its episode
func (t *TimeStep) End(e EndType) {
	t.stepType = Last
	t.EndType = e
}

// Terminal returns whether the episode ended in a terminal state
func (t *TimeStep) Terminal() bool {
	return t.Last() && t.EndType == TerminalStateReached
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  End: %v  |  " +
		"Step Number:  %v"

	return fmt.Sprintf(str, t.stepType, t.Reward, t.EndType, t.Number)
}

// Transition is a single (s, a, r, s') tuple stored in a replay
// buffer. StopBootstrap is set when s' is terminal.
type Transition struct {
	State         []float64
	Action        []float64
	Reward        float64
	NextState     []float64
	StopBootstrap bool
}
