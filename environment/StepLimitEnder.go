package environment

import ts "github.com/samuelfneumann/drs/timestep"

// StepLimit implements the Ender interface to end episodes at specific
// timestep limits
type StepLimit struct {
	episodeSteps int
}

// NewStepLimit creates and returns a new step limit
func NewStepLimit(episodeSteps int) StepLimit {
	return StepLimit{episodeSteps}
}

// End determines whether or not the current episode should be cut off.
// If so, t is marked as the last step of its episode with a Timeout
// EndType, unless the episode already ended in a terminal state.
func (s StepLimit) End(t *ts.TimeStep) bool {
	if t.Terminal() {
		return false
	}
	if t.Number >= s.episodeSteps {
		t.End(ts.Timeout)
		return true
	}
	return false
}
