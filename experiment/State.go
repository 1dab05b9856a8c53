package experiment

import (
	"time"

	"github.com/samuelfneumann/drs/agent/sac"
	"github.com/samuelfneumann/drs/discriminator"
)

// TrainingState is the mutable state of the training loop
type TrainingState struct {
	GlobalStep      int
	GlobalUpdate    int
	LearningStarted bool

	// Results accumulates training episodes until the next log
	// boundary
	Results Results

	// Latest learner statistics
	Losses    sac.Stats
	DiscStats map[int]discriminator.Stats

	StartTime time.Time
}

// newTrainingState returns the state of a run starting now
func newTrainingState() TrainingState {
	return TrainingState{
		Results:   NewResults(),
		DiscStats: make(map[int]discriminator.Stats),
		StartTime: time.Now(),
	}
}

// crossed returns whether the last advance of step by freq passed a
// multiple of interval
func crossed(step, freq, interval int) bool {
	return (step-freq)/interval < step/interval
}
