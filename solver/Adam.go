package solver

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// AdamConfig holds the hyperparameters of an Adam solver. Gradients are
// divided by Batch and, when Clip is positive, clipped elementwise to
// [-Clip, Clip] before the moment estimates are updated.
type AdamConfig struct {
	StepSize float64
	Epsilon  float64
	Beta1    float64
	Beta2    float64
	Batch    int
	Clip     float64
}

// NewDefaultAdam returns an Adam Solver with β1 = 0.9, β2 = 0.999 and
// ε = 1e-8, without clipping
func NewDefaultAdam(stepSize float64, batchSize int) (*Solver, error) {
	return NewAdam(stepSize, 1e-8, 0.9, 0.999, batchSize)
}

// NewAdam returns an Adam Solver
func NewAdam(stepSize, epsilon, beta1, beta2 float64,
	batchSize int) (*Solver, error) {
	c := AdamConfig{
		StepSize: stepSize,
		Epsilon:  epsilon,
		Beta1:    beta1,
		Beta2:    beta2,
		Batch:    batchSize,
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("newAdam: %v", err)
	}

	return newSolver(Adam, c)
}

func (a AdamConfig) validate() error {
	if err := checkStep(a.StepSize, a.Batch); err != nil {
		return err
	}
	if a.Epsilon <= 0 {
		return fmt.Errorf("epsilon must be positive but got %v", a.Epsilon)
	}
	if err := checkDecay("β1", a.Beta1); err != nil {
		return err
	}
	return checkDecay("β2", a.Beta2)
}

// Create returns the Gorgonia Adam solver described by the config
func (a AdamConfig) Create() G.Solver {
	opts := []G.SolverOpt{
		G.WithLearnRate(a.StepSize),
		G.WithEps(a.Epsilon),
		G.WithBeta1(a.Beta1),
		G.WithBeta2(a.Beta2),
		G.WithBatchSize(float64(a.Batch)),
	}
	return G.NewAdamSolver(withClip(opts, a.Clip)...)
}

// ValidType implements the Config interface
func (a AdamConfig) ValidType(t Type) bool { return t == Adam }
