package solver

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// VanillaConfig holds the hyperparameters of plain stochastic gradient
// descent
type VanillaConfig struct {
	StepSize float64
	Batch    int
	Clip     float64
}

// NewVanilla returns a stochastic gradient descent Solver. A
// non-positive clip disables gradient clipping.
func NewVanilla(stepSize float64, batchSize int,
	clip float64) (*Solver, error) {
	if err := checkStep(stepSize, batchSize); err != nil {
		return nil, fmt.Errorf("newVanilla: %v", err)
	}

	return newSolver(Vanilla, VanillaConfig{
		StepSize: stepSize,
		Batch:    batchSize,
		Clip:     clip,
	})
}

// Create returns the Gorgonia vanilla solver described by the config
func (v VanillaConfig) Create() G.Solver {
	opts := []G.SolverOpt{
		G.WithLearnRate(v.StepSize),
		G.WithBatchSize(float64(v.Batch)),
	}
	return G.NewVanillaSolver(withClip(opts, v.Clip)...)
}

// ValidType implements the Config interface
func (v VanillaConfig) ValidType(t Type) bool { return t == Vanilla }

func checkStep(stepSize float64, batch int) error {
	if stepSize <= 0 {
		return fmt.Errorf("step size must be positive but got %v", stepSize)
	}
	if batch < 1 {
		return fmt.Errorf("batch size must be positive but got %v", batch)
	}
	return nil
}

// checkDecay ensures a moving average decay lies in [0, 1)
func checkDecay(name string, decay float64) error {
	if decay < 0 || decay >= 1 {
		return fmt.Errorf("%v must be in [0, 1) but got %v", name, decay)
	}
	return nil
}

func withClip(opts []G.SolverOpt, clip float64) []G.SolverOpt {
	if clip > 0 {
		return append(opts, G.WithClip(clip))
	}
	return opts
}
