package solver

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// RMSPropConfig holds the hyperparameters of an RMSProp solver. Rho is
// the decay of the running average of squared gradients.
type RMSPropConfig struct {
	StepSize float64
	Epsilon  float64
	Rho      float64
	Batch    int
	Clip     float64
}

// NewDefaultRMSProp returns an RMSProp Solver with ρ = 0.999 and
// ε = 1e-8, without clipping
func NewDefaultRMSProp(stepSize float64, batchSize int) (*Solver, error) {
	return NewRMSProp(stepSize, 1e-8, 0.999, batchSize, 0)
}

// NewRMSProp returns an RMSProp Solver. A non-positive clip disables
// gradient clipping.
func NewRMSProp(stepSize, epsilon, rho float64, batchSize int,
	clip float64) (*Solver, error) {
	c := RMSPropConfig{
		StepSize: stepSize,
		Epsilon:  epsilon,
		Rho:      rho,
		Batch:    batchSize,
		Clip:     clip,
	}
	if err := checkStep(c.StepSize, c.Batch); err != nil {
		return nil, fmt.Errorf("newRMSProp: %v", err)
	}
	if c.Epsilon <= 0 {
		return nil, fmt.Errorf("newRMSProp: epsilon must be positive but "+
			"got %v", c.Epsilon)
	}
	if err := checkDecay("ρ", c.Rho); err != nil {
		return nil, fmt.Errorf("newRMSProp: %v", err)
	}

	return newSolver(RMSProp, c)
}

// Create returns the Gorgonia RMSProp solver described by the config
func (r RMSPropConfig) Create() G.Solver {
	opts := []G.SolverOpt{
		G.WithLearnRate(r.StepSize),
		G.WithEps(r.Epsilon),
		G.WithRho(r.Rho),
		G.WithBatchSize(float64(r.Batch)),
	}
	return G.NewRMSPropSolver(withClip(opts, r.Clip)...)
}

// ValidType implements the Config interface
func (r RMSPropConfig) ValidType(t Type) bool { return t == RMSProp }
