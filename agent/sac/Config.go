package sac

import (
	"fmt"

	"github.com/samuelfneumann/drs/solver"
	G "gorgonia.org/gorgonia"
)

// Config implements a configuration of a SAC agent
type Config struct {
	// Hidden layers of the actor root network and of each critic. All
	// hidden layers use ReLU activations and biases.
	HiddenSizes []int
	InitWFn     G.InitWFn

	PolicySolver *solver.Solver
	CriticSolver *solver.Solver // Also trains the entropy temperature

	BatchSize int
	Gamma     float64
	Tau       float64

	// Alpha is the entropy temperature used when Autotune is false.
	// With Autotune, the temperature starts at 1 and is learned towards
	// a target entropy of -(action dimensions).
	Alpha    float64
	Autotune bool

	PolicyFrequency        int
	TargetNetworkFrequency int
}

// Validate checks that the Config describes a legal agent
func (c Config) Validate() error {
	if len(c.HiddenSizes) == 0 {
		return fmt.Errorf("at least one hidden layer is required")
	}
	for _, h := range c.HiddenSizes {
		if h <= 0 {
			return fmt.Errorf("hidden layer sizes must be positive but "+
				"got %v", c.HiddenSizes)
		}
	}
	if c.InitWFn == nil || c.PolicySolver == nil || c.CriticSolver == nil {
		return fmt.Errorf("weight initializer and solvers must be set")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive but got %v",
			c.BatchSize)
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("gamma must be in [0, 1] but got %v", c.Gamma)
	}
	if c.Tau <= 0 || c.Tau > 1 {
		return fmt.Errorf("tau must be in (0, 1] but got %v", c.Tau)
	}
	if !c.Autotune && c.Alpha < 0 {
		return fmt.Errorf("alpha must be non-negative but got %v", c.Alpha)
	}
	if c.PolicyFrequency <= 0 || c.TargetNetworkFrequency <= 0 {
		return fmt.Errorf("policy (%v) and target network (%v) frequencies "+
			"must be positive", c.PolicyFrequency, c.TargetNetworkFrequency)
	}
	return nil
}
