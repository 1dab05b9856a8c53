package solver

import (
	"encoding/json"
	"testing"
)

func TestNewByName(t *testing.T) {
	for _, name := range []string{"adam", "Adam", "rmsprop", "vanilla"} {
		s, err := New(name, 3e-4)
		if err != nil {
			t.Errorf("%v: %v", name, err)
			continue
		}
		if s.Solver == nil {
			t.Errorf("%v: solver not created", name)
		}
	}

	if _, err := New("sgd-momentum", 1e-3); err == nil {
		t.Error("expected an error for an unknown solver")
	}
	if _, err := New("adam", 0); err == nil {
		t.Error("expected an error for a zero step size")
	}
}

func TestUnmarshalJSON(t *testing.T) {
	adam, err := NewAdam(1e-3, 1e-8, 0.9, 0.99, 1)
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(adam)
	if err != nil {
		t.Fatal(err)
	}

	var s Solver
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatal(err)
	}
	config, ok := s.Config.(AdamConfig)
	if !ok {
		t.Fatalf("want AdamConfig have %T", s.Config)
	}
	if config.Beta2 != 0.99 || config.StepSize != 1e-3 {
		t.Errorf("want %+v have %+v", adam.Config, config)
	}
	if s.Fresh().Solver == s.Solver {
		t.Error("fresh solver should not share state")
	}
}

func TestHyperparameters(t *testing.T) {
	invalid := map[string]func() (*Solver, error){
		"adam epsilon": func() (*Solver, error) {
			return NewAdam(1e-3, 0, 0.9, 0.999, 1)
		},
		"adam beta1": func() (*Solver, error) {
			return NewAdam(1e-3, 1e-8, 1.0, 0.999, 1)
		},
		"adam beta2": func() (*Solver, error) {
			return NewAdam(1e-3, 1e-8, 0.9, -0.1, 1)
		},
		"adam batch": func() (*Solver, error) {
			return NewDefaultAdam(1e-3, 0)
		},
		"rmsprop rho": func() (*Solver, error) {
			return NewRMSProp(1e-3, 1e-8, 1.5, 1, 0)
		},
		"vanilla step size": func() (*Solver, error) {
			return NewVanilla(-1e-3, 1, 0)
		},
	}
	for name, create := range invalid {
		if _, err := create(); err == nil {
			t.Errorf("%v: expected an error", name)
		}
	}

	clipped, err := NewRMSProp(1e-3, 1e-8, 0.9, 32, 5)
	if err != nil {
		t.Fatal(err)
	}
	if c := clipped.Config.(RMSPropConfig); c.Clip != 5 || c.Batch != 32 {
		t.Errorf("want clip 5 and batch 32 have %+v", c)
	}
	if clipped.Solver == nil {
		t.Error("solver not created")
	}
}
