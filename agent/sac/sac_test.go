package sac

import (
	"math"
	"testing"

	"github.com/samuelfneumann/drs/buffer/expreplay"
	"github.com/samuelfneumann/drs/solver"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
)

func testConfig(t *testing.T, batch int, autotune bool) Config {
	t.Helper()
	policy, err := solver.New("adam", 3e-4)
	if err != nil {
		t.Fatal(err)
	}
	critic, err := solver.New("adam", 1e-3)
	if err != nil {
		t.Fatal(err)
	}
	return Config{
		HiddenSizes:            []int{8, 8},
		InitWFn:                G.GlorotU(1.0),
		PolicySolver:           policy,
		CriticSolver:           critic,
		BatchSize:              batch,
		Gamma:                  0.99,
		Tau:                    0.005,
		Alpha:                  0.2,
		Autotune:               autotune,
		PolicyFrequency:        2,
		TargetNetworkFrequency: 1,
	}
}

func TestTargetValuesStopBootstrap(t *testing.T) {
	rewards := []float64{-1.5, -1.5, 0}
	stop := []float64{1, 0, 1}
	q1 := []float64{100, 2, -50}
	q2 := []float64{-100, 3, 50}
	logp := []float64{7, 0.5, 7}

	for _, gamma := range []float64{0, 0.8, 1} {
		targets := TargetValues(rewards, stop, q1, q2, logp, gamma, 0.2)
		if targets[0] != rewards[0] || targets[2] != rewards[2] {
			t.Errorf("gamma %v: stopped targets should equal rewards, "+
				"have %v", gamma, targets)
		}
		want := rewards[1] + gamma*(2-0.2*0.5)
		if math.Abs(targets[1]-want) > 1e-12 {
			t.Errorf("gamma %v: want %v have %v", gamma, want, targets[1])
		}
	}
}

func TestSquash(t *testing.T) {
	// With zero noise the action is the squashed mean
	a, _ := squash(0.3, 0, 0, 2, 1)
	if want := math.Tanh(0.3)*2 + 1; math.Abs(a-want) > 1e-12 {
		t.Errorf("action: want %v have %v", want, a)
	}

	// Saturated actions stay within bounds with finite log densities
	for _, mean := range []float64{-50, 50} {
		a, lp := squash(mean, 3, 1, 1, 0)
		if a < -1 || a > 1 {
			t.Errorf("action %v out of bounds", a)
		}
		if math.IsNaN(lp) || math.IsInf(lp, 0) {
			t.Errorf("log density should be finite but got %v", lp)
		}
	}

	if s := rescaleLogStd(-1e6); math.Abs(s-logStdMin) > 1e-12 {
		t.Errorf("minimum log std: want %v have %v", logStdMin, s)
	}
	if s := rescaleLogStd(1e6); math.Abs(s-logStdMax) > 1e-12 {
		t.Errorf("maximum log std: want %v have %v", logStdMax, s)
	}
}

func TestActionsWithinBounds(t *testing.T) {
	low, high := []float64{-1, 0}, []float64{1, 4}
	agent, err := New(3, low, high, testConfig(t, 4, false), 1)
	if err != nil {
		t.Fatal(err)
	}
	defer agent.Close()

	obs := mat.NewDense(5, 3, []float64{
		0, 0, 0,
		1, 2, 3,
		-1, 0, 1,
		10, -10, 10,
		0.5, 0.5, 0.5,
	})
	check := func(name string, m *mat.Dense) {
		r, c := m.Dims()
		if r != 5 && r != 7 || c != 2 {
			t.Fatalf("%s: unexpected shape (%v, %v)", name, r, c)
		}
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				if v := m.At(i, j); v < low[j] || v > high[j] {
					t.Errorf("%s: action %v out of [%v, %v]", name, v, low[j],
						high[j])
				}
			}
		}
	}

	sampled, err := agent.SelectActions(obs)
	if err != nil {
		t.Fatal(err)
	}
	check("sampled", sampled)

	greedy, err := agent.EvalActions(obs)
	if err != nil {
		t.Fatal(err)
	}
	check("greedy", greedy)
	again, err := agent.EvalActions(obs)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(greedy, again) {
		t.Error("evaluation actions should be deterministic")
	}

	check("random", agent.RandomActions(7))
}

func TestInvalidBounds(t *testing.T) {
	if _, err := New(3, []float64{1}, []float64{1}, testConfig(t, 4, false),
		1); err == nil {
		t.Error("expected error for empty action range")
	}
	if _, err := New(3, []float64{0, 0}, []float64{1},
		testConfig(t, 4, false), 1); err == nil {
		t.Error("expected error for mismatched bounds")
	}
}

func TestUpdate(t *testing.T) {
	const batch = 4
	agent, err := New(2, []float64{-1}, []float64{1},
		testConfig(t, batch, true), 3)
	if err != nil {
		t.Fatal(err)
	}
	defer agent.Close()

	if agent.Alpha() != 1.0 {
		t.Errorf("learned temperature should start at 1 but is %v",
			agent.Alpha())
	}

	b := expreplay.Batch{
		States:        mat.NewDense(batch, 2, []float64{0, 0, 1, 0, 0, 1, 1, 1}),
		Actions:       mat.NewDense(batch, 1, []float64{0.1, -0.2, 0.3, 0}),
		NextStates:    mat.NewDense(batch, 2, []float64{1, 0, 0, 1, 1, 1, 0, 0}),
		Rewards:       []float64{0, 1, 1, 2},
		StopBootstrap: []float64{0, 0, 0, 1},
	}
	rewards := []float64{-2, -1.5, -1.5, -1}

	stats, err := agent.Update(b, rewards, 1)
	if err != nil {
		t.Fatal(err)
	}
	if stats.ActorUpdated {
		t.Error("actor should not be updated on odd updates")
	}
	if stats.QF1Loss <= 0 || stats.QF2Loss <= 0 {
		t.Errorf("critic losses should be positive: %+v", stats)
	}

	stats, err = agent.Update(b, rewards, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !stats.ActorUpdated {
		t.Error("actor should be updated on even updates")
	}
	if stats.Alpha == 1.0 || stats.Alpha != agent.Alpha() {
		t.Errorf("temperature should have been updated: %v", stats.Alpha)
	}
	for _, v := range []float64{stats.ActorLoss, stats.AlphaLoss, stats.QFLoss} {
		if math.IsNaN(v) {
			t.Errorf("NaN statistic: %+v", stats)
		}
	}

	if _, err := agent.Update(b, rewards[:2], 3); err == nil {
		t.Error("expected error for wrong batch size")
	}
}

// countingSolver counts the gradient steps taken by a solver
type countingSolver struct {
	G.Solver
	steps int
}

func (c *countingSolver) Step(model []G.ValueGrad) error {
	c.steps++
	return c.Solver.Step(model)
}

func TestActorSchedule(t *testing.T) {
	const batch = 4
	agent, err := New(2, []float64{-1}, []float64{1},
		testConfig(t, batch, true), 5)
	if err != nil {
		t.Fatal(err)
	}
	defer agent.Close()

	actor := &countingSolver{Solver: agent.actorSolver}
	agent.actorSolver = actor
	temperature := &countingSolver{Solver: agent.alphaSolver}
	agent.alphaSolver = temperature

	b := expreplay.Batch{
		States:        mat.NewDense(batch, 2, []float64{0, 0, 1, 0, 0, 1, 1, 1}),
		Actions:       mat.NewDense(batch, 1, []float64{0.1, -0.2, 0.3, 0}),
		NextStates:    mat.NewDense(batch, 2, []float64{1, 0, 0, 1, 1, 1, 0, 0}),
		Rewards:       []float64{0, 1, 1, 2},
		StopBootstrap: []float64{0, 0, 0, 1},
	}
	rewards := []float64{-2, -1.5, -1.5, -1}

	// Policy frequency 2: updates 2 and 4 train the actor once each
	for update := 1; update <= 4; update++ {
		if _, err := agent.Update(b, rewards, update); err != nil {
			t.Fatal(err)
		}
	}
	if actor.steps != 2 {
		t.Errorf("want 2 actor steps have %v", actor.steps)
	}
	if temperature.steps != 2 {
		t.Errorf("want 2 temperature steps have %v", temperature.steps)
	}
}
