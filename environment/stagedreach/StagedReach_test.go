package stagedreach

import (
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

func line() Config {
	return Config{
		Waypoints:   [][]float64{{0.1, 0}, {0.2, 0}},
		Radius:      0.05,
		StepSize:    0.1,
		Arena:       r1.Interval{Min: -1, Max: 1},
		StartBounds: []r1.Interval{{Min: 0, Max: 0}, {Min: 0, Max: 0}},
	}
}

func TestStages(t *testing.T) {
	env, err := New(line(), 1)
	if err != nil {
		t.Fatal(err)
	}
	first, err := env.Reset()
	if err != nil {
		t.Fatal(err)
	}
	if n := first.Observation.Len(); n != 5 {
		t.Fatalf("want 5 features have %v", n)
	}
	if first.Observation.AtVec(4) != 0 {
		t.Error("no stage should be complete at the start")
	}

	right := mat.NewVecDense(2, []float64{1, 0})
	step, done, err := env.Step(right)
	if err != nil {
		t.Fatal(err)
	}
	if done || step.Reward != 1 || step.Observation.AtVec(4) != 1 {
		t.Errorf("first waypoint: done %v reward %v indicator %v", done,
			step.Reward, step.Observation.AtVec(4))
	}
	if dx := step.Observation.AtVec(2); dx < 0.09 || dx > 0.11 {
		t.Errorf("offset to second waypoint should be 0.1 but is %v", dx)
	}

	step, done, err = env.Step(mat.NewVecDense(2, []float64{3, 0}))
	if err != nil {
		t.Fatal(err)
	}
	if !done || !env.Success() || !step.Terminal() || step.Reward != 2 {
		t.Errorf("second waypoint: done %v success %v reward %v", done,
			env.Success(), step.Reward)
	}

	if _, _, err := env.Step(right); err == nil {
		t.Error("expected error stepping a finished episode")
	}
	if _, err := env.Reset(); err != nil || env.Success() {
		t.Error("reset should start a new episode")
	}
}

func TestParse(t *testing.T) {
	c, ok := Parse("StagedReach3-v0")
	if !ok || len(c.Waypoints) != 3 {
		t.Errorf("want 3 stages have %v (ok %v)", len(c.Waypoints), ok)
	}
	if err := c.Validate(); err != nil {
		t.Error(err)
	}
	for _, id := range []string{"Pendulum-v0", "StagedReach0-v0"} {
		if _, ok := Parse(id); ok {
			t.Errorf("%v should not parse", id)
		}
	}
}
