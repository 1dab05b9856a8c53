package demo

import (
	"fmt"

	"github.com/samuelfneumann/drs/environment"
	"gonum.org/v1/gonum/mat"
)

// Expert selects an action from an observation
type Expert func(obs *mat.VecDense) *mat.VecDense

// Record runs expert in env for the given number of episodes of at
// most maxSteps steps and returns the next observations of the
// episodes which succeeded
func Record(env environment.Environment, expert Expert, episodes,
	maxSteps int) (Dataset, error) {
	var rows []float64
	features := env.ObservationSpec().Dims()

	for ep := 0; ep < episodes; ep++ {
		t, err := env.Reset()
		if err != nil {
			return nil, fmt.Errorf("record: %v", err)
		}

		var episode []float64
		success := false
		for step := 0; step < maxSteps; step++ {
			next, done, err := env.Step(expert(t.Observation))
			if err != nil {
				return nil, fmt.Errorf("record: %v", err)
			}
			episode = append(episode, next.Observation.RawVector().Data...)
			t = next
			if done {
				success = true
				if s, ok := env.(environment.Successer); ok {
					success = s.Success()
				}
				break
			}
		}
		if success {
			rows = append(rows, episode...)
		}
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("record: no successful episodes in %v",
			episodes)
	}
	next := mat.NewDense(len(rows)/features, features, rows)
	return Dataset{NextObservations: next}, nil
}
