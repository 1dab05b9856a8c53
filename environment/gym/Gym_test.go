package gym_test

import (
	"testing"

	"github.com/samuelfneumann/drs/environment"
	"github.com/samuelfneumann/drs/environment/gym"
	"gonum.org/v1/gonum/mat"
)

func TestVecEnv(t *testing.T) {
	const name = "Pendulum-v0"

	envs := make([]environment.Environment, 2)
	for i := range envs {
		e, err := gym.New(name, 5)
		if err != nil {
			t.Skipf("gym environment %v unavailable: %v", name, err)
		}
		envs[i] = e
	}

	v, err := environment.NewVecEnv(envs, 5, false)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Close()

	obs, err := v.Reset(123)
	if err != nil {
		t.Fatal(err)
	}
	if r, c := obs.Dims(); r != 2 || c != v.ObservationSpec().Dims() {
		t.Errorf("unexpected observation shape (%v, %v)", r, c)
	}

	actions := mat.NewDense(2, v.ActionSpec().Dims(), nil)
	ended := 0
	for i := 0; i < 10; i++ {
		step, err := v.Step(actions)
		if err != nil {
			t.Fatal(err)
		}
		for j := 0; j < 2; j++ {
			if step.Final[j] != nil {
				ended++
			}
		}
	}
	if ended != 4 {
		t.Errorf("want 4 episodes cut off after 5 steps, have %v", ended)
	}
}
