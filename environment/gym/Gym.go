// Package gym provides access to OpenAI Gym compatible environments
// through the Go bindings at https://github.com/samuelfneumann/GoGym.
//
// Gym environments only report whether an episode is done. An episode
// done before the step limit has reached a terminal state and counts as
// a success. An episode which is done at, or runs into, the step limit
// was cut off by a time limit: it is marked with a Timeout and is not a
// success.
package gym

import (
	"fmt"

	"github.com/samuelfneumann/drs/environment"
	ts "github.com/samuelfneumann/drs/timestep"
	"github.com/samuelfneumann/gogym"
	"gonum.org/v1/gonum/mat"
)

// GymEnv implements access to an OpenAI Gym environment using GoGym
type GymEnv struct {
	gogym.Environment
	name     string
	maxSteps int
	steps    int
	success  bool
}

// New returns a new GymEnv with the given name, which must be a legal
// name of a registered gym environment. Episodes are cut off after
// maxEpisodeSteps steps, which should match the time limit the
// environment is registered with.
func New(name string, maxEpisodeSteps int) (*GymEnv, error) {
	goGymEnv, err := gogym.Make(name)
	if err != nil {
		return nil, fmt.Errorf("new: could not create environment %v: %v",
			name, err)
	}
	g, err := Wrap(goGymEnv, maxEpisodeSteps)
	if err != nil {
		goGymEnv.Close()
		return nil, fmt.Errorf("new: %v", err)
	}
	return g, nil
}

// Wrap returns a GymEnv around an existing GoGym environment whose
// episodes are cut off after maxEpisodeSteps steps
func Wrap(env gogym.Environment, maxEpisodeSteps int) (*GymEnv, error) {
	if maxEpisodeSteps <= 0 {
		return nil, fmt.Errorf("wrap: max episode steps must be positive "+
			"but got %v", maxEpisodeSteps)
	}
	return &GymEnv{
		Environment: env,
		name:        env.Name(),
		maxSteps:    maxEpisodeSteps,
	}, nil
}

// Seed seeds the underlying gym environment
func (g *GymEnv) Seed(seed uint64) {
	g.Environment.Seed(int(seed))
}

// Step takes a single environmental step
func (g *GymEnv) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	obs, reward, done, err := g.Environment.Step(a)
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: could not step "+
			"%v: %v", g.name, err)
	}

	g.steps++
	t := ts.New(ts.Mid, reward, obs, g.steps)
	switch {
	case g.steps >= g.maxSteps:
		t.End(ts.Timeout)
		done = true
	case done:
		t.End(ts.TerminalStateReached)
		g.success = true
	}
	return t, done, nil
}

// Success returns whether the current episode reached a terminal state
// before the step limit
func (g *GymEnv) Success() bool {
	return g.success
}

// Reset resets the environment to some starting state
func (g *GymEnv) Reset() (ts.TimeStep, error) {
	obs, err := g.Environment.Reset()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: could not reset %v: %v",
			g.name, err)
	}
	g.steps = 0
	g.success = false
	return ts.New(ts.First, 0, obs, 0), nil
}

// ObservationSpec returns the observation spec of the environment
func (g *GymEnv) ObservationSpec() environment.Spec {
	space := g.ObservationSpace()
	if _, ok := space.(*gogym.BoxSpace); !ok {
		panic("observationSpec: invalid space type, package gym supports " +
			"only GoGym's BoxSpace")
	}
	return boxSpec(space.Low()[0], space.High()[0], environment.Observation)
}

// ActionSpec returns the action specification of the environment
func (g *GymEnv) ActionSpec() environment.Spec {
	space := g.ActionSpace()
	if _, ok := space.(*gogym.BoxSpace); !ok {
		panic("actionSpec: invalid space type, package gym supports " +
			"only GoGym's BoxSpace")
	}
	return boxSpec(space.Low()[0], space.High()[0], environment.Action)
}

func boxSpec(low, high *mat.VecDense, t environment.SpecType) environment.Spec {
	shape := mat.NewVecDense(low.Len(), nil)
	return environment.NewSpec(shape, t, low, high)
}

// Close performs resource cleanup after the environment is no longer
// needed
func (g *GymEnv) Close() error {
	g.Environment.Close()
	return nil
}
