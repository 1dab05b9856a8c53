package environment

import (
	"fmt"
	"sync"

	ts "github.com/samuelfneumann/drs/timestep"
	"gonum.org/v1/gonum/mat"
)

// EpisodeInfo summarises an episode which ended on some step
type EpisodeInfo struct {
	Success bool
	Return  float64
	Length  int

	// FinalObservation is the last observation of the episode. The
	// observation returned for the same slot is already the first
	// observation of the next episode.
	FinalObservation *mat.VecDense
}

// VecStep is the outcome of one step of all environments in a VecEnv.
// Row i of Observations belongs to slot i.
type VecStep struct {
	Observations *mat.Dense
	Rewards      []float64
	Terminated   []bool
	Truncated    []bool

	// Final[i] is non-nil exactly when slot i ended an episode
	Final []*EpisodeInfo
}

// Done returns whether slot i ended an episode
func (v VecStep) Done(i int) bool {
	return v.Terminated[i] || v.Truncated[i]
}

// VecEnv steps a number of independent environments in lock step.
// Each environment is automatically reset when its episode ends, and
// episodes are cut off after a maximum number of steps.
type VecEnv struct {
	envs     []Environment
	limit    StepLimit
	parallel bool

	obsSpec    Spec
	actionSpec Spec

	returns []float64
	lengths []int
}

// NewVecEnv returns a new VecEnv over envs, which must share their
// observation and action specifications. If parallel, environments
// are stepped in separate goroutines.
func NewVecEnv(envs []Environment, maxEpisodeSteps int,
	parallel bool) (*VecEnv, error) {
	if len(envs) == 0 {
		return nil, fmt.Errorf("newVecEnv: at least one environment is " +
			"required")
	}
	if maxEpisodeSteps <= 0 {
		return nil, fmt.Errorf("newVecEnv: maximum episode steps must be "+
			"positive but got %v", maxEpisodeSteps)
	}

	obsSpec, actionSpec := envs[0].ObservationSpec(), envs[0].ActionSpec()
	for i, e := range envs[1:] {
		if e.ObservationSpec().Dims() != obsSpec.Dims() ||
			e.ActionSpec().Dims() != actionSpec.Dims() {
			return nil, fmt.Errorf("newVecEnv: environment %v does not "+
				"match the specs of environment 0", i+1)
		}
	}

	return &VecEnv{
		envs:       envs,
		limit:      NewStepLimit(maxEpisodeSteps),
		parallel:   parallel,
		obsSpec:    obsSpec,
		actionSpec: actionSpec,
		returns:    make([]float64, len(envs)),
		lengths:    make([]int, len(envs)),
	}, nil
}

// NumEnvs returns the number of environments in the VecEnv
func (v *VecEnv) NumEnvs() int {
	return len(v.envs)
}

// ObservationSpec returns the observation spec shared by all
// environments
func (v *VecEnv) ObservationSpec() Spec {
	return v.obsSpec
}

// ActionSpec returns the action spec shared by all environments
func (v *VecEnv) ActionSpec() Spec {
	return v.actionSpec
}

// Reset seeds environment i with seed+i, if it can be seeded, and
// resets all environments, returning their first observations
func (v *VecEnv) Reset(seed uint64) (*mat.Dense, error) {
	for i, e := range v.envs {
		if s, ok := e.(Seeder); ok {
			s.Seed(seed + uint64(i))
		}
	}
	obs, err := v.Restart()
	if err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	return obs, nil
}

// Restart resets all environments without reseeding them, returning
// their first observations
func (v *VecEnv) Restart() (*mat.Dense, error) {
	obs := mat.NewDense(len(v.envs), v.obsSpec.Dims(), nil)
	err := v.each(func(i int) error {
		t, err := v.envs[i].Reset()
		if err != nil {
			return fmt.Errorf("environment %v: %w", i, err)
		}
		v.returns[i], v.lengths[i] = 0, 0
		obs.SetRow(i, t.Observation.RawVector().Data)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("restart: %w", err)
	}
	return obs, nil
}

// Step takes one step in each environment, with row i of actions
// clipped to the action bounds and sent to environment i
func (v *VecEnv) Step(actions *mat.Dense) (VecStep, error) {
	rows, cols := actions.Dims()
	if rows != len(v.envs) || cols != v.actionSpec.Dims() {
		return VecStep{}, fmt.Errorf("step: expected actions of shape "+
			"(%v, %v) but got (%v, %v)", len(v.envs), v.actionSpec.Dims(),
			rows, cols)
	}

	n := len(v.envs)
	out := VecStep{
		Observations: mat.NewDense(n, v.obsSpec.Dims(), nil),
		Rewards:      make([]float64, n),
		Terminated:   make([]bool, n),
		Truncated:    make([]bool, n),
		Final:        make([]*EpisodeInfo, n),
	}

	err := v.each(func(i int) error {
		action := mat.VecDenseCopyOf(actions.RowView(i))
		v.actionSpec.Clip(action)
		return v.stepSlot(i, action, &out)
	})
	if err != nil {
		return VecStep{}, fmt.Errorf("step: %w", err)
	}
	return out, nil
}

// stepSlot steps environment i, writing only to entry i of out
func (v *VecEnv) stepSlot(i int, action *mat.VecDense, out *VecStep) error {
	e := v.envs[i]
	t, terminated, err := e.Step(action)
	if err != nil {
		return fmt.Errorf("environment %v: %w", i, err)
	}
	terminated = terminated && t.EndType != ts.Timeout

	v.lengths[i]++
	v.returns[i] += t.Reward
	t.Number = v.lengths[i]
	truncated := !terminated && (t.EndType == ts.Timeout || v.limit.End(&t))

	out.Rewards[i] = t.Reward
	out.Terminated[i] = terminated
	out.Truncated[i] = truncated
	if !terminated && !truncated {
		out.Observations.SetRow(i, t.Observation.RawVector().Data)
		return nil
	}

	success := terminated
	if s, ok := e.(Successer); ok {
		success = s.Success()
	}
	out.Final[i] = &EpisodeInfo{
		Success:          success,
		Return:           v.returns[i],
		Length:           v.lengths[i],
		FinalObservation: mat.VecDenseCopyOf(t.Observation),
	}

	first, err := e.Reset()
	if err != nil {
		return fmt.Errorf("environment %v: %w", i, err)
	}
	v.returns[i], v.lengths[i] = 0, 0
	out.Observations.SetRow(i, first.Observation.RawVector().Data)
	return nil
}

// each calls f on every slot, in parallel goroutines if configured,
// returning the error of the lowest failing slot
func (v *VecEnv) each(f func(i int) error) error {
	errs := make([]error, len(v.envs))
	if v.parallel {
		var wg sync.WaitGroup
		for i := range v.envs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = f(i)
			}(i)
		}
		wg.Wait()
	} else {
		for i := range v.envs {
			errs[i] = f(i)
		}
	}

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Close closes all environments
func (v *VecEnv) Close() error {
	for i, e := range v.envs {
		if err := e.Close(); err != nil {
			return fmt.Errorf("close: environment %v: %w", i, err)
		}
	}
	return nil
}
