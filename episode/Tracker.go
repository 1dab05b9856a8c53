// Package episode records the observations of in-progress episodes
// for each slot of a vectorized environment and assigns each finished
// episode to the furthest stage it reached.
package episode

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Trajectory is the stage-labelled prefix of a finished episode
type Trajectory struct {
	Stage        int
	Observations *mat.Dense
}

// Tracker records, for each environment slot, the next observations of
// the episode currently running in that slot
type Tracker struct {
	trajectories []*mat.Dense
	steps        []int
	nStages      int
	maxSteps     int
	features     int
}

// NewTracker returns a new Tracker for numEnvs slots with episodes of
// at most maxSteps steps
func NewTracker(numEnvs, maxSteps, features, nStages int) (*Tracker, error) {
	if numEnvs <= 0 || maxSteps <= 0 || features <= 0 {
		return nil, fmt.Errorf("newTracker: environments (%v), steps (%v) "+
			"and features (%v) must be positive", numEnvs, maxSteps, features)
	}
	if nStages < 1 {
		return nil, fmt.Errorf("newTracker: need at least 1 stage but got %v",
			nStages)
	}
	if features < nStages-1 {
		return nil, fmt.Errorf("newTracker: observations with %v features "+
			"cannot hold %v stage indicators", features, nStages-1)
	}

	trajectories := make([]*mat.Dense, numEnvs)
	for i := range trajectories {
		trajectories[i] = mat.NewDense(maxSteps, features, nil)
	}

	return &Tracker{
		trajectories: trajectories,
		steps:        make([]int, numEnvs),
		nStages:      nStages,
		maxSteps:     maxSteps,
		features:     features,
	}, nil
}

// Record appends row i of nextObs to the episode running in slot i
func (t *Tracker) Record(nextObs *mat.Dense) error {
	rows, cols := nextObs.Dims()
	if rows != len(t.steps) || cols != t.features {
		return fmt.Errorf("record: expected observations of shape (%v, %v) "+
			"but got (%v, %v)", len(t.steps), t.features, rows, cols)
	}

	for i := range t.steps {
		if t.steps[i] >= t.maxSteps {
			return fmt.Errorf("record: episode in slot %v exceeds %v steps",
				i, t.maxSteps)
		}
	}
	for i := range t.steps {
		t.trajectories[i].SetRow(t.steps[i], nextObs.RawRowView(i))
		t.steps[i]++
	}
	return nil
}

// Steps returns the number of steps recorded in slot
func (t *Tracker) Steps(slot int) int {
	return t.steps[slot]
}

// Finish ends the episode in slot, returning the observations to store
// together with their stage, and resets the slot
func (t *Tracker) Finish(slot int, success bool) (Trajectory, error) {
	if slot < 0 || slot >= len(t.steps) {
		return Trajectory{}, fmt.Errorf("finish: slot %v out of range "+
			"[0, %v)", slot, len(t.steps))
	}
	steps := t.steps[slot]
	if steps == 0 {
		return Trajectory{}, fmt.Errorf("finish: no steps recorded in slot %v",
			slot)
	}

	recorded := t.trajectories[slot].Slice(0, steps, 0, t.features)
	stage, length := Segment(recorded, t.nStages, success)
	t.steps[slot] = 0

	obs := mat.NewDense(length, t.features, nil)
	obs.Copy(recorded)
	return Trajectory{Stage: stage, Observations: obs}, nil
}

// Segment returns the stage a trajectory reached and the number of
// leading observations belonging to it.
//
// Successful trajectories are kept whole with stage nStages. Otherwise,
// with a single stage the whole trajectory is kept with stage 0, and
// with more stages the stage of a step is the sum of the trailing
// nStages-1 indicator features of its observation; the trajectory is
// cut after the latest step reaching the maximum stage.
func Segment(traj mat.Matrix, nStages int, success bool) (stage, length int) {
	steps, features := traj.Dims()
	if success {
		return nStages, steps
	}
	if nStages == 1 {
		return 0, steps
	}

	best := 0
	bestStage := -1
	for i := 0; i < steps; i++ {
		sum := 0.0
		for j := features - nStages + 1; j < features; j++ {
			sum += traj.At(i, j)
		}
		s := int(math.Round(sum))
		if s >= bestStage {
			bestStage = s
			best = i
		}
	}

	return bestStage, best + 1
}

// StageSuccess returns, for each stage boundary j in [1, nStages),
// whether an episode which reached stage has crossed it
func StageSuccess(stage, nStages int) []bool {
	if nStages <= 1 {
		return nil
	}
	crossed := make([]bool, nStages-1)
	for j := 1; j < nStages; j++ {
		crossed[j-1] = j <= stage
	}
	return crossed
}
