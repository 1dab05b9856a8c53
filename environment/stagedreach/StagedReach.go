// Package stagedreach implements a multi-stage point mass task. A
// point in the plane must visit a sequence of waypoints in order. Each
// visited waypoint completes one stage of the task, and visiting the
// last waypoint succeeds and ends the episode.
//
// Observations are
//
//	[x, y, Δx, Δy, s_1, ..., s_{n-1}]
//
// where (Δx, Δy) is the offset to the next waypoint and s_j is 1 once
// stage j has been completed, otherwise 0. The reward of each step is
// the number of completed stages.
package stagedreach

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/drs/environment"
	ts "github.com/samuelfneumann/drs/timestep"
	"github.com/samuelfneumann/drs/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
)

// Position features of each observation
const positionFeatures = 4

// Config configures a StagedReach task
type Config struct {
	// Waypoints holds one 2-D point per stage
	Waypoints [][]float64

	// Radius around a waypoint within which the waypoint is visited
	Radius float64

	// StepSize scales actions in [-1, 1] to displacements
	StepSize float64

	// Arena bounds the position in each dimension
	Arena r1.Interval

	// StartBounds bounds the starting positions
	StartBounds []r1.Interval
}

// Default returns a task with nStages waypoints spaced evenly on a
// circle around the origin, where episodes start
func Default(nStages int) Config {
	waypoints := make([][]float64, nStages)
	for i := range waypoints {
		angle := 2 * math.Pi * float64(i) / float64(nStages)
		waypoints[i] = []float64{0.6 * math.Cos(angle), 0.6 * math.Sin(angle)}
	}

	return Config{
		Waypoints: waypoints,
		Radius:    0.15,
		StepSize:  0.1,
		Arena:     r1.Interval{Min: -1, Max: 1},
		StartBounds: []r1.Interval{
			{Min: -0.1, Max: 0.1},
			{Min: -0.1, Max: 0.1},
		},
	}
}

// Parse returns the default configuration named by id, which has the
// form StagedReach<n>-v0 for a task of n stages
func Parse(id string) (Config, bool) {
	var n int
	if _, err := fmt.Sscanf(id, "StagedReach%d-v0", &n); err != nil || n < 1 {
		return Config{}, false
	}
	return Default(n), true
}

// Validate checks that the Config describes a legal task
func (c Config) Validate() error {
	if len(c.Waypoints) == 0 {
		return fmt.Errorf("at least one waypoint is required")
	}
	for i, w := range c.Waypoints {
		if len(w) != 2 {
			return fmt.Errorf("waypoint %v should be 2-D but has %v "+
				"dimensions", i, len(w))
		}
	}
	if c.Radius <= 0 || c.StepSize <= 0 {
		return fmt.Errorf("radius (%v) and step size (%v) must be positive",
			c.Radius, c.StepSize)
	}
	if len(c.StartBounds) != 2 {
		return fmt.Errorf("start bounds should be 2-D but have %v dimensions",
			len(c.StartBounds))
	}
	if c.Arena.Min >= c.Arena.Max {
		return fmt.Errorf("empty arena %v", c.Arena)
	}
	return nil
}

// StagedReach implements the staged point mass task
type StagedReach struct {
	Config
	starter *environment.UniformStarter

	position  *mat.VecDense
	waypoints []*mat.VecDense
	stage     int
	steps     int
}

// New returns a new StagedReach environment
func New(c Config, seed uint64) (*StagedReach, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	starter, err := environment.NewUniformStarter(c.StartBounds, seed)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	waypoints := make([]*mat.VecDense, len(c.Waypoints))
	for i, w := range c.Waypoints {
		waypoints[i] = mat.NewVecDense(2, append([]float64{}, w...))
	}

	s := &StagedReach{
		Config:    c,
		starter:   starter,
		waypoints: waypoints,
	}
	s.position = starter.Start()
	return s, nil
}

// NStages returns the number of stages of the task
func (s *StagedReach) NStages() int {
	return len(s.waypoints)
}

// Seed reseeds the starting position distribution
func (s *StagedReach) Seed(seed uint64) {
	s.starter.Seed(seed)
}

// Reset starts a new episode
func (s *StagedReach) Reset() (ts.TimeStep, error) {
	s.position = s.starter.Start()
	s.stage = 0
	s.steps = 0
	return ts.New(ts.First, 0, s.observation(), 0), nil
}

// Step moves the point by the action, clipped to [-1, 1] and scaled
// by the step size
func (s *StagedReach) Step(action *mat.VecDense) (ts.TimeStep, bool,
	error) {
	if action.Len() != 2 {
		return ts.TimeStep{}, true, fmt.Errorf("step: expected 2-D action "+
			"but got %v dimensions", action.Len())
	}
	if s.Success() {
		return ts.TimeStep{}, true, fmt.Errorf("step: episode has " +
			"already ended")
	}

	for i := 0; i < 2; i++ {
		a := floatutils.Clip(action.AtVec(i), -1, 1)
		p := s.position.AtVec(i) + s.StepSize*a
		s.position.SetVec(i, floatutils.ClipInterval(p, s.Arena))
	}

	var offset mat.VecDense
	offset.SubVec(s.waypoints[s.stage], s.position)
	if mat.Norm(&offset, 2) <= s.Radius {
		s.stage++
	}
	s.steps++

	t := ts.New(ts.Mid, float64(s.stage), s.observation(), s.steps)
	done := s.Success()
	if done {
		t.End(ts.TerminalStateReached)
	}
	return t, done, nil
}

// Success returns whether all waypoints have been visited
func (s *StagedReach) Success() bool {
	return s.stage == len(s.waypoints)
}

// observation returns the observation of the current state
func (s *StagedReach) observation() *mat.VecDense {
	n := len(s.waypoints)
	obs := mat.NewVecDense(positionFeatures+n-1, nil)
	obs.SetVec(0, s.position.AtVec(0))
	obs.SetVec(1, s.position.AtVec(1))
	if s.stage < n {
		obs.SetVec(2, s.waypoints[s.stage].AtVec(0)-s.position.AtVec(0))
		obs.SetVec(3, s.waypoints[s.stage].AtVec(1)-s.position.AtVec(1))
	}
	for j := 1; j < n; j++ {
		if s.stage >= j {
			obs.SetVec(positionFeatures+j-1, 1)
		}
	}
	return obs
}

// ObservationSpec returns the observation specification
func (s *StagedReach) ObservationSpec() environment.Spec {
	span := s.Arena.Max - s.Arena.Min
	bounds := []r1.Interval{
		s.Arena, s.Arena,
		{Min: -span, Max: span}, {Min: -span, Max: span},
	}
	for j := 1; j < len(s.waypoints); j++ {
		bounds = append(bounds, r1.Interval{Min: 0, Max: 1})
	}
	return environment.NewBoxSpec(environment.Observation, bounds)
}

// ActionSpec returns the action specification
func (s *StagedReach) ActionSpec() environment.Spec {
	return environment.NewBoxSpec(environment.Action, []r1.Interval{
		{Min: -1, Max: 1}, {Min: -1, Max: 1},
	})
}

// Expert returns the action that moves straight towards the next
// waypoint given in obs
func (s *StagedReach) Expert(obs *mat.VecDense) *mat.VecDense {
	action := mat.NewVecDense(2, nil)
	for i := 0; i < 2; i++ {
		a := obs.AtVec(2+i) / s.StepSize
		action.SetVec(i, floatutils.Clip(a, -1, 1))
	}
	return action
}

// Close implements the environment.Environment interface
func (s *StagedReach) Close() error {
	return nil
}
