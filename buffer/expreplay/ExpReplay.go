// Package expreplay implements the uniform experience replay buffer
// used by the off-policy learner.
package expreplay

import (
	"fmt"

	"github.com/samuelfneumann/drs/buffer/ring"
	"github.com/samuelfneumann/drs/timestep"
	"gonum.org/v1/gonum/mat"
)

// Config implements a specific configuration of an ExperienceReplayer
type Config struct {
	SampleSize        int
	MaxReplayCapacity int
	MinReplayCapacity int
}

// Create creates and returns the ExperienceReplayer with the specified
// Config.
func (c Config) Create(featureSize, actionSize int,
	seed uint64) (ExperienceReplayer, error) {
	return New(NewUniformSelector(c.SampleSize, seed), c.MinReplayCapacity,
		c.MaxReplayCapacity, featureSize, actionSize)
}

// Batch is a batch of transitions sampled from a replay buffer. Row i
// of each matrix and element i of each slice belong to the same
// transition.
type Batch struct {
	States        *mat.Dense
	Actions       *mat.Dense
	NextStates    *mat.Dense
	Rewards       []float64
	StopBootstrap []float64
}

// ExperienceReplayer implements an experience replay buffer
type ExperienceReplayer interface {
	// Add adds a transition to the buffer
	Add(t timestep.Transition) error

	// Sample samples a batch of experience from the buffer
	Sample() (Batch, error)

	// Capacity returns the current number of samples in the buffer
	Capacity() int

	// MaxCapacity returns the maximum allowable samples in the buffer
	MaxCapacity() int

	// MinCapacity returns the number of samples required to be in
	// the buffer before the buffer can be sampled
	MinCapacity() int

	// BatchSize returns the number of samples returned by Sample()
	BatchSize() int
}

// fifoCache implements a concrete ExperienceReplayer where the oldest
// transition is overwritten once the buffer is full.
type fifoCache struct {
	stateCache     []float64
	actionCache    []float64
	rewardCache    []float64
	stopCache      []float64
	nextStateCache []float64

	cursor *ring.Cursor

	// Outlines how data is sampled
	sampler Selector

	minCapacity int
	featureSize int
	actionSize  int
}

// New returns a new ExperienceReplayer. The sampler determines how
// data is sampled from the buffer. The minCapacity parameter
// determines the minimum number of samples that should be in the
// buffer before sampling is allowed, and maxCapacity the maximum
// number of samples held at any given time.
func New(sampler Selector, minCapacity, maxCapacity, featureSize,
	actionSize int) (ExperienceReplayer, error) {
	if minCapacity <= 0 {
		return nil, fmt.Errorf("new: minimum capacity must be positive")
	}
	if maxCapacity < minCapacity {
		return nil, fmt.Errorf("new: maximum capacity (%v) must not be "+
			"less than minimum capacity (%v)", maxCapacity, minCapacity)
	}
	if featureSize <= 0 || actionSize <= 0 {
		return nil, fmt.Errorf("new: feature size (%v) and action size "+
			"(%v) must be positive", featureSize, actionSize)
	}
	cursor, err := ring.New(maxCapacity)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	return &fifoCache{
		stateCache:     make([]float64, maxCapacity*featureSize),
		actionCache:    make([]float64, maxCapacity*actionSize),
		rewardCache:    make([]float64, maxCapacity),
		stopCache:      make([]float64, maxCapacity),
		nextStateCache: make([]float64, maxCapacity*featureSize),

		cursor:  cursor,
		sampler: sampler,

		minCapacity: minCapacity,
		featureSize: featureSize,
		actionSize:  actionSize,
	}, nil
}

// String returns the string representation of the fifoCache
func (c *fifoCache) String() string {
	return fmt.Sprintf("fifoCache | Capacity: %v/%v | Next: %v",
		c.Capacity(), c.MaxCapacity(), c.cursor.Pos())
}

// BatchSize returns the number of samples sampled using Sample()
func (c *fifoCache) BatchSize() int {
	return c.sampler.BatchSize()
}

// Capacity returns the current number of elements in the cache that
// can be sampled
func (c *fifoCache) Capacity() int {
	return c.cursor.Size()
}

// MaxCapacity returns the maximum number of elements that can be
// stored in the cache
func (c *fifoCache) MaxCapacity() int {
	return c.cursor.Capacity()
}

// MinCapacity returns the minimum number of elements required in the
// cache before sampling is allowed
func (c *fifoCache) MinCapacity() int {
	return c.minCapacity
}

// Add adds a transition to the buffer
func (c *fifoCache) Add(t timestep.Transition) error {
	if len(t.State) != c.featureSize || len(t.NextState) != c.featureSize {
		return &ExpReplayError{
			Op: "add",
			Err: fmt.Errorf("expected states of size %v but got %v and %v",
				c.featureSize, len(t.State), len(t.NextState)),
		}
	}
	if len(t.Action) != c.actionSize {
		return &ExpReplayError{
			Op: "add",
			Err: fmt.Errorf("expected actions of size %v but got %v",
				c.actionSize, len(t.Action)),
		}
	}

	spans := c.cursor.Advance(1)
	i := spans[0].Start

	copy(c.stateCache[i*c.featureSize:(i+1)*c.featureSize], t.State)
	copy(c.nextStateCache[i*c.featureSize:(i+1)*c.featureSize], t.NextState)
	copy(c.actionCache[i*c.actionSize:(i+1)*c.actionSize], t.Action)
	c.rewardCache[i] = t.Reward
	if t.StopBootstrap {
		c.stopCache[i] = 1.0
	} else {
		c.stopCache[i] = 0.0
	}

	return nil
}

// Sample samples and returns a batch of transitions from the replay
// buffer
func (c *fifoCache) Sample() (Batch, error) {
	if c.Capacity() == 0 {
		return Batch{}, &ExpReplayError{Op: "sample", Err: errEmptyCache}
	}
	if c.Capacity() < c.MinCapacity() {
		return Batch{}, &ExpReplayError{Op: "sample",
			Err: errInsufficientSamples}
	}

	indices := c.sampler.choose(c.Capacity())
	n := len(indices)

	states := make([]float64, 0, n*c.featureSize)
	nextStates := make([]float64, 0, n*c.featureSize)
	actions := make([]float64, 0, n*c.actionSize)
	rewards := make([]float64, n)
	stops := make([]float64, n)

	for j, i := range indices {
		states = append(states,
			c.stateCache[i*c.featureSize:(i+1)*c.featureSize]...)
		nextStates = append(nextStates,
			c.nextStateCache[i*c.featureSize:(i+1)*c.featureSize]...)
		actions = append(actions,
			c.actionCache[i*c.actionSize:(i+1)*c.actionSize]...)
		rewards[j] = c.rewardCache[i]
		stops[j] = c.stopCache[i]
	}

	return Batch{
		States:        mat.NewDense(n, c.featureSize, states),
		Actions:       mat.NewDense(n, c.actionSize, actions),
		NextStates:    mat.NewDense(n, c.featureSize, nextStates),
		Rewards:       rewards,
		StopBootstrap: stops,
	}, nil
}
