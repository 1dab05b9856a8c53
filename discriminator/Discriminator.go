// Package discriminator implements the per-stage classifiers which
// learn a dense reward from observations that did and did not cross
// each stage boundary of a task.
package discriminator

import (
	"errors"
	"fmt"

	"github.com/samuelfneumann/drs/buffer/stage"
	"github.com/samuelfneumann/drs/network"
	"github.com/samuelfneumann/drs/solver"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Config describes the architecture and training of the stage
// discriminators
type Config struct {
	HiddenSizes []int
	Activation  *network.Activation
	InitWFn     G.InitWFn
	Solver      *solver.Solver // Each stage trains with a fresh copy
	BatchSize   int            // Samples per side of the boundary
}

// Validate checks that the Config describes a legal discriminator
func (c Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive but got %v",
			c.BatchSize)
	}
	for _, h := range c.HiddenSizes {
		if h <= 0 {
			return fmt.Errorf("hidden layer sizes must be positive but "+
				"got %v", c.HiddenSizes)
		}
	}
	if c.Activation == nil || c.InitWFn == nil || c.Solver == nil {
		return fmt.Errorf("activation, weight initializer and solver " +
			"must be set")
	}
	return nil
}

// Stats summarises one gradient step of a stage discriminator
type Stats struct {
	Stage    int
	Loss     float64
	Accuracy float64
}

// stageNet is the training graph of a single stage discriminator. The
// first half of each batch is labelled 0 and the second half 1.
type stageNet struct {
	net     network.NeuralNet
	labels  *G.Node
	vm      G.VM
	solver  G.Solver
	lossVal G.Value
	pool    *network.Pool
}

// newStageNet constructs the graph computing the mean binary
// cross-entropy of the stage logits, in the numerically stable form
//
//	max(x, 0) - x*y + log(1 + exp(-|x|))
func newStageNet(name string, features int, c Config) (*stageNet, error) {
	g := G.NewGraph()
	batch := 2 * c.BatchSize

	biases := make([]bool, len(c.HiddenSizes))
	for i := range biases {
		biases[i] = true
	}
	acts := make([]*network.Activation, len(c.HiddenSizes))
	for i := range acts {
		acts[i] = c.Activation
	}

	net, err := network.NewMLP(name, features, batch, 1, g, c.HiddenSizes,
		biases, c.InitWFn, acts)
	if err != nil {
		return nil, err
	}
	logits := net.Prediction()[0]

	labels := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, 1),
		G.WithName(name+"Labels"), G.WithInit(G.Zeroes()))
	labelData := make([]float64, batch)
	for i := c.BatchSize; i < batch; i++ {
		labelData[i] = 1.0
	}
	err = G.Let(labels, tensor.New(tensor.WithShape(batch, 1),
		tensor.WithBacking(labelData)))
	if err != nil {
		return nil, err
	}

	positive := G.Must(G.Rectify(logits))
	product := G.Must(G.HadamardProd(logits, labels))
	softplus := G.Must(G.Log1p(G.Must(G.Exp(G.Must(G.Neg(
		G.Must(G.Abs(logits))))))))
	loss := G.Must(G.Mean(G.Must(G.Add(G.Must(G.Sub(positive, product)),
		softplus))))

	s := &stageNet{
		net:    net,
		labels: labels,
		solver: c.Solver.Fresh(),
		pool:   network.NewPool(net),
	}
	G.Read(loss, &s.lossVal)

	if _, err := G.Grad(loss, net.Learnables()...); err != nil {
		return nil, fmt.Errorf("could not compute gradient: %v", err)
	}
	s.vm = G.NewTapeMachine(g, G.BindDualValues(net.Learnables()...))

	return s, nil
}

// Discriminator is the set of per-stage discriminators of a task with
// nStages stages. The discriminator of stage i separates observations
// of episodes which reached at most stage i from those of episodes
// which reached a later stage.
type Discriminator struct {
	stages   []*stageNet
	latches  []Latch
	features int
	config   Config
}

// New returns a new Discriminator of nStages stages over observations
// of the given number of features
func New(features, nStages int, c Config) (*Discriminator, error) {
	if nStages < 1 {
		return nil, fmt.Errorf("new: need at least 1 stage but got %v",
			nStages)
	}
	if features <= 0 {
		return nil, fmt.Errorf("new: features must be positive but got %v",
			features)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	stages := make([]*stageNet, nStages)
	for i := range stages {
		var err error
		stages[i], err = newStageNet(fmt.Sprintf("disc%d", i), features, c)
		if err != nil {
			return nil, fmt.Errorf("new: stage %v: %v", i, err)
		}
	}

	return &Discriminator{
		stages:   stages,
		latches:  make([]Latch, nStages),
		features: features,
		config:   c,
	}, nil
}

// NStages returns the number of stages of the task
func (d *Discriminator) NStages() int {
	return len(d.stages)
}

// Features returns the number of features per observation
func (d *Discriminator) Features() int {
	return d.features
}

// Latch returns the state of the discriminator of stage
func (d *Discriminator) Latch(stage int) Latch {
	return d.latches[stage]
}

// Disable permanently stops training of the discriminator of stage.
// It returns whether the stage was enabled before the call.
func (d *Discriminator) Disable(stage int) bool {
	return d.latches[stage].disable()
}

// Train takes one gradient step on the discriminator of stage with
// fail observations labelled 0 and success observations labelled 1.
// Each must have BatchSize rows.
func (d *Discriminator) Train(stage int, fail, success *mat.Dense) (Stats,
	error) {
	if stage < 0 || stage >= d.NStages() {
		return Stats{}, fmt.Errorf("train: stage %v outside [0, %v)", stage,
			d.NStages())
	}
	for _, side := range []*mat.Dense{fail, success} {
		r, c := side.Dims()
		if r != d.config.BatchSize || c != d.features {
			return Stats{}, fmt.Errorf("train: expected batches of shape "+
				"(%v, %v) but got (%v, %v)", d.config.BatchSize, d.features,
				r, c)
		}
	}

	s := d.stages[stage]
	input := mat.NewDense(2*d.config.BatchSize, d.features, nil)
	input.Stack(fail, success)
	if err := s.net.SetInput(input.RawMatrix().Data); err != nil {
		return Stats{}, fmt.Errorf("train: %v", err)
	}

	if err := s.vm.RunAll(); err != nil {
		s.vm.Reset()
		return Stats{}, fmt.Errorf("train: %v", err)
	}
	if err := s.solver.Step(s.net.Model()); err != nil {
		s.vm.Reset()
		return Stats{}, fmt.Errorf("train: could not step solver: %v", err)
	}

	logits := s.net.Output()[0].Data().([]float64)
	correct := 0
	for i, logit := range logits {
		if (logit > 0) == (i >= d.config.BatchSize) {
			correct++
		}
	}
	stats := Stats{
		Stage:    stage,
		Loss:     s.lossVal.Data().(float64),
		Accuracy: float64(correct) / float64(len(logits)),
	}
	s.vm.Reset()

	d.latches[stage].markTrained()
	return stats, nil
}

// Update trains each enabled stage discriminator once. Observations of
// buffers[0..stage] are labelled 0 and those of buffers[stage+1..] are
// labelled 1. A stage with no observations on its failure side is
// skipped. When the success side of a stage is empty so is that of
// every later stage, and the update stops.
func (d *Discriminator) Update(buffers []*stage.Buffer,
	rng *rand.Rand) ([]Stats, error) {
	if len(buffers) != d.NStages()+1 {
		return nil, fmt.Errorf("update: need %v stage buffers but got %v",
			d.NStages()+1, len(buffers))
	}

	var stats []Stats
	for i := range d.stages {
		if !d.latches[i].Enabled() {
			continue
		}

		successData, err := stage.SampleFrom(buffers[i+1:],
			d.config.BatchSize, rng)
		if errors.Is(err, stage.ErrAllEmpty) {
			break
		} else if err != nil {
			return stats, fmt.Errorf("update: stage %v: %w", i, err)
		}

		failData, err := stage.SampleFrom(buffers[:i+1], d.config.BatchSize,
			rng)
		if errors.Is(err, stage.ErrAllEmpty) {
			continue
		} else if err != nil {
			return stats, fmt.Errorf("update: stage %v: %w", i, err)
		}

		s, err := d.Train(i, failData.NextObservations,
			successData.NextObservations)
		if err != nil {
			return stats, fmt.Errorf("update: %v", err)
		}
		stats = append(stats, s)
	}
	return stats, nil
}

// Logits returns the output of the discriminator of stage for each row
// of obs
func (d *Discriminator) Logits(stage int, obs *mat.Dense) ([]float64,
	error) {
	rows, cols := obs.Dims()
	if cols != d.features {
		return nil, fmt.Errorf("logits: expected %v features but got %v",
			d.features, cols)
	}

	input := obs.RawMatrix().Data
	if obs.RawMatrix().Stride != cols {
		input = mat.DenseCopyOf(obs).RawMatrix().Data
	}
	out, err := d.stages[stage].pool.Predict(input, rows)
	if err != nil {
		return nil, fmt.Errorf("logits: %v", err)
	}
	return out[0], nil
}

// Close releases the resources held by the stage networks
func (d *Discriminator) Close() error {
	for i, s := range d.stages {
		if err := s.vm.Close(); err != nil {
			return fmt.Errorf("close: stage %v: %v", i, err)
		}
		if err := s.pool.Close(); err != nil {
			return fmt.Errorf("close: stage %v: %v", i, err)
		}
	}
	return nil
}
