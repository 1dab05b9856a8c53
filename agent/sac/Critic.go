package sac

import (
	"fmt"

	"github.com/samuelfneumann/drs/network"
	"github.com/samuelfneumann/drs/solver"
	"gonum.org/v1/gonum/stat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// critic is an action-value network regressed onto externally computed
// targets, together with its Polyak-averaged target network
type critic struct {
	net     network.NeuralNet
	targets *G.Node
	vm      G.VM
	solver  G.Solver
	lossVal G.Value

	target *network.Predictor
}

// newCritic returns a new critic over concatenated [state, action]
// inputs, whose target network starts with the same weights
func newCritic(name string, features, actions int, c Config,
	s *solver.Solver) (*critic, error) {
	g := G.NewGraph()
	n := len(c.HiddenSizes)
	biases := make([]bool, n)
	for i := range biases {
		biases[i] = true
	}

	net, err := network.NewMLP(name, features+actions, c.BatchSize, 1, g,
		c.HiddenSizes, biases, c.InitWFn, network.Repeat(network.ReLU, n))
	if err != nil {
		return nil, fmt.Errorf("newCritic: %v", err)
	}

	targets := G.NewMatrix(g, tensor.Float64, G.WithShape(c.BatchSize, 1),
		G.WithName(name+"Targets"), G.WithInit(G.Zeroes()))
	loss := G.Must(G.Mean(G.Must(G.Square(G.Must(G.Sub(net.Prediction()[0],
		targets))))))

	cr := &critic{net: net, targets: targets, solver: s}
	G.Read(loss, &cr.lossVal)

	if _, err := G.Grad(loss, net.Learnables()...); err != nil {
		return nil, fmt.Errorf("newCritic: could not compute gradient: %v",
			err)
	}
	cr.vm = G.NewTapeMachine(g, G.BindDualValues(net.Learnables()...))

	targetNet, err := net.Clone()
	if err != nil {
		return nil, fmt.Errorf("newCritic: could not create target "+
			"network: %v", err)
	}
	cr.target = network.NewPredictor(targetNet)

	return cr, nil
}

// update takes one gradient step of the critic towards targets on the
// batch of [state, action] inputs, returning the loss and the mean
// predicted value before the step
func (c *critic) update(inputs, targets []float64) (loss, value float64,
	err error) {
	if err := c.net.SetInput(inputs); err != nil {
		return 0, 0, fmt.Errorf("update: %v", err)
	}
	t := tensor.New(tensor.WithShape(c.targets.Shape()...),
		tensor.WithBacking(targets))
	if err := G.Let(c.targets, t); err != nil {
		return 0, 0, fmt.Errorf("update: %v", err)
	}

	defer c.vm.Reset()
	if err := c.vm.RunAll(); err != nil {
		return 0, 0, fmt.Errorf("update: %v", err)
	}
	if err := c.solver.Step(c.net.Model()); err != nil {
		return 0, 0, fmt.Errorf("update: could not step solver: %v", err)
	}

	values := c.net.Output()[0].Data().([]float64)
	return c.lossVal.Data().(float64), stat.Mean(values, nil), nil
}

// targetValues returns the target network's values of the batch of
// [state, action] inputs
func (c *critic) targetValues(inputs []float64) ([]float64, error) {
	out, err := c.target.Predict(inputs)
	if err != nil {
		return nil, fmt.Errorf("targetValues: %v", err)
	}
	return out[0], nil
}

// polyak moves the target network towards the online network
func (c *critic) polyak(tau float64) error {
	return c.target.Net().Polyak(c.net, tau)
}
