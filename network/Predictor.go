package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Predictor runs the forward pass of a network on its own tape machine.
// No gradients are computed.
type Predictor struct {
	net NeuralNet
	vm  G.VM
}

// NewPredictor returns a new Predictor for net. The network should not
// have gradient operations in its graph.
func NewPredictor(net NeuralNet) *Predictor {
	return &Predictor{net: net, vm: G.NewTapeMachine(net.Graph())}
}

// Net returns the network that the Predictor runs
func (p *Predictor) Net() NeuralNet {
	return p.net
}

// Predict runs the forward pass on input, a row-major batch of
// BatchSize() inputs, and returns a copy of each output of the network
func (p *Predictor) Predict(input []float64) ([][]float64, error) {
	if err := p.net.SetInput(input); err != nil {
		return nil, fmt.Errorf("predict: %v", err)
	}
	defer p.vm.Reset()
	if err := p.vm.RunAll(); err != nil {
		return nil, fmt.Errorf("predict: %v", err)
	}

	outputs := p.net.Output()
	out := make([][]float64, len(outputs))
	for i, o := range outputs {
		out[i] = append([]float64{}, o.Data().([]float64)...)
	}
	return out, nil
}

// Close releases the resources of the Predictor's tape machine
func (p *Predictor) Close() error {
	return p.vm.Close()
}

// Pool keeps inference clones of a source network, one per batch size
// requested, each synchronised with the source before it is run
type Pool struct {
	source  NeuralNet
	byBatch map[int]*Predictor
}

// NewPool returns a new Pool of inference clones of source
func NewPool(source NeuralNet) *Pool {
	return &Pool{source: source, byBatch: make(map[int]*Predictor)}
}

// Predict runs the current weights of the source network on a batch of
// batch inputs
func (p *Pool) Predict(input []float64, batch int) ([][]float64, error) {
	predictor, ok := p.byBatch[batch]
	if !ok {
		clone, err := p.source.CloneWithBatch(batch)
		if err != nil {
			return nil, fmt.Errorf("predict: could not clone network for "+
				"batch size %v: %v", batch, err)
		}
		predictor = NewPredictor(clone)
		p.byBatch[batch] = predictor
	} else if err := predictor.Net().Set(p.source); err != nil {
		return nil, fmt.Errorf("predict: %v", err)
	}

	return predictor.Predict(input)
}

// Close releases the resources of all clones in the Pool
func (p *Pool) Close() error {
	for batch, predictor := range p.byBatch {
		if err := predictor.Close(); err != nil {
			return fmt.Errorf("close: batch size %v: %v", batch, err)
		}
	}
	return nil
}
