package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// MLP implements a multi-layered perceptron with a single output layer
type MLP struct {
	g          *G.ExprGraph
	name       string
	layers     []*fcLayer
	input      *G.Node
	numOutputs int
	numInputs  int
	batchSize  int

	// Architecture, needed for cloning
	hiddenSizes []int
	biases      []bool
	activations []*Activation

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

// NewMLP creates and returns a new multi-layered perceptron with
// outputs output units. The graph g is populated with the MLP, and
// all of the MLP's nodes are named with the given name as a prefix so
// that multiple networks can share a graph.
//
// The MLP has len(hiddenSizes) + 1 layers. For index i, hiddenSizes[i]
// is the number of units in hidden layer i, biases[i] is true if the
// hidden layer has a bias unit, and activations[i] is the activation
// function for hidden layer i. A final linear layer with a bias is
// always added so that the network has outputs outputs. The parameter
// init determines the weight initialization scheme.
func NewMLP(name string, features, batch, outputs int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation) (NeuralNet, error) {
	if features <= 0 || batch <= 0 {
		return nil, fmt.Errorf("newMLP: features (%v) and batch size (%v) "+
			"must be positive", features, batch)
	}

	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName(name+"Input"), G.WithInit(G.Zeroes()))

	return newMLPFromInput(name, []*G.Node{input}, outputs, g, hiddenSizes,
		biases, init, activations, true)
}

// newMLPFromInput returns a new MLP that has a specific node as its
// input node. If multiple input nodes are given, they are first
// concatenated along the feature (column) dimension. If addFinalLayer
// is false, the last hidden layer must have outputs units and is the
// output layer.
func newMLPFromInput(name string, inputs []*G.Node, outputs int,
	g *G.ExprGraph, hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation, addFinalLayer bool) (*MLP, error) {
	if len(hiddenSizes) != len(activations) {
		msg := "newMLPFromInput: invalid number of activations" +
			"\n\twant(%d)\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(activations))
	}
	if len(hiddenSizes) != len(biases) {
		msg := "newMLPFromInput: invalid number of biases\n\twant(%d)" +
			"\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(biases))
	}
	if outputs <= 0 {
		return nil, fmt.Errorf("newMLPFromInput: outputs must be positive")
	}

	var input *G.Node
	if len(inputs) > 1 {
		var err error
		input, err = G.Concat(1, inputs...)
		if err != nil {
			return nil, fmt.Errorf("newMLPFromInput: could not concatenate "+
				"inputs: %v", err)
		}
	} else {
		input = inputs[0]
	}
	if !input.IsMatrix() {
		return nil, fmt.Errorf("newMLPFromInput: input must be a matrix")
	}

	// Copy the architecture so that appending the output layer does not
	// modify the caller's slices
	hiddenSizes = append([]int{}, hiddenSizes...)
	biases = append([]bool{}, biases...)
	activations = append([]*Activation{}, activations...)

	if addFinalLayer {
		hiddenSizes = append(hiddenSizes, outputs)
		biases = append(biases, true)
		activations = append(activations, Identity())
	} else if len(hiddenSizes) == 0 ||
		outputs != hiddenSizes[len(hiddenSizes)-1] {
		return nil, fmt.Errorf("newMLPFromInput: final layer must have %v "+
			"units", outputs)
	}

	features := input.Shape()[1]
	network := &MLP{
		g:           g,
		name:        name,
		layers:      newFCLayers(g, features, hiddenSizes, biases, activations, init, name),
		input:       input,
		numOutputs:  outputs,
		numInputs:   features,
		batchSize:   input.Shape()[0],
		hiddenSizes: hiddenSizes,
		biases:      biases,
		activations: activations,
	}

	if err := network.fwd(input); err != nil {
		return nil, fmt.Errorf("newMLPFromInput: could not compute forward "+
			"pass: %v", err)
	}

	return network, nil
}

// Graph returns the computational graph of the MLP.
func (m *MLP) Graph() *G.ExprGraph {
	return m.g
}

// Clone clones an MLP
func (m *MLP) Clone() (NeuralNet, error) {
	return m.CloneWithBatch(m.batchSize)
}

// CloneWithBatch clones an MLP to a new graph with a new input batch
// size.
func (m *MLP) CloneWithBatch(batchSize int) (NeuralNet, error) {
	graph := G.NewGraph()
	input := G.NewMatrix(graph, tensor.Float64,
		G.WithShape(batchSize, m.numInputs), G.WithName(m.name+"Input"),
		G.WithInit(G.Zeroes()))

	return m.CloneWithInputTo(-1, []*G.Node{input}, graph)
}

// CloneWithInputTo clones an MLP to a specific computational graph
// with a specified input node. If multiple input nodes are given, then
// they are first concatenated along the specified axis.
func (m *MLP) CloneWithInputTo(axis int, inputs []*G.Node,
	graph *G.ExprGraph) (NeuralNet, error) {
	for _, input := range inputs {
		if input.Graph() != graph {
			return nil, fmt.Errorf("cloneWithInputTo: not all inputs " +
				"have the same graph")
		}
	}

	input := inputs[0]
	if len(inputs) > 1 {
		var err error
		if input, err = G.Concat(axis, inputs...); err != nil {
			return nil, fmt.Errorf("cloneWithInputTo: %v", err)
		}
	}

	// The architecture stored already includes the output layer
	clone, err := newMLPFromInput(m.name, []*G.Node{input}, m.numOutputs,
		graph, m.hiddenSizes, m.biases, G.Zeroes(), m.activations, false)
	if err != nil {
		return nil, fmt.Errorf("cloneWithInputTo: %v", err)
	}
	if clone.numInputs != m.numInputs {
		return nil, fmt.Errorf("cloneWithInputTo: input has %v features "+
			"but network expects %v", clone.numInputs, m.numInputs)
	}

	if err := clone.Set(m); err != nil {
		return nil, fmt.Errorf("cloneWithInputTo: %v", err)
	}
	return clone, nil
}

// BatchSize returns the batch size of inputs to the network
func (m *MLP) BatchSize() int {
	return m.batchSize
}

// Features returns the number of features in a single input
func (m *MLP) Features() int {
	return m.numInputs
}

// Outputs returns the number of outputs from the network
func (m *MLP) Outputs() []int {
	return []int{m.numOutputs}
}

// Input returns the input node of the network
func (m *MLP) Input() *G.Node {
	return m.input
}

// SetInput sets the value of the input node before running the forward
// pass.
func (m *MLP) SetInput(input []float64) error {
	return setInput(m.input, input)
}

// Set sets the weights of the MLP to be equal to the weights of
// another network of the same architecture
func (m *MLP) Set(source NeuralNet) error {
	return set(m.Learnables(), source.Learnables())
}

// Polyak sets the weights of the MLP to be a polyak average between
// its existing weights and the weights of another network:
// w <- tau*source + (1-tau)*w
func (m *MLP) Polyak(source NeuralNet, tau float64) error {
	return polyak(m.Learnables(), source.Learnables(), tau)
}

// Learnables returns the learnable nodes in the MLP
func (m *MLP) Learnables() G.Nodes {
	if m.learnables == nil {
		learnables := make([]*G.Node, 0, 2*len(m.layers))
		for _, layer := range m.layers {
			learnables = append(learnables, layer.Weights())
			if bias := layer.Bias(); bias != nil {
				learnables = append(learnables, bias)
			}
		}
		m.learnables = G.Nodes(learnables)
	}
	return m.learnables
}

// Model returns the learnables nodes with their gradients.
func (m *MLP) Model() []G.ValueGrad {
	if m.model == nil {
		m.model = G.NodesToValueGrads(m.Learnables())
	}
	return m.model
}

// fwd performs the forward pass of the MLP on the input node
func (m *MLP) fwd(input *G.Node) error {
	pred := input
	var err error
	for i, l := range m.layers {
		if pred, err = l.fwd(pred); err != nil {
			return fmt.Errorf("fwd: could not compute forward pass of "+
				"layer %v: %v", i, err)
		}
	}

	m.prediction = pred
	G.Read(m.prediction, &m.predVal)

	return nil
}

// Output returns the output of the MLP after the graph has been run
func (m *MLP) Output() []G.Value {
	return []G.Value{m.predVal}
}

// Prediction returns the node of the computational graph that stores
// the output of the MLP
func (m *MLP) Prediction() []*G.Node {
	return []*G.Node{m.prediction}
}

// setInput lets the value of an input node
func setInput(node *G.Node, input []float64) error {
	if size := node.Shape().TotalSize(); len(input) != size {
		return fmt.Errorf("setInput: invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", size, len(input))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(node.Shape()...),
	)
	return G.Let(node, inputTensor)
}

// set copies the values of source into dest
func set(dest, source G.Nodes) error {
	if len(dest) != len(source) {
		return fmt.Errorf("set: cannot set %v learnables from %v",
			len(dest), len(source))
	}
	for i := range dest {
		if !dest[i].Shape().Eq(source[i].Shape()) {
			return fmt.Errorf("set: learnable %v has shape %v but source "+
				"has shape %v", i, dest[i].Shape(), source[i].Shape())
		}
		weights := source[i].Value().(*tensor.Dense).Clone().(*tensor.Dense)
		if err := G.Let(dest[i], weights); err != nil {
			return fmt.Errorf("set: %v", err)
		}
	}
	return nil
}

// polyak sets dest <- tau*source + (1-tau)*dest
func polyak(dest, source G.Nodes, tau float64) error {
	if len(dest) != len(source) {
		return fmt.Errorf("polyak: cannot average %v learnables with %v",
			len(dest), len(source))
	}
	for i := range dest {
		weights := dest[i].Value().(*tensor.Dense)
		sourceWeights := source[i].Value().(*tensor.Dense)

		weights, err := weights.MulScalar(1-tau, true)
		if err != nil {
			return fmt.Errorf("polyak: %v", err)
		}

		sourceWeights, err = sourceWeights.MulScalar(tau, true)
		if err != nil {
			return fmt.Errorf("polyak: %v", err)
		}

		newWeights, err := weights.Add(sourceWeights)
		if err != nil {
			return fmt.Errorf("polyak: %v", err)
		}

		if err := G.Let(dest[i], newWeights); err != nil {
			return fmt.Errorf("polyak: %v", err)
		}
	}
	return nil
}
