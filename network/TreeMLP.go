package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// TreeMLP implements a multi-layered perceptron with a base root
// network and multiple leaf networks that use the output of the root
// network as their own inputs. A diagram of a tree MLP:
//
//	                  ╭─→ Leaf Network 1       ─→ Output
//	                  ├─→ Leaf Network 2       ─→ Output
//	Input ─→ Root Net ─┼─→ ...                  ─→  ...
//	                  ╰─→ Leaf Network N       ─→ Output
//
// Prediction() returns one node per leaf network, in order.
type TreeMLP struct {
	g            *G.ExprGraph
	name         string
	rootNetwork  *MLP
	leafNetworks []*MLP
	input        *G.Node

	numOutputs []int
	numInputs  int
	batchSize  int

	learnables G.Nodes
	model      []G.ValueGrad

	predVal    []G.Value
	prediction []*G.Node
}

// validateTreeMLP validates the arguments of NewTreeMLP() to ensure
// they are legal.
func validateTreeMLP(numOutputs int, rootHiddenSizes []int, rootBiases []bool,
	rootActivations []*Activation, leafHiddenSizes [][]int,
	leafBiases [][]bool, leafActivations [][]*Activation) error {
	if len(rootHiddenSizes) == 0 {
		return fmt.Errorf("root network must have at least one hidden layer")
	}
	if len(rootHiddenSizes) != len(rootActivations) {
		msg := "invalid number of root activations" +
			"\n\twant(%d)\n\thave(%d)"
		return fmt.Errorf(msg, len(rootHiddenSizes), len(rootActivations))
	}
	if len(rootHiddenSizes) != len(rootBiases) {
		msg := "invalid number of root biases" +
			"\n\twant(%d)\n\thave(%d)"
		return fmt.Errorf(msg, len(rootHiddenSizes), len(rootBiases))
	}

	if len(leafHiddenSizes) == 0 {
		return fmt.Errorf("there must be at least one leaf network specified")
	}
	if numOutputs <= 0 {
		return fmt.Errorf("there must be more than 0 outputs per leaf network")
	}
	if len(leafHiddenSizes) != len(leafActivations) ||
		len(leafHiddenSizes) != len(leafBiases) {
		msg := "invalid number of leaf network activations or biases " +
			"\n\twant(%v) \n\thave(%v, %v)"
		return fmt.Errorf(msg, len(leafHiddenSizes), len(leafActivations),
			len(leafBiases))
	}

	return nil
}

// NewTreeMLP returns a new NeuralNet with a tree MLP architecture.
//
// The root network has len(rootHiddenSizes) layers, configured as in
// NewMLP but without a final linear layer. There is one leaf network
// per element of leafHiddenSizes, each configured as in NewMLP and
// each with a final linear layer of outputs units. To create leaf
// networks of a single linear layer, set leafHiddenSizes =
// [][]int{{}, {}, ..., {}}, and similarly for leafBiases and
// leafActivations.
func NewTreeMLP(name string, features, batch, outputs int, g *G.ExprGraph,
	rootHiddenSizes []int, rootBiases []bool, rootActivations []*Activation,
	leafHiddenSizes [][]int, leafBiases [][]bool,
	leafActivations [][]*Activation, init G.InitWFn) (NeuralNet, error) {
	err := validateTreeMLP(outputs, rootHiddenSizes, rootBiases,
		rootActivations, leafHiddenSizes, leafBiases, leafActivations)
	if err != nil {
		return nil, fmt.Errorf("newTreeMLP: %v", err)
	}

	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName(name+"Input"), G.WithInit(G.Zeroes()))

	rootOutputs := rootHiddenSizes[len(rootHiddenSizes)-1]
	root, err := newMLPFromInput(name+"Root", []*G.Node{input}, rootOutputs,
		g, rootHiddenSizes, rootBiases, init, rootActivations, false)
	if err != nil {
		return nil, fmt.Errorf("newTreeMLP: could not construct root "+
			"network: %v", err)
	}

	leaves := make([]*MLP, len(leafHiddenSizes))
	for i := range leaves {
		leaves[i], err = newMLPFromInput(fmt.Sprintf("%sLeaf%d", name, i),
			root.Prediction(), outputs, g, leafHiddenSizes[i], leafBiases[i],
			init, leafActivations[i], true)
		if err != nil {
			return nil, fmt.Errorf("newTreeMLP: could not construct leaf "+
				"network %v: %v", i, err)
		}
	}

	return newTree(name, g, input, root, leaves), nil
}

// newTree collects the predictions of the leaves of a tree whose sub
// networks have already been constructed
func newTree(name string, g *G.ExprGraph, input *G.Node, root *MLP,
	leaves []*MLP) *TreeMLP {
	numOutputs := make([]int, len(leaves))
	prediction := make([]*G.Node, len(leaves))
	for i, leaf := range leaves {
		numOutputs[i] = leaf.numOutputs
		prediction[i] = leaf.prediction
	}

	t := &TreeMLP{
		g:            g,
		name:         name,
		rootNetwork:  root,
		leafNetworks: leaves,
		input:        input,
		numOutputs:   numOutputs,
		numInputs:    root.numInputs,
		batchSize:    root.batchSize,
		prediction:   prediction,
		predVal:      make([]G.Value, len(leaves)),
	}
	for i, pred := range t.prediction {
		G.Read(pred, &t.predVal[i])
	}

	return t
}

// SetInput sets the value of the input node before running the forward
// pass.
func (t *TreeMLP) SetInput(input []float64) error {
	return setInput(t.input, input)
}

// Input returns the input node of the root network
func (t *TreeMLP) Input() *G.Node {
	return t.input
}

// Outputs returns the number of outputs per leaf network
func (t *TreeMLP) Outputs() []int {
	return t.numOutputs
}

// Graph returns the computational graph of the network
func (t *TreeMLP) Graph() *G.ExprGraph {
	return t.g
}

// Features returns the number of input features
func (t *TreeMLP) Features() int {
	return t.numInputs
}

// BatchSize returns the batch size for inputs to the network
func (t *TreeMLP) BatchSize() int {
	return t.batchSize
}

// Clone returns a clone of the TreeMLP.
func (t *TreeMLP) Clone() (NeuralNet, error) {
	return t.CloneWithBatch(t.batchSize)
}

// CloneWithBatch returns a clone of the TreeMLP with a new input
// batch size.
func (t *TreeMLP) CloneWithBatch(batchSize int) (NeuralNet, error) {
	graph := G.NewGraph()
	input := G.NewMatrix(graph, tensor.Float64,
		G.WithShape(batchSize, t.numInputs), G.WithName(t.name+"Input"),
		G.WithInit(G.Zeroes()))

	return t.CloneWithInputTo(-1, []*G.Node{input}, graph)
}

// CloneWithInputTo clones the TreeMLP to a new graph with a given
// input node. If multiple input nodes are given, then they are first
// concatenated along the specified axis.
func (t *TreeMLP) CloneWithInputTo(axis int, inputs []*G.Node,
	graph *G.ExprGraph) (NeuralNet, error) {
	rootClone, err := t.rootNetwork.CloneWithInputTo(axis, inputs, graph)
	if err != nil {
		return nil, fmt.Errorf("cloneWithInputTo: could not clone root "+
			"network: %v", err)
	}
	root := rootClone.(*MLP)

	leaves := make([]*MLP, len(t.leafNetworks))
	for i, leaf := range t.leafNetworks {
		leafClone, err := leaf.CloneWithInputTo(-1, root.Prediction(), graph)
		if err != nil {
			return nil, fmt.Errorf("cloneWithInputTo: could not clone leaf "+
				"network %v: %v", i, err)
		}
		leaves[i] = leafClone.(*MLP)
	}

	return newTree(t.name, graph, root.input, root, leaves), nil
}

// Set sets the weights of the TreeMLP to be equal to the weights of
// another network of the same architecture
func (t *TreeMLP) Set(source NeuralNet) error {
	return set(t.Learnables(), source.Learnables())
}

// Polyak sets the weights of the TreeMLP to be a polyak average
// between its existing weights and the weights of another network
func (t *TreeMLP) Polyak(source NeuralNet, tau float64) error {
	return polyak(t.Learnables(), source.Learnables(), tau)
}

// Output returns the output of each leaf network after the graph has
// been run
func (t *TreeMLP) Output() []G.Value {
	return t.predVal
}

// Prediction returns the output node of each leaf network
func (t *TreeMLP) Prediction() []*G.Node {
	return t.prediction
}

// Model returns the learnable nodes with their gradients.
func (t *TreeMLP) Model() []G.ValueGrad {
	if t.model == nil {
		t.model = G.NodesToValueGrads(t.Learnables())
	}
	return t.model
}

// Learnables returns the learnable nodes of the root network followed
// by those of each leaf network
func (t *TreeMLP) Learnables() G.Nodes {
	if t.learnables == nil {
		learnables := append(G.Nodes{}, t.rootNetwork.Learnables()...)
		for _, leaf := range t.leafNetworks {
			learnables = append(learnables, leaf.Learnables()...)
		}
		t.learnables = learnables
	}
	return t.learnables
}
