// Package network implements the feed-forward neural networks used by
// the discriminators, actor, and critics as Gorgonia computational
// graphs.
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet is a feed-forward network built on a computational graph
type NeuralNet interface {
	Graph() *G.ExprGraph
	Clone() (NeuralNet, error)
	CloneWithBatch(int) (NeuralNet, error)

	// CloneWithInputTo clones the network into graph g, using inputs
	// concatenated along axis as its input. The clone has the same
	// weights as the original but does not share them.
	CloneWithInputTo(axis int, inputs []*G.Node, g *G.ExprGraph) (NeuralNet,
		error)

	BatchSize() int
	Features() int
	Outputs() []int
	Input() *G.Node
	SetInput([]float64) error
	Set(NeuralNet) error
	Polyak(NeuralNet, float64) error
	Learnables() G.Nodes
	Model() []G.ValueGrad
	Output() []G.Value
	Prediction() []*G.Node
}
