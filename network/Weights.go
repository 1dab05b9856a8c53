package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Weights returns a copy of the values of each learnable of net, in
// the order given by Learnables()
func Weights(net NeuralNet) [][]float64 {
	learnables := net.Learnables()
	weights := make([][]float64, len(learnables))
	for i, l := range learnables {
		weights[i] = append([]float64{}, l.Value().Data().([]float64)...)
	}
	return weights
}

// SetWeights sets the values of the learnables of net from weights, as
// returned by Weights()
func SetWeights(net NeuralNet, weights [][]float64) error {
	learnables := net.Learnables()
	if len(learnables) != len(weights) {
		return fmt.Errorf("setWeights: network has %v learnables but got %v",
			len(learnables), len(weights))
	}

	for i, l := range learnables {
		if size := l.Shape().TotalSize(); size != len(weights[i]) {
			return fmt.Errorf("setWeights: learnable %v has %v weights but "+
				"got %v", i, size, len(weights[i]))
		}
		value := tensor.New(
			tensor.WithShape(l.Shape()...),
			tensor.WithBacking(append([]float64{}, weights[i]...)),
		)
		if err := G.Let(l, value); err != nil {
			return fmt.Errorf("setWeights: %v", err)
		}
	}
	return nil
}
