package network

import (
	"math"
	"testing"

	G "gorgonia.org/gorgonia"
)

func linear(t *testing.T, batch int) NeuralNet {
	t.Helper()
	net, err := NewMLP("lin", 2, batch, 1, G.NewGraph(), []int{}, []bool{},
		G.GlorotU(1.0), []*Activation{})
	if err != nil {
		t.Fatal(err)
	}
	if err := SetWeights(net, [][]float64{{1, 2}, {0.5}}); err != nil {
		t.Fatal(err)
	}
	return net
}

func TestPredictLinear(t *testing.T) {
	p := NewPredictor(linear(t, 2))
	defer p.Close()

	out, err := p.Predict([]float64{1, 1, 2, 0})
	if err != nil {
		t.Fatal(err)
	}

	want := []float64{3.5, 2.5}
	for i := range want {
		if math.Abs(out[0][i]-want[i]) > 1e-12 {
			t.Errorf("output %v: want %v have %v", i, want[i], out[0][i])
		}
	}
}

func TestPolyak(t *testing.T) {
	target := linear(t, 1)
	source := linear(t, 1)
	if err := SetWeights(source, [][]float64{{3, 4}, {1.5}}); err != nil {
		t.Fatal(err)
	}

	if err := target.Polyak(source, 0.25); err != nil {
		t.Fatal(err)
	}

	want := [][]float64{{1.5, 2.5}, {0.75}}
	have := Weights(target)
	for i := range want {
		for j := range want[i] {
			if math.Abs(have[i][j]-want[i][j]) > 1e-12 {
				t.Errorf("weight (%v, %v): want %v have %v", i, j,
					want[i][j], have[i][j])
			}
		}
	}
}

func TestTreeCloneWithBatch(t *testing.T) {
	tree, err := NewTreeMLP("tree", 3, 1, 2, G.NewGraph(), []int{4, 4},
		[]bool{true, true}, Repeat(ReLU, 2), [][]int{{}, {}},
		[][]bool{{}, {}}, [][]*Activation{{}, {}}, G.GlorotU(1.0))
	if err != nil {
		t.Fatal(err)
	}
	if len(tree.Prediction()) != 2 {
		t.Fatalf("want 2 leaf outputs have %v", len(tree.Prediction()))
	}

	input := []float64{0.1, -0.4, 0.7}
	single, err := NewPredictor(tree).Predict(input)
	if err != nil {
		t.Fatal(err)
	}

	pool := NewPool(tree)
	defer pool.Close()
	batched, err := pool.Predict(append(append([]float64{}, input...),
		input...), 2)
	if err != nil {
		t.Fatal(err)
	}

	for leaf := range single {
		for j := range single[leaf] {
			for row := 0; row < 2; row++ {
				have := batched[leaf][row*2+j]
				if math.Abs(have-single[leaf][j]) > 1e-12 {
					t.Errorf("leaf %v output %v row %v: want %v have %v", leaf,
						j, row, single[leaf][j], have)
				}
			}
		}
	}
}

func TestSetWeightsWrongSize(t *testing.T) {
	net := linear(t, 1)
	if err := SetWeights(net, [][]float64{{1}, {0}}); err == nil {
		t.Error("expected an error for mismatched weights")
	}
}
