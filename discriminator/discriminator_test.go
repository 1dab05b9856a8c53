package discriminator

import (
	"bytes"
	"encoding/gob"
	"math"
	"testing"

	"github.com/samuelfneumann/drs/buffer/stage"
	"github.com/samuelfneumann/drs/network"
	"github.com/samuelfneumann/drs/solver"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
)

func testConfig(t *testing.T, batch int, hidden []int) Config {
	t.Helper()
	s, err := solver.New("adam", 0.05)
	if err != nil {
		t.Fatal(err)
	}
	return Config{
		HiddenSizes: hidden,
		Activation:  network.Sigmoid(),
		InitWFn:     G.GlorotU(1.0),
		Solver:      s,
		BatchSize:   batch,
	}
}

func TestComposeReward(t *testing.T) {
	if r := ComposeReward(1, 0.5, 2); math.Abs(r-(3.5/6-2)) > 1e-12 {
		t.Errorf("stage 1: want %v have %v", 3.5/6-2, r)
	}
	if r := ComposeReward(2, 0, 2); r != -1.0 {
		t.Errorf("stage 2: want -1 have %v", r)
	}

	for _, selected := range []float64{-0.99, 0, 0.99} {
		prev := math.Inf(-1)
		for s := 0; s <= 4; s++ {
			r := ComposeReward(s, selected, 4)
			if r <= prev {
				t.Errorf("reward not increasing at stage %v with output %v",
					s, selected)
			}
			if r >= 0 {
				t.Errorf("reward %v should be negative", r)
			}
			prev = r
		}
	}
}

func TestReward(t *testing.T) {
	d, err := New(2, 2, testConfig(t, 4, []int{}))
	if err != nil {
		t.Fatal(err)
	}

	// Stage 1 outputs atanh(0.5) everywhere, stage 0 stays untrained
	err = network.SetWeights(d.stages[1].net, [][]float64{{0, 0},
		{math.Atanh(0.5)}})
	if err != nil {
		t.Fatal(err)
	}
	d.latches[1].markTrained()

	obs := mat.NewDense(3, 2, []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6})
	stages := []int{0, 1, 2}
	success := []bool{false, false, true}

	rewards, err := d.Reward(obs, stages, success)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{-2.0, 3.5/6 - 2, -1.0}
	for i := range want {
		if math.Abs(rewards[i]-want[i]) > 1e-12 {
			t.Errorf("sample %v: want %v have %v", i, want[i], rewards[i])
		}
	}

	again, err := d.Reward(obs, stages, success)
	if err != nil {
		t.Fatal(err)
	}
	for i := range rewards {
		if again[i] != rewards[i] {
			t.Errorf("sample %v: reward changed between calls: %v != %v", i,
				rewards[i], again[i])
		}
	}

	if _, err := d.Reward(obs, []int{0, 3, 1}, success); err == nil {
		t.Error("expected an error for a stage index past the last stage")
	}
}

func TestRewardSingleStageMismatch(t *testing.T) {
	d, err := New(2, 1, testConfig(t, 4, []int{}))
	if err != nil {
		t.Fatal(err)
	}
	obs := mat.NewDense(1, 2, nil)
	if _, err := d.Reward(obs, []int{1}, []bool{false}); err == nil {
		t.Error("expected an error when stage and success disagree")
	}
	if _, err := d.Reward(obs, []int{1}, []bool{true}); err != nil {
		t.Error(err)
	}
}

func separable(batch int, value float64) *mat.Dense {
	obs := mat.NewDense(batch, 2, nil)
	for i := 0; i < batch; i++ {
		obs.Set(i, 0, value)
		obs.Set(i, 1, 0.5)
	}
	return obs
}

func TestTrainSeparable(t *testing.T) {
	d, err := New(2, 1, testConfig(t, 8, []int{}))
	if err != nil {
		t.Fatal(err)
	}
	if d.Latch(0).Trained() {
		t.Fatal("new discriminator should be untrained")
	}

	fail, success := separable(8, -1), separable(8, 1)
	first, err := d.Train(0, fail, success)
	if err != nil {
		t.Fatal(err)
	}
	last := first
	for i := 0; i < 200; i++ {
		if last, err = d.Train(0, fail, success); err != nil {
			t.Fatal(err)
		}
	}

	if last.Loss >= first.Loss {
		t.Errorf("loss did not decrease: first %v last %v", first.Loss,
			last.Loss)
	}
	if last.Accuracy != 1.0 {
		t.Errorf("want accuracy 1 have %v", last.Accuracy)
	}
	if !d.Latch(0).Trained() {
		t.Error("stage should be marked trained")
	}

	logits, err := d.Logits(0, mat.NewDense(2, 2, []float64{-1, 0.5, 1, 0.5}))
	if err != nil {
		t.Fatal(err)
	}
	if logits[0] >= 0 || logits[1] <= 0 {
		t.Errorf("logits do not separate the classes: %v", logits)
	}
}

func TestUpdateSkipsEmptySides(t *testing.T) {
	d, err := New(2, 2, testConfig(t, 4, []int{3}))
	if err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewSource(3))

	buffers := make([]*stage.Buffer, 3)
	for i := range buffers {
		if buffers[i], err = stage.NewBuffer(10, 2); err != nil {
			t.Fatal(err)
		}
	}
	buffers[2].Add(separable(5, 1))

	stats, err := d.Update(buffers, rng)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 0 {
		t.Errorf("no stage has failure data, want no updates have %v", stats)
	}

	buffers[0].Add(separable(5, -1))
	if stats, err = d.Update(buffers, rng); err != nil {
		t.Fatal(err)
	}
	if len(stats) != 2 {
		t.Errorf("want both stages updated have %v", stats)
	}

	if !d.Disable(1) || d.Disable(1) {
		t.Error("disable should report a change only once")
	}
	if stats, err = d.Update(buffers, rng); err != nil {
		t.Fatal(err)
	}
	if len(stats) != 1 || stats[0].Stage != 0 {
		t.Errorf("want only stage 0 updated have %v", stats)
	}
	if d.Latch(1).Enabled() || !d.Latch(1).Trained() {
		t.Errorf("stage 1 latch: want Trained/Disabled have %v", d.Latch(1))
	}
}

func TestGobRoundTrip(t *testing.T) {
	config := testConfig(t, 4, []int{5})
	d, err := New(2, 2, config)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.Train(1, separable(4, -1), separable(4, 1)); err != nil {
		t.Fatal(err)
	}
	d.Disable(0)

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(d); err != nil {
		t.Fatal(err)
	}

	restored, err := New(2, 2, config)
	if err != nil {
		t.Fatal(err)
	}
	if err := gob.NewDecoder(&buf).Decode(restored); err != nil {
		t.Fatal(err)
	}

	obs := mat.NewDense(2, 2, []float64{0.3, -0.2, 0.9, 0.1})
	for s := 0; s < 2; s++ {
		if d.Latch(s) != restored.Latch(s) {
			t.Errorf("stage %v latch: want %v have %v", s, d.Latch(s),
				restored.Latch(s))
		}
		want, _ := d.Logits(s, obs)
		have, _ := restored.Logits(s, obs)
		for i := range want {
			if want[i] != have[i] {
				t.Errorf("stage %v logit %v: want %v have %v", s, i, want[i],
					have[i])
			}
		}
	}
}
