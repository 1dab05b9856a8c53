package expreplay

import (
	"testing"

	"github.com/samuelfneumann/drs/timestep"
)

func transition(v float64, stop bool) timestep.Transition {
	return timestep.Transition{
		State:         []float64{v, v},
		Action:        []float64{-v},
		Reward:        v,
		NextState:     []float64{v + 1, v + 1},
		StopBootstrap: stop,
	}
}

func TestSampleBeforeMinCapacity(t *testing.T) {
	buffer, err := Config{SampleSize: 4, MinReplayCapacity: 2,
		MaxReplayCapacity: 5}.Create(2, 1, 1)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := buffer.Sample(); !IsEmptyBuffer(err) {
		t.Errorf("want empty buffer error, have %v", err)
	}

	buffer.Add(transition(1, false))
	if _, err := buffer.Sample(); !IsInsufficientSamples(err) {
		t.Errorf("want insufficient samples error, have %v", err)
	}
}

func TestSampleConsistentRows(t *testing.T) {
	buffer, err := Config{SampleSize: 16, MinReplayCapacity: 1,
		MaxReplayCapacity: 3}.Create(2, 1, 7)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		if err := buffer.Add(transition(float64(i), i%2 == 0)); err != nil {
			t.Fatal(err)
		}
	}
	if buffer.Capacity() != 3 {
		t.Errorf("capacity: want 3 have %v", buffer.Capacity())
	}

	batch, err := buffer.Sample()
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range batch.Rewards {
		if r < 2 {
			t.Errorf("row %v: transition %v should have been overwritten",
				i, r)
		}
		if batch.States.At(i, 1) != r || batch.Actions.At(i, 0) != -r ||
			batch.NextStates.At(i, 0) != r+1 {
			t.Errorf("row %v: fields do not belong to the same transition", i)
		}
		wantStop := 0.0
		if int(r)%2 == 0 {
			wantStop = 1.0
		}
		if batch.StopBootstrap[i] != wantStop {
			t.Errorf("row %v: stop bootstrap want %v have %v", i, wantStop,
				batch.StopBootstrap[i])
		}
	}
}

func TestAddWrongSize(t *testing.T) {
	buffer, _ := Config{SampleSize: 1, MinReplayCapacity: 1,
		MaxReplayCapacity: 3}.Create(3, 1, 1)
	if err := buffer.Add(transition(1, false)); err == nil {
		t.Error("expected an error for mismatched state size")
	}
}
