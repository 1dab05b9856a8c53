package episode

import (
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// indicatorRows returns observations with one raw feature followed by
// three stage indicators whose sum is the given stage
func indicatorRows(stages []int) *mat.Dense {
	obs := mat.NewDense(len(stages), 4, nil)
	for i, s := range stages {
		obs.Set(i, 0, float64(i))
		for j := 0; j < s; j++ {
			obs.Set(i, 1+j, 1.0)
		}
	}
	return obs
}

func TestSegment(t *testing.T) {
	traj := indicatorRows([]int{0, 0, 1, 1, 2, 1, 2, 0})

	tests := []struct {
		name    string
		nStages int
		success bool
		stage   int
		length  int
	}{
		{name: "latest maximum", nStages: 4, stage: 2, length: 7},
		{name: "success keeps all", nStages: 4, success: true, stage: 4,
			length: 8},
		{name: "single stage failure", nStages: 1, stage: 0, length: 8},
		{name: "single stage success", nStages: 1, success: true, stage: 1,
			length: 8},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			stage, length := Segment(traj, test.nStages, test.success)
			if stage != test.stage || length != test.length {
				t.Errorf("want stage %v length %v, have stage %v length %v",
					test.stage, test.length, stage, length)
			}
		})
	}
}

func TestTrackerFinish(t *testing.T) {
	tracker, err := NewTracker(2, 8, 4, 4)
	if err != nil {
		t.Fatal(err)
	}

	stages := []int{0, 0, 1, 1, 2, 1, 2, 0}
	traj := indicatorRows(stages)
	for i := range stages {
		obs := mat.NewDense(2, 4, nil)
		obs.SetRow(0, traj.RawRowView(i))
		obs.SetRow(1, traj.RawRowView(i))
		if err := tracker.Record(obs); err != nil {
			t.Fatal(err)
		}
	}

	out, err := tracker.Finish(0, false)
	if err != nil {
		t.Fatal(err)
	}
	if out.Stage != 2 {
		t.Errorf("stage: want 2 have %v", out.Stage)
	}
	if r, _ := out.Observations.Dims(); r != 7 {
		t.Fatalf("length: want 7 have %v", r)
	}
	for i := 0; i < 7; i++ {
		if out.Observations.At(i, 0) != float64(i) {
			t.Errorf("row %v: wrong observation %v", i,
				out.Observations.RawRowView(i))
		}
	}

	if tracker.Steps(0) != 0 || tracker.Steps(1) != 8 {
		t.Errorf("steps: want [0 8] have [%v %v]", tracker.Steps(0),
			tracker.Steps(1))
	}

	// Slot 1 is full, another step overflows it
	if err := tracker.Record(mat.NewDense(2, 4, nil)); err == nil {
		t.Error("expected an error when recording past the episode limit")
	}

	if _, err := tracker.Finish(0, true); err == nil {
		t.Error("expected an error when finishing an empty slot")
	}
}

func TestStageSuccess(t *testing.T) {
	have := StageSuccess(2, 4)
	want := []bool{true, true, false}
	if !reflect.DeepEqual(have, want) {
		t.Errorf("want(%v) have(%v)", want, have)
	}

	if StageSuccess(1, 1) != nil {
		t.Error("a single stage has no boundaries")
	}
}
