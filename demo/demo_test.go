package demo_test

import (
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/drs/demo"
	"github.com/samuelfneumann/drs/environment/stagedreach"
	"gonum.org/v1/gonum/mat"
)

func TestRecordStagedReach(t *testing.T) {
	env, err := stagedreach.New(stagedreach.Default(2), 7)
	if err != nil {
		t.Fatal(err)
	}

	d, err := demo.Record(env, env.Expert, 3, 50)
	if err != nil {
		t.Fatal(err)
	}
	next := d[demo.NextObservations]
	rows, cols := next.Dims()
	if cols != 5 || rows == 0 {
		t.Fatalf("unexpected shape (%v, %v)", rows, cols)
	}

	// Every successful episode ends with all stages complete
	if next.At(rows-1, cols-1) != 1 {
		t.Error("last demonstration state should have the stage flag set")
	}
}

func TestSaveLoad(t *testing.T) {
	d := demo.Dataset{
		demo.NextObservations: mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6}),
		"actions":             mat.NewDense(3, 1, []float64{7, 8, 9}),
	}

	for _, name := range []string{"demo.bin", "demo.json"} {
		path := filepath.Join(t.TempDir(), name)
		if err := d.Save(path); err != nil {
			t.Fatal(err)
		}

		loaded, err := demo.Load(path, demo.NextObservations)
		if err != nil {
			t.Fatalf("%v: %v", name, err)
		}
		if len(loaded) != 1 {
			t.Errorf("%v: want 1 field have %v", name, len(loaded))
		}
		if !mat.Equal(loaded[demo.NextObservations], d[demo.NextObservations]) {
			t.Errorf("%v: loaded data differs", name)
		}

		if _, err := demo.Load(path, "rewards"); err == nil {
			t.Errorf("%v: expected error for missing field", name)
		}
	}
}

func TestTruncate(t *testing.T) {
	d := demo.Dataset{
		demo.NextObservations: mat.NewDense(3, 1, []float64{1, 2, 3}),
	}
	if r := d.Truncate(2).Rows(); r != 2 {
		t.Errorf("want 2 rows have %v", r)
	}
	if r := d.Truncate(10).Rows(); r != 3 {
		t.Errorf("want 3 rows have %v", r)
	}
	if d.Rows() != 3 {
		t.Error("truncation should not modify the dataset")
	}
}

func TestSaveRagged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	d := demo.Dataset{
		"a": mat.NewDense(2, 1, []float64{1, 2}),
		"b": mat.NewDense(1, 1, []float64{1}),
	}
	if err := d.Save(path); err == nil {
		t.Error("expected error saving fields of different lengths")
	}
}
