package stage

import (
	"errors"
	"reflect"
	"testing"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

func filled(t *testing.T, capacity, rows int, value float64) *Buffer {
	t.Helper()
	b, err := NewBuffer(capacity, 2)
	if err != nil {
		t.Fatal(err)
	}
	if rows == 0 {
		return b
	}
	data := make([]float64, rows*2)
	for i := range data {
		data[i] = value
	}
	if err := b.Add(mat.NewDense(rows, 2, data)); err != nil {
		t.Fatal(err)
	}
	return b
}

func TestBufferFullness(t *testing.T) {
	b := filled(t, 5, 3, 1.0)
	if b.Size() != 3 || b.Full() {
		t.Errorf("after 3 adds: want size 3 not full, have size %v full %v",
			b.Size(), b.Full())
	}

	if err := b.Add(mat.NewDense(2, 2, []float64{9, 9, 9, 9})); err != nil {
		t.Fatal(err)
	}
	if b.Size() != 5 || b.Full() {
		t.Errorf("after 5 adds: want size 5 not full, have size %v full %v",
			b.Size(), b.Full())
	}

	if err := b.Add(mat.NewDense(4, 2, []float64{2, 2, 3, 3, 4, 4, 5, 5})); err != nil {
		t.Fatal(err)
	}
	if b.Size() != 5 || !b.Full() {
		t.Errorf("after 9 adds: want size 5 full, have size %v full %v",
			b.Size(), b.Full())
	}

	want := []float64{2, 2, 3, 3, 4, 4, 5, 5, 9, 9}
	if !reflect.DeepEqual(b.data, want) {
		t.Errorf("data: want(%v) \nhave(%v)", want, b.data)
	}
}

func TestBufferAddWrongFeatures(t *testing.T) {
	b := filled(t, 5, 0, 0)
	if err := b.Add(mat.NewDense(1, 3, nil)); err == nil {
		t.Error("expected an error when adding rows of the wrong width")
	}
}

func TestBufferSampleEmpty(t *testing.T) {
	b := filled(t, 5, 0, 0)
	_, err := b.Sample(3, rand.New(rand.NewSource(1)))
	if !errors.Is(err, ErrEmptyBuffer) {
		t.Errorf("want ErrEmptyBuffer, have %v", err)
	}
}

func TestShares(t *testing.T) {
	tests := []struct {
		sizes []int
		n     int
		want  []int
	}{
		{sizes: []int{2, 0, 8}, n: 10, want: []int{2, 0, 8}},
		{sizes: []int{1, 1, 1}, n: 10, want: []int{4, 3, 3}},
		{sizes: []int{3, 7}, n: 4, want: []int{1, 3}},
		{sizes: []int{0, 5}, n: 7, want: []int{0, 7}},
	}

	for _, test := range tests {
		have, err := Shares(test.sizes, test.n)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(have, test.want) {
			t.Errorf("shares(%v, %v): want(%v) have(%v)", test.sizes,
				test.n, test.want, have)
		}
	}
}

func TestSampleFrom(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	buffers := []*Buffer{
		filled(t, 10, 2, 0.0),
		filled(t, 10, 0, 0.0),
		filled(t, 10, 8, 2.0),
	}

	batch, err := SampleFrom(buffers, 10, rng)
	if err != nil {
		t.Fatal(err)
	}

	if r, _ := batch.NextObservations.Dims(); r != 10 {
		t.Fatalf("rows: want 10 have %v", r)
	}
	wantSources := []int{0, 0, 2, 2, 2, 2, 2, 2, 2, 2}
	if !reflect.DeepEqual(batch.Sources, wantSources) {
		t.Errorf("sources: want(%v) have(%v)", wantSources, batch.Sources)
	}
	for i, src := range batch.Sources {
		want := 0.0
		if src == 2 {
			want = 2.0
		}
		if v := batch.NextObservations.At(i, 0); v != want {
			t.Errorf("row %v: want %v have %v", i, want, v)
		}
	}
}

func TestSampleFromAllEmpty(t *testing.T) {
	buffers := []*Buffer{filled(t, 4, 0, 0), filled(t, 4, 0, 0)}
	_, err := SampleFrom(buffers, 4, rand.New(rand.NewSource(1)))
	if !errors.Is(err, ErrAllEmpty) {
		t.Errorf("want ErrAllEmpty, have %v", err)
	}
}

func BenchmarkBufferAdd(b *testing.B) {
	buf, _ := NewBuffer(100_000, 32)
	obs := mat.NewDense(16, 32, nil)
	for i := 0; i < b.N; i++ {
		buf.Add(obs)
	}
}
