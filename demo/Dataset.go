// Package demo loads, saves, and records demonstration datasets. A
// Dataset maps field names such as next_observations to matrices with
// one row per transition.
package demo

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// NextObservations is the field of a Dataset that seeds the success
// buffer
const NextObservations = "next_observations"

// Dataset is a demonstration dataset
type Dataset map[string]*mat.Dense

// Rows returns the number of transitions in the dataset, which is the
// number of rows of its first field in sorted order
func (d Dataset) Rows() int {
	keys := d.Keys()
	if len(keys) == 0 {
		return 0
	}
	r, _ := d[keys[0]].Dims()
	return r
}

// Keys returns the field names of the dataset in sorted order
func (d Dataset) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Truncate returns a dataset of at most the first n rows of each field
func (d Dataset) Truncate(n int) Dataset {
	out := make(Dataset, len(d))
	for k, m := range d {
		r, c := m.Dims()
		if n < r {
			out[k] = mat.DenseCopyOf(m.Slice(0, n, 0, c))
		} else {
			out[k] = m
		}
	}
	return out
}

// validate checks that all fields have the same number of rows
func (d Dataset) validate() error {
	rows := -1
	for _, k := range d.Keys() {
		r, _ := d[k].Dims()
		if rows >= 0 && r != rows {
			return fmt.Errorf("field %v has %v rows but expected %v", k, r,
				rows)
		}
		rows = r
	}
	return nil
}

// Load loads the fields keys of the dataset stored at path. Files with
// a .json extension hold a JSON object of row-major nested arrays; all
// other files are gob encoded Datasets. If no keys are given, all
// fields are loaded.
func Load(path string, keys ...string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	defer f.Close()

	all := make(Dataset)
	if isJSON(path) {
		var raw map[string][][]float64
		if err := json.NewDecoder(f).Decode(&raw); err != nil {
			return nil, fmt.Errorf("load: could not decode %v: %w", path, err)
		}
		for k, rows := range raw {
			m, err := fromRows(rows)
			if err != nil {
				return nil, fmt.Errorf("load: field %v: %v", k, err)
			}
			all[k] = m
		}
	} else if err := gob.NewDecoder(f).Decode(&all); err != nil {
		return nil, fmt.Errorf("load: could not decode %v: %w", path, err)
	}

	if len(keys) == 0 {
		keys = all.Keys()
	}
	d := make(Dataset, len(keys))
	for _, k := range keys {
		m, ok := all[k]
		if !ok {
			return nil, fmt.Errorf("load: %v has no field %v", path, k)
		}
		d[k] = m
	}
	if err := d.validate(); err != nil {
		return nil, fmt.Errorf("load: %v", err)
	}
	return d, nil
}

// Save stores the dataset at path in the format given by its extension
func (d Dataset) Save(path string) error {
	if err := d.validate(); err != nil {
		return fmt.Errorf("save: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	defer f.Close()

	if isJSON(path) {
		raw := make(map[string][][]float64, len(d))
		for k, m := range d {
			raw[k] = toRows(m)
		}
		err = json.NewEncoder(f).Encode(raw)
	} else {
		err = gob.NewEncoder(f).Encode(d)
	}
	if err != nil {
		return fmt.Errorf("save: could not encode %v: %w", path, err)
	}
	return f.Close()
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func fromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("empty matrix")
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %v has %v columns but expected %v", i,
				len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

func toRows(m *mat.Dense) [][]float64 {
	r, _ := m.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = mat.Row(nil, i, m)
	}
	return rows
}
