package tracker

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
)

// Gob caches the history of each metric and saves each history in its
// own gob encoded file, loadable with LoadData
type Gob struct {
	dir  string
	data series
}

// NewGob returns a new Gob Tracker which will save its data in dir
func NewGob(dir string) *Gob {
	return &Gob{dir: dir, data: make(series)}
}

// Track caches the value of tag at step
func (g *Gob) Track(tag string, value float64, step int) {
	g.data.add(tag, value, step)
}

// Series returns the cached history of tag
func (g *Gob) Series(tag string) (Series, bool) {
	s, ok := g.data[tag]
	if !ok {
		return Series{}, false
	}
	return *s, true
}

// Save writes the history of each metric to <dir>/<tag>.bin, with
// slashes in tags replaced by underscores
func (g *Gob) Save() error {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	for _, tag := range g.data.tags() {
		if err := g.save(tag); err != nil {
			return fmt.Errorf("save: %v", err)
		}
	}
	return nil
}

func (g *Gob) save(tag string) error {
	file, err := os.Create(filepath.Join(g.dir, filename(tag, ".bin")))
	if err != nil {
		return fmt.Errorf("could not open save file: %w", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(g.data[tag]); err != nil {
		return fmt.Errorf("could not encode %v data: %w", tag, err)
	}
	return file.Close()
}
