package checkpointer

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
)

// Extension of checkpoint files
const Extension = ".bin"

// nStep implements checkpointing every N steps for a caller whose
// step advances by a fixed stride between calls
type nStep struct {
	interval int
	stride   int
	object   Serializable // Object to save

	// filename returns the name of the file to save the object in at
	// a given step
	filename func(step int) string
}

// StepFilename returns a function naming checkpoint files
// <dir>/<step><extension>
func StepFilename(dir, extension string) func(step int) string {
	return func(step int) string {
		return filepath.Join(dir, fmt.Sprintf("%d%s", step, extension))
	}
}

// NewNStep returns a checkpointer that checkpoints object whenever
// the step passes a multiple of n. Checkpoint is expected to be called
// every stride steps. Checkpoints are stored in dir as <step>.bin.
func NewNStep(n, stride int, object Serializable,
	dir string) (Checkpointer, error) {
	if n <= 0 {
		return nil, fmt.Errorf("newNStep: interval must be positive but "+
			"got %v", n)
	}
	if stride <= 0 {
		return nil, fmt.Errorf("newNStep: stride must be positive but "+
			"got %v", stride)
	}
	return &nStep{
		interval: n,
		stride:   stride,
		object:   object,
		filename: StepFilename(dir, Extension),
	}, nil
}

// Checkpoint saves the tracked object if a multiple of the interval
// lies in (step-stride, step]
func (n *nStep) Checkpoint(step int) error {
	if !n.Due(step) {
		return nil
	}
	return n.Save(step)
}

// Due returns whether Checkpoint saves at step
func (n *nStep) Due(step int) bool {
	return (step-n.stride)/n.interval < step/n.interval
}

// Save saves the tracked object to the file of step
func (n *nStep) Save(step int) error {
	path := n.filename(step)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(n.object); err != nil {
		return fmt.Errorf("save: could not encode checkpoint: %w", err)
	}
	return file.Close()
}
