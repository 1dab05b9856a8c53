// Package checkpointer periodically serializes objects during an
// experiment
package checkpointer

import (
	"encoding/gob"
	"fmt"
	"os"
)

// Serializable is an object that can be saved/serialized
type Serializable interface {
	gob.GobEncoder
	gob.GobDecoder
}

// Checkpointer checkpoints/saves serializable objects based on the
// global step of an experiment
type Checkpointer interface {
	// Checkpoint saves the object if a checkpoint is due at step
	Checkpoint(step int) error

	// Due returns whether a checkpoint is due at step
	Due(step int) bool

	// Save saves the object at step unconditionally
	Save(step int) error
}

// Load decodes the checkpoint file at path into object
func Load(path string, object Serializable) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(object); err != nil {
		return fmt.Errorf("load: could not decode %v: %w", path, err)
	}
	return nil
}
