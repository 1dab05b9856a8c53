package discriminator

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/samuelfneumann/drs/network"
)

// checkpoint is the serialised form of a Discriminator
type checkpoint struct {
	NStages  int
	Features int
	Trained  []bool
	Disabled []bool
	Weights  [][][]float64
}

// GobEncode implements the gob.GobEncoder interface. The parameters
// and latch states of every stage are encoded.
func (d *Discriminator) GobEncode() ([]byte, error) {
	c := checkpoint{
		NStages:  d.NStages(),
		Features: d.features,
		Trained:  make([]bool, d.NStages()),
		Disabled: make([]bool, d.NStages()),
		Weights:  make([][][]float64, d.NStages()),
	}
	for i, s := range d.stages {
		c.Trained[i] = d.latches[i].trained
		c.Disabled[i] = d.latches[i].disabled
		c.Weights[i] = network.Weights(s.net)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(c); err != nil {
		return nil, fmt.Errorf("gobEncode: %v", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface. The Discriminator
// must have been constructed with the same number of stages, features
// and architecture as the one encoded.
func (d *Discriminator) GobDecode(in []byte) error {
	var c checkpoint
	if err := gob.NewDecoder(bytes.NewReader(in)).Decode(&c); err != nil {
		return fmt.Errorf("gobDecode: %v", err)
	}
	if c.NStages != d.NStages() || c.Features != d.features {
		return fmt.Errorf("gobDecode: cannot decode %v stages over %v "+
			"features into %v stages over %v features", c.NStages,
			c.Features, d.NStages(), d.features)
	}

	for i, s := range d.stages {
		if err := network.SetWeights(s.net, c.Weights[i]); err != nil {
			return fmt.Errorf("gobDecode: stage %v: %v", i, err)
		}
		d.latches[i] = Latch{trained: c.Trained[i], disabled: c.Disabled[i]}
	}
	return nil
}
