package initwfn

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// The Glorot and He initializers scale the variance of the sampled
// weights by the fan-in (He) or the mean of fan-in and fan-out (Glorot)
// of each weight matrix, times Gain squared.

// GlorotUConfig samples weights uniformly with Glorot scaling
type GlorotUConfig struct{ Gain float64 }

// GlorotNConfig samples weights from a normal with Glorot scaling
type GlorotNConfig struct{ Gain float64 }

// HeUConfig samples weights uniformly with He scaling
type HeUConfig struct{ Gain float64 }

// HeNConfig samples weights from a normal with He scaling
type HeNConfig struct{ Gain float64 }

// NewGlorotU returns a uniform Glorot initializer
func NewGlorotU(gain float64) (*InitWFn, error) {
	return newScaled(GlorotUConfig{gain}, gain)
}

// NewGlorotN returns a normal Glorot initializer
func NewGlorotN(gain float64) (*InitWFn, error) {
	return newScaled(GlorotNConfig{gain}, gain)
}

// NewHeU returns a uniform He initializer
func NewHeU(gain float64) (*InitWFn, error) {
	return newScaled(HeUConfig{gain}, gain)
}

// NewHeN returns a normal He initializer
func NewHeN(gain float64) (*InitWFn, error) {
	return newScaled(HeNConfig{gain}, gain)
}

func newScaled(c Config, gain float64) (*InitWFn, error) {
	if gain <= 0 {
		return nil, fmt.Errorf("new%v: gain must be positive but got %v",
			c.Type(), gain)
	}
	return newInitWFn(c)
}

func (c GlorotUConfig) Type() Type        { return GlorotU }
func (c GlorotUConfig) Create() G.InitWFn { return G.GlorotU(c.Gain) }

func (c GlorotNConfig) Type() Type        { return GlorotN }
func (c GlorotNConfig) Create() G.InitWFn { return G.GlorotN(c.Gain) }

func (c HeUConfig) Type() Type        { return HeU }
func (c HeUConfig) Create() G.InitWFn { return G.HeU(c.Gain) }

func (c HeNConfig) Type() Type        { return HeN }
func (c HeNConfig) Create() G.InitWFn { return G.HeN(c.Gain) }
