package initwfn

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// GaussianConfig samples every weight independently from
// N(Mean, StdDev²)
type GaussianConfig struct {
	Mean   float64
	StdDev float64
}

// NewGaussian returns an initializer drawing from N(mean, stdDev²)
func NewGaussian(mean, stdDev float64) (*InitWFn, error) {
	if stdDev <= 0 {
		return nil, fmt.Errorf("newGaussian: standard deviation must be "+
			"positive but got %v", stdDev)
	}
	return newInitWFn(GaussianConfig{Mean: mean, StdDev: stdDev})
}

func (c GaussianConfig) Type() Type        { return Gaussian }
func (c GaussianConfig) Create() G.InitWFn { return G.Gaussian(c.Mean, c.StdDev) }

// UniformConfig samples every weight independently from U[Low, High)
type UniformConfig struct {
	Low  float64
	High float64
}

// NewUniform returns an initializer drawing from U[low, high)
func NewUniform(low, high float64) (*InitWFn, error) {
	if low >= high {
		return nil, fmt.Errorf("newUniform: low (%v) must be below "+
			"high (%v)", low, high)
	}
	return newInitWFn(UniformConfig{Low: low, High: high})
}

func (c UniformConfig) Type() Type        { return Uniform }
func (c UniformConfig) Create() G.InitWFn { return G.Uniform(c.Low, c.High) }

// ConstantConfig sets every weight to Value
type ConstantConfig struct{ Value float64 }

// NewConstant returns an initializer setting all weights to value
func NewConstant(value float64) (*InitWFn, error) {
	return newInitWFn(ConstantConfig{value})
}

func (c ConstantConfig) Type() Type        { return Constant }
func (c ConstantConfig) Create() G.InitWFn { return G.ValuesOf(c.Value) }

// ZeroesConfig sets every weight to 0
type ZeroesConfig struct{}

// NewZeroes returns an initializer setting all weights to 0
func NewZeroes() (*InitWFn, error) {
	return newInitWFn(ZeroesConfig{})
}

func (c ZeroesConfig) Type() Type        { return Zeroes }
func (c ZeroesConfig) Create() G.InitWFn { return G.Zeroes() }
