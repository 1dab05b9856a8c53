package initwfn

import (
	"encoding/json"
	"testing"
)

func TestParse(t *testing.T) {
	tests := map[string]Type{
		"glorot_uniform": GlorotU,
		"GlorotN":        GlorotN,
		"he_uniform":     HeU,
		"zeros":          Zeroes,
		"he_normal(1.4)": HeN,
		"gaussian":       Gaussian,
		"uniform":        Uniform,
		"constant(0.5)":  Constant,
	}

	for name, want := range tests {
		init, err := Parse(name)
		if err != nil {
			t.Errorf("%v: %v", name, err)
			continue
		}
		if init.Type != want {
			t.Errorf("%v: want type %v have %v", name, want, init.Type)
		}
		if init.InitWFn() == nil {
			t.Errorf("%v: gorgonia initializer not created", name)
		}
	}

	invalid := []string{
		"orthogonal",
		"gaussian(0, -1)",
		"uniform(1, -1)",
		"uniform(0.1)",
		"constant",
		"glorot_uniform(0)",
		"he_uniform(1.0",
		"gaussian(0, x)",
	}
	for _, desc := range invalid {
		if _, err := Parse(desc); err == nil {
			t.Errorf("%v: expected an error", desc)
		}
	}
}

func TestParseArguments(t *testing.T) {
	gaussian, err := Parse("Gaussian(0.5, 0.1)")
	if err != nil {
		t.Fatal(err)
	}
	if c := gaussian.Config.(GaussianConfig); c.Mean != 0.5 || c.StdDev != 0.1 {
		t.Errorf("want N(0.5, 0.1²) have %+v", c)
	}

	uniform, err := Parse("uniform")
	if err != nil {
		t.Fatal(err)
	}
	if c := uniform.Config.(UniformConfig); c.Low != -0.05 || c.High != 0.05 {
		t.Errorf("want U[-0.05, 0.05) have %+v", c)
	}

	glorot, err := Parse(" glorot_normal( 2 ) ")
	if err != nil {
		t.Fatal(err)
	}
	if c := glorot.Config.(GlorotNConfig); c.Gain != 2 {
		t.Errorf("want gain 2 have %v", c.Gain)
	}
}

func TestUnmarshalJSON(t *testing.T) {
	data := []byte(`{"Type": "Uniform", "Config": {"Low": -0.5, "High": 0.5}}`)

	var init InitWFn
	if err := json.Unmarshal(data, &init); err != nil {
		t.Fatal(err)
	}
	config, ok := init.Config.(UniformConfig)
	if !ok {
		t.Fatalf("want UniformConfig have %T", init.Config)
	}
	if config.Low != -0.5 || config.High != 0.5 {
		t.Errorf("want bounds [-0.5, 0.5] have [%v, %v]", config.Low,
			config.High)
	}

	bad := []byte(`{"Type": "Uniform", "Config": {"Gain": 1}}`)
	if err := json.Unmarshal(bad, &init); err != nil {
		t.Errorf("unknown fields should be ignored: %v", err)
	}
	unknown := []byte(`{"Type": "Orthogonal", "Config": {}}`)
	if err := json.Unmarshal(unknown, &init); err == nil {
		t.Error("expected an error for an unknown type")
	}
}
