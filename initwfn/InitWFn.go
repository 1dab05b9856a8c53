// Package initwfn implements functionality to wrap Gorgonia InitWFn
// so that they can be JSON serialized into configuration files.
package initwfn

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of InitWFn that are available.
// Type is used to implement a basic type system of InitWFn's.
type Type string

// Available InitWFn types
const (
	GlorotU  Type = "GlorotU"
	GlorotN  Type = "GlorotN"
	HeU      Type = "HeU"
	HeN      Type = "HeN"
	Zeroes   Type = "Zeroes"
	Constant Type = "Constant"
	Gaussian Type = "Gaussian"
	Uniform  Type = "Uniform"
)

// InitWFn wraps Gorgonia InitWFn so that they can be JSON marshalled and
// unmarshalled.
type InitWFn struct {
	initWFn G.InitWFn
	Type
	Config
}

// newInitWFn returns a new InitWFn
func newInitWFn(c Config) (*InitWFn, error) {
	init := InitWFn{Type: c.Type(), Config: c}
	init.initWFn = init.Config.Create()

	return &init, nil
}

// InitWFn returns the wrapped Gorgonia InitWFn
func (w *InitWFn) InitWFn() G.InitWFn {
	return w.initWFn
}

// String implements the fmt.Stringer interface
func (i *InitWFn) String() string {
	return fmt.Sprintf("{%v InitWFn: %v}", i.Type, i.Config)
}

// UnmarshalJSON implements the json.Unmarshaller interface
func (i *InitWFn) UnmarshalJSON(data []byte) error {
	config, typeName, err := unmarshalConfig(
		data,
		"Type",
		"Config",
		map[string]reflect.Type{
			string(GlorotU):  reflect.TypeOf(GlorotUConfig{}),
			string(GlorotN):  reflect.TypeOf(GlorotNConfig{}),
			string(HeU):      reflect.TypeOf(HeUConfig{}),
			string(HeN):      reflect.TypeOf(HeNConfig{}),
			string(Zeroes):   reflect.TypeOf(ZeroesConfig{}),
			string(Constant): reflect.TypeOf(ConstantConfig{}),
			string(Gaussian): reflect.TypeOf(GaussianConfig{}),
			string(Uniform):  reflect.TypeOf(UniformConfig{}),
		})
	if err != nil {
		return fmt.Errorf("unmarshalJSON: %v", err)
	}

	if config.Type() != typeName {
		return fmt.Errorf("unmarshalJSON: configuration %T cannot create "+
			"type %v", config, typeName)
	}

	i.Type = typeName
	i.Config = config
	i.initWFn = i.Config.Create()

	return nil
}

// unmarshalConfig uses reflection to unmarshall a Config into its
// concrete type. Both the Config and its Type are returned.
func unmarshalConfig(data []byte, typeJsonField, valueJsonField string,
	customTypes map[string]reflect.Type) (Config, Type, error) {
	m := map[string]interface{}{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, "", err
	}

	typeName, ok := m[typeJsonField].(string)
	if !ok {
		return nil, "", fmt.Errorf("missing initializer type field %q",
			typeJsonField)
	}
	ty, found := customTypes[typeName]
	if !found {
		return nil, "", fmt.Errorf("unknown initializer type %q", typeName)
	}
	value := reflect.New(ty)

	valueBytes, err := json.Marshal(m[valueJsonField])
	if err != nil {
		return nil, "", err
	}
	if err = json.Unmarshal(valueBytes, value.Interface()); err != nil {
		return nil, "", err
	}

	return value.Elem().Interface().(Config), Type(typeName), nil
}

// Config implements a Gorgonia InitWFn configuration and can be used to
// create the described Gorgonia InitWFn's.
type Config interface {
	// Create returns the Gorgonia InitWFn that the Config describes
	Create() G.InitWFn

	// Type returns the type of Gorgonia InitWFn that is returned
	Type() Type
}

// Parse returns the InitWFn described by a configuration string: a
// name optionally followed by parenthesised arguments, for example
// "he_normal", "glorot_uniform(1.4)" or "uniform(-0.05, 0.05)".
//
//	glorot_uniform, glorot_normal, he_uniform, he_normal  (gain = 1)
//	gaussian  (mean = 0, stddev = 0.01)
//	uniform   (low = -0.05, high = 0.05)
//	constant  (value)
//	zeroes
func Parse(desc string) (*InitWFn, error) {
	name, args, err := splitArgs(desc)
	if err != nil {
		return nil, fmt.Errorf("parse: %v", err)
	}

	var p []float64
	switch name {
	case "glorot_uniform", "glorotu", "glorot_normal", "glorotn",
		"he_uniform", "heu", "he_normal", "hen":
		p, err = withDefaults(args, 1.0)
	case "gaussian", "normal":
		p, err = withDefaults(args, 0, 0.01)
	case "uniform":
		p, err = withDefaults(args, -0.05, 0.05)
	case "constant":
		if len(args) != 1 {
			err = fmt.Errorf("constant needs exactly one value")
		}
		p = args
	case "zeroes", "zeros":
		p, err = withDefaults(args)
	default:
		return nil, fmt.Errorf("parse: unknown weight initializer %q", desc)
	}
	if err != nil {
		return nil, fmt.Errorf("parse: %q: %v", desc, err)
	}

	switch name {
	case "glorot_uniform", "glorotu":
		return NewGlorotU(p[0])
	case "glorot_normal", "glorotn":
		return NewGlorotN(p[0])
	case "he_uniform", "heu":
		return NewHeU(p[0])
	case "he_normal", "hen":
		return NewHeN(p[0])
	case "gaussian", "normal":
		return NewGaussian(p[0], p[1])
	case "uniform":
		return NewUniform(p[0], p[1])
	case "constant":
		return NewConstant(p[0])
	default:
		return NewZeroes()
	}
}

// splitArgs splits "name(a, b)" into its lower cased name and arguments
func splitArgs(desc string) (string, []float64, error) {
	s := strings.ToLower(strings.TrimSpace(desc))
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return s, nil, nil
	}
	if !strings.HasSuffix(s, ")") {
		return "", nil, fmt.Errorf("unbalanced parentheses in %q", desc)
	}

	name := strings.TrimSpace(s[:open])
	inner := strings.TrimSpace(s[open+1 : len(s)-1])
	if inner == "" {
		return name, nil, nil
	}
	fields := strings.Split(inner, ",")
	args := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return "", nil, fmt.Errorf("argument %d of %q: %v", i, desc, err)
		}
		args[i] = v
	}
	return name, args, nil
}

// withDefaults returns args, or defaults when no args were given
func withDefaults(args []float64, defaults ...float64) ([]float64, error) {
	if len(args) == 0 {
		return defaults, nil
	}
	if len(args) != len(defaults) {
		return nil, fmt.Errorf("want %d arguments have %d", len(defaults),
			len(args))
	}
	return args, nil
}
