// Package config loads, validates, and stores the configuration of a
// DrS training run
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// AlgoName names the algorithm in run directories
const AlgoName = "DrS-learn-reward"

// EnvPrefix prefixes environment variables that override configuration
// values, e.g. DRS_TOTAL_TIMESTEPS
const EnvPrefix = "DRS"

// Config is the configuration of a training run
type Config struct {
	ExpName  string `mapstructure:"exp_name" yaml:"exp_name" json:"exp_name"`
	Seed     uint64 `mapstructure:"seed" yaml:"seed" json:"seed"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`

	// Environment
	EnvID           string `mapstructure:"env_id" yaml:"env_id" json:"env_id"`
	NStages         int    `mapstructure:"n_stages" yaml:"n_stages" json:"n_stages"`
	MaxEpisodeSteps int    `mapstructure:"max_episode_steps" yaml:"max_episode_steps" json:"max_episode_steps"`
	NumEnvs         int    `mapstructure:"num_envs" yaml:"num_envs" json:"num_envs"`
	SyncVenv        bool   `mapstructure:"sync_venv" yaml:"sync_venv" json:"sync_venv"`

	// Demonstrations
	DemoPath    string `mapstructure:"demo_path" yaml:"demo_path" json:"demo_path"`
	NumDemoTraj int    `mapstructure:"num_demo_traj" yaml:"num_demo_traj" json:"num_demo_traj"`

	// Training schedule
	TotalTimesteps int     `mapstructure:"total_timesteps" yaml:"total_timesteps" json:"total_timesteps"`
	BufferSize     int     `mapstructure:"buffer_size" yaml:"buffer_size" json:"buffer_size"`
	LearningStarts int     `mapstructure:"learning_starts" yaml:"learning_starts" json:"learning_starts"`
	TrainingFreq   int     `mapstructure:"training_freq" yaml:"training_freq" json:"training_freq"`
	UTD            float64 `mapstructure:"utd" yaml:"utd" json:"utd"`
	BatchSize      int     `mapstructure:"batch_size" yaml:"batch_size" json:"batch_size"`

	// SAC
	Gamma                  float64 `mapstructure:"gamma" yaml:"gamma" json:"gamma"`
	Tau                    float64 `mapstructure:"tau" yaml:"tau" json:"tau"`
	PolicyLR               float64 `mapstructure:"policy_lr" yaml:"policy_lr" json:"policy_lr"`
	QLR                    float64 `mapstructure:"q_lr" yaml:"q_lr" json:"q_lr"`
	PolicyFrequency        int     `mapstructure:"policy_frequency" yaml:"policy_frequency" json:"policy_frequency"`
	TargetNetworkFrequency int     `mapstructure:"target_network_frequency" yaml:"target_network_frequency" json:"target_network_frequency"`
	Alpha                  float64 `mapstructure:"alpha" yaml:"alpha" json:"alpha"`
	Autotune               bool    `mapstructure:"autotune" yaml:"autotune" json:"autotune"`
	HiddenSizes            []int   `mapstructure:"hidden_sizes" yaml:"hidden_sizes" json:"hidden_sizes"`

	// Discriminator
	DiscLR          float64 `mapstructure:"disc_lr" yaml:"disc_lr" json:"disc_lr"`
	DiscFrequency   int     `mapstructure:"disc_frequency" yaml:"disc_frequency" json:"disc_frequency"`
	DiscTh          float64 `mapstructure:"disc_th" yaml:"disc_th" json:"disc_th"`
	DiscHiddenSizes []int   `mapstructure:"disc_hidden_sizes" yaml:"disc_hidden_sizes" json:"disc_hidden_sizes"`

	// Networks
	Init   string `mapstructure:"init" yaml:"init" json:"init"`
	Solver string `mapstructure:"solver" yaml:"solver" json:"solver"`

	// Evaluation, logging, and checkpoints
	OutputDir       string `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
	EvalFreq        int    `mapstructure:"eval_freq" yaml:"eval_freq" json:"eval_freq"`
	NumEvalEpisodes int    `mapstructure:"num_eval_episodes" yaml:"num_eval_episodes" json:"num_eval_episodes"`
	NumEvalEnvs     int    `mapstructure:"num_eval_envs" yaml:"num_eval_envs" json:"num_eval_envs"`
	LogFreq         int    `mapstructure:"log_freq" yaml:"log_freq" json:"log_freq"`
	SaveFreq        int    `mapstructure:"save_freq" yaml:"save_freq" json:"save_freq"`
	Plot            bool   `mapstructure:"plot" yaml:"plot" json:"plot"`
}

var defaults = map[string]interface{}{
	"exp_name":                 "test",
	"seed":                     1,
	"log_level":                "info",
	"env_id":                   "StagedReach3-v0",
	"max_episode_steps":        100,
	"num_envs":                 16,
	"sync_venv":                false,
	"total_timesteps":          2_000_000,
	"buffer_size":              0,
	"learning_starts":          4000,
	"training_freq":            64,
	"utd":                      0.5,
	"batch_size":               1024,
	"gamma":                    0.8,
	"tau":                      0.005,
	"policy_lr":                3e-4,
	"q_lr":                     3e-4,
	"policy_frequency":         1,
	"target_network_frequency": 1,
	"alpha":                    0.2,
	"autotune":                 true,
	"hidden_sizes":             []int{256, 256, 256},
	"disc_lr":                  3e-4,
	"disc_frequency":           1,
	"disc_th":                  0.95,
	"disc_hidden_sizes":        []int{32},
	"init":                     "glorot_uniform",
	"solver":                   "adam",
	"output_dir":               "output",
	"eval_freq":                100_000,
	"num_eval_episodes":        10,
	"num_eval_envs":            1,
	"log_freq":                 10_000,
	"save_freq":                2_000_000,
	"plot":                     false,
}

// Default returns the normalized default configuration
func Default() Config {
	c, err := decode(newViper())
	if err != nil {
		panic(fmt.Sprintf("default: %v", err))
	}
	c.Normalize()
	return c
}

// Load reads the configuration file at path, in any format viper
// supports, over the defaults. Values may be overridden by environment
// variables such as DRS_SEED. If path is empty only defaults and
// environment variables are used. The returned Config is normalized
// but not validated.
func Load(path string) (Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("load: could not read %v: %w", path,
				err)
		}
	}

	c, err := decode(v)
	if err != nil {
		return Config{}, fmt.Errorf("load: %v", err)
	}
	c.Normalize()
	return c, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key := range defaults {
		// Unmarshal only consults environment variables of known keys
		_ = v.BindEnv(key)
	}
	_ = v.BindEnv("demo_path")
	_ = v.BindEnv("n_stages")
	_ = v.BindEnv("num_demo_traj")
	return v
}

func decode(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("could not decode configuration: %v", err)
	}
	return c, nil
}

// Normalize applies the defaults that depend on other values. The
// replay buffer holds at most total_timesteps transitions and defaults
// to that size, and there are never more evaluation environments than
// evaluation episodes.
func (c *Config) Normalize() {
	if c.BufferSize <= 0 || c.BufferSize > c.TotalTimesteps {
		c.BufferSize = c.TotalTimesteps
	}
	if c.NumEvalEnvs > c.NumEvalEpisodes {
		c.NumEvalEnvs = c.NumEvalEpisodes
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	c.Solver = strings.ToLower(c.Solver)
}

// Validate checks that the Config describes a legal run. It must be
// called before any environment is created.
func (c Config) Validate() error {
	positive := []struct {
		name  string
		value int
	}{
		{"n_stages", c.NStages},
		{"max_episode_steps", c.MaxEpisodeSteps},
		{"num_envs", c.NumEnvs},
		{"total_timesteps", c.TotalTimesteps},
		{"buffer_size", c.BufferSize},
		{"training_freq", c.TrainingFreq},
		{"batch_size", c.BatchSize},
		{"policy_frequency", c.PolicyFrequency},
		{"target_network_frequency", c.TargetNetworkFrequency},
		{"disc_frequency", c.DiscFrequency},
		{"eval_freq", c.EvalFreq},
		{"num_eval_episodes", c.NumEvalEpisodes},
		{"num_eval_envs", c.NumEvalEnvs},
		{"log_freq", c.LogFreq},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("validate: %v must be positive but got %v",
				p.name, p.value)
		}
	}

	rates := []struct {
		name  string
		value float64
	}{
		{"utd", c.UTD},
		{"policy_lr", c.PolicyLR},
		{"q_lr", c.QLR},
		{"disc_lr", c.DiscLR},
		{"tau", c.Tau},
	}
	for _, r := range rates {
		if !(r.value > 0) {
			return fmt.Errorf("validate: %v must be positive but got %v",
				r.name, r.value)
		}
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("validate: gamma must be in [0, 1] but got %v",
			c.Gamma)
	}
	if c.DiscTh < 0 || c.DiscTh > 1 {
		return fmt.Errorf("validate: disc_th must be in [0, 1] but got %v",
			c.DiscTh)
	}
	if !c.Autotune && c.Alpha < 0 {
		return fmt.Errorf("validate: alpha must be non-negative but got %v",
			c.Alpha)
	}
	if len(c.HiddenSizes) == 0 || len(c.DiscHiddenSizes) == 0 {
		return fmt.Errorf("validate: networks need at least one hidden layer")
	}
	if c.SaveFreq < 0 {
		return fmt.Errorf("validate: save_freq must be non-negative but got "+
			"%v", c.SaveFreq)
	}
	if c.NumDemoTraj < 0 {
		return fmt.Errorf("validate: num_demo_traj must be non-negative but "+
			"got %v", c.NumDemoTraj)
	}

	if c.TrainingFreq%c.NumEnvs != 0 {
		return fmt.Errorf("validate: training_freq (%v) must be divisible "+
			"by num_envs (%v)", c.TrainingFreq, c.NumEnvs)
	}
	updates := float64(c.TrainingFreq) * c.UTD
	if updates != math.Trunc(updates) {
		return fmt.Errorf("validate: training_freq * utd (%v) must be an "+
			"integer", updates)
	}
	if c.LearningStarts <= c.NumEnvs*c.MaxEpisodeSteps {
		return fmt.Errorf("validate: learning_starts (%v) must exceed "+
			"num_envs * max_episode_steps (%v) so that every stage buffer "+
			"can be filled first", c.LearningStarts,
			c.NumEnvs*c.MaxEpisodeSteps)
	}
	if c.NumEvalEpisodes%c.NumEvalEnvs != 0 {
		return fmt.Errorf("validate: num_eval_episodes (%v) must be "+
			"divisible by num_eval_envs (%v)", c.NumEvalEpisodes,
			c.NumEvalEnvs)
	}
	return nil
}

// UpdatesPerRollout returns the number of gradient updates performed
// after each rollout of training_freq environment steps
func (c Config) UpdatesPerRollout() int {
	return int(float64(c.TrainingFreq) * c.UTD)
}

// RunDir returns the directory of the run started at now with the
// given ID:
//
//	<output_dir>/<env_id>/DrS-learn-reward/<yymmdd-HHMMSS>_<seed>_<exp_name>_<id>
func (c Config) RunDir(now time.Time, id uuid.UUID) string {
	tag := fmt.Sprintf("%s_%d", now.Format("060102-150405"), c.Seed)
	if c.ExpName != "" {
		tag += "_" + c.ExpName
	}
	tag += "_" + strings.SplitN(id.String(), "-", 2)[0]
	return filepath.Join(c.OutputDir, c.EnvID, AlgoName, tag)
}

// Save writes the configuration to path as YAML
func (c Config) Save(path string) error {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("save: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}
