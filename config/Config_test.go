package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func valid() Config {
	c := Default()
	c.NStages = 3
	return c
}

func TestDefault(t *testing.T) {
	c := Default()
	if c.Gamma != 0.8 || c.BatchSize != 1024 || c.TrainingFreq != 64 ||
		!c.Autotune || c.DiscTh != 0.95 {
		t.Errorf("unexpected defaults %+v", c)
	}
	if c.BufferSize != c.TotalTimesteps {
		t.Errorf("buffer size should default to total timesteps but is %v",
			c.BufferSize)
	}
	if c.UpdatesPerRollout() != 32 {
		t.Errorf("want 32 updates per rollout have %v", c.UpdatesPerRollout())
	}
	if err := c.Validate(); err == nil {
		t.Error("n_stages should be required")
	}
	if err := valid().Validate(); err != nil {
		t.Error(err)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	contents := "n_stages: 2\n" +
		"total_timesteps: 5000\n" +
		"buffer_size: 100000\n" +
		"num_eval_episodes: 2\n" +
		"num_eval_envs: 4\n" +
		"hidden_sizes: [64, 64]\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DRS_SEED", "7")

	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.NStages != 2 || c.Seed != 7 {
		t.Errorf("want 2 stages and seed 7, have %v and %v", c.NStages, c.Seed)
	}
	if c.BufferSize != 5000 {
		t.Errorf("buffer size should be capped at 5000 but is %v",
			c.BufferSize)
	}
	if c.NumEvalEnvs != 2 {
		t.Errorf("eval envs should be capped at 2 but is %v", c.NumEvalEnvs)
	}
	if len(c.HiddenSizes) != 2 || c.HiddenSizes[0] != 64 {
		t.Errorf("want hidden sizes [64 64] have %v", c.HiddenSizes)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"training freq", func(c *Config) { c.TrainingFreq = 60 }},
		{"utd", func(c *Config) { c.UTD = 0.3 }},
		{"learning starts", func(c *Config) { c.LearningStarts = 1600 }},
		{"eval episodes", func(c *Config) {
			c.NumEvalEpisodes = 3
			c.NumEvalEnvs = 2
		}},
		{"gamma", func(c *Config) { c.Gamma = 1.5 }},
		{"batch size", func(c *Config) { c.BatchSize = 0 }},
		{"policy lr", func(c *Config) { c.PolicyLR = 0 }},
		{"disc threshold", func(c *Config) { c.DiscTh = -0.1 }},
		{"save freq", func(c *Config) { c.SaveFreq = -1 }},
	}

	for _, test := range tests {
		c := valid()
		test.modify(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("%v: expected error", test.name)
		}
	}
}

func TestValidateNoCheckpoints(t *testing.T) {
	c := valid()
	c.SaveFreq = 0
	if err := c.Validate(); err != nil {
		t.Errorf("save_freq 0 should disable checkpoints: %v", err)
	}
}

func TestSaveAndRunDir(t *testing.T) {
	c := valid()
	c.OutputDir = t.TempDir()
	now := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	id := uuid.MustParse("1b4e28ba-2fa1-11d2-883f-0016d3cca427")

	dir := c.RunDir(now, id)
	want := filepath.Join(c.OutputDir, "StagedReach3-v0", AlgoName,
		"240305-140709_1_test_1b4e28ba")
	if dir != want {
		t.Errorf("want run dir %v have %v", want, dir)
	}

	path := filepath.Join(dir, "config.yaml")
	if err := c.Save(path); err != nil {
		t.Fatal(err)
	}
	out, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "n_stages: 3") {
		t.Errorf("saved config is missing n_stages:\n%s", out)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.NStages != 3 || loaded.OutputDir != c.OutputDir {
		t.Errorf("reloaded config differs: %+v", loaded)
	}
}
