package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samuelfneumann/drs/config"
	"github.com/samuelfneumann/drs/demo"
	"github.com/samuelfneumann/drs/environment"
	"github.com/samuelfneumann/drs/environment/gym"
	"github.com/samuelfneumann/drs/environment/stagedreach"
	"github.com/samuelfneumann/drs/experiment"
	"github.com/samuelfneumann/drs/experiment/tracker"
)

// Number of expert episodes recorded when no demonstrations are given
const defaultDemoEpisodes = 20

func main() {
	configPath := flag.String("config", "", "path to a YAML or JSON "+
		"configuration file")
	makeDemos := flag.Int("make-demos", 0, "record this many expert "+
		"episodes of a StagedReach task into demo_path and exit")
	progress := flag.Bool("progress", false, "print a progress bar")
	flag.Parse()

	c, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := newLogger(c.LogLevel)

	if *makeDemos > 0 {
		if err := recordDemos(c, *makeDemos, logger); err != nil {
			logger.Fatal().Err(err).Msg("could not record demonstrations")
		}
		return
	}

	if err := run(c, *progress, logger); err != nil {
		logger.Fatal().Err(err).Msg("run failed")
	}
}

// newLogger returns a console logger on a terminal and a JSON logger
// otherwise
func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if info, err := os.Stderr.Stat(); err == nil &&
		info.Mode()&os.ModeCharDevice != 0 {
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(lvl).With().Timestamp().Logger()
}

// newEnv returns a single environment of the configured task
func newEnv(c config.Config, seed uint64) (environment.Environment, error) {
	if rc, ok := stagedreach.Parse(c.EnvID); ok {
		env, err := stagedreach.New(rc, seed)
		if err != nil {
			return nil, err
		}
		return env, nil
	}

	env, err := gym.New(c.EnvID, c.MaxEpisodeSteps)
	if err != nil {
		return nil, err
	}
	return env, nil
}

// newVecEnv returns a VecEnv of n environments of the configured task
func newVecEnv(c config.Config, n int, seed uint64) (*environment.VecEnv,
	error) {
	envs := make([]environment.Environment, n)
	for i := range envs {
		var err error
		if envs[i], err = newEnv(c, seed+uint64(i)); err != nil {
			return nil, fmt.Errorf("newVecEnv: %w", err)
		}
	}
	return environment.NewVecEnv(envs, c.MaxEpisodeSteps, !c.SyncVenv)
}

// inferStages fills in the number of stages of a built-in task
func inferStages(c *config.Config) error {
	rc, ok := stagedreach.Parse(c.EnvID)
	if !ok {
		return nil
	}
	n := len(rc.Waypoints)
	if c.NStages == 0 {
		c.NStages = n
	} else if c.NStages != n {
		return fmt.Errorf("%v has %v stages but n_stages is %v", c.EnvID, n,
			c.NStages)
	}
	return nil
}

// expertDemos records demonstrations of the built-in expert
func expertDemos(c config.Config, episodes int) (demo.Dataset,
	*stagedreach.StagedReach, error) {
	rc, ok := stagedreach.Parse(c.EnvID)
	if !ok {
		return nil, nil, fmt.Errorf("no expert for %v, set demo_path",
			c.EnvID)
	}
	env, err := stagedreach.New(rc, c.Seed+2000)
	if err != nil {
		return nil, nil, err
	}
	demos, err := demo.Record(env, env.Expert, episodes, c.MaxEpisodeSteps)
	if err != nil {
		return nil, nil, err
	}
	return demos, env, nil
}

// recordDemos saves expert demonstrations to demo_path along with an
// image of the final state of the last episode
func recordDemos(c config.Config, episodes int, logger zerolog.Logger) error {
	if c.DemoPath == "" {
		return fmt.Errorf("recordDemos: demo_path is not set")
	}
	demos, env, err := expertDemos(c, episodes)
	if err != nil {
		return fmt.Errorf("recordDemos: %w", err)
	}
	if err := demos.Save(c.DemoPath); err != nil {
		return fmt.Errorf("recordDemos: %w", err)
	}

	image := strings.TrimSuffix(c.DemoPath, filepath.Ext(c.DemoPath)) + ".png"
	if err := env.Render(image); err != nil {
		return fmt.Errorf("recordDemos: %w", err)
	}
	logger.Info().
		Str("path", c.DemoPath).
		Int("observations", demos.Rows()).
		Msg("saved demonstrations")
	return nil
}

func run(c config.Config, progress bool, logger zerolog.Logger) error {
	if err := inferStages(&c); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	dir := c.RunDir(time.Now(), uuid.New())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if err := c.Save(filepath.Join(dir, "config.yaml")); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	logger = logger.With().Str("run", filepath.Base(dir)).Logger()
	logger.Info().Str("dir", dir).Str("env_id", c.EnvID).
		Int("n_stages", c.NStages).Msg("starting run")

	envs, err := newVecEnv(c, c.NumEnvs, c.Seed)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	evalEnvs, err := newVecEnv(c, c.NumEvalEnvs, c.Seed+1000)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	var demos demo.Dataset
	if c.DemoPath != "" {
		demos, err = demo.Load(c.DemoPath, demo.NextObservations)
	} else {
		demos, _, err = expertDemos(c, defaultDemoEpisodes)
	}
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	trackers := []tracker.Tracker{
		tracker.NewLogger(logger, zerolog.InfoLevel),
		tracker.NewGob(filepath.Join(dir, "metrics")),
	}
	if c.Plot {
		trackers = append(trackers, tracker.NewPlot(filepath.Join(dir,
			"plots")))
	}
	metrics := tracker.Multi(trackers...)

	d, err := experiment.New(c, envs, evalEnvs, demos, metrics,
		filepath.Join(dir, "checkpoints"), logger)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	defer d.Close()
	if progress {
		d.ShowProgress(os.Stdout)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt,
		syscall.SIGTERM)
	defer stop()

	runErr := d.Run(ctx)
	if err := metrics.Save(); err != nil {
		return fmt.Errorf("run: could not save metrics: %w", err)
	}
	if runErr != nil {
		return fmt.Errorf("run: %w", runErr)
	}
	logger.Info().Int("global_step", d.State().GlobalStep).Msg("run complete")
	return nil
}
