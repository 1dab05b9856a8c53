// Package experiment implements the DrS training loop, which co-trains
// stage discriminators and a SAC agent on the rewards they produce
package experiment

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/samuelfneumann/drs/agent/sac"
	"github.com/samuelfneumann/drs/buffer/expreplay"
	"github.com/samuelfneumann/drs/buffer/stage"
	"github.com/samuelfneumann/drs/config"
	"github.com/samuelfneumann/drs/demo"
	"github.com/samuelfneumann/drs/discriminator"
	"github.com/samuelfneumann/drs/environment"
	"github.com/samuelfneumann/drs/episode"
	"github.com/samuelfneumann/drs/experiment/checkpointer"
	"github.com/samuelfneumann/drs/experiment/tracker"
	"github.com/samuelfneumann/drs/initwfn"
	"github.com/samuelfneumann/drs/network"
	"github.com/samuelfneumann/drs/solver"
	ts "github.com/samuelfneumann/drs/timestep"
	"github.com/samuelfneumann/drs/utils/progressbar"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Seed offset of the evaluation environments
const evalSeedOffset = 1000

// DrS runs the online co-training of stage discriminators and a SAC
// agent
type DrS struct {
	config config.Config

	envs     *environment.VecEnv
	evalEnvs *environment.VecEnv

	agent    *sac.SAC
	disc     *discriminator.Discriminator
	replay   expreplay.ExperienceReplayer
	stages   []*stage.Buffer
	episodes *episode.Tracker

	metrics      tracker.Tracker
	checkpointer checkpointer.Checkpointer
	logger       zerolog.Logger
	progress     *progressbar.ManualProgressBar

	rng   *rand.Rand
	obs   *mat.Dense
	state TrainingState
}

// New returns a new DrS run. The configuration is validated before any
// environment is touched. If demos is not nil, its next observations
// seed the success buffer. The discriminator is checkpointed every
// save_freq steps into checkpointDir, unless checkpointDir is empty or
// save_freq is 0.
func New(c config.Config, envs, evalEnvs *environment.VecEnv,
	demos demo.Dataset, metrics tracker.Tracker, checkpointDir string,
	logger zerolog.Logger) (*DrS, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	if envs.NumEnvs() != c.NumEnvs || evalEnvs.NumEnvs() != c.NumEvalEnvs {
		return nil, fmt.Errorf("new: expected %v training and %v evaluation "+
			"environments but got %v and %v", c.NumEnvs, c.NumEvalEnvs,
			envs.NumEnvs(), evalEnvs.NumEnvs())
	}

	features := envs.ObservationSpec().Dims()
	bounds := envs.ActionSpec().Bounds()
	low := make([]float64, len(bounds))
	high := make([]float64, len(bounds))
	for i, b := range bounds {
		low[i], high[i] = b.Min, b.Max
	}

	weights, err := initwfn.Parse(c.Init)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	policySolver, err := solver.New(c.Solver, c.PolicyLR)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	criticSolver, err := solver.New(c.Solver, c.QLR)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	discSolver, err := solver.New(c.Solver, c.DiscLR)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	agent, err := sac.New(features, low, high, sac.Config{
		HiddenSizes:            c.HiddenSizes,
		InitWFn:                weights.InitWFn(),
		PolicySolver:           policySolver,
		CriticSolver:           criticSolver,
		BatchSize:              c.BatchSize,
		Gamma:                  c.Gamma,
		Tau:                    c.Tau,
		Alpha:                  c.Alpha,
		Autotune:               c.Autotune,
		PolicyFrequency:        c.PolicyFrequency,
		TargetNetworkFrequency: c.TargetNetworkFrequency,
	}, c.Seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create agent: %v", err)
	}

	disc, err := discriminator.New(features, c.NStages, discriminator.Config{
		HiddenSizes: c.DiscHiddenSizes,
		Activation:  network.Sigmoid(),
		InitWFn:     weights.InitWFn(),
		Solver:      discSolver,
		BatchSize:   c.BatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("new: could not create discriminator: %v", err)
	}

	replay, err := expreplay.Config{
		SampleSize:        c.BatchSize,
		MinReplayCapacity: 1,
		MaxReplayCapacity: c.BufferSize,
	}.Create(features, len(low), c.Seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create replay buffer: %v", err)
	}

	stages := make([]*stage.Buffer, c.NStages+1)
	for i := range stages {
		if stages[i], err = stage.NewBuffer(c.BufferSize, features); err != nil {
			return nil, fmt.Errorf("new: stage buffer %v: %v", i, err)
		}
	}

	episodes, err := episode.NewTracker(c.NumEnvs, c.MaxEpisodeSteps,
		features, c.NStages)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	d := &DrS{
		config:       c,
		envs:         envs,
		evalEnvs:     evalEnvs,
		agent:        agent,
		disc:         disc,
		replay:       replay,
		stages:       stages,
		episodes:     episodes,
		metrics:      metrics,
		logger:       logger.With().Str("component", "drs").Logger(),
		rng:          rand.New(rand.NewSource(c.Seed)),
		state:        newTrainingState(),
	}

	if checkpointDir != "" && c.SaveFreq > 0 {
		d.checkpointer, err = checkpointer.NewNStep(c.SaveFreq,
			c.TrainingFreq, disc, checkpointDir)
		if err != nil {
			return nil, fmt.Errorf("new: %v", err)
		}
	}

	if demos != nil {
		if err := d.seedDemos(demos); err != nil {
			return nil, fmt.Errorf("new: %v", err)
		}
	}
	return d, nil
}

// seedDemos adds the demonstrated next observations to the success
// buffer
func (d *DrS) seedDemos(demos demo.Dataset) error {
	if d.config.NumDemoTraj > 0 {
		demos = demos.Truncate(d.config.NumDemoTraj)
	}
	next, ok := demos[demo.NextObservations]
	if !ok {
		return fmt.Errorf("seedDemos: demonstrations have no %v",
			demo.NextObservations)
	}
	if err := d.stages[d.config.NStages].Add(next); err != nil {
		return fmt.Errorf("seedDemos: %w", err)
	}
	d.logger.Info().
		Int("demo_size", demos.Rows()).
		Msg("seeded success buffer with demonstrations")
	return nil
}

// Discriminator returns the stage discriminators
func (d *DrS) Discriminator() *discriminator.Discriminator {
	return d.disc
}

// Agent returns the SAC agent
func (d *DrS) Agent() *sac.SAC {
	return d.agent
}

// StageBuffers returns the stage buffers, indexed by stage
func (d *DrS) StageBuffers() []*stage.Buffer {
	return d.stages
}

// State returns the current training state
func (d *DrS) State() TrainingState {
	return d.state
}

// start resets the environments. The evaluation environments are
// seeded here only.
func (d *DrS) start() error {
	obs, err := d.envs.Reset(d.config.Seed)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if _, err := d.evalEnvs.Reset(d.config.Seed + evalSeedOffset); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	d.obs = obs
	d.state.StartTime = time.Now()
	return nil
}

// Run iterates until total_timesteps environment steps have been taken
// or ctx is done. The discriminator is checkpointed at the end of a
// completed run.
func (d *DrS) Run(ctx context.Context) error {
	for d.state.GlobalStep < d.config.TotalTimesteps {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := d.Iterate(); err != nil {
			return fmt.Errorf("run: %w", err)
		}
		if d.progress != nil {
			d.progress.Set(d.state.GlobalStep)
			d.progress.Display()
		}
	}
	return nil
}

// ShowProgress makes Run print a progress bar of the environment steps
// taken to out
func (d *DrS) ShowProgress(out io.Writer) {
	d.progress = progressbar.NewManualProgressBar(out, 40,
		d.config.TotalTimesteps)
}

// Iterate performs one iteration of the training loop: a rollout of
// training_freq environment steps, then, once learning has started,
// training_freq*utd updates followed by logging, evaluation, and
// checkpoints at their boundaries
func (d *DrS) Iterate() error {
	if d.obs == nil {
		if err := d.start(); err != nil {
			return fmt.Errorf("iterate: %v", err)
		}
	}

	for i := 0; i < d.config.TrainingFreq/d.config.NumEnvs; i++ {
		if err := d.rollout(); err != nil {
			return fmt.Errorf("iterate: %w", err)
		}
	}

	if d.state.GlobalStep < d.config.LearningStarts {
		return nil
	}
	d.state.LearningStarted = true

	for i := 0; i < d.config.UpdatesPerRollout(); i++ {
		if err := d.update(); err != nil {
			return fmt.Errorf("iterate: %w", err)
		}
	}

	step, freq := d.state.GlobalStep, d.config.TrainingFreq
	if crossed(step, freq, d.config.LogFreq) {
		d.log()
	}
	if crossed(step, freq, d.config.EvalFreq) {
		if err := d.evaluate(); err != nil {
			return fmt.Errorf("iterate: %w", err)
		}
	}
	if err := d.checkpoint(); err != nil {
		return fmt.Errorf("iterate: %w", err)
	}
	return nil
}

// rollout takes one step in every training environment, storing the
// transitions and routing finished episodes to the stage buffers
func (d *DrS) rollout() error {
	d.state.GlobalStep += d.config.NumEnvs

	var actions *mat.Dense
	if !d.state.LearningStarted {
		actions = d.agent.RandomActions(d.config.NumEnvs)
	} else {
		var err error
		if actions, err = d.agent.SelectActions(d.obs); err != nil {
			return fmt.Errorf("rollout: %v", err)
		}
	}

	step, err := d.envs.Step(actions)
	if err != nil {
		return fmt.Errorf("rollout: %w", err)
	}

	// The observations of finished episodes already belong to the next
	// episode
	realNext := mat.DenseCopyOf(step.Observations)
	for i, final := range step.Final {
		if final != nil {
			realNext.SetRow(i, final.FinalObservation.RawVector().Data)
		}
	}

	for i := 0; i < d.config.NumEnvs; i++ {
		t := ts.Transition{
			State:         mat.Row(nil, i, d.obs),
			Action:        mat.Row(nil, i, actions),
			Reward:        step.Rewards[i],
			NextState:     mat.Row(nil, i, realNext),
			StopBootstrap: step.Terminated[i],
		}
		if err := d.replay.Add(t); err != nil {
			return fmt.Errorf("rollout: %w", err)
		}
	}

	if err := d.episodes.Record(realNext); err != nil {
		return fmt.Errorf("rollout: %v", err)
	}
	for i, final := range step.Final {
		if final == nil {
			continue
		}
		if err := d.finishEpisode(i, final); err != nil {
			return fmt.Errorf("rollout: %w", err)
		}
	}

	d.obs = step.Observations
	return nil
}

// finishEpisode routes the episode which ended in slot to the buffer
// of the stage it reached
func (d *DrS) finishEpisode(slot int, final *environment.EpisodeInfo) error {
	d.state.Results.AddEpisode(final)
	d.logger.Debug().
		Int("global_step", d.state.GlobalStep).
		Float64("ep_return", final.Return).
		Int("ep_len", final.Length).
		Bool("success", final.Success).
		Msg("episode finished")

	traj, err := d.episodes.Finish(slot, final.Success)
	if err != nil {
		return fmt.Errorf("finishEpisode: %v", err)
	}
	if err := d.stages[traj.Stage].Add(traj.Observations); err != nil {
		return fmt.Errorf("finishEpisode: stage %v: %w", traj.Stage, err)
	}
	d.state.Results.AddStages(episode.StageSuccess(traj.Stage,
		d.config.NStages))
	return nil
}

// update performs one discriminator update, if due, and one SAC update
// on rewards relabelled by the discriminators
func (d *DrS) update() error {
	d.state.GlobalUpdate++
	batch, err := d.replay.Sample()
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}

	if d.state.GlobalUpdate%d.config.DiscFrequency == 0 {
		stats, err := d.disc.Update(d.stages, d.rng)
		if err != nil {
			return fmt.Errorf("update: %w", err)
		}
		for _, s := range stats {
			d.state.DiscStats[s.Stage] = s
		}
	}

	// Stored rewards are the number of stages reached and stored stop
	// flags mark success
	stageIdx := make([]int, len(batch.Rewards))
	success := make([]bool, len(batch.Rewards))
	for i := range stageIdx {
		stageIdx[i] = int(math.Round(batch.Rewards[i]))
		success[i] = batch.StopBootstrap[i] != 0
	}
	rewards, err := d.disc.Reward(batch.NextStates, stageIdx, success)
	if err != nil {
		return fmt.Errorf("update: %v", err)
	}

	losses, err := d.agent.Update(batch, rewards, d.state.GlobalUpdate)
	if err != nil {
		return fmt.Errorf("update: %v", err)
	}
	d.state.Losses = losses
	return nil
}

// log flushes the accumulated training results and the latest learner
// statistics to the metrics sink, and disables the discriminators of
// stages whose success rate exceeds the threshold
func (d *DrS) log() {
	step := d.state.GlobalStep
	results := d.state.Results
	if results.Episodes() > 0 {
		for _, k := range results.Keys() {
			mean, _ := results.Mean(k)
			d.metrics.Track("train/"+k, mean, step)
		}

		n := d.config.NStages
		for j := 1; j < n; j++ {
			if mean, ok := results.Mean(StageSuccessKey(j)); ok &&
				mean > d.config.DiscTh {
				d.disable(j-1, mean)
			}
		}
		if mean, ok := results.Mean(SuccessKey); ok && mean > d.config.DiscTh {
			d.disable(n-1, mean)
		}
		d.state.Results = NewResults()
	}

	l := d.state.Losses
	d.metrics.Track("losses/qf1_values", l.QF1Values, step)
	d.metrics.Track("losses/qf2_values", l.QF2Values, step)
	d.metrics.Track("losses/qf1_loss", l.QF1Loss, step)
	d.metrics.Track("losses/qf2_loss", l.QF2Loss, step)
	d.metrics.Track("losses/qf_loss", l.QFLoss, step)
	d.metrics.Track("losses/actor_loss", l.ActorLoss, step)
	d.metrics.Track("losses/alpha", l.Alpha, step)
	if d.config.Autotune {
		d.metrics.Track("losses/alpha_loss", l.AlphaLoss, step)
	}
	for i := 0; i < d.config.NStages; i++ {
		if s, ok := d.state.DiscStats[i]; ok {
			d.metrics.Track(fmt.Sprintf("losses/disc_loss_%d", i), s.Loss, step)
			d.metrics.Track(fmt.Sprintf("losses/disc_acc_%d", i), s.Accuracy,
				step)
		}
	}

	elapsed := time.Since(d.state.StartTime).Seconds()
	if elapsed > 0 {
		d.metrics.Track("charts/SPS", math.Floor(float64(step)/elapsed), step)
	}
}

// disable stops training the discriminator of stage
func (d *DrS) disable(stage int, successRate float64) {
	if d.disc.Disable(stage) {
		d.logger.Info().
			Int("global_step", d.state.GlobalStep).
			Int("stage", stage).
			Float64("success_rate", successRate).
			Msg("stopped training discriminator")
	}
}

// checkpoint saves the discriminator at save_freq boundaries and once
// the run is complete
func (d *DrS) checkpoint() error {
	if d.checkpointer == nil {
		return nil
	}

	step := d.state.GlobalStep
	final := step >= d.config.TotalTimesteps
	if !final && !d.checkpointer.Due(step) {
		return nil
	}
	if err := d.checkpointer.Save(step); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	d.logger.Info().
		Int("global_step", step).
		Bool("final", final).
		Msg("saved discriminator checkpoint")
	return nil
}

// Close releases the agent, the discriminator, and the environments
func (d *DrS) Close() error {
	if err := d.agent.Close(); err != nil {
		return fmt.Errorf("close: %v", err)
	}
	if err := d.disc.Close(); err != nil {
		return fmt.Errorf("close: %v", err)
	}
	if err := d.envs.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err := d.evalEnvs.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}
