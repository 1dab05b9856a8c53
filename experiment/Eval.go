package experiment

import (
	"fmt"

	"github.com/samuelfneumann/drs/agent"
	"github.com/samuelfneumann/drs/environment"
)

// Evaluate restarts envs, without reseeding them, and runs the
// evaluation actions of policy until at least episodes episodes have
// finished. The results of all finished episodes are returned.
func Evaluate(envs *environment.VecEnv, policy agent.Policy,
	episodes int) (Results, error) {
	obs, err := envs.Restart()
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	results := NewResults()
	for results.Episodes() < episodes {
		actions, err := policy.EvalActions(obs)
		if err != nil {
			return nil, fmt.Errorf("evaluate: %v", err)
		}
		step, err := envs.Step(actions)
		if err != nil {
			return nil, fmt.Errorf("evaluate: %w", err)
		}
		for _, final := range step.Final {
			if final != nil {
				results.AddEpisode(final)
			}
		}
		obs = step.Observations
	}
	return results, nil
}

// evaluate evaluates the agent for num_eval_episodes episodes and
// tracks the mean results
func (d *DrS) evaluate() error {
	d.logger.Info().
		Int("global_step", d.state.GlobalStep).
		Msg("evaluating")
	results, err := Evaluate(d.evalEnvs, d.agent, d.config.NumEvalEpisodes)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	step := d.state.GlobalStep
	for _, k := range results.Keys() {
		mean, _ := results.Mean(k)
		d.metrics.Track("eval/"+k, mean, step)
	}

	ret, _ := results.Mean(ReturnKey)
	success, _ := results.Mean(SuccessKey)
	d.logger.Info().
		Int("global_step", step).
		Int("episodes", results.Episodes()).
		Float64("return", ret).
		Float64("success", success).
		Msg("evaluation")
	return nil
}
