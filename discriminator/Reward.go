package discriminator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// stageWeight scales the reached stage index so that reaching a
	// further stage always outweighs any discriminator output
	stageWeight = 3.0

	// rewardOffset shifts all rewards below zero
	rewardOffset = 2.0
)

// ComposeReward returns the shaped reward of a transition whose next
// state reached stage, given the selected discriminator output in
// (-1, 1):
//
//	(3*stage + selected) / (3*nStages) - 2
func ComposeReward(stage int, selected float64, nStages int) float64 {
	return (stageWeight*float64(stage)+selected)/
		(stageWeight*float64(nStages)) - rewardOffset
}

// Reward returns the shaped reward for each row of nextObs. For row i,
// the output of the discriminator of stage stageIdx[i], squashed by
// tanh, is blended with the stage index. Untrained stages and the
// terminal stage contribute an output of 0. With a single stage, the
// stage index must agree with the success flag. No gradients are
// computed and the result is deterministic.
func (d *Discriminator) Reward(nextObs *mat.Dense, stageIdx []int,
	success []bool) ([]float64, error) {
	rows, cols := nextObs.Dims()
	if cols != d.features {
		return nil, fmt.Errorf("reward: expected %v features but got %v",
			d.features, cols)
	}
	if len(stageIdx) != rows || len(success) != rows {
		return nil, fmt.Errorf("reward: got %v observations, %v stage "+
			"indices and %v success flags", rows, len(stageIdx), len(success))
	}

	nStages := d.NStages()
	for i, s := range stageIdx {
		if s < 0 || s > nStages {
			return nil, fmt.Errorf("reward: stage index %v of sample %v "+
				"outside [0, %v]", s, i, nStages)
		}
		if nStages == 1 && (s == 1) != success[i] {
			return nil, fmt.Errorf("reward: sample %v has stage index %v "+
				"but success %v", i, s, success[i])
		}
	}

	// Outputs of each trained stage which is selected by some sample
	outputs := make([][]float64, nStages)
	for _, s := range stageIdx {
		if s == nStages || !d.latches[s].Trained() || outputs[s] != nil {
			continue
		}
		logits, err := d.Logits(s, nextObs)
		if err != nil {
			return nil, fmt.Errorf("reward: %v", err)
		}
		outputs[s] = logits
	}

	rewards := make([]float64, rows)
	for i, s := range stageIdx {
		selected := 0.0
		if s < nStages && outputs[s] != nil {
			selected = math.Tanh(outputs[s][i])
		}
		rewards[i] = ComposeReward(s, selected, nStages)
	}
	return rewards, nil
}
