package sac

import "math"

// TargetValues returns the soft Bellman targets
//
//	r + (1 - stop) * gamma * (min(q1, q2) - alpha * nextLogProb)
//
// where q1 and q2 are the target critic values of the next state and
// an action sampled from the current policy, whose log density is
// nextLogProb. Where stop is 1 the bootstrap term is exactly zero.
func TargetValues(rewards, stop, q1, q2, nextLogProb []float64, gamma,
	alpha float64) []float64 {
	n := len(rewards)
	if len(stop) != n || len(q1) != n || len(q2) != n ||
		len(nextLogProb) != n {
		panic("targetValues: all inputs must have the same length")
	}

	targets := make([]float64, n)
	for i := range targets {
		targets[i] = rewards[i]
		if stop[i] != 0 {
			continue
		}
		next := math.Min(q1[i], q2[i]) - alpha*nextLogProb[i]
		targets[i] += gamma * next
	}
	return targets
}
