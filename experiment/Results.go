package experiment

import (
	"fmt"
	"sort"

	"github.com/samuelfneumann/drs/environment"
	"gonum.org/v1/gonum/stat"
)

// Names of the per-episode results
const (
	ReturnKey  = "return"
	LengthKey  = "len"
	SuccessKey = "success"
)

// StageSuccessKey returns the name of the result recording whether
// episodes completed stage j
func StageSuccessKey(j int) string {
	return fmt.Sprintf("stage_%d_success", j)
}

// Results accumulates per-episode values by name until flushed
type Results map[string][]float64

// NewResults returns an empty Results
func NewResults() Results {
	return make(Results)
}

// AddEpisode records the return, length and success of an episode
func (r Results) AddEpisode(info *environment.EpisodeInfo) {
	r[ReturnKey] = append(r[ReturnKey], info.Return)
	r[LengthKey] = append(r[LengthKey], float64(info.Length))
	r[SuccessKey] = append(r[SuccessKey], boolToFloat(info.Success))
}

// AddStages records, for each stage boundary j in 1..len(success),
// whether an episode completed stage j
func (r Results) AddStages(success []bool) {
	for i, s := range success {
		key := StageSuccessKey(i + 1)
		r[key] = append(r[key], boolToFloat(s))
	}
}

// Episodes returns the number of episodes recorded
func (r Results) Episodes() int {
	return len(r[ReturnKey])
}

// Mean returns the mean of the values recorded under key, and whether
// any were recorded
func (r Results) Mean(key string) (float64, bool) {
	values := r[key]
	if len(values) == 0 {
		return 0, false
	}
	return stat.Mean(values, nil), true
}

// Keys returns the names of all recorded results in sorted order
func (r Results) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func boolToFloat(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
}
