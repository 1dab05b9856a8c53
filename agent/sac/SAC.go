// Package sac implements the Soft Actor-Critic learner trained on
// rewards produced by the stage discriminators.
package sac

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/drs/agent"
	"github.com/samuelfneumann/drs/buffer/expreplay"
	"github.com/samuelfneumann/drs/network"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

var _ agent.Agent = (*SAC)(nil)

// Stats holds the scalars of the latest update. Actor and temperature
// values are those of the latest update that trained the actor.
type Stats struct {
	QF1Values float64
	QF2Values float64
	QF1Loss   float64
	QF2Loss   float64
	QFLoss    float64
	ActorLoss float64
	Alpha     float64
	AlphaLoss float64

	ActorUpdated bool
}

// SAC implements the Soft Actor-Critic algorithm with twin critics and
// an optionally learned entropy temperature, over a tanh-squashed
// Gaussian policy rescaled to the action bounds
type SAC struct {
	features int
	actions  int
	scale    []float64
	bias     []float64
	low      []float64
	high     []float64

	// Actor training graph, holding clones of both critics
	actor        network.NeuralNet
	actorVM      G.VM
	actorSolver  G.Solver
	actorNoise   *G.Node
	actorAlpha   *G.Node
	actorLossVal G.Value
	actorCritics [2]network.NeuralNet

	// Inference clones of the actor, one per batch size
	policy *network.Pool

	critics [2]*critic

	// Entropy temperature
	alpha         float64
	autotune      bool
	targetEntropy float64
	logAlpha      *G.Node
	entropyGap    *G.Node
	alphaVM       G.VM
	alphaSolver   G.Solver
	alphaLossVal  G.Value

	noise   distuv.Normal
	uniform distuv.Uniform

	config Config
	last   Stats
}

// New returns a new SAC agent acting on observations of the given
// number of features, with actions bounded per dimension by low and
// high
func New(features int, low, high []float64, c Config,
	seed uint64) (*SAC, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	if len(low) == 0 || len(low) != len(high) {
		return nil, fmt.Errorf("new: invalid action bounds %v and %v", low,
			high)
	}
	actions := len(low)

	scale := make([]float64, actions)
	bias := make([]float64, actions)
	for i := range low {
		if !(high[i] > low[i]) || math.IsInf(high[i]-low[i], 0) {
			return nil, fmt.Errorf("new: action dimension %v has invalid "+
				"bounds [%v, %v]", i, low[i], high[i])
		}
		scale[i] = (high[i] - low[i]) / 2
		bias[i] = (high[i] + low[i]) / 2
	}

	src := rand.NewSource(seed)
	s := &SAC{
		features: features,
		actions:  actions,
		scale:    scale,
		bias:     bias,
		low:      append([]float64{}, low...),
		high:     append([]float64{}, high...),
		alpha:    c.Alpha,
		autotune: c.Autotune,
		noise:    distuv.Normal{Mu: 0, Sigma: 1, Src: src},
		uniform:  distuv.Uniform{Min: 0, Max: 1, Src: src},
		config:   c,
	}

	for i := range s.critics {
		var err error
		s.critics[i], err = newCritic(fmt.Sprintf("qf%d", i+1), features,
			actions, c, c.CriticSolver.Fresh())
		if err != nil {
			return nil, fmt.Errorf("new: critic %v: %v", i+1, err)
		}
	}

	if err := s.buildActor(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	s.policy = network.NewPool(s.actor)

	if s.autotune {
		s.alpha = 1.0
		s.targetEntropy = -float64(actions)
		if err := s.buildAlpha(); err != nil {
			return nil, fmt.Errorf("new: %v", err)
		}
	}
	s.last.Alpha = s.alpha

	return s, nil
}

// buildActor constructs the actor training graph. The loss is
//
//	mean(alpha * log pi(a|s) - min(Q1(s, a), Q2(s, a)))
//
// with a = tanh(mean + std*eps) * scale + bias, differentiated with
// respect to the actor weights only.
func (s *SAC) buildActor() error {
	c := s.config
	g := G.NewGraph()
	n := len(c.HiddenSizes)
	biases := make([]bool, n)
	for i := range biases {
		biases[i] = true
	}

	actor, err := network.NewTreeMLP("actor", s.features, c.BatchSize,
		s.actions, g, c.HiddenSizes, biases, network.Repeat(network.ReLU, n),
		[][]int{{}, {}}, [][]bool{{}, {}}, [][]*network.Activation{{}, {}},
		c.InitWFn)
	if err != nil {
		return fmt.Errorf("buildActor: %v", err)
	}

	noise := G.NewMatrix(g, tensor.Float64, G.WithShape(c.BatchSize,
		s.actions), G.WithName("actorNoise"), G.WithInit(G.Zeroes()))
	scale := G.NewMatrix(g, tensor.Float64, G.WithShape(1, s.actions),
		G.WithName("actionScale"), G.WithInit(G.Zeroes()))
	bias := G.NewMatrix(g, tensor.Float64, G.WithShape(1, s.actions),
		G.WithName("actionBias"), G.WithInit(G.Zeroes()))
	for node, value := range map[*G.Node][]float64{scale: s.scale,
		bias: s.bias} {
		t := tensor.New(tensor.WithShape(1, s.actions),
			tensor.WithBacking(append([]float64{}, value...)))
		if err := G.Let(node, t); err != nil {
			return fmt.Errorf("buildActor: %v", err)
		}
	}

	preds := actor.Prediction()
	action, logProb := squashGraph(preds[0], preds[1], noise, scale, bias)

	var qs [2]*G.Node
	for i, cr := range s.critics {
		clone, err := cr.net.CloneWithInputTo(1,
			[]*G.Node{actor.Input(), action}, g)
		if err != nil {
			return fmt.Errorf("buildActor: could not clone critic %v: %v",
				i+1, err)
		}
		s.actorCritics[i] = clone
		qs[i] = G.Must(G.Reshape(clone.Prediction()[0],
			tensor.Shape{c.BatchSize}))
	}

	alpha := G.NewScalar(g, tensor.Float64, G.WithName("actorAlpha"),
		G.WithValue(s.alpha))
	loss := G.Must(G.Mean(G.Must(G.Sub(G.Must(G.Mul(alpha, logProb)),
		minimum(qs[0], qs[1])))))
	G.Read(loss, &s.actorLossVal)

	if _, err := G.Grad(loss, actor.Learnables()...); err != nil {
		return fmt.Errorf("buildActor: could not compute gradient: %v", err)
	}

	s.actor = actor
	s.actorNoise = noise
	s.actorAlpha = alpha
	s.actorSolver = c.PolicySolver.Fresh()
	s.actorVM = G.NewTapeMachine(g, G.BindDualValues(actor.Learnables()...))
	return nil
}

// buildAlpha constructs the entropy temperature graph with loss
//
//	mean(-log(alpha) * (log pi(a|s) + target entropy))
func (s *SAC) buildAlpha() error {
	g := G.NewGraph()
	s.logAlpha = G.NewScalar(g, tensor.Float64, G.WithName("logAlpha"),
		G.WithValue(0.0))
	s.entropyGap = G.NewVector(g, tensor.Float64,
		G.WithShape(s.config.BatchSize), G.WithName("entropyGap"),
		G.WithInit(G.Zeroes()))

	loss := G.Must(G.Mean(G.Must(G.Neg(G.Must(G.Mul(s.logAlpha,
		s.entropyGap))))))
	G.Read(loss, &s.alphaLossVal)

	if _, err := G.Grad(loss, s.logAlpha); err != nil {
		return fmt.Errorf("buildAlpha: could not compute gradient: %v", err)
	}
	s.alphaSolver = s.config.CriticSolver.Fresh()
	s.alphaVM = G.NewTapeMachine(g, G.BindDualValues(s.logAlpha))
	return nil
}

// Alpha returns the current entropy temperature
func (s *SAC) Alpha() float64 {
	return s.alpha
}

// ActionDims returns the number of action dimensions
func (s *SAC) ActionDims() int {
	return s.actions
}

// sample draws an action for each row of obs from the current policy,
// returning the actions and their log densities. If deterministic, the
// squashed mean action is returned with zero log densities.
func (s *SAC) sample(obs *mat.Dense, deterministic bool) (*mat.Dense,
	[]float64, error) {
	rows, cols := obs.Dims()
	if cols != s.features {
		return nil, nil, fmt.Errorf("sample: expected %v features but got %v",
			s.features, cols)
	}

	out, err := s.policy.Predict(mat.DenseCopyOf(obs).RawMatrix().Data, rows)
	if err != nil {
		return nil, nil, fmt.Errorf("sample: %v", err)
	}
	mean, raw := out[0], out[1]

	actions := mat.NewDense(rows, s.actions, nil)
	logProb := make([]float64, rows)
	for i := 0; i < rows; i++ {
		for j := 0; j < s.actions; j++ {
			k := i*s.actions + j
			if deterministic {
				actions.Set(i, j, math.Tanh(mean[k])*s.scale[j]+s.bias[j])
				continue
			}
			a, lp := squash(mean[k], raw[k], s.noise.Rand(), s.scale[j],
				s.bias[j])
			actions.Set(i, j, a)
			logProb[i] += lp
		}
	}
	return actions, logProb, nil
}

// SelectActions samples an action from the policy for each row of obs
func (s *SAC) SelectActions(obs *mat.Dense) (*mat.Dense, error) {
	actions, _, err := s.sample(obs, false)
	return actions, err
}

// EvalActions returns the deterministic action tanh(mean)*scale + bias
// for each row of obs
func (s *SAC) EvalActions(obs *mat.Dense) (*mat.Dense, error) {
	actions, _, err := s.sample(obs, true)
	return actions, err
}

// RandomActions returns n actions drawn uniformly from the action
// bounds
func (s *SAC) RandomActions(n int) *mat.Dense {
	actions := mat.NewDense(n, s.actions, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < s.actions; j++ {
			u := s.uniform.Rand()
			actions.Set(i, j, s.low[j]+u*(s.high[j]-s.low[j]))
		}
	}
	return actions
}

// Update performs one SAC update on a batch of transitions whose
// rewards have been replaced by rewards. The update counter decides
// whether the actor and target networks are also updated.
func (s *SAC) Update(b expreplay.Batch, rewards []float64,
	update int) (Stats, error) {
	n := len(rewards)
	if n != s.config.BatchSize || len(b.StopBootstrap) != n {
		return Stats{}, fmt.Errorf("update: expected batches of %v "+
			"transitions but got %v rewards", s.config.BatchSize, n)
	}

	nextActions, nextLogProb, err := s.sample(b.NextStates, false)
	if err != nil {
		return Stats{}, fmt.Errorf("update: %v", err)
	}
	nextInputs := hstack(b.NextStates, nextActions)

	var next [2][]float64
	for i, cr := range s.critics {
		if next[i], err = cr.targetValues(nextInputs); err != nil {
			return Stats{}, fmt.Errorf("update: critic %v: %v", i+1, err)
		}
	}
	targets := TargetValues(rewards, b.StopBootstrap, next[0], next[1],
		nextLogProb, s.config.Gamma, s.alpha)

	stats := s.last
	stats.ActorUpdated = false
	inputs := hstack(b.States, b.Actions)
	if stats.QF1Loss, stats.QF1Values, err = s.critics[0].update(inputs,
		targets); err != nil {
		return Stats{}, fmt.Errorf("update: critic 1: %v", err)
	}
	if stats.QF2Loss, stats.QF2Values, err = s.critics[1].update(inputs,
		targets); err != nil {
		return Stats{}, fmt.Errorf("update: critic 2: %v", err)
	}
	stats.QFLoss = (stats.QF1Loss + stats.QF2Loss) / 2

	// One actor step, then one temperature step, every PolicyFrequency
	// updates
	if update%s.config.PolicyFrequency == 0 {
		if stats.ActorLoss, err = s.updateActor(b.States); err != nil {
			return Stats{}, fmt.Errorf("update: %v", err)
		}
		if s.autotune {
			if stats.AlphaLoss, err = s.updateAlpha(b.States); err != nil {
				return Stats{}, fmt.Errorf("update: %v", err)
			}
		}
		stats.ActorUpdated = true
	}
	stats.Alpha = s.alpha

	if update%s.config.TargetNetworkFrequency == 0 {
		for i, cr := range s.critics {
			if err := cr.polyak(s.config.Tau); err != nil {
				return Stats{}, fmt.Errorf("update: critic %v target: %v",
					i+1, err)
			}
		}
	}

	s.last = stats
	return stats, nil
}

// updateActor takes one gradient step of the actor on states
func (s *SAC) updateActor(states *mat.Dense) (float64, error) {
	for i, clone := range s.actorCritics {
		if err := clone.Set(s.critics[i].net); err != nil {
			return 0, fmt.Errorf("updateActor: %v", err)
		}
	}

	if err := s.actor.SetInput(mat.DenseCopyOf(states).RawMatrix().Data); err != nil {
		return 0, fmt.Errorf("updateActor: %v", err)
	}
	eps := make([]float64, s.config.BatchSize*s.actions)
	for i := range eps {
		eps[i] = s.noise.Rand()
	}
	noise := tensor.New(tensor.WithShape(s.config.BatchSize, s.actions),
		tensor.WithBacking(eps))
	if err := G.Let(s.actorNoise, noise); err != nil {
		return 0, fmt.Errorf("updateActor: %v", err)
	}
	if err := G.Let(s.actorAlpha, s.alpha); err != nil {
		return 0, fmt.Errorf("updateActor: %v", err)
	}

	defer s.actorVM.Reset()
	if err := s.actorVM.RunAll(); err != nil {
		return 0, fmt.Errorf("updateActor: %v", err)
	}
	if err := s.actorSolver.Step(s.actor.Model()); err != nil {
		return 0, fmt.Errorf("updateActor: could not step solver: %v", err)
	}
	return s.actorLossVal.Data().(float64), nil
}

// updateAlpha takes one gradient step of the entropy temperature using
// log densities of fresh actions of the updated actor on states
func (s *SAC) updateAlpha(states *mat.Dense) (float64, error) {
	_, logProb, err := s.sample(states, false)
	if err != nil {
		return 0, fmt.Errorf("updateAlpha: %v", err)
	}
	for i := range logProb {
		logProb[i] += s.targetEntropy
	}
	gap := tensor.New(tensor.WithShape(len(logProb)),
		tensor.WithBacking(logProb))
	if err := G.Let(s.entropyGap, gap); err != nil {
		return 0, fmt.Errorf("updateAlpha: %v", err)
	}

	defer s.alphaVM.Reset()
	if err := s.alphaVM.RunAll(); err != nil {
		return 0, fmt.Errorf("updateAlpha: %v", err)
	}
	if err := s.alphaSolver.Step(G.NodesToValueGrads(G.Nodes{s.logAlpha})); err != nil {
		return 0, fmt.Errorf("updateAlpha: could not step solver: %v", err)
	}

	s.alpha = math.Exp(s.logAlpha.Value().Data().(float64))
	return s.alphaLossVal.Data().(float64), nil
}

// Close releases the resources held by the agent's tape machines
func (s *SAC) Close() error {
	vms := []G.VM{s.actorVM, s.critics[0].vm, s.critics[1].vm}
	if s.alphaVM != nil {
		vms = append(vms, s.alphaVM)
	}
	for _, vm := range vms {
		if err := vm.Close(); err != nil {
			return fmt.Errorf("close: %v", err)
		}
	}
	for _, cr := range s.critics {
		if err := cr.target.Close(); err != nil {
			return fmt.Errorf("close: %v", err)
		}
	}
	return s.policy.Close()
}

// hstack concatenates the rows of a and b into a row-major slice
func hstack(a, b *mat.Dense) []float64 {
	rows, ca := a.Dims()
	_, cb := b.Dims()
	out := make([]float64, 0, rows*(ca+cb))
	for i := 0; i < rows; i++ {
		out = append(out, a.RawRowView(i)...)
		out = append(out, b.RawRowView(i)...)
	}
	return out
}
