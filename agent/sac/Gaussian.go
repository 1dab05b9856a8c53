package sac

import (
	"math"

	G "gorgonia.org/gorgonia"
)

// Bounds of the log standard deviation of the actor
const (
	logStdMin = -5.0
	logStdMax = 2.0

	// Smooths the log of the squashing correction near |y| = 1
	squashEps = 1e-6
)

var halfLog2Pi = 0.5 * math.Log(2*math.Pi)

// rescaleLogStd maps an unbounded network output into
// [logStdMin, logStdMax]
func rescaleLogStd(raw float64) float64 {
	return logStdMin + 0.5*(logStdMax-logStdMin)*(math.Tanh(raw)+1)
}

// squash returns the action for pre-squash mean, raw log standard
// deviation and standard normal noise eps, together with the action's
// log density corrected for the tanh squashing and affine rescaling
func squash(mean, raw, eps, scale, bias float64) (action, logProb float64) {
	logStd := rescaleLogStd(raw)
	x := mean + math.Exp(logStd)*eps
	y := math.Tanh(x)

	logProb = -0.5*eps*eps - logStd - halfLog2Pi
	logProb -= math.Log(scale*(1-y*y) + squashEps)
	return y*scale + bias, logProb
}

// squashGraph adds the computation of squash to the graph of mean and
// raw, row-wise over a batch. The returned log probability is a vector
// with one entry per row, summed over action dimensions.
func squashGraph(mean, raw, eps, scale, bias *G.Node) (action,
	logProb *G.Node) {
	half := G.NewConstant(0.5 * (logStdMax - logStdMin))
	one := G.NewConstant(1.0)
	logStd := G.Must(G.Add(G.Must(G.Mul(half, G.Must(G.Add(
		G.Must(G.Tanh(raw)), one)))), G.NewConstant(logStdMin)))

	x := G.Must(G.Add(mean, G.Must(G.HadamardProd(G.Must(G.Exp(logStd)),
		eps))))
	y := G.Must(G.Tanh(x))

	action = G.Must(G.BroadcastHadamardProd(y, scale, nil, []byte{0}))
	action = G.Must(G.BroadcastAdd(action, bias, nil, []byte{0}))

	normal := G.Must(G.Mul(G.NewConstant(-0.5), G.Must(G.Square(eps))))
	normal = G.Must(G.Sub(normal, G.Must(G.Add(logStd,
		G.NewConstant(halfLog2Pi)))))

	correction := G.Must(G.Sub(one, G.Must(G.Square(y))))
	correction = G.Must(G.BroadcastHadamardProd(correction, scale, nil,
		[]byte{0}))
	correction = G.Must(G.Log(G.Must(G.Add(correction,
		G.NewConstant(squashEps)))))

	logProb = G.Must(G.Sum(G.Must(G.Sub(normal, correction)), 1))
	return action, logProb
}

// minimum returns the element-wise minimum of a and b as
// (a + b - |a - b|) / 2
func minimum(a, b *G.Node) *G.Node {
	sum := G.Must(G.Add(a, b))
	diff := G.Must(G.Abs(G.Must(G.Sub(a, b))))
	return G.Must(G.Mul(G.NewConstant(0.5), G.Must(G.Sub(sum, diff))))
}
