package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// NetworkConfig holds the settings of one network fit.
type NetworkConfig struct {
	Size    int     // hidden units
	Decay   float64 // weight decay
	MaxIter int     // BFGS iteration cap
	Rang    float64 // initial weights are uniform in [-Rang, Rang]
}

// Network is a single-hidden-layer feed-forward network with logistic
// hidden and output units, fitted by minimising cross-entropy plus
// Decay times the sum of squared weights.
type Network struct {
	Names  []string
	Inputs int
	Hidden int
	// W1 is Hidden x (Inputs+1); column 0 holds the biases.
	W1 *mat.Dense
	// W2 is Hidden+1 long; element 0 is the output bias.
	W2 []float64
	// Loss is the penalised objective at the returned weights.
	Loss float64
	// Iterations is the number of BFGS major iterations run.
	Iterations int
	Status     optimize.Status
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// softplus is log(1+exp(z)) without overflow.
func softplus(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}

// withBias prepends a column of ones.
func withBias(X mat.Matrix) *mat.Dense {
	n, p := X.Dims()
	out := mat.NewDense(n, p+1, nil)
	for i := 0; i < n; i++ {
		out.Set(i, 0, 1)
		for j := 0; j < p; j++ {
			out.Set(i, j+1, X.At(i, j))
		}
	}
	return out
}

// netShape describes how a flat weight vector maps onto the two layers.
type netShape struct {
	inputs, hidden int
}

func (s netShape) size() int { return s.hidden*(s.inputs+1) + s.hidden + 1 }

func (s netShape) split(w []float64) (*mat.Dense, []float64) {
	k := s.hidden * (s.inputs + 1)
	return mat.NewDense(s.hidden, s.inputs+1, w[:k]), w[k:]
}

// forward returns the hidden activations with a leading bias column and the
// output logits for the biased design matrix Xb.
func (s netShape) forward(Xb *mat.Dense, w []float64) (*mat.Dense, []float64) {
	W1, W2 := s.split(w)
	n, _ := Xb.Dims()

	var a mat.Dense
	a.Mul(Xb, W1.T())

	hb := mat.NewDense(n, s.hidden+1, nil)
	logits := make([]float64, n)
	for i := 0; i < n; i++ {
		hb.Set(i, 0, 1)
		o := W2[0]
		for h := 0; h < s.hidden; h++ {
			v := sigmoid(a.At(i, h))
			hb.Set(i, h+1, v)
			o += W2[h+1] * v
		}
		logits[i] = o
	}
	return hb, logits
}

// netObjective is the penalised cross-entropy of a network over a fixed
// training set, as a function of the flat weight vector.
type netObjective struct {
	shape netShape
	Xb    *mat.Dense
	y     []float64
	decay float64
}

func (o *netObjective) value(w []float64) float64 {
	_, logits := o.shape.forward(o.Xb, w)
	loss := 0.0
	for i, z := range logits {
		loss += softplus(z) - o.y[i]*z
	}
	return loss + o.decay*floats.Dot(w, w)
}

func (o *netObjective) gradient(grad, w []float64) {
	_, W2 := o.shape.split(w)
	hb, logits := o.shape.forward(o.Xb, w)
	n := len(logits)

	d := make([]float64, n)
	for i, z := range logits {
		d[i] = sigmoid(z) - o.y[i]
	}

	gW1, gW2 := o.shape.split(grad)
	// output layer
	g2 := mat.NewVecDense(len(gW2), gW2)
	g2.MulVec(hb.T(), mat.NewVecDense(n, d))

	// hidden layer: delta[i,h] = d_i * v_h * s(1-s)
	delta := mat.NewDense(n, o.shape.hidden, nil)
	for i := 0; i < n; i++ {
		for h := 0; h < o.shape.hidden; h++ {
			s := hb.At(i, h+1)
			delta.Set(i, h, d[i]*W2[h+1]*s*(1-s))
		}
	}
	gW1.Mul(delta.T(), o.Xb)

	floats.AddScaled(grad, 2*o.decay, w)
}

// FitNetwork trains a network on X (n x p) and 0/1 targets y.
func FitNetwork(X *mat.Dense, y []float64, names []string, cfg NetworkConfig, rng *rand.Rand) (*Network, error) {
	n, p := X.Dims()
	if n == 0 {
		return nil, errors.New("network: no rows")
	}
	if len(y) != n {
		return nil, fmt.Errorf("network: %d targets for %d rows", len(y), n)
	}
	if cfg.Size < 1 {
		return nil, fmt.Errorf("network: size must be positive, got %d", cfg.Size)
	}

	shape := netShape{inputs: p, hidden: cfg.Size}
	Xb := withBias(X)

	w0 := make([]float64, shape.size())
	for i := range w0 {
		w0[i] = (2*rng.Float64() - 1) * cfg.Rang
	}

	obj := &netObjective{shape: shape, Xb: Xb, y: y, decay: cfg.Decay}
	problem := optimize.Problem{Func: obj.value, Grad: obj.gradient}
	settings := &optimize.Settings{MajorIterations: cfg.MaxIter}

	result, err := optimize.Minimize(problem, w0, settings, &optimize.BFGS{})
	if err != nil {
		if result == nil || len(result.X) != len(w0) {
			return nil, fmt.Errorf("network: optimise: %w", err)
		}
		log.Warn().Err(err).Int("size", cfg.Size).Float64("decay", cfg.Decay).
			Msg("Network optimiser stopped early, keeping last weights")
	}

	W1, W2 := shape.split(result.X)
	return &Network{
		Names:      names,
		Inputs:     p,
		Hidden:     cfg.Size,
		W1:         mat.DenseCopyOf(W1),
		W2:         append([]float64(nil), W2...),
		Loss:       result.F,
		Iterations: result.Stats.MajorIterations,
		Status:     result.Status,
	}, nil
}

// weights flattens the network back into the optimiser layout.
func (nw *Network) weights() []float64 {
	shape := netShape{inputs: nw.Inputs, hidden: nw.Hidden}
	w := make([]float64, shape.size())
	W1, W2 := shape.split(w)
	W1.Copy(nw.W1)
	copy(W2, nw.W2)
	return w
}

// PredictProba returns the output unit activation for every row of X.
func (nw *Network) PredictProba(X *mat.Dense) []float64 {
	shape := netShape{inputs: nw.Inputs, hidden: nw.Hidden}
	_, logits := shape.forward(withBias(X), nw.weights())
	for i, o := range logits {
		logits[i] = sigmoid(o)
	}
	return logits
}
