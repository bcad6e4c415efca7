package ml

import (
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/mat"

	"fishing-classifier/internal/dataset"
	"fishing-classifier/internal/features"
)

// Hyperparameter names, as reported in tuning output.
const (
	ParamSize      = "size"
	ParamDecay     = "decay"
	ParamDepth     = "interaction.depth"
	ParamTrees     = "n.trees"
	ParamShrinkage = "shrinkage"
	ParamMinObs    = "n.minobsinnode"
)

// Family is one model type the tuner can search over.
type Family interface {
	Name() string
	Grid() Grid
	// Design turns a complete frame into the matrix the family fits on.
	Design(f *dataset.Frame) (*mat.Dense, []string, error)
	// FitKey groups candidates that one fit can score.
	FitKey(p Params) string
	// Widen returns the params to fit for a group sharing a key.
	Widen(group []Params) Params
	Fit(X *mat.Dense, y []float64, names []string, p Params, rng *rand.Rand) (Model, error)
	// Score predicts with m as candidate p would.
	Score(m Model, p Params, X *mat.Dense) []float64
}

// NetworkFamily searches size x decay for a Network. Categorical columns are
// expanded to indicators before fitting.
type NetworkFamily struct {
	Sizes   []int
	Decays  []float64
	MaxIter int
	Rang    float64
}

func (NetworkFamily) Name() string { return "nnet" }

func (nf NetworkFamily) Grid() Grid {
	return Grid{
		{Name: ParamSize, Values: Floats(nf.Sizes)},
		{Name: ParamDecay, Values: slices.Clone(nf.Decays)},
	}
}

func (NetworkFamily) Design(f *dataset.Frame) (*mat.Dense, []string, error) {
	var enc features.OneHot
	expanded := enc.Transform(f)
	X, err := expanded.Matrix()
	if err != nil {
		return nil, nil, err
	}
	return X, expanded.Names(), nil
}

func (NetworkFamily) FitKey(p Params) string { return p.String() }

func (NetworkFamily) Widen(group []Params) Params { return group[0] }

func (nf NetworkFamily) Fit(X *mat.Dense, y []float64, names []string, p Params, rng *rand.Rand) (Model, error) {
	return FitNetwork(X, y, names, NetworkConfig{
		Size:    p.Int(ParamSize),
		Decay:   p.Get(ParamDecay),
		MaxIter: nf.MaxIter,
		Rang:    nf.Rang,
	}, rng)
}

func (NetworkFamily) Score(m Model, _ Params, X *mat.Dense) []float64 {
	return m.PredictProba(X)
}

// TreeFamily searches interaction.depth x n.trees x shrinkage x
// n.minobsinnode for BoostedTrees. Candidates differing only in n.trees share
// a fit of the largest count.
type TreeFamily struct {
	Depths      []int
	Trees       []int
	Shrinkages  []float64
	MinObs      []int
	BagFraction float64
}

func (TreeFamily) Name() string { return "gbm" }

func (tf TreeFamily) Grid() Grid {
	return Grid{
		{Name: ParamDepth, Values: Floats(tf.Depths)},
		{Name: ParamTrees, Values: Floats(tf.Trees)},
		{Name: ParamShrinkage, Values: slices.Clone(tf.Shrinkages)},
		{Name: ParamMinObs, Values: Floats(tf.MinObs)},
	}
}

// Design keeps categorical columns as ordered level codes.
func (TreeFamily) Design(f *dataset.Frame) (*mat.Dense, []string, error) {
	X, err := f.Matrix()
	if err != nil {
		return nil, nil, err
	}
	return X, f.Names(), nil
}

func (TreeFamily) FitKey(p Params) string { return p.Without(ParamTrees).String() }

func (TreeFamily) Widen(group []Params) Params {
	most := group[0].Get(ParamTrees)
	for _, p := range group[1:] {
		most = max(most, p.Get(ParamTrees))
	}
	return group[0].With(ParamTrees, most)
}

func (tf TreeFamily) Fit(X *mat.Dense, y []float64, names []string, p Params, rng *rand.Rand) (Model, error) {
	return FitBoostedTrees(X, y, names, TreeConfig{
		Depth:       p.Int(ParamDepth),
		Trees:       p.Int(ParamTrees),
		Shrinkage:   p.Get(ParamShrinkage),
		MinObs:      p.Int(ParamMinObs),
		BagFraction: tf.BagFraction,
	}, rng)
}

func (TreeFamily) Score(m Model, p Params, X *mat.Dense) []float64 {
	if bt, ok := m.(*BoostedTrees); ok {
		return bt.PredictProbaAt(X, p.Int(ParamTrees))
	}
	return m.PredictProba(X)
}
