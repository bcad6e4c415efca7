package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// TreeConfig holds the settings of one boosted ensemble fit.
type TreeConfig struct {
	Depth       int     // splits per tree
	Trees       int     // boosting iterations
	Shrinkage   float64 // learning rate
	MinObs      int     // minimum rows in a terminal node
	BagFraction float64 // share of rows sampled for each tree
}

// split is an internal tree node. Leaves have Feature -1.
type split struct {
	Feature     int
	Threshold   float64
	Left, Right int
	Value       float64
	Improvement float64
}

// Tree is one regression tree of the ensemble, stored as a node list with the
// root at index 0.
type Tree struct {
	Nodes []split
}

func (t *Tree) predict(row []float64) float64 {
	k := 0
	for {
		nd := &t.Nodes[k]
		if nd.Feature < 0 {
			return nd.Value
		}
		if row[nd.Feature] <= nd.Threshold {
			k = nd.Left
		} else {
			k = nd.Right
		}
	}
}

// BoostedTrees is a Bernoulli-deviance gradient boosting ensemble. Scores are
// log-odds: Init plus Shrinkage times the sum of tree outputs.
type BoostedTrees struct {
	Names     []string
	Init      float64
	Shrinkage float64
	Trees     []*Tree
}

// FitBoostedTrees fits cfg.Trees trees to X (n x p) and 0/1 targets y.
func FitBoostedTrees(X *mat.Dense, y []float64, names []string, cfg TreeConfig, rng *rand.Rand) (*BoostedTrees, error) {
	n, p := X.Dims()
	if n == 0 {
		return nil, errors.New("trees: no rows")
	}
	if len(y) != n {
		return nil, fmt.Errorf("trees: %d targets for %d rows", len(y), n)
	}
	if cfg.Trees < 1 || cfg.Depth < 1 || cfg.MinObs < 1 {
		return nil, fmt.Errorf("trees: invalid config %+v", cfg)
	}

	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = X.RawRowView(i)
	}

	mean := floats.Sum(y) / float64(n)
	mean = math.Min(math.Max(mean, 1e-6), 1-1e-6)
	bt := &BoostedTrees{
		Names:     names,
		Init:      math.Log(mean / (1 - mean)),
		Shrinkage: cfg.Shrinkage,
		Trees:     make([]*Tree, 0, cfg.Trees),
	}

	bag := int(cfg.BagFraction * float64(n))
	if bag < 2*cfg.MinObs {
		bag = min(n, 2*cfg.MinObs)
	}

	F := make([]float64, n)
	for i := range F {
		F[i] = bt.Init
	}
	prob := make([]float64, n)
	resid := make([]float64, n)

	for t := 0; t < cfg.Trees; t++ {
		for i := range F {
			prob[i] = sigmoid(F[i])
			resid[i] = y[i] - prob[i]
		}
		sample := rng.Perm(n)[:bag]

		g := grower{rows: rows, resid: resid, prob: prob, features: p, minObs: cfg.MinObs}
		tree := g.grow(sample, cfg.Depth)
		bt.Trees = append(bt.Trees, tree)

		for i, row := range rows {
			F[i] += cfg.Shrinkage * tree.predict(row)
		}
	}
	return bt, nil
}

// grower builds one tree best-first on squared error of the residuals.
type grower struct {
	rows     [][]float64
	resid    []float64
	prob     []float64
	features int
	minObs   int
}

// candidate is a leaf together with its best available split.
type candidate struct {
	node      int
	feature   int
	threshold float64
	gain      float64
	left      []int
	right     []int
}

func (g *grower) grow(idx []int, depth int) *Tree {
	t := &Tree{Nodes: []split{{Feature: -1, Value: g.leafValue(idx)}}}
	open := []candidate{g.best(0, idx)}

	for s := 0; s < depth; s++ {
		k := -1
		for i, c := range open {
			if c.feature >= 0 && (k < 0 || c.gain > open[k].gain) {
				k = i
			}
		}
		if k < 0 {
			break
		}
		c := open[k]
		open = append(open[:k], open[k+1:]...)

		l, r := len(t.Nodes), len(t.Nodes)+1
		t.Nodes = append(t.Nodes,
			split{Feature: -1, Value: g.leafValue(c.left)},
			split{Feature: -1, Value: g.leafValue(c.right)},
		)
		nd := &t.Nodes[c.node]
		nd.Feature, nd.Threshold, nd.Improvement = c.feature, c.threshold, c.gain
		nd.Left, nd.Right = l, r

		open = append(open, g.best(l, c.left), g.best(r, c.right))
	}
	return t
}

// leafValue is the Newton step sum(r) / sum(p(1-p)).
func (g *grower) leafValue(idx []int) float64 {
	var num, den float64
	for _, i := range idx {
		num += g.resid[i]
		den += g.prob[i] * (1 - g.prob[i])
	}
	if den < 1e-12 {
		return 0
	}
	return num / den
}

func (g *grower) best(node int, idx []int) candidate {
	c := candidate{node: node, feature: -1}
	n := len(idx)
	if n < 2*g.minObs {
		return c
	}

	total := 0.0
	for _, i := range idx {
		total += g.resid[i]
	}
	base := total * total / float64(n)

	order := make([]int, n)
	for f := 0; f < g.features; f++ {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return g.rows[order[a]][f] < g.rows[order[b]][f] })

		left := 0.0
		for k := 0; k < n-1; k++ {
			left += g.resid[order[k]]
			nl := k + 1
			if nl < g.minObs || n-nl < g.minObs {
				continue
			}
			lo, hi := g.rows[order[k]][f], g.rows[order[k+1]][f]
			if lo == hi {
				continue
			}
			right := total - left
			gain := left*left/float64(nl) + right*right/float64(n-nl) - base
			if gain > c.gain {
				c.feature, c.threshold, c.gain = f, (lo+hi)/2, gain
			}
		}
	}

	if c.feature >= 0 {
		for _, i := range idx {
			if g.rows[i][c.feature] <= c.threshold {
				c.left = append(c.left, i)
			} else {
				c.right = append(c.right, i)
			}
		}
	}
	return c
}

// NumTrees is the ensemble size.
func (bt *BoostedTrees) NumTrees() int { return len(bt.Trees) }

// PredictProba scores X with every tree.
func (bt *BoostedTrees) PredictProba(X *mat.Dense) []float64 {
	return bt.PredictProbaAt(X, len(bt.Trees))
}

// PredictProbaAt scores X with the first k trees, so one fit serves every
// smaller ensemble size.
func (bt *BoostedTrees) PredictProbaAt(X *mat.Dense, k int) []float64 {
	k = max(0, min(k, len(bt.Trees)))
	n, _ := X.Dims()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		row := X.RawRowView(i)
		f := bt.Init
		for _, t := range bt.Trees[:k] {
			f += bt.Shrinkage * t.predict(row)
		}
		out[i] = sigmoid(f)
	}
	return out
}

// RelativeInfluence sums split improvements per feature over the ensemble,
// scaled to total 100. Features never split on score 0.
func (bt *BoostedTrees) RelativeInfluence() []Importance {
	sums := make([]float64, len(bt.Names))
	for _, t := range bt.Trees {
		for _, nd := range t.Nodes {
			if nd.Feature >= 0 && nd.Feature < len(sums) {
				sums[nd.Feature] += nd.Improvement
			}
		}
	}
	return ranked(bt.Names, sums)
}
