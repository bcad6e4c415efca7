// Package partition assigns rows to train/test subsets or cross-validation
// folds while preserving class proportions.
package partition

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"fishing-classifier/internal/dataset"
)

var (
	// ErrFraction is returned for a split proportion outside (0,1).
	ErrFraction = errors.New("split fraction must be in (0,1)")
	// ErrFolds is returned for an unusable fold count.
	ErrFolds = errors.New("invalid fold count")
)

// NewRand returns the deterministic generator used for every sampling step
// of a run.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func byClass(labels []dataset.Label) [2][]int {
	var groups [2][]int
	for i, l := range labels {
		groups[l] = append(groups[l], i)
	}
	return groups
}

// StratifiedSplit sends round(p*n) rows to train and the rest to test. Every
// class contributes floor(p*n_c) rows plus at most one more, the extra rows
// going to the classes with the largest remainders, so class shares in both
// subsets stay within one row of the full set. Both index lists are sorted.
func StratifiedSplit(labels []dataset.Label, p float64, rng *rand.Rand) (train, test []int, err error) {
	if !(p > 0 && p < 1) {
		return nil, nil, fmt.Errorf("%w: got %v", ErrFraction, p)
	}
	if len(labels) == 0 {
		return nil, nil, dataset.ErrEmpty
	}

	groups := byClass(labels)
	var quota [2]int
	var remainder [2]float64
	total := 0
	for c, group := range groups {
		exact := p * float64(len(group))
		quota[c] = int(math.Floor(exact))
		remainder[c] = exact - float64(quota[c])
		total += quota[c]
	}
	extra := int(math.Round(p*float64(len(labels)))) - total
	for extra > 0 {
		c := 0
		if remainder[1] > remainder[0] {
			c = 1
		}
		quota[c]++
		remainder[c] = -1
		extra--
	}

	for c, group := range groups {
		rng.Shuffle(len(group), func(i, j int) { group[i], group[j] = group[j], group[i] })
		train = append(train, group[:quota[c]]...)
		test = append(test, group[quota[c]:]...)
	}

	sort.Ints(train)
	sort.Ints(test)
	return train, test, nil
}

// StratifiedFolds assigns a fold id in 1..k to every row. Within each class
// the rows are shuffled and dealt round-robin, so fold sizes per class differ
// by at most one.
func StratifiedFolds(labels []dataset.Label, k int, rng *rand.Rand) ([]int, error) {
	if k < 2 {
		return nil, fmt.Errorf("%w: need at least 2, got %d", ErrFolds, k)
	}
	if k > len(labels) {
		return nil, fmt.Errorf("%w: %d folds for %d rows", ErrFolds, k, len(labels))
	}

	folds := make([]int, len(labels))
	// Continue the deal across classes so small classes do not all start in fold 1.
	next := rng.IntN(k)
	for _, group := range byClass(labels) {
		rng.Shuffle(len(group), func(i, j int) { group[i], group[j] = group[j], group[i] })
		for _, i := range group {
			folds[i] = next + 1
			next = (next + 1) % k
		}
	}
	return folds, nil
}

// Resample is one train/holdout index pair.
type Resample struct {
	Fold    int
	Train   []int
	Holdout []int
}

// FoldIndices turns fold ids into k resamples, holding out fold i in the i-th.
func FoldIndices(folds []int, k int) []Resample {
	out := make([]Resample, k)
	for f := 1; f <= k; f++ {
		out[f-1].Fold = f
	}
	for i, f := range folds {
		for r := range out {
			if out[r].Fold == f {
				out[r].Holdout = append(out[r].Holdout, i)
			} else {
				out[r].Train = append(out[r].Train, i)
			}
		}
	}
	return out
}

// FoldSizes counts rows per fold id.
func FoldSizes(folds []int, k int) []int {
	sizes := make([]int, k)
	for _, f := range folds {
		if f >= 1 && f <= k {
			sizes[f-1]++
		}
	}
	return sizes
}
