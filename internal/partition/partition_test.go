package partition

import (
	"math"
	"testing"

	"fishing-classifier/internal/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// labelsWithShare builds n labels of which a share are Positive.
func labelsWithShare(n int, share float64) []dataset.Label {
	labels := make([]dataset.Label, n)
	pos := int(math.Round(share * float64(n)))
	for i := 0; i < pos; i++ {
		labels[i*n/pos] = dataset.Positive
	}
	return labels
}

func positiveShare(labels []dataset.Label, idx []int) float64 {
	pos := 0
	for _, i := range idx {
		if labels[i] == dataset.Positive {
			pos++
		}
	}
	return float64(pos) / float64(len(idx))
}

func TestStratifiedSplit_SizesAndProportions(t *testing.T) {
	for _, n := range []int{200, 1000, 4321, 997} {
		labels := labelsWithShare(n, 0.25)
		overall := positiveShare(labels, seq(n))

		train, test, err := StratifiedSplit(labels, 0.8, NewRand(uint64(n)))
		require.NoError(t, err)

		assert.Equal(t, n, len(train)+len(test))
		assert.InDelta(t, 0.8*float64(n), float64(len(train)), 1, "n=%d train size", n)
		assert.InDelta(t, overall, positiveShare(labels, train), 0.02, "n=%d train share", n)
		assert.InDelta(t, overall, positiveShare(labels, test), 0.02, "n=%d test share", n)

		seen := make(map[int]bool, n)
		for _, i := range append(append([]int{}, train...), test...) {
			assert.False(t, seen[i], "row %d assigned twice", i)
			seen[i] = true
		}
	}
}

func TestStratifiedSplit_Deterministic(t *testing.T) {
	labels := labelsWithShare(300, 0.4)

	a, _, err := StratifiedSplit(labels, 0.8, NewRand(7))
	require.NoError(t, err)
	b, _, err := StratifiedSplit(labels, 0.8, NewRand(7))
	require.NoError(t, err)
	c, _, err := StratifiedSplit(labels, 0.8, NewRand(8))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.IsIncreasing(t, a)
}

func TestStratifiedSplit_Errors(t *testing.T) {
	labels := labelsWithShare(10, 0.5)
	for _, p := range []float64{0, 1, -0.2, 1.5, math.NaN()} {
		_, _, err := StratifiedSplit(labels, p, NewRand(1))
		assert.ErrorIs(t, err, ErrFraction, "p=%v", p)
	}

	_, _, err := StratifiedSplit(nil, 0.8, NewRand(1))
	assert.ErrorIs(t, err, dataset.ErrEmpty)
}

func TestStratifiedSplit_SingleClass(t *testing.T) {
	labels := make([]dataset.Label, 10)
	train, test, err := StratifiedSplit(labels, 0.8, NewRand(1))
	require.NoError(t, err)
	assert.Len(t, train, 8)
	assert.Len(t, test, 2)
}

func TestStratifiedFolds(t *testing.T) {
	labels := labelsWithShare(1000, 0.25)

	folds, err := StratifiedFolds(labels, 5, NewRand(3))
	require.NoError(t, err)
	require.Len(t, folds, 1000)

	sizes := FoldSizes(folds, 5)
	for f, size := range sizes {
		assert.InDelta(t, 200, size, 1, "fold %d", f+1)
	}

	for _, r := range FoldIndices(folds, 5) {
		assert.Equal(t, 1000, len(r.Train)+len(r.Holdout))
		assert.InDelta(t, 0.25, positiveShare(labels, r.Holdout), 0.02, "fold %d", r.Fold)
		for _, i := range r.Holdout {
			assert.Equal(t, r.Fold, folds[i])
		}
	}
}

func TestStratifiedFolds_Errors(t *testing.T) {
	labels := labelsWithShare(4, 0.5)

	_, err := StratifiedFolds(labels, 1, NewRand(1))
	assert.ErrorIs(t, err, ErrFolds)

	_, err = StratifiedFolds(labels, 5, NewRand(1))
	assert.ErrorIs(t, err, ErrFolds)
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
