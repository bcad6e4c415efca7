package ml

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"fishing-classifier/internal/dataset"
	"fishing-classifier/internal/eval"
)

// Importance is the score of one feature column.
type Importance struct {
	Feature string  `json:"feature"`
	Score   float64 `json:"score"`
}

// ranked pairs names with raw scores, scales them to total 100 and sorts
// descending. Ties keep column order.
func ranked(names []string, raw []float64) []Importance {
	total := floats.Sum(raw)
	out := make([]Importance, len(names))
	for i, name := range names {
		score := 0.0
		if total > 0 && i < len(raw) {
			score = 100 * raw[i] / total
		}
		out[i] = Importance{Feature: name, Score: score}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })
	return out
}

// Garson apportions the output connection of every hidden unit among the
// inputs by the absolute input-to-hidden weights, then sums over hidden units.
func (nw *Network) Garson() []Importance {
	raw := make([]float64, nw.Inputs)
	share := make([]float64, nw.Inputs)
	for h := 0; h < nw.Hidden; h++ {
		out := math.Abs(nw.W2[h+1])
		for i := 0; i < nw.Inputs; i++ {
			share[i] = math.Abs(nw.W1.At(h, i+1)) * out
		}
		sum := floats.Sum(share)
		if sum == 0 {
			continue
		}
		floats.AddScaled(raw, 1/sum, share)
	}
	return ranked(nw.Names, raw)
}

// PermutationImportance measures, for each column of X, the drop in AUC when
// that column is shuffled. Negative drops are reported as 0 before scaling.
func PermutationImportance(m Model, X *mat.Dense, labels []dataset.Label, names []string, rng *rand.Rand) ([]Importance, error) {
	n, p := X.Dims()
	if len(names) != p {
		return nil, fmt.Errorf("%d names for %d columns", len(names), p)
	}

	baseline, err := eval.AUC(m.PredictProba(X), labels)
	if err != nil {
		return nil, fmt.Errorf("baseline auc: %w", err)
	}

	drops := make([]float64, p)
	permuted := mat.DenseCopyOf(X)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		mat.Col(col, j, X)
		rng.Shuffle(n, func(a, b int) { col[a], col[b] = col[b], col[a] })
		permuted.SetCol(j, col)

		auc, err := eval.AUC(m.PredictProba(permuted), labels)
		if err != nil {
			return nil, fmt.Errorf("permuted auc for %s: %w", names[j], err)
		}
		drops[j] = math.Max(0, baseline-auc)

		permuted.SetCol(j, mat.Col(nil, j, X))
	}
	return ranked(names, drops), nil
}

// VarImp returns the model's own importance measure: relative influence for
// boosted trees, Garson weights for networks.
func VarImp(m Model) ([]Importance, error) {
	switch v := m.(type) {
	case *BoostedTrees:
		return v.RelativeInfluence(), nil
	case *Network:
		return v.Garson(), nil
	default:
		return nil, fmt.Errorf("no built-in importance for %T", m)
	}
}
