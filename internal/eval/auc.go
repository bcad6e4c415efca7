package eval

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"fishing-classifier/internal/dataset"
)

// ErrOneClass is returned by AUC when the labels contain a single class.
var ErrOneClass = errors.New("auc needs both classes")

// AUC is the area under the ROC curve of probs as a score for Positive.
func AUC(probs []float64, actual []dataset.Label) (float64, error) {
	if len(probs) != len(actual) {
		return math.NaN(), fmt.Errorf("%d scores for %d labels", len(probs), len(actual))
	}
	if len(probs) == 0 {
		return math.NaN(), dataset.ErrEmpty
	}

	order := make([]int, len(probs))
	for i := range order {
		if math.IsNaN(probs[i]) {
			return math.NaN(), fmt.Errorf("score %d is NaN", i)
		}
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return probs[order[a]] < probs[order[b]] })

	scores := make([]float64, len(probs))
	classes := make([]bool, len(probs))
	var pos, neg int
	for k, i := range order {
		scores[k] = probs[i]
		classes[k] = actual[i] == dataset.Positive
		if classes[k] {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return math.NaN(), ErrOneClass
	}

	tpr, fpr, _ := stat.ROC(nil, scores, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}
