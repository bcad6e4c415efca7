// Package eval scores held-out predictions: the 2x2 confusion matrix with its
// derived ratios, thresholding of probabilities, and ROC AUC.
package eval

import (
	"fmt"

	"fishing-classifier/internal/dataset"
)

// ConfusionMatrix counts predictions against reference labels, with Positive
// as the event class.
type ConfusionMatrix struct {
	TP int `json:"tp"`
	FP int `json:"fp"`
	FN int `json:"fn"`
	TN int `json:"tn"`
}

// Build tabulates pred against actual. Both slices must have the same length.
func Build(pred, actual []dataset.Label) (ConfusionMatrix, error) {
	var cm ConfusionMatrix
	if len(pred) != len(actual) {
		return cm, fmt.Errorf("%d predictions for %d labels", len(pred), len(actual))
	}
	for i, p := range pred {
		switch {
		case p == dataset.Positive && actual[i] == dataset.Positive:
			cm.TP++
		case p == dataset.Positive:
			cm.FP++
		case actual[i] == dataset.Positive:
			cm.FN++
		default:
			cm.TN++
		}
	}
	return cm, nil
}

// Total is the number of scored rows.
func (cm ConfusionMatrix) Total() int {
	return cm.TP + cm.FP + cm.FN + cm.TN
}

// Precision is TP/(TP+FP). No guard: zero predicted positives gives NaN.
func (cm ConfusionMatrix) Precision() float64 {
	return float64(cm.TP) / float64(cm.TP+cm.FP)
}

// Recall is TP/(TP+FN).
func (cm ConfusionMatrix) Recall() float64 {
	return float64(cm.TP) / float64(cm.TP+cm.FN)
}

// F1 is the harmonic mean of precision and recall. NaN in either input
// propagates.
func (cm ConfusionMatrix) F1() float64 {
	p, r := cm.Precision(), cm.Recall()
	return 2 * p * r / (p + r)
}

// Accuracy is the share of rows on the diagonal.
func (cm ConfusionMatrix) Accuracy() float64 {
	return float64(cm.TP+cm.TN) / float64(cm.Total())
}

// Table lays the counts out as rows = predicted, columns = reference, in the
// order (Positive, Negative).
func (cm ConfusionMatrix) Table() [2][2]int {
	return [2][2]int{
		{cm.TP, cm.FP},
		{cm.FN, cm.TN},
	}
}

// Classify maps probabilities of the Positive class to labels. A probability
// strictly above threshold is Positive.
func Classify(probs []float64, threshold float64) []dataset.Label {
	out := make([]dataset.Label, len(probs))
	for i, p := range probs {
		if p > threshold {
			out[i] = dataset.Positive
		}
	}
	return out
}
