// Package ml provides the two classifier families of the pipeline, a
// single-hidden-layer network and gradient-boosted trees, together with the
// grid-search tuner that selects their hyperparameters by cross-validated
// ROC AUC and the variable-importance measures used for diagnostics.
package ml

import "gonum.org/v1/gonum/mat"

// Model scores a design matrix. PredictProba returns, for every row, the
// probability of the Positive class.
type Model interface {
	PredictProba(X *mat.Dense) []float64
}

// MetricsInterface defines metrics methods needed by the tuner
type MetricsInterface interface {
	CandidatesInc(family string, n int)
	FitDurationObserve(family string, seconds float64)
}
