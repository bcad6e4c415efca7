// Package metrics provides Prometheus metrics collection for the fishing
// classifier pipeline. Collectors live on a private registry and are dumped
// in text exposition format at the end of a batch run, ready for a
// node-exporter textfile collector.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Drop reasons used with RowsDropped.
const (
	ReasonUnparsable = "unparsable"
	ReasonUnlabeled  = "unlabeled"
	ReasonWindow     = "window"
	ReasonIncomplete = "incomplete"
)

// Metrics holds all Prometheus metrics for one pipeline run.
type Metrics struct {
	// Data metrics
	RowsLoaded  prometheus.Counter     // Rows read from the data source
	RowsDropped *prometheus.CounterVec // Rows removed, by reason

	// Training metrics
	CandidatesEvaluated *prometheus.CounterVec   // Grid candidates scored, by family
	FitDuration         *prometheus.HistogramVec // Duration of single model fits, by family
	BestCVScore         *prometheus.GaugeVec     // Cross-validated score of the selected candidate, by family

	// Evaluation metrics
	TestF1       *prometheus.GaugeVec // F1 on the test partition, by family
	TestAccuracy *prometheus.GaugeVec // Accuracy on the test partition, by family

	// Run metrics
	StageDuration *prometheus.HistogramVec // Duration of pipeline stages
	ErrorsTotal   prometheus.Counter       // Stage failures

	gatherer prometheus.Gatherer
}

// New creates metrics on a fresh private registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
// WriteTextfile only works when the registerer is also a Gatherer.
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	m := &Metrics{
		RowsLoaded: factory.NewCounter(prometheus.CounterOpts{
			Name: "fishclass_rows_loaded_total",
			Help: "Total number of poll rows read from the data source",
		}),
		RowsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fishclass_rows_dropped_total",
			Help: "Total number of rows removed, by reason",
		}, []string{"reason"}),
		CandidatesEvaluated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fishclass_candidates_evaluated_total",
			Help: "Total number of hyperparameter candidates scored",
		}, []string{"family"}),
		FitDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fishclass_fit_duration_seconds",
			Help:    "Duration of single model fits in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}, []string{"family"}),
		BestCVScore: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fishclass_best_cv_score",
			Help: "Mean resampled score of the selected candidate",
		}, []string{"family", "metric"}),
		TestF1: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fishclass_test_f1",
			Help: "F1 score on the test partition (NaN when undefined)",
		}, []string{"family"}),
		TestAccuracy: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fishclass_test_accuracy",
			Help: "Accuracy on the test partition",
		}, []string{"family"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fishclass_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"stage"}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "fishclass_errors_total",
			Help: "Total number of failed pipeline stages",
		}),
	}
	if g, ok := registerer.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// Dropped adds n rows to the drop counter for reason.
func (m *Metrics) Dropped(reason string, n int) {
	if n > 0 {
		m.RowsDropped.WithLabelValues(reason).Add(float64(n))
	}
}

// Evaluated records the test-set scores of one family. Undefined scores are
// exported as NaN.
func (m *Metrics) Evaluated(family string, f1, accuracy float64) {
	m.TestF1.WithLabelValues(family).Set(f1)
	m.TestAccuracy.WithLabelValues(family).Set(accuracy)
}

// WriteTextfile writes every collected metric to path in text exposition
// format.
func (m *Metrics) WriteTextfile(path string) error {
	if m.gatherer == nil {
		return errors.New("metrics registry cannot be gathered")
	}
	return prometheus.WriteToTextfile(path, m.gatherer)
}
