package metrics

// MetricsWrapper adapts Metrics to the narrow interface the tuner uses
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) CandidatesInc(family string, n int) {
	w.m.CandidatesEvaluated.WithLabelValues(family).Add(float64(n))
}

func (w *MetricsWrapper) FitDurationObserve(family string, seconds float64) {
	w.m.FitDuration.WithLabelValues(family).Observe(seconds)
}

// StageObserve records how long a pipeline stage took.
func (w *MetricsWrapper) StageObserve(stage string, seconds float64) {
	w.m.StageDuration.WithLabelValues(stage).Observe(seconds)
}
