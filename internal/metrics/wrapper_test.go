package metrics

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWrapper(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewWithRegistry(registry)
	wrapper := NewWrapper(metrics)

	if wrapper == nil {
		t.Fatal("NewWrapper returned nil")
	}
	if wrapper.m != metrics {
		t.Error("Wrapper does not contain correct metrics instance")
	}
}

func TestMetricsWrapper_CandidatesAndFits(t *testing.T) {
	metrics := NewWithRegistry(prometheus.NewRegistry())
	wrapper := NewWrapper(metrics)

	wrapper.CandidatesInc("gbm", 18)
	wrapper.CandidatesInc("nnet", 9)
	wrapper.CandidatesInc("gbm", 2)

	assert.Equal(t, 20.0, testutil.ToFloat64(metrics.CandidatesEvaluated.WithLabelValues("gbm")))
	assert.Equal(t, 9.0, testutil.ToFloat64(metrics.CandidatesEvaluated.WithLabelValues("nnet")))

	wrapper.FitDurationObserve("gbm", 0.02)
	wrapper.FitDurationObserve("gbm", 0.5)
	wrapper.StageObserve("train", 1.5)
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.FitDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.StageDuration))
}

func TestMetrics_DroppedAndEvaluated(t *testing.T) {
	metrics := New()

	metrics.Dropped(ReasonUnlabeled, 3)
	metrics.Dropped(ReasonUnlabeled, 0)
	metrics.Dropped(ReasonIncomplete, 2)
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.RowsDropped.WithLabelValues(ReasonUnlabeled)))
	assert.Equal(t, 2, testutil.CollectAndCount(metrics.RowsDropped))

	metrics.Evaluated("nnet", math.NaN(), 0.75)
	assert.True(t, math.IsNaN(testutil.ToFloat64(metrics.TestF1.WithLabelValues("nnet"))))
	assert.Equal(t, 0.75, testutil.ToFloat64(metrics.TestAccuracy.WithLabelValues("nnet")))
}

func TestMetrics_IsolatedRegistries(t *testing.T) {
	a := New()
	b := New()
	a.RowsLoaded.Add(10)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RowsLoaded))
}

func TestWriteTextfile(t *testing.T) {
	metrics := New()
	metrics.RowsLoaded.Add(1000)
	metrics.BestCVScore.WithLabelValues("gbm", "ROC").Set(0.91)

	path := filepath.Join(t.TempDir(), "fishclass.prom")
	require.NoError(t, metrics.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, "fishclass_rows_loaded_total 1000"))
	assert.True(t, strings.Contains(text, `fishclass_best_cv_score{family="gbm",metric="ROC"} 0.91`))
}

type registererOnly struct{ prometheus.Registerer }

func TestWriteTextfile_NeedsGatherer(t *testing.T) {
	metrics := NewWithRegistry(registererOnly{prometheus.NewRegistry()})
	assert.Error(t, metrics.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
}
