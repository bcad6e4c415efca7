package eval

import (
	"math"
	"testing"

	"fishing-classifier/internal/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repeat(l dataset.Label, n int) []dataset.Label {
	out := make([]dataset.Label, n)
	for i := range out {
		out[i] = l
	}
	return out
}

func concat(parts ...[]dataset.Label) []dataset.Label {
	var out []dataset.Label
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestBuild_Ratios(t *testing.T) {
	pos, neg := dataset.Positive, dataset.Negative
	pred := concat(repeat(pos, 40), repeat(pos, 10), repeat(neg, 20), repeat(neg, 130))
	actual := concat(repeat(pos, 40), repeat(neg, 10), repeat(pos, 20), repeat(neg, 130))

	cm, err := Build(pred, actual)
	require.NoError(t, err)
	assert.Equal(t, ConfusionMatrix{TP: 40, FP: 10, FN: 20, TN: 130}, cm)
	assert.Equal(t, 200, cm.Total())

	assert.InDelta(t, 0.8, cm.Precision(), 1e-12)
	assert.InDelta(t, 2.0/3.0, cm.Recall(), 1e-12)
	assert.InDelta(t, 0.7273, cm.F1(), 1e-4)
	assert.InDelta(t, 0.85, cm.Accuracy(), 1e-12)
	assert.Equal(t, [2][2]int{{40, 10}, {20, 130}}, cm.Table())
}

func TestBuild_LengthMismatch(t *testing.T) {
	_, err := Build(repeat(dataset.Positive, 3), repeat(dataset.Positive, 2))
	assert.Error(t, err)
}

func TestRatios_NoPredictedPositives(t *testing.T) {
	// an always-majority model on a 25/75 test set
	cm := ConfusionMatrix{TP: 0, FP: 0, FN: 50, TN: 150}

	assert.True(t, math.IsNaN(cm.Precision()))
	assert.Equal(t, 0.0, cm.Recall())
	assert.True(t, math.IsNaN(cm.F1()))
	assert.InDelta(t, 0.75, cm.Accuracy(), 1e-12)
}

func TestRatios_NoPositivesAtAll(t *testing.T) {
	cm := ConfusionMatrix{TN: 10}
	assert.True(t, math.IsNaN(cm.Recall()))
	assert.True(t, math.IsNaN(cm.F1()))
}

func TestClassify(t *testing.T) {
	got := Classify([]float64{0.1, 0.5, 0.51, 0.99}, 0.5)
	assert.Equal(t, []dataset.Label{dataset.Negative, dataset.Negative, dataset.Positive, dataset.Positive}, got)
}

func TestAUC(t *testing.T) {
	pos, neg := dataset.Positive, dataset.Negative

	tests := []struct {
		name   string
		probs  []float64
		labels []dataset.Label
		want   float64
	}{
		{"perfect", []float64{0.9, 0.8, 0.2, 0.1}, []dataset.Label{pos, pos, neg, neg}, 1},
		{"inverted", []float64{0.1, 0.2, 0.8, 0.9}, []dataset.Label{pos, pos, neg, neg}, 0},
		{"constant", []float64{0.5, 0.5, 0.5, 0.5}, []dataset.Label{pos, neg, pos, neg}, 0.5},
		{"one swap", []float64{0.9, 0.3, 0.4, 0.1}, []dataset.Label{pos, pos, neg, neg}, 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AUC(tt.probs, tt.labels)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestAUC_Errors(t *testing.T) {
	_, err := AUC([]float64{0.1, 0.2}, []dataset.Label{dataset.Positive, dataset.Positive})
	assert.ErrorIs(t, err, ErrOneClass)

	_, err = AUC(nil, nil)
	assert.ErrorIs(t, err, dataset.ErrEmpty)

	_, err = AUC([]float64{0.1}, nil)
	assert.Error(t, err)

	_, err = AUC([]float64{math.NaN(), 0.2}, []dataset.Label{dataset.Positive, dataset.Negative})
	assert.Error(t, err)
}
