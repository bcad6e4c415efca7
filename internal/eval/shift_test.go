package eval

import (
	"math"
	"testing"

	"fishing-classifier/internal/dataset"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shiftFrame(t *testing.T, offset float64, n int) *dataset.Frame {
	t.Helper()
	f := dataset.New([]dataset.Column{
		{Name: "speed", Kind: dataset.Continuous},
		{Name: "hour_bin", Kind: dataset.Categorical, Levels: []string{"1", "2"}},
		{Name: "depth", Kind: dataset.Continuous},
	}, [2]string{"fishing", "notfishing"})
	for i := 0; i < n; i++ {
		depth := float64(i)
		if i%10 == 0 {
			depth = math.NaN()
		}
		require.NoError(t, f.Append([]float64{float64(i) + offset, float64(1 + i%2), depth}, dataset.Label(i%2)))
	}
	return f
}

func TestCompareFrames_Identical(t *testing.T) {
	f := shiftFrame(t, 0, 100)

	shifts := CompareFrames(f, f)
	require.Len(t, shifts, 2, "categorical columns are not compared")
	for _, s := range shifts {
		assert.InDelta(t, 0, s.KS, 1e-12, s.Feature)
		assert.InDelta(t, 0, s.PSI, 1e-12, s.Feature)
		assert.Equal(t, "none", s.Severity)
		assert.False(t, s.Shifted())
	}
}

func TestCompareFrames_DetectsLocationShift(t *testing.T) {
	base := shiftFrame(t, 0, 100)
	cur := shiftFrame(t, 50, 100)

	shifts := CompareFrames(base, cur)
	require.Len(t, shifts, 2)

	speed := shifts[0]
	assert.Equal(t, "speed", speed.Feature)
	assert.InDelta(t, 0.5, speed.KS, 0.011)
	assert.True(t, speed.Shifted())
	assert.NotEqual(t, "none", speed.Severity)

	assert.Equal(t, "depth", shifts[1].Feature)
	assert.False(t, shifts[1].Shifted(), "unshifted column")
}

func TestCompareFrames_DisjointSamples(t *testing.T) {
	base := shiftFrame(t, 0, 100)
	cur := shiftFrame(t, 1000, 100)

	speed := CompareFrames(base, cur)[0]
	assert.InDelta(t, 1, speed.KS, 1e-12)
	assert.Greater(t, speed.PSI, 3*ShiftThreshold)
	assert.Equal(t, "critical", speed.Severity)
	assert.True(t, speed.Shifted())
}

func TestPSI_EmptyBucketsCount(t *testing.T) {
	base := []float64{0, 1, 2, 3, 4}
	cur := []float64{5, 6, 7, 8, 9}
	assert.Greater(t, psi(base, cur), 1.0)
	assert.InDelta(t, 0, psi(base, base), 1e-12)
}

func TestCompareFrames_SkipsEmptyAndMissingColumns(t *testing.T) {
	base := shiftFrame(t, 0, 20)
	narrow, err := base.Select([]string{"depth"})
	require.NoError(t, err)

	shifts := CompareFrames(base, narrow)
	require.Len(t, shifts, 1)
	assert.Equal(t, "depth", shifts[0].Feature)

	empty := dataset.New(base.Columns, base.ClassNames)
	assert.Empty(t, CompareFrames(base, empty))
}

func TestSeverity(t *testing.T) {
	assert.Equal(t, "none", severity(0.05))
	assert.Equal(t, "medium", severity(0.15))
	assert.Equal(t, "high", severity(0.25))
	assert.Equal(t, "critical", severity(0.5))
}
