package dataset

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFrame(t *testing.T) *Frame {
	t.Helper()
	f := New([]Column{
		{Name: "speed", Kind: Continuous},
		{Name: "len_bin", Kind: Categorical, Levels: []string{"a", "b", "c"}},
		{Name: "depth", Kind: Continuous},
	}, [2]string{"notfishing", "fishing"})

	require.NoError(t, f.Append([]float64{1.5, 1, 100}, Positive))
	require.NoError(t, f.Append([]float64{7.0, 2, math.NaN()}, Negative))
	require.NoError(t, f.Append([]float64{0.5, 3, 80}, Positive))
	require.NoError(t, f.Append([]float64{9.0, 1, 60}, Negative))
	return f
}

func TestAppend_WidthMismatch(t *testing.T) {
	f := New([]Column{{Name: "x"}}, [2]string{"n", "p"})
	assert.Error(t, f.Append([]float64{1, 2}, Positive))
	assert.Equal(t, 0, f.Len())
}

func TestSelect(t *testing.T) {
	f := testFrame(t)

	sel, err := f.Select([]string{"depth", "speed"})
	require.NoError(t, err)

	assert.Equal(t, []string{"depth", "speed"}, sel.Names())
	assert.Equal(t, []float64{100, 1.5}, sel.Rows[0])
	assert.Equal(t, f.Labels, sel.Labels)

	_, err = f.Select([]string{"boat"})
	assert.Error(t, err)
}

func TestSubsetAndClone_AreIndependent(t *testing.T) {
	f := testFrame(t)

	sub := f.Subset([]int{2, 0})
	require.Equal(t, 2, sub.Len())
	assert.Equal(t, 0.5, sub.Rows[0][0])
	sub.Rows[0][0] = 42
	assert.Equal(t, 0.5, f.Rows[2][0], "subset must not alias the source")

	c := f.Clone()
	c.Columns[1].Levels[0] = "z"
	assert.Equal(t, "a", f.Columns[1].Levels[0])
}

func TestDropIncomplete(t *testing.T) {
	f := testFrame(t)

	complete, dropped := f.DropIncomplete()
	assert.Equal(t, 1, dropped)
	assert.Equal(t, 3, complete.Len())
	assert.Equal(t, [2]int{1, 2}, complete.ClassCounts())
}

func TestMatrixAndTargets(t *testing.T) {
	f := testFrame(t)

	m, err := f.Matrix()
	require.NoError(t, err)
	r, c := m.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, 80.0, m.At(2, 2))

	assert.Equal(t, []float64{1, 0, 1, 0}, f.Targets())

	_, err = New(f.Columns, f.ClassNames).Matrix()
	assert.True(t, errors.Is(err, ErrEmpty))
}

func TestColumn(t *testing.T) {
	f := testFrame(t)

	speeds, err := f.Column("speed")
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 7.0, 0.5, 9.0}, speeds)

	_, err = f.Column("missing")
	assert.Error(t, err)
	assert.Equal(t, -1, f.Index("missing"))
}
