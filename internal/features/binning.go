package features

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"

	"fishing-classifier/internal/dataset"

	"gonum.org/v1/gonum/floats"
)

// ErrNoFiniteValues is returned when a binner is fitted on data without a
// single finite value.
var ErrNoFiniteValues = errors.New("no finite values to fit")

// Binner cuts a continuous value into k equal-width, right-closed buckets
// numbered 1..k. The fitted range is widened by 0.1% of its span on both
// sides so the extremes fall inside the first and last bucket.
type Binner struct {
	k     int
	edges []float64
}

// NewBinner creates a binner with k buckets.
func NewBinner(k int) (*Binner, error) {
	if k < 2 {
		return nil, fmt.Errorf("bucket count must be at least 2, got %d", k)
	}
	return &Binner{k: k}, nil
}

// Fit computes the cut points from the finite values.
func (b *Binner) Fit(values []float64) error {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return ErrNoFiniteValues
	}

	lo, hi := floats.Min(finite), floats.Max(finite)
	dx := hi - lo
	if dx == 0 {
		dx = math.Abs(lo)
		if dx == 0 {
			dx = 1
		}
	}

	edges := make([]float64, b.k+1)
	floats.Span(edges, lo, hi)
	if hi == lo {
		floats.Span(edges, lo-dx/1000, hi+dx/1000)
	} else {
		edges[0] = lo - dx/1000
		edges[b.k] = hi + dx/1000
	}
	b.edges = edges
	return nil
}

// Edges returns the k+1 cut points.
func (b *Binner) Edges() []float64 {
	return slices.Clone(b.edges)
}

// Buckets returns the bucket count.
func (b *Binner) Buckets() int {
	return b.k
}

// Apply returns the bucket id of v. NaN stays NaN; values beyond the fitted
// range clamp to the first or last bucket.
func (b *Binner) Apply(v float64) float64 {
	if math.IsNaN(v) {
		return math.NaN()
	}
	for i := 1; i < len(b.edges); i++ {
		if v <= b.edges[i] {
			return float64(i)
		}
	}
	return float64(b.k)
}

// Levels returns interval labels such as "(2.5,7.25]".
func (b *Binner) Levels() []string {
	levels := make([]string, b.k)
	for i := 0; i < b.k; i++ {
		levels[i] = "(" + formatEdge(b.edges[i]) + "," + formatEdge(b.edges[i+1]) + "]"
	}
	return levels
}

func formatEdge(v float64) string {
	return strconv.FormatFloat(v, 'g', 3, 64)
}

// BinColumn returns a copy of f with a categorical column dst holding the
// bucket of column src.
func BinColumn(f *dataset.Frame, src, dst string, b *Binner) (*dataset.Frame, error) {
	j := f.Index(src)
	if j < 0 {
		return nil, fmt.Errorf("unknown column %q", src)
	}
	if b.edges == nil {
		return nil, fmt.Errorf("binner for %q is not fitted", src)
	}

	cols := append(slices.Clone(f.Columns), dataset.Column{Name: dst, Kind: dataset.Categorical, Levels: b.Levels()})
	out := dataset.New(cols, f.ClassNames)
	out.Rows = make([][]float64, len(f.Rows))
	for i, row := range f.Rows {
		r := make([]float64, len(row), len(row)+1)
		copy(r, row)
		out.Rows[i] = append(r, b.Apply(row[j]))
	}
	out.Labels = slices.Clone(f.Labels)
	return out, nil
}
