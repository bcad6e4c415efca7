package features

import (
	"fmt"
	"math"
	"slices"

	"fishing-classifier/internal/dataset"
)

// Range is the fitted min/max of one continuous column.
type Range struct {
	Column string
	Min    float64
	Max    float64
}

// RangeScaler rescales continuous columns to [0,1] using the min and max seen
// at fit time. Categorical columns pass through untouched.
type RangeScaler struct {
	ranges []Range
}

// NewRangeScaler creates an unfitted scaler.
func NewRangeScaler() *RangeScaler {
	return &RangeScaler{}
}

// Fit records the range of every continuous column of f, ignoring NaN cells.
func (s *RangeScaler) Fit(f *dataset.Frame) error {
	if f.Len() == 0 {
		return dataset.ErrEmpty
	}

	ranges := make([]Range, 0, f.Width())
	for j, c := range f.Columns {
		if c.Kind != dataset.Continuous {
			continue
		}
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, row := range f.Rows {
			v := row[j]
			if math.IsNaN(v) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		if math.IsInf(lo, 1) {
			return fmt.Errorf("column %q: %w", c.Name, ErrNoFiniteValues)
		}
		ranges = append(ranges, Range{Column: c.Name, Min: lo, Max: hi})
	}
	s.ranges = ranges
	return nil
}

// Ranges returns the fitted parameters in column order.
func (s *RangeScaler) Ranges() []Range {
	return slices.Clone(s.ranges)
}

// Transform returns a rescaled copy of f. Every fitted column must be present.
// A column that was constant at fit time maps to 0.
func (s *RangeScaler) Transform(f *dataset.Frame) (*dataset.Frame, error) {
	if s.ranges == nil {
		return nil, fmt.Errorf("range scaler is not fitted")
	}

	out := f.Clone()
	for _, r := range s.ranges {
		j := out.Index(r.Column)
		if j < 0 {
			return nil, fmt.Errorf("unknown column %q", r.Column)
		}
		if out.Columns[j].Kind != dataset.Continuous {
			return nil, fmt.Errorf("column %q is not continuous", r.Column)
		}
		span := r.Max - r.Min
		for _, row := range out.Rows {
			if math.IsNaN(row[j]) {
				continue
			}
			if span == 0 {
				row[j] = 0
				continue
			}
			row[j] = (row[j] - r.Min) / span
		}
	}
	return out, nil
}
