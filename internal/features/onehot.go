package features

import (
	"math"

	"fishing-classifier/internal/dataset"
)

// OneHot expands categorical columns into treatment-coded indicator columns:
// a column with L levels becomes L-1 indicators, the first level being the
// baseline. Continuous columns are copied as they are.
type OneHot struct{}

// Names returns the expanded column names for f.
func (OneHot) Names(f *dataset.Frame) []string {
	var names []string
	for _, c := range f.Columns {
		if c.Kind != dataset.Categorical {
			names = append(names, c.Name)
			continue
		}
		if len(c.Levels) < 2 {
			continue
		}
		for _, level := range c.Levels[1:] {
			names = append(names, c.Name+level)
		}
	}
	return names
}

// Transform returns the expanded, all-continuous frame. A missing categorical
// cell yields NaN in each of its indicators.
func (o OneHot) Transform(f *dataset.Frame) *dataset.Frame {
	names := o.Names(f)
	cols := make([]dataset.Column, len(names))
	for i, n := range names {
		cols[i] = dataset.Column{Name: n, Kind: dataset.Continuous}
	}

	out := dataset.New(cols, f.ClassNames)
	out.Rows = make([][]float64, len(f.Rows))
	out.Labels = append([]dataset.Label(nil), f.Labels...)
	for i, row := range f.Rows {
		r := make([]float64, 0, len(cols))
		for j, c := range f.Columns {
			v := row[j]
			if c.Kind != dataset.Categorical {
				r = append(r, v)
				continue
			}
			for level := 2; level <= len(c.Levels); level++ {
				switch {
				case math.IsNaN(v):
					r = append(r, math.NaN())
				case int(v) == level:
					r = append(r, 1)
				default:
					r = append(r, 0)
				}
			}
		}
		out.Rows[i] = r
	}
	return out
}
