// Package dataset holds the in-memory feature table passed between pipeline
// stages. A Frame is column-typed (continuous or categorical), row-major, and
// carries the class label of every row alongside the features.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// ErrEmpty is returned when an operation needs at least one row.
var ErrEmpty = errors.New("dataset: no rows")

// Kind distinguishes continuous columns from categorical ones.
type Kind int

const (
	Continuous Kind = iota
	Categorical
)

func (k Kind) String() string {
	if k == Categorical {
		return "categorical"
	}
	return "continuous"
}

// Column describes one feature. Categorical values are stored as level codes
// 1..len(Levels).
type Column struct {
	Name   string
	Kind   Kind
	Levels []string
}

// Label is the binary class of a row: Positive is the event class.
type Label int

const (
	Negative Label = 0
	Positive Label = 1
)

// Frame is a labeled feature table. NaN marks a missing cell.
type Frame struct {
	Columns []Column
	Rows    [][]float64
	Labels  []Label
	// ClassNames maps Negative and Positive to display names.
	ClassNames [2]string
}

// New returns an empty frame with the given columns.
func New(columns []Column, classNames [2]string) *Frame {
	return &Frame{
		Columns:    slices.Clone(columns),
		ClassNames: classNames,
	}
}

// Append adds one row. The row length must match the column count.
func (f *Frame) Append(row []float64, label Label) error {
	if len(row) != len(f.Columns) {
		return fmt.Errorf("row has %d values, frame has %d columns", len(row), len(f.Columns))
	}
	f.Rows = append(f.Rows, row)
	f.Labels = append(f.Labels, label)
	return nil
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.Rows) }

// Width returns the number of columns.
func (f *Frame) Width() int { return len(f.Columns) }

// Index returns the position of the named column or -1.
func (f *Frame) Index(name string) int {
	for i, c := range f.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Names lists the column names in order.
func (f *Frame) Names() []string {
	names := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		names[i] = c.Name
	}
	return names
}

// Column returns a copy of the named column's values.
func (f *Frame) Column(name string) ([]float64, error) {
	j := f.Index(name)
	if j < 0 {
		return nil, fmt.Errorf("unknown column %q", name)
	}
	out := make([]float64, len(f.Rows))
	for i, row := range f.Rows {
		out[i] = row[j]
	}
	return out, nil
}

// Clone returns a deep copy.
func (f *Frame) Clone() *Frame {
	out := &Frame{
		Columns:    make([]Column, len(f.Columns)),
		Rows:       make([][]float64, len(f.Rows)),
		Labels:     slices.Clone(f.Labels),
		ClassNames: f.ClassNames,
	}
	for i, c := range f.Columns {
		out.Columns[i] = Column{Name: c.Name, Kind: c.Kind, Levels: slices.Clone(c.Levels)}
	}
	for i, row := range f.Rows {
		out.Rows[i] = slices.Clone(row)
	}
	return out
}

// Select returns a frame restricted to the named columns, in the given order.
func (f *Frame) Select(names []string) (*Frame, error) {
	idx := make([]int, len(names))
	cols := make([]Column, len(names))
	for k, name := range names {
		j := f.Index(name)
		if j < 0 {
			return nil, fmt.Errorf("unknown column %q", name)
		}
		idx[k] = j
		cols[k] = f.Columns[j]
	}

	out := New(cols, f.ClassNames)
	out.Rows = make([][]float64, len(f.Rows))
	for i, row := range f.Rows {
		r := make([]float64, len(idx))
		for k, j := range idx {
			r[k] = row[j]
		}
		out.Rows[i] = r
	}
	out.Labels = slices.Clone(f.Labels)
	return out, nil
}

// Subset returns the rows at idx, in order.
func (f *Frame) Subset(idx []int) *Frame {
	out := New(f.Columns, f.ClassNames)
	out.Rows = make([][]float64, len(idx))
	out.Labels = make([]Label, len(idx))
	for k, i := range idx {
		out.Rows[k] = slices.Clone(f.Rows[i])
		out.Labels[k] = f.Labels[i]
	}
	return out
}

// DropIncomplete returns the rows without missing cells and the number of
// rows removed.
func (f *Frame) DropIncomplete() (*Frame, int) {
	keep := make([]int, 0, len(f.Rows))
	for i, row := range f.Rows {
		if !slices.ContainsFunc(row, math.IsNaN) {
			keep = append(keep, i)
		}
	}
	return f.Subset(keep), len(f.Rows) - len(keep)
}

// Matrix returns the feature values as an n x p dense matrix.
func (f *Frame) Matrix() (*mat.Dense, error) {
	if len(f.Rows) == 0 {
		return nil, ErrEmpty
	}
	p := len(f.Columns)
	data := make([]float64, 0, len(f.Rows)*p)
	for _, row := range f.Rows {
		data = append(data, row...)
	}
	return mat.NewDense(len(f.Rows), p, data), nil
}

// Targets returns the labels as 0/1 floats.
func (f *Frame) Targets() []float64 {
	out := make([]float64, len(f.Labels))
	for i, l := range f.Labels {
		out[i] = float64(l)
	}
	return out
}

// ClassCounts returns the number of Negative and Positive rows.
func (f *Frame) ClassCounts() [2]int {
	var counts [2]int
	for _, l := range f.Labels {
		counts[l]++
	}
	return counts
}
