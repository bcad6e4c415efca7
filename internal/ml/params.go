package ml

import (
	"strconv"
	"strings"
)

// Param is one named hyperparameter value.
type Param struct {
	Name  string
	Value float64
}

// Params is an ordered set of hyperparameter values, in grid axis order.
type Params []Param

// Get returns the named value, or 0 when the name is absent.
func (p Params) Get(name string) float64 {
	for _, v := range p {
		if v.Name == name {
			return v.Value
		}
	}
	return 0
}

// Int returns the named value truncated to int.
func (p Params) Int(name string) int {
	return int(p.Get(name))
}

// With returns a copy of p with name set to value.
func (p Params) With(name string, value float64) Params {
	out := make(Params, len(p))
	copy(out, p)
	for i := range out {
		if out[i].Name == name {
			out[i].Value = value
			return out
		}
	}
	return append(out, Param{Name: name, Value: value})
}

// Without returns a copy of p lacking the named entries.
func (p Params) Without(names ...string) Params {
	out := make(Params, 0, len(p))
outer:
	for _, v := range p {
		for _, n := range names {
			if v.Name == n {
				continue outer
			}
		}
		out = append(out, v)
	}
	return out
}

func (p Params) String() string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = v.Name + "=" + strconv.FormatFloat(v.Value, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

// Axis is one tuned hyperparameter and the values it takes.
type Axis struct {
	Name   string
	Values []float64
}

// Grid is the cartesian product of its axes.
type Grid []Axis

// Size is the number of candidates Expand yields.
func (g Grid) Size() int {
	if len(g) == 0 {
		return 0
	}
	n := 1
	for _, a := range g {
		n *= len(a.Values)
	}
	return n
}

// Expand lists every combination. The last axis varies fastest, so the order
// is stable for a given grid.
func (g Grid) Expand() []Params {
	size := g.Size()
	if size == 0 {
		return nil
	}
	out := make([]Params, 0, size)
	idx := make([]int, len(g))
	for {
		p := make(Params, len(g))
		for i, a := range g {
			p[i] = Param{Name: a.Name, Value: a.Values[idx[i]]}
		}
		out = append(out, p)

		i := len(g) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(g[i].Values) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return out
		}
	}
}

// Floats converts ints for use as axis values.
func Floats[T ~int](values []T) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
