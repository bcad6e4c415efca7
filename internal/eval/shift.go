package eval

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"fishing-classifier/internal/dataset"
)

// ShiftThreshold is the PSI above which a column counts as shifted between
// two partitions.
const ShiftThreshold = 0.1

const (
	psiBins = 10
	// share given to an empty bucket
	psiFloor = 1e-4
)

// Shift compares the distribution of one continuous column in two frames.
type Shift struct {
	Feature  string
	KS       float64 // two-sample Kolmogorov-Smirnov distance
	PSI      float64 // population stability index, baseline = first frame
	Severity string
}

// Shifted reports whether the column moved past ShiftThreshold.
func (s Shift) Shifted() bool { return s.PSI > ShiftThreshold }

func severity(psi float64) string {
	switch {
	case psi > 3*ShiftThreshold:
		return "critical"
	case psi > 2*ShiftThreshold:
		return "high"
	case psi > ShiftThreshold:
		return "medium"
	default:
		return "none"
	}
}

func present(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}

// psi bins both samples into equal-width buckets over their joint range.
// Shares are floored at psiFloor.
func psi(base, cur []float64) float64 {
	lo := math.Min(base[0], cur[0])
	hi := math.Max(base[len(base)-1], cur[len(cur)-1])
	if hi == lo {
		return 0
	}
	width := (hi - lo) / psiBins

	count := func(values []float64) []float64 {
		bins := make([]float64, psiBins)
		for _, v := range values {
			b := int((v - lo) / width)
			if b >= psiBins {
				b = psiBins - 1
			}
			bins[b]++
		}
		for i := range bins {
			bins[i] = math.Max(bins[i]/float64(len(values)), psiFloor)
		}
		return bins
	}

	b, c := count(base), count(cur)
	total := 0.0
	for i := range b {
		total += (c[i] - b[i]) * math.Log(c[i]/b[i])
	}
	return total
}

// CompareFrames measures, for every continuous column of base also present
// in cur, how far the distribution in cur moved away from base. Columns
// with no observed values on either side are left out.
func CompareFrames(base, cur *dataset.Frame) []Shift {
	var out []Shift
	for _, c := range base.Columns {
		if c.Kind != dataset.Continuous || cur.Index(c.Name) < 0 {
			continue
		}
		bv, _ := base.Column(c.Name)
		cv, _ := cur.Column(c.Name)
		b, cc := present(bv), present(cv)
		if len(b) == 0 || len(cc) == 0 {
			continue
		}
		p := psi(b, cc)
		out = append(out, Shift{
			Feature:  c.Name,
			KS:       stat.KolmogorovSmirnov(b, nil, cc, nil),
			PSI:      p,
			Severity: severity(p),
		})
	}
	return out
}
