package report

import (
	"fmt"
	"math"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"

	"fishing-classifier/internal/dataset"
	"fishing-classifier/internal/features"
)

// titledTable prints its heading on a line of its own; go-pretty wraps
// table titles to the table width.
type titledTable struct {
	table.Writer
	title string
}

func (t titledTable) Render() string {
	return t.title + "\n" + t.Writer.Render()
}

func newTable(title string) titledTable {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	return titledTable{Writer: t, title: title}
}

func num(v float64) string {
	return fmt.Sprintf("%.4g", v)
}

// columnSummary is n, NA count, min, mean, median and max of one column.
type columnSummary struct {
	N, NA                  int
	Min, Mean, Median, Max float64
}

func summarizeColumn(values []float64) columnSummary {
	s := columnSummary{Min: math.NaN(), Mean: math.NaN(), Median: math.NaN(), Max: math.NaN()}
	present := make(stats.Float64Data, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) {
			s.NA++
			continue
		}
		present = append(present, v)
	}
	s.N = len(present)
	if s.N == 0 {
		return s
	}
	s.Min, _ = stats.Min(present)
	s.Mean, _ = stats.Mean(present)
	s.Median, _ = stats.Median(present)
	s.Max, _ = stats.Max(present)
	return s
}

func (r *Reporter) dataTable() string {
	f := r.results.Data
	if f == nil {
		return ""
	}
	t := newTable(fmt.Sprintf("Data summary (%d rows)", f.Len()))
	t.AppendHeader(table.Row{"Column", "Kind", "N", "NA", "Min", "Mean", "Median", "Max"})
	for _, c := range f.Columns {
		values, _ := f.Column(c.Name)
		s := summarizeColumn(values)
		if c.Kind == dataset.Categorical {
			t.AppendRow(table.Row{c.Name, fmt.Sprintf("%s (%d levels)", c.Kind, len(c.Levels)), s.N, s.NA, "", "", "", ""})
			continue
		}
		t.AppendRow(table.Row{c.Name, c.Kind.String(), s.N, s.NA, num(s.Min), num(s.Mean), num(s.Median), num(s.Max)})
	}
	counts := f.ClassCounts()
	t.AppendFooter(table.Row{"label", f.ClassNames[dataset.Positive], counts[dataset.Positive], "", f.ClassNames[dataset.Negative], counts[dataset.Negative], "", ""})
	return t.Render()
}

func (r *Reporter) splitTable() string {
	if len(r.results.Splits) == 0 {
		return ""
	}
	names := r.classNames()
	t := newTable("Class counts per split")
	t.AppendHeader(table.Row{"Split", names[dataset.Positive], names[dataset.Negative], "Total", names[dataset.Positive] + " %"})
	for _, s := range r.results.Splits {
		total := s.Counts[0] + s.Counts[1]
		t.AppendRow(table.Row{s.Name, s.Counts[dataset.Positive], s.Counts[dataset.Negative], total,
			fmt.Sprintf("%.1f", 100*float64(s.Counts[dataset.Positive])/float64(total))})
	}
	return t.Render()
}

func (r *Reporter) foldTable() string {
	if len(r.results.FoldSizes) == 0 {
		return ""
	}
	t := newTable("Cross-validation folds")
	t.AppendHeader(table.Row{"Fold", "Rows"})
	for i, n := range r.results.FoldSizes {
		t.AppendRow(table.Row{i + 1, n})
	}
	return t.Render()
}

func (r *Reporter) scalingTable() string {
	if len(r.results.Scaling) == 0 {
		return ""
	}
	t := newTable("Range scaling (fitted on train)")
	t.AppendHeader(table.Row{"Column", "Min", "Max"})
	for _, rg := range r.results.Scaling {
		t.AppendRow(table.Row{rg.Column, num(rg.Min), num(rg.Max)})
	}
	return t.Render()
}

func (r *Reporter) shiftTable() string {
	if len(r.results.Shifts) == 0 {
		return ""
	}
	t := newTable("Train/test distribution shift")
	t.AppendHeader(table.Row{"Column", "KS", "PSI", "Severity"})
	for _, s := range r.results.Shifts {
		t.AppendRow(table.Row{s.Feature, num(s.KS), num(s.PSI), s.Severity})
	}
	return t.Render()
}

func (r *Reporter) tuningTable(m ModelReport) string {
	fit := m.Fit
	t := newTable(fmt.Sprintf("%s tuning: %d-row training set, %s by cross-validation", fit.Family, fit.Rows, fit.Metric))

	header := table.Row{}
	for _, p := range fit.Best {
		header = append(header, p.Name)
	}
	header = append(header, fit.Metric, fit.Metric+" SD", "")
	t.AppendHeader(header)

	best := fit.Best.String()
	for _, res := range fit.Results {
		row := table.Row{}
		for _, p := range res.Params {
			row = append(row, num(p.Value))
		}
		mark := ""
		if res.Params.String() == best {
			mark = "*"
		}
		row = append(row, fmt.Sprintf("%.4f", res.Mean), fmt.Sprintf("%.4f", res.SD), mark)
		t.AppendRow(row)
	}
	return t.Render()
}

// confusionTable has predictions as rows and the reference as columns.
func (r *Reporter) confusionTable(m ModelReport) string {
	names := r.classNames()
	cells := m.Confusion.Table()
	t := newTable(fmt.Sprintf("%s confusion matrix (%d test rows, %d dropped)", m.Fit.Family, m.TestRows, m.TestDropped))
	t.AppendHeader(table.Row{"Prediction \\ Reference", names[dataset.Positive], names[dataset.Negative]})
	t.AppendRow(table.Row{names[dataset.Positive], cells[0][0], cells[0][1]})
	t.AppendRow(table.Row{names[dataset.Negative], cells[1][0], cells[1][1]})
	return t.Render()
}

func (r *Reporter) importanceTable(m ModelReport) string {
	t := newTable(m.Fit.Family + " variable importance")
	if len(m.Permutation) == 0 {
		t.AppendHeader(table.Row{"Feature", "Score"})
		for _, imp := range m.Importance {
			t.AppendRow(table.Row{imp.Feature, fmt.Sprintf("%.2f", imp.Score)})
		}
		return t.Render()
	}

	perm := make(map[string]float64, len(m.Permutation))
	for _, imp := range m.Permutation {
		perm[imp.Feature] = imp.Score
	}
	t.AppendHeader(table.Row{"Feature", "Score", "Permutation (test AUC drop)"})
	for _, imp := range m.Importance {
		cell := ""
		if v, ok := perm[imp.Feature]; ok {
			cell = fmt.Sprintf("%.2f", v)
		}
		t.AppendRow(table.Row{imp.Feature, fmt.Sprintf("%.2f", imp.Score), cell})
	}
	return t.Render()
}

func (r *Reporter) scoreTable() string {
	t := newTable("Test scores")
	t.AppendHeader(table.Row{"Model", "Precision", "Recall", "F1", "Accuracy"})
	for _, m := range r.results.Models {
		cm := m.Confusion
		t.AppendRow(table.Row{m.Fit.Family,
			fmt.Sprintf("%.3f", cm.Precision()),
			fmt.Sprintf("%.3f", cm.Recall()),
			fmt.Sprintf("%.3f", cm.F1()),
			fmt.Sprintf("%.3f", cm.Accuracy())})
	}
	return t.Render()
}

func (r *Reporter) classNames() [2]string {
	if r.results.Data != nil {
		return r.results.Data.ClassNames
	}
	return features.ClassNames
}
