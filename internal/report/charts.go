package report

import (
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"fishing-classifier/internal/dataset"
)

const (
	chartWidth  = 6 * vg.Inch
	chartHeight = 4 * vg.Inch
)

// generateClassCountsChart draws one pair of bars per split.
func (r *Reporter) generateClassCountsChart() error {
	if len(r.results.Splits) == 0 {
		return nil
	}
	names := r.classNames()

	p := plot.New()
	p.Title.Text = "Class counts per split"
	p.Y.Label.Text = "polls"

	width := vg.Points(14)
	splits := make([]string, len(r.results.Splits))
	for k, label := range []dataset.Label{dataset.Positive, dataset.Negative} {
		values := make(plotter.Values, len(r.results.Splits))
		for i, s := range r.results.Splits {
			values[i] = float64(s.Counts[label])
			splits[i] = s.Name
		}
		bars, err := plotter.NewBarChart(values, width)
		if err != nil {
			return fmt.Errorf("class count bars: %w", err)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(k)
		bars.Offset = width * vg.Length(2*k-1) / 2
		p.Add(bars)
		p.Legend.Add(names[label], bars)
	}
	p.Legend.Top = true
	p.NominalX(splits...)

	path := filepath.Join(r.outputPath, ClassCountsFile)
	if err := p.Save(chartWidth, chartHeight, path); err != nil {
		return fmt.Errorf("failed to save class count chart: %w", err)
	}
	log.Info().Str("file", path).Msg("Class count chart generated")
	return nil
}

// generateImportanceChart draws horizontal bars, most important on top.
func (r *Reporter) generateImportanceChart(m ModelReport) error {
	n := len(m.Importance)
	values := make(plotter.Values, n)
	labels := make([]string, n)
	for i, imp := range m.Importance {
		values[n-1-i] = imp.Score
		labels[n-1-i] = imp.Feature
	}

	p := plot.New()
	p.Title.Text = m.Fit.Family + " variable importance"
	p.X.Label.Text = "importance (sum 100)"

	bars, err := plotter.NewBarChart(values, vg.Points(12))
	if err != nil {
		return fmt.Errorf("importance bars: %w", err)
	}
	bars.Horizontal = true
	bars.LineStyle.Width = vg.Length(0)
	bars.Color = plotutil.Color(2)
	p.Add(bars)
	p.NominalY(labels...)

	path := filepath.Join(r.outputPath, ImportanceFile(m.Fit.Family))
	if err := p.Save(chartWidth, chartHeight, path); err != nil {
		return fmt.Errorf("failed to save importance chart: %w", err)
	}
	log.Info().Str("file", path).Str("family", m.Fit.Family).Msg("Importance chart generated")
	return nil
}
