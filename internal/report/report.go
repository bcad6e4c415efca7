// Package report renders the human-readable artifacts of a run: console
// tables, a summary text file, class-count and variable-importance charts,
// and a diagram of the fitted network.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"fishing-classifier/internal/dataset"
	"fishing-classifier/internal/eval"
	"fishing-classifier/internal/features"
	"fishing-classifier/internal/ml"
)

// Output file names under the output directory.
const (
	SummaryFile     = "summary.txt"
	ClassCountsFile = "class_counts.png"
	NetworkFile     = "network.svg"
)

// ImportanceFile is the chart name for one model family.
func ImportanceFile(family string) string {
	return "importance_" + family + ".png"
}

// Split is the class count of one subset of the data.
type Split struct {
	Name   string
	Counts [2]int
}

// ModelReport gathers what a run learned about one model family.
type ModelReport struct {
	Fit         *ml.Fit
	Confusion   eval.ConfusionMatrix
	TestRows    int
	TestDropped int
	Importance  []ml.Importance
	// Permutation is the AUC drop per column on the test partition.
	Permutation []ml.Importance
}

// Results is everything the reporter renders.
type Results struct {
	Source      string
	StartTime   time.Time
	EndTime     time.Time
	Loaded      int
	Skipped     int
	Unlabeled   int
	OutOfWindow int
	RefitOnTest bool
	Threshold   float64

	// Data is the shaped table before partitioning.
	Data      *dataset.Frame
	Splits    []Split
	FoldSizes []int
	Scaling   []features.Range
	Shifts    []eval.Shift
	Models    []ModelReport
}

// Reporter writes the artifacts of one run
type Reporter struct {
	results    *Results
	outputPath string
}

// NewReporter creates a new reporter
func NewReporter(results *Results, outputPath string) *Reporter {
	return &Reporter{
		results:    results,
		outputPath: outputPath,
	}
}

// GenerateReport writes the summary file, the charts and the network diagram.
func (r *Reporter) GenerateReport() error {
	if err := os.MkdirAll(r.outputPath, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := r.generateSummary(); err != nil {
		return err
	}

	if err := r.generateClassCountsChart(); err != nil {
		return err
	}

	for _, m := range r.results.Models {
		if len(m.Importance) == 0 {
			continue
		}
		if err := r.generateImportanceChart(m); err != nil {
			return err
		}
	}

	for _, m := range r.results.Models {
		if nw, ok := m.Fit.Model.(*ml.Network); ok {
			if err := r.generateNetworkDiagram(nw); err != nil {
				return err
			}
		}
	}

	return nil
}

// PrintSummary writes the console tables to w.
func (r *Reporter) PrintSummary(w io.Writer) error {
	_, err := io.WriteString(w, r.Summary())
	return err
}

// Summary renders every table, in order.
func (r *Reporter) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "FISHING CLASSIFIER RUN\n")
	fmt.Fprintf(&b, "======================\n\n")
	fmt.Fprintf(&b, "Source: %s\n", r.results.Source)
	if !r.results.StartTime.IsZero() {
		fmt.Fprintf(&b, "Polls: %s to %s (UTC)\n",
			r.results.StartTime.Format("2006-01-02 15:04:05"),
			r.results.EndTime.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(&b, "Loaded: %d, skipped: %d, unlabeled: %d, outside window: %d\n",
		r.results.Loaded, r.results.Skipped, r.results.Unlabeled, r.results.OutOfWindow)
	if r.results.RefitOnTest {
		fmt.Fprintf(&b, "NOTE: test data was scaled with ranges refit on the test partition\n")
	}
	b.WriteString("\n")

	for _, section := range []string{
		r.dataTable(),
		r.splitTable(),
		r.foldTable(),
		r.scalingTable(),
		r.shiftTable(),
	} {
		if section == "" {
			continue
		}
		b.WriteString(section)
		b.WriteString("\n\n")
	}

	for _, m := range r.results.Models {
		b.WriteString(r.tuningTable(m))
		b.WriteString("\n\n")
		b.WriteString(r.confusionTable(m))
		b.WriteString("\n\n")
		if len(m.Importance) > 0 {
			b.WriteString(r.importanceTable(m))
			b.WriteString("\n\n")
		}
	}

	if len(r.results.Models) > 0 {
		b.WriteString(r.scoreTable())
		b.WriteString("\n")
	}
	return b.String()
}

func (r *Reporter) generateSummary() error {
	summaryPath := filepath.Join(r.outputPath, SummaryFile)
	if err := os.WriteFile(summaryPath, []byte(r.Summary()), 0644); err != nil {
		return fmt.Errorf("failed to write summary file: %w", err)
	}

	log.Info().Str("file", summaryPath).Msg("Summary report generated")
	return nil
}
