// Package pipeline runs the fishing classifier end to end: ingest polls,
// label and shape them, partition, normalize, tune both model families,
// evaluate on the held-out set and render diagnostics.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"fishing-classifier/internal/cfg"
	"fishing-classifier/internal/dataset"
	"fishing-classifier/internal/features"
	"fishing-classifier/internal/ingest"
	"fishing-classifier/internal/metrics"
	"fishing-classifier/internal/ml"
	"fishing-classifier/internal/partition"
	"fishing-classifier/internal/report"
	"fishing-classifier/internal/storage"
)

// Stage names, as logged and recorded in metrics.
const (
	StageIngest    = "ingest"
	StageLabel     = "label"
	StagePartition = "partition"
	StageShape     = "shape"
	StageNormalize = "normalize"
	StageTrain     = "train"
	StageEvaluate  = "evaluate"
	StageDiagnose  = "diagnose"
)

// Result is what a run produced.
type Result struct {
	*report.Results

	// Train and Test are the normalized partitions the models saw.
	Train *dataset.Frame
	Test  *dataset.Frame
	// Folds holds the exploratory fold id of every shaped row.
	Folds []int
}

// Model returns the report of the named family, or nil.
func (r *Result) Model(family string) *report.ModelReport {
	for i := range r.Models {
		if r.Models[i].Fit.Family == family {
			return &r.Models[i]
		}
	}
	return nil
}

// Run carries the whole state of one execution. A Run is used once; every
// table it builds lives only inside it.
type Run struct {
	settings cfg.Settings
	metrics  *metrics.Metrics
	wrapper  *metrics.MetricsWrapper
	rng      *rand.Rand
	out      io.Writer

	polls   []storage.Poll
	labeled *dataset.Frame
	shaped  *dataset.Frame
	trainIx []int
	testIx  []int
	folds   []int
	train   *dataset.Frame
	test    *dataset.Frame
	fits    []*ml.Fit
	results *report.Results
}

// NewRun creates a fresh run. Console tables go to out; nil means stdout.
func NewRun(settings cfg.Settings, m *metrics.Metrics, out io.Writer) *Run {
	if m == nil {
		m = metrics.New()
	}
	if out == nil {
		out = os.Stdout
	}
	return &Run{
		settings: settings,
		metrics:  m,
		wrapper:  metrics.NewWrapper(m),
		rng:      partition.NewRand(settings.Seed),
		out:      out,
		results: &report.Results{
			Source:      settings.DataPath,
			RefitOnTest: settings.RefitOnTest,
			Threshold:   settings.Threshold,
		},
	}
}

// Execute runs every stage in order. The first failing stage aborts the run.
func (r *Run) Execute(ctx context.Context) (*Result, error) {
	start := time.Now()
	log.Info().
		Str("data", r.settings.DataPath).
		Uint64("seed", r.settings.Seed).
		Strs("features", r.settings.Features).
		Msg("Starting run")

	stages := []struct {
		name string
		fn   func(context.Context) error
	}{
		{StageIngest, r.ingest},
		{StageLabel, r.label},
		{StagePartition, r.partition},
		{StageShape, r.shape},
		{StageNormalize, r.normalize},
		{StageTrain, r.trainModels},
		{StageEvaluate, r.evaluate},
		{StageDiagnose, r.diagnose},
	}
	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.stage(ctx, s.name, s.fn); err != nil {
			return nil, err
		}
	}

	if r.settings.MetricsFile != "" {
		if err := r.metrics.WriteTextfile(r.settings.MetricsFile); err != nil {
			log.Warn().Err(err).Str("file", r.settings.MetricsFile).Msg("Failed to write metrics textfile")
		}
	}

	log.Info().Dur("elapsed", time.Since(start)).Msg("Run complete")
	return &Result{
		Results: r.results,
		Train:   r.train,
		Test:    r.test,
		Folds:   r.folds,
	}, nil
}

func (r *Run) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	r.wrapper.StageObserve(name, time.Since(start).Seconds())
	if err != nil {
		r.metrics.ErrorsTotal.Inc()
		return fmt.Errorf("%s: %w", name, err)
	}
	log.Debug().Str("stage", name).Dur("elapsed", time.Since(start)).Msg("Stage done")
	return nil
}

// ingest loads polls from the configured source.
func (r *Run) ingest(ctx context.Context) error {
	loc, err := r.settings.Location()
	if err != nil {
		return err
	}
	loader := ingest.NewLoader(loc, r.settings.HTTPTimeout)
	if err := ingest.Load(ctx, loader, r.settings.DataPath, r.settings.DataFormat, r.settings.From, r.settings.To); err != nil {
		return err
	}
	if loader.Count() == 0 {
		return fmt.Errorf("no polls in %s: %w", r.settings.DataPath, dataset.ErrEmpty)
	}

	r.polls = loader.Polls()
	r.results.Loaded = loader.Count() + loader.Skipped()
	r.results.Skipped = loader.Skipped()
	r.results.StartTime = loader.StartTime
	r.results.EndTime = loader.EndTime
	r.metrics.RowsLoaded.Add(float64(loader.Count()))
	r.metrics.Dropped(metrics.ReasonUnparsable, loader.Skipped())
	return nil
}

// label restricts polls to the time window and attaches the class.
func (r *Run) label(context.Context) error {
	windowed := features.FilterWindow(r.polls, r.settings.From, r.settings.To)
	r.results.OutOfWindow = len(r.polls) - len(windowed)

	frame, unlabeled := features.LabelPolls(windowed)
	r.results.Unlabeled = unlabeled
	r.metrics.Dropped(metrics.ReasonWindow, r.results.OutOfWindow)
	r.metrics.Dropped(metrics.ReasonUnlabeled, unlabeled)
	if frame.Len() == 0 {
		return fmt.Errorf("no labeled polls: %w", dataset.ErrEmpty)
	}

	counts := frame.ClassCounts()
	log.Info().
		Int("rows", frame.Len()).
		Int("out_of_window", r.results.OutOfWindow).
		Int("unlabeled", unlabeled).
		Int(features.ClassNames[dataset.Positive], counts[dataset.Positive]).
		Int(features.ClassNames[dataset.Negative], counts[dataset.Negative]).
		Msg("Polls labeled")
	r.labeled = frame
	return nil
}
