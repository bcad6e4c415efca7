package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"fishing-classifier/internal/common"
	"fishing-classifier/internal/dataset"
	"fishing-classifier/internal/eval"
	"fishing-classifier/internal/features"
	"fishing-classifier/internal/metrics"
	"fishing-classifier/internal/ml"
	"fishing-classifier/internal/partition"
	"fishing-classifier/internal/report"
)

func countsOf(labels []dataset.Label, idx []int) [2]int {
	var c [2]int
	for _, i := range idx {
		c[labels[i]]++
	}
	return c
}

// partition draws the stratified train/test split and, separately, an
// exploratory fold assignment over all labeled rows.
func (r *Run) partition(context.Context) error {
	labels := r.labeled.Labels

	train, test, err := partition.StratifiedSplit(labels, r.settings.TrainFraction, r.rng)
	if err != nil {
		return err
	}
	folds, err := partition.StratifiedFolds(labels, r.settings.Folds, r.rng)
	if err != nil {
		return err
	}
	r.trainIx, r.testIx, r.folds = train, test, folds

	r.results.Splits = []report.Split{
		{Name: "all", Counts: r.labeled.ClassCounts()},
		{Name: "train", Counts: countsOf(labels, train)},
		{Name: "test", Counts: countsOf(labels, test)},
	}
	for _, res := range partition.FoldIndices(folds, r.settings.Folds) {
		r.results.Splits = append(r.results.Splits, report.Split{
			Name:   fmt.Sprintf("fold %d", res.Fold),
			Counts: countsOf(labels, res.Holdout),
		})
	}
	r.results.FoldSizes = partition.FoldSizes(folds, r.settings.Folds)

	log.Info().
		Int("train", len(train)).
		Int("test", len(test)).
		Ints("fold_sizes", r.results.FoldSizes).
		Msg("Data partitioned")
	return nil
}

// shape bins length and hour with cut points fitted on the training rows,
// then keeps the configured feature columns.
func (r *Run) shape(context.Context) error {
	trainRows := r.labeled.Subset(r.trainIx)

	frame := r.labeled
	for _, b := range []struct {
		src, dst string
		k        int
	}{
		{common.ColLength, common.ColLengthBin, r.settings.LenBins},
		{common.ColHour, common.ColHourBin, r.settings.HourBins},
	} {
		binner, err := features.NewBinner(b.k)
		if err != nil {
			return err
		}
		values, err := trainRows.Column(b.src)
		if err != nil {
			return err
		}
		if err := binner.Fit(values); err != nil {
			return fmt.Errorf("bin %s: %w", b.src, err)
		}
		if frame, err = features.BinColumn(frame, b.src, b.dst, binner); err != nil {
			return err
		}
		log.Debug().Str("column", b.src).Floats64("edges", binner.Edges()).Msg("Binned column")
	}

	shaped, err := frame.Select(r.settings.Features)
	if err != nil {
		return err
	}
	r.shaped = shaped
	r.results.Data = shaped
	return nil
}

// normalize fits range scaling on train and applies it to both partitions.
func (r *Run) normalize(context.Context) error {
	train := r.shaped.Subset(r.trainIx)
	test := r.shaped.Subset(r.testIx)

	scaler := features.NewRangeScaler()
	if err := scaler.Fit(train); err != nil {
		return err
	}
	scaledTrain, err := scaler.Transform(train)
	if err != nil {
		return err
	}

	testScaler := scaler
	if r.settings.RefitOnTest {
		log.Warn().Msg("Refitting range scaling on the test partition; test features no longer share the training scale")
		testScaler = features.NewRangeScaler()
		if err := testScaler.Fit(test); err != nil {
			return err
		}
	}
	scaledTest, err := testScaler.Transform(test)
	if err != nil {
		return err
	}

	r.train, r.test = scaledTrain, scaledTest
	r.results.Scaling = scaler.Ranges()

	r.results.Shifts = eval.CompareFrames(scaledTrain, scaledTest)
	for _, s := range r.results.Shifts {
		if s.Shifted() {
			log.Warn().
				Str("feature", s.Feature).
				Float64("psi", s.PSI).
				Float64("ks", s.KS).
				Str("severity", s.Severity).
				Msg("Feature distribution differs between train and test")
		}
	}
	return nil
}

func (r *Run) families() []ml.Family {
	n, t := r.settings.Network, r.settings.Trees
	return []ml.Family{
		ml.NetworkFamily{Sizes: n.Sizes, Decays: n.Decays, MaxIter: n.MaxIter, Rang: n.Rang},
		ml.TreeFamily{Depths: t.Depths, Trees: t.Trees, Shrinkages: t.Shrinkages, MinObs: t.MinObs, BagFraction: t.BagFraction},
	}
}

// trainModels tunes every family on the training partition, one after the
// other.
func (r *Run) trainModels(ctx context.Context) error {
	tuner := &ml.Tuner{
		Folds:   r.settings.Folds,
		Metric:  r.settings.Metric,
		Rand:    r.rng,
		Metrics: r.wrapper,
	}
	for _, fam := range r.families() {
		fit, err := tuner.Train(ctx, fam, r.train)
		if err != nil {
			return err
		}
		r.metrics.Dropped(metrics.ReasonIncomplete, fit.Dropped)
		r.metrics.BestCVScore.WithLabelValues(fit.Family, fit.Metric).Set(fit.BestResult().Mean)
		r.fits = append(r.fits, fit)
	}
	return nil
}

// evaluate scores the test partition with every fitted model.
func (r *Run) evaluate(context.Context) error {
	r.results.Models = r.results.Models[:0]
	for _, fit := range r.fits {
		probs, kept, err := fit.Predict(r.test)
		if err != nil {
			return fmt.Errorf("%s: %w", fit.Family, err)
		}
		cm, err := eval.Build(eval.Classify(probs, r.settings.Threshold), kept.Labels)
		if err != nil {
			return fmt.Errorf("%s: %w", fit.Family, err)
		}

		r.results.Models = append(r.results.Models, report.ModelReport{
			Fit:         fit,
			Confusion:   cm,
			TestRows:    kept.Len(),
			TestDropped: r.test.Len() - kept.Len(),
		})
		r.metrics.Evaluated(fit.Family, cm.F1(), cm.Accuracy())

		log.Info().
			Str("family", fit.Family).
			Int("tp", cm.TP).Int("fp", cm.FP).Int("fn", cm.FN).Int("tn", cm.TN).
			Float64("precision", cm.Precision()).
			Float64("recall", cm.Recall()).
			Float64("f1", cm.F1()).
			Msg("Model evaluated")
	}
	return nil
}

// diagnose computes importance rankings, prints the console tables and
// writes the output artifacts.
func (r *Run) diagnose(context.Context) error {
	for i := range r.results.Models {
		m := &r.results.Models[i]
		imp, err := ml.VarImp(m.Fit.Model)
		if err != nil {
			log.Warn().Err(err).Str("family", m.Fit.Family).Msg("No importance ranking")
		}
		m.Importance = imp

		perm, err := m.Fit.PermutationImportance(r.test, r.rng)
		if err != nil {
			log.Warn().Err(err).Str("family", m.Fit.Family).Msg("No permutation importance on test partition")
			continue
		}
		m.Permutation = perm
		if len(perm) > 0 {
			log.Info().
				Str("family", m.Fit.Family).
				Str("top", perm[0].Feature).
				Float64("score", perm[0].Score).
				Msg("Permutation importance computed")
		}
	}

	reporter := report.NewReporter(r.results, r.settings.OutputPath)
	if err := reporter.PrintSummary(r.out); err != nil {
		return err
	}
	if r.settings.OutputPath == "" {
		return nil
	}
	return reporter.GenerateReport()
}
