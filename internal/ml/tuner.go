package ml

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"fishing-classifier/internal/common"
	"fishing-classifier/internal/dataset"
	"fishing-classifier/internal/eval"
	"fishing-classifier/internal/partition"
)

// ErrNoCandidates is returned when a family's grid is empty.
var ErrNoCandidates = errors.New("empty tuning grid")

// Result is the cross-validated score of one candidate.
type Result struct {
	Params Params    `json:"params"`
	Mean   float64   `json:"mean"`
	SD     float64   `json:"sd"`
	Folds  []float64 `json:"folds"`
}

// Fit is the outcome of tuning one family: every candidate's score, the
// selected candidate and the model refit with it on all training rows.
type Fit struct {
	Family  string
	Metric  string
	Best    Params
	Model   Model
	Names   []string
	Results []Result
	Rows    int
	Dropped int

	family Family
}

// BestResult returns the score row of the selected candidate.
func (f *Fit) BestResult() Result {
	for _, r := range f.Results {
		if r.Params.String() == f.Best.String() {
			return r
		}
	}
	return Result{}
}

// Predict drops rows with missing cells from frame and scores the rest with
// the selected model. The returned frame holds the scored rows.
func (f *Fit) Predict(frame *dataset.Frame) ([]float64, *dataset.Frame, error) {
	complete, _ := frame.DropIncomplete()
	X, _, err := f.family.Design(complete)
	if err != nil {
		return nil, nil, err
	}
	return f.family.Score(f.Model, f.Best, X), complete, nil
}

// PermutationImportance ranks the design columns of the selected model by
// the AUC lost when each is shuffled in the complete rows of frame.
func (f *Fit) PermutationImportance(frame *dataset.Frame, rng *rand.Rand) ([]Importance, error) {
	complete, _ := frame.DropIncomplete()
	X, names, err := f.family.Design(complete)
	if err != nil {
		return nil, err
	}
	return PermutationImportance(f.Model, X, complete.Labels, names, rng)
}

// Tuner runs a grid search with stratified k-fold cross-validation.
type Tuner struct {
	Folds   int
	Metric  string
	Rand    *rand.Rand
	Metrics MetricsInterface
}

// Train drops incomplete rows of frame, scores every grid candidate of fam
// by mean held-out metric, keeps the best (earliest on ties) and refits it on
// all remaining rows. ctx is checked between fits.
func (t *Tuner) Train(ctx context.Context, fam Family, frame *dataset.Frame) (*Fit, error) {
	candidates := fam.Grid().Expand()
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%s: %w", fam.Name(), ErrNoCandidates)
	}

	complete, dropped := frame.DropIncomplete()
	if complete.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", fam.Name(), dataset.ErrEmpty)
	}
	if dropped > 0 {
		log.Info().Str("family", fam.Name()).Int("dropped", dropped).Msg("Dropped rows with missing values before fitting")
	}

	X, names, err := fam.Design(complete)
	if err != nil {
		return nil, fmt.Errorf("%s: design: %w", fam.Name(), err)
	}
	y := complete.Targets()

	folds, err := partition.StratifiedFolds(complete.Labels, t.Folds, t.Rand)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fam.Name(), err)
	}
	resamples := partition.FoldIndices(folds, t.Folds)

	// group candidates by fit key, keeping first-seen order
	var keys []string
	groups := make(map[string][]int)
	for i, p := range candidates {
		k := fam.FitKey(p)
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], i)
	}

	scores := make([][]float64, len(candidates))
	for _, r := range resamples {
		Xtr, ytr := rowsOf(X, r.Train), pick(y, r.Train)
		Xho, yho := rowsOf(X, r.Holdout), labelsAt(complete.Labels, r.Holdout)

		for _, k := range keys {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			members := groups[k]
			group := make([]Params, len(members))
			for i, c := range members {
				group[i] = candidates[c]
			}

			m, err := t.fit(fam, Xtr, ytr, names, fam.Widen(group))
			if err != nil {
				return nil, fmt.Errorf("%s fold %d: %w", fam.Name(), r.Fold, err)
			}
			for _, c := range members {
				s, err := t.score(fam.Score(m, candidates[c], Xho), yho)
				if err != nil {
					log.Warn().Err(err).Str("family", fam.Name()).Int("fold", r.Fold).Msg("Fold not scored")
					s = math.NaN()
				}
				scores[c] = append(scores[c], s)
			}
		}
	}

	results := make([]Result, len(candidates))
	best := -1
	for c, p := range candidates {
		results[c] = summarize(p, scores[c])
		if best < 0 || results[c].Mean > results[best].Mean || (math.IsNaN(results[best].Mean) && !math.IsNaN(results[c].Mean)) {
			best = c
		}
	}
	if t.Metrics != nil {
		t.Metrics.CandidatesInc(fam.Name(), len(candidates))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	model, err := t.fit(fam, X, y, names, candidates[best])
	if err != nil {
		return nil, fmt.Errorf("%s final fit: %w", fam.Name(), err)
	}

	log.Info().
		Str("family", fam.Name()).
		Str("best", candidates[best].String()).
		Float64("cv_"+t.metricName(), results[best].Mean).
		Int("candidates", len(candidates)).
		Int("rows", complete.Len()).
		Msg("Model tuned")

	return &Fit{
		Family:  fam.Name(),
		Metric:  t.metricName(),
		Best:    candidates[best],
		Model:   model,
		Names:   names,
		Results: results,
		Rows:    complete.Len(),
		Dropped: dropped,
		family:  fam,
	}, nil
}

func (t *Tuner) fit(fam Family, X *mat.Dense, y []float64, names []string, p Params) (Model, error) {
	start := time.Now()
	m, err := fam.Fit(X, y, names, p, t.Rand)
	if t.Metrics != nil {
		t.Metrics.FitDurationObserve(fam.Name(), time.Since(start).Seconds())
	}
	return m, err
}

func (t *Tuner) metricName() string {
	if t.Metric == "" {
		return common.MetricROC
	}
	return t.Metric
}

func (t *Tuner) score(probs []float64, actual []dataset.Label) (float64, error) {
	if t.metricName() == common.MetricAccuracy {
		cm, err := eval.Build(eval.Classify(probs, common.DefaultThreshold), actual)
		if err != nil {
			return math.NaN(), err
		}
		return cm.Accuracy(), nil
	}
	return eval.AUC(probs, actual)
}

// summarize averages the fold scores that are defined.
func summarize(p Params, folds []float64) Result {
	var ok []float64
	for _, s := range folds {
		if !math.IsNaN(s) {
			ok = append(ok, s)
		}
	}
	r := Result{Params: p, Folds: folds, Mean: math.NaN(), SD: math.NaN()}
	if len(ok) > 0 {
		r.Mean = stat.Mean(ok, nil)
	}
	if len(ok) > 1 {
		r.SD = stat.StdDev(ok, nil)
	}
	return r
}

func rowsOf(X *mat.Dense, idx []int) *mat.Dense {
	_, p := X.Dims()
	out := mat.NewDense(len(idx), p, nil)
	for k, i := range idx {
		out.SetRow(k, X.RawRowView(i))
	}
	return out
}

func pick(v []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for k, i := range idx {
		out[k] = v[i]
	}
	return out
}

func labelsAt(l []dataset.Label, idx []int) []dataset.Label {
	out := make([]dataset.Label, len(idx))
	for k, i := range idx {
		out[k] = l[i]
	}
	return out
}
