// Package features turns raw vessel polls into the model-ready feature table:
// labeling, time-window restriction, equal-width binning, range scaling and
// explicit one-hot expansion.
package features

import (
	"time"

	"fishing-classifier/internal/common"
	"fishing-classifier/internal/dataset"
	"fishing-classifier/internal/storage"
)

// ClassNames orders the display names by dataset.Label.
var ClassNames = [2]string{common.ClassNotFishing, common.ClassFishing}

// Label maps the binary fishing flag to a class. Any value other than 0 or 1
// (including a missing flag) has no class.
func Label(flag float64) (dataset.Label, bool) {
	switch flag {
	case 1:
		return dataset.Positive, true
	case 0:
		return dataset.Negative, true
	default:
		return 0, false
	}
}

// ClassName returns the display name of a label.
func ClassName(l dataset.Label) string {
	return ClassNames[l]
}

// FilterWindow keeps polls with from <= UTC <= to. Zero bounds are open.
func FilterWindow(polls []storage.Poll, from, to time.Time) []storage.Poll {
	if from.IsZero() && to.IsZero() {
		return polls
	}
	out := make([]storage.Poll, 0, len(polls))
	for _, p := range polls {
		if !from.IsZero() && p.UTC.Before(from) {
			continue
		}
		if !to.IsZero() && p.UTC.After(to) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// baseColumns are the raw numeric columns carried into the frame.
var baseColumns = []dataset.Column{
	{Name: common.ColLength, Kind: dataset.Continuous},
	{Name: common.ColHour, Kind: dataset.Continuous},
	{Name: common.ColBearing, Kind: dataset.Continuous},
	{Name: common.ColSpeed, Kind: dataset.Continuous},
	{Name: common.ColBottomDepth, Kind: dataset.Continuous},
}

// LabelPolls builds the labeled base frame. Polls without a valid class are
// dropped and counted.
func LabelPolls(polls []storage.Poll) (*dataset.Frame, int) {
	f := dataset.New(baseColumns, ClassNames)
	dropped := 0
	for _, p := range polls {
		label, ok := Label(p.Fishing)
		if !ok {
			dropped++
			continue
		}
		// Width always matches baseColumns.
		_ = f.Append([]float64{p.Length, p.Hour, p.Bearing, p.Speed, p.BottomDepth}, label)
	}
	return f, dropped
}
