package cfg

import (
	"testing"
	"time"

	"fishing-classifier/internal/common"
)

// createValidSettings creates a valid Settings struct for testing
func createValidSettings() *Settings {
	return &Settings{
		DataPath:      "data/polls.csv",
		DataFormat:    common.FormatAuto,
		OutputPath:    "output",
		LocalZone:     "UTC",
		Seed:          1,
		Features:      []string{"len_bin", "speed"},
		LenBins:       5,
		HourBins:      4,
		TrainFraction: 0.8,
		Folds:         5,
		Metric:        common.MetricROC,
		Threshold:     0.5,
		Network: NetworkGrid{
			Sizes:   []int{1, 3},
			Decays:  []float64{0, 0.1},
			MaxIter: 100,
			Rang:    0.7,
		},
		Trees: TreeGrid{
			Depths:      []int{1, 3},
			Trees:       []int{50, 100},
			Shrinkages:  []float64{0.1},
			MinObs:      []int{10},
			BagFraction: 0.5,
		},
		HTTPTimeout: 30 * time.Second,
	}
}

func TestValidateSettings_ValidConfig(t *testing.T) {
	settings := createValidSettings()

	if err := validateSettings(settings); err != nil {
		t.Errorf("expected valid settings to pass validation, got: %v", err)
	}
}

func TestValidateSettings_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Settings)
	}{
		{"empty data path", func(s *Settings) { s.DataPath = "" }},
		{"unknown format", func(s *Settings) { s.DataFormat = "xml" }},
		{"empty output path", func(s *Settings) { s.OutputPath = "" }},
		{"unknown zone", func(s *Settings) { s.LocalZone = "Mars/Olympus" }},
		{"window reversed", func(s *Settings) {
			s.From = time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC)
			s.To = time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)
		}},
		{"timeout too short", func(s *Settings) { s.HTTPTimeout = time.Millisecond }},
		{"no features", func(s *Settings) { s.Features = nil }},
		{"one length bin", func(s *Settings) { s.LenBins = 1 }},
		{"too many hour bins", func(s *Settings) { s.HourBins = 101 }},
		{"zero train fraction", func(s *Settings) { s.TrainFraction = 0 }},
		{"full train fraction", func(s *Settings) { s.TrainFraction = 1 }},
		{"one fold", func(s *Settings) { s.Folds = 1 }},
		{"unknown metric", func(s *Settings) { s.Metric = "Kappa" }},
		{"threshold one", func(s *Settings) { s.Threshold = 1 }},
		{"empty network sizes", func(s *Settings) { s.Network.Sizes = nil }},
		{"zero network size", func(s *Settings) { s.Network.Sizes = []int{0} }},
		{"negative decay", func(s *Settings) { s.Network.Decays = []float64{-0.1} }},
		{"zero max iterations", func(s *Settings) { s.Network.MaxIter = 0 }},
		{"zero rang", func(s *Settings) { s.Network.Rang = 0 }},
		{"empty tree depths", func(s *Settings) { s.Trees.Depths = nil }},
		{"depth too large", func(s *Settings) { s.Trees.Depths = []int{21} }},
		{"zero trees", func(s *Settings) { s.Trees.Trees = []int{0} }},
		{"shrinkage above one", func(s *Settings) { s.Trees.Shrinkages = []float64{1.5} }},
		{"zero min obs", func(s *Settings) { s.Trees.MinObs = []int{0} }},
		{"zero bag fraction", func(s *Settings) { s.Trees.BagFraction = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := createValidSettings()
			tt.mutate(settings)

			if err := validateSettings(settings); err == nil {
				t.Errorf("expected validation error for %s", tt.name)
			}
		})
	}
}

func TestValidateSettings_BoundaryValues(t *testing.T) {
	settings := createValidSettings()
	settings.Network.Decays = []float64{0}
	settings.Trees.Shrinkages = []float64{1}
	settings.Trees.BagFraction = 1
	settings.Folds = common.MaxFolds
	settings.LenBins = common.MinBins

	if err := validateSettings(settings); err != nil {
		t.Errorf("expected boundary values to be accepted, got: %v", err)
	}
}
