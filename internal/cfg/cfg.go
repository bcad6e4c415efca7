package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"fishing-classifier/internal/common"

	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

type Settings struct {
	DataPath      string
	DataFormat    string
	OutputPath    string
	LocalZone     string
	Seed          uint64
	From, To      time.Time
	Features      []string
	LenBins       int
	HourBins      int
	TrainFraction float64
	Folds         int
	Metric        string
	Threshold     float64
	RefitOnTest   bool
	Network       NetworkGrid
	Trees         TreeGrid
	MetricsFile   string
	HTTPTimeout   time.Duration
}

// NetworkGrid holds the single-hidden-layer network search space.
type NetworkGrid struct {
	Sizes   []int     `yaml:"sizes"`
	Decays  []float64 `yaml:"decays"`
	MaxIter int       `yaml:"maxIter"`
	Rang    float64   `yaml:"rang"`
}

// TreeGrid holds the boosted tree search space.
type TreeGrid struct {
	Depths      []int     `yaml:"depths"`
	Trees       []int     `yaml:"trees"`
	Shrinkages  []float64 `yaml:"shrinkages"`
	MinObs      []int     `yaml:"minObs"`
	BagFraction float64   `yaml:"bagFraction"`
}

type ConfigFile struct {
	Data struct {
		Path      string `yaml:"path"`
		Format    string `yaml:"format"`
		LocalZone string `yaml:"localZone"`
		From      string `yaml:"from"`
		To        string `yaml:"to"`
		Timeout   string `yaml:"httpTimeout"`
	} `yaml:"data"`

	Features struct {
		Columns  []string `yaml:"columns"`
		LenBins  int      `yaml:"lenBins"`
		HourBins int      `yaml:"hourBins"`
	} `yaml:"features"`

	Training struct {
		Seed          uint64      `yaml:"seed"`
		TrainFraction float64     `yaml:"trainFraction"`
		Folds         int         `yaml:"folds"`
		Metric        string      `yaml:"metric"`
		Threshold     float64     `yaml:"threshold"`
		RefitOnTest   bool        `yaml:"refitOnTest"`
		Network       NetworkGrid `yaml:"nnet"`
		Trees         TreeGrid    `yaml:"gbm"`
	} `yaml:"training"`

	Output struct {
		Path        string `yaml:"path"`
		MetricsFile string `yaml:"metricsFile"`
	} `yaml:"output"`
}

func Load() (Settings, error) {
	// Try to load from YAML file first
	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	httpTimeout, err := time.ParseDuration(config.Data.Timeout)
	if err != nil {
		httpTimeout = 30 * time.Second
	}

	from, err := ParseWindowStart(getEnvOrDefault(common.EnvFrom, config.Data.From))
	if err != nil {
		return Settings{}, fmt.Errorf("invalid window start: %w", err)
	}
	to, err := ParseWindowEnd(getEnvOrDefault(common.EnvTo, config.Data.To))
	if err != nil {
		return Settings{}, fmt.Errorf("invalid window end: %w", err)
	}

	net := config.Training.Network
	trees := config.Training.Trees

	settings := Settings{
		DataPath:      getEnvOrDefault(common.EnvDataPath, orString(config.Data.Path, common.DefaultDataPath)),
		DataFormat:    getEnvOrDefault(common.EnvDataFormat, orString(config.Data.Format, common.DefaultDataFormat)),
		OutputPath:    getEnvOrDefault(common.EnvOutputPath, orString(config.Output.Path, common.DefaultOutputPath)),
		LocalZone:     getEnvOrDefault(common.EnvLocalZone, orString(config.Data.LocalZone, common.DefaultLocalZone)),
		Seed:          getUintFromEnvOrConfig(common.EnvSeed, config.Training.Seed, common.DefaultSeed),
		From:          from,
		To:            to,
		Features:      getListFromEnvOrConfig(common.EnvFeatures, config.Features.Columns, common.DefaultFeatures),
		LenBins:       getIntFromEnvOrConfig(common.EnvLenBins, config.Features.LenBins, common.DefaultLenBins),
		HourBins:      getIntFromEnvOrConfig(common.EnvHourBins, config.Features.HourBins, common.DefaultHourBins),
		TrainFraction: getFloatFromEnvOrConfig(common.EnvTrainFraction, config.Training.TrainFraction, common.DefaultTrainFraction),
		Folds:         getIntFromEnvOrConfig(common.EnvFolds, config.Training.Folds, common.DefaultFolds),
		Metric:        getEnvOrDefault(common.EnvMetric, orString(config.Training.Metric, common.DefaultMetric)),
		Threshold:     getFloatFromEnvOrConfig(common.EnvThreshold, config.Training.Threshold, common.DefaultThreshold),
		RefitOnTest:   getBoolFromEnvOrConfig(common.EnvRefitOnTest, config.Training.RefitOnTest),
		Network: NetworkGrid{
			Sizes:   getIntsFromEnvOrConfig(common.EnvNetSizes, net.Sizes, common.DefaultNetSizes),
			Decays:  getFloatsFromEnvOrConfig(common.EnvNetDecays, net.Decays, common.DefaultNetDecays),
			MaxIter: getIntFromEnvOrConfig(common.EnvNetMaxIter, net.MaxIter, common.DefaultNetMaxIter),
			Rang:    orFloat(net.Rang, common.DefaultNetRang),
		},
		Trees: TreeGrid{
			Depths:      getIntsFromEnvOrConfig(common.EnvTreeDepths, trees.Depths, common.DefaultTreeDepths),
			Trees:       getIntsFromEnvOrConfig(common.EnvTreeCounts, trees.Trees, common.DefaultTreeCounts),
			Shrinkages:  getFloatsFromEnvOrConfig(common.EnvShrinkages, trees.Shrinkages, common.DefaultShrinkages),
			MinObs:      getIntsFromEnvOrConfig(common.EnvMinObs, trees.MinObs, common.DefaultMinObs),
			BagFraction: getFloatFromEnvOrConfig(common.EnvBagFraction, trees.BagFraction, common.DefaultBagFraction),
		},
		MetricsFile: getEnvOrDefault(common.EnvMetricsFile, config.Output.MetricsFile),
		HTTPTimeout: getDurationOrDefault(common.EnvHTTPTimeout, httpTimeout),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	from, err := ParseWindowStart(os.Getenv(common.EnvFrom))
	if err != nil {
		return Settings{}, fmt.Errorf("invalid window start: %w", err)
	}
	to, err := ParseWindowEnd(os.Getenv(common.EnvTo))
	if err != nil {
		return Settings{}, fmt.Errorf("invalid window end: %w", err)
	}

	settings := Settings{
		DataPath:      getEnvOrDefault(common.EnvDataPath, common.DefaultDataPath),
		DataFormat:    getEnvOrDefault(common.EnvDataFormat, common.DefaultDataFormat),
		OutputPath:    getEnvOrDefault(common.EnvOutputPath, common.DefaultOutputPath),
		LocalZone:     getEnvOrDefault(common.EnvLocalZone, common.DefaultLocalZone),
		Seed:          getUintFromEnvOrConfig(common.EnvSeed, 0, common.DefaultSeed),
		From:          from,
		To:            to,
		Features:      splitOrDefault(os.Getenv(common.EnvFeatures), common.DefaultFeatures),
		LenBins:       getIntOrDefault(common.EnvLenBins, common.DefaultLenBins),
		HourBins:      getIntOrDefault(common.EnvHourBins, common.DefaultHourBins),
		TrainFraction: getFloatOrDefault(common.EnvTrainFraction, common.DefaultTrainFraction),
		Folds:         getIntOrDefault(common.EnvFolds, common.DefaultFolds),
		Metric:        getEnvOrDefault(common.EnvMetric, common.DefaultMetric),
		Threshold:     getFloatOrDefault(common.EnvThreshold, common.DefaultThreshold),
		RefitOnTest:   getBoolOrDefault(common.EnvRefitOnTest, false),
		Network: NetworkGrid{
			Sizes:   getIntsFromEnvOrConfig(common.EnvNetSizes, nil, common.DefaultNetSizes),
			Decays:  getFloatsFromEnvOrConfig(common.EnvNetDecays, nil, common.DefaultNetDecays),
			MaxIter: getIntOrDefault(common.EnvNetMaxIter, common.DefaultNetMaxIter),
			Rang:    common.DefaultNetRang,
		},
		Trees: TreeGrid{
			Depths:      getIntsFromEnvOrConfig(common.EnvTreeDepths, nil, common.DefaultTreeDepths),
			Trees:       getIntsFromEnvOrConfig(common.EnvTreeCounts, nil, common.DefaultTreeCounts),
			Shrinkages:  getFloatsFromEnvOrConfig(common.EnvShrinkages, nil, common.DefaultShrinkages),
			MinObs:      getIntsFromEnvOrConfig(common.EnvMinObs, nil, common.DefaultMinObs),
			BagFraction: getFloatOrDefault(common.EnvBagFraction, common.DefaultBagFraction),
		},
		MetricsFile: os.Getenv(common.EnvMetricsFile), // optional
		HTTPTimeout: getDurationOrDefault(common.EnvHTTPTimeout, 30*time.Second),
	}

	// Validate configuration
	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// Location resolves LocalZone. Settings returned by Load always resolve.
func (s *Settings) Location() (*time.Location, error) {
	return time.LoadLocation(s.LocalZone)
}

// ParseWindowStart parses a YYYY-MM-DD window start as midnight UTC.
// An empty value is an open bound.
func ParseWindowStart(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(dateLayout, v, time.UTC)
}

// ParseWindowEnd parses a YYYY-MM-DD window end as the last instant of that
// day in UTC, so polls later on the end date stay inside the window.
func ParseWindowEnd(v string) (time.Time, error) {
	t, err := ParseWindowStart(v)
	if err != nil || t.IsZero() {
		return t, err
	}
	return t.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func orString(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func orFloat(v, def float64) float64 {
	if v != 0 {
		return v
	}
	return def
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitOrDefault(v string, def []string) []string {
	if v == "" {
		return append([]string(nil), def...)
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getListFromEnvOrConfig(key string, configValue, def []string) []string {
	if env := os.Getenv(key); env != "" {
		return splitOrDefault(env, def)
	}
	if len(configValue) > 0 {
		return configValue
	}
	return append([]string(nil), def...)
}

func getUintFromEnvOrConfig(key string, configValue, def uint64) uint64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseUint(env, 10, 64); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return def
}

func getIntFromEnvOrConfig(key string, configValue, def int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return def
}

func getFloatFromEnvOrConfig(key string, configValue, def float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return def
}

func getBoolFromEnvOrConfig(key string, configValue bool) bool {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseBool(env); err == nil {
			return val
		}
	}
	return configValue
}

func getIntsFromEnvOrConfig(key string, configValue, def []int) []int {
	if env := os.Getenv(key); env != "" {
		var out []int
		for _, p := range splitOrDefault(env, nil) {
			if val, err := strconv.Atoi(p); err == nil {
				out = append(out, val)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	if len(configValue) > 0 {
		return configValue
	}
	return append([]int(nil), def...)
}

func getFloatsFromEnvOrConfig(key string, configValue, def []float64) []float64 {
	if env := os.Getenv(key); env != "" {
		var out []float64
		for _, p := range splitOrDefault(env, nil) {
			if val, err := strconv.ParseFloat(p, 64); err == nil {
				out = append(out, val)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	if len(configValue) > 0 {
		return configValue
	}
	return append([]float64(nil), def...)
}

// validateSettings performs comprehensive validation of configuration values
func validateSettings(settings *Settings) error {
	if settings.DataPath == "" {
		return fmt.Errorf("data path cannot be empty")
	}
	switch settings.DataFormat {
	case common.FormatAuto, common.FormatCSV, common.FormatJSON, common.FormatBoltDB, common.FormatHTTP:
	default:
		return fmt.Errorf("unknown data format %q", settings.DataFormat)
	}
	if settings.OutputPath == "" {
		return fmt.Errorf("output path cannot be empty")
	}
	if _, err := settings.Location(); err != nil {
		return fmt.Errorf("unknown local time zone %q: %w", settings.LocalZone, err)
	}
	if !settings.From.IsZero() && !settings.To.IsZero() && settings.From.After(settings.To) {
		return fmt.Errorf("window start %s is after window end %s",
			settings.From.Format(dateLayout), settings.To.Format(dateLayout))
	}
	if settings.HTTPTimeout < time.Second || settings.HTTPTimeout > 10*time.Minute {
		return fmt.Errorf("HTTP timeout must be between 1s and 10m, got %v", settings.HTTPTimeout)
	}

	// Feature shaping
	if len(settings.Features) == 0 {
		return fmt.Errorf("at least one feature column must be specified")
	}
	if settings.LenBins < common.MinBins || settings.LenBins > common.MaxBins {
		return fmt.Errorf("length bins must be between %d and %d, got %d", common.MinBins, common.MaxBins, settings.LenBins)
	}
	if settings.HourBins < common.MinBins || settings.HourBins > common.MaxBins {
		return fmt.Errorf("hour bins must be between %d and %d, got %d", common.MinBins, common.MaxBins, settings.HourBins)
	}

	// Resampling and selection
	if settings.TrainFraction <= 0 || settings.TrainFraction >= 1 {
		return fmt.Errorf("train fraction must be between 0 and 1 (exclusive), got %f", settings.TrainFraction)
	}
	if settings.Folds < common.MinFolds || settings.Folds > common.MaxFolds {
		return fmt.Errorf("folds must be between %d and %d, got %d", common.MinFolds, common.MaxFolds, settings.Folds)
	}
	if settings.Metric != common.MetricROC && settings.Metric != common.MetricAccuracy {
		return fmt.Errorf("unknown selection metric %q", settings.Metric)
	}
	if settings.Threshold <= 0 || settings.Threshold >= 1 {
		return fmt.Errorf("classification threshold must be between 0 and 1 (exclusive), got %f", settings.Threshold)
	}

	// Network grid
	net := settings.Network
	if len(net.Sizes) == 0 || len(net.Decays) == 0 {
		return fmt.Errorf("network grid needs at least one size and one decay")
	}
	for _, s := range net.Sizes {
		if s <= 0 || s > common.MaxNetSize {
			return fmt.Errorf("network size must be between 1 and %d, got %d", common.MaxNetSize, s)
		}
	}
	for _, d := range net.Decays {
		if d < 0 {
			return fmt.Errorf("network decay cannot be negative, got %f", d)
		}
	}
	if net.MaxIter <= 0 || net.MaxIter > common.MaxNetIter {
		return fmt.Errorf("network max iterations must be between 1 and %d, got %d", common.MaxNetIter, net.MaxIter)
	}
	if net.Rang <= 0 {
		return fmt.Errorf("network initial weight range must be positive, got %f", net.Rang)
	}

	// Tree grid
	trees := settings.Trees
	if len(trees.Depths) == 0 || len(trees.Trees) == 0 || len(trees.Shrinkages) == 0 || len(trees.MinObs) == 0 {
		return fmt.Errorf("tree grid needs at least one depth, tree count, shrinkage and minimum node size")
	}
	for _, d := range trees.Depths {
		if d <= 0 || d > common.MaxTreeDepth {
			return fmt.Errorf("interaction depth must be between 1 and %d, got %d", common.MaxTreeDepth, d)
		}
	}
	for _, n := range trees.Trees {
		if n <= 0 || n > common.MaxTreeCount {
			return fmt.Errorf("tree count must be between 1 and %d, got %d", common.MaxTreeCount, n)
		}
	}
	for _, s := range trees.Shrinkages {
		if s <= 0 || s > 1 {
			return fmt.Errorf("shrinkage must be between 0 and 1, got %f", s)
		}
	}
	for _, m := range trees.MinObs {
		if m <= 0 {
			return fmt.Errorf("minimum node size must be positive, got %d", m)
		}
	}
	if trees.BagFraction <= 0 || trees.BagFraction > 1 {
		return fmt.Errorf("bag fraction must be between 0 and 1, got %f", trees.BagFraction)
	}

	return nil
}
