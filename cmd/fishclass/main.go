package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fishing-classifier/internal/cfg"
	"fishing-classifier/internal/metrics"
	"fishing-classifier/internal/pipeline"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if code := run(); code != 0 {
		os.Exit(code)
	}
}

func run() int {
	// Parse command line arguments
	var (
		dataPath   = flag.String("data", "", "Path to poll data (CSV, JSON lines, BoltDB directory or URL)")
		dataFormat = flag.String("format", "", "Data format: auto, csv, json, boltdb, http")
		outputPath = flag.String("output", "", "Output directory for reports")
		logLevel   = flag.String("log-level", "info", "Log level: debug, info, warn, error")
		startDate  = flag.String("start", "", "Window start (YYYY-MM-DD, UTC)")
		endDate    = flag.String("end", "", "Window end (YYYY-MM-DD, UTC, whole day included)")
		seed       = flag.Uint64("seed", 0, "Random seed (overrides config when non-zero)")
		refit      = flag.Bool("refit-on-test", false, "Refit range scaling on the test partition")
	)
	flag.Parse()

	// Setup logging
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("Failed to read .env file")
	}

	// Load configuration
	settings, err := cfg.Load()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load config")
		return 2
	}

	// Override config with command line arguments
	if *dataPath != "" {
		settings.DataPath = *dataPath
	}
	if *dataFormat != "" {
		settings.DataFormat = *dataFormat
	}
	if *outputPath != "" {
		settings.OutputPath = *outputPath
	}
	if *seed != 0 {
		settings.Seed = *seed
	}
	if *refit {
		settings.RefitOnTest = true
	}
	if *startDate != "" {
		if settings.From, err = cfg.ParseWindowStart(*startDate); err != nil {
			log.Error().Err(err).Msg("Invalid start date format")
			return 2
		}
	}
	if *endDate != "" {
		if settings.To, err = cfg.ParseWindowEnd(*endDate); err != nil {
			log.Error().Err(err).Msg("Invalid end date format")
			return 2
		}
	}
	if !settings.From.IsZero() && !settings.To.IsZero() && settings.From.After(settings.To) {
		log.Error().Time("start", settings.From).Time("end", settings.To).Msg("Window start is after window end")
		return 2
	}

	fmt.Println("=== Fishing Classifier Configuration ===")
	fmt.Printf("Data Path: %s (%s)\n", settings.DataPath, settings.DataFormat)
	fmt.Printf("Output Directory: %s\n", settings.OutputPath)
	fmt.Printf("Features: %v\n", settings.Features)
	fmt.Printf("Seed: %d, Train Fraction: %.2f, Folds: %d, Metric: %s\n",
		settings.Seed, settings.TrainFraction, settings.Folds, settings.Metric)
	fmt.Println("========================================")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := pipeline.NewRun(settings, metrics.New(), os.Stdout).Execute(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Run failed")
		return 1
	}

	log.Info().
		Str("output", settings.OutputPath).
		Int("train", result.Train.Len()).
		Int("test", result.Test.Len()).
		Msg("Run completed successfully")
	return 0
}
