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
	_ "time/tzdata"

	"fishing-classifier/internal/cfg"
	"fishing-classifier/internal/common"
	"fishing-classifier/internal/ingest"
	"fishing-classifier/internal/storage"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if code := run(os.Args[1:]); code != 0 {
		os.Exit(code)
	}
}

func run(args []string) int {
	fl := flag.NewFlagSet("fishimport", flag.ContinueOnError)
	var (
		source   = fl.String("source", "", "Poll file (CSV or JSON lines) or http(s) URL to import")
		format   = fl.String("format", common.FormatAuto, "Source format: auto, csv, json, http")
		dbPath   = fl.String("db", "data", "BoltDB directory to import into")
		logLevel = fl.String("log-level", "info", "Log level: debug, info, warn, error")
	)
	if err := fl.Parse(args); err != nil {
		return 2
	}

	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("Failed to read .env file")
	}

	settings, err := cfg.Load()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load config")
		return 2
	}
	if *source == "" {
		*source = settings.DataPath
	}
	if *format == common.FormatBoltDB {
		log.Error().Msg("Source must be a file or URL, not a BoltDB store")
		return 2
	}

	loc, err := settings.Location()
	if err != nil {
		log.Error().Err(err).Str("zone", settings.LocalZone).Msg("Invalid local time zone")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader := ingest.NewLoader(loc, settings.HTTPTimeout)
	if err := ingest.Load(ctx, loader, *source, *format, time.Time{}, time.Time{}); err != nil {
		log.Error().Err(err).Str("source", *source).Msg("Failed to load polls")
		return 1
	}

	total, err := importPolls(*dbPath, loader.Polls())
	if err != nil {
		log.Error().Err(err).Str("db", *dbPath).Msg("Failed to store polls")
		return 1
	}

	log.Info().
		Str("source", *source).
		Str("db", *dbPath).
		Int("imported", loader.Count()).
		Int("skipped", loader.Skipped()).
		Int("total", total).
		Msg("Import complete")
	return 0
}

// importPolls writes polls into the store under dbPath, creating the
// directory if needed, and returns the number of polls the store now holds.
func importPolls(dbPath string, polls []storage.Poll) (int, error) {
	if err := os.MkdirAll(dbPath, 0o755); err != nil {
		return 0, err
	}
	store, err := storage.New(dbPath)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	if err := store.StorePolls(polls); err != nil {
		return 0, fmt.Errorf("store polls: %w", err)
	}
	return store.CountPolls()
}
