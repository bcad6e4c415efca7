package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"fishing-classifier/internal/common"
	"fishing-classifier/internal/sample"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		outPath = flag.String("out", common.DefaultDataPath, "CSV file to write")
		rows    = flag.Int("rows", 1000, "Number of polls to generate")
		share   = flag.Float64("share", 0.25, "Share of polls flagged as fishing")
		missing = flag.Float64("missing", 0, "Chance that a feature cell is missing")
		boats   = flag.Int("boats", 20, "Number of distinct vessels")
		zone    = flag.String("zone", common.DefaultLocalZone, "IANA zone of the local_time column")
		seed    = flag.Uint64("seed", common.DefaultSeed, "Random seed")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})

	if *rows <= 0 || *share < 0 || *share > 1 || *missing < 0 || *missing >= 1 {
		log.Fatal().Int("rows", *rows).Float64("share", *share).Float64("missing", *missing).Msg("Invalid generator settings")
	}
	loc, err := time.LoadLocation(*zone)
	if err != nil {
		log.Fatal().Err(err).Str("zone", *zone).Msg("Invalid time zone")
	}

	fmt.Printf("Generating sample polls...\n")
	fmt.Printf("  Rows: %d\n", *rows)
	fmt.Printf("  Fishing share: %.2f\n", *share)
	fmt.Printf("  Output: %s\n", *outPath)

	polls := sample.Generator{
		Rows:         *rows,
		FishingShare: *share,
		MissingRate:  *missing,
		Boats:        *boats,
		Zone:         loc,
		Seed:         *seed,
	}.Polls()

	if err := os.MkdirAll(filepath.Dir(*outPath), 0755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create output directory")
	}
	file, err := os.Create(*outPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create output file")
	}
	if err := sample.WriteCSV(file, polls); err != nil {
		file.Close()
		log.Fatal().Err(err).Msg("Failed to write polls")
	}
	if err := file.Close(); err != nil {
		log.Fatal().Err(err).Msg("Failed to close output file")
	}

	fmt.Printf("✓ Generated %d polls\n", len(polls))
}
