package ingest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"fishing-classifier/internal/common"
	"fishing-classifier/internal/storage"
)

// Load reads path using the given format. FormatAuto detects the source:
// http(s) URLs are downloaded, directories are opened as a BoltDB store and
// files are dispatched on extension.
func Load(ctx context.Context, l *Loader, path, format string, from, to time.Time) error {
	if format == common.FormatAuto {
		detected, err := detectFormat(path)
		if err != nil {
			return err
		}
		format = detected
	}

	switch format {
	case common.FormatCSV:
		return l.LoadFromCSV(path)
	case common.FormatJSON:
		return l.LoadFromJSON(path)
	case common.FormatHTTP:
		return l.LoadFromURL(ctx, path)
	case common.FormatBoltDB:
		store, err := storage.New(path)
		if err != nil {
			return fmt.Errorf("failed to open BoltDB: %w", err)
		}
		defer store.Close()
		return l.LoadFromStore(store, from, to)
	default:
		return fmt.Errorf("unknown data format: %s", format)
	}
}

func detectFormat(path string) (string, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return common.FormatHTTP, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat path: %w", err)
	}
	if info.IsDir() {
		return common.FormatBoltDB, nil
	}

	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".csv"), strings.HasSuffix(lower, ".txt"):
		return common.FormatCSV, nil
	case strings.HasSuffix(lower, ".json"), strings.HasSuffix(lower, ".jsonl"):
		return common.FormatJSON, nil
	default:
		return "", fmt.Errorf("cannot determine file format for: %s", path)
	}
}
