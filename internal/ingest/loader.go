// Package ingest loads vessel polls into memory from the supported sources:
// a delimited file, an HTTP URL serving the same file, a JSON-lines export or
// the BoltDB poll store.
package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"fishing-classifier/internal/common"
	"fishing-classifier/internal/storage"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

var requiredColumns = []string{
	common.ColUTCDate, common.ColFishing, common.ColLength, common.ColHour,
	common.ColBearing, common.ColSpeed, common.ColBottomDepth,
}

// Loader accumulates polls from one or more sources.
type Loader struct {
	polls       []storage.Poll
	skipped     int
	local       *time.Location
	httpTimeout time.Duration
	StartTime   time.Time
	EndTime     time.Time
}

// NewLoader creates a loader that interprets the local_time column in loc.
func NewLoader(loc *time.Location, httpTimeout time.Duration) *Loader {
	if loc == nil {
		loc = time.UTC
	}
	if httpTimeout <= 0 {
		httpTimeout = 30 * time.Second
	}
	return &Loader{
		polls:       make([]storage.Poll, 0),
		local:       loc,
		httpTimeout: httpTimeout,
	}
}

// LoadFromCSV loads polls from a delimited file on disk.
func (l *Loader) LoadFromCSV(filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	return l.LoadFromReader(file, filePath)
}

// LoadFromURL downloads a delimited file and loads it.
func (l *Loader) LoadFromURL(ctx context.Context, url string) error {
	client := resty.New().SetTimeout(l.httpTimeout)

	resp, err := client.R().
		SetContext(ctx).
		SetHeader("Accept", "text/csv").
		Get(url)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if resp.IsError() {
		return fmt.Errorf("failed to fetch %s: HTTP %d", url, resp.StatusCode())
	}

	return l.LoadFromReader(bytes.NewReader(resp.Body()), url)
}

// LoadFromReader parses a delimited poll table. Rows with an unparseable UTC
// timestamp are skipped; missing numeric cells become NaN.
func (l *Loader) LoadFromReader(r io.Reader, source string) error {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	// Read header
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}

	// Map header indices
	indices := make(map[string]int)
	for i, col := range header {
		indices[strings.Trim(strings.TrimSpace(col), `"`)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := indices[col]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	loaded := 0
	skipped := 0
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		p, ok := l.parseRecord(record, indices)
		if !ok {
			skipped++
			continue
		}
		l.polls = append(l.polls, p)
		loaded++
	}
	l.skipped += skipped

	l.finish()

	log.Info().
		Str("source", source).
		Int("loaded", loaded).
		Int("skipped", skipped).
		Msg("CSV polls loaded")

	return nil
}

func (l *Loader) parseRecord(record []string, indices map[string]int) (storage.Poll, bool) {
	utc, err := time.ParseInLocation(common.TimestampLayout, strings.TrimSpace(record[indices[common.ColUTCDate]]), time.UTC)
	if err != nil {
		return storage.Poll{}, false
	}

	local := utc.In(l.local)
	if idx, ok := indices[common.ColLocalTime]; ok {
		if t, err := time.ParseInLocation(common.TimestampLayout, strings.TrimSpace(record[idx]), l.local); err == nil {
			local = t
		}
	}

	p := storage.Poll{
		UTC:         utc,
		Local:       local,
		Fishing:     parseCell(record[indices[common.ColFishing]]),
		Length:      parseCell(record[indices[common.ColLength]]),
		Hour:        parseCell(record[indices[common.ColHour]]),
		Bearing:     parseCell(record[indices[common.ColBearing]]),
		Speed:       parseCell(record[indices[common.ColSpeed]]),
		BottomDepth: parseCell(record[indices[common.ColBottomDepth]]),
	}
	if idx, ok := indices[common.ColBoat]; ok {
		p.Boat = strings.TrimSpace(record[idx])
	}
	return p, true
}

// parseCell turns a numeric cell into a float; empty, NA and malformed cells
// are missing.
func parseCell(s string) float64 {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "", "NA", "NAN", "NULL":
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// LoadFromJSON loads polls from a JSON-lines export (one poll per object).
func (l *Loader) LoadFromJSON(filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open JSON file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)

	loaded := 0
	for decoder.More() {
		var p storage.Poll
		if err := decoder.Decode(&p); err != nil {
			return fmt.Errorf("failed to decode poll %d: %w", loaded+1, err)
		}
		if p.UTC.IsZero() {
			l.skipped++
			continue
		}
		if p.Local.IsZero() {
			p.Local = p.UTC.In(l.local)
		}
		l.polls = append(l.polls, p)
		loaded++
	}

	l.finish()

	log.Info().
		Str("file", filePath).
		Int("loaded", loaded).
		Msg("JSON polls loaded")

	return nil
}

// LoadFromStore loads polls from BoltDB within [from, to]; zero bounds are open.
func (l *Loader) LoadFromStore(store *storage.Store, from, to time.Time) error {
	log.Info().
		Time("from", from).
		Time("to", to).
		Msg("Loading polls from BoltDB")

	polls, err := store.GetPolls(from, to)
	if err != nil {
		return fmt.Errorf("failed to load polls: %w", err)
	}
	l.polls = append(l.polls, polls...)

	l.finish()

	log.Info().
		Int("loaded", len(polls)).
		Time("data_start", l.StartTime).
		Time("data_end", l.EndTime).
		Msg("BoltDB polls loaded")

	return nil
}

func (l *Loader) finish() {
	// Sort data by timestamp
	sort.SliceStable(l.polls, func(i, j int) bool {
		return l.polls[i].UTC.Before(l.polls[j].UTC)
	})

	if len(l.polls) > 0 {
		l.StartTime = l.polls[0].UTC
		l.EndTime = l.polls[len(l.polls)-1].UTC
	}
}

// Polls returns the loaded polls ordered by UTC time.
func (l *Loader) Polls() []storage.Poll {
	return l.polls
}

// Count returns the number of loaded polls.
func (l *Loader) Count() int {
	return len(l.polls)
}

// Skipped returns the number of rows dropped while parsing.
func (l *Loader) Skipped() int {
	return l.skipped
}
