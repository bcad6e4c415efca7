package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fishing-classifier/internal/common"
	"fishing-classifier/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `utc_date,local_time,fishing,len,boat,hour,bearing.rad,speed,bottom_depth
2012-01-02 10:00:00,2012-01-02 02:00:00,1,18.2,501,2,1.57,2.1,120
2012-01-01 10:00:00,2012-01-01 02:00:00,0,22.0,502,2,0.10,9.3,NA
not-a-date,2012-01-01 02:00:00,0,22.0,502,2,0.10,9.3,80
2012-01-03 10:00:00,,NA,19.0,503,2,3.00,1.0,95
`

func pacific(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)
	return loc
}

func TestLoadFromReader(t *testing.T) {
	l := NewLoader(pacific(t), time.Second)

	err := l.LoadFromReader(strings.NewReader(sampleCSV), "inline")
	require.NoError(t, err)

	assert.Equal(t, 3, l.Count())
	assert.Equal(t, 1, l.Skipped(), "row with malformed timestamp is skipped")

	polls := l.Polls()
	// Sorted by UTC time
	assert.Equal(t, "502", polls[0].Boat)
	assert.Equal(t, "501", polls[1].Boat)
	assert.Equal(t, "503", polls[2].Boat)

	assert.True(t, math.IsNaN(polls[0].BottomDepth), "NA cell becomes NaN")
	assert.True(t, math.IsNaN(polls[2].Fishing), "NA flag becomes NaN")
	assert.Equal(t, 1.57, polls[1].Bearing)

	// local_time is interpreted in the configured zone
	assert.Equal(t, polls[1].UTC.Unix(), polls[1].Local.Unix())
	// missing local_time falls back to the UTC instant in the zone
	assert.Equal(t, "America/Los_Angeles", polls[2].Local.Location().String())
	assert.Equal(t, polls[2].UTC.Unix(), polls[2].Local.Unix())

	assert.Equal(t, time.Date(2012, 1, 1, 10, 0, 0, 0, time.UTC), l.StartTime)
	assert.Equal(t, time.Date(2012, 1, 3, 10, 0, 0, 0, time.UTC), l.EndTime)
}

func TestLoadFromReader_MissingColumn(t *testing.T) {
	l := NewLoader(time.UTC, time.Second)

	err := l.LoadFromReader(strings.NewReader("utc_date,fishing\n2012-01-01 00:00:00,1\n"), "inline")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestLoadFromReader_RaggedRow(t *testing.T) {
	l := NewLoader(time.UTC, time.Second)

	ragged := "utc_date,fishing,len,hour,bearing.rad,speed,bottom_depth\n2012-01-01 00:00:00,1,2\n"
	err := l.LoadFromReader(strings.NewReader(ragged), "inline")
	assert.Error(t, err)
}

func TestLoadFromCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "polls.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	l := NewLoader(time.UTC, time.Second)
	require.NoError(t, l.LoadFromCSV(path))
	assert.Equal(t, 3, l.Count())

	assert.Error(t, l.LoadFromCSV(filepath.Join(t.TempDir(), "absent.csv")))
}

func TestLoadFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/polls.csv" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	l := NewLoader(time.UTC, 5*time.Second)
	require.NoError(t, l.LoadFromURL(context.Background(), srv.URL+"/polls.csv"))
	assert.Equal(t, 3, l.Count())

	err := l.LoadFromURL(context.Background(), srv.URL+"/missing.csv")
	assert.Error(t, err)
}

func TestLoadFromJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "polls.jsonl")
	f, err := os.Create(path)
	require.NoError(t, err)

	enc := json.NewEncoder(f)
	base := time.Date(2012, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		p := storage.Poll{
			UTC: base.Add(time.Duration(3-i) * time.Hour), Fishing: float64(i % 2),
			Length: 20, Boat: "x", Hour: 1, Bearing: 0.5, Speed: 3, BottomDepth: math.NaN(),
		}
		require.NoError(t, enc.Encode(p))
	}
	require.NoError(t, f.Close())

	l := NewLoader(time.UTC, time.Second)
	require.NoError(t, l.LoadFromJSON(path))
	require.Equal(t, 4, l.Count())
	assert.True(t, l.Polls()[0].UTC.Before(l.Polls()[3].UTC))
	assert.True(t, math.IsNaN(l.Polls()[0].BottomDepth))
}

func TestLoad_AutoDetect(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "polls.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(sampleCSV), 0o644))

	l := NewLoader(time.UTC, time.Second)
	require.NoError(t, Load(context.Background(), l, csvPath, common.FormatAuto, time.Time{}, time.Time{}))
	assert.Equal(t, 3, l.Count())

	// Directory is treated as a BoltDB store
	storeDir := filepath.Join(dir, "store")
	require.NoError(t, os.Mkdir(storeDir, 0o755))
	store, err := storage.New(storeDir)
	require.NoError(t, err)
	require.NoError(t, store.StorePolls(l.Polls()))
	require.NoError(t, store.Close())

	fromStore := NewLoader(time.UTC, time.Second)
	require.NoError(t, Load(context.Background(), fromStore, storeDir, common.FormatAuto,
		time.Date(2012, 1, 2, 0, 0, 0, 0, time.UTC), time.Time{}))
	assert.Equal(t, 2, fromStore.Count())

	unknown := filepath.Join(dir, "polls.parquet")
	require.NoError(t, os.WriteFile(unknown, []byte("x"), 0o644))
	assert.Error(t, Load(context.Background(), NewLoader(time.UTC, time.Second), unknown, common.FormatAuto, time.Time{}, time.Time{}))
}

func TestDetectFormat(t *testing.T) {
	format, err := detectFormat("https://example.org/polls.csv")
	require.NoError(t, err)
	assert.Equal(t, common.FormatHTTP, format)

	_, err = detectFormat(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
