package storage

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func samplePoll(boat string, utc time.Time) Poll {
	return Poll{
		UTC:         utc,
		Local:       utc.Add(-8 * time.Hour),
		Fishing:     1,
		Length:      18.5,
		Boat:        boat,
		Hour:        float64(utc.Hour()),
		Bearing:     1.2,
		Speed:       2.4,
		BottomDepth: 140,
	}
}

func TestNew(t *testing.T) {
	tempDir := t.TempDir()

	store, err := New(tempDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	if store.db == nil {
		t.Error("Store database is nil")
	}

	// Check if database file was created
	dbPath := filepath.Join(tempDir, "polls.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestNew_InvalidPath(t *testing.T) {
	invalidPath := filepath.Join(t.TempDir(), "missing", "nested")

	_, err := New(invalidPath)
	if err == nil {
		t.Error("Expected error for invalid path, got nil")
	}
}

func TestStore_Close(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Errorf("Error closing store: %v", err)
	}

	// Test closing already closed store
	if err := store.Close(); err != nil {
		t.Errorf("Error closing already closed store: %v", err)
	}
}

func TestStore_CloseNilDB(t *testing.T) {
	store := &Store{db: nil}
	if err := store.Close(); err != nil {
		t.Errorf("Expected no error for nil db, got: %v", err)
	}
}

func TestStore_ClosedOperations(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	store.Close()

	if err := store.StorePolls([]Poll{samplePoll("B001", time.Now())}); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from StorePolls, got: %v", err)
	}
	if _, err := store.GetPolls(time.Time{}, time.Time{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from GetPolls, got: %v", err)
	}
	if _, err := store.CountPolls(); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from CountPolls, got: %v", err)
	}
}

func TestGetPolls_Window(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	base := time.Date(2012, 6, 1, 12, 0, 0, 0, time.UTC)
	polls := []Poll{
		samplePoll("101", base.Add(2*time.Hour)),
		samplePoll("101", base),
		samplePoll("202", base.Add(time.Hour)),
		samplePoll("202", base.Add(48*time.Hour)), // Outside window
	}
	if err := store.StorePolls(polls); err != nil {
		t.Fatalf("Failed to store polls: %v", err)
	}

	got, err := store.GetPolls(base, base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("Failed to get polls: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("Expected 3 polls, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].UTC.Before(got[i-1].UTC) {
			t.Errorf("Polls not ordered by time at index %d", i)
		}
	}
	if got[0].Boat != "101" || got[1].Boat != "202" {
		t.Errorf("Unexpected boat order: %s, %s", got[0].Boat, got[1].Boat)
	}
}

func TestGetPolls_OpenWindow(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	base := time.Date(2012, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := store.StorePoll(samplePoll("7", base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Failed to store poll: %v", err)
		}
	}

	got, err := store.GetPolls(time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Failed to get polls: %v", err)
	}
	if len(got) != 5 {
		t.Errorf("Expected 5 polls, got %d", len(got))
	}

	n, err := store.CountPolls()
	if err != nil {
		t.Fatalf("Failed to count polls: %v", err)
	}
	if n != 5 {
		t.Errorf("Expected count 5, got %d", n)
	}
}

func TestStorePolls_ReplacesDuplicate(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ts := time.Date(2012, 6, 1, 0, 0, 0, 0, time.UTC)
	first := samplePoll("9", ts)
	second := samplePoll("9", ts)
	second.Speed = 9.9

	if err := store.StorePolls([]Poll{first, second}); err != nil {
		t.Fatalf("Failed to store polls: %v", err)
	}

	got, err := store.GetPolls(time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Failed to get polls: %v", err)
	}
	if len(got) != 1 || got[0].Speed != 9.9 {
		t.Errorf("Expected the later duplicate to win, got %+v", got)
	}
}

func TestPoll_MissingValuesRoundTrip(t *testing.T) {
	p := samplePoll("3", time.Date(2012, 6, 1, 0, 0, 0, 0, time.UTC))
	p.BottomDepth = math.NaN()

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Failed to marshal poll with NaN: %v", err)
	}

	var back Poll
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Failed to unmarshal poll: %v", err)
	}

	if !math.IsNaN(back.BottomDepth) {
		t.Errorf("Expected NaN bottom depth, got %f", back.BottomDepth)
	}
	if back.Complete() {
		t.Error("Expected poll with missing depth to be incomplete")
	}
	if back.Speed != p.Speed {
		t.Errorf("Expected speed %f, got %f", p.Speed, back.Speed)
	}
}
