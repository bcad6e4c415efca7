// Package storage provides persistent storage for vessel polls.
// It uses BoltDB as the underlying storage engine so that a poll table can be
// imported once and then replayed into the classifier pipeline by time window.
//
// Keys are ordered by UTC poll time, which makes window queries a single
// cursor scan.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	pollsBucket = "polls" // Bucket name for storing vessel polls
	dbFile      = "polls.db"
)

// Store provides persistent storage for vessel polls using BoltDB.
type Store struct {
	db *bbolt.DB // BoltDB database instance
}

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("storage: store is closed")

// New creates a new storage instance with the specified data path.
// It initializes the BoltDB database and creates the polls bucket.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, dbFile)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(pollsBucket)); err != nil {
			return fmt.Errorf("create polls bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// StorePoll stores a single poll.
func (s *Store) StorePoll(p Poll) error {
	return s.StorePolls([]Poll{p})
}

// StorePolls stores a batch of polls in one transaction. A poll with the same
// UTC time and boat as an existing one replaces it.
func (s *Store) StorePolls(polls []Poll) error {
	if s.db == nil {
		return ErrClosed
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(pollsBucket))

		for _, p := range polls {
			data, err := json.Marshal(p)
			if err != nil {
				return fmt.Errorf("marshal poll: %w", err)
			}
			if err := b.Put(pollKey(p.UTC, p.Boat), data); err != nil {
				return fmt.Errorf("put poll: %w", err)
			}
		}
		return nil
	})
}

// GetPolls retrieves polls with from <= UTC time <= to, ordered by time.
// A zero from or to leaves that side of the window open.
func (s *Store) GetPolls(from, to time.Time) ([]Poll, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	var polls []Poll

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(pollsBucket)).Cursor()

		var k, v []byte
		if from.IsZero() {
			k, v = c.First()
		} else {
			k, v = c.Seek(timePrefix(from))
		}

		var endKey []byte
		if !to.IsZero() {
			endKey = timePrefix(to.Add(time.Nanosecond))
		}

		for ; k != nil; k, v = c.Next() {
			if endKey != nil && bytes.Compare(k, endKey) >= 0 {
				break
			}

			var p Poll
			if err := json.Unmarshal(v, &p); err != nil {
				continue // Skip malformed records
			}
			polls = append(polls, p)
		}
		return nil
	})

	return polls, err
}

// CountPolls returns the number of stored polls.
func (s *Store) CountPolls() (int, error) {
	if s.db == nil {
		return 0, ErrClosed
	}
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(pollsBucket)).Stats().KeyN
		return nil
	})
	return n, err
}

func timePrefix(t time.Time) []byte {
	return []byte(fmt.Sprintf("%020d_", t.UTC().UnixNano()))
}

func pollKey(t time.Time, boat string) []byte {
	return append(timePrefix(t), boat...)
}
