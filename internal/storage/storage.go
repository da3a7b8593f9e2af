// Package storage provides persistent prediction history for the score
// predictor. It uses BoltDB as the underlying storage engine and keys records
// by time so recent predictions and time ranges can be scanned with cursors.
//
// All operations are safe for concurrent use.
package storage

import (
	"bytes"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const (
	predictionsBucket = "predictions" // Bucket name for stored predictions
	dbFileName        = "predictions.db"
)

// Store provides persistent storage for served predictions using BoltDB.
type Store struct {
	db   *bbolt.DB // BoltDB database instance
	path string
}

// New opens or creates the history database inside dataPath.
// Returns an error if the database cannot be opened or buckets cannot be created.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, dbFileName)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(predictionsBucket)); err != nil {
			return fmt.Errorf("create predictions bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file location
func (s *Store) Path() string {
	return s.path
}

// timeKey builds a key that sorts by timestamp, then by insertion sequence
func timeKey(ts time.Time, seq uint64) []byte {
	return []byte(fmt.Sprintf("%020d_%010d", ts.UnixNano(), seq))
}

// boundKey is the smallest key for a timestamp
func boundKey(ts time.Time) []byte {
	return []byte(fmt.Sprintf("%020d_", ts.UnixNano()))
}

func compareKeys(a, b []byte) int {
	return bytes.Compare(a, b)
}
