package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"score-predictor/internal/features"
)

// ErrInvalidLimit is returned for non-positive query limits
var ErrInvalidLimit = errors.New("limit must be positive")

// PredictionRecord is one served prediction
type PredictionRecord struct {
	ID            string          `json:"id"`
	Timestamp     time.Time       `json:"timestamp"`
	Source        string          `json:"source"`
	Input         features.Record `json:"input"`
	AdaBoost      float64         `json:"adaboost"`
	GradientBoost float64         `json:"gradient_boosting"`
	Low           float64         `json:"low"`
	High          float64         `json:"high"`
}

// SavePrediction stores a record. A zero timestamp is replaced with the
// current time; the assigned key is returned in the record ID.
func (s *Store) SavePrediction(record PredictionRecord) (PredictionRecord, error) {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))

		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}

		key := timeKey(record.Timestamp, seq)
		record.ID = string(key)

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal prediction: %w", err)
		}

		return b.Put(key, data)
	})
	if err != nil {
		return PredictionRecord{}, err
	}

	return record, nil
}

// Recent returns up to limit records, newest first
func (s *Store) Recent(limit int) ([]PredictionRecord, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	records := make([]PredictionRecord, 0, limit)
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(predictionsBucket)).Cursor()

		for k, v := c.Last(); k != nil && len(records) < limit; k, v = c.Prev() {
			var record PredictionRecord
			if err := json.Unmarshal(v, &record); err != nil {
				continue // Skip malformed records
			}
			records = append(records, record)
		}
		return nil
	})

	return records, err
}

// RecentBetween returns up to limit records with timestamps in [start, end],
// newest first. The scan starts at end and stops once limit is reached.
func (s *Store) RecentBetween(start, end time.Time, limit int) ([]PredictionRecord, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	records := make([]PredictionRecord, 0, limit)
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(predictionsBucket)).Cursor()

		// keys for end share its prefix and sort before the next nanosecond
		startKey := boundKey(start)
		k, v := c.Seek(boundKey(end.Add(time.Nanosecond)))
		if k == nil {
			k, v = c.Last()
		} else {
			k, v = c.Prev()
		}

		for ; k != nil && compareKeys(k, startKey) >= 0 && len(records) < limit; k, v = c.Prev() {
			var record PredictionRecord
			if err := json.Unmarshal(v, &record); err != nil {
				continue
			}
			records = append(records, record)
		}
		return nil
	})

	return records, err
}

// Count returns the number of stored records
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket([]byte(predictionsBucket)).Stats().KeyN
		return nil
	})
	return n, err
}

// Prune deletes the oldest records so that at most keep remain. It returns
// the number of records deleted.
func (s *Store) Prune(keep int) (int, error) {
	if keep < 0 {
		return 0, ErrInvalidLimit
	}

	deleted := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))
		excess := b.Stats().KeyN - keep

		c := b.Cursor()
		for k, _ := c.First(); k != nil && deleted < excess; k, _ = c.First() {
			if err := c.Delete(); err != nil {
				return fmt.Errorf("delete %s: %w", k, err)
			}
			deleted++
		}
		return nil
	})

	return deleted, err
}
