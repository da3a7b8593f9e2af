package storage

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"score-predictor/internal/features"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testRecord(ts time.Time, low, high float64) PredictionRecord {
	return PredictionRecord{
		Timestamp:     ts,
		Source:        "api",
		Input:         features.DefaultRecord(),
		AdaBoost:      high,
		GradientBoost: low,
		Low:           low,
		High:          high,
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

	dbPath := filepath.Join(tempDir, "predictions.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
	if store.Path() != dbPath {
		t.Errorf("Expected path %s, got %s", dbPath, store.Path())
	}
}

func TestNew_InvalidPath(t *testing.T) {
	invalidPath := filepath.Join(t.TempDir(), "missing", "dir")

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

func TestSavePrediction(t *testing.T) {
	store := newTestStore(t)

	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	saved, err := store.SavePrediction(testRecord(ts, 78.5, 82.1))
	if err != nil {
		t.Fatalf("Failed to save prediction: %v", err)
	}
	if saved.ID == "" {
		t.Error("Expected saved record to have an ID")
	}

	records, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Failed to read predictions: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}

	got := records[0]
	if got.ID != saved.ID {
		t.Errorf("Expected ID %s, got %s", saved.ID, got.ID)
	}
	if !got.Timestamp.Equal(ts) {
		t.Errorf("Expected timestamp %v, got %v", ts, got.Timestamp)
	}
	if got.Low != 78.5 || got.High != 82.1 {
		t.Errorf("Unexpected range %v-%v", got.Low, got.High)
	}
	if got.Input != features.DefaultRecord() {
		t.Errorf("Expected input to round trip, got %+v", got.Input)
	}
}

func TestSavePrediction_DefaultTimestamp(t *testing.T) {
	store := newTestStore(t)

	before := time.Now()
	saved, err := store.SavePrediction(testRecord(time.Time{}, 1, 2))
	if err != nil {
		t.Fatalf("Failed to save prediction: %v", err)
	}
	if saved.Timestamp.Before(before.Add(-time.Second)) {
		t.Errorf("Expected timestamp to be set to now, got %v", saved.Timestamp)
	}
}

func TestRecent_OrderAndLimit(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		if _, err := store.SavePrediction(testRecord(base.Add(time.Duration(i)*time.Minute), float64(i), float64(i))); err != nil {
			t.Fatalf("Failed to save prediction %d: %v", i, err)
		}
	}

	records, err := store.Recent(3)
	if err != nil {
		t.Fatalf("Failed to read predictions: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	for i, want := range []float64{4, 3, 2} {
		if records[i].Low != want {
			t.Errorf("Record %d: expected %v, got %v", i, want, records[i].Low)
		}
	}

	if _, err := store.Recent(0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("Expected ErrInvalidLimit, got %v", err)
	}
}

func TestRecent_SameTimestamp(t *testing.T) {
	store := newTestStore(t)
	ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if _, err := store.SavePrediction(testRecord(ts, float64(i), float64(i))); err != nil {
			t.Fatalf("Failed to save prediction: %v", err)
		}
	}

	records, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Failed to read predictions: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected records with equal timestamps to be kept, got %d", len(records))
	}
	if records[0].Low != 2 {
		t.Errorf("Expected last inserted first, got %v", records[0].Low)
	}
}

func TestRecentBetween(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		if _, err := store.SavePrediction(testRecord(base.Add(time.Duration(i)*time.Hour), float64(i), float64(i))); err != nil {
			t.Fatalf("Failed to save prediction: %v", err)
		}
	}

	records, err := store.RecentBetween(base.Add(2*time.Hour), base.Add(5*time.Hour), 10)
	if err != nil {
		t.Fatalf("Failed to query range: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("Expected 4 records in inclusive range, got %d", len(records))
	}
	if records[0].Low != 5 || records[3].Low != 2 {
		t.Errorf("Expected newest first 5..2, got %v..%v", records[0].Low, records[3].Low)
	}

	limited, err := store.RecentBetween(base.Add(2*time.Hour), base.Add(5*time.Hour), 2)
	if err != nil {
		t.Fatalf("Failed to query limited range: %v", err)
	}
	if len(limited) != 2 || limited[0].Low != 5 || limited[1].Low != 4 {
		t.Errorf("Expected the two newest records 5 and 4, got %+v", limited)
	}

	// end past the last key starts from the newest record
	tail, err := store.RecentBetween(base.Add(8*time.Hour), base.Add(72*time.Hour), 10)
	if err != nil {
		t.Fatalf("Failed to query open-ended range: %v", err)
	}
	if len(tail) != 2 || tail[0].Low != 9 {
		t.Errorf("Expected records 9 and 8, got %+v", tail)
	}

	empty, err := store.RecentBetween(base.Add(48*time.Hour), base.Add(72*time.Hour), 10)
	if err != nil {
		t.Fatalf("Failed to query empty range: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Expected no records, got %d", len(empty))
	}

	before, err := store.RecentBetween(base.Add(-72*time.Hour), base.Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("Failed to query range before data: %v", err)
	}
	if len(before) != 0 {
		t.Errorf("Expected no records before the first key, got %d", len(before))
	}

	if _, err := store.RecentBetween(base, base, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("Expected ErrInvalidLimit, got %v", err)
	}
}

func TestPrune(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 8; i++ {
		if _, err := store.SavePrediction(testRecord(base.Add(time.Duration(i)*time.Second), float64(i), float64(i))); err != nil {
			t.Fatalf("Failed to save prediction: %v", err)
		}
	}

	deleted, err := store.Prune(5)
	if err != nil {
		t.Fatalf("Failed to prune: %v", err)
	}
	if deleted != 3 {
		t.Errorf("Expected 3 deleted, got %d", deleted)
	}

	count, err := store.Count()
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 5 {
		t.Errorf("Expected 5 remaining, got %d", count)
	}

	records, _ := store.RecentBetween(base, base.Add(time.Minute), 10)
	if len(records) != 5 || records[len(records)-1].Low != 3 {
		t.Errorf("Expected oldest records to be pruned, got %+v", records)
	}

	if _, err := store.Prune(-1); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("Expected ErrInvalidLimit, got %v", err)
	}
}

func TestStore_ConcurrentWrites(t *testing.T) {
	store := newTestStore(t)

	numGoroutines := 5
	perGoroutine := 20

	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				if _, err := store.SavePrediction(testRecord(time.Now(), 1, 2)); err != nil {
					t.Errorf("Failed to save prediction: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	count, err := store.Count()
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != numGoroutines*perGoroutine {
		t.Errorf("Expected %d records, got %d", numGoroutines*perGoroutine, count)
	}
}
