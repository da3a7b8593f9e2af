package ml

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"score-predictor/internal/schema"
)

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu          sync.Mutex
	predictions map[string]int
	failures    map[string]int
	latencySum  float64
	scores      []float64
	divergence  []float64
	modelAge    map[string]float64
}

func newMockMetrics() *MockMetrics {
	return &MockMetrics{
		predictions: make(map[string]int),
		failures:    make(map[string]int),
		modelAge:    make(map[string]float64),
	}
}

func (m *MockMetrics) PredictionsInc(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions[model]++
}

func (m *MockMetrics) FailuresInc(model, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[model+"/"+reason]++
}

func (m *MockMetrics) LatencyObserve(model string, seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencySum += seconds
}

func (m *MockMetrics) ScoreObserve(model string, score float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores = append(m.scores, score)
}

func (m *MockMetrics) DivergenceObserve(diff float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.divergence = append(m.divergence, diff)
}

func (m *MockMetrics) ModelAgeSet(model string, seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modelAge[model] = seconds
}

func (m *MockMetrics) predictionCount(model string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.predictions[model]
}

// constRegressor always returns the same value
type constRegressor float64

func (c constRegressor) Predict(x []float64) (float64, error) {
	return float64(c), nil
}

// stump returns a depth-one tree splitting feature f at threshold
func stump(f int, threshold, left, right float64) Tree {
	return Tree{
		ChildrenLeft:  []int{1, -1, -1},
		ChildrenRight: []int{2, -1, -1},
		Feature:       []int{f, -2, -2},
		Threshold:     []float64{threshold, -2, -2},
		Value:         []float64{0, left, right},
	}
}

// constTree is a single-leaf tree
func constTree(v float64) Tree {
	return Tree{
		ChildrenLeft:  []int{-1},
		ChildrenRight: []int{-1},
		Feature:       []int{-2},
		Threshold:     []float64{-2},
		Value:         []float64{v},
	}
}

func testColumns(t *testing.T) *schema.Columns {
	t.Helper()
	cols, err := schema.NewColumns(schema.KnownColumns())
	if err != nil {
		t.Fatalf("failed to build columns: %v", err)
	}
	return cols
}

func writeArtifact(t *testing.T, dir, name string, a Artifact) string {
	t.Helper()
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("failed to marshal artifact: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write artifact: %v", err)
	}
	return path
}
