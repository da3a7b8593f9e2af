package ml

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrArtifactLoad is returned when a model artifact is missing, corrupt
	// or inconsistent with the expected schema.
	ErrArtifactLoad = errors.New("model artifact load failed")
	// ErrModelUnavailable is returned when predicting with a model that
	// failed to load.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrShapeMismatch is returned when a feature vector does not match the
	// columns, by count, name or order, that the model was trained on.
	ErrShapeMismatch = errors.New("feature shape mismatch")
	// ErrInvalidPrediction is returned when a model produces NaN or Inf.
	ErrInvalidPrediction = errors.New("invalid prediction")
)

// ModelInfo describes a loaded model.
type ModelInfo struct {
	Name       string    `json:"name"`
	Algorithm  string    `json:"algorithm"`
	Version    string    `json:"version"`
	Estimators int       `json:"estimators"`
	Features   int       `json:"features"`
	Path       string    `json:"path,omitempty"`
	Checksum   string    `json:"sha256,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	LoadedAt   time.Time `json:"loaded_at"`
}

// Model is a named regressor bound to the feature names it was trained on.
// A nil *Model stands for a model that failed to load.
type Model struct {
	info         ModelInfo
	featureNames []string
	regressor    Regressor
}

// NewModel wraps a regressor. featureNames is the exact, ordered column list
// the regressor expects.
func NewModel(name string, featureNames []string, r Regressor) *Model {
	names := make([]string, len(featureNames))
	copy(names, featureNames)
	return &Model{
		info: ModelInfo{
			Name:     name,
			Features: len(names),
			LoadedAt: time.Now(),
		},
		featureNames: names,
		regressor:    r,
	}
}

// Name returns the model name, or "" for a nil model.
func (m *Model) Name() string {
	if m == nil {
		return ""
	}
	return m.info.Name
}

// Info returns metadata about the model.
func (m *Model) Info() ModelInfo {
	if m == nil {
		return ModelInfo{}
	}
	return m.info
}

// FeatureNames returns a copy of the trained column list.
func (m *Model) FeatureNames() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.featureNames))
	copy(out, m.featureNames)
	return out
}

// CheckColumns asserts that columns equals the trained feature names
// exactly, in the same order.
func (m *Model) CheckColumns(columns []string) error {
	if m == nil {
		return ErrModelUnavailable
	}
	if len(columns) != len(m.featureNames) {
		return fmt.Errorf("%w: model %s expects %d columns, got %d",
			ErrShapeMismatch, m.info.Name, len(m.featureNames), len(columns))
	}
	for i, c := range columns {
		if c != m.featureNames[i] {
			return fmt.Errorf("%w: model %s expects column %d to be %q, got %q",
				ErrShapeMismatch, m.info.Name, i, m.featureNames[i], c)
		}
	}
	return nil
}

// Predict runs the model on a vector whose columns have already been
// checked with CheckColumns.
func (m *Model) Predict(values []float64) (float64, error) {
	if m == nil || m.regressor == nil {
		return 0, ErrModelUnavailable
	}
	if len(values) != len(m.featureNames) {
		return 0, fmt.Errorf("%w: model %s expects %d values, got %d",
			ErrShapeMismatch, m.info.Name, len(m.featureNames), len(values))
	}

	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("model %s: feature %s is not finite", m.info.Name, m.featureNames[i])
		}
	}

	y, err := m.regressor.Predict(values)
	if err != nil {
		return 0, fmt.Errorf("model %s: %w", m.info.Name, err)
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, fmt.Errorf("%w: model %s returned %v", ErrInvalidPrediction, m.info.Name, y)
	}

	return y, nil
}
