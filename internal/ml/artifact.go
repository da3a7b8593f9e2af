package ml

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// Supported artifact algorithms
const (
	AlgorithmAdaBoost         = "adaboost"
	AlgorithmGradientBoosting = "gradient_boosting"
)

// Artifact is the on-disk JSON form of a fitted ensemble.
type Artifact struct {
	Algorithm        string    `json:"algorithm"`
	Version          string    `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
	FeatureNames     []string  `json:"feature_names"`
	Estimators       []Tree    `json:"estimators"`
	EstimatorWeights []float64 `json:"estimator_weights,omitempty"`
	LearningRate     float64   `json:"learning_rate,omitempty"`
	Init             float64   `json:"init,omitempty"`
}

// Regressor builds the ensemble described by the artifact.
func (a *Artifact) Regressor() (Regressor, error) {
	if len(a.FeatureNames) == 0 {
		return nil, fmt.Errorf("artifact lists no feature names")
	}
	seen := make(map[string]struct{}, len(a.FeatureNames))
	for _, name := range a.FeatureNames {
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate feature name %q", name)
		}
		seen[name] = struct{}{}
	}

	switch a.Algorithm {
	case AlgorithmAdaBoost:
		return NewAdaBoost(a.Estimators, a.EstimatorWeights, len(a.FeatureNames))
	case AlgorithmGradientBoosting:
		return NewGradientBoosting(a.Estimators, a.Init, a.LearningRate, len(a.FeatureNames))
	default:
		return nil, fmt.Errorf("unsupported algorithm %q", a.Algorithm)
	}
}

// LoadModel reads, verifies and builds the model stored at path. When
// manifest is non-nil the artifact checksum must match its entry for name.
func LoadModel(name, path string, manifest *Manifest, metrics MetricsInterface) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactLoad, path, err)
	}

	if manifest != nil {
		if err := manifest.Verify(name, data); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrArtifactLoad, path, err)
		}
	}

	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrArtifactLoad, path, err)
	}

	reg, err := artifact.Regressor()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactLoad, path, err)
	}

	m := NewModel(name, artifact.FeatureNames, reg)
	m.info.Algorithm = artifact.Algorithm
	m.info.Version = artifact.Version
	m.info.Estimators = len(artifact.Estimators)
	m.info.Path = path
	m.info.Checksum = checksum(data)
	m.info.CreatedAt = artifact.CreatedAt

	// Model age falls back to the file modification time
	created := artifact.CreatedAt
	if created.IsZero() {
		if st, err := os.Stat(path); err == nil {
			created = st.ModTime()
		}
	}
	if metrics != nil && !created.IsZero() {
		metrics.ModelAgeSet(name, time.Since(created).Seconds())
	}

	log.Info().
		Str("model", name).
		Str("algorithm", artifact.Algorithm).
		Str("version", artifact.Version).
		Int("estimators", len(artifact.Estimators)).
		Int("features", len(artifact.FeatureNames)).
		Str("path", path).
		Msg("model artifact loaded")

	return m, nil
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
