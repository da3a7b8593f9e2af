package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
)

// ManifestEntry records one artifact and the checksum it was published with
type ManifestEntry struct {
	Name      string          `json:"name"`
	Path      string          `json:"path"`
	SHA256    string          `json:"sha256"`
	Version   string          `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
	Metrics   TrainingMetrics `json:"metrics"`
}

// TrainingMetrics contains hold-out metrics reported by the training job
type TrainingMetrics struct {
	R2           float64 `json:"r2,omitempty"`
	MAE          float64 `json:"mae,omitempty"`
	RMSE         float64 `json:"rmse,omitempty"`
	TrainingRows int     `json:"training_rows,omitempty"`
}

// Manifest lists the published artifacts of one model directory
type Manifest struct {
	path    string
	Entries []ManifestEntry `json:"artifacts"`
}

// NewManifest creates an empty manifest that will be saved to path
func NewManifest(path string) *Manifest {
	return &Manifest{path: path, Entries: make([]ManifestEntry, 0)}
}

// LoadManifest reads a manifest from disk
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	m := &Manifest{path: path}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	return m, nil
}

// Add records an artifact, replacing any previous entry with the same name
func (m *Manifest) Add(name, artifactPath string, metrics TrainingMetrics) (ManifestEntry, error) {
	data, err := os.ReadFile(artifactPath)
	if err != nil {
		return ManifestEntry{}, fmt.Errorf("read artifact %s: %w", artifactPath, err)
	}

	rel := artifactPath
	if m.path != "" {
		if r, err := filepath.Rel(filepath.Dir(m.path), artifactPath); err == nil {
			rel = r
		}
	}

	entry := ManifestEntry{
		Name:      name,
		Path:      filepath.ToSlash(rel),
		SHA256:    checksum(data),
		Version:   time.Now().UTC().Format("20060102-150405"),
		CreatedAt: time.Now().UTC(),
		Metrics:   metrics,
	}

	// Model artifacts carry their own version and timestamp
	var header struct {
		Version   string    `json:"version"`
		CreatedAt time.Time `json:"created_at"`
	}
	if err := json.Unmarshal(data, &header); err == nil {
		if header.Version != "" {
			entry.Version = header.Version
		}
		if !header.CreatedAt.IsZero() {
			entry.CreatedAt = header.CreatedAt
		}
	}

	kept := m.Entries[:0]
	for _, e := range m.Entries {
		if e.Name != name {
			kept = append(kept, e)
		}
	}
	m.Entries = append(kept, entry)

	sort.Slice(m.Entries, func(i, j int) bool {
		return m.Entries[i].Name < m.Entries[j].Name
	})

	return entry, nil
}

// Entry returns the entry for an artifact name
func (m *Manifest) Entry(name string) (ManifestEntry, bool) {
	for _, e := range m.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return ManifestEntry{}, false
}

// Verify checks artifact bytes against the published checksum
func (m *Manifest) Verify(name string, data []byte) error {
	entry, ok := m.Entry(name)
	if !ok {
		return fmt.Errorf("artifact %s is not listed in manifest %s", name, m.path)
	}

	if got := checksum(data); got != entry.SHA256 {
		return fmt.Errorf("artifact %s checksum mismatch: manifest %s, file %s", name, entry.SHA256, got)
	}

	return nil
}

// VerifyFile reads path and verifies it against the entry for name
func (m *Manifest) VerifyFile(name, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read artifact %s: %w", path, err)
	}
	return m.Verify(name, data)
}

// Save writes the manifest to its path
func (m *Manifest) Save() error {
	if m.path == "" {
		return fmt.Errorf("manifest has no path")
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(m.path, data, 0o600); err != nil {
		return err
	}

	log.Info().Str("path", m.path).Int("artifacts", len(m.Entries)).Msg("manifest saved")
	return nil
}

// Path returns where the manifest is stored
func (m *Manifest) Path() string {
	return m.path
}
