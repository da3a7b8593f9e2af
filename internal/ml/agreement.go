package ml

import (
	"math"
	"sync"
	"time"
)

// Agreement tracks how closely the two models agree across served requests
type Agreement struct {
	mu        sync.RWMutex
	tolerance float64
	samples   int64
	agreeing  int64
	diffSum   float64
	diffSqSum float64
	maxDiff   float64
	lastDiff  float64
	models    map[string]*modelStats
	updated   time.Time
}

type modelStats struct {
	samples int64
	sum     float64
	min     float64
	max     float64
	higher  int64
}

// ModelStats summarises the predictions of one model
type ModelStats struct {
	Samples int64   `json:"samples"`
	Mean    float64 `json:"mean"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	// Higher counts the requests where this model gave the larger prediction
	Higher int64 `json:"higher"`
}

// AgreementStats is a point-in-time copy of the tracker state
type AgreementStats struct {
	Samples       int64                 `json:"samples"`
	Tolerance     float64               `json:"tolerance"`
	AgreementRate float64               `json:"agreement_rate"`
	MeanDiff      float64               `json:"mean_abs_diff"`
	StdDevDiff    float64               `json:"stddev_abs_diff"`
	MaxDiff       float64               `json:"max_abs_diff"`
	LastDiff      float64               `json:"last_abs_diff"`
	Models        map[string]ModelStats `json:"models"`
	LastUpdated   time.Time             `json:"last_updated"`
}

// NewAgreement creates a tracker. Pairs whose absolute difference is at
// most tolerance count as agreeing.
func NewAgreement(tolerance float64) *Agreement {
	if tolerance < 0 {
		tolerance = 0
	}
	return &Agreement{
		tolerance: tolerance,
		models:    make(map[string]*modelStats),
	}
}

// Observe records one prediction pair
func (a *Agreement) Observe(p Pair) {
	diff := p.Spread()

	a.mu.Lock()
	defer a.mu.Unlock()

	a.samples++
	a.diffSum += diff
	a.diffSqSum += diff * diff
	a.lastDiff = diff
	if diff > a.maxDiff {
		a.maxDiff = diff
	}
	if diff <= a.tolerance {
		a.agreeing++
	}

	high := p.High()
	for _, pred := range p {
		s, ok := a.models[pred.Model]
		if !ok {
			s = &modelStats{min: pred.Value, max: pred.Value}
			a.models[pred.Model] = s
		}
		s.samples++
		s.sum += pred.Value
		s.min = math.Min(s.min, pred.Value)
		s.max = math.Max(s.max, pred.Value)
		if diff > 0 && pred.Value == high {
			s.higher++
		}
	}

	a.updated = time.Now()
}

// Snapshot returns the current statistics
func (a *Agreement) Snapshot() AgreementStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AgreementStats{
		Samples:     a.samples,
		Tolerance:   a.tolerance,
		MaxDiff:     a.maxDiff,
		LastDiff:    a.lastDiff,
		Models:      make(map[string]ModelStats, len(a.models)),
		LastUpdated: a.updated,
	}

	if a.samples > 0 {
		n := float64(a.samples)
		stats.AgreementRate = float64(a.agreeing) / n
		stats.MeanDiff = a.diffSum / n
		variance := a.diffSqSum/n - stats.MeanDiff*stats.MeanDiff
		if variance > 0 {
			stats.StdDevDiff = math.Sqrt(variance)
		}
	}

	for name, s := range a.models {
		stats.Models[name] = ModelStats{
			Samples: s.samples,
			Mean:    s.sum / float64(s.samples),
			Min:     s.min,
			Max:     s.max,
			Higher:  s.higher,
		}
	}

	return stats
}

// Reset clears all recorded samples
func (a *Agreement) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.samples, a.agreeing = 0, 0
	a.diffSum, a.diffSqSum = 0, 0
	a.maxDiff, a.lastDiff = 0, 0
	a.models = make(map[string]*modelStats)
	a.updated = time.Time{}
}
