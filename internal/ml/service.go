package ml

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"score-predictor/internal/common"
	"score-predictor/internal/features"
	"score-predictor/internal/schema"
)

// Prediction is one model output
type Prediction struct {
	Model string  `json:"model"`
	Value float64 `json:"value"`
}

// Pair holds the outputs of both models for the same vector. The two entries
// are in service order and carry no ordering by value.
type Pair [2]Prediction

// Low returns the smaller prediction
func (p Pair) Low() float64 {
	return math.Min(p[0].Value, p[1].Value)
}

// High returns the larger prediction
func (p Pair) High() float64 {
	return math.Max(p[0].Value, p[1].Value)
}

// Spread returns the absolute difference between the predictions
func (p Pair) Spread() float64 {
	return math.Abs(p[0].Value - p[1].Value)
}

// Get returns the prediction of the named model
func (p Pair) Get(model string) (Prediction, bool) {
	for _, pred := range p {
		if pred.Model == model {
			return pred, true
		}
	}
	return Prediction{}, false
}

// Service runs both models on the same encoded vector
type Service struct {
	columns   *schema.Columns
	models    [2]*Model
	names     [2]string
	metrics   MetricsInterface
	agreement *Agreement
}

// NewService binds both models to the expected column list. A nil model is
// accepted and makes every Predict call fail with ErrModelUnavailable; a
// loaded model whose feature names differ from the columns is rejected.
func NewService(columns *schema.Columns, primary, secondary *Model, metrics MetricsInterface) (*Service, error) {
	if columns.Len() == 0 {
		return nil, fmt.Errorf("%w: expected column list is empty", features.ErrSchemaMismatch)
	}

	s := &Service{
		columns:   columns,
		models:    [2]*Model{primary, secondary},
		names:     [2]string{common.ModelAdaBoost, common.ModelGradientBoost},
		metrics:   metrics,
		agreement: NewAgreement(common.AgreementTolerance),
	}

	for i, m := range s.models {
		if m == nil {
			log.Warn().Str("model", s.names[i]).Msg("model not loaded, predictions will fail")
			continue
		}
		s.names[i] = m.Name()
		if err := m.CheckColumns(columns.Names()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrArtifactLoad, err)
		}
	}

	return s, nil
}

// Predict invokes both models on the identical vector
func (s *Service) Predict(ctx context.Context, v features.Vector) (Pair, error) {
	var pair Pair

	if err := ctx.Err(); err != nil {
		return pair, err
	}
	if v.Len() == 0 {
		return pair, fmt.Errorf("%w: empty feature vector", features.ErrSchemaMismatch)
	}

	for i, m := range s.models {
		name := s.names[i]
		start := time.Now()

		value, err := s.predictOne(m, v)
		if err != nil {
			s.recordFailure(name, err)
			return Pair{}, err
		}

		if s.metrics != nil {
			s.metrics.PredictionsInc(name)
			s.metrics.LatencyObserve(name, time.Since(start).Seconds())
			s.metrics.ScoreObserve(name, value)
		}
		pair[i] = Prediction{Model: name, Value: value}
	}

	if s.metrics != nil {
		s.metrics.DivergenceObserve(pair.Spread())
	}
	s.agreement.Observe(pair)

	return pair, nil
}

func (s *Service) predictOne(m *Model, v features.Vector) (float64, error) {
	if m == nil {
		return 0, ErrModelUnavailable
	}
	if err := m.CheckColumns(v.Columns); err != nil {
		return 0, err
	}
	return m.Predict(v.Values)
}

func (s *Service) recordFailure(model string, err error) {
	reason := "error"
	switch {
	case errors.Is(err, ErrModelUnavailable):
		reason = "unavailable"
	case errors.Is(err, ErrShapeMismatch):
		reason = "shape_mismatch"
	case errors.Is(err, ErrInvalidPrediction):
		reason = "invalid_prediction"
	}

	if s.metrics != nil {
		s.metrics.FailuresInc(model, reason)
	}
	log.Error().Err(err).Str("model", model).Str("reason", reason).Msg("prediction failed")
}

// Models returns info for each loaded model in service order
func (s *Service) Models() []ModelInfo {
	infos := make([]ModelInfo, 0, len(s.models))
	for i, m := range s.models {
		if m == nil {
			infos = append(infos, ModelInfo{Name: s.names[i]})
			continue
		}
		infos = append(infos, m.Info())
	}
	return infos
}

// Columns returns the expected column list the service was built with
func (s *Service) Columns() *schema.Columns {
	return s.columns
}

// Agreement returns the running agreement statistics
func (s *Service) Agreement() AgreementStats {
	return s.agreement.Snapshot()
}

// Ready reports whether both models are loaded
func (s *Service) Ready() bool {
	return s.models[0] != nil && s.models[1] != nil
}

// Health returns a status summary suitable for a health endpoint
func (s *Service) Health() map[string]interface{} {
	loaded := make(map[string]bool, len(s.models))
	for i, m := range s.models {
		loaded[s.names[i]] = m != nil
	}

	status := "ok"
	if !s.Ready() {
		status = "degraded"
	}

	return map[string]interface{}{
		"status":  status,
		"models":  loaded,
		"columns": s.columns.Len(),
		"samples": s.agreement.Snapshot().Samples,
	}
}

// Importance returns the split-usage feature ranking of each loaded model
func (s *Service) Importance() map[string][]FeatureStats {
	out := make(map[string][]FeatureStats, len(s.models))
	for i, m := range s.models {
		if m == nil {
			continue
		}
		out[s.names[i]] = m.FeatureImportance()
	}
	return out
}
