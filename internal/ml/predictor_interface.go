// Package ml provides the inference side of the score predictor.
// It loads tree-ensemble regression artifacts (AdaBoost.R2 and gradient
// boosting), verifies them against the Expected Column List and an optional
// checksum manifest, and serves predictions from both models for the same
// encoded feature vector.
//
// Loaded models are read-only and safe for concurrent use.
package ml

// Regressor is a fitted regression model.
type Regressor interface {
	// Predict returns the model output for one row of features.
	Predict(x []float64) (float64, error)
}

// MetricsInterface defines metrics methods needed by the inference service
type MetricsInterface interface {
	PredictionsInc(model string)
	FailuresInc(model, reason string)
	LatencyObserve(model string, seconds float64)
	ScoreObserve(model string, score float64)
	DivergenceObserve(diff float64)
	ModelAgeSet(model string, seconds float64)
}
