package metrics

import "github.com/prometheus/client_golang/prometheus"

// Interfaces for metrics to avoid circular imports
type MetricsCounter interface {
	Inc()
}

type MetricsGauge interface {
	Set(float64)
	Add(float64)
}

type MetricsHistogram interface {
	Observe(float64)
}

// MetricsWrapper adapts Metrics to the interfaces used by the inference
// service and the HTTP layer
type MetricsWrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *MetricsWrapper {
	return &MetricsWrapper{m: m}
}

func (w *MetricsWrapper) PredictionsInc(model string) {
	w.m.PredictionsTotal.WithLabelValues(model).Inc()
}

func (w *MetricsWrapper) FailuresInc(model, reason string) {
	w.m.PredictionFailures.WithLabelValues(model, reason).Inc()
	w.m.ErrorsTotal.Inc()
}

func (w *MetricsWrapper) LatencyObserve(model string, seconds float64) {
	w.m.PredictionLatency.WithLabelValues(model).Observe(seconds)
}

func (w *MetricsWrapper) ScoreObserve(model string, score float64) {
	w.m.PredictionScores.WithLabelValues(model).Observe(score)
}

func (w *MetricsWrapper) DivergenceObserve(diff float64) {
	w.m.ModelDivergence.Observe(diff)
}

func (w *MetricsWrapper) ModelAgeSet(model string, seconds float64) {
	w.m.ModelAge.WithLabelValues(model).Set(seconds)
}

func (w *MetricsWrapper) InvalidRequestInc(reason string) {
	w.m.InvalidRequests.WithLabelValues(reason).Inc()
}

func (w *MetricsWrapper) RequestObserve(route, code string, seconds float64) {
	w.m.HTTPRequests.WithLabelValues(route, code).Inc()
	w.m.HTTPDuration.WithLabelValues(route).Observe(seconds)
}

func (w *MetricsWrapper) WSConnections() MetricsGauge {
	return &GaugeWrapper{w.m.WSConnections}
}

func (w *MetricsWrapper) WSMessages() MetricsCounter {
	return &CounterWrapper{w.m.WSMessages}
}

func (w *MetricsWrapper) HistoryWrites() MetricsCounter {
	return &CounterWrapper{w.m.HistoryWrites}
}

func (w *MetricsWrapper) HistoryFailures() MetricsCounter {
	return &CounterWrapper{w.m.HistoryFailures}
}

func (w *MetricsWrapper) DivergenceHistogram() MetricsHistogram {
	return &HistogramWrapper{w.m.ModelDivergence}
}

func (w *MetricsWrapper) ErrorRate() float64 {
	return w.m.ErrorRate()
}

type CounterWrapper struct {
	c prometheus.Counter
}

func (cw *CounterWrapper) Inc() {
	cw.c.Inc()
}

type GaugeWrapper struct {
	g prometheus.Gauge
}

func (gw *GaugeWrapper) Set(v float64) {
	gw.g.Set(v)
}

func (gw *GaugeWrapper) Add(v float64) {
	gw.g.Add(v)
}

type HistogramWrapper struct {
	h prometheus.Histogram
}

func (hw *HistogramWrapper) Observe(v float64) {
	hw.h.Observe(v)
}
