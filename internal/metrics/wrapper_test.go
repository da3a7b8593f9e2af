package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"score-predictor/internal/ml"
)

// compile-time check that the wrapper satisfies the inference metrics interface
var _ ml.MetricsInterface = (*MetricsWrapper)(nil)

func TestNewWrapper(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewWithRegistry(registry)
	wrapper := NewWrapper(metrics)

	if wrapper == nil {
		t.Fatal("NewWrapper returned nil")
	}
	if wrapper.m != metrics {
		t.Error("Wrapper does not contain correct metrics instance")
	}
}

func TestMetricsWrapper_PredictionMethods(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewWithRegistry(registry)
	wrapper := NewWrapper(metrics)

	wrapper.PredictionsInc("adaboost")
	wrapper.PredictionsInc("adaboost")
	wrapper.PredictionsInc("gradient_boosting")

	if v := testutil.ToFloat64(metrics.PredictionsTotal.WithLabelValues("adaboost")); v != 2 {
		t.Errorf("Expected 2 adaboost predictions, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.PredictionsTotal.WithLabelValues("gradient_boosting")); v != 1 {
		t.Errorf("Expected 1 gradient boosting prediction, got %f", v)
	}

	wrapper.FailuresInc("adaboost", "shape_mismatch")
	if v := testutil.ToFloat64(metrics.PredictionFailures.WithLabelValues("adaboost", "shape_mismatch")); v != 1 {
		t.Errorf("Expected 1 failure, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.ErrorsTotal); v != 1 {
		t.Errorf("Expected failures to count as errors, got %f", v)
	}

	wrapper.ModelAgeSet("adaboost", 3600)
	if v := testutil.ToFloat64(metrics.ModelAge.WithLabelValues("adaboost")); v != 3600 {
		t.Errorf("Expected model age 3600, got %f", v)
	}

	wrapper.LatencyObserve("adaboost", 0.0002)
	wrapper.ScoreObserve("adaboost", 81.3)
	wrapper.DivergenceObserve(3.6)

	if n := testutil.CollectAndCount(metrics.PredictionLatency); n != 1 {
		t.Errorf("Expected 1 latency series, got %d", n)
	}
	if n := testutil.CollectAndCount(metrics.PredictionScores); n != 1 {
		t.Errorf("Expected 1 score series, got %d", n)
	}
	if n := testutil.CollectAndCount(metrics.ModelDivergence); n != 1 {
		t.Errorf("Expected divergence histogram to be collected, got %d", n)
	}
}

func TestMetricsWrapper_HTTPMethods(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewWithRegistry(registry)
	wrapper := NewWrapper(metrics)

	wrapper.RequestObserve("/api/predict", "200", 0.01)
	wrapper.RequestObserve("/api/predict", "400", 0.002)
	wrapper.RequestObserve("/api/predict", "200", 0.01)

	if v := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("/api/predict", "200")); v != 2 {
		t.Errorf("Expected 2 successful requests, got %f", v)
	}

	wrapper.InvalidRequestInc("invalid_record")
	if v := testutil.ToFloat64(metrics.InvalidRequests.WithLabelValues("invalid_record")); v != 1 {
		t.Errorf("Expected 1 invalid request, got %f", v)
	}
}

func TestMetricsWrapper_ErrorRate(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewWithRegistry(registry)
	wrapper := NewWrapper(metrics)

	if rate := wrapper.ErrorRate(); rate != 0 {
		t.Errorf("Expected zero error rate with no samples, got %f", rate)
	}

	for i := 0; i < 3; i++ {
		wrapper.PredictionsInc("adaboost")
	}
	wrapper.FailuresInc("gradient_boosting", "unavailable")

	if rate := wrapper.ErrorRate(); rate != 0.25 {
		t.Errorf("Expected error rate 0.25, got %f", rate)
	}
}

func TestGaugeWrapper_DirectUsage(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewWithRegistry(registry)
	wrapper := NewWrapper(metrics)

	conns := wrapper.WSConnections()
	conns.Add(1)
	conns.Add(1)
	conns.Add(-1)
	if v := testutil.ToFloat64(metrics.WSConnections); v != 1 {
		t.Errorf("Expected 1 open connection, got %f", v)
	}

	conns.Set(0)
	if v := testutil.ToFloat64(metrics.WSConnections); v != 0 {
		t.Errorf("Expected 0 open connections, got %f", v)
	}
}

func TestCounterWrapper_DirectUsage(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewWithRegistry(registry)
	wrapper := NewWrapper(metrics)

	wrapper.HistoryWrites().Inc()
	wrapper.HistoryFailures().Inc()
	wrapper.WSMessages().Inc()

	if v := testutil.ToFloat64(metrics.HistoryWrites); v != 1 {
		t.Errorf("Expected 1 history write, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.HistoryFailures); v != 1 {
		t.Errorf("Expected 1 history failure, got %f", v)
	}
	if v := testutil.ToFloat64(metrics.WSMessages); v != 1 {
		t.Errorf("Expected 1 websocket message, got %f", v)
	}
}

func TestHistogramWrapper_DirectUsage(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewWithRegistry(registry)
	wrapper := NewWrapper(metrics)

	hist := wrapper.DivergenceHistogram()
	hist.Observe(1.5)
	hist.Observe(4.0)

	if n := testutil.CollectAndCount(metrics.ModelDivergence); n != 1 {
		t.Errorf("Expected histogram to be collected, got %d", n)
	}
}

func TestMetricsWrapper_ConcurrentAccess(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewWithRegistry(registry)
	wrapper := NewWrapper(metrics)

	numGoroutines := 10
	incrementsPerGoroutine := 100

	var wg sync.WaitGroup
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < incrementsPerGoroutine; j++ {
				wrapper.PredictionsInc("adaboost")
				wrapper.ScoreObserve("adaboost", float64(j%100))
			}
		}()
	}
	wg.Wait()

	expected := float64(numGoroutines * incrementsPerGoroutine)
	if v := testutil.ToFloat64(metrics.PredictionsTotal.WithLabelValues("adaboost")); v != expected {
		t.Errorf("Expected %f predictions, got %f", expected, v)
	}
}

func BenchmarkMetricsWrapper_PredictionsInc(b *testing.B) {
	metrics := NewWithRegistry(prometheus.NewRegistry())
	wrapper := NewWrapper(metrics)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		wrapper.PredictionsInc("adaboost")
	}
}

func BenchmarkMetricsWrapper_LatencyObserve(b *testing.B) {
	metrics := NewWithRegistry(prometheus.NewRegistry())
	wrapper := NewWrapper(metrics)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		wrapper.LatencyObserve("adaboost", 0.0001)
	}
}
