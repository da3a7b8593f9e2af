// Package web serves the score predictor over HTTP: the HTML form with its
// two gauges, a JSON API, a websocket channel for live updates as the form
// changes, health and Prometheus metrics.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"score-predictor/internal/common"
	"score-predictor/internal/features"
	"score-predictor/internal/metrics"
	"score-predictor/internal/ml"
	"score-predictor/internal/storage"
)

// HistoryStore persists served predictions
type HistoryStore interface {
	SavePrediction(storage.PredictionRecord) (storage.PredictionRecord, error)
	Recent(limit int) ([]storage.PredictionRecord, error)
	RecentBetween(start, end time.Time, limit int) ([]storage.PredictionRecord, error)
	Count() (int, error)
}

// Config holds the HTTP server settings
type Config struct {
	Port           int
	RequestTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	HistoryLimit   int
	// Gatherer backs the /metrics endpoint; the default gatherer when nil
	Gatherer prometheus.Gatherer
}

// Server is the HTTP front end of the predictor
type Server struct {
	cfg      Config
	encoder  *features.Encoder
	service  *ml.Service
	history  HistoryStore
	metrics  *metrics.MetricsWrapper
	router   *mux.Router
	server   *http.Server
	upgrader websocket.Upgrader

	mu        sync.Mutex
	isRunning bool
}

// NewServer wires the routes. history and metricsWrapper may be nil.
func NewServer(cfg Config, encoder *features.Encoder, service *ml.Service, history HistoryStore, metricsWrapper *metrics.MetricsWrapper) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 50
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		cfg:      cfg,
		encoder:  encoder,
		service:  service,
		history:  history,
		metrics:  metricsWrapper,
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 1024},
	}

	r := mux.NewRouter()
	r.Use(s.requestLogger, s.requestTimeout)
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/", s.handleForm).Methods(http.MethodPost)
	r.HandleFunc("/api/predict", s.handleAPIPredict).Methods(http.MethodPost)
	r.HandleFunc("/api/schema", s.handleSchema).Methods(http.MethodGet)
	r.HandleFunc("/api/models", s.handleModels).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/api/history", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	s.router = r

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Handler returns the routed handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving in the background. Listen errors other than a
// clean shutdown are reported on the returned channel.
func (s *Server) Start() (<-chan error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil, fmt.Errorf("server is already running")
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", s.server.Addr).Msg("Starting HTTP server")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server failed")
			errCh <- err
		}
		close(errCh)
	}()

	s.isRunning = true
	return errCh, nil
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	if err := s.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to shutdown HTTP server")
		return err
	}

	s.isRunning = false
	log.Info().Msg("HTTP server stopped")
	return nil
}

// predict runs one record through the encoder, which validates it, and both
// models
func (s *Server) predict(ctx context.Context, r features.Record) (Result, error) {
	vec, err := s.encoder.Encode(r)
	if err != nil {
		return Result{}, err
	}

	pair, err := s.service.Predict(ctx, vec)
	if err != nil {
		return Result{}, err
	}

	return newResult(r, pair), nil
}

// saveHistory records a submitted prediction when a store is configured
func (s *Server) saveHistory(result Result, source string) {
	if s.history == nil {
		return
	}

	record := storage.PredictionRecord{
		Timestamp: time.Now().UTC(),
		Source:    source,
		Input:     result.Input,
		Low:       result.Low,
		High:      result.High,
	}
	for _, p := range result.Predictions {
		switch p.Model {
		case common.ModelAdaBoost:
			record.AdaBoost = p.Value
		case common.ModelGradientBoost:
			record.GradientBoost = p.Value
		}
	}

	if _, err := s.history.SavePrediction(record); err != nil {
		log.Error().Err(err).Msg("Failed to save prediction history")
		if s.metrics != nil {
			s.metrics.HistoryFailures().Inc()
		}
		return
	}
	if s.metrics != nil {
		s.metrics.HistoryWrites().Inc()
	}
}
