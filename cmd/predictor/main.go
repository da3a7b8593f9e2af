package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"score-predictor/internal/cfg"
	"score-predictor/internal/common"
	"score-predictor/internal/features"
	"score-predictor/internal/metrics"
	"score-predictor/internal/ml"
	"score-predictor/internal/schema"
	"score-predictor/internal/storage"
	"score-predictor/internal/web"
)

func main() {
	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	setupLogging(c)

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	manifest := loadManifest(c)
	columns := loadColumns(c, manifest)

	ada, err := ml.LoadModel(common.ModelAdaBoost, c.AdaBoostModelPath, manifest, mw)
	if err != nil {
		log.Fatal().Err(err).Msg("adaboost model load failed")
	}
	gb, err := ml.LoadModel(common.ModelGradientBoost, c.GradientBoostModelPath, manifest, mw)
	if err != nil {
		log.Fatal().Err(err).Msg("gradient boosting model load failed")
	}

	svc, err := ml.NewService(columns, ada, gb, mw)
	if err != nil {
		log.Fatal().Err(err).Msg("model columns do not match the expected column list")
	}

	store := initializeStorage(c)
	if store != nil {
		defer store.Close()
	}

	var history web.HistoryStore
	if store != nil {
		history = store
	}

	srv := web.NewServer(web.Config{
		Port:           c.HTTPPort,
		RequestTimeout: c.RequestTimeout,
		ReadTimeout:    c.ReadTimeout,
		WriteTimeout:   c.WriteTimeout,
		HistoryLimit:   c.HistoryLimit,
	}, features.NewEncoder(columns), svc, history, mw)

	errCh, err := srv.Start()
	if err != nil {
		log.Fatal().Err(err).Msg("server start failed")
	}

	waitForShutdown(srv, errCh)
}

func setupLogging(c cfg.Settings) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if c.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// loadManifest returns nil when no manifest is configured
func loadManifest(c cfg.Settings) *ml.Manifest {
	if c.ManifestPath == "" {
		log.Warn().Msg("no artifact manifest configured, checksums will not be verified")
		return nil
	}

	manifest, err := ml.LoadManifest(c.ManifestPath)
	if err != nil {
		log.Fatal().Err(err).Msg("manifest load failed")
	}
	return manifest
}

func loadColumns(c cfg.Settings, manifest *ml.Manifest) *schema.Columns {
	if manifest != nil {
		if err := manifest.VerifyFile(common.ArtifactColumns, c.ColumnsPath); err != nil {
			log.Fatal().Err(err).Msg("column list verification failed")
		}
	}

	columns, err := schema.LoadColumns(c.ColumnsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("column list load failed")
	}

	if unmapped := columns.Unmapped(); len(unmapped) > 0 {
		log.Warn().Strs("columns", unmapped).Msg("columns not produced by any form field, they will always be 0")
	}

	log.Info().Int("columns", columns.Len()).Str("path", c.ColumnsPath).Msg("column list loaded")
	return columns
}

// initializeStorage opens the history store if DATA_PATH is configured
func initializeStorage(c cfg.Settings) *storage.Store {
	if !c.HistoryEnabled() {
		return nil
	}

	if err := os.MkdirAll(c.DataPath, 0o755); err != nil {
		log.Warn().Err(err).Msg("data directory unavailable, continuing without history")
		return nil
	}

	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without history")
		return nil
	}

	if pruned, err := store.Prune(common.DefaultHistoryRetain); err != nil {
		log.Warn().Err(err).Msg("history prune failed")
	} else if pruned > 0 {
		log.Info().Int("deleted", pruned).Msg("pruned old prediction history")
	}
	if n, err := store.Count(); err == nil {
		log.Info().Int("records", n).Str("path", store.Path()).Msg("prediction history opened")
	}

	return store
}

// waitForShutdown blocks until a signal arrives or the server fails, then
// drains in-flight requests
func waitForShutdown(srv *web.Server, errCh <-chan error) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case err, ok := <-errCh:
		if ok && err != nil {
			log.Error().Err(err).Msg("server stopped unexpectedly")
		}
	}

	log.Info().Msg("shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("shutdown timeout, forcing exit")
	}
}
