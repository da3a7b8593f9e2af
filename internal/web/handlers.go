package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"score-predictor/internal/features"
	"score-predictor/internal/ml"
	"score-predictor/internal/schema"
	"score-predictor/internal/storage"
)

const maxBodyBytes = 1 << 20

// Prediction sources recorded in history
const (
	SourceForm = "form"
	SourceAPI  = "api"
)

type errorResponse struct {
	Error string `json:"error"`
}

// classify maps a prediction error to an HTTP status, a metrics reason and
// a message safe to show to the user
func classify(err error) (int, string, string) {
	switch {
	case errors.Is(err, features.ErrMalformedRecord):
		return http.StatusBadRequest, "malformed", "invalid JSON body: " + err.Error()
	case errors.Is(err, features.ErrInvalidRecord):
		return http.StatusBadRequest, "invalid_record", err.Error()
	case errors.Is(err, features.ErrSchemaMismatch):
		return http.StatusServiceUnavailable, "schema_mismatch", "The feature schema is unavailable, predictions cannot be made."
	case errors.Is(err, ml.ErrModelUnavailable):
		return http.StatusServiceUnavailable, "model_unavailable", "A prediction model is unavailable, please try again later."
	case errors.Is(err, ml.ErrShapeMismatch):
		return http.StatusServiceUnavailable, "shape_mismatch", "The encoded input does not match the trained models."
	case errors.Is(err, ml.ErrInvalidPrediction):
		return http.StatusServiceUnavailable, "invalid_prediction", "A model produced an invalid prediction."
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "timeout", "The prediction timed out, please try again."
	default:
		return http.StatusInternalServerError, "internal", "Internal server error"
	}
}

func (s *Server) countInvalid(reason string) {
	if s.metrics != nil {
		s.metrics.InvalidRequestInc(reason)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// handleIndex serves the empty form with default values
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusOK, newPageData(features.DefaultRecord().Values()))
}

// handleForm scores a submitted form and renders the gauges
func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		s.countInvalid("malformed")
		data := newPageData(features.DefaultRecord().Values())
		data.Error = "The form could not be read."
		s.renderPage(w, http.StatusBadRequest, data)
		return
	}

	data := newPageData(r.PostForm)

	record, err := features.FromValues(r.PostForm)
	if err == nil {
		var result Result
		result, err = s.predict(r.Context(), record)
		if err == nil {
			s.saveHistory(result, SourceForm)
			data.Result = &result
			data.Gauges = result.Gauges()
			s.renderPage(w, http.StatusOK, data)
			return
		}
	}

	status, reason, msg := classify(err)
	if status == http.StatusBadRequest {
		s.countInvalid(reason)
	}
	data.Error = msg
	s.renderPage(w, status, data)
}

// handleAPIPredict scores a JSON record
func (s *Server) handleAPIPredict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	record, err := features.DecodeRecord(r.Body)
	var result Result
	if err == nil {
		result, err = s.predict(r.Context(), record)
	}
	if err != nil {
		status, reason, msg := classify(err)
		if status == http.StatusBadRequest {
			s.countInvalid(reason)
		}
		writeError(w, status, msg)
		return
	}

	s.saveHistory(result, SourceAPI)
	writeJSON(w, http.StatusOK, result)
}

// handleSchema describes the declared input fields and the expected columns
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	cols := s.service.Columns()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"fields":   schema.Fields,
		"columns":  cols.Names(),
		"unmapped": cols.Unmapped(),
	})
}

// handleModels lists the loaded models and their most used split features
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"models":     s.service.Models(),
		"importance": s.service.Importance(),
	})
}

// handleStats serves the agreement statistics between the two models
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"agreement": s.service.Agreement(),
	}
	if s.metrics != nil {
		resp["error_rate"] = s.metrics.ErrorRate()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleHistory returns the most recent predictions, newest first
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "prediction history is not enabled")
		return
	}

	limit := s.cfg.HistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n < limit {
			limit = n
		}
	}

	var (
		records []storage.PredictionRecord
		err     error
	)
	if q := r.URL.Query(); q.Get("since") != "" || q.Get("until") != "" {
		start, end, perr := parseWindow(q.Get("since"), q.Get("until"))
		if perr != nil {
			writeError(w, http.StatusBadRequest, perr.Error())
			return
		}
		records, err = s.history.RecentBetween(start, end, limit)
	} else {
		records, err = s.history.Recent(limit)
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to read prediction history")
		writeError(w, http.StatusInternalServerError, "failed to read history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":       len(records),
		"predictions": records,
	})
}

// handleHealth reports model availability
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := s.service.Health()
	health["history"] = s.history != nil
	if s.history != nil {
		if n, err := s.history.Count(); err == nil {
			health["history_records"] = n
		}
	}
	health["time"] = time.Now().UTC()

	status := http.StatusOK
	if !s.service.Ready() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

// parseWindow reads RFC3339 bounds; a missing bound is open
func parseWindow(since, until string) (time.Time, time.Time, error) {
	start := time.Unix(0, 0)
	end := time.Now()

	if since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return start, end, fmt.Errorf("since must be an RFC3339 timestamp")
		}
		start = t
	}
	if until != "" {
		t, err := time.Parse(time.RFC3339, until)
		if err != nil {
			return start, end, fmt.Errorf("until must be an RFC3339 timestamp")
		}
		end = t
	}
	if end.Before(start) {
		return start, end, fmt.Errorf("until is before since")
	}
	return start, end, nil
}
