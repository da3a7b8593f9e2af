// Package client talks to a running predictor over its JSON API and its
// websocket channel.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"score-predictor/internal/features"
	"score-predictor/internal/ml"
	"score-predictor/internal/schema"
	"score-predictor/internal/storage"
	"score-predictor/internal/web"
)

// APIError is a non-2xx reply from the predictor
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("predictor: %d %s", e.Status, e.Message)
}

type errorResp struct {
	Error string `json:"error"`
}

type Client struct {
	base string
	rest *resty.Client
}

// New creates a client for the predictor at base, e.g. http://localhost:8080.
// Requests failing at the transport level or with a 5xx status are retried
// up to retries times.
func New(base string, timeout time.Duration, retries int) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second) // default fallback
	}
	if retries > 0 {
		r.SetRetryCount(retries).
			SetRetryWaitTime(100 * time.Millisecond).
			SetRetryMaxWaitTime(time.Second).
			AddRetryCondition(func(resp *resty.Response, err error) bool {
				return err != nil || resp.StatusCode() >= http.StatusInternalServerError
			})
	}
	return &Client{base: strings.TrimRight(base, "/"), rest: r}
}

// Predict scores one record
func (c *Client) Predict(ctx context.Context, r features.Record) (web.Result, error) {
	var result web.Result
	err := c.do(ctx, http.MethodPost, "/api/predict", nil, r, &result)
	return result, err
}

// History returns up to limit recent predictions, newest first
func (c *Client) History(ctx context.Context, limit int) ([]storage.PredictionRecord, error) {
	var resp struct {
		Predictions []storage.PredictionRecord `json:"predictions"`
	}
	params := map[string]string{}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}
	err := c.do(ctx, http.MethodGet, "/api/history", params, nil, &resp)
	return resp.Predictions, err
}

// SchemaInfo is the reply of the schema endpoint
type SchemaInfo struct {
	Fields   []schema.Field `json:"fields"`
	Columns  []string       `json:"columns"`
	Unmapped []string       `json:"unmapped"`
}

// Schema returns the declared fields and expected columns of the server
func (c *Client) Schema(ctx context.Context) (SchemaInfo, error) {
	var info SchemaInfo
	err := c.do(ctx, http.MethodGet, "/api/schema", nil, nil, &info)
	return info, err
}

// Models returns info about the loaded models
func (c *Client) Models(ctx context.Context) ([]ml.ModelInfo, error) {
	var resp struct {
		Models []ml.ModelInfo `json:"models"`
	}
	err := c.do(ctx, http.MethodGet, "/api/models", nil, nil, &resp)
	return resp.Models, err
}

// Stats returns the agreement statistics of the two models
func (c *Client) Stats(ctx context.Context) (ml.AgreementStats, error) {
	var resp struct {
		Agreement ml.AgreementStats `json:"agreement"`
	}
	err := c.do(ctx, http.MethodGet, "/api/stats", nil, nil, &resp)
	return resp.Agreement, err
}

func (c *Client) do(ctx context.Context, method, path string, params map[string]string, body, result interface{}) error {
	req := c.rest.R().
		SetContext(ctx).
		SetResult(result).
		SetError(&errorResp{})
	if params != nil {
		req.SetQueryParams(params)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, c.base+path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	if resp.IsError() {
		msg := resp.String()
		if e, ok := resp.Error().(*errorResp); ok && e.Error != "" {
			msg = e.Error
		}
		return &APIError{Status: resp.StatusCode(), Message: msg}
	}

	return nil
}
