// Package client talks to a running sos2a API server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sos2a/assessment/internal/analysis"
	"github.com/sos2a/assessment/internal/api"
	"github.com/sos2a/assessment/internal/assessment"
	"github.com/sos2a/assessment/internal/config"
	"github.com/sos2a/assessment/internal/store"
)

// Client calls the sos2a HTTP API.
type Client struct {
	baseURL    string
	http       *http.Client
	maxRetries int
	backoff    time.Duration
}

// New creates a client from configuration.
func New(cfg config.ClientConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		http:       &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
		backoff:    time.Second,
	}
}

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Fields     []assessment.FieldError
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("sos2a API error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("sos2a API error (status %d, %s): %s", e.StatusCode, e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Score assesses raw without storing it.
func (c *Client) Score(ctx context.Context, raw *assessment.RawInput) (*analysis.Report, error) {
	var resp api.ScoreResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/score", raw, &resp); err != nil {
		return nil, err
	}
	return resp.Report, nil
}

// Submit scores and stores raw, returning the stored record.
func (c *Client) Submit(ctx context.Context, raw *assessment.RawInput) (*store.Record, error) {
	var rec store.Record
	if err := c.do(ctx, http.MethodPost, "/api/v1/reports", raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) GetReport(ctx context.Context, id string) (*store.Record, error) {
	var rec store.Record
	if err := c.do(ctx, http.MethodGet, "/api/v1/reports/"+url.PathEscape(id), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) ListReports(ctx context.Context, limit, offset int) ([]store.Record, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var resp api.ListResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/reports?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Reports, nil
}

func (c *Client) DeleteReport(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/reports/"+url.PathEscape(id), nil, nil)
}

// CreateAssessment opens a draft seeded with raw.
func (c *Client) CreateAssessment(ctx context.Context, raw *assessment.RawInput) (*api.SessionResponse, error) {
	var sess api.SessionResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/assessments", raw, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Health returns nil when the server and its database are up.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.doWithRetry(ctx, req, payload)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, body)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func decodeError(status int, body []byte) error {
	apiErr := &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}

	var er struct {
		Error   string          `json:"error"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	}
	if json.Unmarshal(body, &er) == nil && er.Error != "" {
		apiErr.Code = er.Error
		apiErr.Message = er.Message
		if status == http.StatusUnprocessableEntity {
			_ = json.Unmarshal(er.Details, &apiErr.Fields)
		}
	}
	return apiErr
}
