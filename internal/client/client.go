// Package client talks to a running worktime daemon over its REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joescharf/worktime/internal/engine"
	"github.com/joescharf/worktime/internal/models"
	"github.com/joescharf/worktime/internal/timeline"
)

const defaultTimeout = 10 * time.Second

// APIError is a non-2xx response from the daemon.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Code)
	}
	return fmt.Sprintf("daemon returned %d: %s", e.Status, e.Message)
}

// Client is an HTTP client for the daemon API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the daemon at baseURL, e.g. http://localhost:8765.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon not reachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(data, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Health reports whether the daemon answers.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/v1/health", nil, nil)
}

// Status returns the tracker status.
func (c *Client) Status(ctx context.Context) (*engine.Status, error) {
	var st engine.Status
	if err := c.do(ctx, http.MethodGet, "/api/v1/tracking/status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Start begins tracking projectID with an optional activity type.
func (c *Client) Start(ctx context.Context, projectID string, activityType *string) (*engine.Status, error) {
	in := map[string]any{"project_id": projectID, "activity_type": activityType}
	var st engine.Status
	if err := c.do(ctx, http.MethodPost, "/api/v1/tracking/start", in, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Stop ends tracking and returns the persisted session.
func (c *Client) Stop(ctx context.Context) (*engine.StopResult, error) {
	var res engine.StopResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/tracking/stop", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// PendingIdle returns the outstanding idle period, or nil.
func (c *Client) PendingIdle(ctx context.Context) (*engine.PendingIdlePeriod, error) {
	var out struct {
		Pending *engine.PendingIdlePeriod `json:"pending"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/idle", nil, &out); err != nil {
		return nil, err
	}
	return out.Pending, nil
}

// AttributeIdle books the pending idle period on projectID.
func (c *Client) AttributeIdle(ctx context.Context, projectID string) (*models.Session, error) {
	var sess models.Session
	if err := c.do(ctx, http.MethodPost, "/api/v1/idle/attribute", map[string]string{"project_id": projectID}, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Break discards the pending idle period.
func (c *Client) Break(ctx context.Context) (*engine.PendingIdlePeriod, error) {
	var p engine.PendingIdlePeriod
	if err := c.do(ctx, http.MethodPost, "/api/v1/idle/break", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SetIdleThreshold changes the daemon's idle threshold.
func (c *Client) SetIdleThreshold(ctx context.Context, minutes int) error {
	return c.do(ctx, http.MethodPut, "/api/v1/settings/idle-threshold", map[string]int{"minutes": minutes}, nil)
}

// Timeline fetches the aggregated timeline for a date range.
func (c *Client) Timeline(ctx context.Context, start, end string) (*timeline.Timeline, error) {
	q := url.Values{}
	q.Set("start", start)
	q.Set("end", end)
	var tl timeline.Timeline
	if err := c.do(ctx, http.MethodGet, "/api/v1/timeline?"+q.Encode(), nil, &tl); err != nil {
		return nil, err
	}
	return &tl, nil
}

// Stats fetches the day, week and month usage summary around date.
func (c *Client) Stats(ctx context.Context, date string, limit int) (*timeline.Stats, error) {
	q := url.Values{}
	if date != "" {
		q.Set("date", date)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var st timeline.Stats
	if err := c.do(ctx, http.MethodGet, "/api/v1/stats?"+q.Encode(), nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
