// Package client is an HTTP client for the leaderboard API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/okian/gauntlet/internal/domain/types"
)

const (
	defaultTimeout  = 10 * time.Second
	leaderboardPath = "/api/leaderboard"
	healthPath      = "/health"
)

// Submission is the body of POST /api/leaderboard. Scores are sent as JSON
// numbers; the server rounds them.
type Submission struct {
	Name  string  `json:"name"`
	Cash  float64 `json:"cash"`
	Sales float64 `json:"sales"`
	Burn  float64 `json:"burn"`
}

// Client talks to one leaderboard server.
type Client struct {
	client  *resty.Client
	baseURL string
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.client.SetTimeout(d)
		}
	}
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = resty.NewWithClient(hc)
		}
	}
}

// New creates a Client for baseURL, e.g. http://localhost:3000.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		client:  resty.New(),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
	c.client.SetTimeout(defaultTimeout)
	for _, opt := range opts {
		opt(c)
	}
	c.client.SetRetryCount(0)
	c.client.SetHeader("Accept", "application/json")
	return c
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (types.Health, error) {
	var out types.Health
	err := c.do(ctx, http.MethodGet, healthPath, nil, &out)
	return out, err
}

// List calls GET /api/leaderboard.
func (c *Client) List(ctx context.Context) ([]types.Entry, error) {
	out := []types.Entry{}
	err := c.do(ctx, http.MethodGet, leaderboardPath, nil, &out)
	return out, err
}

// Submit calls POST /api/leaderboard and returns the new entry id.
func (c *Client) Submit(ctx context.Context, s Submission) (int64, error) {
	var out types.SubmitResponse
	if err := c.do(ctx, http.MethodPost, leaderboardPath, s, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// Reset calls DELETE /api/leaderboard and returns the number of removed rows.
func (c *Client) Reset(ctx context.Context) (int64, error) {
	var out types.ResetResponse
	if err := c.do(ctx, http.MethodDelete, leaderboardPath, nil, &out); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c == nil || c.client == nil {
		return ErrNotInitialized
	}

	req := c.client.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, c.baseURL+path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode()}
		var e types.ErrorResponse
		if json.Unmarshal(resp.Body(), &e) == nil {
			apiErr.Message = e.Error
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
