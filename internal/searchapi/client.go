package searchapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"pieza-web/internal/logging"
	"pieza-web/internal/model"
)

// ErrSearchCallFailed covers every failure of the remote search call: transport
// errors, timeouts, non-success statuses and malformed bodies.
var ErrSearchCallFailed = errors.New("search call failed")

// maxErrorBody bounds how much of a failed response is kept in the error.
const maxErrorBody = 512

// Client calls the remote furniture search API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	rejections RejectionSink
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRejectionSink records listings dropped by validation.
func WithRejectionSink(s RejectionSink) Option {
	return func(c *Client) { c.rejections = s }
}

// NewClient creates a search API client. timeout bounds each call.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logging.OrDiscard(logger).With("component", "searchapi"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search posts query to /api/search and returns the valid listings in API order.
// A response whose listings are all invalid is a failed call.
func (c *Client) Search(ctx context.Context, query string) ([]model.Listing, error) {
	body, err := json.Marshal(model.SearchRequest{Prompt: query})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrSearchCallFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrSearchCallFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchCallFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: status %d: %s", ErrSearchCallFailed, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var result model.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchCallFailed, err)
	}

	listings, rejected := FilterListings(result.Items)
	for _, rej := range rejected {
		c.logger.Warn("listing rejected", "scope", rej.Scope, "reason", rej.Reason)
		if c.rejections != nil {
			if err := c.rejections.WriteRejection(ctx, query, rej); err != nil {
				c.logger.Error("write rejection", "error", err)
			}
		}
	}

	if len(result.Items) > 0 && len(listings) == 0 {
		return nil, fmt.Errorf("%w: all %d listings failed validation", ErrSearchCallFailed, len(result.Items))
	}

	c.logger.Debug("search call done",
		"query", query,
		"received", len(result.Items),
		"accepted", len(listings),
		"elapsed", time.Since(start))
	return listings, nil
}

// HealthCheck reports whether the search API answers GET /health with 200.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connect to search API at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("search API health check failed: status %d", resp.StatusCode)
	}
	return nil
}
