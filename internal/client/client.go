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

	"github.com/jpalmerr/tally/internal/server"
	"github.com/jpalmerr/tally/internal/store"
)

const maxResponseBodySize = 1 << 20 // 1MB

const defaultTimeout = 10 * time.Second

const (
	defaultMaxIdleConns        = 10
	defaultMaxIdleConnsPerHost = 10
	defaultIdleConnTimeout     = 60 * time.Second
)

// APIError is returned when the server answers with a non-2xx status.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the trimmed response body.
	Message string

	// RequestID echoes the X-Request-ID response header, if present.
	RequestID string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("server returned %d: %s (request_id: %s)", e.StatusCode, e.Message, e.RequestID)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to a running Tally server.
//
// Each call is bounded by the client timeout via its context. Response
// bodies larger than 1MB are rejected.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	timeout    time.Duration
}

// New creates a [Client] for the server at baseURL, e.g. "http://localhost:8080".
//
// A zero timeout uses 10s. Returns an error if baseURL is not an absolute
// http or https URL.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server address: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server address must use http or https, got %q", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("server address must include a host, got %q", baseURL)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		httpClient: &http.Client{
			// no default timeout - we use per-request timeouts via context
			Transport: &http.Transport{
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
		baseURL: u,
		timeout: timeout,
	}, nil
}

// Append adds numbers to the server's sequence.
func (c *Client) Append(ctx context.Context, numbers []int32) (server.AppendResponse, error) {
	var out server.AppendResponse
	err := c.do(ctx, http.MethodPost, "/numbers", nil, server.AppendRequest{Numbers: numbers}, &out)
	return out, err
}

// List returns the numbers in insertion order.
func (c *Client) List(ctx context.Context) ([]int32, error) {
	var out []int32
	err := c.do(ctx, http.MethodGet, "/numbers", nil, nil, &out)
	return out, err
}

// Sorted returns the numbers ordered by dir ("asc" or "desc").
// An empty dir lets the server choose ascending.
func (c *Client) Sorted(ctx context.Context, dir string) ([]int32, error) {
	query := url.Values{}
	if dir != "" {
		query.Set("sort", dir)
	}

	var out []int32
	err := c.do(ctx, http.MethodGet, "/numbers/sorted", query, nil, &out)
	return out, err
}

// Search reports whether value is stored.
func (c *Client) Search(ctx context.Context, value int32) (store.SearchResult, error) {
	query := url.Values{"value": {strconv.FormatInt(int64(value), 10)}}

	var out store.SearchResult
	err := c.do(ctx, http.MethodGet, "/numbers/search", query, nil, &out)
	return out, err
}

// Stats returns the rounded average and median.
func (c *Client) Stats(ctx context.Context) (store.Statistics, error) {
	var out store.Statistics
	err := c.do(ctx, http.MethodGet, "/numbers/stats", nil, nil, &out)
	return out, err
}

// ProcessParallel triggers the parallel aggregation.
func (c *Client) ProcessParallel(ctx context.Context) (store.ParallelResult, error) {
	var out store.ParallelResult
	err := c.do(ctx, http.MethodPost, "/numbers/process/parallel", nil, nil, &out)
	return out, err
}

// Quantiles returns approximate quantiles. Nil qs uses the server defaults.
func (c *Client) Quantiles(ctx context.Context, qs []float64) ([]store.QuantileValue, error) {
	query := url.Values{}
	if len(qs) > 0 {
		parts := make([]string, len(qs))
		for i, q := range qs {
			parts[i] = strconv.FormatFloat(q, 'f', -1, 64)
		}
		query.Set("q", strings.Join(parts, ","))
	}

	var out []store.QuantileValue
	err := c.do(ctx, http.MethodGet, "/numbers/quantiles", query, nil, &out)
	return out, err
}

// Close closes idle connections. The client remains usable.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}

// do sends one request and decodes a successful JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// read one byte past the limit to detect oversized bodies
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize+1))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if len(data) > maxResponseBodySize {
		return errors.New("response body exceeds 1MB limit")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(data)),
			RequestID:  resp.Header.Get("X-Request-ID"),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
