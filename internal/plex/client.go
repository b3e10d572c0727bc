package plex

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/vmunix/plexlocalize/internal/metrics"
)

// Defaults applied by NewClient when Options leaves a field zero.
const (
	DefaultTimeout           = 10 * time.Second
	DefaultRequestsPerSecond = 20
	DefaultBurst             = 5
)

// Options tunes a Client.
type Options struct {
	// Timeout bounds every request.
	Timeout time.Duration
	// RequestsPerSecond caps the request rate to the server. Negative disables limiting.
	RequestsPerSecond float64
	Burst             int
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client talks to one Plex Media Server over its JSON API.
type Client struct {
	name       string
	baseURL    string
	token      string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
	log        *slog.Logger
}

// NewClient creates a client for the server reachable at baseURL.
// name identifies the server in logs, metrics and library selections.
func NewClient(name, baseURL, token string, opts Options, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RequestsPerSecond == 0 {
		opts.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if opts.Burst <= 0 {
		opts.Burst = DefaultBurst
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	limit := rate.Limit(opts.RequestsPerSecond)
	if opts.RequestsPerSecond < 0 {
		limit = rate.Inf
	}

	c := &Client{
		name:       name,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		timeout:    opts.Timeout,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, opts.Burst),
		log:        log.With("component", "plex", "server", name),
	}
	c.breaker = newBreaker(name, c.log)
	return c
}

// Name returns the configured server name.
func (c *Client) Name() string {
	return c.name
}

// Get issues a GET for endpoint, a path with optional query such as
// "/library/sections/1/all?type=1", and decodes the MediaContainer.
func (c *Client) Get(ctx context.Context, endpoint string) (*Container, error) {
	body, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return &resp.MediaContainer, nil
}

// Put issues a PUT for endpoint with params encoded in the query string,
// which is how Plex accepts metadata edits.
func (c *Client) Put(ctx context.Context, endpoint string, params url.Values) error {
	_, err := c.do(ctx, http.MethodPut, endpoint, params)
	return err
}

func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.send(ctx, method, endpoint, params)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.PlexRequests.WithLabelValues(c.name, method, "rejected").Inc()
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, c.name)
	}
	return body, err
}

func (c *Client) send(ctx context.Context, method, endpoint string, params url.Values) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL + endpoint
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		u += sep + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	metrics.PlexRequestDuration.WithLabelValues(c.name, method).Observe(elapsed.Seconds())
	if err != nil {
		metrics.PlexRequests.WithLabelValues(c.name, method, "error").Inc()
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug("plex request", "method", method, "endpoint", endpoint, "status", resp.StatusCode, "duration_ms", elapsed.Milliseconds())

	switch {
	case resp.StatusCode == http.StatusNotFound:
		metrics.PlexRequests.WithLabelValues(c.name, method, "not_found").Inc()
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, ErrNotFound)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		metrics.PlexRequests.WithLabelValues(c.name, method, "unauthorized").Inc()
		return nil, fmt.Errorf("%s %s: %w", method, endpoint, ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		metrics.PlexRequests.WithLabelValues(c.name, method, "error").Inc()
		return nil, &StatusError{Method: method, Endpoint: endpoint, Code: resp.StatusCode}
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		metrics.PlexRequests.WithLabelValues(c.name, method, "error").Inc()
		return nil, fmt.Errorf("read %s: %w", endpoint, err)
	}
	metrics.PlexRequests.WithLabelValues(c.name, method, "success").Inc()
	return buf.Bytes(), nil
}
