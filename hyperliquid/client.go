// Package hyperliquid is a read-only client for the Hyperliquid info API.
package hyperliquid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/rustyeddy/perpjournal/metrics"
)

const (
	// MainnetURL is the public info endpoint.
	MainnetURL = "https://api.hyperliquid.xyz/info"
	// TestnetURL is the testnet info endpoint.
	TestnetURL = "https://api.hyperliquid-testnet.xyz/info"

	defaultMaxAttempts  = 5
	defaultBaseWait     = 200 * time.Millisecond
	defaultMaxWait      = 2 * time.Second
	defaultPageThrottle = 120 * time.Millisecond

	snippetLen = 500
)

// ErrAPI is wrapped by every error the venue reports, either through a non
// 2xx status or an error field in the body.
var ErrAPI = errors.New("hyperliquid: api error")

// Client talks to the info endpoint.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	logger      *slog.Logger
	maxAttempts int
	baseWait    time.Duration
	maxWait     time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another info endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithPageThrottle spaces consecutive requests at least d apart. Zero
// disables throttling.
func WithPageThrottle(d time.Duration) Option {
	return func(c *Client) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithMaxAttempts sets how many times a request is tried before giving up.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBackoff sets the first retry wait and its cap.
func WithBackoff(base, max time.Duration) Option {
	return func(c *Client) {
		c.baseWait = base
		c.maxWait = max
	}
}

// WithLogger sets the logger. The client logs under the "hyperliquid" group.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for mainnet unless WithBaseURL says otherwise.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:     MainnetURL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		limiter:     rate.NewLimiter(rate.Every(defaultPageThrottle), 1),
		maxAttempts: defaultMaxAttempts,
		baseWait:    defaultBaseWait,
		maxWait:     defaultMaxWait,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.WithGroup("hyperliquid")
	return c
}

// request is the common envelope of every info call.
type request struct {
	Type      string `json:"type"`
	User      string `json:"user,omitempty"`
	StartTime *int64 `json:"startTime,omitempty"`
	EndTime   *int64 `json:"endTime,omitempty"`
}

// post sends req and decodes the reply into out, retrying transport
// failures and venue errors with capped exponential backoff.
func (c *Client) post(ctx context.Context, req request, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", req.Type, err)
	}

	start := time.Now()
	defer func() {
		metrics.APIRequestDuration.WithLabelValues(req.Type).Observe(time.Since(start).Seconds())
	}()

	wait := c.baseWait
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		lastErr = c.do(ctx, req.Type, body, out)
		if lastErr == nil {
			metrics.APIRequestsTotal.WithLabelValues(req.Type, "ok").Inc()
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt == c.maxAttempts {
			break
		}

		c.logger.Warn("request failed, retrying",
			"type", req.Type, "attempt", attempt, "wait", wait, "err", lastErr)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
		wait = min(wait*2, c.maxWait)
	}

	metrics.APIRequestsTotal.WithLabelValues(req.Type, "error").Inc()
	return fmt.Errorf("%s failed after %d attempts: %w", req.Type, c.maxAttempts, lastErr)
}

func (c *Client) do(ctx context.Context, typ string, body []byte, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d [%s] %s", ErrAPI, resp.StatusCode, typ, snippet(raw))
	}

	// Errors come back as {"error": ...} with a 200.
	if len(raw) > 0 && raw[0] == '{' {
		var probe struct {
			Error json.RawMessage `json:"error"`
		}
		if json.Unmarshal(raw, &probe) == nil && len(probe.Error) > 0 && string(probe.Error) != "null" {
			return fmt.Errorf("%w: [%s] %s", ErrAPI, typ, snippet(probe.Error))
		}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", typ, err)
	}
	return nil
}

func snippet(b []byte) string {
	if len(b) > snippetLen {
		b = b[:snippetLen]
	}
	return string(b)
}

func ms(v int64) *int64 { return &v }
