// Package jira is a minimal REST client for the Jira endpoints jirasearch
// needs: user search (for name resolution) and JQL issue search.
//
// Requests carry a Basic authorization header built from the configured API
// token and ask for JSON. Failed requests are retried with backoff on
// transport errors and 429/5xx responses only.
package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultAttempts = 3
	defaultDelay    = 200 * time.Millisecond

	// maxErrorBody bounds how much of a failed response is kept in APIError.
	maxErrorBody = 4096
)

// Client talks to a single Jira site.
// A Client is safe for concurrent use.
type Client struct {
	baseURL  *url.URL
	auth     string
	http     *http.Client
	attempts uint
	delay    time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout. A client passed with
// WithHTTPClient is copied rather than modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRetry sets the number of attempts and the initial backoff delay.
// attempts below 1 are treated as 1 (no retry).
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(c *Client) {
		if attempts < 1 {
			attempts = 1
		}
		c.attempts = attempts
		c.delay = delay
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the site at baseURL authenticating with
// apiToken. Relative API paths are resolved against baseURL, so a base with
// a context path (https://host/jira) is preserved.
func NewClient(baseURL, apiToken string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	c := &Client{
		baseURL:  base,
		auth:     "Basic " + base64.StdEncoding.EncodeToString([]byte(apiToken)),
		http:     &http.Client{Timeout: 10 * time.Second},
		attempts: defaultAttempts,
		delay:    defaultDelay,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.http
		hc.Timeout = c.timeout
		c.http = &hc
	}
	return c, nil
}

// BaseURL returns the site URL without a trailing slash.
func (c *Client) BaseURL() string {
	return strings.TrimSuffix(c.baseURL.String(), "/")
}

// endpoint resolves a relative API path (with optional query) against the
// base URL.
func (c *Client) endpoint(path string, query url.Values) string {
	ref := &url.URL{Path: strings.TrimPrefix(path, "/")}
	if len(query) > 0 {
		ref.RawQuery = query.Encode()
	}
	return c.baseURL.ResolveReference(ref).String()
}

// do sends one logical request, retrying transient failures, and decodes
// a 2xx JSON response into out.
func (c *Client) do(ctx context.Context, method, target string, body any, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	var respBody []byte
	err := retry.Do(
		func() error {
			b, err := c.send(ctx, method, target, payload)
			if err != nil {
				return err
			}
			respBody = b
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool { return retryable(ctx, err) }),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying jira request",
				"method", method,
				"url", target,
				"attempt", n+1,
				"error", err,
			)
		}),
	)
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, target string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.auth)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(text)}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return b, nil
}

// retryable reports whether err is worth another attempt.
// Cancellation of ctx and 4xx responses other than 429 are final; a
// per-request timeout under a live ctx is retried like any transport error.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return true
}
