// Package vendorapi provides the shared REST plumbing used by every vendor
// client: base-URL handling, bearer/custom auth headers, JSON encoding, and
// uniform mapping of transport failures into the domain error taxonomy.
package vendorapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"brokerlink/internal/domain"
	"brokerlink/internal/util"
)

// Doer executes a single HTTP request. *http.Client satisfies it; tests
// substitute a canned transport.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a thin JSON REST client bound to one vendor endpoint.
type Client struct {
	vendor        string
	baseURL       string
	doer          Doer
	limiter       *util.RateLimiter
	log           *slog.Logger
	authHeader    string // header carrying the token, "Authorization" by default
	authPrefix    string // value prefix, "Bearer " by default
	token         string
	retryAttempts int
	retryDelay    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithDoer substitutes the HTTP transport, typically with a test double.
func WithDoer(d Doer) Option {
	return func(c *Client) { c.doer = d }
}

// WithRateLimiter makes every request wait for a token from rl first.
func WithRateLimiter(rl *util.RateLimiter) Option {
	return func(c *Client) { c.limiter = rl }
}

// WithAuthHeader overrides the default Authorization/Bearer scheme, e.g.
// MetaApi's bare "auth-token" header.
func WithAuthHeader(header, prefix string) Option {
	return func(c *Client) {
		c.authHeader = header
		c.authPrefix = prefix
	}
}

// WithRetry overrides the GET retry policy. attempts of 1 disables retries.
func WithRetry(attempts int, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.retryAttempts = attempts
		c.retryDelay = baseDelay
	}
}

// New creates a Client for the named vendor rooted at baseURL.
func New(vendor, baseURL string, opts ...Option) *Client {
	c := &Client{
		vendor:        vendor,
		baseURL:       strings.TrimRight(baseURL, "/"),
		doer:          &http.Client{Timeout: 30 * time.Second},
		log:           slog.Default().With("vendor", vendor),
		authHeader:    "Authorization",
		authPrefix:    "Bearer ",
		retryAttempts: 3,
		retryDelay:    250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Vendor returns the vendor identifier the client was created with.
func (c *Client) Vendor() string { return c.vendor }

// SetToken stores the session token attached to subsequent requests.
// An empty token removes the auth header.
func (c *Client) SetToken(token string) { c.token = token }

// GetJSON issues a GET for path with the given query parameters and decodes
// the JSON response body into out. op names the vendor operation for error
// context.
func (c *Client) GetJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	return c.do(ctx, op, http.MethodGet, path, query, nil, out)
}

// PostJSON issues a POST with a JSON-encoded body and decodes the JSON
// response into out.
func (c *Client) PostJSON(ctx context.Context, op, path string, body, out any) error {
	return c.do(ctx, op, http.MethodPost, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	// Only GETs are retried; everything else may not be idempotent.
	if method != http.MethodGet || c.retryAttempts <= 1 {
		_, err := c.attempt(ctx, op, method, path, query, body, out)
		return err
	}

	var final error
	err := util.Retry(ctx, c.retryAttempts, c.retryDelay, func() error {
		retryable, err := c.attempt(ctx, op, method, path, query, body, out)
		if err != nil && !retryable {
			final = err
			return nil
		}
		return err
	})
	if final != nil {
		return final
	}
	return err
}

// attempt executes one request. The bool reports whether a failure is worth
// retrying: transport errors and 5xx responses are, everything else is not.
func (c *Client) attempt(ctx context.Context, op, method, path string, query url.Values, body, out any) (bool, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return false, err
		}
	}

	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return false, &domain.VendorError{Vendor: c.vendor, Op: op, Err: err}
	}
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return false, &domain.VendorError{Vendor: c.vendor, Op: op, Err: err}
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return false, &domain.VendorError{Vendor: c.vendor, Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(c.authHeader, c.authPrefix+c.token)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		c.log.Warn("request failed", "op", op, "method", method, "err", err)
		return true, &domain.VendorError{Vendor: c.vendor, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.Warn("non-success response", "op", op, "status", resp.StatusCode)
		return resp.StatusCode >= 500, &domain.VendorError{
			Vendor:     c.vendor,
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(snippet))),
		}
	}

	if out == nil {
		return false, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.log.Warn("malformed response body", "op", op, "err", err)
		return false, &domain.VendorError{Vendor: c.vendor, Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return false, nil
}
