// Package brokerlink provides a Go SDK for the brokerlink-server REST API.
package brokerlink

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Platform describes one supported trading platform.
type Platform struct {
	ID       string   `json:"id"`
	Features []string `json:"features,omitempty"`
}

// Provider describes one market-data provider.
type Provider struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Assets       []string `json:"assets"`
	Timeframes   []string `json:"timeframes"`
	RequiresAuth bool     `json:"requiresAuth"`
	Premium      bool     `json:"premium"`
	Attribution  string   `json:"attribution,omitempty"`
}

// Bar is one OHLCV bar. Timestamp is epoch milliseconds UTC.
type Bar struct {
	Timestamp     int64   `json:"timestamp"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	Volume        float64 `json:"volume"`
	AdjustedClose float64 `json:"adjustedClose,omitempty"`
	Dividends     float64 `json:"dividends,omitempty"`
	Splits        float64 `json:"splits,omitempty"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// Client talks to a brokerlink-server instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an API client for the given base URL, e.g.
// "http://localhost:8080".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
			body.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: body.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ListPlatforms lists the supported trading platforms.
func (c *Client) ListPlatforms(ctx context.Context) ([]Platform, error) {
	var resp struct {
		Platforms []Platform `json:"platforms"`
	}
	if err := c.get(ctx, "/api/v1/platforms", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Platforms, nil
}

// ListProviders lists the supported market-data providers.
func (c *Client) ListProviders(ctx context.Context) ([]Provider, error) {
	var resp struct {
		Providers []Provider `json:"providers"`
	}
	if err := c.get(ctx, "/api/v1/providers", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Providers, nil
}

// ProviderInfo describes one provider.
func (c *Client) ProviderInfo(ctx context.Context, providerID string) (Provider, error) {
	var resp Provider
	err := c.get(ctx, "/api/v1/providers/"+url.PathEscape(providerID), nil, &resp)
	return resp, err
}

// TestProvider checks connectivity to one provider.
func (c *Client) TestProvider(ctx context.Context, providerID string) error {
	return c.do(ctx, http.MethodPost,
		"/api/v1/providers/"+url.PathEscape(providerID)+"/test", nil, nil)
}

// AvailableSymbols lists the symbols a provider can serve.
func (c *Client) AvailableSymbols(ctx context.Context, providerID string) ([]string, error) {
	q := url.Values{"provider": {providerID}}
	var resp struct {
		Symbols []string `json:"symbols"`
	}
	if err := c.get(ctx, "/api/v1/symbols", q, &resp); err != nil {
		return nil, err
	}
	return resp.Symbols, nil
}

// GetHistory fetches historical bars for one query. Timeframe uses the
// server's normalized tokens (M1, M5, M15, M30, H1, H4, D1, W1, MN1). Zero
// start/end default to the server's one-month window ending now.
func (c *Client) GetHistory(ctx context.Context, providerID, symbol, timeframe string, start, end time.Time) ([]Bar, error) {
	q := url.Values{
		"provider":  {providerID},
		"symbol":    {symbol},
		"timeframe": {timeframe},
	}
	if !start.IsZero() {
		q.Set("start", start.UTC().Format(time.RFC3339))
	}
	if !end.IsZero() {
		q.Set("end", end.UTC().Format(time.RFC3339))
	}
	var resp struct {
		Bars []Bar `json:"bars"`
	}
	if err := c.get(ctx, "/api/v1/history", q, &resp); err != nil {
		return nil, err
	}
	return resp.Bars, nil
}

// ClearCache drops the server's historical data cache.
func (c *Client) ClearCache(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/cache", nil, nil)
}
