// Package tradelocker wraps the TradeLocker REST API: JWT auth from an API
// key pair, then bearer-token reads of accounts, open positions, and order
// history.
package tradelocker

import (
	"context"
	"net/url"

	"brokerlink/internal/vendorapi"
)

// Account is TradeLocker's native account representation.
type Account struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	AccNum     string  `json:"accNum"`
	Currency   string  `json:"currency"`
	Balance    float64 `json:"accountBalance"`
	Equity     float64 `json:"equity"`
	Status     string  `json:"status"`
	BrokerName string  `json:"brokerName"`
}

// Position is one open position as returned by the positions endpoint.
type Position struct {
	ID           string  `json:"id"`
	Symbol       string  `json:"tradableInstrument"`
	Side         string  `json:"side"` // "buy" or "sell"
	Qty          float64 `json:"qty"`
	AvgPrice     float64 `json:"avgPrice"`
	UnrealizedPL float64 `json:"unrealizedPl"`
	StopLoss     float64 `json:"stopLoss"`
	TakeProfit   float64 `json:"takeProfit"`
	OpenDateMs   int64   `json:"openDate"`
}

// Order is one filled historical order.
type Order struct {
	ID          string  `json:"id"`
	Symbol      string  `json:"tradableInstrument"`
	Side        string  `json:"side"`
	Qty         float64 `json:"qty"`
	AvgPrice    float64 `json:"avgPrice"`
	ClosePrice  float64 `json:"closePrice"`
	RealizedPL  float64 `json:"realizedPl"`
	Commission  float64 `json:"commission"`
	OpenDateMs  int64   `json:"openDate"`
	CloseDateMs int64   `json:"closeDate"`
}

// Service is the TradeLocker operation set consumed by the platform adapter.
type Service interface {
	// Authenticate exchanges the API key pair for a session token.
	Authenticate(ctx context.Context, apiKey, apiSecret string) error

	// Accounts lists the trading accounts visible to the session.
	Accounts(ctx context.Context) ([]Account, error)

	// Positions lists open positions for an account.
	Positions(ctx context.Context, accountID string) ([]Position, error)

	// OrdersHistory lists filled orders for an account.
	OrdersHistory(ctx context.Context, accountID string) ([]Order, error)
}

// Client talks to a live TradeLocker endpoint.
type Client struct {
	rest *vendorapi.Client
}

var _ Service = (*Client)(nil)

// NewClient creates a live TradeLocker client rooted at baseURL
// (e.g. https://demo.tradelocker.com/backend-api).
func NewClient(baseURL string, opts ...vendorapi.Option) *Client {
	return &Client{rest: vendorapi.New("tradelocker", baseURL, opts...)}
}

type authRequest struct {
	APIKey    string `json:"apiKey"`
	APISecret string `json:"apiSecret"`
}

type authResponse struct {
	AccessToken string `json:"accessToken"`
}

// Authenticate performs POST /auth/jwt/token and stores the returned token
// for subsequent calls.
func (c *Client) Authenticate(ctx context.Context, apiKey, apiSecret string) error {
	var resp authResponse
	err := c.rest.PostJSON(ctx, "auth/jwt/token", "/auth/jwt/token",
		authRequest{APIKey: apiKey, APISecret: apiSecret}, &resp)
	if err != nil {
		return err
	}
	c.rest.SetToken(resp.AccessToken)
	return nil
}

type accountsResponse struct {
	Accounts []Account `json:"accounts"`
}

// Accounts performs GET /trade/accounts.
func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	var resp accountsResponse
	if err := c.rest.GetJSON(ctx, "trade/accounts", "/trade/accounts", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Accounts, nil
}

type positionsResponse struct {
	Positions []Position `json:"positions"`
}

// Positions performs GET /trade/accounts/{id}/positions.
func (c *Client) Positions(ctx context.Context, accountID string) ([]Position, error) {
	var resp positionsResponse
	path := "/trade/accounts/" + url.PathEscape(accountID) + "/positions"
	if err := c.rest.GetJSON(ctx, "trade/positions", path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Positions, nil
}

type ordersResponse struct {
	Orders []Order `json:"orders"`
}

// OrdersHistory performs GET /trade/accounts/{id}/ordersHistory.
func (c *Client) OrdersHistory(ctx context.Context, accountID string) ([]Order, error) {
	var resp ordersResponse
	path := "/trade/accounts/" + url.PathEscape(accountID) + "/ordersHistory"
	if err := c.rest.GetJSON(ctx, "trade/ordersHistory", path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}
