// Package tradestation wraps the TradeStation v3 brokerage API: bearer-token
// reads of accounts, balances, positions, and historical orders.
package tradestation

import (
	"context"
	"net/url"

	"brokerlink/internal/vendorapi"
)

// Account is TradeStation's native account record.
type Account struct {
	AccountID   string `json:"AccountID"`
	Alias       string `json:"Alias"`
	AccountType string `json:"AccountType"`
	Currency    string `json:"Currency"`
	Status      string `json:"Status"` // "Active" / "Closed"
}

// Balance is the balance snapshot for one account.
type Balance struct {
	AccountID       string  `json:"AccountID"`
	CashBalance     float64 `json:"CashBalance,string"`
	Equity          float64 `json:"Equity,string"`
	MarketValue     float64 `json:"MarketValue,string"`
	UnrealizedPL    float64 `json:"UnrealizedProfitLoss,string"`
	MarginRequired  float64 `json:"MarginRequirement,string"`
}

// Position is one open position.
type Position struct {
	PositionID   string  `json:"PositionID"`
	AccountID    string  `json:"AccountID"`
	Symbol       string  `json:"Symbol"`
	LongShort    string  `json:"LongShort"` // "Long" or "Short"
	Quantity     float64 `json:"Quantity,string"`
	AveragePrice float64 `json:"AveragePrice,string"`
	UnrealizedPL float64 `json:"UnrealizedProfitLoss,string"`
	Timestamp    string  `json:"Timestamp"` // RFC3339
}

// HistoricalOrder is one filled historical order.
type HistoricalOrder struct {
	OrderID     string  `json:"OrderID"`
	AccountID   string  `json:"AccountID"`
	Symbol      string  `json:"Symbol"`
	TradeAction string  `json:"TradeAction"` // "BUY" / "SELL" / "SELLSHORT" / "BUYTOCOVER"
	Quantity    float64 `json:"Quantity,string"`
	FilledPrice float64 `json:"FilledPrice,string"`
	ClosedPrice float64 `json:"ClosedPrice,string"`
	RealizedPL  float64 `json:"RealizedProfitLoss,string"`
	OpenedTime  string  `json:"OpenedDateTime"` // RFC3339
	ClosedTime  string  `json:"ClosedDateTime"` // RFC3339
}

// Service is the TradeStation operation set consumed by the platform
// adapter.
type Service interface {
	Authenticate(ctx context.Context, apiKey string) error
	Accounts(ctx context.Context) ([]Account, error)
	Balances(ctx context.Context, accountID string) (Balance, error)
	Positions(ctx context.Context, accountID string) ([]Position, error)
	HistoricalOrders(ctx context.Context, accountID string) ([]HistoricalOrder, error)
}

// Client talks to a live TradeStation endpoint
// (e.g. https://api.tradestation.com).
type Client struct {
	rest *vendorapi.Client
}

var _ Service = (*Client)(nil)

// NewClient creates a live TradeStation client rooted at baseURL.
func NewClient(baseURL string, opts ...vendorapi.Option) *Client {
	return &Client{rest: vendorapi.New("tradestation", baseURL, opts...)}
}

// Authenticate stores the bearer token. TradeStation tokens come from its
// OAuth flow; the integration layer receives them ready-made.
func (c *Client) Authenticate(_ context.Context, apiKey string) error {
	c.rest.SetToken(apiKey)
	return nil
}

type accountsResponse struct {
	Accounts []Account `json:"Accounts"`
}

// Accounts performs GET /v3/brokerage/accounts.
func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	var resp accountsResponse
	if err := c.rest.GetJSON(ctx, "brokerage/accounts", "/v3/brokerage/accounts", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Accounts, nil
}

type balancesResponse struct {
	Balances []Balance `json:"Balances"`
}

// Balances performs GET /v3/brokerage/accounts/{id}/balances.
func (c *Client) Balances(ctx context.Context, accountID string) (Balance, error) {
	var resp balancesResponse
	path := "/v3/brokerage/accounts/" + url.PathEscape(accountID) + "/balances"
	if err := c.rest.GetJSON(ctx, "brokerage/balances", path, nil, &resp); err != nil {
		return Balance{}, err
	}
	if len(resp.Balances) == 0 {
		return Balance{AccountID: accountID}, nil
	}
	return resp.Balances[0], nil
}

type positionsResponse struct {
	Positions []Position `json:"Positions"`
}

// Positions performs GET /v3/brokerage/accounts/{id}/positions.
func (c *Client) Positions(ctx context.Context, accountID string) ([]Position, error) {
	var resp positionsResponse
	path := "/v3/brokerage/accounts/" + url.PathEscape(accountID) + "/positions"
	if err := c.rest.GetJSON(ctx, "brokerage/positions", path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Positions, nil
}

type ordersResponse struct {
	Orders []HistoricalOrder `json:"Orders"`
}

// HistoricalOrders performs GET /v3/brokerage/accounts/{id}/historicalorders.
func (c *Client) HistoricalOrders(ctx context.Context, accountID string) ([]HistoricalOrder, error) {
	var resp ordersResponse
	path := "/v3/brokerage/accounts/" + url.PathEscape(accountID) + "/historicalorders"
	if err := c.rest.GetJSON(ctx, "brokerage/historicalorders", path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}
