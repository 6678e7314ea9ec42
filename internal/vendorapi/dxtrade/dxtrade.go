// Package dxtrade wraps the DXtrade REST API: session login with
// username/domain/password, then session-token reads of account portfolio,
// positions, and order history.
package dxtrade

import (
	"context"
	"net/url"
	"time"

	"brokerlink/internal/vendorapi"
)

// Portfolio is DXtrade's account snapshot.
type Portfolio struct {
	Account       string  `json:"account"`
	Currency      string  `json:"currency"`
	Balance       float64 `json:"balance"`
	Equity        float64 `json:"equity"`
	OpenPL        float64 `json:"openPnL"`
	MarginUsed    float64 `json:"marginUsed"`
	AccountStatus string  `json:"accountStatus"`
}

// Position is one open DXtrade position.
type Position struct {
	PositionCode string    `json:"positionCode"`
	Symbol       string    `json:"symbol"`
	Side         string    `json:"side"` // "BUY" or "SELL"
	Quantity     float64   `json:"quantity"`
	OpenPrice    float64   `json:"openPrice"`
	OpenPL       float64   `json:"openPnL"`
	OpenTime     time.Time `json:"openTime"`
}

// HistoryOrder is one completed DXtrade order.
type HistoryOrder struct {
	OrderCode  string    `json:"orderCode"`
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"`
	Quantity   float64   `json:"quantity"`
	OpenPrice  float64   `json:"openPrice"`
	ClosePrice float64   `json:"closePrice"`
	RealizedPL float64   `json:"realizedPnL"`
	OpenTime   time.Time `json:"openTime"`
	CloseTime  time.Time `json:"closeTime"`
}

// Service is the DXtrade operation set consumed by the platform adapter.
type Service interface {
	Login(ctx context.Context, username, domainName, password string) error

	// DefaultAccount returns the account code the session is bound to, or
	// empty when the gateway expects the caller to supply one.
	DefaultAccount() string

	Portfolio(ctx context.Context, account string) (Portfolio, error)
	Positions(ctx context.Context, account string) ([]Position, error)
	History(ctx context.Context, account string) ([]HistoryOrder, error)
}

// Client talks to a live DXtrade gateway (e.g. https://dxtrade.ftmo.com/api).
type Client struct {
	rest *vendorapi.Client
}

var _ Service = (*Client)(nil)

// NewClient creates a live DXtrade client rooted at baseURL.
func NewClient(baseURL string, opts ...vendorapi.Option) *Client {
	opts = append([]vendorapi.Option{vendorapi.WithAuthHeader("Authorization", "DXAPI ")}, opts...)
	return &Client{rest: vendorapi.New("dxtrade", baseURL, opts...)}
}

type loginRequest struct {
	Username string `json:"username"`
	Domain   string `json:"domain"`
	Password string `json:"password"`
}

type loginResponse struct {
	SessionToken string `json:"sessionToken"`
}

// Login performs POST /dxsca-web/login and stores the session token.
func (c *Client) Login(ctx context.Context, username, domainName, password string) error {
	var resp loginResponse
	err := c.rest.PostJSON(ctx, "login", "/dxsca-web/login",
		loginRequest{Username: username, Domain: domainName, Password: password}, &resp)
	if err != nil {
		return err
	}
	c.rest.SetToken(resp.SessionToken)
	return nil
}

// DefaultAccount returns empty: live gateways take the account code from
// the caller's credentials.
func (c *Client) DefaultAccount() string { return "" }

// Portfolio performs GET /dxsca-web/accounts/{account}/portfolio.
func (c *Client) Portfolio(ctx context.Context, account string) (Portfolio, error) {
	var p Portfolio
	path := "/dxsca-web/accounts/" + url.PathEscape(account) + "/portfolio"
	err := c.rest.GetJSON(ctx, "portfolio", path, nil, &p)
	return p, err
}

type positionsResponse struct {
	Positions []Position `json:"positions"`
}

// Positions performs GET /dxsca-web/accounts/{account}/positions.
func (c *Client) Positions(ctx context.Context, account string) ([]Position, error) {
	var resp positionsResponse
	path := "/dxsca-web/accounts/" + url.PathEscape(account) + "/positions"
	if err := c.rest.GetJSON(ctx, "positions", path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Positions, nil
}

type historyResponse struct {
	Orders []HistoryOrder `json:"orders"`
}

// History performs GET /dxsca-web/accounts/{account}/orders/history.
func (c *Client) History(ctx context.Context, account string) ([]HistoryOrder, error) {
	var resp historyResponse
	path := "/dxsca-web/accounts/" + url.PathEscape(account) + "/orders/history"
	if err := c.rest.GetJSON(ctx, "orders/history", path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}
