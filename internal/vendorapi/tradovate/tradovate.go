// Package tradovate wraps the Tradovate REST API: access-token auth from
// username/password, then bearer reads of accounts, positions, and fills.
package tradovate

import (
	"context"
	"net/url"
	"strconv"

	"brokerlink/internal/vendorapi"
)

// Account is Tradovate's native account record.
type Account struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	AccountType  string  `json:"accountType"`
	Active       bool    `json:"active"`
	Balance      float64 `json:"balance"`
	TotalCashVal float64 `json:"totalCashValue"`
	Currency     string  `json:"currencyName"`
}

// Position is one open position from the position list.
type Position struct {
	ID         int     `json:"id"`
	AccountID  int     `json:"accountId"`
	ContractID int     `json:"contractId"`
	Symbol     string  `json:"symbol"`
	NetPos     float64 `json:"netPos"` // negative for short
	NetPrice   float64 `json:"netPrice"`
	OpenPL     float64 `json:"openPl"`
	Timestamp  string  `json:"timestamp"` // RFC3339
}

// Fill is one execution fill from the fill list.
type Fill struct {
	ID        int     `json:"id"`
	AccountID int     `json:"accountId"`
	Symbol    string  `json:"symbol"`
	Action    string  `json:"action"` // "Buy" or "Sell"
	Qty       float64 `json:"qty"`
	Price     float64 `json:"price"`
	ExitPrice float64 `json:"exitPrice"`
	RealizedPL float64 `json:"realizedPl"`
	Timestamp string  `json:"timestamp"` // entry, RFC3339
	ExitTime  string  `json:"exitTime"`  // RFC3339
}

// Service is the Tradovate operation set consumed by the platform adapter.
type Service interface {
	// Authenticate performs the access-token request with name/password.
	Authenticate(ctx context.Context, name, password string) error

	// Accounts performs GET /account/list.
	Accounts(ctx context.Context) ([]Account, error)

	// Positions performs GET /position/list?accountId=.
	Positions(ctx context.Context, accountID string) ([]Position, error)

	// Fills performs GET /fill/list?accountId=.
	Fills(ctx context.Context, accountID string) ([]Fill, error)
}

// Client talks to a live Tradovate endpoint
// (e.g. https://demo.tradovateapi.com/v1).
type Client struct {
	rest *vendorapi.Client
}

var _ Service = (*Client)(nil)

// NewClient creates a live Tradovate client rooted at baseURL.
func NewClient(baseURL string, opts ...vendorapi.Option) *Client {
	return &Client{rest: vendorapi.New("tradovate", baseURL, opts...)}
}

type accessTokenRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	AppID    string `json:"appId"`
}

type accessTokenResponse struct {
	AccessToken    string `json:"accessToken"`
	ExpirationTime string `json:"expirationTime"`
	ErrorText      string `json:"errorText"`
}

// Authenticate performs POST /auth/accessTokenRequest and stores the
// returned token.
func (c *Client) Authenticate(ctx context.Context, name, password string) error {
	var resp accessTokenResponse
	err := c.rest.PostJSON(ctx, "auth/accessTokenRequest", "/auth/accessTokenRequest",
		accessTokenRequest{Name: name, Password: password, AppID: "brokerlink"}, &resp)
	if err != nil {
		return err
	}
	c.rest.SetToken(resp.AccessToken)
	return nil
}

// Accounts performs GET /account/list.
func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	var accounts []Account
	if err := c.rest.GetJSON(ctx, "account/list", "/account/list", nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Positions performs GET /position/list?accountId=.
func (c *Client) Positions(ctx context.Context, accountID string) ([]Position, error) {
	q := url.Values{"accountId": {accountID}}
	var positions []Position
	if err := c.rest.GetJSON(ctx, "position/list", "/position/list", q, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

// Fills performs GET /fill/list?accountId=.
func (c *Client) Fills(ctx context.Context, accountID string) ([]Fill, error) {
	q := url.Values{"accountId": {accountID}}
	var fills []Fill
	if err := c.rest.GetJSON(ctx, "fill/list", "/fill/list", q, &fills); err != nil {
		return nil, err
	}
	return fills, nil
}

// AccountIDString formats a numeric Tradovate account id the way the rest of
// the layer keys accounts.
func AccountIDString(id int) string { return strconv.Itoa(id) }
