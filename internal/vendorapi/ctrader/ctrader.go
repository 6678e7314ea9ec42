// Package ctrader wraps the cTrader Open API REST surface: OAuth
// client-credentials token exchange, then bearer reads of trading accounts
// and deal history.
package ctrader

import (
	"context"
	"net/url"
	"strconv"

	"brokerlink/internal/vendorapi"
)

// TradingAccount is cTrader's native account record.
type TradingAccount struct {
	AccountID   int64   `json:"accountId"`
	AccountNum  string  `json:"accountNumber"`
	Live        bool    `json:"live"`
	BrokerName  string  `json:"brokerName"`
	BrokerTitle string  `json:"brokerTitle"`
	Deposit     string  `json:"depositCurrency"`
	Balance     float64 `json:"balance"`
	Equity      float64 `json:"equity"`
	Leverage    int     `json:"leverage"`
	Status      string  `json:"traderAccountStatus"` // TRADER_ACCOUNT_STATUS_ACTIVE etc.
}

// Deal is one cTrader deal; open positions are deals without close fields.
type Deal struct {
	DealID         int64   `json:"dealId"`
	PositionID     int64   `json:"positionId"`
	SymbolName     string  `json:"symbolName"`
	TradeSide      string  `json:"tradeSide"` // "BUY" or "SELL"
	Volume         float64 `json:"volume"`
	EntryPrice     float64 `json:"entryPrice"`
	ClosePrice     float64 `json:"closePrice"` // zero while open
	GrossProfit    float64 `json:"grossProfit"`
	Swap           float64 `json:"swap"`
	Commission     float64 `json:"commission"`
	CreateMs       int64   `json:"createTimestamp"`
	CloseMs        int64   `json:"closeTimestamp"` // zero while open
	Closed         bool    `json:"closed"`
}

// Service is the cTrader operation set consumed by the platform adapter.
type Service interface {
	Authenticate(ctx context.Context, clientID, clientSecret string) error
	Accounts(ctx context.Context) ([]TradingAccount, error)
	Deals(ctx context.Context, accountID string) ([]Deal, error)
}

// Client talks to a live cTrader Open API endpoint
// (e.g. https://api.spotware.com).
type Client struct {
	rest *vendorapi.Client
}

var _ Service = (*Client)(nil)

// NewClient creates a live cTrader client rooted at baseURL.
func NewClient(baseURL string, opts ...vendorapi.Option) *Client {
	return &Client{rest: vendorapi.New("ctrader", baseURL, opts...)}
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
}

// Authenticate performs the OAuth client-credentials exchange.
func (c *Client) Authenticate(ctx context.Context, clientID, clientSecret string) error {
	body := map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     clientID,
		"client_secret": clientSecret,
	}
	var resp tokenResponse
	if err := c.rest.PostJSON(ctx, "oauth/token", "/apps/token", body, &resp); err != nil {
		return err
	}
	c.rest.SetToken(resp.AccessToken)
	return nil
}

type accountsResponse struct {
	Data []TradingAccount `json:"data"`
}

// Accounts performs GET /connect/tradingaccounts.
func (c *Client) Accounts(ctx context.Context) ([]TradingAccount, error) {
	var resp accountsResponse
	if err := c.rest.GetJSON(ctx, "connect/tradingaccounts", "/connect/tradingaccounts", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

type dealsResponse struct {
	Data []Deal `json:"data"`
}

// Deals performs GET /connect/tradingaccounts/{id}/deals.
func (c *Client) Deals(ctx context.Context, accountID string) ([]Deal, error) {
	var resp dealsResponse
	path := "/connect/tradingaccounts/" + url.PathEscape(accountID) + "/deals"
	q := url.Values{"limit": {"500"}}
	if err := c.rest.GetJSON(ctx, "connect/deals", path, q, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// AccountIDString formats a numeric cTrader account id for the normalized
// model.
func AccountIDString(id int64) string { return strconv.FormatInt(id, 10) }
