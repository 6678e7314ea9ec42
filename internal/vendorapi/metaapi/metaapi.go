// Package metaapi wraps the MetaApi cloud REST API, the bridge used for
// MetaTrader 4 and MetaTrader 5 terminals. Authentication is a long-lived
// token sent in the auth-token header; terminal accounts are addressed by
// the cloud account id resolved from (login, server).
package metaapi

import (
	"context"
	"net/url"
	"time"

	"brokerlink/internal/vendorapi"
)

// AccountInformation mirrors MetaApi's account-information payload.
type AccountInformation struct {
	Broker      string  `json:"broker"`
	Currency    string  `json:"currency"`
	Server      string  `json:"server"`
	Balance     float64 `json:"balance"`
	Equity      float64 `json:"equity"`
	Margin      float64 `json:"margin"`
	FreeMargin  float64 `json:"freeMargin"`
	Leverage    int     `json:"leverage"`
	Login       int64   `json:"login"`
	Name        string  `json:"name"`
	Platform    string  `json:"platform"` // "mt4" or "mt5"
	TradeAllowed bool   `json:"tradeAllowed"`
}

// Position is one open terminal position.
type Position struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Type        string    `json:"type"` // POSITION_TYPE_BUY / POSITION_TYPE_SELL
	Volume      float64   `json:"volume"`
	OpenPrice   float64   `json:"openPrice"`
	Profit      float64   `json:"profit"`
	Swap        float64   `json:"swap"`
	Commission  float64   `json:"commission"`
	StopLoss    float64   `json:"stopLoss"`
	TakeProfit  float64   `json:"takeProfit"`
	Time        time.Time `json:"time"`
}

// Deal is one history deal (closed trade leg).
type Deal struct {
	ID         string    `json:"id"`
	PositionID string    `json:"positionId"`
	Symbol     string    `json:"symbol"`
	Type       string    `json:"type"` // DEAL_TYPE_BUY / DEAL_TYPE_SELL
	Volume     float64   `json:"volume"`
	Price      float64   `json:"price"`
	EntryPrice float64   `json:"entryPrice"`
	Profit     float64   `json:"profit"`
	Swap       float64   `json:"swap"`
	Commission float64   `json:"commission"`
	EntryTime  time.Time `json:"entryTime"`
	Time       time.Time `json:"time"`
}

// Candle is one historical OHLCV candle.
type Candle struct {
	Time       time.Time `json:"time"`
	Open       float64   `json:"open"`
	High       float64   `json:"high"`
	Low        float64   `json:"low"`
	Close      float64   `json:"close"`
	TickVolume float64   `json:"tickVolume"`
}

// Service is the MetaApi operation set consumed by the MT4/MT5 adapters and
// the mt5 data provider.
type Service interface {
	// Resolve finds the cloud account id for a terminal (login, server)
	// pair, verifying the password grants at least read access.
	Resolve(ctx context.Context, login, password, server string) (string, error)

	// AccountInformation reads the terminal account snapshot.
	AccountInformation(ctx context.Context, accountID string) (AccountInformation, error)

	// Positions lists the terminal's open positions.
	Positions(ctx context.Context, accountID string) ([]Position, error)

	// Deals lists history deals in [start, end].
	Deals(ctx context.Context, accountID string, start, end time.Time) ([]Deal, error)

	// Candles reads historical candles for a symbol at a native timeframe
	// token ("1m".."1mn").
	Candles(ctx context.Context, accountID, symbol, timeframe string, start, end time.Time) ([]Candle, error)

	// Symbols lists the instruments available on the terminal.
	Symbols(ctx context.Context, accountID string) ([]string, error)
}

// Client talks to a live MetaApi region endpoint
// (e.g. https://mt-client-api-v1.london.agiliumtrade.ai).
type Client struct {
	rest *vendorapi.Client
}

var _ Service = (*Client)(nil)

// NewClient creates a live MetaApi client with the given API token.
func NewClient(baseURL, token string, opts ...vendorapi.Option) *Client {
	opts = append([]vendorapi.Option{vendorapi.WithAuthHeader("auth-token", "")}, opts...)
	rest := vendorapi.New("metaapi", baseURL, opts...)
	rest.SetToken(token)
	return &Client{rest: rest}
}

type cloudAccount struct {
	ID     string `json:"_id"`
	Login  string `json:"login"`
	Server string `json:"server"`
	State  string `json:"state"`
}

// Resolve performs GET /users/current/accounts and matches (login, server).
func (c *Client) Resolve(ctx context.Context, login, _, server string) (string, error) {
	var accounts []cloudAccount
	if err := c.rest.GetJSON(ctx, "accounts", "/users/current/accounts", nil, &accounts); err != nil {
		return "", err
	}
	for _, a := range accounts {
		if a.Login == login && a.Server == server {
			return a.ID, nil
		}
	}
	return "", &vendorNotFoundError{login: login, server: server}
}

// AccountInformation performs GET .../account-information.
func (c *Client) AccountInformation(ctx context.Context, accountID string) (AccountInformation, error) {
	var info AccountInformation
	path := "/users/current/accounts/" + url.PathEscape(accountID) + "/account-information"
	err := c.rest.GetJSON(ctx, "account-information", path, nil, &info)
	return info, err
}

// Positions performs GET .../positions.
func (c *Client) Positions(ctx context.Context, accountID string) ([]Position, error) {
	var positions []Position
	path := "/users/current/accounts/" + url.PathEscape(accountID) + "/positions"
	if err := c.rest.GetJSON(ctx, "positions", path, nil, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

// Deals performs GET .../history-deals/time/{start}/{end}.
func (c *Client) Deals(ctx context.Context, accountID string, start, end time.Time) ([]Deal, error) {
	var deals []Deal
	path := "/users/current/accounts/" + url.PathEscape(accountID) +
		"/history-deals/time/" + start.UTC().Format(time.RFC3339) + "/" + end.UTC().Format(time.RFC3339)
	if err := c.rest.GetJSON(ctx, "history-deals", path, nil, &deals); err != nil {
		return nil, err
	}
	return deals, nil
}

// Candles performs GET .../historical-market-data/symbols/{symbol}/timeframes/{tf}/candles.
func (c *Client) Candles(ctx context.Context, accountID, symbol, timeframe string, start, end time.Time) ([]Candle, error) {
	q := url.Values{
		"startTime": {start.UTC().Format(time.RFC3339)},
		"endTime":   {end.UTC().Format(time.RFC3339)},
	}
	var candles []Candle
	path := "/users/current/accounts/" + url.PathEscape(accountID) +
		"/historical-market-data/symbols/" + url.PathEscape(symbol) +
		"/timeframes/" + url.PathEscape(timeframe) + "/candles"
	if err := c.rest.GetJSON(ctx, "candles", path, q, &candles); err != nil {
		return nil, err
	}
	return candles, nil
}

// Symbols performs GET .../symbols.
func (c *Client) Symbols(ctx context.Context, accountID string) ([]string, error) {
	var symbols []string
	path := "/users/current/accounts/" + url.PathEscape(accountID) + "/symbols"
	if err := c.rest.GetJSON(ctx, "symbols", path, nil, &symbols); err != nil {
		return nil, err
	}
	return symbols, nil
}

type vendorNotFoundError struct {
	login  string
	server string
}

func (e *vendorNotFoundError) Error() string {
	return "metaapi: no cloud account for login " + e.login + " on " + e.server
}
