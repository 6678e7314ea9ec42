// Package domain defines the normalized types shared by every platform
// adapter and data provider: connection credentials, trading accounts,
// trades, historical bars, and the common error taxonomy.
package domain

import (
	"math"
	"time"
)

// ---------------------------------------------------------------------------
// Credentials
// ---------------------------------------------------------------------------

// Credentials carries everything a platform adapter may need to open a
// session. Only Platform and Name are universal; each adapter validates the
// subset its vendor requires and rejects the rest of the connection attempt
// before any network I/O.
type Credentials struct {
	Platform         string `json:"platform" yaml:"platform"`
	Name             string `json:"name" yaml:"name"`
	Broker           string `json:"broker,omitempty" yaml:"broker,omitempty"`
	Server           string `json:"server,omitempty" yaml:"server,omitempty"`
	Login            string `json:"login,omitempty" yaml:"login,omitempty"`
	Password         string `json:"password,omitempty" yaml:"password,omitempty"`
	InvestorPassword string `json:"investorPassword,omitempty" yaml:"investor_password,omitempty"`
	APIKey           string `json:"apiKey,omitempty" yaml:"api_key,omitempty"`
	APISecret        string `json:"apiSecret,omitempty" yaml:"api_secret,omitempty"`
	Username         string `json:"username,omitempty" yaml:"username,omitempty"`
	AccountID        string `json:"accountId,omitempty" yaml:"account_id,omitempty"`
}

// ---------------------------------------------------------------------------
// Accounts
// ---------------------------------------------------------------------------

// AccountStatus indicates whether a trading account is usable.
type AccountStatus string

const (
	AccountActive   AccountStatus = "active"
	AccountInactive AccountStatus = "inactive"
)

// TradingAccount is the normalized account record produced by every adapter.
type TradingAccount struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	AccountNumber string        `json:"accountNumber"`
	Broker        string        `json:"broker"`
	Platform      string        `json:"platform"`
	Status        AccountStatus `json:"status"`
	Balance       float64       `json:"balance"`
	Equity        float64       `json:"equity"`
	OpenPL        float64       `json:"openPL"`
	Currency      string        `json:"currency"`
	Margin        float64       `json:"margin,omitempty"`
	Leverage      int           `json:"leverage,omitempty"`
	Server        string        `json:"server,omitempty"`
	Type          string        `json:"type,omitempty"`
	LastUpdated   time.Time     `json:"lastUpdated,omitempty"`
}

// Reconciled reports whether equity, balance, and open P/L agree. Adapters
// must hold this before returning an account upward.
func (a TradingAccount) Reconciled() bool {
	return math.Abs((a.Equity-a.Balance)-a.OpenPL) < 1e-6
}

// ---------------------------------------------------------------------------
// Trades
// ---------------------------------------------------------------------------

// TradeDirection is the side of a trade.
type TradeDirection string

const (
	DirectionLong  TradeDirection = "long"
	DirectionShort TradeDirection = "short"
)

// TradeStatus marks a trade as open or closed.
type TradeStatus string

const (
	TradeOpen   TradeStatus = "open"
	TradeClosed TradeStatus = "closed"
)

// Trade is the normalized trade record. Status must be consistent with the
// close fields: closed trades carry both CloseDate and ClosePrice, open
// trades carry neither.
type Trade struct {
	ID            string         `json:"id"`
	AccountID     string         `json:"accountId"`
	Symbol        string         `json:"symbol"`
	Direction     TradeDirection `json:"direction"`
	OpenDate      time.Time      `json:"openDate"`
	CloseDate     *time.Time     `json:"closeDate,omitempty"`
	OpenPrice     float64        `json:"openPrice"`
	ClosePrice    *float64       `json:"closePrice,omitempty"`
	Size          float64        `json:"size"`
	Profit        float64        `json:"profit"`
	ProfitPercent float64        `json:"profitPercent"`
	Status        TradeStatus    `json:"status"`
	StopLoss      float64        `json:"stopLoss,omitempty"`
	TakeProfit    float64        `json:"takeProfit,omitempty"`
	Swap          float64        `json:"swap,omitempty"`
	Commission    float64        `json:"commission,omitempty"`
	Tags          []string       `json:"tags,omitempty"`
	Notes         string         `json:"notes,omitempty"`
}

// Consistent reports whether Status agrees with the presence of the close
// fields.
func (t Trade) Consistent() bool {
	closed := t.CloseDate != nil && t.ClosePrice != nil
	switch t.Status {
	case TradeClosed:
		return closed
	case TradeOpen:
		return t.CloseDate == nil && t.ClosePrice == nil
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// Historical bars
// ---------------------------------------------------------------------------

// Bar is one normalized OHLCV bar. Timestamp is epoch milliseconds UTC.
// Within a query result bars are ordered ascending by Timestamp with no
// duplicates per (provider, symbol, timeframe).
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

// Time returns the bar timestamp as a time.Time in UTC.
func (b Bar) Time() time.Time {
	return time.UnixMilli(b.Timestamp).UTC()
}

// SortedUnique reports whether bars are strictly ascending by timestamp.
func SortedUnique(bars []Bar) bool {
	for i := 1; i < len(bars); i++ {
		if bars[i].Timestamp <= bars[i-1].Timestamp {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Provider metadata
// ---------------------------------------------------------------------------

// DataSourceInfo describes a market-data provider. It is derived from the
// provider instance and never mutated afterwards.
type DataSourceInfo struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Assets       []string    `json:"assets"`
	Timeframes   []Timeframe `json:"timeframes"`
	RequiresAuth bool        `json:"requiresAuth"`
	Premium      bool        `json:"premium"`
	Attribution  string      `json:"attribution,omitempty"`
}
