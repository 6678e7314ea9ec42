package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"brokerlink/internal/domain"
	"brokerlink/internal/vendorapi"
)

// binanceIntervals maps normalized timeframes to Binance kline intervals.
var binanceIntervals = map[domain.Timeframe]string{
	domain.M1:  "1m",
	domain.M5:  "5m",
	domain.M15: "15m",
	domain.M30: "30m",
	domain.H1:  "1h",
	domain.H4:  "4h",
	domain.D1:  "1d",
	domain.W1:  "1w",
	domain.MN1: "1M",
}

// binanceProvider serves klines from the Binance spot REST API. No
// authentication is required for market data.
type binanceProvider struct {
	rest *vendorapi.Client
}

var _ Provider = (*binanceProvider)(nil)

// NewBinance creates the Binance provider rooted at baseURL.
func NewBinance(baseURL string, opts ...vendorapi.Option) Provider {
	return &binanceProvider{rest: vendorapi.New("binance", baseURL, opts...)}
}

func (p *binanceProvider) SourceInfo() domain.DataSourceInfo {
	return domain.DataSourceInfo{
		ID:         "binance",
		Name:       "Binance",
		Assets:     []string{"crypto"},
		Timeframes: domain.Timeframes(),
	}
}

func (p *binanceProvider) GetHistoricalData(ctx context.Context, symbol string, tf domain.Timeframe, start, end time.Time) ([]domain.Bar, error) {
	interval, ok := binanceIntervals[tf]
	if !ok {
		return nil, unsupportedTimeframe("binance", tf)
	}
	start, end = clampRange(start, end)

	q := url.Values{
		"symbol":    {symbol},
		"interval":  {interval},
		"startTime": {strconv.FormatInt(start.UnixMilli(), 10)},
		"endTime":   {strconv.FormatInt(end.UnixMilli(), 10)},
		"limit":     {"1000"},
	}
	// A kline is a positional array:
	// [openTime, open, high, low, close, volume, closeTime, ...].
	var rows [][]json.RawMessage
	if err := p.rest.GetJSON(ctx, "klines", "/api/v3/klines", q, &rows); err != nil {
		return nil, err
	}

	bars := make([]domain.Bar, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			return nil, &domain.VendorError{Vendor: "binance", Op: "klines", Err: fmt.Errorf("short kline row: %d fields", len(row))}
		}
		var openTime int64
		if err := json.Unmarshal(row[0], &openTime); err != nil {
			return nil, &domain.VendorError{Vendor: "binance", Op: "klines", Err: err}
		}
		bars = append(bars, domain.Bar{
			Timestamp: openTime,
			Open:      klineField(row[1]),
			High:      klineField(row[2]),
			Low:       klineField(row[3]),
			Close:     klineField(row[4]),
			Volume:    klineField(row[5]),
		})
	}
	return filterWindow(sortBars(bars), start, end), nil
}

func (p *binanceProvider) AvailableSymbols(ctx context.Context) ([]string, error) {
	var info struct {
		Symbols []struct {
			Symbol string `json:"symbol"`
			Status string `json:"status"`
		} `json:"symbols"`
	}
	if err := p.rest.GetJSON(ctx, "exchange-info", "/api/v3/exchangeInfo", nil, &info); err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		if s.Status != "TRADING" {
			continue
		}
		symbols = append(symbols, s.Symbol)
	}
	return symbols, nil
}

func (p *binanceProvider) TestConnection(ctx context.Context) error {
	return p.rest.GetJSON(ctx, "ping", "/api/v3/ping", nil, nil)
}

// klineField decodes one numeric-as-string kline element.
func klineField(raw json.RawMessage) float64 {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var v float64
		json.Unmarshal(raw, &v)
		return v
	}
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
