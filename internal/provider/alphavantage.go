package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"brokerlink/internal/domain"
	"brokerlink/internal/vendorapi"
)

// alphaVantageIntervals maps intraday timeframes to Alpha Vantage interval
// strings. Daily and larger resolutions use dedicated functions instead.
var alphaVantageIntervals = map[domain.Timeframe]string{
	domain.M1:  "1min",
	domain.M5:  "5min",
	domain.M15: "15min",
	domain.M30: "30min",
	domain.H1:  "60min",
}

// alphaVantageProvider serves bars from the Alpha Vantage query API.
type alphaVantageProvider struct {
	rest   *vendorapi.Client
	apiKey string
}

var _ Provider = (*alphaVantageProvider)(nil)

// NewAlphaVantage creates the Alpha Vantage provider rooted at baseURL.
func NewAlphaVantage(baseURL, apiKey string, opts ...vendorapi.Option) Provider {
	return &alphaVantageProvider{
		rest:   vendorapi.New("alphavantage", baseURL, opts...),
		apiKey: apiKey,
	}
}

func (p *alphaVantageProvider) SourceInfo() domain.DataSourceInfo {
	return domain.DataSourceInfo{
		ID:           "alphavantage",
		Name:         "Alpha Vantage",
		Assets:       []string{"stocks", "forex", "crypto"},
		Timeframes:   []domain.Timeframe{domain.M1, domain.M5, domain.M15, domain.M30, domain.H1, domain.D1, domain.W1, domain.MN1},
		RequiresAuth: true,
		Attribution:  "Data provided by Alpha Vantage",
	}
}

func (p *alphaVantageProvider) GetHistoricalData(ctx context.Context, symbol string, tf domain.Timeframe, start, end time.Time) ([]domain.Bar, error) {
	if p.apiKey == "" {
		return nil, &domain.ValidationError{Platform: "alphavantage", Missing: []string{"apiKey"}}
	}
	start, end = clampRange(start, end)

	q := url.Values{
		"symbol":     {symbol},
		"apikey":     {p.apiKey},
		"outputsize": {"full"},
	}
	switch {
	case tf.Intraday():
		interval, ok := alphaVantageIntervals[tf]
		if !ok {
			return nil, unsupportedTimeframe("alphavantage", tf)
		}
		q.Set("function", "TIME_SERIES_INTRADAY")
		q.Set("interval", interval)
	case tf == domain.D1:
		q.Set("function", "TIME_SERIES_DAILY")
	case tf == domain.W1:
		q.Set("function", "TIME_SERIES_WEEKLY")
	case tf == domain.MN1:
		q.Set("function", "TIME_SERIES_MONTHLY")
	default:
		return nil, unsupportedTimeframe("alphavantage", tf)
	}

	var payload map[string]json.RawMessage
	if err := p.rest.GetJSON(ctx, "query", "/query", q, &payload); err != nil {
		return nil, err
	}
	if msg, ok := payload["Error Message"]; ok {
		return nil, &domain.VendorError{Vendor: "alphavantage", Op: "query", Err: fmt.Errorf("%s", string(msg))}
	}

	series, err := alphaVantageSeries(payload)
	if err != nil {
		return nil, err
	}
	bars := make([]domain.Bar, 0, len(series))
	for stamp, fields := range series {
		ts, err := parseAlphaVantageStamp(stamp)
		if err != nil {
			return nil, &domain.VendorError{Vendor: "alphavantage", Op: "query", Err: err}
		}
		bars = append(bars, domain.Bar{
			Timestamp: ts.UnixMilli(),
			Open:      alphaVantageField(fields, "open"),
			High:      alphaVantageField(fields, "high"),
			Low:       alphaVantageField(fields, "low"),
			Close:     alphaVantageField(fields, "close"),
			Volume:    alphaVantageField(fields, "volume"),
		})
	}
	return filterWindow(sortBars(bars), start, end), nil
}

// alphaVantageSymbols is the instrument set the provider advertises. The
// listing endpoint is premium-gated, so the set is curated.
var alphaVantageSymbols = []string{
	"AAPL", "AMZN", "GOOGL", "IBM", "META", "MSFT", "NVDA", "TSLA",
}

func (p *alphaVantageProvider) AvailableSymbols(_ context.Context) ([]string, error) {
	out := make([]string, len(alphaVantageSymbols))
	copy(out, alphaVantageSymbols)
	return out, nil
}

func (p *alphaVantageProvider) TestConnection(ctx context.Context) error {
	if p.apiKey == "" {
		return &domain.ValidationError{Platform: "alphavantage", Missing: []string{"apiKey"}}
	}
	q := url.Values{
		"function": {"GLOBAL_QUOTE"},
		"symbol":   {"IBM"},
		"apikey":   {p.apiKey},
	}
	var out map[string]json.RawMessage
	return p.rest.GetJSON(ctx, "global-quote", "/query", q, &out)
}

// alphaVantageSeries finds the time-series object in the response. Its key
// varies per function ("Time Series (5min)", "Weekly Time Series", ...).
func alphaVantageSeries(payload map[string]json.RawMessage) (map[string]map[string]string, error) {
	for key, raw := range payload {
		if !strings.Contains(key, "Time Series") {
			continue
		}
		var series map[string]map[string]string
		if err := json.Unmarshal(raw, &series); err != nil {
			return nil, &domain.VendorError{Vendor: "alphavantage", Op: "query", Err: err}
		}
		return series, nil
	}
	// No series key at all: the vendor answered with a note or an empty
	// result, which is a legitimate empty dataset.
	return nil, nil
}

// alphaVantageField reads one "n. name" numeric field, tolerating the
// numeric prefix varying between functions.
func alphaVantageField(fields map[string]string, name string) float64 {
	for key, value := range fields {
		if strings.HasSuffix(key, name) {
			v, _ := strconv.ParseFloat(value, 64)
			return v
		}
	}
	return 0
}

func parseAlphaVantageStamp(stamp string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02 15:04:05", stamp); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", stamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q: %w", stamp, err)
	}
	return t.UTC(), nil
}
