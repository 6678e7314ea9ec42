package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"brokerlink/internal/domain"
	"brokerlink/internal/vendorapi"
)

// yahooIntervals maps normalized timeframes to the v8 chart API vocabulary.
// Yahoo has no 4-hour resolution.
var yahooIntervals = map[domain.Timeframe]string{
	domain.M1:  "1m",
	domain.M5:  "5m",
	domain.M15: "15m",
	domain.M30: "30m",
	domain.H1:  "1h",
	domain.D1:  "1d",
	domain.W1:  "1wk",
	domain.MN1: "1mo",
}

// yahooProvider serves bars from the Yahoo Finance v8 chart API.
type yahooProvider struct {
	rest *vendorapi.Client
}

var _ Provider = (*yahooProvider)(nil)

// NewYahoo creates the Yahoo Finance provider rooted at baseURL.
func NewYahoo(baseURL string, opts ...vendorapi.Option) Provider {
	return &yahooProvider{rest: vendorapi.New("yahoo", baseURL, opts...)}
}

func (p *yahooProvider) SourceInfo() domain.DataSourceInfo {
	return domain.DataSourceInfo{
		ID:         "yahoo",
		Name:       "Yahoo Finance",
		Assets:     []string{"stocks", "etf", "indices", "forex", "crypto"},
		Timeframes: []domain.Timeframe{domain.M1, domain.M5, domain.M15, domain.M30, domain.H1, domain.D1, domain.W1, domain.MN1},
	}
}

// yahooChartResponse is the subset of the v8 chart payload the provider
// consumes.
type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (p *yahooProvider) GetHistoricalData(ctx context.Context, symbol string, tf domain.Timeframe, start, end time.Time) ([]domain.Bar, error) {
	interval, ok := yahooIntervals[tf]
	if !ok {
		return nil, unsupportedTimeframe("yahoo", tf)
	}
	start, end = clampRange(start, end)

	q := url.Values{
		"interval": {interval},
		"period1":  {strconv.FormatInt(start.Unix(), 10)},
		"period2":  {strconv.FormatInt(end.Unix(), 10)},
		"events":   {"div,splits"},
	}
	var resp yahooChartResponse
	if err := p.rest.GetJSON(ctx, "chart", "/v8/finance/chart/"+url.PathEscape(symbol), q, &resp); err != nil {
		return nil, err
	}
	if e := resp.Chart.Error; e != nil {
		return nil, &domain.VendorError{Vendor: "yahoo", Op: "chart", Err: fmt.Errorf("%s: %s", e.Code, e.Description)}
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return []domain.Bar{}, nil
	}

	result := resp.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	var adj []float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]domain.Bar, 0, len(result.Timestamp))
	for i, sec := range result.Timestamp {
		if i >= len(quote.Close) {
			break
		}
		b := domain.Bar{
			Timestamp: sec * 1000,
			Open:      at(quote.Open, i),
			High:      at(quote.High, i),
			Low:       at(quote.Low, i),
			Close:     at(quote.Close, i),
			Volume:    at(quote.Volume, i),
		}
		b.AdjustedClose = at(adj, i)
		if b.AdjustedClose == 0 {
			b.AdjustedClose = b.Close
		}
		bars = append(bars, b)
	}
	return filterWindow(sortBars(bars), start, end), nil
}

func (p *yahooProvider) AvailableSymbols(_ context.Context) ([]string, error) {
	// The chart API is symbol-addressed with no listing endpoint; advertise
	// the liquid defaults the layer is exercised with.
	return []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "SPY", "QQQ", "EURUSD=X", "BTC-USD"}, nil
}

func (p *yahooProvider) TestConnection(ctx context.Context) error {
	q := url.Values{"interval": {"1d"}, "range": {"1d"}}
	var resp yahooChartResponse
	return p.rest.GetJSON(ctx, "chart", "/v8/finance/chart/SPY", q, &resp)
}

// at reads index i from a possibly shorter series, returning zero past the
// end. Yahoo pads missing points with nulls that decode to zero values.
func at(s []float64, i int) float64 {
	if i < len(s) {
		return s[i]
	}
	return 0
}
