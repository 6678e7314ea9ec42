package provider

import (
	"context"
	"net/url"
	"time"

	"brokerlink/internal/domain"
	"brokerlink/internal/vendorapi"
)

// iexProvider serves bars from IEX Cloud. The API exposes one-minute
// intraday prices and daily chart ranges; other resolutions are not native.
type iexProvider struct {
	rest  *vendorapi.Client
	token string
}

var _ Provider = (*iexProvider)(nil)

// NewIEX creates the IEX Cloud provider rooted at baseURL.
func NewIEX(baseURL, token string, opts ...vendorapi.Option) Provider {
	return &iexProvider{rest: vendorapi.New("iex", baseURL, opts...), token: token}
}

func (p *iexProvider) SourceInfo() domain.DataSourceInfo {
	return domain.DataSourceInfo{
		ID:           "iex",
		Name:         "IEX Cloud",
		Assets:       []string{"stocks", "etf"},
		Timeframes:   []domain.Timeframe{domain.M1, domain.D1},
		RequiresAuth: true,
		Attribution:  "Data provided by IEX Cloud",
	}
}

// iexPoint is one intraday or chart point; intraday points carry date+minute,
// chart points carry date only.
type iexPoint struct {
	Date   string  `json:"date"`
	Minute string  `json:"minute"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

func (p *iexProvider) GetHistoricalData(ctx context.Context, symbol string, tf domain.Timeframe, start, end time.Time) ([]domain.Bar, error) {
	if p.token == "" {
		return nil, &domain.ValidationError{Platform: "iex", Missing: []string{"token"}}
	}
	start, end = clampRange(start, end)

	var path string
	switch tf {
	case domain.M1:
		path = "/stock/" + url.PathEscape(symbol) + "/intraday-prices"
	case domain.D1:
		path = "/stock/" + url.PathEscape(symbol) + "/chart/" + iexRange(start)
	default:
		return nil, unsupportedTimeframe("iex", tf)
	}

	q := url.Values{"token": {p.token}}
	var points []iexPoint
	if err := p.rest.GetJSON(ctx, "chart", path, q, &points); err != nil {
		return nil, err
	}

	bars := make([]domain.Bar, 0, len(points))
	for _, pt := range points {
		ts, err := iexStamp(pt)
		if err != nil {
			return nil, &domain.VendorError{Vendor: "iex", Op: "chart", Err: err}
		}
		// Trading halts produce points with no quote data.
		if pt.Open == 0 && pt.Close == 0 && pt.Volume == 0 {
			continue
		}
		bars = append(bars, domain.Bar{
			Timestamp: ts.UnixMilli(),
			Open:      pt.Open,
			High:      pt.High,
			Low:       pt.Low,
			Close:     pt.Close,
			Volume:    pt.Volume,
		})
	}
	return filterWindow(sortBars(bars), start, end), nil
}

func (p *iexProvider) AvailableSymbols(ctx context.Context) ([]string, error) {
	if p.token == "" {
		return nil, &domain.ValidationError{Platform: "iex", Missing: []string{"token"}}
	}
	var listing []struct {
		Symbol string `json:"symbol"`
	}
	q := url.Values{"token": {p.token}}
	if err := p.rest.GetJSON(ctx, "symbols", "/ref-data/iex/symbols", q, &listing); err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(listing))
	for _, entry := range listing {
		symbols = append(symbols, entry.Symbol)
	}
	return symbols, nil
}

func (p *iexProvider) TestConnection(ctx context.Context) error {
	if p.token == "" {
		return &domain.ValidationError{Platform: "iex", Missing: []string{"token"}}
	}
	q := url.Values{"token": {p.token}}
	var out map[string]any
	return p.rest.GetJSON(ctx, "quote", "/stock/SPY/quote", q, &out)
}

// iexRange picks the smallest chart range covering history back to start.
func iexRange(start time.Time) string {
	age := time.Since(start)
	switch {
	case age <= 30*24*time.Hour:
		return "1m"
	case age <= 90*24*time.Hour:
		return "3m"
	case age <= 180*24*time.Hour:
		return "6m"
	case age <= 365*24*time.Hour:
		return "1y"
	case age <= 2*365*24*time.Hour:
		return "2y"
	default:
		return "5y"
	}
}

func iexStamp(pt iexPoint) (time.Time, error) {
	if pt.Minute != "" {
		return time.Parse("2006-01-02 15:04", pt.Date+" "+pt.Minute)
	}
	return time.Parse("2006-01-02", pt.Date)
}
