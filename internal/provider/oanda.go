package provider

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"brokerlink/internal/domain"
	"brokerlink/internal/vendorapi"
)

// oandaGranularities maps normalized timeframes to OANDA v3 granularities.
var oandaGranularities = map[domain.Timeframe]string{
	domain.M1:  "M1",
	domain.M5:  "M5",
	domain.M15: "M15",
	domain.M30: "M30",
	domain.H1:  "H1",
	domain.H4:  "H4",
	domain.D1:  "D",
	domain.W1:  "W",
	domain.MN1: "M",
}

// oandaProvider serves mid-price candles from the OANDA v3 REST API.
type oandaProvider struct {
	rest  *vendorapi.Client
	token string
}

var _ Provider = (*oandaProvider)(nil)

// NewOanda creates the OANDA provider rooted at baseURL (practice or live).
func NewOanda(baseURL, token string, opts ...vendorapi.Option) Provider {
	rest := vendorapi.New("oanda", baseURL, opts...)
	rest.SetToken(token)
	return &oandaProvider{rest: rest, token: token}
}

func (p *oandaProvider) SourceInfo() domain.DataSourceInfo {
	return domain.DataSourceInfo{
		ID:           "oanda",
		Name:         "OANDA",
		Assets:       []string{"forex", "metals", "cfd"},
		Timeframes:   domain.Timeframes(),
		RequiresAuth: true,
	}
}

type oandaCandlesResponse struct {
	Instrument  string `json:"instrument"`
	Granularity string `json:"granularity"`
	Candles     []struct {
		Complete bool   `json:"complete"`
		Time     string `json:"time"`
		Volume   int    `json:"volume"`
		Mid      *struct {
			O string `json:"o"`
			H string `json:"h"`
			L string `json:"l"`
			C string `json:"c"`
		} `json:"mid,omitempty"`
	} `json:"candles"`
}

func (p *oandaProvider) GetHistoricalData(ctx context.Context, symbol string, tf domain.Timeframe, start, end time.Time) ([]domain.Bar, error) {
	if p.token == "" {
		return nil, &domain.ValidationError{Platform: "oanda", Missing: []string{"token"}}
	}
	granularity, ok := oandaGranularities[tf]
	if !ok {
		return nil, unsupportedTimeframe("oanda", tf)
	}
	start, end = clampRange(start, end)

	q := url.Values{
		"granularity": {granularity},
		"price":       {"M"},
		"from":        {start.Format(time.RFC3339)},
		"to":          {end.Format(time.RFC3339)},
	}
	var resp oandaCandlesResponse
	path := "/v3/instruments/" + url.PathEscape(symbol) + "/candles"
	if err := p.rest.GetJSON(ctx, "candles", path, q, &resp); err != nil {
		return nil, err
	}

	bars := make([]domain.Bar, 0, len(resp.Candles))
	for _, c := range resp.Candles {
		if c.Mid == nil {
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, c.Time)
		if err != nil {
			return nil, &domain.VendorError{Vendor: "oanda", Op: "candles", Err: err}
		}
		bars = append(bars, domain.Bar{
			Timestamp: ts.UnixMilli(),
			Open:      parsePrice(c.Mid.O),
			High:      parsePrice(c.Mid.H),
			Low:       parsePrice(c.Mid.L),
			Close:     parsePrice(c.Mid.C),
			Volume:    float64(c.Volume),
		})
	}
	return filterWindow(sortBars(bars), start, end), nil
}

func (p *oandaProvider) AvailableSymbols(_ context.Context) ([]string, error) {
	// The instruments endpoint is account-scoped; advertise the tradable
	// majors the practice environment always carries.
	return []string{
		"EUR_USD", "GBP_USD", "USD_JPY", "USD_CHF", "AUD_USD", "USD_CAD",
		"NZD_USD", "XAU_USD", "XAG_USD",
	}, nil
}

func (p *oandaProvider) TestConnection(ctx context.Context) error {
	if p.token == "" {
		return &domain.ValidationError{Platform: "oanda", Missing: []string{"token"}}
	}
	q := url.Values{"granularity": {"D"}, "count": {"1"}, "price": {"M"}}
	var resp oandaCandlesResponse
	return p.rest.GetJSON(ctx, "candles", "/v3/instruments/EUR_USD/candles", q, &resp)
}

func parsePrice(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
