package provider

import (
	"context"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"brokerlink/internal/domain"
)

// polygonSpan is one multiplier/timespan pair in Polygon's aggregate
// vocabulary.
type polygonSpan struct {
	multiplier int
	timespan   models.Timespan
}

var polygonSpans = map[domain.Timeframe]polygonSpan{
	domain.M1:  {1, models.Minute},
	domain.M5:  {5, models.Minute},
	domain.M15: {15, models.Minute},
	domain.M30: {30, models.Minute},
	domain.H1:  {1, models.Hour},
	domain.H4:  {4, models.Hour},
	domain.D1:  {1, models.Day},
	domain.W1:  {1, models.Week},
	domain.MN1: {1, models.Month},
}

// polygonProvider serves bars through the official Polygon REST client.
type polygonProvider struct {
	rest   *polygon.Client
	apiKey string
}

var _ Provider = (*polygonProvider)(nil)

// NewPolygon creates the Polygon provider with the given API key.
func NewPolygon(apiKey string) Provider {
	return &polygonProvider{rest: polygon.New(apiKey), apiKey: apiKey}
}

func (p *polygonProvider) SourceInfo() domain.DataSourceInfo {
	return domain.DataSourceInfo{
		ID:           "polygon",
		Name:         "Polygon.io",
		Assets:       []string{"stocks", "options", "forex", "crypto"},
		Timeframes:   domain.Timeframes(),
		RequiresAuth: true,
		Premium:      true,
	}
}

func (p *polygonProvider) GetHistoricalData(ctx context.Context, symbol string, tf domain.Timeframe, start, end time.Time) ([]domain.Bar, error) {
	if p.apiKey == "" {
		return nil, &domain.ValidationError{Platform: "polygon", Missing: []string{"apiKey"}}
	}
	span, ok := polygonSpans[tf]
	if !ok {
		return nil, unsupportedTimeframe("polygon", tf)
	}
	start, end = clampRange(start, end)

	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: span.multiplier,
		Timespan:   span.timespan,
		From:       models.Millis(start),
		To:         models.Millis(end),
	}.WithOrder(models.Asc).WithAdjusted(true).WithLimit(50000)

	var bars []domain.Bar
	iter := p.rest.ListAggs(ctx, params)
	for iter.Next() {
		agg := iter.Item()
		bars = append(bars, domain.Bar{
			Timestamp: time.Time(agg.Timestamp).UnixMilli(),
			Open:      agg.Open,
			High:      agg.High,
			Low:       agg.Low,
			Close:     agg.Close,
			Volume:    agg.Volume,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, &domain.VendorError{Vendor: "polygon", Op: "aggs", Err: err}
	}
	return filterWindow(sortBars(bars), start, end), nil
}

func (p *polygonProvider) AvailableSymbols(ctx context.Context) ([]string, error) {
	if p.apiKey == "" {
		return nil, &domain.ValidationError{Platform: "polygon", Missing: []string{"apiKey"}}
	}
	params := models.ListTickersParams{}.
		WithMarket(models.AssetStocks).
		WithActive(true).
		WithLimit(100)

	var symbols []string
	iter := p.rest.ListTickers(ctx, params)
	for iter.Next() {
		symbols = append(symbols, iter.Item().Ticker)
	}
	if err := iter.Err(); err != nil {
		return nil, &domain.VendorError{Vendor: "polygon", Op: "tickers", Err: err}
	}
	return symbols, nil
}

func (p *polygonProvider) TestConnection(ctx context.Context) error {
	if p.apiKey == "" {
		return &domain.ValidationError{Platform: "polygon", Missing: []string{"apiKey"}}
	}
	if _, err := p.rest.GetMarketStatus(ctx); err != nil {
		return &domain.VendorError{Vendor: "polygon", Op: "market-status", Err: err}
	}
	return nil
}
