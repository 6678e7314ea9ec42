package provider

import (
	"context"
	"time"

	"brokerlink/internal/domain"
	"brokerlink/internal/vendorapi/sandbox"
)

// dukascopyProvider serves bars from the deterministic local generator.
// Dukascopy publishes historical data as downloadable tick archives rather
// than a queryable JSON API, so this source runs fully offline over the
// trading calendar.
type dukascopyProvider struct{}

var _ Provider = (*dukascopyProvider)(nil)

// NewDukascopy creates the offline Dukascopy provider.
func NewDukascopy() Provider {
	return &dukascopyProvider{}
}

func (p *dukascopyProvider) SourceInfo() domain.DataSourceInfo {
	return domain.DataSourceInfo{
		ID:         "dukascopy",
		Name:       "Dukascopy",
		Assets:     []string{"forex", "metals", "indices"},
		Timeframes: domain.Timeframes(),
	}
}

func (p *dukascopyProvider) GetHistoricalData(_ context.Context, symbol string, tf domain.Timeframe, start, end time.Time) ([]domain.Bar, error) {
	if _, err := domain.ParseTimeframe(string(tf)); err != nil {
		return nil, err
	}
	start, end = clampRange(start, end)
	return sandbox.Bars("dukascopy", symbol, tf, start, end), nil
}

func (p *dukascopyProvider) AvailableSymbols(_ context.Context) ([]string, error) {
	return sandbox.Symbols(), nil
}

func (p *dukascopyProvider) TestConnection(_ context.Context) error {
	return nil
}
