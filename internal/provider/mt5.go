package provider

import (
	"context"
	"sync"
	"time"

	"brokerlink/internal/domain"
	"brokerlink/internal/vendorapi/metaapi"
)

// mt5Provider serves candles from a MetaTrader 5 terminal through the
// MetaApi bridge. The terminal itself is the data source, so the provider
// shares the metaapi vendor client with the mt5 platform adapter.
type mt5Provider struct {
	svc metaapi.Service

	mu        sync.Mutex
	accountID string
}

var _ Provider = (*mt5Provider)(nil)

// NewMT5 creates the MT5 provider over the given MetaApi service. accountID
// names the cloud account serving market data; when empty it is resolved
// lazily.
func NewMT5(svc metaapi.Service, accountID string) Provider {
	return &mt5Provider{svc: svc, accountID: accountID}
}

func (p *mt5Provider) SourceInfo() domain.DataSourceInfo {
	return domain.DataSourceInfo{
		ID:           "mt5",
		Name:         "MetaTrader 5",
		Assets:       []string{"forex", "metals", "indices", "cfd"},
		Timeframes:   domain.Timeframes(),
		RequiresAuth: true,
	}
}

func (p *mt5Provider) GetHistoricalData(ctx context.Context, symbol string, tf domain.Timeframe, start, end time.Time) ([]domain.Bar, error) {
	native, ok := metaapi.NativeTimeframes[tf]
	if !ok {
		return nil, unsupportedTimeframe("mt5", tf)
	}
	start, end = clampRange(start, end)

	accountID, err := p.resolveAccount(ctx)
	if err != nil {
		return nil, err
	}
	candles, err := p.svc.Candles(ctx, accountID, symbol, native, start, end)
	if err != nil {
		return nil, err
	}

	bars := make([]domain.Bar, 0, len(candles))
	for _, c := range candles {
		bars = append(bars, domain.Bar{
			Timestamp: c.Time.UnixMilli(),
			Open:      c.Open,
			High:      c.High,
			Low:       c.Low,
			Close:     c.Close,
			Volume:    c.TickVolume,
		})
	}
	return filterWindow(sortBars(bars), start, end), nil
}

func (p *mt5Provider) AvailableSymbols(ctx context.Context) ([]string, error) {
	accountID, err := p.resolveAccount(ctx)
	if err != nil {
		return nil, err
	}
	return p.svc.Symbols(ctx, accountID)
}

func (p *mt5Provider) TestConnection(ctx context.Context) error {
	accountID, err := p.resolveAccount(ctx)
	if err != nil {
		return err
	}
	_, err = p.svc.AccountInformation(ctx, accountID)
	return err
}

// resolveAccount returns the configured cloud account id, resolving and
// memoizing one from the service when none was configured.
func (p *mt5Provider) resolveAccount(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.accountID != "" {
		return p.accountID, nil
	}
	id, err := p.svc.Resolve(ctx, "market-data", "", "")
	if err != nil {
		return "", err
	}
	p.accountID = id
	return id, nil
}
