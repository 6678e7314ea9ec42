// Package provider defines the market-data provider contract and its eight
// implementations. Providers normalize each vendor's bar representation and
// interval vocabulary into the shared domain model.
package provider

import (
	"context"
	"sort"
	"strings"
	"time"

	"brokerlink/internal/config"
	"brokerlink/internal/domain"
	"brokerlink/internal/util"
	"brokerlink/internal/vendorapi"
	"brokerlink/internal/vendorapi/metaapi"
)

// Provider is the uniform contract every market-data source implements.
//
// GetHistoricalData returns bars ascending by timestamp with no duplicates;
// an empty slice is a legitimate result distinct from an error. Each
// provider translates normalized timeframe tokens to its native vocabulary
// and rejects tokens it cannot serve with a domain.ValidationError.
type Provider interface {
	// GetHistoricalData fetches OHLCV bars for symbol in [start, end].
	GetHistoricalData(ctx context.Context, symbol string, tf domain.Timeframe, start, end time.Time) ([]domain.Bar, error)

	// AvailableSymbols lists instruments the provider can serve.
	AvailableSymbols(ctx context.Context) ([]string, error)

	// SourceInfo returns immutable provider metadata.
	SourceInfo() domain.DataSourceInfo

	// TestConnection performs a cheap reachability probe.
	TestConnection(ctx context.Context) error
}

// ID is a supported data-provider identifier. The set is closed: adding a
// provider means adding a constant and a constructor table entry here.
type ID string

const (
	AlphaVantage ID = "alphavantage"
	Yahoo        ID = "yahoo"
	Oanda        ID = "oanda"
	Polygon      ID = "polygon"
	IEX          ID = "iex"
	Binance      ID = "binance"
	MT5          ID = "mt5"
	Dukascopy    ID = "dukascopy"
)

// constructors is the static registration table. Constructors take no
// credentials; the Registry substitutes configured endpoints and keys.
var constructors = map[ID]func() Provider{
	AlphaVantage: func() Provider { return NewAlphaVantage("https://www.alphavantage.co", "") },
	Yahoo:        func() Provider { return NewYahoo("https://query1.finance.yahoo.com") },
	Oanda:        func() Provider { return NewOanda("https://api-fxpractice.oanda.com", "") },
	Polygon:      func() Provider { return NewPolygon("") },
	IEX:          func() Provider { return NewIEX("https://cloud.iexapis.com/stable", "") },
	Binance:      func() Provider { return NewBinance("https://api.binance.com") },
	MT5:          func() Provider { return NewMT5(metaapi.NewSimulator("mt5"), "") },
	Dukascopy:    func() Provider { return NewDukascopy() },
}

// Parse resolves a case-insensitive provider identifier string.
func Parse(s string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := constructors[id]; !ok {
		return "", &domain.UnsupportedError{Kind: "provider", ID: s}
	}
	return id, nil
}

// Supported returns all provider identifiers in sorted order.
func Supported() []ID {
	ids := make([]ID, 0, len(constructors))
	for id := range constructors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Registry constructs providers, substituting configured endpoints and API
// keys for the public defaults. One Registry is built at startup and handed
// to the data manager; it owns no provider state.
type Registry struct {
	cfg *config.Config
}

// NewRegistry creates a Registry over the given configuration. A nil config
// keeps every provider on its public default endpoint with no credentials.
func NewRegistry(cfg *config.Config) *Registry {
	return &Registry{cfg: cfg}
}

// New constructs a provider for the identifier. Unknown identifiers yield
// domain.UnsupportedError; nothing is constructed.
func (r *Registry) New(identifier string) (Provider, error) {
	id, err := Parse(identifier)
	if err != nil {
		return nil, err
	}
	if r.cfg == nil {
		return constructors[id](), nil
	}

	switch id {
	case AlphaVantage:
		if ep := r.cfg.Providers.AlphaVantage; ep.Token != "" || ep.BaseURL != "" {
			return NewAlphaVantage(orDefault(ep.BaseURL, "https://www.alphavantage.co"), ep.Token, limiterOpts(ep)...), nil
		}
	case Yahoo:
		if ep := r.cfg.Providers.Yahoo; ep.BaseURL != "" {
			return NewYahoo(ep.BaseURL, limiterOpts(ep)...), nil
		}
	case Oanda:
		if ep := r.cfg.Providers.Oanda; ep.Token != "" || ep.BaseURL != "" {
			return NewOanda(orDefault(ep.BaseURL, "https://api-fxpractice.oanda.com"), ep.Token, limiterOpts(ep)...), nil
		}
	case Polygon:
		if ep := r.cfg.Providers.Polygon; ep.Token != "" {
			return NewPolygon(ep.Token), nil
		}
	case IEX:
		if ep := r.cfg.Providers.IEX; ep.Token != "" || ep.BaseURL != "" {
			return NewIEX(orDefault(ep.BaseURL, "https://cloud.iexapis.com/stable"), ep.Token, limiterOpts(ep)...), nil
		}
	case Binance:
		if ep := r.cfg.Providers.Binance; ep.BaseURL != "" {
			return NewBinance(ep.BaseURL, limiterOpts(ep)...), nil
		}
	case MT5:
		if ep := r.cfg.Vendors.MetaAPI; ep.BaseURL != "" {
			return NewMT5(metaapi.NewClient(ep.BaseURL, ep.Token), ep.AccountID), nil
		}
	}
	return constructors[id](), nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func limiterOpts(ep config.Endpoint) []vendorapi.Option {
	if ep.RateLimitPerMin <= 0 {
		return nil
	}
	return []vendorapi.Option{vendorapi.WithRateLimiter(util.NewRateLimiter(ep.RateLimitPerMin))}
}

// unsupportedTimeframe builds the rejection error for a timeframe outside a
// provider's native vocabulary.
func unsupportedTimeframe(provider string, tf domain.Timeframe) error {
	return &domain.ValidationError{Platform: provider, Reason: "unsupported timeframe " + string(tf)}
}

// clampRange normalizes a query window: swapped bounds are reordered and a
// zero end means "now".
func clampRange(start, end time.Time) (time.Time, time.Time) {
	if end.IsZero() {
		end = time.Now().UTC()
	}
	if start.After(end) {
		start, end = end, start
	}
	return start.UTC(), end.UTC()
}

// filterWindow keeps bars whose timestamps fall inside [start, end].
func filterWindow(bars []domain.Bar, start, end time.Time) []domain.Bar {
	out := bars[:0]
	for _, b := range bars {
		if b.Timestamp < start.UnixMilli() || b.Timestamp > end.UnixMilli() {
			continue
		}
		out = append(out, b)
	}
	return out
}

// sortBars orders bars ascending and drops duplicate timestamps.
func sortBars(bars []domain.Bar) []domain.Bar {
	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp < bars[j].Timestamp })
	out := bars[:0]
	for i, b := range bars {
		if i > 0 && b.Timestamp == bars[i-1].Timestamp {
			continue
		}
		out = append(out, b)
	}
	return out
}
