package platform

import (
	"sort"
	"strings"

	"brokerlink/internal/config"
	"brokerlink/internal/domain"
	"brokerlink/internal/util"
	"brokerlink/internal/vendorapi"
	"brokerlink/internal/vendorapi/ctrader"
	"brokerlink/internal/vendorapi/dxtrade"
	"brokerlink/internal/vendorapi/metaapi"
	"brokerlink/internal/vendorapi/tradelocker"
	"brokerlink/internal/vendorapi/tradestation"
	"brokerlink/internal/vendorapi/tradovate"
)

// ID is a supported trading-platform identifier. The set is closed: adding a
// platform means adding a constant and a constructor table entry here.
type ID string

const (
	MT4                 ID = "mt4"
	MT5                 ID = "mt5"
	TradingView         ID = "tradingview"
	DXtrade             ID = "dxtrade"
	NinjaTrader         ID = "ninjatrader"
	CTrader             ID = "ctrader"
	DXfeed              ID = "dxfeed"
	TradeStation        ID = "tradestation"
	Thinkorswim         ID = "thinkorswim"
	InteractiveBrokers  ID = "interactivebrokers"
	MatchTrader         ID = "matchtrader"
	Tradovate           ID = "tradovate"
	Rithmic             ID = "rithmic"
	SierraChart         ID = "sierrachart"
	TradeLocker         ID = "tradelocker"
)

// constructors is the static registration table. Every constructor returns a
// fresh adapter wired to its deterministic sandbox service; live vendor
// endpoints are injected through a Factory.
var constructors = map[ID]func() Adapter{
	MT4:                func() Adapter { return NewMetaTraderAdapter("mt4", metaapi.NewSimulator("mt4")) },
	MT5:                func() Adapter { return NewMetaTraderAdapter("mt5", metaapi.NewSimulator("mt5")) },
	TradingView:        func() Adapter { return newSandboxAdapter(sandboxSpecs[TradingView]) },
	DXtrade:            func() Adapter { return NewDXtradeAdapter(dxtrade.NewSimulator()) },
	NinjaTrader:        func() Adapter { return newSandboxAdapter(sandboxSpecs[NinjaTrader]) },
	CTrader:            func() Adapter { return NewCTraderAdapter(ctrader.NewSimulator()) },
	DXfeed:             func() Adapter { return newSandboxAdapter(sandboxSpecs[DXfeed]) },
	TradeStation:       func() Adapter { return NewTradeStationAdapter(tradestation.NewSimulator()) },
	Thinkorswim:        func() Adapter { return newSandboxAdapter(sandboxSpecs[Thinkorswim]) },
	InteractiveBrokers: func() Adapter { return newSandboxAdapter(sandboxSpecs[InteractiveBrokers]) },
	MatchTrader:        func() Adapter { return newSandboxAdapter(sandboxSpecs[MatchTrader]) },
	Tradovate:          func() Adapter { return NewTradovateAdapter(tradovate.NewSimulator()) },
	Rithmic:            func() Adapter { return newSandboxAdapter(sandboxSpecs[Rithmic]) },
	SierraChart:        func() Adapter { return newSandboxAdapter(sandboxSpecs[SierraChart]) },
	TradeLocker:        func() Adapter { return NewTradeLockerAdapter(tradelocker.NewSimulator()) },
}

// Parse resolves a case-insensitive platform identifier string.
func Parse(s string) (ID, error) {
	id := ID(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := constructors[id]; !ok {
		return "", &domain.UnsupportedError{Kind: "platform", ID: s}
	}
	return id, nil
}

// New constructs a fresh adapter for the given platform identifier. Unknown
// identifiers yield domain.UnsupportedError; nothing is constructed. The
// caller owns the returned instance's lifecycle.
func New(identifier string) (Adapter, error) {
	id, err := Parse(identifier)
	if err != nil {
		return nil, err
	}
	return constructors[id](), nil
}

// Supported returns all platform identifiers in sorted order.
func Supported() []ID {
	ids := make([]ID, 0, len(constructors))
	for id := range constructors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ---------------------------------------------------------------------------
// Factory: live vendor wiring
// ---------------------------------------------------------------------------

// Factory constructs adapters, substituting live vendor clients for the
// sandbox defaults wherever the configuration carries an endpoint. One
// Factory is built at startup and passed to callers; it owns no connection
// state.
type Factory struct {
	cfg *config.Config
}

// NewFactory creates a Factory over the given configuration. A nil config
// behaves like New: every adapter stays on its sandbox service.
func NewFactory(cfg *config.Config) *Factory {
	return &Factory{cfg: cfg}
}

// New constructs an adapter for the identifier, wiring a live vendor client
// when one is configured.
func (f *Factory) New(identifier string) (Adapter, error) {
	id, err := Parse(identifier)
	if err != nil {
		return nil, err
	}
	if f.cfg == nil {
		return constructors[id](), nil
	}

	switch id {
	case MT4, MT5:
		if ep := f.cfg.Vendors.MetaAPI; ep.BaseURL != "" {
			return NewMetaTraderAdapter(string(id), metaapi.NewClient(ep.BaseURL, ep.Token, limiterOpts(ep)...)), nil
		}
	case TradeLocker:
		if ep := f.cfg.Vendors.TradeLocker; ep.BaseURL != "" {
			return NewTradeLockerAdapter(tradelocker.NewClient(ep.BaseURL, limiterOpts(ep)...)), nil
		}
	case Tradovate:
		if ep := f.cfg.Vendors.Tradovate; ep.BaseURL != "" {
			return NewTradovateAdapter(tradovate.NewClient(ep.BaseURL, limiterOpts(ep)...)), nil
		}
	case DXtrade:
		if ep := f.cfg.Vendors.DXtrade; ep.BaseURL != "" {
			return NewDXtradeAdapter(dxtrade.NewClient(ep.BaseURL, limiterOpts(ep)...)), nil
		}
	case CTrader:
		if ep := f.cfg.Vendors.CTrader; ep.BaseURL != "" {
			return NewCTraderAdapter(ctrader.NewClient(ep.BaseURL, limiterOpts(ep)...)), nil
		}
	case TradeStation:
		if ep := f.cfg.Vendors.TradeStation; ep.BaseURL != "" {
			return NewTradeStationAdapter(tradestation.NewClient(ep.BaseURL, limiterOpts(ep)...)), nil
		}
	}
	return constructors[id](), nil
}

func limiterOpts(ep config.Endpoint) []vendorapi.Option {
	if ep.RateLimitPerMin <= 0 {
		return nil
	}
	return []vendorapi.Option{vendorapi.WithRateLimiter(util.NewRateLimiter(ep.RateLimitPerMin))}
}
