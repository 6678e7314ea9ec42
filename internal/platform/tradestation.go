package platform

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"brokerlink/internal/domain"
	"brokerlink/internal/vendorapi/tradestation"
)

// TradeStationAdapter connects to the TradeStation v3 brokerage API with a
// pre-issued OAuth access token carried in the apiKey credential field.
type TradeStationAdapter struct {
	session
	svc tradestation.Service
	log *slog.Logger
}

var (
	_ Adapter         = (*TradeStationAdapter)(nil)
	_ StateReporter   = (*TradeStationAdapter)(nil)
	_ FeatureReporter = (*TradeStationAdapter)(nil)
)

// NewTradeStationAdapter creates a TradeStation adapter over the given
// service.
func NewTradeStationAdapter(svc tradestation.Service) *TradeStationAdapter {
	return &TradeStationAdapter{svc: svc, log: slog.Default().With("adapter", "tradestation")}
}

// Name returns "tradestation".
func (a *TradeStationAdapter) Name() string { return "tradestation" }

// Connect registers the access token with the brokerage client.
func (a *TradeStationAdapter) Connect(ctx context.Context, creds domain.Credentials) error {
	validate := func() error {
		return requireFields(a.Name(), map[string]string{
			"apiKey": creds.APIKey,
		})
	}
	dial := func() error {
		return a.svc.Authenticate(ctx, creds.APIKey)
	}
	return runConnect(&a.session, a.Name(), creds, validate, dial)
}

// FetchAccounts joins the account list with per-account balances.
func (a *TradeStationAdapter) FetchAccounts(ctx context.Context) ([]domain.TradingAccount, error) {
	if err := a.requireConnected(); err != nil {
		return nil, err
	}
	accounts, err := a.svc.Accounts(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.TradingAccount, 0, len(accounts))
	for _, acc := range accounts {
		bal, err := a.svc.Balances(ctx, acc.AccountID)
		if err != nil {
			return nil, err
		}
		status := domain.AccountActive
		if !strings.EqualFold(acc.Status, "Active") {
			status = domain.AccountInactive
		}
		name := acc.Alias
		if name == "" {
			name = acc.AccountID
		}
		out = append(out, domain.TradingAccount{
			ID:            acc.AccountID,
			Name:          name,
			AccountNumber: acc.AccountID,
			Broker:        "TradeStation",
			Platform:      a.Name(),
			Status:        status,
			Balance:       bal.CashBalance,
			Equity:        bal.Equity,
			OpenPL:        bal.Equity - bal.CashBalance,
			Currency:      acc.Currency,
			Type:          strings.ToLower(acc.AccountType),
			LastUpdated:   time.Now().UTC(),
		})
	}
	return out, nil
}

// FetchTrades merges open positions with filled historical orders.
func (a *TradeStationAdapter) FetchTrades(ctx context.Context, accountID string) ([]domain.Trade, error) {
	if err := a.requireConnected(); err != nil {
		return nil, err
	}
	positions, err := a.svc.Positions(ctx, accountID)
	if err != nil {
		return nil, err
	}
	orders, err := a.svc.HistoricalOrders(ctx, accountID)
	if err != nil {
		return nil, err
	}

	trades := make([]domain.Trade, 0, len(positions)+len(orders))
	for _, p := range positions {
		direction := domain.DirectionLong
		if strings.EqualFold(p.LongShort, "Short") {
			direction = domain.DirectionShort
		}
		trades = append(trades, domain.Trade{
			ID:            "pos-" + p.PositionID,
			AccountID:     accountID,
			Symbol:        p.Symbol,
			Direction:     direction,
			OpenDate:      parseVendorTime(p.Timestamp),
			OpenPrice:     p.AveragePrice,
			Size:          p.Quantity,
			Profit:        p.UnrealizedPL,
			ProfitPercent: percentOf(p.UnrealizedPL, p.AveragePrice, p.Quantity),
			Status:        domain.TradeOpen,
			Tags:          []string{a.Name(), p.Symbol},
		})
	}
	for _, o := range orders {
		closeDate := parseVendorTime(o.ClosedTime)
		closePrice := o.ClosedPrice
		trades = append(trades, domain.Trade{
			ID:            "order-" + o.OrderID,
			AccountID:     accountID,
			Symbol:        o.Symbol,
			Direction:     tradestationDirection(o.TradeAction),
			OpenDate:      parseVendorTime(o.OpenedTime),
			OpenPrice:     o.FilledPrice,
			CloseDate:     &closeDate,
			ClosePrice:    &closePrice,
			Size:          o.Quantity,
			Profit:        o.RealizedPL,
			ProfitPercent: percentOf(o.RealizedPL, o.FilledPrice, o.Quantity),
			Status:        domain.TradeClosed,
			Tags:          []string{a.Name(), o.Symbol},
		})
	}
	return trades, nil
}

// SyncAccount re-fetches accounts and trades for the account.
func (a *TradeStationAdapter) SyncAccount(ctx context.Context, accountID string) (*AccountSnapshot, error) {
	if err := a.requireConnected(); err != nil {
		return nil, err
	}
	return syncSnapshot(ctx, a, accountID)
}

// Disconnect clears the session. Safe when already disconnected.
func (a *TradeStationAdapter) Disconnect(_ context.Context, _ string) error {
	a.reset()
	return nil
}

// SupportedFeatures advertises the TradeStation capability set.
func (a *TradeStationAdapter) SupportedFeatures() []Feature {
	return []Feature{FeatureAccounts, FeatureTrades, FeatureSync}
}

// tradestationDirection maps TradeStation trade actions to the normalized
// direction. SELLSHORT opens a short; BUYTOCOVER closes one.
func tradestationDirection(action string) domain.TradeDirection {
	switch strings.ToUpper(action) {
	case "SELL", "SELLSHORT":
		return domain.DirectionShort
	default:
		return domain.DirectionLong
	}
}
