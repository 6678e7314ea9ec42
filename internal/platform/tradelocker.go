package platform

import (
	"context"
	"log/slog"
	"time"

	"brokerlink/internal/domain"
	"brokerlink/internal/vendorapi/tradelocker"
)

// TradeLockerAdapter connects to TradeLocker with an API key pair.
type TradeLockerAdapter struct {
	session
	svc tradelocker.Service
	log *slog.Logger
}

var (
	_ Adapter         = (*TradeLockerAdapter)(nil)
	_ StateReporter   = (*TradeLockerAdapter)(nil)
	_ FeatureReporter = (*TradeLockerAdapter)(nil)
)

// NewTradeLockerAdapter creates a TradeLocker adapter over the given
// service.
func NewTradeLockerAdapter(svc tradelocker.Service) *TradeLockerAdapter {
	return &TradeLockerAdapter{svc: svc, log: slog.Default().With("adapter", "tradelocker")}
}

// Name returns "tradelocker".
func (a *TradeLockerAdapter) Name() string { return "tradelocker" }

// Connect exchanges the API key pair for a session token.
func (a *TradeLockerAdapter) Connect(ctx context.Context, creds domain.Credentials) error {
	validate := func() error {
		return requireFields(a.Name(), map[string]string{
			"apiKey":    creds.APIKey,
			"apiSecret": creds.APISecret,
		})
	}
	dial := func() error {
		return a.svc.Authenticate(ctx, creds.APIKey, creds.APISecret)
	}
	return runConnect(&a.session, a.Name(), creds, validate, dial)
}

// FetchAccounts maps TradeLocker accounts into normalized records.
func (a *TradeLockerAdapter) FetchAccounts(ctx context.Context) ([]domain.TradingAccount, error) {
	if err := a.requireConnected(); err != nil {
		return nil, err
	}
	accounts, err := a.svc.Accounts(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.TradingAccount, 0, len(accounts))
	for _, acc := range accounts {
		status := domain.AccountActive
		if acc.Status != "" && acc.Status != "active" {
			status = domain.AccountInactive
		}
		out = append(out, domain.TradingAccount{
			ID:            acc.ID,
			Name:          acc.Name,
			AccountNumber: acc.AccNum,
			Broker:        acc.BrokerName,
			Platform:      a.Name(),
			Status:        status,
			Balance:       acc.Balance,
			Equity:        acc.Equity,
			OpenPL:        acc.Equity - acc.Balance,
			Currency:      acc.Currency,
			LastUpdated:   time.Now().UTC(),
		})
	}
	return out, nil
}

// FetchTrades merges open positions with filled order history.
func (a *TradeLockerAdapter) FetchTrades(ctx context.Context, accountID string) ([]domain.Trade, error) {
	if err := a.requireConnected(); err != nil {
		return nil, err
	}

	positions, err := a.svc.Positions(ctx, accountID)
	if err != nil {
		return nil, err
	}
	orders, err := a.svc.OrdersHistory(ctx, accountID)
	if err != nil {
		return nil, err
	}

	trades := make([]domain.Trade, 0, len(positions)+len(orders))
	for _, p := range positions {
		trades = append(trades, domain.Trade{
			ID:            p.ID,
			AccountID:     accountID,
			Symbol:        p.Symbol,
			Direction:     directionFromSide(p.Side),
			OpenDate:      time.UnixMilli(p.OpenDateMs).UTC(),
			OpenPrice:     p.AvgPrice,
			Size:          p.Qty,
			Profit:        p.UnrealizedPL,
			ProfitPercent: percentOf(p.UnrealizedPL, p.AvgPrice, p.Qty),
			Status:        domain.TradeOpen,
			StopLoss:      p.StopLoss,
			TakeProfit:    p.TakeProfit,
			Tags:          []string{a.Name(), p.Symbol},
		})
	}
	for _, o := range orders {
		closeDate := time.UnixMilli(o.CloseDateMs).UTC()
		closePrice := o.ClosePrice
		trades = append(trades, domain.Trade{
			ID:            o.ID,
			AccountID:     accountID,
			Symbol:        o.Symbol,
			Direction:     directionFromSide(o.Side),
			OpenDate:      time.UnixMilli(o.OpenDateMs).UTC(),
			CloseDate:     &closeDate,
			OpenPrice:     o.AvgPrice,
			ClosePrice:    &closePrice,
			Size:          o.Qty,
			Profit:        o.RealizedPL,
			ProfitPercent: percentOf(o.RealizedPL, o.AvgPrice, o.Qty),
			Status:        domain.TradeClosed,
			Commission:    o.Commission,
			Tags:          []string{a.Name(), o.Symbol},
		})
	}
	return trades, nil
}

// SyncAccount re-fetches accounts and trades for the account.
func (a *TradeLockerAdapter) SyncAccount(ctx context.Context, accountID string) (*AccountSnapshot, error) {
	if err := a.requireConnected(); err != nil {
		return nil, err
	}
	return syncSnapshot(ctx, a, accountID)
}

// Disconnect clears the session. Safe when already disconnected.
func (a *TradeLockerAdapter) Disconnect(_ context.Context, _ string) error {
	a.reset()
	return nil
}

// SupportedFeatures advertises the TradeLocker capability set.
func (a *TradeLockerAdapter) SupportedFeatures() []Feature {
	return []Feature{FeatureAccounts, FeatureTrades, FeatureSync}
}

func directionFromSide(side string) domain.TradeDirection {
	switch side {
	case "sell", "SELL", "Sell", "short", "Short":
		return domain.DirectionShort
	default:
		return domain.DirectionLong
	}
}
