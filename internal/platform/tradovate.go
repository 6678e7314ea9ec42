package platform

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"brokerlink/internal/domain"
	"brokerlink/internal/vendorapi/tradovate"
)

// TradovateAdapter connects to Tradovate with username/password credentials.
type TradovateAdapter struct {
	session
	svc tradovate.Service
	log *slog.Logger
}

var (
	_ Adapter         = (*TradovateAdapter)(nil)
	_ StateReporter   = (*TradovateAdapter)(nil)
	_ FeatureReporter = (*TradovateAdapter)(nil)
)

// NewTradovateAdapter creates a Tradovate adapter over the given service.
func NewTradovateAdapter(svc tradovate.Service) *TradovateAdapter {
	return &TradovateAdapter{svc: svc, log: slog.Default().With("adapter", "tradovate")}
}

// Name returns "tradovate".
func (a *TradovateAdapter) Name() string { return "tradovate" }

// Connect performs the access-token request with the username and password.
func (a *TradovateAdapter) Connect(ctx context.Context, creds domain.Credentials) error {
	username := creds.Username
	if username == "" {
		username = creds.Login
	}
	validate := func() error {
		return requireFields(a.Name(), map[string]string{
			"username": username,
			"password": creds.Password,
		})
	}
	dial := func() error {
		return a.svc.Authenticate(ctx, username, creds.Password)
	}
	return runConnect(&a.session, a.Name(), creds, validate, dial)
}

// FetchAccounts maps the Tradovate account list into normalized records.
func (a *TradovateAdapter) FetchAccounts(ctx context.Context) ([]domain.TradingAccount, error) {
	if err := a.requireConnected(); err != nil {
		return nil, err
	}
	accounts, err := a.svc.Accounts(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.TradingAccount, 0, len(accounts))
	for _, acc := range accounts {
		status := domain.AccountInactive
		if acc.Active {
			status = domain.AccountActive
		}
		currency := acc.Currency
		if currency == "" {
			currency = "USD"
		}
		out = append(out, domain.TradingAccount{
			ID:            tradovate.AccountIDString(acc.ID),
			Name:          acc.Name,
			AccountNumber: acc.Name,
			Broker:        "Tradovate",
			Platform:      a.Name(),
			Status:        status,
			Balance:       acc.Balance,
			Equity:        acc.TotalCashVal,
			OpenPL:        acc.TotalCashVal - acc.Balance,
			Currency:      currency,
			Type:          acc.AccountType,
			LastUpdated:   time.Now().UTC(),
		})
	}
	return out, nil
}

// FetchTrades merges the position list with the fill list.
func (a *TradovateAdapter) FetchTrades(ctx context.Context, accountID string) ([]domain.Trade, error) {
	if err := a.requireConnected(); err != nil {
		return nil, err
	}

	positions, err := a.svc.Positions(ctx, accountID)
	if err != nil {
		return nil, err
	}
	fills, err := a.svc.Fills(ctx, accountID)
	if err != nil {
		return nil, err
	}

	trades := make([]domain.Trade, 0, len(positions)+len(fills))
	for _, p := range positions {
		direction := domain.DirectionLong
		size := p.NetPos
		if size < 0 {
			direction = domain.DirectionShort
			size = -size
		}
		trades = append(trades, domain.Trade{
			ID:            fmt.Sprintf("pos-%d", p.ID),
			AccountID:     accountID,
			Symbol:        p.Symbol,
			Direction:     direction,
			OpenDate:      parseVendorTime(p.Timestamp),
			OpenPrice:     p.NetPrice,
			Size:          size,
			Profit:        p.OpenPL,
			ProfitPercent: percentOf(p.OpenPL, p.NetPrice, size),
			Status:        domain.TradeOpen,
			Tags:          []string{a.Name(), p.Symbol},
		})
	}
	for _, f := range fills {
		direction := domain.DirectionLong
		if f.Action == "Sell" {
			direction = domain.DirectionShort
		}
		closeDate := parseVendorTime(f.ExitTime)
		closePrice := f.ExitPrice
		trades = append(trades, domain.Trade{
			ID:            fmt.Sprintf("fill-%d", f.ID),
			AccountID:     accountID,
			Symbol:        f.Symbol,
			Direction:     direction,
			OpenDate:      parseVendorTime(f.Timestamp),
			CloseDate:     &closeDate,
			OpenPrice:     f.Price,
			ClosePrice:    &closePrice,
			Size:          f.Qty,
			Profit:        f.RealizedPL,
			ProfitPercent: percentOf(f.RealizedPL, f.Price, f.Qty),
			Status:        domain.TradeClosed,
			Tags:          []string{a.Name(), f.Symbol},
		})
	}
	return trades, nil
}

// SyncAccount re-fetches accounts and trades for the account.
func (a *TradovateAdapter) SyncAccount(ctx context.Context, accountID string) (*AccountSnapshot, error) {
	if err := a.requireConnected(); err != nil {
		return nil, err
	}
	return syncSnapshot(ctx, a, accountID)
}

// Disconnect clears the session. Safe when already disconnected.
func (a *TradovateAdapter) Disconnect(_ context.Context, _ string) error {
	a.reset()
	return nil
}

// SupportedFeatures advertises the Tradovate capability set.
func (a *TradovateAdapter) SupportedFeatures() []Feature {
	return []Feature{FeatureAccounts, FeatureTrades, FeatureSync}
}

// parseVendorTime parses an RFC3339 vendor timestamp, returning the zero
// time for empty or malformed values.
func parseVendorTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
