package platform

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"brokerlink/internal/domain"
	"brokerlink/internal/vendorapi/ctrader"
)

// CTraderAdapter connects to the cTrader Open API with an OAuth client id
// and secret carried in the apiKey/apiSecret credential fields.
type CTraderAdapter struct {
	session
	svc ctrader.Service
	log *slog.Logger
}

var (
	_ Adapter         = (*CTraderAdapter)(nil)
	_ StateReporter   = (*CTraderAdapter)(nil)
	_ FeatureReporter = (*CTraderAdapter)(nil)
)

// NewCTraderAdapter creates a cTrader adapter over the given service.
func NewCTraderAdapter(svc ctrader.Service) *CTraderAdapter {
	return &CTraderAdapter{svc: svc, log: slog.Default().With("adapter", "ctrader")}
}

// Name returns "ctrader".
func (a *CTraderAdapter) Name() string { return "ctrader" }

// Connect performs the OAuth client-credentials exchange.
func (a *CTraderAdapter) Connect(ctx context.Context, creds domain.Credentials) error {
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

// FetchAccounts maps cTrader trading accounts into normalized records.
func (a *CTraderAdapter) FetchAccounts(ctx context.Context) ([]domain.TradingAccount, error) {
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
		if acc.Status != "" && acc.Status != "TRADER_ACCOUNT_STATUS_ACTIVE" {
			status = domain.AccountInactive
		}
		accountType := "demo"
		if acc.Live {
			accountType = "live"
		}
		out = append(out, domain.TradingAccount{
			ID:            ctrader.AccountIDString(acc.AccountID),
			Name:          fmt.Sprintf("%s %s", acc.BrokerTitle, acc.AccountNum),
			AccountNumber: acc.AccountNum,
			Broker:        acc.BrokerName,
			Platform:      a.Name(),
			Status:        status,
			Balance:       acc.Balance,
			Equity:        acc.Equity,
			OpenPL:        acc.Equity - acc.Balance,
			Currency:      acc.Deposit,
			Leverage:      acc.Leverage,
			Type:          accountType,
			LastUpdated:   time.Now().UTC(),
		})
	}
	return out, nil
}

// FetchTrades normalizes the deal list; open deals become open trades.
func (a *CTraderAdapter) FetchTrades(ctx context.Context, accountID string) ([]domain.Trade, error) {
	if err := a.requireConnected(); err != nil {
		return nil, err
	}
	deals, err := a.svc.Deals(ctx, accountID)
	if err != nil {
		return nil, err
	}

	trades := make([]domain.Trade, 0, len(deals))
	for _, d := range deals {
		tr := domain.Trade{
			ID:            fmt.Sprintf("deal-%d", d.DealID),
			AccountID:     accountID,
			Symbol:        d.SymbolName,
			Direction:     directionFromSide(d.TradeSide),
			OpenDate:      time.UnixMilli(d.CreateMs).UTC(),
			OpenPrice:     d.EntryPrice,
			Size:          d.Volume,
			Profit:        d.GrossProfit,
			ProfitPercent: percentOf(d.GrossProfit, d.EntryPrice, d.Volume),
			Status:        domain.TradeOpen,
			Swap:          d.Swap,
			Commission:    d.Commission,
			Tags:          []string{a.Name(), d.SymbolName},
		}
		if d.Closed {
			closeDate := time.UnixMilli(d.CloseMs).UTC()
			closePrice := d.ClosePrice
			tr.Status = domain.TradeClosed
			tr.CloseDate = &closeDate
			tr.ClosePrice = &closePrice
		}
		trades = append(trades, tr)
	}
	return trades, nil
}

// SyncAccount re-fetches accounts and trades for the account.
func (a *CTraderAdapter) SyncAccount(ctx context.Context, accountID string) (*AccountSnapshot, error) {
	if err := a.requireConnected(); err != nil {
		return nil, err
	}
	return syncSnapshot(ctx, a, accountID)
}

// Disconnect clears the session. Safe when already disconnected.
func (a *CTraderAdapter) Disconnect(_ context.Context, _ string) error {
	a.reset()
	return nil
}

// SupportedFeatures advertises the cTrader capability set.
func (a *CTraderAdapter) SupportedFeatures() []Feature {
	return []Feature{FeatureAccounts, FeatureTrades, FeatureSync}
}
