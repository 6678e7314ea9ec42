package platform

import (
	"context"
	"log/slog"
	"time"

	"brokerlink/internal/domain"
	"brokerlink/internal/vendorapi/dxtrade"
)

// DXtradeAdapter connects to a DXtrade gateway with username/password
// session login. The broker domain rides in the Server credential field.
type DXtradeAdapter struct {
	session
	svc dxtrade.Service
	log *slog.Logger
}

var (
	_ Adapter         = (*DXtradeAdapter)(nil)
	_ StateReporter   = (*DXtradeAdapter)(nil)
	_ FeatureReporter = (*DXtradeAdapter)(nil)
)

// NewDXtradeAdapter creates a DXtrade adapter over the given service.
func NewDXtradeAdapter(svc dxtrade.Service) *DXtradeAdapter {
	return &DXtradeAdapter{svc: svc, log: slog.Default().With("adapter", "dxtrade")}
}

// Name returns "dxtrade".
func (a *DXtradeAdapter) Name() string { return "dxtrade" }

// Connect opens a DXtrade session.
func (a *DXtradeAdapter) Connect(ctx context.Context, creds domain.Credentials) error {
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
		domainName := creds.Server
		if domainName == "" {
			domainName = "default"
		}
		if err := a.svc.Login(ctx, username, domainName, creds.Password); err != nil {
			return err
		}
		// The session account defaults to the configured account id, then
		// the service's session-bound account, then the username.
		account := creds.AccountID
		if account == "" {
			account = a.svc.DefaultAccount()
		}
		if account == "" {
			account = username
		}
		a.setRef(account)
		return nil
	}
	return runConnect(&a.session, a.Name(), creds, validate, dial)
}

// FetchAccounts maps the session account's portfolio into one normalized
// record.
func (a *DXtradeAdapter) FetchAccounts(ctx context.Context) ([]domain.TradingAccount, error) {
	if err := a.requireConnected(); err != nil {
		return nil, err
	}
	account := a.vendorRef()
	p, err := a.svc.Portfolio(ctx, account)
	if err != nil {
		return nil, err
	}

	creds := a.credentials()
	status := domain.AccountActive
	if p.AccountStatus != "" && p.AccountStatus != "FULL_TRADING" {
		status = domain.AccountInactive
	}
	return []domain.TradingAccount{{
		ID:            account,
		Name:          creds.Name,
		AccountNumber: p.Account,
		Broker:        creds.Broker,
		Platform:      a.Name(),
		Status:        status,
		Balance:       p.Balance,
		Equity:        p.Equity,
		OpenPL:        p.OpenPL,
		Currency:      p.Currency,
		Margin:        p.MarginUsed,
		Server:        creds.Server,
		LastUpdated:   time.Now().UTC(),
	}}, nil
}

// FetchTrades merges open positions with completed order history.
func (a *DXtradeAdapter) FetchTrades(ctx context.Context, accountID string) ([]domain.Trade, error) {
	if err := a.requireConnected(); err != nil {
		return nil, err
	}

	positions, err := a.svc.Positions(ctx, accountID)
	if err != nil {
		return nil, err
	}
	history, err := a.svc.History(ctx, accountID)
	if err != nil {
		return nil, err
	}

	trades := make([]domain.Trade, 0, len(positions)+len(history))
	for _, p := range positions {
		trades = append(trades, domain.Trade{
			ID:            p.PositionCode,
			AccountID:     accountID,
			Symbol:        p.Symbol,
			Direction:     directionFromSide(p.Side),
			OpenDate:      p.OpenTime,
			OpenPrice:     p.OpenPrice,
			Size:          p.Quantity,
			Profit:        p.OpenPL,
			ProfitPercent: percentOf(p.OpenPL, p.OpenPrice, p.Quantity),
			Status:        domain.TradeOpen,
			Tags:          []string{a.Name(), p.Symbol},
		})
	}
	for _, o := range history {
		closeDate := o.CloseTime
		closePrice := o.ClosePrice
		trades = append(trades, domain.Trade{
			ID:            o.OrderCode,
			AccountID:     accountID,
			Symbol:        o.Symbol,
			Direction:     directionFromSide(o.Side),
			OpenDate:      o.OpenTime,
			CloseDate:     &closeDate,
			OpenPrice:     o.OpenPrice,
			ClosePrice:    &closePrice,
			Size:          o.Quantity,
			Profit:        o.RealizedPL,
			ProfitPercent: percentOf(o.RealizedPL, o.OpenPrice, o.Quantity),
			Status:        domain.TradeClosed,
			Tags:          []string{a.Name(), o.Symbol},
		})
	}
	return trades, nil
}

// SyncAccount re-fetches accounts and trades for the account.
func (a *DXtradeAdapter) SyncAccount(ctx context.Context, accountID string) (*AccountSnapshot, error) {
	if err := a.requireConnected(); err != nil {
		return nil, err
	}
	return syncSnapshot(ctx, a, accountID)
}

// Disconnect clears the session. Safe when already disconnected.
func (a *DXtradeAdapter) Disconnect(_ context.Context, _ string) error {
	a.reset()
	return nil
}

// SupportedFeatures advertises the DXtrade capability set.
func (a *DXtradeAdapter) SupportedFeatures() []Feature {
	return []Feature{FeatureAccounts, FeatureTrades, FeatureSync}
}
