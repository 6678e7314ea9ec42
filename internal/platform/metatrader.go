package platform

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"brokerlink/internal/domain"
	"brokerlink/internal/vendorapi/metaapi"
)

// MetaTraderAdapter serves both MT4 and MT5 terminals through a MetaApi
// service. The terminal is addressed by (login, server); a password grants
// full access and an investor password grants read-only access, either one
// satisfies validation.
type MetaTraderAdapter struct {
	session
	name string
	svc  metaapi.Service
	log  *slog.Logger
}

var (
	_ Adapter         = (*MetaTraderAdapter)(nil)
	_ StateReporter   = (*MetaTraderAdapter)(nil)
	_ FeatureReporter = (*MetaTraderAdapter)(nil)
)

// NewMetaTraderAdapter creates an adapter named "mt4" or "mt5" over the
// given MetaApi service.
func NewMetaTraderAdapter(name string, svc metaapi.Service) *MetaTraderAdapter {
	return &MetaTraderAdapter{
		name: name,
		svc:  svc,
		log:  slog.Default().With("adapter", name),
	}
}

// Name returns "mt4" or "mt5".
func (a *MetaTraderAdapter) Name() string { return a.name }

// Connect resolves the terminal's cloud account from (login, server) and
// stores it for the session.
func (a *MetaTraderAdapter) Connect(ctx context.Context, creds domain.Credentials) error {
	validate := func() error {
		if err := requireFields(a.name, map[string]string{
			"login":  creds.Login,
			"server": creds.Server,
		}); err != nil {
			return err
		}
		if creds.Password == "" && creds.InvestorPassword == "" {
			return &domain.ValidationError{Platform: a.name, Missing: []string{"password"}}
		}
		return nil
	}
	dial := func() error {
		password := creds.Password
		if password == "" {
			password = creds.InvestorPassword
		}
		ref, err := a.svc.Resolve(ctx, creds.Login, password, creds.Server)
		if err != nil {
			return fmt.Errorf("resolving terminal account: %w", err)
		}
		a.setRef(ref)
		a.log.Info("terminal resolved", "login", creds.Login, "server", creds.Server)
		return nil
	}
	return runConnect(&a.session, a.name, creds, validate, dial)
}

// FetchAccounts maps the terminal snapshot into one normalized account.
func (a *MetaTraderAdapter) FetchAccounts(ctx context.Context) ([]domain.TradingAccount, error) {
	if err := a.requireConnected(); err != nil {
		return nil, err
	}
	ref := a.vendorRef()
	info, err := a.svc.AccountInformation(ctx, ref)
	if err != nil {
		return nil, err
	}

	creds := a.credentials()
	name := info.Name
	if name == "" {
		name = creds.Name
	}
	status := domain.AccountActive
	if !info.TradeAllowed {
		status = domain.AccountInactive
	}
	return []domain.TradingAccount{{
		ID:            ref,
		Name:          name,
		AccountNumber: accountNumber(info.Login, creds.Login),
		Broker:        info.Broker,
		Platform:      a.name,
		Status:        status,
		Balance:       info.Balance,
		Equity:        info.Equity,
		OpenPL:        info.Equity - info.Balance,
		Currency:      info.Currency,
		Margin:        info.Margin,
		Leverage:      info.Leverage,
		Server:        info.Server,
		LastUpdated:   time.Now().UTC(),
	}}, nil
}

// FetchTrades merges open positions with the full deal history.
func (a *MetaTraderAdapter) FetchTrades(ctx context.Context, accountID string) ([]domain.Trade, error) {
	if err := a.requireConnected(); err != nil {
		return nil, err
	}

	positions, err := a.svc.Positions(ctx, accountID)
	if err != nil {
		return nil, err
	}
	deals, err := a.svc.Deals(ctx, accountID, time.Unix(0, 0).UTC(), time.Now().UTC())
	if err != nil {
		return nil, err
	}

	trades := make([]domain.Trade, 0, len(positions)+len(deals))
	for _, p := range positions {
		trades = append(trades, domain.Trade{
			ID:            p.ID,
			AccountID:     accountID,
			Symbol:        p.Symbol,
			Direction:     directionFromType(p.Type),
			OpenDate:      p.Time,
			OpenPrice:     p.OpenPrice,
			Size:          p.Volume,
			Profit:        p.Profit,
			ProfitPercent: percentOf(p.Profit, p.OpenPrice, p.Volume),
			Status:        domain.TradeOpen,
			StopLoss:      p.StopLoss,
			TakeProfit:    p.TakeProfit,
			Swap:          p.Swap,
			Commission:    p.Commission,
			Tags:          []string{a.name, p.Symbol},
		})
	}
	for _, d := range deals {
		closeDate := d.Time
		closePrice := d.Price
		trades = append(trades, domain.Trade{
			ID:            d.ID,
			AccountID:     accountID,
			Symbol:        d.Symbol,
			Direction:     directionFromType(d.Type),
			OpenDate:      d.EntryTime,
			CloseDate:     &closeDate,
			OpenPrice:     d.EntryPrice,
			ClosePrice:    &closePrice,
			Size:          d.Volume,
			Profit:        d.Profit,
			ProfitPercent: percentOf(d.Profit, d.EntryPrice, d.Volume),
			Status:        domain.TradeClosed,
			Swap:          d.Swap,
			Commission:    d.Commission,
			Tags:          []string{a.name, d.Symbol},
		})
	}
	return trades, nil
}

// SyncAccount re-fetches accounts and trades for the account.
func (a *MetaTraderAdapter) SyncAccount(ctx context.Context, accountID string) (*AccountSnapshot, error) {
	if err := a.requireConnected(); err != nil {
		return nil, err
	}
	return syncSnapshot(ctx, a, accountID)
}

// Disconnect clears the session. Safe when already disconnected.
func (a *MetaTraderAdapter) Disconnect(_ context.Context, _ string) error {
	a.reset()
	return nil
}

// SupportedFeatures advertises the MetaTrader capability set.
func (a *MetaTraderAdapter) SupportedFeatures() []Feature {
	return []Feature{FeatureAccounts, FeatureTrades, FeatureSync, FeatureInvestorAccess}
}

func directionFromType(t string) domain.TradeDirection {
	switch t {
	case "POSITION_TYPE_SELL", "DEAL_TYPE_SELL":
		return domain.DirectionShort
	default:
		return domain.DirectionLong
	}
}

// percentOf derives a profit percentage from absolute profit, entry price,
// and volume, mirroring how terminals report it. Zero denominators yield 0.
func percentOf(profit, price, volume float64) float64 {
	if price == 0 || volume == 0 {
		return 0
	}
	return profit / (price * volume * 100) * 100
}

func accountNumber(login int64, fallback string) string {
	if login > 0 {
		return strconv.FormatInt(login, 10)
	}
	return fallback
}
