package tradestation

import (
	"context"
	"time"

	"brokerlink/internal/domain"
	"brokerlink/internal/vendorapi/sandbox"
)

// Simulator implements Service with deterministic sandbox data.
type Simulator struct {
	eng *sandbox.Service
	key string
}

var _ Service = (*Simulator)(nil)

// NewSimulator creates a sandbox-backed TradeStation service.
func NewSimulator() *Simulator {
	return &Simulator{eng: sandbox.New("tradestation", "TradeStation")}
}

// Authenticate records the key as the sandbox identity.
func (s *Simulator) Authenticate(_ context.Context, apiKey string) error {
	s.key = apiKey
	return nil
}

// Accounts returns the canned account in vendor shape.
func (s *Simulator) Accounts(_ context.Context) ([]Account, error) {
	var out []Account
	for _, a := range s.eng.Accounts(s.key) {
		out = append(out, Account{
			AccountID:   a.ID,
			Alias:       a.Name,
			AccountType: "Margin",
			Currency:    a.Currency,
			Status:      "Active",
		})
	}
	return out, nil
}

// Balances returns the canned balance snapshot.
func (s *Simulator) Balances(_ context.Context, accountID string) (Balance, error) {
	a := s.eng.Accounts(s.key)[0]
	return Balance{
		AccountID:    accountID,
		CashBalance:  a.Balance,
		Equity:       a.Equity,
		UnrealizedPL: a.OpenPL,
	}, nil
}

// Positions returns the open canned trades in vendor shape.
func (s *Simulator) Positions(_ context.Context, accountID string) ([]Position, error) {
	var out []Position
	for _, tr := range s.eng.Trades(accountID) {
		if tr.Status != domain.TradeOpen {
			continue
		}
		longShort := "Long"
		if tr.Direction == domain.DirectionShort {
			longShort = "Short"
		}
		out = append(out, Position{
			PositionID:   tr.ID,
			AccountID:    accountID,
			Symbol:       tr.Symbol,
			LongShort:    longShort,
			Quantity:     tr.Size,
			AveragePrice: tr.OpenPrice,
			UnrealizedPL: tr.Profit,
			Timestamp:    tr.OpenDate.Format(time.RFC3339),
		})
	}
	return out, nil
}

// HistoricalOrders returns the closed canned trades in vendor shape.
func (s *Simulator) HistoricalOrders(_ context.Context, accountID string) ([]HistoricalOrder, error) {
	var out []HistoricalOrder
	for _, tr := range s.eng.Trades(accountID) {
		if tr.Status != domain.TradeClosed {
			continue
		}
		action := "BUY"
		if tr.Direction == domain.DirectionShort {
			action = "SELLSHORT"
		}
		out = append(out, HistoricalOrder{
			OrderID:     tr.ID,
			AccountID:   accountID,
			Symbol:      tr.Symbol,
			TradeAction: action,
			Quantity:    tr.Size,
			FilledPrice: tr.OpenPrice,
			ClosedPrice: *tr.ClosePrice,
			RealizedPL:  tr.Profit,
			OpenedTime:  tr.OpenDate.Format(time.RFC3339),
			ClosedTime:  tr.CloseDate.Format(time.RFC3339),
		})
	}
	return out, nil
}
