package tradelocker

import (
	"context"

	"brokerlink/internal/domain"
	"brokerlink/internal/vendorapi/sandbox"
)

// Simulator implements Service with deterministic sandbox data. It is the
// default service wired by the platform registry; live deployments inject a
// Client instead.
type Simulator struct {
	eng   *sandbox.Service
	login string
}

var _ Service = (*Simulator)(nil)

// NewSimulator creates a sandbox-backed TradeLocker service.
func NewSimulator() *Simulator {
	return &Simulator{eng: sandbox.New("tradelocker", "TradeLocker")}
}

// Authenticate records the key as the sandbox identity.
func (s *Simulator) Authenticate(_ context.Context, apiKey, _ string) error {
	s.login = apiKey
	return nil
}

// Accounts returns the canned account for the authenticated key.
func (s *Simulator) Accounts(_ context.Context) ([]Account, error) {
	var out []Account
	for _, a := range s.eng.Accounts(s.login) {
		out = append(out, Account{
			ID:         a.ID,
			Name:       a.Name,
			AccNum:     a.AccountNumber,
			Currency:   a.Currency,
			Balance:    a.Balance,
			Equity:     a.Equity,
			Status:     "active",
			BrokerName: a.Broker,
		})
	}
	return out, nil
}

// Positions returns the open canned trades in vendor shape.
func (s *Simulator) Positions(_ context.Context, accountID string) ([]Position, error) {
	var out []Position
	for _, tr := range s.eng.Trades(accountID) {
		if tr.Status != domain.TradeOpen {
			continue
		}
		out = append(out, Position{
			ID:           tr.ID,
			Symbol:       tr.Symbol,
			Side:         sideOf(tr.Direction),
			Qty:          tr.Size,
			AvgPrice:     tr.OpenPrice,
			UnrealizedPL: tr.Profit,
			StopLoss:     tr.StopLoss,
			TakeProfit:   tr.TakeProfit,
			OpenDateMs:   tr.OpenDate.UnixMilli(),
		})
	}
	return out, nil
}

// OrdersHistory returns the closed canned trades in vendor shape.
func (s *Simulator) OrdersHistory(_ context.Context, accountID string) ([]Order, error) {
	var out []Order
	for _, tr := range s.eng.Trades(accountID) {
		if tr.Status != domain.TradeClosed {
			continue
		}
		out = append(out, Order{
			ID:          tr.ID,
			Symbol:      tr.Symbol,
			Side:        sideOf(tr.Direction),
			Qty:         tr.Size,
			AvgPrice:    tr.OpenPrice,
			ClosePrice:  *tr.ClosePrice,
			RealizedPL:  tr.Profit,
			Commission:  tr.Commission,
			OpenDateMs:  tr.OpenDate.UnixMilli(),
			CloseDateMs: tr.CloseDate.UnixMilli(),
		})
	}
	return out, nil
}

func sideOf(d domain.TradeDirection) string {
	if d == domain.DirectionShort {
		return "sell"
	}
	return "buy"
}
