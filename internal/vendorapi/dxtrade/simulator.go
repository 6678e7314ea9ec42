package dxtrade

import (
	"context"
	"strings"

	"brokerlink/internal/domain"
	"brokerlink/internal/vendorapi/sandbox"
)

// Simulator implements Service with deterministic sandbox data.
type Simulator struct {
	eng      *sandbox.Service
	username string
}

var _ Service = (*Simulator)(nil)

// NewSimulator creates a sandbox-backed DXtrade service.
func NewSimulator() *Simulator {
	return &Simulator{eng: sandbox.New("dxtrade", "DXtrade")}
}

// Login records the username as the sandbox identity.
func (s *Simulator) Login(_ context.Context, username, _, _ string) error {
	s.username = username
	return nil
}

// DefaultAccount returns the sandbox account code for the logged-in user.
func (s *Simulator) DefaultAccount() string {
	return s.eng.AccountID(s.username)
}

// Portfolio returns the canned account snapshot.
func (s *Simulator) Portfolio(_ context.Context, account string) (Portfolio, error) {
	a := s.eng.Accounts(account)[0]
	return Portfolio{
		Account:       account,
		Currency:      a.Currency,
		Balance:       a.Balance,
		Equity:        a.Equity,
		OpenPL:        a.OpenPL,
		MarginUsed:    a.Margin,
		AccountStatus: "FULL_TRADING",
	}, nil
}

// Positions returns the open canned trades in vendor shape.
func (s *Simulator) Positions(_ context.Context, account string) ([]Position, error) {
	var out []Position
	for _, tr := range s.eng.Trades(account) {
		if tr.Status != domain.TradeOpen {
			continue
		}
		out = append(out, Position{
			PositionCode: tr.ID,
			Symbol:       tr.Symbol,
			Side:         strings.ToUpper(side(tr.Direction)),
			Quantity:     tr.Size,
			OpenPrice:    tr.OpenPrice,
			OpenPL:       tr.Profit,
			OpenTime:     tr.OpenDate,
		})
	}
	return out, nil
}

// History returns the closed canned trades in vendor shape.
func (s *Simulator) History(_ context.Context, account string) ([]HistoryOrder, error) {
	var out []HistoryOrder
	for _, tr := range s.eng.Trades(account) {
		if tr.Status != domain.TradeClosed {
			continue
		}
		out = append(out, HistoryOrder{
			OrderCode:  tr.ID,
			Symbol:     tr.Symbol,
			Side:       strings.ToUpper(side(tr.Direction)),
			Quantity:   tr.Size,
			OpenPrice:  tr.OpenPrice,
			ClosePrice: *tr.ClosePrice,
			RealizedPL: tr.Profit,
			OpenTime:   tr.OpenDate,
			CloseTime:  *tr.CloseDate,
		})
	}
	return out, nil
}

func side(d domain.TradeDirection) string {
	if d == domain.DirectionShort {
		return "sell"
	}
	return "buy"
}
