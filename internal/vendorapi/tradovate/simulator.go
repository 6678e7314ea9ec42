package tradovate

import (
	"context"
	"hash/fnv"
	"time"

	"brokerlink/internal/domain"
	"brokerlink/internal/vendorapi/sandbox"
)

// Simulator implements Service with deterministic sandbox data.
type Simulator struct {
	eng  *sandbox.Service
	name string
}

var _ Service = (*Simulator)(nil)

// NewSimulator creates a sandbox-backed Tradovate service.
func NewSimulator() *Simulator {
	return &Simulator{eng: sandbox.New("tradovate", "Tradovate")}
}

// Authenticate records the username as the sandbox identity.
func (s *Simulator) Authenticate(_ context.Context, name, _ string) error {
	s.name = name
	return nil
}

// Accounts returns the canned account in vendor shape.
func (s *Simulator) Accounts(_ context.Context) ([]Account, error) {
	var out []Account
	for _, a := range s.eng.Accounts(s.name) {
		out = append(out, Account{
			ID:           numericID(a.ID),
			Name:         a.AccountNumber,
			AccountType:  "Customer",
			Active:       true,
			Balance:      a.Balance,
			TotalCashVal: a.Equity,
			Currency:     a.Currency,
		})
	}
	return out, nil
}

// Positions returns the open canned trades in vendor shape.
func (s *Simulator) Positions(_ context.Context, accountID string) ([]Position, error) {
	var out []Position
	for i, tr := range s.eng.Trades(accountID) {
		if tr.Status != domain.TradeOpen {
			continue
		}
		net := tr.Size
		if tr.Direction == domain.DirectionShort {
			net = -net
		}
		out = append(out, Position{
			ID:        i + 1,
			AccountID: numericID(accountID),
			Symbol:    tr.Symbol,
			NetPos:    net,
			NetPrice:  tr.OpenPrice,
			OpenPL:    tr.Profit,
			Timestamp: tr.OpenDate.Format(time.RFC3339),
		})
	}
	return out, nil
}

// Fills returns the closed canned trades in vendor shape.
func (s *Simulator) Fills(_ context.Context, accountID string) ([]Fill, error) {
	var out []Fill
	for i, tr := range s.eng.Trades(accountID) {
		if tr.Status != domain.TradeClosed {
			continue
		}
		action := "Buy"
		if tr.Direction == domain.DirectionShort {
			action = "Sell"
		}
		out = append(out, Fill{
			ID:         i + 1,
			AccountID:  numericID(accountID),
			Symbol:     tr.Symbol,
			Action:     action,
			Qty:        tr.Size,
			Price:      tr.OpenPrice,
			ExitPrice:  *tr.ClosePrice,
			RealizedPL: tr.Profit,
			Timestamp:  tr.OpenDate.Format(time.RFC3339),
			ExitTime:   tr.CloseDate.Format(time.RFC3339),
		})
	}
	return out, nil
}

// numericID derives a stable int id from a sandbox account id string.
func numericID(s string) int {
	h := fnv.New32a()
	h.Write([]byte(s))
	return int(h.Sum32() & 0x7fffff)
}
