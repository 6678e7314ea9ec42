package ctrader

import (
	"context"
	"hash/fnv"

	"brokerlink/internal/domain"
	"brokerlink/internal/vendorapi/sandbox"
)

// Simulator implements Service with deterministic sandbox data.
type Simulator struct {
	eng      *sandbox.Service
	clientID string
}

var _ Service = (*Simulator)(nil)

// NewSimulator creates a sandbox-backed cTrader service.
func NewSimulator() *Simulator {
	return &Simulator{eng: sandbox.New("ctrader", "Spotware")}
}

// Authenticate records the client id as the sandbox identity.
func (s *Simulator) Authenticate(_ context.Context, clientID, _ string) error {
	s.clientID = clientID
	return nil
}

// Accounts returns the canned account in vendor shape.
func (s *Simulator) Accounts(_ context.Context) ([]TradingAccount, error) {
	var out []TradingAccount
	for _, a := range s.eng.Accounts(s.clientID) {
		out = append(out, TradingAccount{
			AccountID:   int64(hash32(a.ID)),
			AccountNum:  a.AccountNumber,
			Live:        false,
			BrokerName:  a.Broker,
			BrokerTitle: a.Broker,
			Deposit:     a.Currency,
			Balance:     a.Balance,
			Equity:      a.Equity,
			Leverage:    a.Leverage,
			Status:      "TRADER_ACCOUNT_STATUS_ACTIVE",
		})
	}
	return out, nil
}

// Deals returns canned open and closed trades as one deal list.
func (s *Simulator) Deals(_ context.Context, accountID string) ([]Deal, error) {
	var out []Deal
	for i, tr := range s.eng.Trades(accountID) {
		side := "BUY"
		if tr.Direction == domain.DirectionShort {
			side = "SELL"
		}
		d := Deal{
			DealID:      int64(i + 1),
			PositionID:  int64(hash32(tr.ID)),
			SymbolName:  tr.Symbol,
			TradeSide:   side,
			Volume:      tr.Size,
			EntryPrice:  tr.OpenPrice,
			GrossProfit: tr.Profit,
			Swap:        tr.Swap,
			Commission:  tr.Commission,
			CreateMs:    tr.OpenDate.UnixMilli(),
		}
		if tr.Status == domain.TradeClosed {
			d.Closed = true
			d.ClosePrice = *tr.ClosePrice
			d.CloseMs = tr.CloseDate.UnixMilli()
		}
		out = append(out, d)
	}
	return out, nil
}

func hash32(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32() & 0x7fffff
}
