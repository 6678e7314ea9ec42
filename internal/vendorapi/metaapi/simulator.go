package metaapi

import (
	"context"
	"time"

	"brokerlink/internal/domain"
	"brokerlink/internal/vendorapi/sandbox"
)

// Simulator implements Service with deterministic sandbox data for one
// terminal platform ("mt4" or "mt5").
type Simulator struct {
	platform string
	eng      *sandbox.Service
}

var _ Service = (*Simulator)(nil)

// NewSimulator creates a sandbox-backed MetaApi service for the given
// terminal platform.
func NewSimulator(platform string) *Simulator {
	return &Simulator{platform: platform, eng: sandbox.New(platform, "MetaQuotes")}
}

// Resolve derives a deterministic cloud account id from the login.
func (s *Simulator) Resolve(_ context.Context, login, _, _ string) (string, error) {
	return s.eng.AccountID(login), nil
}

// AccountInformation returns the canned terminal snapshot.
func (s *Simulator) AccountInformation(_ context.Context, accountID string) (AccountInformation, error) {
	a := s.accountFor(accountID)
	return AccountInformation{
		Broker:       a.Broker,
		Currency:     a.Currency,
		Server:       a.Server,
		Balance:      a.Balance,
		Equity:       a.Equity,
		Leverage:     a.Leverage,
		Name:         a.Name,
		Platform:     s.platform,
		TradeAllowed: true,
	}, nil
}

// Positions returns the open canned trades in terminal shape.
func (s *Simulator) Positions(_ context.Context, accountID string) ([]Position, error) {
	var out []Position
	for _, tr := range s.eng.Trades(accountID) {
		if tr.Status != domain.TradeOpen {
			continue
		}
		out = append(out, Position{
			ID:         tr.ID,
			Symbol:     tr.Symbol,
			Type:       positionType(tr.Direction),
			Volume:     tr.Size,
			OpenPrice:  tr.OpenPrice,
			Profit:     tr.Profit,
			Swap:       tr.Swap,
			Commission: tr.Commission,
			StopLoss:   tr.StopLoss,
			TakeProfit: tr.TakeProfit,
			Time:       tr.OpenDate,
		})
	}
	return out, nil
}

// Deals returns the closed canned trades whose close time falls in
// [start, end].
func (s *Simulator) Deals(_ context.Context, accountID string, start, end time.Time) ([]Deal, error) {
	var out []Deal
	for _, tr := range s.eng.Trades(accountID) {
		if tr.Status != domain.TradeClosed {
			continue
		}
		if tr.CloseDate.Before(start) || tr.CloseDate.After(end) {
			continue
		}
		out = append(out, Deal{
			ID:         tr.ID,
			PositionID: tr.ID,
			Symbol:     tr.Symbol,
			Type:       dealType(tr.Direction),
			Volume:     tr.Size,
			Price:      *tr.ClosePrice,
			EntryPrice: tr.OpenPrice,
			Profit:     tr.Profit,
			Swap:       tr.Swap,
			Commission: tr.Commission,
			EntryTime:  tr.OpenDate,
			Time:       *tr.CloseDate,
		})
	}
	return out, nil
}

// Candles generates deterministic sandbox candles at the native timeframe.
func (s *Simulator) Candles(_ context.Context, _, symbol, timeframe string, start, end time.Time) ([]Candle, error) {
	tf, ok := timeframeFromNative(timeframe)
	if !ok {
		return nil, &domain.ValidationError{Platform: s.platform, Reason: "unknown timeframe " + timeframe}
	}
	var out []Candle
	for _, b := range sandbox.Bars(s.platform, symbol, tf, start, end) {
		out = append(out, Candle{
			Time:       b.Time(),
			Open:       b.Open,
			High:       b.High,
			Low:        b.Low,
			Close:      b.Close,
			TickVolume: b.Volume,
		})
	}
	return out, nil
}

// Symbols lists the sandbox instrument set.
func (s *Simulator) Symbols(_ context.Context, _ string) ([]string, error) {
	return sandbox.Symbols(), nil
}

func (s *Simulator) accountFor(accountID string) domain.TradingAccount {
	// accountID is the sandbox id; the engine keys its account data off the
	// login, so reuse the id itself as the deterministic seed.
	return s.eng.Accounts(accountID)[0]
}

func positionType(d domain.TradeDirection) string {
	if d == domain.DirectionShort {
		return "POSITION_TYPE_SELL"
	}
	return "POSITION_TYPE_BUY"
}

func dealType(d domain.TradeDirection) string {
	if d == domain.DirectionShort {
		return "DEAL_TYPE_SELL"
	}
	return "DEAL_TYPE_BUY"
}

// NativeTimeframes maps normalized timeframe tokens to MetaApi's vocabulary.
var NativeTimeframes = map[domain.Timeframe]string{
	domain.M1:  "1m",
	domain.M5:  "5m",
	domain.M15: "15m",
	domain.M30: "30m",
	domain.H1:  "1h",
	domain.H4:  "4h",
	domain.D1:  "1d",
	domain.W1:  "1w",
	domain.MN1: "1mn",
}

func timeframeFromNative(native string) (domain.Timeframe, bool) {
	for tf, n := range NativeTimeframes {
		if n == native {
			return tf, true
		}
	}
	return "", false
}
