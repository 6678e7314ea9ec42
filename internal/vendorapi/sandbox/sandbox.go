// Package sandbox generates deterministic canned trading data. It stands in
// for vendor endpoints that have no public REST surface and serves as the
// default service behind every adapter constructed bare from the registry,
// so the integration layer is fully exercisable without network access.
//
// All output is a pure function of the seed key (platform + login or
// account id): repeated calls return identical data, and generated records
// satisfy the domain invariants (equity reconciliation, open/closed trade
// consistency, ascending unique bar timestamps).
package sandbox

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"time"

	"brokerlink/internal/domain"
	"brokerlink/internal/util"
)

var symbols = []string{"EURUSD", "GBPUSD", "USDJPY", "XAUUSD", "US500", "NAS100", "BTCUSD"}

// Service produces canned accounts and trades for one platform.
type Service struct {
	platform string
	broker   string
}

// New creates a sandbox service for the given platform identifier and broker
// display name.
func New(platform, broker string) *Service {
	return &Service{platform: platform, broker: broker}
}

func seed(parts ...string) int64 {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{'|'})
	}
	return int64(h.Sum64() & 0x7fffffffffffffff)
}

// AccountID returns the deterministic account identifier for a login.
func (s *Service) AccountID(login string) string {
	n := seed(s.platform, login) % 900000
	return fmt.Sprintf("%s-%06d", s.platform, 100000+n)
}

// Accounts returns exactly one USD account for the login, reconciled against
// the open trades Trades would return for the same account.
func (s *Service) Accounts(login string) []domain.TradingAccount {
	id := s.AccountID(login)
	rng := rand.New(rand.NewSource(seed(s.platform, login)))

	balance := 5000 + float64(rng.Intn(45000)) + rng.Float64()
	balance = round2(balance)

	var openPL float64
	for _, tr := range s.Trades(id) {
		if tr.Status == domain.TradeOpen {
			openPL += tr.Profit
		}
	}
	openPL = round2(openPL)

	name := login
	if name == "" {
		name = "demo"
	}

	return []domain.TradingAccount{{
		ID:            id,
		Name:          fmt.Sprintf("%s %s", strings.ToUpper(s.platform), name),
		AccountNumber: fmt.Sprintf("%08d", seed(s.platform, login, "acct")%100000000),
		Broker:        s.broker,
		Platform:      s.platform,
		Status:        domain.AccountActive,
		Balance:       balance,
		Equity:        round2(balance + openPL),
		OpenPL:        openPL,
		Currency:      "USD",
		Leverage:      100,
		Server:        s.broker + "-Demo",
		Type:          "demo",
		LastUpdated:   time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
	}}
}

// Trades returns a fixed mixed set of open and closed trades for the
// account. The same account id always yields the same trades.
func (s *Service) Trades(accountID string) []domain.Trade {
	rng := rand.New(rand.NewSource(seed(s.platform, accountID, "trades")))
	n := 4 + rng.Intn(4)

	base := time.Date(2024, 11, 4, 9, 0, 0, 0, time.UTC)
	trades := make([]domain.Trade, 0, n)
	for i := 0; i < n; i++ {
		sym := symbols[rng.Intn(len(symbols))]
		dir := domain.DirectionLong
		sign := 1.0
		if rng.Intn(2) == 1 {
			dir = domain.DirectionShort
			sign = -1.0
		}

		open := round5(basePrice(sym) * (0.95 + 0.1*rng.Float64()))
		size := float64(1+rng.Intn(10)) / 10
		opened := base.Add(time.Duration(i*26+rng.Intn(12)) * time.Hour)

		tr := domain.Trade{
			ID:        fmt.Sprintf("%s-T%04d", accountID, i+1),
			AccountID: accountID,
			Symbol:    sym,
			Direction: dir,
			OpenDate:  opened,
			OpenPrice: open,
			Size:      size,
			Tags:      []string{s.platform, sym},
		}

		move := open * (rng.Float64()*0.04 - 0.02)
		if i < n/2 {
			// Closed trade: close fields present, realized profit.
			closePrice := round5(open + move)
			closeDate := opened.Add(time.Duration(2+rng.Intn(70)) * time.Hour)
			tr.Status = domain.TradeClosed
			tr.ClosePrice = &closePrice
			tr.CloseDate = &closeDate
			tr.Profit = round2((closePrice - open) * sign * size * 100)
			tr.ProfitPercent = round2((closePrice - open) / open * sign * 100)
			tr.Commission = round2(-0.5 * size * 10)
		} else {
			// Open trade: floating profit only.
			tr.Status = domain.TradeOpen
			tr.Profit = round2(move * sign * size * 100)
			tr.ProfitPercent = round2(move / open * sign * 100)
		}
		trades = append(trades, tr)
	}
	return trades
}

// Bars generates a deterministic random-walk bar series for (source, symbol,
// timeframe) covering [start, end]. Daily and larger bars fall on weekdays
// only; timestamps are strictly ascending.
func Bars(source, symbol string, tf domain.Timeframe, start, end time.Time) []domain.Bar {
	rng := rand.New(rand.NewSource(seed(source, symbol, string(tf))))
	price := basePrice(symbol)

	var stamps []time.Time
	if tf.Intraday() {
		step := tf.Duration()
		for t := start.UTC().Truncate(step); !t.After(end.UTC()); t = t.Add(step) {
			if util.IsTradingDay(t) && !t.Before(start.UTC()) {
				stamps = append(stamps, t)
			}
		}
	} else {
		for _, d := range util.TradingDays(start, end) {
			stamps = append(stamps, d)
		}
		if tf == domain.W1 || tf == domain.MN1 {
			stamps = thin(stamps, tf)
		}
	}

	bars := make([]domain.Bar, 0, len(stamps))
	for _, ts := range stamps {
		open := price
		change := open * (rng.Float64()*0.02 - 0.01)
		clos := round5(open + change)
		high := round5(maxF(open, clos) * (1 + rng.Float64()*0.005))
		low := round5(minF(open, clos) * (1 - rng.Float64()*0.005))
		bars = append(bars, domain.Bar{
			Timestamp:     ts.UnixMilli(),
			Open:          round5(open),
			High:          high,
			Low:           low,
			Close:         clos,
			AdjustedClose: clos,
			Volume:        float64(1000 + rng.Intn(99000)),
		})
		price = clos
	}
	return bars
}

// Symbols lists the instruments the sandbox can generate data for.
func Symbols() []string {
	out := make([]string, len(symbols))
	copy(out, symbols)
	return out
}

func thin(stamps []time.Time, tf domain.Timeframe) []time.Time {
	var out []time.Time
	for _, ts := range stamps {
		switch tf {
		case domain.W1:
			if ts.Weekday() == time.Monday {
				out = append(out, ts)
			}
		case domain.MN1:
			if ts.Day() <= 3 && ts.Weekday() == time.Monday || ts.Day() == 1 {
				out = append(out, ts)
			}
		}
	}
	return dedupe(out)
}

func dedupe(stamps []time.Time) []time.Time {
	var out []time.Time
	for _, ts := range stamps {
		if len(out) == 0 || ts.After(out[len(out)-1]) {
			out = append(out, ts)
		}
	}
	return out
}

func basePrice(symbol string) float64 {
	switch symbol {
	case "EURUSD":
		return 1.085
	case "GBPUSD":
		return 1.27
	case "USDJPY":
		return 149.5
	case "XAUUSD":
		return 2350
	case "US500":
		return 5600
	case "NAS100":
		return 19800
	case "BTCUSD":
		return 62000
	default:
		return 50 + float64(seed(symbol)%100)
	}
}

func round2(v float64) float64 { return float64(int64(v*100+sign(v)*0.5)) / 100 }

func round5(v float64) float64 { return float64(int64(v*100000+sign(v)*0.5)) / 100000 }

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
