package sandbox

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerlink/internal/domain"
)

func TestAccountsDeterministic(t *testing.T) {
	svc := New("tradelocker", "TradeLocker")

	a := svc.Accounts("user1")
	b := svc.Accounts("user1")
	require.Len(t, a, 1)
	assert.Equal(t, a, b)

	assert.NotEmpty(t, a[0].AccountNumber)
	assert.Equal(t, "USD", a[0].Currency)
	assert.Equal(t, domain.AccountActive, a[0].Status)
}

func TestAccountReconciles(t *testing.T) {
	svc := New("mt5", "MetaQuotes")
	acct := svc.Accounts("12345")[0]
	assert.True(t, acct.Reconciled(), "equity - balance must equal open P/L")
}

func TestTradesSatisfyInvariants(t *testing.T) {
	svc := New("rithmic", "Rithmic")
	acctID := svc.AccountID("trader")
	trades := svc.Trades(acctID)
	require.NotEmpty(t, trades)

	var open, closed int
	for _, tr := range trades {
		assert.True(t, tr.Consistent(), "trade %s status inconsistent with close fields", tr.ID)
		assert.Equal(t, acctID, tr.AccountID)
		assert.NotEmpty(t, tr.Symbol)
		assert.Contains(t, tr.Tags, "rithmic")
		if tr.Status == domain.TradeOpen {
			open++
		} else {
			closed++
		}
	}
	assert.Positive(t, open)
	assert.Positive(t, closed)
}

func TestBarsAscendingUnique(t *testing.T) {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC)

	daily := Bars("dukascopy", "EURUSD", domain.D1, start, end)
	require.NotEmpty(t, daily)
	assert.True(t, domain.SortedUnique(daily))
	// Three full weeks, weekdays only.
	assert.Len(t, daily, 15)

	for _, b := range daily {
		assert.GreaterOrEqual(t, b.High, b.Open)
		assert.GreaterOrEqual(t, b.High, b.Close)
		assert.LessOrEqual(t, b.Low, b.Open)
		assert.LessOrEqual(t, b.Low, b.Close)
		assert.False(t, time.UnixMilli(b.Timestamp).UTC().Weekday() == time.Saturday)
	}
}

func TestBarsDeterministic(t *testing.T) {
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	a := Bars("yahoo", "AAPL", domain.H1, start, end)
	b := Bars("yahoo", "AAPL", domain.H1, start, end)
	assert.Equal(t, a, b)

	// A different source seeds a different walk.
	c := Bars("iex", "AAPL", domain.H1, start, end)
	assert.NotEqual(t, a, c)
}
