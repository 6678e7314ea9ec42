package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brokerlink/internal/domain"
	"brokerlink/internal/platform"
)

func testBars() []domain.Bar {
	return []domain.Bar{
		{Timestamp: 1717372800000, Open: 1.085, High: 1.087, Low: 1.084, Close: 1.086, Volume: 5200, AdjustedClose: 1.086},
		{Timestamp: 1717459200000, Open: 1.086, High: 1.089, Low: 1.085, Close: 1.088, Volume: 4800, AdjustedClose: 1.088},
		{Timestamp: 1717545600000, Open: 1.088, High: 1.090, Low: 1.086, Close: 1.087, Volume: 5100, AdjustedClose: 1.087},
	}
}

func TestParquetRoundTrip(t *testing.T) {
	s := NewParquetStore(t.TempDir())
	ctx := context.Background()
	bars := testBars()

	require.NoError(t, s.WriteBars(ctx, "oanda", "EURUSD", domain.D1, bars))

	got, err := s.ReadBars(ctx, "oanda", "EURUSD", domain.D1,
		time.UnixMilli(bars[0].Timestamp), time.UnixMilli(bars[2].Timestamp))
	require.NoError(t, err)
	assert.Equal(t, bars, got)
	assert.True(t, domain.SortedUnique(got))
}

func TestParquetMergeDeduplicates(t *testing.T) {
	s := NewParquetStore(t.TempDir())
	ctx := context.Background()
	bars := testBars()

	require.NoError(t, s.WriteBars(ctx, "oanda", "EURUSD", domain.D1, bars[:2]))

	// Overlapping write: the middle bar is revised, one new bar appended.
	revised := bars[1]
	revised.Close = 9.999
	require.NoError(t, s.WriteBars(ctx, "oanda", "EURUSD", domain.D1, []domain.Bar{revised, bars[2]}))

	got, err := s.ReadBars(ctx, "oanda", "EURUSD", domain.D1,
		time.UnixMilli(bars[0].Timestamp), time.UnixMilli(bars[2].Timestamp))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.InDelta(t, 9.999, got[1].Close, 1e-9, "incoming records win the merge")
}

func TestParquetWindowFilter(t *testing.T) {
	s := NewParquetStore(t.TempDir())
	ctx := context.Background()
	bars := testBars()

	require.NoError(t, s.WriteBars(ctx, "oanda", "EURUSD", domain.D1, bars))
	got, err := s.ReadBars(ctx, "oanda", "EURUSD", domain.D1,
		time.UnixMilli(bars[1].Timestamp), time.UnixMilli(bars[1].Timestamp))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, bars[1].Timestamp, got[0].Timestamp)
}

func TestParquetMissingSeries(t *testing.T) {
	s := NewParquetStore(t.TempDir())
	got, err := s.ReadBars(context.Background(), "oanda", "GBPUSD", domain.H1,
		time.Unix(0, 0), time.Now())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParquetListSymbols(t *testing.T) {
	s := NewParquetStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, s.WriteBars(ctx, "oanda", "EURUSD", domain.D1, testBars()))
	require.NoError(t, s.WriteBars(ctx, "oanda", "GBPUSD", domain.D1, testBars()))

	symbols, err := s.ListSymbols(ctx, "oanda")
	require.NoError(t, err)
	assert.Equal(t, []string{"EURUSD", "GBPUSD"}, symbols)

	none, err := s.ListSymbols(ctx, "yahoo")
	require.NoError(t, err)
	assert.Empty(t, none)
}

// ---------------------------------------------------------------------------
// SQLite snapshots
// ---------------------------------------------------------------------------

func testSnapshot() *platform.AccountSnapshot {
	closeDate := time.Date(2024, 11, 6, 14, 0, 0, 0, time.UTC)
	closePrice := 1.0921
	return &platform.AccountSnapshot{
		Account: domain.TradingAccount{
			ID:            "tl-100001",
			Name:          "Main",
			AccountNumber: "90210",
			Broker:        "TradeLocker",
			Platform:      "tradelocker",
			Status:        domain.AccountActive,
			Balance:       15000,
			Equity:        15120.5,
			OpenPL:        120.5,
			Currency:      "USD",
			Leverage:      100,
			LastUpdated:   time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		},
		Trades: []domain.Trade{
			{
				ID: "t-1", AccountID: "tl-100001", Symbol: "EURUSD",
				Direction: domain.DirectionLong, Status: domain.TradeClosed,
				OpenDate:  time.Date(2024, 11, 4, 9, 0, 0, 0, time.UTC),
				CloseDate: &closeDate, OpenPrice: 1.0850, ClosePrice: &closePrice,
				Size: 0.5, Profit: 35.5, ProfitPercent: 0.65,
				Commission: -2.5, Tags: []string{"tradelocker", "EURUSD"},
			},
			{
				ID: "t-2", AccountID: "tl-100001", Symbol: "XAUUSD",
				Direction: domain.DirectionShort, Status: domain.TradeOpen,
				OpenDate:  time.Date(2024, 11, 5, 11, 0, 0, 0, time.UTC),
				OpenPrice: 2350.0, Size: 0.1, Profit: 85.0, ProfitPercent: 0.36,
				Tags: []string{"tradelocker", "XAUUSD"},
			},
		},
		SyncedAt: time.Date(2025, 1, 2, 8, 30, 0, 0, time.UTC),
	}
}

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	snap := testSnapshot()

	require.NoError(t, s.SaveSnapshot(ctx, snap))

	account, err := s.Account(ctx, "tl-100001")
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, snap.Account, *account)
	assert.True(t, account.Reconciled())

	trades, err := s.Trades(ctx, "tl-100001")
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, snap.Trades, trades)
	for _, tr := range trades {
		assert.True(t, tr.Consistent())
	}
}

func TestSnapshotUpsertReplacesTrades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	snap := testSnapshot()
	require.NoError(t, s.SaveSnapshot(ctx, snap))

	// Re-sync with one fewer trade and a changed balance.
	snap.Account.Balance = 15500
	snap.Account.Equity = 15620.5
	snap.Trades = snap.Trades[:1]
	require.NoError(t, s.SaveSnapshot(ctx, snap))

	account, err := s.Account(ctx, "tl-100001")
	require.NoError(t, err)
	assert.InDelta(t, 15500, account.Balance, 1e-9)

	trades, err := s.Trades(ctx, "tl-100001")
	require.NoError(t, err)
	assert.Len(t, trades, 1)
}

func TestSnapshotMissingAccount(t *testing.T) {
	s := openTestStore(t)
	account, err := s.Account(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, account)
}

func TestSnapshotAccountListing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := testSnapshot()
	require.NoError(t, s.SaveSnapshot(ctx, first))

	second := testSnapshot()
	second.Account.ID = "mt5-200002"
	second.Account.Platform = "mt5"
	second.Trades = nil
	require.NoError(t, s.SaveSnapshot(ctx, second))

	accounts, err := s.Accounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	// Ordered by platform: mt5 before tradelocker.
	assert.Equal(t, "mt5-200002", accounts[0].ID)
	assert.Equal(t, "tl-100001", accounts[1].ID)
}
