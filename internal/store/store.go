// Package store provides process-local persistence: historical bars in
// Parquet files and account sync snapshots in SQLite.
package store

import (
	"context"
	"time"

	"brokerlink/internal/domain"
	"brokerlink/internal/platform"
)

// BarStore persists historical bars fetched through the data manager.
type BarStore interface {
	// WriteBars merges bars into the stored series for
	// (provider, symbol, timeframe), deduplicating by timestamp.
	WriteBars(ctx context.Context, provider, symbol string, tf domain.Timeframe, bars []domain.Bar) error

	// ReadBars reads the stored bars inside [start, end], ascending.
	ReadBars(ctx context.Context, provider, symbol string, tf domain.Timeframe, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols lists symbols with stored data for a provider.
	ListSymbols(ctx context.Context, provider string) ([]string, error)
}

// SnapshotStore persists the result of account syncs.
type SnapshotStore interface {
	// SaveSnapshot upserts the account record and replaces its trades.
	SaveSnapshot(ctx context.Context, snap *platform.AccountSnapshot) error

	// Account reads one stored account by id.
	Account(ctx context.Context, accountID string) (*domain.TradingAccount, error)

	// Accounts lists all stored accounts.
	Accounts(ctx context.Context) ([]domain.TradingAccount, error)

	// Trades lists the stored trades for one account.
	Trades(ctx context.Context, accountID string) ([]domain.Trade, error)

	Close() error
}
