package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"brokerlink/internal/domain"
	"brokerlink/internal/platform"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

var _ SnapshotStore = (*SQLiteStore)(nil)

// SQLiteStore implements SnapshotStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS accounts (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	account_number TEXT NOT NULL,
	broker         TEXT NOT NULL,
	platform       TEXT NOT NULL,
	status         TEXT NOT NULL,
	balance        REAL NOT NULL,
	equity         REAL NOT NULL,
	open_pl        REAL NOT NULL,
	currency       TEXT NOT NULL,
	margin         REAL NOT NULL DEFAULT 0,
	leverage       INTEGER NOT NULL DEFAULT 0,
	server         TEXT NOT NULL DEFAULT '',
	type           TEXT NOT NULL DEFAULT '',
	last_updated   TEXT NOT NULL,
	synced_at      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS trades (
	id             TEXT NOT NULL,
	account_id     TEXT NOT NULL,
	symbol         TEXT NOT NULL,
	direction      TEXT NOT NULL,
	open_date      TEXT NOT NULL,
	close_date     TEXT,
	open_price     REAL NOT NULL,
	close_price    REAL,
	size           REAL NOT NULL,
	profit         REAL NOT NULL,
	profit_percent REAL NOT NULL,
	status         TEXT NOT NULL,
	stop_loss      REAL NOT NULL DEFAULT 0,
	take_profit    REAL NOT NULL DEFAULT 0,
	swap           REAL NOT NULL DEFAULT 0,
	commission     REAL NOT NULL DEFAULT 0,
	tags           TEXT NOT NULL DEFAULT '',
	notes          TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (id, account_id)
);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the snapshot schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(snapshotSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating snapshot schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveSnapshot upserts the account record and replaces its trades in one
// transaction.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap *platform.AccountSnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	a := snap.Account
	_, err = tx.ExecContext(ctx, `
		INSERT INTO accounts
			(id, name, account_number, broker, platform, status, balance,
			 equity, open_pl, currency, margin, leverage, server, type,
			 last_updated, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			account_number = excluded.account_number,
			broker = excluded.broker,
			platform = excluded.platform,
			status = excluded.status,
			balance = excluded.balance,
			equity = excluded.equity,
			open_pl = excluded.open_pl,
			currency = excluded.currency,
			margin = excluded.margin,
			leverage = excluded.leverage,
			server = excluded.server,
			type = excluded.type,
			last_updated = excluded.last_updated,
			synced_at = excluded.synced_at`,
		a.ID, a.Name, a.AccountNumber, a.Broker, a.Platform, string(a.Status),
		a.Balance, a.Equity, a.OpenPL, a.Currency, a.Margin, a.Leverage,
		a.Server, a.Type, a.LastUpdated.UTC().Format(time.RFC3339Nano),
		snap.SyncedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upserting account %s: %w", a.ID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM trades WHERE account_id = ?`, a.ID); err != nil {
		return fmt.Errorf("clearing trades for %s: %w", a.ID, err)
	}
	for _, tr := range snap.Trades {
		var closeDate any
		if tr.CloseDate != nil {
			closeDate = tr.CloseDate.UTC().Format(time.RFC3339Nano)
		}
		var closePrice any
		if tr.ClosePrice != nil {
			closePrice = *tr.ClosePrice
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO trades
				(id, account_id, symbol, direction, open_date, close_date,
				 open_price, close_price, size, profit, profit_percent,
				 status, stop_loss, take_profit, swap, commission, tags, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			tr.ID, a.ID, tr.Symbol, string(tr.Direction),
			tr.OpenDate.UTC().Format(time.RFC3339Nano), closeDate,
			tr.OpenPrice, closePrice, tr.Size, tr.Profit, tr.ProfitPercent,
			string(tr.Status), tr.StopLoss, tr.TakeProfit, tr.Swap,
			tr.Commission, strings.Join(tr.Tags, ","), tr.Notes)
		if err != nil {
			return fmt.Errorf("inserting trade %s: %w", tr.ID, err)
		}
	}
	return tx.Commit()
}

// Account reads one stored account by id. A missing account returns nil
// without error.
func (s *SQLiteStore) Account(ctx context.Context, accountID string) (*domain.TradingAccount, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, account_number, broker, platform, status, balance,
		       equity, open_pl, currency, margin, leverage, server, type,
		       last_updated
		FROM accounts WHERE id = ?`, accountID)

	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Accounts lists all stored accounts ordered by platform then id.
func (s *SQLiteStore) Accounts(ctx context.Context) ([]domain.TradingAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, account_number, broker, platform, status, balance,
		       equity, open_pl, currency, margin, leverage, server, type,
		       last_updated
		FROM accounts ORDER BY platform, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.TradingAccount
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

// Trades lists the stored trades for one account ordered by open date.
func (s *SQLiteStore) Trades(ctx context.Context, accountID string) ([]domain.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, symbol, direction, open_date, close_date,
		       open_price, close_price, size, profit, profit_percent, status,
		       stop_loss, take_profit, swap, commission, tags, notes
		FROM trades WHERE account_id = ? ORDER BY open_date, id`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var tr domain.Trade
		var direction, status, openDate, tags string
		var closeDate sql.NullString
		var closePrice sql.NullFloat64
		if err := rows.Scan(&tr.ID, &tr.AccountID, &tr.Symbol, &direction,
			&openDate, &closeDate, &tr.OpenPrice, &closePrice, &tr.Size,
			&tr.Profit, &tr.ProfitPercent, &status, &tr.StopLoss,
			&tr.TakeProfit, &tr.Swap, &tr.Commission, &tags, &tr.Notes); err != nil {
			return nil, err
		}
		tr.Direction = domain.TradeDirection(direction)
		tr.Status = domain.TradeStatus(status)
		if tr.OpenDate, err = time.Parse(time.RFC3339Nano, openDate); err != nil {
			return nil, fmt.Errorf("bad open_date for trade %s: %w", tr.ID, err)
		}
		if closeDate.Valid {
			t, err := time.Parse(time.RFC3339Nano, closeDate.String)
			if err != nil {
				return nil, fmt.Errorf("bad close_date for trade %s: %w", tr.ID, err)
			}
			tr.CloseDate = &t
		}
		if closePrice.Valid {
			v := closePrice.Float64
			tr.ClosePrice = &v
		}
		if tags != "" {
			tr.Tags = strings.Split(tags, ",")
		}
		trades = append(trades, tr)
	}
	return trades, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (*domain.TradingAccount, error) {
	var a domain.TradingAccount
	var status, lastUpdated string
	if err := row.Scan(&a.ID, &a.Name, &a.AccountNumber, &a.Broker,
		&a.Platform, &status, &a.Balance, &a.Equity, &a.OpenPL, &a.Currency,
		&a.Margin, &a.Leverage, &a.Server, &a.Type, &lastUpdated); err != nil {
		return nil, err
	}
	a.Status = domain.AccountStatus(status)
	t, err := time.Parse(time.RFC3339Nano, lastUpdated)
	if err != nil {
		return nil, fmt.Errorf("bad last_updated for account %s: %w", a.ID, err)
	}
	a.LastUpdated = t
	return &a, nil
}
