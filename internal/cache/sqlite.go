package cache

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/newthinker/folio/internal/core"
)

// SQLiteStore implements Cache using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// Writes for one fund run in a transaction; a single connection keeps
	// concurrent batch workers from interleaving them.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS holdings (
	fund         TEXT NOT NULL,
	holding_key  TEXT NOT NULL,
	as_of        TEXT NOT NULL,
	name         TEXT NOT NULL,
	symbol       TEXT NOT NULL DEFAULT '',
	cusip        TEXT NOT NULL DEFAULT '',
	isin         TEXT NOT NULL DEFAULT '',
	weight       REAL NOT NULL DEFAULT 0,
	shares       REAL NOT NULL DEFAULT 0,
	market_value REAL NOT NULL DEFAULT 0,
	asset_class  TEXT NOT NULL DEFAULT '',
	provider     TEXT NOT NULL,
	quality      TEXT NOT NULL,
	fetched_at   INTEGER NOT NULL,
	PRIMARY KEY (fund, holding_key, as_of)
);

CREATE INDEX IF NOT EXISTS idx_holdings_fund_fetched ON holdings(fund, fetched_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const upsertHolding = `
INSERT INTO holdings (fund, holding_key, as_of, name, symbol, cusip, isin, weight, shares, market_value, asset_class, provider, quality, fetched_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (fund, holding_key, as_of) DO UPDATE SET
	name = excluded.name,
	symbol = excluded.symbol,
	cusip = excluded.cusip,
	isin = excluded.isin,
	weight = excluded.weight,
	shares = excluded.shares,
	market_value = excluded.market_value,
	asset_class = excluded.asset_class,
	provider = excluded.provider,
	quality = excluded.quality,
	fetched_at = excluded.fetched_at`

func (s *SQLiteStore) Write(ctx context.Context, fund string, rows []Row, asOf, provider string, quality core.DataQuality) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrapf(err, "sqlite: begin write %s", fund)
	}
	defer tx.Rollback() //nolint:errcheck

	// A write replaces the whole snapshot for its as-of date.
	if _, err := tx.ExecContext(ctx, `DELETE FROM holdings WHERE fund = ? AND as_of = ?`, fund, asOf); err != nil {
		return eris.Wrapf(err, "sqlite: clear snapshot %s %s", fund, asOf)
	}

	stmt, err := tx.PrepareContext(ctx, upsertHolding)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close()

	fetched := now().Unix()
	for _, r := range rows {
		_, err := stmt.ExecContext(ctx,
			fund, r.Key(), asOf, r.Name, r.Symbol, r.CUSIP, r.ISIN,
			r.Weight, r.Shares, r.MarketValue, r.AssetClass,
			provider, string(quality), fetched,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: upsert holding %s for %s", r.Key(), fund)
		}
	}
	return eris.Wrapf(tx.Commit(), "sqlite: commit write %s", fund)
}

func (s *SQLiteStore) HasRecent(ctx context.Context, fund string, maxAgeDays int) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM holdings WHERE fund = ? AND fetched_at >= ?`,
		fund, cutoff(maxAgeDays).Unix(),
	).Scan(&n)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: has recent %s", fund)
	}
	return n > 0, nil
}

func (s *SQLiteStore) ReadLatest(ctx context.Context, fund string) (*Snapshot, error) {
	var asOf string
	err := s.db.QueryRowContext(ctx,
		`SELECT as_of FROM holdings WHERE fund = ? ORDER BY as_of DESC, fetched_at DESC LIMIT 1`,
		fund,
	).Scan(&asOf)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: latest as-of %s", fund)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, symbol, cusip, isin, weight, shares, market_value, asset_class, provider, quality, fetched_at
		 FROM holdings WHERE fund = ? AND as_of = ? ORDER BY weight DESC, name`,
		fund, asOf,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: read latest %s", fund)
	}
	defer rows.Close()

	snap := &Snapshot{Fund: fund, AsOfDate: asOf}
	var newest int64
	for rows.Next() {
		var (
			r        Row
			provider string
			quality  string
			fetched  int64
		)
		if err := rows.Scan(&r.Name, &r.Symbol, &r.CUSIP, &r.ISIN, &r.Weight, &r.Shares,
			&r.MarketValue, &r.AssetClass, &provider, &quality, &fetched); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan holding")
		}
		if fetched >= newest {
			newest = fetched
			snap.Provider = provider
			snap.Quality = core.DataQuality(quality)
		}
		snap.Rows = append(snap.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: read latest iterate")
	}
	snap.FetchedAt = time.Unix(newest, 0)
	return snap, nil
}
