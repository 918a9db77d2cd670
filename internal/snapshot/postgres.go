package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jimliudev/pegguard/internal/model"
)

// PostgresStore keeps the snapshot in two tables: one row per market
// registration plus a single poll-state row holding the cursor and
// export time. Save replaces the whole set transactionally.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the snapshot tables if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS market_registrations (
			market_id           TEXT PRIMARY KEY,
			vault_id            TEXT NOT NULL DEFAULT '',
			balance_manager_id  TEXT NOT NULL DEFAULT '',
			settlement_asset_id TEXT NOT NULL DEFAULT '',
			traded_asset_type   TEXT NOT NULL DEFAULT '',
			floor_price         BIGINT NOT NULL,
			min_buyback_cost    BIGINT NOT NULL DEFAULT 0,
			owner               TEXT NOT NULL DEFAULT '',
			last_trade_price    BIGINT NOT NULL DEFAULT 0,
			buyback_count       BIGINT NOT NULL DEFAULT 0,
			total_buyback_cost  BIGINT NOT NULL DEFAULT 0,
			registered_at       TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS poll_state (
			id          SMALLINT PRIMARY KEY CHECK (id = 1),
			cursor      TEXT NOT NULL,
			exported_at TIMESTAMPTZ NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("ensure snapshot schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, snap *Snapshot) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM market_registrations`); err != nil {
		return fmt.Errorf("clear registrations: %w", err)
	}

	batch := &pgx.Batch{}
	for _, m := range snap.Registrations {
		batch.Queue(`
			INSERT INTO market_registrations (
				market_id, vault_id, balance_manager_id, settlement_asset_id,
				traded_asset_type, floor_price, min_buyback_cost, owner,
				last_trade_price, buyback_count, total_buyback_cost, registered_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, m.MarketID, m.VaultID, m.BalanceManagerID, m.SettlementAssetID,
			m.TradedAssetType, m.FloorPrice, m.MinBuybackCost, m.Owner,
			m.LastTradePrice, m.BuybackCount, m.TotalBuybackCost, m.RegisteredAt)
	}
	batch.Queue(`
		INSERT INTO poll_state (id, cursor, exported_at) VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET cursor = $1, exported_at = $2
	`, snap.Cursor, snap.ExportedAt)

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("write snapshot row: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close snapshot batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot
	var exportedAt time.Time

	err := s.db.QueryRow(ctx,
		`SELECT cursor, exported_at FROM poll_state WHERE id = 1`,
	).Scan(&snap.Cursor, &exportedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read poll state: %w", err)
	}
	snap.ExportedAt = exportedAt

	rows, err := s.db.Query(ctx, `
		SELECT market_id, vault_id, balance_manager_id, settlement_asset_id,
		       traded_asset_type, floor_price, min_buyback_cost, owner,
		       last_trade_price, buyback_count, total_buyback_cost, registered_at
		FROM market_registrations
		ORDER BY market_id
	`)
	if err != nil {
		return nil, fmt.Errorf("read registrations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m model.MarketRegistration
		if err := rows.Scan(
			&m.MarketID, &m.VaultID, &m.BalanceManagerID, &m.SettlementAssetID,
			&m.TradedAssetType, &m.FloorPrice, &m.MinBuybackCost, &m.Owner,
			&m.LastTradePrice, &m.BuybackCount, &m.TotalBuybackCost, &m.RegisteredAt,
		); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		snap.Registrations = append(snap.Registrations, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}

	return &snap, nil
}
