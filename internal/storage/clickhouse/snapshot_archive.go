package clickhouse

import (
	"context"
	"fmt"

	"tokenpulse/internal/domain"
	"tokenpulse/internal/storage"
)

// SnapshotArchive implements storage.SnapshotArchive using ClickHouse.
// The archive is an analytical mirror of token_snapshots; the Postgres unique
// constraint remains the authority on one-snapshot-per-day.
type SnapshotArchive struct {
	conn *Conn
}

// NewSnapshotArchive creates a new SnapshotArchive.
func NewSnapshotArchive(conn *Conn) *SnapshotArchive {
	return &SnapshotArchive{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotArchive = (*SnapshotArchive)(nil)

// InsertBatch appends snapshots to the archive in one batch.
func (a *SnapshotArchive) InsertBatch(ctx context.Context, snapshots []*domain.TokenSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	batch, err := a.conn.PrepareBatch(ctx, `
		INSERT INTO snapshot_archive (
			token_external_id, snapshot_date, rank, market_cap, price, circulating_supply, volume_24h, created_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snapshots {
		err = batch.Append(
			snap.TokenExternalID,
			snap.SnapshotDate,
			int32(snap.Rank),
			snap.MarketCap,
			snap.Price,
			snap.CirculatingSupply,
			snap.Volume24h,
			snap.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByToken retrieves archived snapshots for a token, ordered by snapshot_date ASC.
func (a *SnapshotArchive) GetByToken(ctx context.Context, externalID int64) ([]*domain.TokenSnapshot, error) {
	query := `
		SELECT token_external_id, snapshot_date, rank, market_cap, price, circulating_supply, volume_24h, created_at
		FROM snapshot_archive FINAL
		WHERE token_external_id = ?
		ORDER BY snapshot_date ASC
	`

	rows, err := a.conn.Query(ctx, query, externalID)
	if err != nil {
		return nil, fmt.Errorf("query snapshot archive: %w", err)
	}
	defer rows.Close()

	var result []*domain.TokenSnapshot
	for rows.Next() {
		var (
			snap domain.TokenSnapshot
			rank int32
		)
		err := rows.Scan(
			&snap.TokenExternalID,
			&snap.SnapshotDate,
			&rank,
			&snap.MarketCap,
			&snap.Price,
			&snap.CirculatingSupply,
			&snap.Volume24h,
			&snap.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan archived snapshot: %w", err)
		}
		snap.Rank = int(rank)
		result = append(result, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archived snapshots: %w", err)
	}
	return result, nil
}
