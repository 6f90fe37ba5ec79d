package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"tokenpulse/internal/domain"
	"tokenpulse/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Insert adds a new snapshot. Returns ErrDuplicateKey if a snapshot for
// (token_external_id, snapshot_date) already exists. The primary key makes
// this atomic, so two overlapping runs cannot both insert.
func (s *SnapshotStore) Insert(ctx context.Context, snap *domain.TokenSnapshot) error {
	if snap == nil || snap.TokenExternalID == 0 || snap.SnapshotDate == 0 {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO token_snapshots (
			token_external_id, snapshot_date, rank, market_cap, price, circulating_supply, volume_24h, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	createdAt := snap.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().UnixMilli()
	}

	_, err := s.pool.Exec(ctx, query,
		snap.TokenExternalID,
		snap.SnapshotDate,
		snap.Rank,
		snap.MarketCap,
		snap.Price,
		snap.CirculatingSupply,
		snap.Volume24h,
		createdAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// GetByTokenAndDate retrieves the snapshot for one token on one UTC day.
// Returns ErrNotFound if not exists.
func (s *SnapshotStore) GetByTokenAndDate(ctx context.Context, externalID, snapshotDate int64) (*domain.TokenSnapshot, error) {
	query := `
		SELECT token_external_id, snapshot_date, rank, market_cap, price, circulating_supply, volume_24h, created_at
		FROM token_snapshots
		WHERE token_external_id = $1 AND snapshot_date = $2
	`

	row := s.pool.QueryRow(ctx, query, externalID, snapshotDate)
	snap, err := scanSnapshot(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot by token and date: %w", err)
	}
	return snap, nil
}

// GetByTokenRange retrieves snapshots for a token within [start, end]
// (inclusive, ms), ordered by snapshot_date ASC.
func (s *SnapshotStore) GetByTokenRange(ctx context.Context, externalID, start, end int64) ([]*domain.TokenSnapshot, error) {
	query := `
		SELECT token_external_id, snapshot_date, rank, market_cap, price, circulating_supply, volume_24h, created_at
		FROM token_snapshots
		WHERE token_external_id = $1 AND snapshot_date >= $2 AND snapshot_date <= $3
		ORDER BY snapshot_date ASC
	`

	rows, err := s.pool.Query(ctx, query, externalID, start, end)
	if err != nil {
		return nil, fmt.Errorf("get snapshots by token range: %w", err)
	}
	defer rows.Close()

	var result []*domain.TokenSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		result = append(result, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return result, nil
}

// CountForDate returns the number of snapshots dated snapshotDate.
func (s *SnapshotStore) CountForDate(ctx context.Context, snapshotDate int64) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM token_snapshots WHERE snapshot_date = $1`, snapshotDate).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count snapshots for date: %w", err)
	}
	return n, nil
}

// scanSnapshot scans a single row into TokenSnapshot.
func scanSnapshot(row pgx.Row) (*domain.TokenSnapshot, error) {
	var snap domain.TokenSnapshot

	err := row.Scan(
		&snap.TokenExternalID,
		&snap.SnapshotDate,
		&snap.Rank,
		&snap.MarketCap,
		&snap.Price,
		&snap.CirculatingSupply,
		&snap.Volume24h,
		&snap.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &snap, nil
}
