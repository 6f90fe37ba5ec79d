package storage

import (
	"context"

	"tokenpulse/internal/domain"
)

// TokenStore provides access to the token catalog.
type TokenStore interface {
	// Upsert inserts a token or refreshes its mutable descriptive fields.
	// external_id is the conflict key; launched_at and created_at are never
	// rewritten once a row exists.
	Upsert(ctx context.Context, t *domain.Token) error

	// GetByExternalID retrieves a token by provider id. Returns ErrNotFound if not exists.
	GetByExternalID(ctx context.Context, externalID int64) (*domain.Token, error)

	// GetTracked retrieves all tokens with is_tracked = true, ordered by external id.
	GetTracked(ctx context.Context) ([]*domain.Token, error)

	// Count returns the number of catalogued tokens.
	Count(ctx context.Context) (int64, error)
}

// SnapshotStore provides access to token_snapshots storage.
type SnapshotStore interface {
	// Insert adds a new snapshot. Returns ErrDuplicateKey if a snapshot for
	// (token_external_id, snapshot_date) already exists.
	Insert(ctx context.Context, s *domain.TokenSnapshot) error

	// GetByTokenAndDate retrieves the snapshot for one token on one UTC day.
	// Returns ErrNotFound if not exists.
	GetByTokenAndDate(ctx context.Context, externalID, snapshotDate int64) (*domain.TokenSnapshot, error)

	// GetByTokenRange retrieves snapshots for a token within [start, end]
	// (inclusive, ms), ordered by snapshot_date ASC.
	GetByTokenRange(ctx context.Context, externalID, start, end int64) ([]*domain.TokenSnapshot, error)

	// CountForDate returns the number of snapshots dated snapshotDate.
	CountForDate(ctx context.Context, snapshotDate int64) (int64, error)
}

// SettingStore is the narrow read port over the key/value configuration store.
// Writes happen outside the pipeline; Set exists for seeding and tests.
type SettingStore interface {
	// GetInt returns the integer value for key, or def when the key is
	// absent. Absence is a normal state, not an error.
	GetInt(ctx context.Context, key string, def int) (int, error)

	// Set stores a value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
}

// SnapshotArchive mirrors created snapshots to an analytical store.
// Archiving is best-effort: failures are logged by callers, never fatal.
type SnapshotArchive interface {
	// InsertBatch appends snapshots to the archive in one batch.
	InsertBatch(ctx context.Context, snapshots []*domain.TokenSnapshot) error

	// GetByToken retrieves archived snapshots for a token, ordered by snapshot_date ASC.
	GetByToken(ctx context.Context, externalID int64) ([]*domain.TokenSnapshot, error)
}
