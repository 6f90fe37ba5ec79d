package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"tokenpulse/internal/domain"
	"tokenpulse/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// Upsert inserts a token or refreshes its mutable descriptive fields.
// launched_at and created_at stay untouched on conflict; the listing is never
// allowed to rewrite them once a token exists.
func (s *TokenStore) Upsert(ctx context.Context, t *domain.Token) error {
	if t == nil || t.ExternalID == 0 {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO tokens (
			external_id, name, symbol, slug, chain, launched_at, categories, is_tracked, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (external_id) DO UPDATE SET
			name       = EXCLUDED.name,
			symbol     = EXCLUDED.symbol,
			slug       = EXCLUDED.slug,
			chain      = EXCLUDED.chain,
			categories = EXCLUDED.categories,
			is_tracked = EXCLUDED.is_tracked,
			updated_at = EXCLUDED.updated_at
	`

	categories := t.Categories
	if categories == nil {
		categories = []string{}
	}

	_, err := s.pool.Exec(ctx, query,
		t.ExternalID,
		t.Name,
		t.Symbol,
		t.Slug,
		t.Chain,
		t.LaunchedAt,
		categories,
		t.IsTracked,
		time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}

// GetByExternalID retrieves a token by provider id. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByExternalID(ctx context.Context, externalID int64) (*domain.Token, error) {
	query := `
		SELECT external_id, name, symbol, slug, chain, launched_at, categories, is_tracked, created_at, updated_at
		FROM tokens
		WHERE external_id = $1
	`

	row := s.pool.QueryRow(ctx, query, externalID)
	t, err := scanToken(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token by external id: %w", err)
	}
	return t, nil
}

// GetTracked retrieves all tokens with is_tracked = true, ordered by external id.
func (s *TokenStore) GetTracked(ctx context.Context) ([]*domain.Token, error) {
	query := `
		SELECT external_id, name, symbol, slug, chain, launched_at, categories, is_tracked, created_at, updated_at
		FROM tokens
		WHERE is_tracked
		ORDER BY external_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get tracked tokens: %w", err)
	}
	defer rows.Close()

	var result []*domain.Token
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tokens: %w", err)
	}
	return result, nil
}

// Count returns the number of catalogued tokens.
func (s *TokenStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tokens`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tokens: %w", err)
	}
	return n, nil
}

// scanToken scans a single row into Token.
func scanToken(row pgx.Row) (*domain.Token, error) {
	var t domain.Token

	err := row.Scan(
		&t.ExternalID,
		&t.Name,
		&t.Symbol,
		&t.Slug,
		&t.Chain,
		&t.LaunchedAt,
		&t.Categories,
		&t.IsTracked,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &t, nil
}
