package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"tokenpulse/internal/storage"
)

// SettingStore implements storage.SettingStore using PostgreSQL.
type SettingStore struct {
	pool *Pool
}

// NewSettingStore creates a new SettingStore.
func NewSettingStore(pool *Pool) *SettingStore {
	return &SettingStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SettingStore = (*SettingStore)(nil)

// GetInt returns the integer value for key, or def when the key is absent.
// A missing key is a normal state (first run), not an error.
func (s *SettingStore) GetInt(ctx context.Context, key string, def int) (int, error) {
	var raw string
	err := s.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&raw)
	if err != nil {
		if isNotFoundError(err) {
			return def, nil
		}
		return 0, fmt.Errorf("get setting %q: %w", key, err)
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("setting %q is not an integer: %w", key, err)
	}
	return v, nil
}

// Get retrieves the raw value for key. Returns ErrNotFound if not exists.
func (s *SettingStore) Get(ctx context.Context, key string) (string, error) {
	var raw string
	err := s.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&raw)
	if err != nil {
		if isNotFoundError(err) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return raw, nil
}

// Set stores a value under key, replacing any previous value.
func (s *SettingStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET
			value      = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := s.pool.Exec(ctx, query, key, value, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}
