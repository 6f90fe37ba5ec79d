package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"tokenpulse/internal/storage"
)

// SettingStore is an in-memory implementation of storage.SettingStore.
type SettingStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewSettingStore creates a new in-memory setting store.
func NewSettingStore() *SettingStore {
	return &SettingStore{
		values: make(map[string]string),
	}
}

// GetInt returns the integer value for key, or def when the key is absent.
func (s *SettingStore) GetInt(_ context.Context, key string, def int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.values[key]
	if !ok {
		return def, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("setting %q is not an integer: %w", key, err)
	}
	return v, nil
}

// Set stores a value under key, replacing any previous value.
func (s *SettingStore) Set(_ context.Context, key, value string) error {
	if key == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

var _ storage.SettingStore = (*SettingStore)(nil)
