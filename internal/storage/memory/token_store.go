package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"tokenpulse/internal/domain"
	"tokenpulse/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[int64]*domain.Token // keyed by external_id
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		tokens: make(map[int64]*domain.Token),
	}
}

// Upsert inserts a token or refreshes its mutable descriptive fields.
// launched_at and created_at are preserved once a row exists, matching the
// Postgres upsert.
func (s *TokenStore) Upsert(_ context.Context, t *domain.Token) error {
	if t == nil || t.ExternalID == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	tokenCopy := *t
	tokenCopy.Categories = append([]string(nil), t.Categories...)
	tokenCopy.UpdatedAt = now

	if existing, ok := s.tokens[t.ExternalID]; ok {
		tokenCopy.LaunchedAt = existing.LaunchedAt
		tokenCopy.CreatedAt = existing.CreatedAt
	} else {
		tokenCopy.CreatedAt = now
	}

	s.tokens[t.ExternalID] = &tokenCopy
	return nil
}

// GetByExternalID retrieves a token by provider id. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByExternalID(_ context.Context, externalID int64) (*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tokens[externalID]
	if !ok {
		return nil, storage.ErrNotFound
	}

	tokenCopy := *t
	tokenCopy.Categories = append([]string(nil), t.Categories...)
	return &tokenCopy, nil
}

// GetTracked retrieves all tokens with is_tracked = true, ordered by external id.
func (s *TokenStore) GetTracked(_ context.Context) ([]*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Token
	for _, t := range s.tokens {
		if !t.IsTracked {
			continue
		}
		tokenCopy := *t
		tokenCopy.Categories = append([]string(nil), t.Categories...)
		result = append(result, &tokenCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ExternalID < result[j].ExternalID
	})
	return result, nil
}

// Count returns the number of catalogued tokens.
func (s *TokenStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.tokens)), nil
}

var _ storage.TokenStore = (*TokenStore)(nil)
