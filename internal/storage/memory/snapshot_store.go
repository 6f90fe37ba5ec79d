package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"tokenpulse/internal/domain"
	"tokenpulse/internal/storage"
)

// snapshotKey is the dedup key: one snapshot per token per UTC day.
type snapshotKey struct {
	externalID   int64
	snapshotDate int64
}

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[snapshotKey]*domain.TokenSnapshot
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		snapshots: make(map[snapshotKey]*domain.TokenSnapshot),
	}
}

// Insert adds a new snapshot. Returns ErrDuplicateKey if a snapshot for
// (token_external_id, snapshot_date) already exists.
func (s *SnapshotStore) Insert(_ context.Context, snap *domain.TokenSnapshot) error {
	if snap == nil || snap.TokenExternalID == 0 || snap.SnapshotDate == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := snapshotKey{snap.TokenExternalID, snap.SnapshotDate}
	if _, exists := s.snapshots[key]; exists {
		return storage.ErrDuplicateKey
	}

	snapCopy := *snap
	if snapCopy.CreatedAt == 0 {
		snapCopy.CreatedAt = time.Now().UnixMilli()
	}
	s.snapshots[key] = &snapCopy
	return nil
}

// GetByTokenAndDate retrieves the snapshot for one token on one UTC day.
// Returns ErrNotFound if not exists.
func (s *SnapshotStore) GetByTokenAndDate(_ context.Context, externalID, snapshotDate int64) (*domain.TokenSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[snapshotKey{externalID, snapshotDate}]
	if !ok {
		return nil, storage.ErrNotFound
	}

	snapCopy := *snap
	return &snapCopy, nil
}

// GetByTokenRange retrieves snapshots for a token within [start, end]
// (inclusive, ms), ordered by snapshot_date ASC.
func (s *SnapshotStore) GetByTokenRange(_ context.Context, externalID, start, end int64) ([]*domain.TokenSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TokenSnapshot
	for key, snap := range s.snapshots {
		if key.externalID != externalID {
			continue
		}
		if key.snapshotDate < start || key.snapshotDate > end {
			continue
		}
		snapCopy := *snap
		result = append(result, &snapCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].SnapshotDate < result[j].SnapshotDate
	})
	return result, nil
}

// CountForDate returns the number of snapshots dated snapshotDate.
func (s *SnapshotStore) CountForDate(_ context.Context, snapshotDate int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for key := range s.snapshots {
		if key.snapshotDate == snapshotDate {
			n++
		}
	}
	return n, nil
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)
