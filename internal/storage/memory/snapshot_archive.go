package memory

import (
	"context"
	"sort"
	"sync"

	"tokenpulse/internal/domain"
	"tokenpulse/internal/storage"
)

// SnapshotArchive is an in-memory implementation of storage.SnapshotArchive.
// The real archive lives in ClickHouse; this double backs memory mode.
type SnapshotArchive struct {
	mu   sync.RWMutex
	rows []*domain.TokenSnapshot
}

// NewSnapshotArchive creates a new in-memory snapshot archive.
func NewSnapshotArchive() *SnapshotArchive {
	return &SnapshotArchive{}
}

// InsertBatch appends snapshots to the archive in one batch.
func (a *SnapshotArchive) InsertBatch(_ context.Context, snapshots []*domain.TokenSnapshot) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, snap := range snapshots {
		if snap == nil {
			return storage.ErrInvalidInput
		}
		snapCopy := *snap
		a.rows = append(a.rows, &snapCopy)
	}
	return nil
}

// GetByToken retrieves archived snapshots for a token, ordered by snapshot_date ASC.
func (a *SnapshotArchive) GetByToken(_ context.Context, externalID int64) ([]*domain.TokenSnapshot, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var result []*domain.TokenSnapshot
	for _, snap := range a.rows {
		if snap.TokenExternalID != externalID {
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

var _ storage.SnapshotArchive = (*SnapshotArchive)(nil)
