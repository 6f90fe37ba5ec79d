package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"tokenpulse/internal/domain"
	"tokenpulse/internal/storage"
)

func day(year int, month time.Month, d int) int64 {
	return domain.DayStart(time.Date(year, month, d, 12, 0, 0, 0, time.UTC))
}

func TestSnapshotStore_InsertAndGetByTokenAndDate(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	snap := &domain.TokenSnapshot{
		TokenExternalID:   1,
		SnapshotDate:      day(2024, 3, 15),
		Rank:              1,
		MarketCap:         1.2e12,
		Price:             61000,
		CirculatingSupply: 19.6e6,
		Volume24h:         3.1e10,
	}

	if err := store.Insert(ctx, snap); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	result, err := store.GetByTokenAndDate(ctx, 1, day(2024, 3, 15))
	if err != nil {
		t.Fatalf("GetByTokenAndDate failed: %v", err)
	}
	if result.Rank != 1 {
		t.Errorf("Rank mismatch: got %d, want 1", result.Rank)
	}
	if result.CreatedAt == 0 {
		t.Error("CreatedAt should default to now")
	}
}

func TestSnapshotStore_DuplicateDay(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	snap := &domain.TokenSnapshot{TokenExternalID: 1, SnapshotDate: day(2024, 3, 15), Rank: 1}
	if err := store.Insert(ctx, snap); err != nil {
		t.Fatalf("first Insert failed: %v", err)
	}

	dup := &domain.TokenSnapshot{TokenExternalID: 1, SnapshotDate: day(2024, 3, 15), Rank: 2}
	if err := store.Insert(ctx, dup); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	// First write wins; the duplicate must not overwrite.
	result, err := store.GetByTokenAndDate(ctx, 1, day(2024, 3, 15))
	if err != nil {
		t.Fatalf("GetByTokenAndDate failed: %v", err)
	}
	if result.Rank != 1 {
		t.Errorf("existing snapshot was modified: got rank %d, want 1", result.Rank)
	}
}

func TestSnapshotStore_SameDayDifferentTokens(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	d := day(2024, 3, 15)
	if err := store.Insert(ctx, &domain.TokenSnapshot{TokenExternalID: 1, SnapshotDate: d}); err != nil {
		t.Fatalf("Insert token 1 failed: %v", err)
	}
	if err := store.Insert(ctx, &domain.TokenSnapshot{TokenExternalID: 2, SnapshotDate: d}); err != nil {
		t.Fatalf("Insert token 2 failed: %v", err)
	}

	count, err := store.CountForDate(ctx, d)
	if err != nil {
		t.Fatalf("CountForDate failed: %v", err)
	}
	if count != 2 {
		t.Errorf("CountForDate mismatch: got %d, want 2", count)
	}
}

func TestSnapshotStore_GetByTokenRange(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	days := []int64{day(2024, 3, 14), day(2024, 3, 15), day(2024, 3, 16)}
	// Insert out of order to exercise sorting.
	for _, d := range []int64{days[2], days[0], days[1]} {
		if err := store.Insert(ctx, &domain.TokenSnapshot{TokenExternalID: 1, SnapshotDate: d}); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}
	if err := store.Insert(ctx, &domain.TokenSnapshot{TokenExternalID: 2, SnapshotDate: days[1]}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	result, err := store.GetByTokenRange(ctx, 1, days[0], days[1])
	if err != nil {
		t.Fatalf("GetByTokenRange failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("range length mismatch: got %d, want 2", len(result))
	}
	if result[0].SnapshotDate != days[0] || result[1].SnapshotDate != days[1] {
		t.Error("range results not ordered by snapshot_date ASC")
	}
}

func TestSnapshotStore_GetByTokenAndDate_NotFound(t *testing.T) {
	store := NewSnapshotStore()

	_, err := store.GetByTokenAndDate(context.Background(), 1, day(2024, 3, 15))
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
