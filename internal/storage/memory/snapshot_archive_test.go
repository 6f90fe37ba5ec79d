package memory

import (
	"context"
	"testing"

	"tokenpulse/internal/domain"
)

func TestSnapshotArchive_InsertBatchAndGetByToken(t *testing.T) {
	archive := NewSnapshotArchive()
	ctx := context.Background()

	batch := []*domain.TokenSnapshot{
		{TokenExternalID: 1, SnapshotDate: 200, Rank: 2},
		{TokenExternalID: 1, SnapshotDate: 100, Rank: 1},
		{TokenExternalID: 2, SnapshotDate: 100, Rank: 3},
	}

	if err := archive.InsertBatch(ctx, batch); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	result, err := archive.GetByToken(ctx, 1)
	if err != nil {
		t.Fatalf("GetByToken failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("length mismatch: got %d, want 2", len(result))
	}
	if result[0].SnapshotDate != 100 || result[1].SnapshotDate != 200 {
		t.Error("results not ordered by snapshot_date ASC")
	}
}

func TestSnapshotArchive_EmptyBatch(t *testing.T) {
	archive := NewSnapshotArchive()

	if err := archive.InsertBatch(context.Background(), nil); err != nil {
		t.Fatalf("InsertBatch of empty batch failed: %v", err)
	}
}
