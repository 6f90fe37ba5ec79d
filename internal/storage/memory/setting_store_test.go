package memory

import (
	"context"
	"testing"
)

func TestSettingStore_GetInt_AbsentReturnsDefault(t *testing.T) {
	store := NewSettingStore()

	v, err := store.GetInt(context.Background(), "top_token_scope", 1000)
	if err != nil {
		t.Fatalf("GetInt failed: %v", err)
	}
	if v != 1000 {
		t.Errorf("default mismatch: got %d, want 1000", v)
	}
}

func TestSettingStore_SetAndGetInt(t *testing.T) {
	store := NewSettingStore()
	ctx := context.Background()

	if err := store.Set(ctx, "top_token_scope", "250"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	v, err := store.GetInt(ctx, "top_token_scope", 1000)
	if err != nil {
		t.Fatalf("GetInt failed: %v", err)
	}
	if v != 250 {
		t.Errorf("value mismatch: got %d, want 250", v)
	}
}

func TestSettingStore_GetInt_NonInteger(t *testing.T) {
	store := NewSettingStore()
	ctx := context.Background()

	if err := store.Set(ctx, "top_token_scope", "many"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := store.GetInt(ctx, "top_token_scope", 1000); err == nil {
		t.Error("expected error for non-integer value")
	}
}
