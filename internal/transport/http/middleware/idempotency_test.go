package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestRequestHashDeterministic(t *testing.T) {
	hash1 := RequestHash([]byte("payload"))
	hash2 := RequestHash([]byte("payload"))
	hash3 := RequestHash([]byte("other"))

	if hash1 != hash2 {
		t.Fatal("expected deterministic hash")
	}
	if hash1 == hash3 {
		t.Fatal("expected different hash for different payload")
	}
}

func TestMemoryIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	store := NewIdempotencyStore(nil)
	hash := RequestHash([]byte(`{"from":"2024-06-03"}`))

	if _, found, err := store.Check(ctx, "payroll.post", "k1", hash); err != nil || found {
		t.Fatalf("expected unknown key, found=%v err=%v", found, err)
	}
	if err := store.Save(ctx, "payroll.post", "k1", hash, json.RawMessage(`{"ok":true}`)); err != nil {
		t.Fatalf("save: %v", err)
	}

	stored, found, err := store.Check(ctx, "payroll.post", "k1", hash)
	if err != nil || !found || string(stored) != `{"ok":true}` {
		t.Fatalf("expected stored response, got %s found=%v err=%v", stored, found, err)
	}

	if _, _, err := store.Check(ctx, "payroll.post", "k1", RequestHash([]byte("other"))); !errors.Is(err, ErrIdempotencyConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, found, _ := store.Check(ctx, "payroll.runs", "k1", hash); found {
		t.Fatal("expected keys to be scoped by endpoint")
	}
}

func TestNilIdempotencyStoreIsNoop(t *testing.T) {
	var store *IdempotencyStore
	if _, found, err := store.Check(context.Background(), "payroll.post", "k", "h"); found || err != nil {
		t.Fatalf("expected noop check, found=%v err=%v", found, err)
	}
	if err := store.Save(context.Background(), "payroll.post", "k", "h", nil); err != nil {
		t.Fatalf("expected noop save, got %v", err)
	}
}
