package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
	"github.com/vladislavdragonenkov/cartstore/internal/storage/memory"
)

func TestStateStore_SetGet(t *testing.T) {
	store := memory.NewStateStore()
	ctx := context.Background()

	if err := store.Set(ctx, domain.CartKey, `{"designs":{},"products":{}}`); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	value, err := store.Get(ctx, domain.CartKey)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if value != `{"designs":{},"products":{}}` {
		t.Fatalf("unexpected value %q", value)
	}
	if store.Writes() != 1 {
		t.Fatalf("expected 1 write, got %d", store.Writes())
	}
}

func TestStateStore_Overwrite(t *testing.T) {
	store := memory.NewStateStore()
	ctx := context.Background()

	_ = store.Set(ctx, "cart", "first")
	_ = store.Set(ctx, "cart", "second")

	value, err := store.Get(ctx, "cart")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if value != "second" {
		t.Fatalf("expected last write to win, got %q", value)
	}
}

func TestStateStore_GetMissing(t *testing.T) {
	store := memory.NewStateStore()

	if _, err := store.Get(context.Background(), "cart"); !errors.Is(err, domain.ErrStateKeyNotFound) {
		t.Fatalf("expected ErrStateKeyNotFound, got %v", err)
	}
}

func TestStateStore_EmptyKey(t *testing.T) {
	store := memory.NewStateStore()
	ctx := context.Background()

	if err := store.Set(ctx, " ", "x"); !errors.Is(err, domain.ErrStateKeyRequired) {
		t.Fatalf("expected ErrStateKeyRequired, got %v", err)
	}
	if _, err := store.Get(ctx, ""); !errors.Is(err, domain.ErrStateKeyRequired) {
		t.Fatalf("expected ErrStateKeyRequired, got %v", err)
	}
}

func TestStateStore_CanceledContext(t *testing.T) {
	store := memory.NewStateStoreWithValues(map[string]string{"cart": "{}"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Get(ctx, "cart"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := store.Ping(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled from ping, got %v", err)
	}
}
