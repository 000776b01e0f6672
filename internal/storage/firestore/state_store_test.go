package firestore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
)

func openEmulatorStore(t *testing.T) *StateStore {
	t.Helper()

	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST is not set, skipping firestore integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := Open(ctx, "cart-test", "cart_state_"+uuid.NewString())
	if err != nil {
		t.Fatalf("open firestore: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestStateStore_NilGuards(t *testing.T) {
	var store *StateStore
	ctx := context.Background()

	if _, err := store.Get(ctx, domain.CartKey); !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if err := store.Set(ctx, domain.CartKey, "{}"); !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if err := store.Ping(ctx); !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable from ping, got %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close nil store should not fail: %v", err)
	}
}

func TestNewStateStore_DefaultCollection(t *testing.T) {
	store := NewStateStore(nil, "  ")
	if store.collection != DefaultCollection {
		t.Fatalf("expected default collection, got %q", store.collection)
	}
}

func TestOpen_RequiresProject(t *testing.T) {
	if _, err := Open(context.Background(), " ", ""); err == nil {
		t.Fatal("expected error for empty project id")
	}
}

func TestStateStore_EmulatorRoundTrip(t *testing.T) {
	store := openEmulatorStore(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if _, err := store.Get(ctx, domain.CartKey); !errors.Is(err, domain.ErrStateKeyNotFound) {
		t.Fatalf("expected ErrStateKeyNotFound, got %v", err)
	}

	state, _ := domain.NewCartState().AddProduct(domain.ProductCartItem{WoodworkerID: "W1", ProductID: "P1", Quantity: 2})
	raw, err := domain.EncodeCartState(state)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := store.Set(ctx, domain.CartKey, raw); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := store.Get(ctx, domain.CartKey)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != raw {
		t.Fatalf("expected %q, got %q", raw, got)
	}
}
