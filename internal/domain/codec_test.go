package domain_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
)

func TestEncodeDecodeCartState_RoundTrip(t *testing.T) {
	item := design("W1", "D1", 2)
	item.Attributes = map[string]json.RawMessage{
		"title":    json.RawMessage(`"Walnut shelf"`),
		"finish":   json.RawMessage(`{"color":"dark","oil":true}`),
		"priceVnd": json.RawMessage(`450000`),
	}

	state := domain.NewCartState()
	state, _ = state.AddDesign(item)
	state, _ = state.AddDesign(design("W2", "D5", 1))
	state, _ = state.AddProduct(product("W1", "P1", 3))

	raw, err := domain.EncodeCartState(state)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	restored, err := domain.DecodeCartState(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !restored.Equal(state) {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", state, restored)
	}
}

func TestEncodeCartState_Shape(t *testing.T) {
	state, _ := domain.NewCartState().AddProduct(product("W1", "P1", 2))

	raw, err := domain.EncodeCartState(state)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var decoded map[string]map[string][]map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		t.Fatalf("stored value is not a json object: %v", err)
	}
	if len(decoded["designs"]) != 0 {
		t.Fatalf("expected empty designs, got %v", decoded["designs"])
	}
	entry := decoded["products"]["W1"][0]
	if entry["productId"] != "P1" || entry["woodworkerId"] != "W1" || entry["quantity"] != float64(2) {
		t.Fatalf("unexpected product entry: %v", entry)
	}
}

func TestDecodeCartState_DropsEmptyBuckets(t *testing.T) {
	state, err := domain.DecodeCartState(`{"designs":{"W1":[]},"products":{"W2":[{"productId":"P1","woodworkerId":"W2","quantity":1}]}}`)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if _, ok := state.Designs["W1"]; ok {
		t.Fatal("empty bucket must be dropped on restore")
	}
	if state.ItemCount() != 1 {
		t.Fatalf("expected count 1, got %d", state.ItemCount())
	}
}

func TestDecodeCartState_MissingMaps(t *testing.T) {
	state, err := domain.DecodeCartState(`{}`)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if state.Designs == nil || state.Products == nil {
		t.Fatal("decoded maps must be initialized")
	}
	if !state.IsEmpty() {
		t.Fatal("expected empty cart")
	}
}

func TestDecodeCartState_Malformed(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"not json",
		`{"designs":[]}`,
		`{"products":{"W1":[{"productId":"P1","quantity":"two"}]}}`,
		`{"products":{"W1":[42]}}`,
	}

	for _, raw := range cases {
		if _, err := domain.DecodeCartState(raw); !errors.Is(err, domain.ErrMalformedCartState) {
			t.Fatalf("expected ErrMalformedCartState for %q, got %v", raw, err)
		}
	}
}

func TestDecodeCartState_ClampsStoredQuantityAboveMax(t *testing.T) {
	state, err := domain.DecodeCartState(`{"designs":{"W1":[{"designIdeaVariantId":"D1","woodworkerId":"W1","quantity":9}]},"products":{}}`)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got := state.Designs["W1"][0].Quantity; got != domain.MaxQuantity {
		t.Fatalf("expected quantity %d, got %d", domain.MaxQuantity, got)
	}
}

func TestDecodeCartState_KeepsNonPositiveQuantity(t *testing.T) {
	// Изменение количества не ограничено снизу, такое значение восстанавливается как было.
	state, err := domain.DecodeCartState(`{"designs":{},"products":{"W1":[{"productId":"P1","woodworkerId":"W1","quantity":0}]}}`)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got := state.Products["W1"][0].Quantity; got != 0 {
		t.Fatalf("expected quantity 0, got %d", got)
	}
}

func TestDecodeCartState_RejectsInconsistentItems(t *testing.T) {
	cases := map[string]string{
		"seller mismatch":     `{"products":{"W1":[{"productId":"P1","woodworkerId":"W2","quantity":1}]}}`,
		"missing seller":      `{"designs":{"W1":[{"designIdeaVariantId":"D1","quantity":1}]}}`,
		"missing item id":     `{"products":{"W1":[{"woodworkerId":"W1","quantity":1}]}}`,
		"duplicate in bucket": `{"products":{"W1":[{"productId":"P1","woodworkerId":"W1","quantity":1},{"productId":"P1","woodworkerId":"W1","quantity":2}]}}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := domain.DecodeCartState(raw); !errors.Is(err, domain.ErrMalformedCartState) {
				t.Fatalf("expected ErrMalformedCartState, got %v", err)
			}
		})
	}
}
