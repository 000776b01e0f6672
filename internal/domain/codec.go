package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// EncodeCartState сериализует корзину в JSON-строку для хранилища.
func EncodeCartState(state CartState) (string, error) {
	data, err := json.Marshal(state.Normalize())
	if err != nil {
		return "", fmt.Errorf("encode cart state: %w", err)
	}
	return string(data), nil
}

// DecodeCartState восстанавливает корзину из JSON-строки хранилища.
// Некорректные данные возвращают ErrMalformedCartState: позиция без идентификатора,
// продавец позиции не совпадает с ключом bucket'а, дубликат в bucket'е.
// Количество выше MaxQuantity урезается; неположительное сохраняется как есть,
// потому что его допускает прямое изменение количества.
func DecodeCartState(raw string) (CartState, error) {
	if strings.TrimSpace(raw) == "" {
		return CartState{}, fmt.Errorf("%w: empty payload", ErrMalformedCartState)
	}

	var state CartState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		if errors.Is(err, ErrMalformedCartState) {
			return CartState{}, err
		}
		return CartState{}, fmt.Errorf("%w: %v", ErrMalformedCartState, err)
	}

	state = state.Normalize()
	designs, err := restoreBuckets("design", state.Designs)
	if err != nil {
		return CartState{}, err
	}
	products, err := restoreBuckets("product", state.Products)
	if err != nil {
		return CartState{}, err
	}
	return CartState{Designs: designs, Products: products}, nil
}

func restoreBuckets[T cartItem[T]](kind string, buckets map[string][]T) (map[string][]T, error) {
	for seller, bucket := range buckets {
		seen := make(map[string]struct{}, len(bucket))
		for i, item := range bucket {
			key := item.itemKey()
			if strings.TrimSpace(key) == "" {
				return nil, fmt.Errorf("%w: %s #%d of %s has no id", ErrMalformedCartState, kind, i, seller)
			}
			if item.itemSeller() != seller {
				return nil, fmt.Errorf("%w: %s %s stored under %s belongs to %q",
					ErrMalformedCartState, kind, key, seller, item.itemSeller())
			}
			if _, dup := seen[key]; dup {
				return nil, fmt.Errorf("%w: duplicate %s %s in %s", ErrMalformedCartState, kind, key, seller)
			}
			seen[key] = struct{}{}

			if item.itemQuantity() > MaxQuantity {
				bucket[i] = item.withQuantity(MaxQuantity)
			}
		}
	}
	return buckets, nil
}
