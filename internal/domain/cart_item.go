package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	fieldDesignIdeaVariantID = "designIdeaVariantId"
	fieldProductID           = "productId"
	fieldWoodworkerID        = "woodworkerId"
	fieldQuantity            = "quantity"
)

// DesignCartItem — вариант дизайна в корзине.
type DesignCartItem struct {
	// DesignIdeaVariantID уникален в пределах bucket'а продавца.
	DesignIdeaVariantID string
	// WoodworkerID дублирует ключ bucket'а и нужен для поиска.
	WoodworkerID string
	Quantity     int
	// Attributes — описательные поля (название, цена, превью и т.п.), которые корзина
	// не интерпретирует и сохраняет как есть.
	Attributes map[string]json.RawMessage
}

// ProductCartItem — готовый товар в корзине.
type ProductCartItem struct {
	ProductID    string
	WoodworkerID string
	Quantity     int
	Attributes   map[string]json.RawMessage
}

func (i DesignCartItem) itemKey() string    { return i.DesignIdeaVariantID }
func (i DesignCartItem) itemSeller() string { return i.WoodworkerID }
func (i DesignCartItem) itemQuantity() int  { return i.Quantity }

func (i DesignCartItem) withQuantity(quantity int) DesignCartItem {
	i.Quantity = quantity
	return i
}

func (i DesignCartItem) equal(other DesignCartItem) bool {
	return i.DesignIdeaVariantID == other.DesignIdeaVariantID &&
		i.WoodworkerID == other.WoodworkerID &&
		i.Quantity == other.Quantity &&
		attributesEqual(i.Attributes, other.Attributes)
}

func (i DesignCartItem) clone() DesignCartItem {
	i.Attributes = cloneAttributes(i.Attributes)
	return i
}

func (i ProductCartItem) itemKey() string    { return i.ProductID }
func (i ProductCartItem) itemSeller() string { return i.WoodworkerID }
func (i ProductCartItem) itemQuantity() int  { return i.Quantity }

func (i ProductCartItem) withQuantity(quantity int) ProductCartItem {
	i.Quantity = quantity
	return i
}

func (i ProductCartItem) equal(other ProductCartItem) bool {
	return i.ProductID == other.ProductID &&
		i.WoodworkerID == other.WoodworkerID &&
		i.Quantity == other.Quantity &&
		attributesEqual(i.Attributes, other.Attributes)
}

func (i ProductCartItem) clone() ProductCartItem {
	i.Attributes = cloneAttributes(i.Attributes)
	return i
}

// MarshalJSON раскладывает описательные атрибуты на верхний уровень объекта.
func (i DesignCartItem) MarshalJSON() ([]byte, error) {
	return marshalItem(i.Attributes, map[string]any{
		fieldDesignIdeaVariantID: i.DesignIdeaVariantID,
		fieldWoodworkerID:        i.WoodworkerID,
		fieldQuantity:            i.Quantity,
	})
}

// UnmarshalJSON собирает неизвестные поля в Attributes.
func (i *DesignCartItem) UnmarshalJSON(data []byte) error {
	fields, err := splitItem(data)
	if err != nil {
		return err
	}
	var item DesignCartItem
	if err := takeField(fields, fieldDesignIdeaVariantID, &item.DesignIdeaVariantID); err != nil {
		return err
	}
	if err := takeField(fields, fieldWoodworkerID, &item.WoodworkerID); err != nil {
		return err
	}
	if err := takeField(fields, fieldQuantity, &item.Quantity); err != nil {
		return err
	}
	if len(fields) > 0 {
		item.Attributes = fields
	}
	*i = item
	return nil
}

// MarshalJSON раскладывает описательные атрибуты на верхний уровень объекта.
func (i ProductCartItem) MarshalJSON() ([]byte, error) {
	return marshalItem(i.Attributes, map[string]any{
		fieldProductID:    i.ProductID,
		fieldWoodworkerID: i.WoodworkerID,
		fieldQuantity:     i.Quantity,
	})
}

// UnmarshalJSON собирает неизвестные поля в Attributes.
func (i *ProductCartItem) UnmarshalJSON(data []byte) error {
	fields, err := splitItem(data)
	if err != nil {
		return err
	}
	var item ProductCartItem
	if err := takeField(fields, fieldProductID, &item.ProductID); err != nil {
		return err
	}
	if err := takeField(fields, fieldWoodworkerID, &item.WoodworkerID); err != nil {
		return err
	}
	if err := takeField(fields, fieldQuantity, &item.Quantity); err != nil {
		return err
	}
	if len(fields) > 0 {
		item.Attributes = fields
	}
	*i = item
	return nil
}

func marshalItem(attributes map[string]json.RawMessage, known map[string]any) ([]byte, error) {
	out := make(map[string]any, len(attributes)+len(known))
	for k, v := range attributes {
		out[k] = v
	}
	// Известные поля всегда перекрывают одноимённые атрибуты.
	for k, v := range known {
		out[k] = v
	}
	return json.Marshal(out)
}

func splitItem(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCartState, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: cart item must be an object", ErrMalformedCartState)
	}
	return fields, nil
}

func takeField(fields map[string]json.RawMessage, name string, dst any) error {
	raw, ok := fields[name]
	if !ok {
		return nil
	}
	delete(fields, name)
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: field %s: %v", ErrMalformedCartState, name, err)
	}
	return nil
}

func cloneAttributes(attributes map[string]json.RawMessage) map[string]json.RawMessage {
	if attributes == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(attributes))
	for k, v := range attributes {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

func attributesEqual(a, b map[string]json.RawMessage) bool {
	if len(a) != len(b) {
		return false
	}
	for k, left := range a {
		right, ok := b[k]
		if !ok || !bytes.Equal(left, right) {
			return false
		}
	}
	return true
}
