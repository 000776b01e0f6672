package kafka

import (
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
)

// EventType определяет тип события
type EventType string

const (
	EventTypeDesignAdded           EventType = "cart.design.added"
	EventTypeDesignRemoved         EventType = "cart.design.removed"
	EventTypeDesignQuantityChanged EventType = "cart.design.quantity_changed"
	EventTypeProductAdded          EventType = "cart.product.added"
	EventTypeProductRemoved        EventType = "cart.product.removed"
	EventTypeProductQtyChanged     EventType = "cart.product.quantity_changed"
)

// TopicCartEvents — топик ленты изменений корзины по умолчанию.
const TopicCartEvents = "cart.events"

// CartEvent — событие изменения корзины в формате брокера.
type CartEvent struct {
	ID           string    `json:"id"`
	EventType    EventType `json:"event_type"`
	Operation    string    `json:"operation"`
	WoodworkerID string    `json:"woodworker_id"`
	ItemID       string    `json:"item_id"`
	Quantity     int       `json:"quantity"`
	Clamped      bool      `json:"clamped,omitempty"`
	ItemCount    int       `json:"item_count"`
	Timestamp    time.Time `json:"timestamp"`
}

var eventTypes = map[domain.CartOperation]EventType{
	domain.CartOperationAddDesign:            EventTypeDesignAdded,
	domain.CartOperationRemoveDesign:         EventTypeDesignRemoved,
	domain.CartOperationChangeDesignQuantity: EventTypeDesignQuantityChanged,
	domain.CartOperationAddProduct:           EventTypeProductAdded,
	domain.CartOperationRemoveProduct:        EventTypeProductRemoved,
	domain.CartOperationChangeProductQty:     EventTypeProductQtyChanged,
}

// EventTypeFor возвращает тип события для операции корзины.
func EventTypeFor(operation domain.CartOperation) EventType {
	if eventType, ok := eventTypes[operation]; ok {
		return eventType
	}
	return EventType("cart." + string(operation))
}

// NewCartEvent создает событие брокера из доменного события
func NewCartEvent(event domain.CartEvent) *CartEvent {
	ts := event.OccurredAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	return &CartEvent{
		ID:           uuid.NewString(),
		EventType:    EventTypeFor(event.Operation),
		Operation:    string(event.Operation),
		WoodworkerID: event.WoodworkerID,
		ItemID:       event.ItemID,
		Quantity:     event.Quantity,
		Clamped:      event.Clamped,
		ItemCount:    event.ItemCount,
		Timestamp:    ts,
	}
}
