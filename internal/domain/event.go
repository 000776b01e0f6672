package domain

import "time"

// CartEvent описывает одно применённое изменение корзины.
type CartEvent struct {
	Operation    CartOperation
	WoodworkerID string
	ItemID       string
	Quantity     int
	Clamped      bool
	ItemCount    int
	OccurredAt   time.Time
}
