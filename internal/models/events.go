package models

import "time"

// Event types published to the order and catalog topics.
const (
	EventTypeOrderPlaced        = "ORDER_PLACED"
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
	EventTypeProductUpdated     = "PRODUCT_UPDATED"
	EventTypeOfferActivated     = "OFFER_ACTIVATED"
	EventTypeOfferDeactivated   = "OFFER_DEACTIVATED"
)

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderLineData is the per-item payload carried by order events.
type OrderLineData struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

// OrderPlacedEvent is published after an order commits. Stock has already
// been decremented when this event is visible.
type OrderPlacedEvent struct {
	BaseEvent
	OrderID     int64           `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	UserID      int64           `json:"user_id"`
	TotalAmount int64           `json:"total_amount"`
	Items       []OrderLineData `json:"items"`
}

// OrderStatusChangedEvent is published on admin status transitions.
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID    int64  `json:"order_id"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
}

// ProductUpdatedEvent is published on any admin product mutation, including
// deactivation and restock. Consumers treat it as a cache invalidation hint.
type ProductUpdatedEvent struct {
	BaseEvent
	ProductID int64 `json:"product_id"`
}

// OfferActivatedEvent is published when an offer becomes the active one for
// its product. PreviousOfferID is set when an older offer was swapped out.
type OfferActivatedEvent struct {
	BaseEvent
	OfferID         int64 `json:"offer_id"`
	ProductID       int64 `json:"product_id"`
	PreviousOfferID int64 `json:"previous_offer_id,omitempty"`
}

// OfferDeactivatedEvent is published when an offer is switched off.
type OfferDeactivatedEvent struct {
	BaseEvent
	OfferID   int64 `json:"offer_id"`
	ProductID int64 `json:"product_id"`
}
