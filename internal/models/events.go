package models

import "time"

// Event types
const (
	EventTypeItemCreated       = "ITEM_CREATED"
	EventTypeItemDeleted       = "ITEM_DELETED"
	EventTypeStockAdjusted     = "STOCK_ADJUSTED"
	EventTypeCartUpdated       = "CART_UPDATED"
	EventTypeCheckoutCompleted = "CHECKOUT_COMPLETED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// ItemCreatedEvent published when a catalog item is added
type ItemCreatedEvent struct {
	BaseEvent
	Title string `json:"title"`
	Price int64  `json:"price"`
	Stock int    `json:"stock"`
}

// ItemDeletedEvent published when a catalog item is removed
type ItemDeletedEvent struct {
	BaseEvent
	Title string `json:"title"`
}

// StockAdjustedEvent published when stock changes outside checkout
type StockAdjustedEvent struct {
	BaseEvent
	Title string `json:"title"`
	Delta int    `json:"delta"`
	Stock int    `json:"stock"`
}

// CartUpdatedEvent published after a successful cart mutation
type CartUpdatedEvent struct {
	BaseEvent
	CartID   string `json:"cart_id"`
	Action   string `json:"action"`
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Total    int64  `json:"total"`
}

// CheckoutCompletedEvent published after a successful checkout
type CheckoutCompletedEvent struct {
	BaseEvent
	CartID string         `json:"cart_id"`
	Total  int64          `json:"total"`
	Lines  []CartLineData `json:"lines"`
}

// CartLineData represents a checked-out line in events
type CartLineData struct {
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}
