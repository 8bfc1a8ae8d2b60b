package models

import "time"

// Event types
const (
	EventTypeClientQueued        = "CLIENT_QUEUED"
	EventTypeSettlementSucceeded = "SETTLEMENT_SUCCEEDED"
	EventTypeSettlementFailed    = "SETTLEMENT_FAILED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientQueuedEvent published when a client is assigned to a checkout queue
type ClientQueuedEvent struct {
	BaseEvent
	ShopID     int64 `json:"shop_id"`
	ClientID   int64 `json:"client_id"`
	CheckoutID int64 `json:"checkout_id"`
	Position   int   `json:"position"`
}

// SettlementSucceededEvent published when a client's cart is charged
type SettlementSucceededEvent struct {
	BaseEvent
	ShopID     int64      `json:"shop_id"`
	ClientID   int64      `json:"client_id"`
	CheckoutID int64      `json:"checkout_id"`
	ReceiptID  string     `json:"receipt_id"`
	Total      float64    `json:"total"`
	Lines      []CartLine `json:"lines"`
}

// SettlementFailedEvent published when a client cannot cover the cart total
type SettlementFailedEvent struct {
	BaseEvent
	ShopID   int64   `json:"shop_id"`
	ClientID int64   `json:"client_id"`
	Required float64 `json:"required"`
	Balance  float64 `json:"balance"`
	Reason   string  `json:"reason"`
}
