package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeOrderPlaced     = "ORDER_PLACED"
	EventTypeContactReceived = "CONTACT_RECEIVED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent is published after a checkout commits. Consumers use
// it for confirmation side channels; the checkout itself never depends
// on delivery.
type OrderPlacedEvent struct {
	BaseEvent
	OrderID   int64           `json:"order_id"`
	UserID    int64           `json:"user_id"`
	Email     string          `json:"email"`
	FullName  string          `json:"full_name"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
	Items     []OrderItemData `json:"items"`
}

// ContactReceivedEvent is published when a contact message is stored
type ContactReceivedEvent struct {
	BaseEvent
	ContactID int64  `json:"contact_id"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`
}

// OrderItemData represents line item data in events
type OrderItemData struct {
	ProductName string          `json:"product_name"`
	Size        string          `json:"size"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}
