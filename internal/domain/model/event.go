package model

import "time"

type EventType string

const (
	EventCartItemAdded         EventType = "cart.item_added"
	EventCartItemRemoved       EventType = "cart.item_removed"
	EventCartQuantityUpdated   EventType = "cart.quantity_updated"
	EventCartCleared           EventType = "cart.cleared"
	EventOrderPlaced           EventType = "order.placed"
	EventOrderFulfilled        EventType = "order.fulfilled"
	EventOrderReplacementAdded EventType = "order.replacement_added"
)

// Event is an analytics/audit record. Optional fields are left empty when not relevant.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	OrderID   string    `json:"order_id,omitempty"`
	ProductID string    `json:"product_id,omitempty"`
	Quantity  int       `json:"quantity,omitempty"`
	Amount    int64     `json:"amount,omitempty"`
	Method    string    `json:"method,omitempty"`
	At        time.Time `json:"at"`
}

// Key is used as the partition key by broker publishers.
func (e Event) Key() string {
	switch {
	case e.OrderID != "":
		return e.OrderID
	case e.SessionID != "":
		return e.SessionID
	}
	return string(e.Type)
}
