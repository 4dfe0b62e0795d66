package models

import "time"

// Order event names published after a successful commit
const (
	EventCheckedOut = "order.checked_out"
	EventDrafted    = "order.drafted"
	EventConfirmed  = "order.confirmed"
	EventRejected   = "order.rejected"
	EventCreated    = "order.created"
)

// OrderEvent is the message written to Kafka and SNS
type OrderEvent struct {
	EventID    string     `json:"event_id"`
	Event      string     `json:"event"`
	SellerID   string     `json:"seller_id"`
	BuyerID    string     `json:"buyer_id"`
	BuyerType  string     `json:"buyer_type,omitempty"`
	OrderID    string     `json:"order_id,omitempty"`
	SaleID     string     `json:"sale_id,omitempty"`
	PurchaseID string     `json:"purchase_id,omitempty"`
	Items      []LineItem `json:"items,omitempty"`
	Total      float64    `json:"total_amount"`
	Timestamp  time.Time  `json:"timestamp"`
}
