package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types
const (
	NotificationOrderReceived  = "ORDER_RECEIVED"
	NotificationOrderUpdate    = "ORDER_UPDATE"
	NotificationOrderConfirmed = "ORDER_CONFIRMED"
	NotificationOrderRejected  = "ORDER_REJECTED"
)

func ValidNotificationType(t string) bool {
	switch t {
	case NotificationOrderReceived, NotificationOrderUpdate, NotificationOrderConfirmed, NotificationOrderRejected:
		return true
	}
	return false
}

// Targets of a notification's order reference
const (
	RefOrder    = "Order"
	RefPurchase = "Purchase"
)

// OrderRef points at a draft Order or a confirmed Purchase
type OrderRef struct {
	RefType string             `bson:"ref_type" json:"ref_type"`
	ID      primitive.ObjectID `bson:"id" json:"id"`
}

// Notification is a directed order event between two businesses
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Initiator primitive.ObjectID `bson:"initiator" json:"initiator"`
	Recipient primitive.ObjectID `bson:"recipient" json:"recipient"`
	Order     *OrderRef          `bson:"order" json:"order"`
	Type      string             `bson:"type" json:"type"`
	IsRead    bool               `bson:"is_read" json:"is_read"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

func (n *Notification) IsParticipant(id primitive.ObjectID) bool {
	return n.Initiator == id || n.Recipient == id
}

// Swap exchanges initiator and recipient
func (n *Notification) Swap() {
	n.Initiator, n.Recipient = n.Recipient, n.Initiator
}

// NotificationView carries populated parties
type NotificationView struct {
	Notification
	InitiatorDetails *BusinessSummary `json:"initiator_details,omitempty"`
	RecipientDetails *BusinessSummary `json:"recipient_details,omitempty"`
}

type CreateNotificationRequest struct {
	Recipient string `json:"recipient" binding:"required,objectid"`
	OrderID   string `json:"order_id" binding:"required,objectid"`
	Type      string `json:"type" binding:"required"`
}

// List filters accepted by GET /notifications
const (
	FilterIncoming  = "incoming"
	FilterOutgoing  = "outgoing"
	FilterPurchases = "purchases"
	FilterPending   = "pending"
	FilterUnread    = "unread"
)
