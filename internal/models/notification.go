package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types. Status-change notifications mirror the order status name.
const (
	NotificationOrder      = "order"
	NotificationAdmin      = "admin"
	NotificationSystem     = "system"
	NotificationPending    = "pending"
	NotificationProcessing = "processing"
	NotificationShipped    = "shipped"
	NotificationDelivered  = "delivered"
	NotificationCancelled  = "cancelled"
	NotificationRefund     = "refund"
)

// Notification is a single entry in a user's feed. Feeds are pruned to the 100
// most recent entries per owner on insert.
type Notification struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OwnerID   primitive.ObjectID  `bson:"ownerId" json:"ownerId"`
	Type      string              `bson:"type" json:"type"`
	Title     string              `bson:"title" json:"title"`
	Message   string              `bson:"message" json:"message"`
	Read      bool                `bson:"read" json:"read"`
	OrderID   *primitive.ObjectID `bson:"orderId,omitempty" json:"orderId,omitempty"`
	ProductID *primitive.ObjectID `bson:"productId,omitempty" json:"productId,omitempty"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
}
