package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Outbox event kinds.
const (
	EventOrderPlaced     = "order_placed"
	EventOrderStatus     = "order_status"
	EventGlobalBroadcast = "global_broadcast"
)

// OutboxEvent is written in the same transaction as the mutation it describes
// and published to the broker by the dispatcher afterwards.
type OutboxEvent struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Kind        string             `bson:"kind" json:"kind"`
	Payload     bson.Raw           `bson:"payload" json:"payload"`
	Published   bool               `bson:"published" json:"published"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	PublishedAt *time.Time         `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`
}
