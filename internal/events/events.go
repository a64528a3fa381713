package events

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/models"
)

// Payload shapes carried through the outbox and onto the broker. Ids travel
// as hex strings so the wire format stays plain JSON.

type OrderPlaced struct {
	OrderID     string  `bson:"orderId" json:"orderId"`
	OrderNumber string  `bson:"orderNumber" json:"orderNumber"`
	OwnerID     string  `bson:"ownerId" json:"ownerId"`
	Total       float64 `bson:"total" json:"total"`
}

type OrderStatusChanged struct {
	OrderID       string  `bson:"orderId" json:"orderId"`
	OrderNumber   string  `bson:"orderNumber" json:"orderNumber"`
	OwnerID       string  `bson:"ownerId" json:"ownerId"`
	From          string  `bson:"from" json:"from"`
	To            string  `bson:"to" json:"to"`
	ActorID       string  `bson:"actorId" json:"actorId"`
	RefundAmount  float64 `bson:"refundAmount,omitempty" json:"refundAmount,omitempty"`
	RefundDays    string  `bson:"refundDays,omitempty" json:"refundDays,omitempty"`
	RefundPending bool    `bson:"refundPending,omitempty" json:"refundPending,omitempty"`
}

type GlobalBroadcast struct {
	Title   string `bson:"title" json:"title"`
	Message string `bson:"message" json:"message"`
}

// Append writes an outbox event. Callers inside a Mongo transaction pass the
// session context so the event commits with the mutation it describes.
func Append(ctx context.Context, db *mongo.Database, kind string, payload interface{}) error {
	raw, err := bson.Marshal(payload)
	if err != nil {
		return err
	}

	event := models.OutboxEvent{
		Kind:      kind,
		Payload:   bson.Raw(raw),
		Published: false,
		CreatedAt: time.Now(),
	}

	_, err = db.Collection("outbox").InsertOne(ctx, event)
	return err
}
