package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

// Exchange is the fanout exchange every outbox event is published to.
const Exchange = "storefront.events"

const (
	pollInterval = 2 * time.Second
	pollBatch    = 100
)

// Envelope is the wire frame: the event kind plus its JSON payload.
type Envelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// Dispatcher drains unpublished outbox events onto the broker. Delivery is
// at-least-once; consumers absorb redelivery via the notification dedupe.
type Dispatcher struct {
	db *mongo.Database
	ch *amqp091.Channel
}

func NewDispatcher(db *mongo.Database, ch *amqp091.Channel) *Dispatcher {
	return &Dispatcher{db: db, ch: ch}
}

// Run polls until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.drain(ctx); err != nil {
				log.Println("[OUTBOX] [ERROR] drain failed:", err)
			}
		}
	}
}

func (d *Dispatcher) drain(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetLimit(pollBatch)

	cursor, err := d.db.Collection("outbox").Find(opCtx, bson.M{"published": false}, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(opCtx)

	var pending []models.OutboxEvent
	if err := cursor.All(opCtx, &pending); err != nil {
		return err
	}

	for _, event := range pending {
		if err := d.publish(opCtx, event); err != nil {
			return err
		}

		now := time.Now()
		_, err := d.db.Collection("outbox").UpdateByID(opCtx, event.ID, bson.M{
			"$set": bson.M{"published": true, "publishedAt": now},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) publish(ctx context.Context, event models.OutboxEvent) error {
	var payload bson.M
	if err := bson.Unmarshal(event.Payload, &payload); err != nil {
		return err
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	body, err := json.Marshal(Envelope{Kind: event.Kind, Payload: payloadJSON})
	if err != nil {
		return err
	}

	return d.ch.PublishWithContext(ctx, Exchange, "", false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Body:         body,
	})
}
