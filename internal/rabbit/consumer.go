package rabbit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/events"
	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/realtime"
)

// errBadPayload marks deliveries that can never succeed. The consume loop
// drops these; everything else is requeued.
var errBadPayload = errors.New("bad event payload")

// EventConsumer turns broker events into notification writes and websocket
// pushes. Both delivery paths hang off the same durable event, so they cannot
// diverge past one redelivery.
type EventConsumer struct {
	db    *mongo.Database
	store *notify.Store
	hub   *realtime.Hub
}

func NewEventConsumer(db *mongo.Database, store *notify.Store, hub *realtime.Hub) *EventConsumer {
	return &EventConsumer{db: db, store: store, hub: hub}
}

func (c *EventConsumer) Handle(body []byte) error {
	var envelope events.Envelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("%w: parse envelope: %v", errBadPayload, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch envelope.Kind {
	case models.EventOrderPlaced:
		var event events.OrderPlaced
		if err := json.Unmarshal(envelope.Payload, &event); err != nil {
			return fmt.Errorf("%w: %s payload: %v", errBadPayload, envelope.Kind, err)
		}
		return c.handleOrderPlaced(ctx, event)
	case models.EventOrderStatus:
		var event events.OrderStatusChanged
		if err := json.Unmarshal(envelope.Payload, &event); err != nil {
			return fmt.Errorf("%w: %s payload: %v", errBadPayload, envelope.Kind, err)
		}
		return c.handleStatusChanged(ctx, event)
	case models.EventGlobalBroadcast:
		var event events.GlobalBroadcast
		if err := json.Unmarshal(envelope.Payload, &event); err != nil {
			return fmt.Errorf("%w: %s payload: %v", errBadPayload, envelope.Kind, err)
		}
		return c.handleBroadcast(ctx, event)
	default:
		log.Println("[RABBIT] [ERROR] unknown event kind:", envelope.Kind)
		return nil
	}
}

func (c *EventConsumer) handleOrderPlaced(ctx context.Context, event events.OrderPlaced) error {
	ownerID, err := primitive.ObjectIDFromHex(event.OwnerID)
	if err != nil {
		return fmt.Errorf("%w: ownerId: %v", errBadPayload, err)
	}
	orderID, err := primitive.ObjectIDFromHex(event.OrderID)
	if err != nil {
		return fmt.Errorf("%w: orderId: %v", errBadPayload, err)
	}

	owned := notify.ForOrderPlaced(ownerID, orderID, event.OrderNumber)
	inserted, err := c.store.Add(ctx, owned)
	if err != nil {
		return err
	}
	if inserted {
		c.hub.Push(ownerID.Hex(), realtime.EventUserNotification, owned)
	}

	staffIDs, err := c.staffIDs(ctx)
	if err != nil {
		return err
	}
	for _, staffID := range staffIDs {
		n := notify.ForAdminOrderPlaced(staffID, orderID, event.OrderNumber)
		inserted, err := c.store.Add(ctx, n)
		if err != nil {
			return err
		}
		if inserted {
			c.hub.Push(staffID.Hex(), realtime.EventAdminNotification, n)
		}
	}
	return nil
}

func (c *EventConsumer) handleStatusChanged(ctx context.Context, event events.OrderStatusChanged) error {
	ownerID, err := primitive.ObjectIDFromHex(event.OwnerID)
	if err != nil {
		return fmt.Errorf("%w: ownerId: %v", errBadPayload, err)
	}
	orderID, err := primitive.ObjectIDFromHex(event.OrderID)
	if err != nil {
		return fmt.Errorf("%w: orderId: %v", errBadPayload, err)
	}

	n := notify.ForStatusChange(ownerID, orderID, event.OrderNumber, event.To)
	inserted, err := c.store.Add(ctx, n)
	if err != nil {
		return err
	}
	if inserted {
		c.hub.Push(ownerID.Hex(), realtime.EventUserNotification, n)
	}

	if event.RefundPending {
		refund := notify.ForRefundRequested(ownerID, orderID, event.OrderNumber, event.RefundAmount, event.RefundDays)
		inserted, err := c.store.Add(ctx, refund)
		if err != nil {
			return err
		}
		if inserted {
			c.hub.Push(ownerID.Hex(), realtime.EventUserNotification, refund)
		}
	}
	return nil
}

func (c *EventConsumer) handleBroadcast(ctx context.Context, event events.GlobalBroadcast) error {
	seen, err := c.store.RecentBroadcastExists(ctx, event.Title, event.Message)
	if err != nil {
		return err
	}
	if seen {
		log.Println("[RABBIT] [INFO] broadcast already delivered, skipping:", event.Title)
		return nil
	}

	cursor, err := c.db.Collection("users").Find(ctx, bson.M{}, nil)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	var ownerIDs []primitive.ObjectID
	for cursor.Next(ctx) {
		var user models.User
		if err := cursor.Decode(&user); err != nil {
			return err
		}
		ownerIDs = append(ownerIDs, user.ID)
	}
	if err := cursor.Err(); err != nil {
		return err
	}
	if len(ownerIDs) == 0 {
		return nil
	}

	template := notify.ForBroadcast(event.Title, event.Message)
	if err := c.store.AddForUsers(ctx, ownerIDs, template); err != nil {
		return err
	}

	c.hub.Broadcast(realtime.EventAdminNotification, template)
	log.Println("[RABBIT] [INFO] broadcast delivered to", len(ownerIDs), "users")
	return nil
}

func (c *EventConsumer) staffIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	cursor, err := c.db.Collection("users").Find(ctx, bson.M{
		"role": bson.M{"$in": []string{models.RoleAdmin, models.RoleSuperAdmin}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ids []primitive.ObjectID
	for cursor.Next(ctx) {
		var user models.User
		if err := cursor.Decode(&user); err != nil {
			return nil, err
		}
		ids = append(ids, user.ID)
	}
	return ids, cursor.Err()
}
