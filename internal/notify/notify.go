package notify

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

// FeedCap bounds a user's feed; the oldest entries are pruned past it.
const FeedCap = 100

// DedupeWindow suppresses a near-identical notification created within it.
const DedupeWindow = 5 * time.Minute

// broadcastBatch is the InsertMany chunk size for global broadcasts.
const broadcastBatch = 500

// Store writes and prunes the notifications collection.
type Store struct {
	db *mongo.Database
}

func NewStore(db *mongo.Database) *Store {
	return &Store{db: db}
}

// dedupeFilter matches notifications that would duplicate n inside the window.
func dedupeFilter(n models.Notification, now time.Time) bson.M {
	filter := bson.M{
		"ownerId":   n.OwnerID,
		"type":      n.Type,
		"title":     n.Title,
		"createdAt": bson.M{"$gt": now.Add(-DedupeWindow)},
	}
	if n.OrderID != nil {
		filter["orderId"] = *n.OrderID
	} else {
		filter["orderId"] = bson.M{"$exists": false}
	}
	if n.ProductID != nil {
		filter["productId"] = *n.ProductID
	} else {
		filter["productId"] = bson.M{"$exists": false}
	}
	return filter
}

// Add inserts a notification unless an identical one exists within the dedupe
// window, then prunes the owner's feed to FeedCap. Returns whether a document
// was written.
func (s *Store) Add(ctx context.Context, n models.Notification) (bool, error) {
	now := time.Now()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}

	count, err := s.db.Collection("notifications").CountDocuments(ctx, dedupeFilter(n, now))
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	if _, err := s.db.Collection("notifications").InsertOne(ctx, n); err != nil {
		return false, err
	}

	return true, s.prune(ctx, n.OwnerID)
}

// prune deletes everything past the owner's FeedCap newest entries. Deletion
// is by id so entries sharing a createdAt cannot straddle the cap.
func (s *Store) prune(ctx context.Context, ownerID primitive.ObjectID) error {
	opts := options.Find().SetProjection(bson.M{"createdAt": 1})

	cursor, err := s.db.Collection("notifications").Find(ctx, bson.M{"ownerId": ownerID}, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	var feed []models.Notification
	if err := cursor.All(ctx, &feed); err != nil {
		return err
	}

	overflow := overflowIDs(feed)
	if len(overflow) == 0 {
		return nil
	}

	_, err = s.db.Collection("notifications").DeleteMany(ctx, bson.M{
		"_id": bson.M{"$in": overflow},
	})
	return err
}

// overflowIDs returns the ids of everything past the FeedCap newest entries,
// breaking createdAt ties by id. Sorts feed in place.
func overflowIDs(feed []models.Notification) []primitive.ObjectID {
	if len(feed) <= FeedCap {
		return nil
	}

	sort.Slice(feed, func(i, j int) bool {
		if !feed[i].CreatedAt.Equal(feed[j].CreatedAt) {
			return feed[i].CreatedAt.After(feed[j].CreatedAt)
		}
		return feed[i].ID.Hex() > feed[j].ID.Hex()
	})

	ids := make([]primitive.ObjectID, 0, len(feed)-FeedCap)
	for _, n := range feed[FeedCap:] {
		ids = append(ids, n.ID)
	}
	return ids
}

// AddForUsers fans a broadcast out to every listed owner with batched inserts,
// then prunes each touched feed.
func (s *Store) AddForUsers(ctx context.Context, ownerIDs []primitive.ObjectID, template models.Notification) error {
	now := time.Now()

	for start := 0; start < len(ownerIDs); start += broadcastBatch {
		end := start + broadcastBatch
		if end > len(ownerIDs) {
			end = len(ownerIDs)
		}

		docs := make([]interface{}, 0, end-start)
		for _, ownerID := range ownerIDs[start:end] {
			n := template
			n.ID = primitive.NilObjectID
			n.OwnerID = ownerID
			n.Read = false
			n.CreatedAt = now
			docs = append(docs, n)
		}

		if _, err := s.db.Collection("notifications").InsertMany(ctx, docs); err != nil {
			return err
		}
	}

	for _, ownerID := range ownerIDs {
		if err := s.prune(ctx, ownerID); err != nil {
			return err
		}
	}
	return nil
}

// RecentBroadcastExists reports whether a broadcast with the same title and
// message was delivered within the dedupe window. Redelivered broker messages
// check this before fanning out again.
func (s *Store) RecentBroadcastExists(ctx context.Context, title, message string) (bool, error) {
	count, err := s.db.Collection("notifications").CountDocuments(ctx, bson.M{
		"type":      models.NotificationAdmin,
		"title":     title,
		"message":   message,
		"createdAt": bson.M{"$gt": time.Now().Add(-DedupeWindow)},
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ForStatusChange builds the owner-facing notification for an order status
// transition. The type mirrors the status name.
func ForStatusChange(ownerID, orderID primitive.ObjectID, orderNumber, status string) models.Notification {
	return models.Notification{
		OwnerID: ownerID,
		Type:    status,
		Title:   fmt.Sprintf("Order %s %s", orderNumber, status),
		Message: statusMessage(status),
		OrderID: &orderID,
	}
}

func statusMessage(status string) string {
	switch status {
	case models.StatusProcessing:
		return "your order is being prepared"
	case models.StatusShipped:
		return "your order has been shipped"
	case models.StatusDelivered:
		return "your order has been delivered"
	case models.StatusCancelled:
		return "your order has been cancelled"
	default:
		return "your order status has changed"
	}
}

// ForOrderPlaced builds the owner-facing confirmation for a new order.
func ForOrderPlaced(ownerID, orderID primitive.ObjectID, orderNumber string) models.Notification {
	return models.Notification{
		OwnerID: ownerID,
		Type:    models.NotificationOrder,
		Title:   fmt.Sprintf("Order %s placed", orderNumber),
		Message: "we received your order and will start preparing it shortly",
		OrderID: &orderID,
	}
}

// ForAdminOrderPlaced builds the staff-facing notice about a new order.
func ForAdminOrderPlaced(staffID, orderID primitive.ObjectID, orderNumber string) models.Notification {
	return models.Notification{
		OwnerID: staffID,
		Type:    models.NotificationOrder,
		Title:   "New order placed",
		Message: fmt.Sprintf("order %s is waiting to be processed", orderNumber),
		OrderID: &orderID,
	}
}

// ForRefundRequested builds the refund notice for a cancelled prepaid order.
func ForRefundRequested(ownerID, orderID primitive.ObjectID, orderNumber string, amount float64, estimatedDays string) models.Notification {
	return models.Notification{
		OwnerID: ownerID,
		Type:    models.NotificationRefund,
		Title:   fmt.Sprintf("Refund initiated for order %s", orderNumber),
		Message: fmt.Sprintf("%.2f will be returned within %s", amount, estimatedDays),
		OrderID: &orderID,
	}
}

// ForBroadcast builds the template for an admin announcement.
func ForBroadcast(title, message string) models.Notification {
	return models.Notification{
		Type:    models.NotificationAdmin,
		Title:   title,
		Message: message,
	}
}
