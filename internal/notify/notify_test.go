package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

func TestForStatusChangeMirrorsStatus(t *testing.T) {
	ownerID := primitive.NewObjectID()
	orderID := primitive.NewObjectID()

	for _, status := range []string{
		models.StatusProcessing,
		models.StatusShipped,
		models.StatusDelivered,
		models.StatusCancelled,
	} {
		n := ForStatusChange(ownerID, orderID, "ORD-1-AB", status)
		require.Equal(t, status, n.Type)
		require.Equal(t, ownerID, n.OwnerID)
		require.NotNil(t, n.OrderID)
		require.Equal(t, orderID, *n.OrderID)
		require.Contains(t, n.Title, "ORD-1-AB")
		require.NotEmpty(t, n.Message)
	}
}

func TestStatusMessageFallback(t *testing.T) {
	require.Equal(t, "your order status has changed", statusMessage("something-new"))
	require.NotEqual(t, statusMessage(models.StatusShipped), statusMessage(models.StatusDelivered))
}

func TestForOrderPlaced(t *testing.T) {
	ownerID := primitive.NewObjectID()
	orderID := primitive.NewObjectID()

	n := ForOrderPlaced(ownerID, orderID, "ORD-2-CD")
	require.Equal(t, models.NotificationOrder, n.Type)
	require.Contains(t, n.Title, "ORD-2-CD")

	staff := ForAdminOrderPlaced(primitive.NewObjectID(), orderID, "ORD-2-CD")
	require.Equal(t, models.NotificationOrder, staff.Type)
	require.Contains(t, staff.Message, "ORD-2-CD")
	require.NotEqual(t, n.OwnerID, staff.OwnerID)
}

func TestForRefundRequested(t *testing.T) {
	n := ForRefundRequested(primitive.NewObjectID(), primitive.NewObjectID(), "ORD-3-EF", 104.80, "3-5 business days")
	require.Equal(t, models.NotificationRefund, n.Type)
	require.Contains(t, n.Message, "104.80")
	require.Contains(t, n.Message, "3-5 business days")
}

func TestDedupeFilterDistinguishesTargets(t *testing.T) {
	ownerID := primitive.NewObjectID()
	orderID := primitive.NewObjectID()
	now := time.Now()

	withOrder := dedupeFilter(models.Notification{
		OwnerID: ownerID,
		Type:    models.StatusShipped,
		Title:   "Order ORD-4 shipped",
		OrderID: &orderID,
	}, now)
	require.Equal(t, orderID, withOrder["orderId"])

	withoutOrder := dedupeFilter(models.Notification{
		OwnerID: ownerID,
		Type:    models.NotificationAdmin,
		Title:   "Maintenance window",
	}, now)
	require.NotEqual(t, withOrder["orderId"], withoutOrder["orderId"])
}

func TestOverflowIDsKeepsNewestHundred(t *testing.T) {
	now := time.Now()

	feed := make([]models.Notification, 0, FeedCap+5)
	oldest := make([]primitive.ObjectID, 0, 5)
	for i := 0; i < FeedCap+5; i++ {
		n := models.Notification{
			ID:        primitive.NewObjectID(),
			CreatedAt: now.Add(time.Duration(i) * time.Millisecond),
		}
		if i < 5 {
			oldest = append(oldest, n.ID)
		}
		feed = append(feed, n)
	}

	overflow := overflowIDs(feed)
	require.Len(t, overflow, 5)
	require.ElementsMatch(t, oldest, overflow)
}

func TestOverflowIDsBreaksCreatedAtTies(t *testing.T) {
	// Every entry shares one timestamp; the id tie-break must still trim the
	// feed to exactly FeedCap.
	now := time.Now()

	feed := make([]models.Notification, 0, FeedCap+3)
	for i := 0; i < FeedCap+3; i++ {
		feed = append(feed, models.Notification{ID: primitive.NewObjectID(), CreatedAt: now})
	}

	overflow := overflowIDs(feed)
	require.Len(t, overflow, 3)

	kept := make(map[primitive.ObjectID]bool, len(feed))
	for _, n := range feed {
		kept[n.ID] = true
	}
	for _, id := range overflow {
		delete(kept, id)
	}
	require.Len(t, kept, FeedCap)
}

func TestOverflowIDsUnderCap(t *testing.T) {
	feed := make([]models.Notification, 0, FeedCap)
	for i := 0; i < FeedCap; i++ {
		feed = append(feed, models.Notification{ID: primitive.NewObjectID(), CreatedAt: time.Now()})
	}
	require.Nil(t, overflowIDs(feed))
}

func TestForBroadcastHasNoOwner(t *testing.T) {
	n := ForBroadcast("Sale starts", "everything 20% off")
	require.Equal(t, models.NotificationAdmin, n.Type)
	require.True(t, n.OwnerID.IsZero())
	require.Nil(t, n.OrderID)
}
