package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
	"storefront/internal/realtime"
)

func GetNotifications(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /notifications"
		defer handlePanic(c, route)

		ownerID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid pagination params")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		filter := bson.M{"ownerId": ownerID}

		total, err := db.Collection("notifications").CountDocuments(ctx, filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		findOptions := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip((page - 1) * limit).
			SetLimit(limit)

		cursor, err := db.Collection("notifications").Find(ctx, filter, findOptions)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		notifications := make([]models.Notification, 0, limit)
		if err := cursor.All(ctx, &notifications); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"data":  notifications,
			"page":  page,
			"limit": limit,
			"total": total,
		})
	}
}

func GetUnreadCount(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /notifications/unread-count"
		defer handlePanic(c, route)

		ownerID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		count, err := db.Collection("notifications").CountDocuments(ctx, bson.M{
			"ownerId": ownerID,
			"read":    false,
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"unread": count})
	}
}

func MarkNotificationRead(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /notifications/:id/read"
		defer handlePanic(c, route)

		ownerID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		notificationID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := db.Collection("notifications").UpdateOne(ctx, bson.M{
			"_id":     notificationID,
			"ownerId": ownerID,
		}, bson.M{
			"$set": bson.M{"read": true},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if result.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "notification read"})
	}
}

// MarkAllNotificationsRead flips the whole feed and nudges other sessions of
// the same user to refresh.
func MarkAllNotificationsRead(db *mongo.Database, hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /notifications/read-all"
		defer handlePanic(c, route)

		ownerID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := db.Collection("notifications").UpdateMany(ctx, bson.M{
			"ownerId": ownerID,
			"read":    false,
		}, bson.M{
			"$set": bson.M{"read": true},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		hub.Push(ownerID.Hex(), realtime.EventNotificationsSync, gin.H{"unread": 0})

		c.JSON(http.StatusOK, gin.H{"updated": result.ModifiedCount})
	}
}

func DeleteNotification(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /notifications/:id"
		defer handlePanic(c, route)

		ownerID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		notificationID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := db.Collection("notifications").DeleteOne(ctx, bson.M{
			"_id":     notificationID,
			"ownerId": ownerID,
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if result.DeletedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "notification deleted"})
	}
}

// ClearReadNotifications deletes everything already read.
func ClearReadNotifications(db *mongo.Database, hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /notifications/read"
		defer handlePanic(c, route)

		ownerID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := db.Collection("notifications").DeleteMany(ctx, bson.M{
			"ownerId": ownerID,
			"read":    true,
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Println("[NOTIFY] [INFO] cleared", result.DeletedCount, "read notifications for:", ownerID.Hex())
		hub.Push(ownerID.Hex(), realtime.EventNotificationsSync, gin.H{"cleared": result.DeletedCount})

		c.JSON(http.StatusOK, gin.H{"deleted": result.DeletedCount})
	}
}
