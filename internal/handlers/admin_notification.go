package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/events"
	"storefront/internal/models"
)

type globalNotificationRequest struct {
	Title   string `json:"title" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// GlobalNotification enqueues an announcement for every user. The actual
// fan-out (batched inserts + socket broadcast) happens in the event consumer,
// off the request path.
func GlobalNotification(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/notifications/global"
		defer handlePanic(c, route)

		var req globalNotificationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		err := events.Append(ctx, db, models.EventGlobalBroadcast, events.GlobalBroadcast{
			Title:   strings.TrimSpace(req.Title),
			Message: strings.TrimSpace(req.Message),
		})
		if err != nil {
			log.Println("[NOTIFY] [ERROR] broadcast enqueue failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Println("[NOTIFY] [INFO] broadcast enqueued:", req.Title)
		c.JSON(http.StatusAccepted, gin.H{"message": "broadcast queued"})
	}
}
