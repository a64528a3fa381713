package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/events"
	"storefront/internal/models"
)

/* =========================
   REQUEST DTOs
========================= */

type orderItemRequest struct {
	ProductID string  `json:"productId" binding:"required"`
	Name      string  `json:"name" binding:"required"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity" binding:"required"`
	Image     string  `json:"image"`
	Size      string  `json:"size"`
	Color     string  `json:"color"`
}

type orderShippingRequest struct {
	Title  string `json:"title" binding:"required"`
	Detail string `json:"detail" binding:"required"`
	Note   string `json:"note"`
}

type orderPaymentRequest struct {
	Method     string `json:"method" binding:"required"`
	CardNumber string `json:"cardNumber"`
}

type orderTotalsRequest struct {
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Shipping float64 `json:"shipping"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

type createOrderRequest struct {
	Items    []orderItemRequest    `json:"items" binding:"required"`
	Shipping *orderShippingRequest `json:"shipping" binding:"required"`
	Payment  *orderPaymentRequest  `json:"payment" binding:"required"`
	Totals   *orderTotalsRequest   `json:"totals" binding:"required"`
}

/* =========================
   BUILD ORDER
========================= */

// buildOrderFromRequest validates the checkout payload and assembles the
// order document. Nothing is written when it returns an error. Totals are
// stored as supplied by the client.
func buildOrderFromRequest(req createOrderRequest) (models.Order, error) {
	if len(req.Items) == 0 {
		return models.Order{}, errors.New("at least one item is required")
	}

	if req.Payment.Method != models.PaymentPrepayment && req.Payment.Method != models.PaymentCOD {
		return models.Order{}, errors.New("invalid payment method")
	}

	if req.Totals.Total < 0 {
		return models.Order{}, errors.New("total must not be negative")
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(item.ProductID))
		if err != nil {
			return models.Order{}, errors.New("invalid productId")
		}
		if item.Quantity <= 0 {
			return models.Order{}, errors.New("quantity must be greater than zero")
		}

		items = append(items, models.OrderItem{
			ProductID: productID,
			Name:      strings.TrimSpace(item.Name),
			Price:     item.Price,
			Quantity:  item.Quantity,
			Image:     item.Image,
			Size:      item.Size,
			Color:     item.Color,
		})
	}

	payment := models.OrderPayment{
		Method: req.Payment.Method,
		Status: models.PaymentStatusPending,
	}
	if req.Payment.Method == models.PaymentPrepayment {
		payment.Status = models.PaymentStatusPaid
		payment.CardLast4 = cardLast4(req.Payment.CardNumber)
	}

	return models.Order{
		Items:    items,
		Shipping: models.OrderShipping(*req.Shipping),
		Payment:  payment,
		Totals:   models.OrderTotals(*req.Totals),
		Status:   models.StatusPending,
		Version:  1,
	}, nil
}

// cardLast4 keeps only the last four digits of a card number.
func cardLast4(number string) string {
	digits := make([]rune, 0, len(number))
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) < 4 {
		return ""
	}
	return string(digits[len(digits)-4:])
}

/* =========================
   CREATE ORDER
========================= */

func CreateOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "database unavailable")
			return
		}

		ownerID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		order, err := buildOrderFromRequest(req)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		orderNumber, err := newOrderNumber()
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "order number generation failed")
			return
		}

		now := time.Now()
		order.OwnerID = ownerID
		order.OrderNumber = orderNumber
		order.CreatedAt = now
		order.UpdatedAt = now

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		session, err := db.Client().StartSession()
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer session.EndSession(ctx)

		_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			res, err := db.Collection("orders").InsertOne(sessCtx, order)
			if err != nil {
				return nil, err
			}
			if id, ok := res.InsertedID.(primitive.ObjectID); ok {
				order.ID = id
			}

			return nil, events.Append(sessCtx, db, models.EventOrderPlaced, events.OrderPlaced{
				OrderID:     order.ID.Hex(),
				OrderNumber: order.OrderNumber,
				OwnerID:     ownerID.Hex(),
				Total:       order.Totals.Total,
			})
		})
		if err != nil {
			log.Println("[ORDER] [ERROR] create order failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Println("[ORDER] [INFO] order created:", order.OrderNumber, "for user:", ownerID.Hex())
		c.JSON(http.StatusCreated, order)
	}
}

/* =========================
   LIST / GET
========================= */

func GetMyOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders"
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

		filter := bson.M{"ownerId": ownerID}
		if status := strings.TrimSpace(c.Query("status")); status != "" {
			if !validStatuses[status] {
				respondWithError(c, http.StatusBadRequest, route, "invalid status filter")
				return
			}
			filter["status"] = status
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		total, err := db.Collection("orders").CountDocuments(ctx, filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		findOptions := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip((page - 1) * limit).
			SetLimit(limit)

		cursor, err := db.Collection("orders").Find(ctx, filter, findOptions)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		orders := make([]models.Order, 0, limit)
		if err := cursor.All(ctx, &orders); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"data":  orders,
			"page":  page,
			"limit": limit,
			"total": total,
		})
	}
}

func GetOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/:id"
		defer handlePanic(c, route)

		ownerID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		if err := db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}

		if order.OwnerID != ownerID && !models.IsStaff(currentRole(c)) {
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.JSON(http.StatusOK, order)
	}
}

/* =========================
   CANCEL
========================= */

func CancelOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /orders/:id/cancel"
		defer handlePanic(c, route)

		ownerID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		if err := db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID, "ownerId": ownerID}).Decode(&order); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}

		if order.Status == models.StatusCancelled {
			c.JSON(http.StatusOK, order)
			return
		}

		if err := canTransition(order.Status, models.StatusCancelled, false); err != nil {
			respondWithError(c, http.StatusBadRequest, route, "order cannot be cancelled at this stage")
			return
		}

		updated, err := applyStatusChange(ctx, db, order, models.StatusCancelled, ownerID)
		if err == errVersionConflict {
			respondWithError(c, http.StatusConflict, route, "order was modified concurrently")
			return
		}
		if err != nil {
			log.Println("[ORDER] [ERROR] cancel failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		log.Println("[ORDER] [INFO] order cancelled:", order.OrderNumber)
		c.JSON(http.StatusOK, updated)
	}
}

var errVersionConflict = errors.New("version conflict")

// applyStatusChange writes the transition and its outbox event in one
// transaction, guarded by the order's version.
func applyStatusChange(ctx context.Context, db *mongo.Database, order models.Order, next string, actorID primitive.ObjectID) (models.Order, error) {
	now := time.Now()

	set := bson.M{
		"status":    next,
		"updatedAt": now,
	}

	var refund *models.OrderRefund
	if next == models.StatusCancelled {
		if refund = refundFor(order, now); refund != nil {
			set["refund"] = refund
			set["payment.status"] = models.PaymentStatusRefunded
		}
	}

	event := events.OrderStatusChanged{
		OrderID:     order.ID.Hex(),
		OrderNumber: order.OrderNumber,
		OwnerID:     order.OwnerID.Hex(),
		From:        order.Status,
		To:          next,
		ActorID:     actorID.Hex(),
	}
	if refund != nil {
		event.RefundPending = true
		event.RefundAmount = refund.Amount
		event.RefundDays = refund.EstimatedDays
	}

	session, err := db.Client().StartSession()
	if err != nil {
		return models.Order{}, err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		res, err := db.Collection("orders").UpdateOne(sessCtx, bson.M{
			"_id":     order.ID,
			"version": order.Version,
		}, bson.M{
			"$set": set,
			"$inc": bson.M{"version": 1},
		})
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 0 {
			return nil, errVersionConflict
		}

		return nil, events.Append(sessCtx, db, models.EventOrderStatus, event)
	})
	if err != nil {
		return models.Order{}, err
	}

	order.Status = next
	order.Refund = refund
	order.Version++
	order.UpdatedAt = now
	if refund != nil {
		order.Payment.Status = models.PaymentStatusRefunded
	}
	return order, nil
}

/* =========================
   DELETE / CLEAR
========================= */

// DeleteOrder lets an owner remove a cancelled order from their history.
func DeleteOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /orders/:id"
		defer handlePanic(c, route)

		ownerID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		orderID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := db.Collection("orders").DeleteOne(ctx, bson.M{
			"_id":     orderID,
			"ownerId": ownerID,
			"status":  models.StatusCancelled,
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if result.DeletedCount == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "only cancelled orders can be deleted"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "order deleted"})
	}
}

// ClearCompletedOrders removes the owner's delivered and cancelled orders.
func ClearCompletedOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /orders/completed"
		defer handlePanic(c, route)

		ownerID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := db.Collection("orders").DeleteMany(ctx, bson.M{
			"ownerId": ownerID,
			"status":  bson.M{"$in": []string{models.StatusDelivered, models.StatusCancelled}},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"deleted": result.DeletedCount})
	}
}
