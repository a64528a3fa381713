package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/internal/guestcart"
	"storefront/internal/models"
)

// Guest carts live in Redis keyed by an opaque token the client carries in the
// X-Guest-Token header. Adding to an empty cart mints a token.

type addGuestCartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

func GetGuestCart(guests *guestcart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /guest-cart"
		defer handlePanic(c, route)

		token := c.GetHeader("X-Guest-Token")
		if token == "" {
			c.JSON(http.StatusOK, gin.H{"items": []models.GuestCartItem{}})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		items, err := guests.Get(ctx, token)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "guest cart unavailable")
			return
		}

		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func AddGuestCartItem(db *mongo.Database, guests *guestcart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /guest-cart/items"
		defer handlePanic(c, route)

		var req addGuestCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		productID, err := primitive.ObjectIDFromHex(req.ProductID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid productId"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var product models.Product
		err = db.Collection("products").FindOne(ctx, bson.M{
			"_id":       productID,
			"isActive":  true,
			"isDeleted": false,
		}).Decode(&product)
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		token := c.GetHeader("X-Guest-Token")
		var items []models.GuestCartItem
		if token == "" {
			token, err = guestcart.NewToken()
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "token generation failed")
				return
			}
		} else {
			items, err = guests.Get(ctx, token)
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "guest cart unavailable")
				return
			}
		}

		items = guestcart.AddItem(items, models.GuestCartItem{
			ProductID: productID.Hex(),
			Name:      product.Name,
			Price:     product.Price,
			Image:     product.Image,
			Size:      req.Size,
			Color:     req.Color,
			Quantity:  req.Quantity,
		})

		if err := guests.Save(ctx, token, items); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "guest cart unavailable")
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": token, "items": items})
	}
}

func RemoveGuestCartItem(guests *guestcart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /guest-cart/items/:productId"
		defer handlePanic(c, route)

		token := c.GetHeader("X-Guest-Token")
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing guest token"})
			return
		}

		productID := c.Param("productId")
		size := c.Query("size")
		color := c.Query("color")

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		items, err := guests.Get(ctx, token)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "guest cart unavailable")
			return
		}

		kept := make([]models.GuestCartItem, 0, len(items))
		removed := false
		for _, item := range items {
			if item.ProductID == productID && item.Size == size && item.Color == color {
				removed = true
				continue
			}
			kept = append(kept, item)
		}
		if !removed {
			c.JSON(http.StatusNotFound, gin.H{"error": "cart item not found"})
			return
		}

		if err := guests.Save(ctx, token, kept); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "guest cart unavailable")
			return
		}

		c.JSON(http.StatusOK, gin.H{"items": kept})
	}
}

func ClearGuestCart(guests *guestcart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /guest-cart"
		defer handlePanic(c, route)

		token := c.GetHeader("X-Guest-Token")
		if token == "" {
			c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := guests.Delete(ctx, token); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "guest cart unavailable")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
	}
}
