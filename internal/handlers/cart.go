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

	"storefront/internal/guestcart"
	"storefront/internal/models"
)

type addCartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required,gte=0"`
}

// loadCart returns the user's cart, or an empty one if none exists yet.
func loadCart(ctx context.Context, db *mongo.Database, ownerID primitive.ObjectID) (models.Cart, error) {
	var cart models.Cart
	err := db.Collection("carts").FindOne(ctx, bson.M{"ownerId": ownerID}).Decode(&cart)
	if err == mongo.ErrNoDocuments {
		return models.Cart{OwnerID: ownerID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return models.Cart{}, err
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return cart, nil
}

func saveCart(ctx context.Context, db *mongo.Database, ownerID primitive.ObjectID, items []models.CartItem) error {
	_, err := db.Collection("carts").UpdateOne(ctx, bson.M{"ownerId": ownerID}, bson.M{
		"$set": bson.M{
			"items":     items,
			"updatedAt": time.Now(),
		},
		"$setOnInsert": bson.M{"ownerId": ownerID},
	}, options.Update().SetUpsert(true))
	return err
}

func GetCart(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /cart"
		defer handlePanic(c, route)

		ownerID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart, err := loadCart(ctx, db, ownerID)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, cart)
	}
}

// AddCartItem snapshots the product server side. Client-supplied names and
// prices are never trusted for cart lines.
func AddCartItem(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /cart/items"
		defer handlePanic(c, route)

		ownerID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req addCartItemRequest
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

		cart, err := loadCart(ctx, db, ownerID)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		merged := false
		for i := range cart.Items {
			item := &cart.Items[i]
			if item.ProductID == productID && item.Size == req.Size && item.Color == req.Color {
				item.Quantity += req.Quantity
				merged = true
				break
			}
		}
		if !merged {
			lineID, err := newEntityID()
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "line id generation failed")
				return
			}
			cart.Items = append(cart.Items, models.CartItem{
				ID:        lineID,
				ProductID: productID,
				Name:      product.Name,
				Price:     product.Price,
				Image:     product.Image,
				Size:      req.Size,
				Color:     req.Color,
				Quantity:  req.Quantity,
			})
		}

		if err := saveCart(ctx, db, ownerID, cart.Items); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"items": cart.Items})
	}
}

// UpdateCartItem sets a line's quantity. Zero removes the line.
func UpdateCartItem(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /cart/items/:itemId"
		defer handlePanic(c, route)

		ownerID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req updateCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		itemID := c.Param("itemId")

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart, err := loadCart(ctx, db, ownerID)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		found := false
		items := make([]models.CartItem, 0, len(cart.Items))
		for _, item := range cart.Items {
			if item.ID != itemID {
				items = append(items, item)
				continue
			}
			found = true
			if *req.Quantity == 0 {
				continue
			}
			item.Quantity = *req.Quantity
			items = append(items, item)
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "cart item not found"})
			return
		}

		if err := saveCart(ctx, db, ownerID, items); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func RemoveCartItem(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart/items/:itemId"
		defer handlePanic(c, route)

		ownerID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		itemID := c.Param("itemId")

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		// Matching on the line makes MatchedCount distinguish "line absent"
		// from "line removed"; the $set alone would always modify.
		result, err := db.Collection("carts").UpdateOne(ctx, bson.M{
			"ownerId":  ownerID,
			"items.id": itemID,
		}, bson.M{
			"$pull": bson.M{"items": bson.M{"id": itemID}},
			"$set":  bson.M{"updatedAt": time.Now()},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if result.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "cart item not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "item removed"})
	}
}

func ClearCart(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart"
		defer handlePanic(c, route)

		ownerID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := saveCart(ctx, db, ownerID, []models.CartItem{}); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
	}
}

// MergeGuestCart folds a guest cart into the authenticated user's cart in one
// write, then deletes the guest copy. Merging the same token twice has no
// further effect.
func MergeGuestCart(db *mongo.Database, guests *guestcart.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /cart/merge"
		defer handlePanic(c, route)

		ownerID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		token := c.GetHeader("X-Guest-Token")
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing guest token"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		guestItems, err := guests.Get(ctx, token)
		if err != nil {
			log.Println("[CART] [ERROR] guest cart fetch failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "guest cart unavailable")
			return
		}

		cart, err := loadCart(ctx, db, ownerID)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		merged := guestcart.MergeItems(cart.Items, guestItems)
		for i := range merged {
			if merged[i].ID != "" {
				continue
			}
			lineID, err := newEntityID()
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "line id generation failed")
				return
			}
			merged[i].ID = lineID
		}

		if err := saveCart(ctx, db, ownerID, merged); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if err := guests.Delete(ctx, token); err != nil {
			log.Println("[CART] [WARN] guest cart cleanup failed:", err)
		}

		c.JSON(http.StatusOK, gin.H{"items": merged})
	}
}
