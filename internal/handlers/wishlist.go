package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

type addWishlistItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

func GetWishlist(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /wishlist"
		defer handlePanic(c, route)

		ownerID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var wishlist models.Wishlist
		err := db.Collection("wishlists").FindOne(ctx, bson.M{"ownerId": ownerID}).Decode(&wishlist)
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusOK, gin.H{"items": []models.WishlistItem{}})
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if wishlist.Items == nil {
			wishlist.Items = []models.WishlistItem{}
		}

		c.JSON(http.StatusOK, gin.H{"items": wishlist.Items})
	}
}

// AddWishlistItem is idempotent per product.
func AddWishlistItem(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /wishlist/items"
		defer handlePanic(c, route)

		ownerID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req addWishlistItemRequest
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

		item := models.WishlistItem{
			ProductID: productID,
			Name:      product.Name,
			Price:     product.Price,
			Image:     product.Image,
			AddedAt:   time.Now(),
		}

		// $ne guard keeps the add idempotent without a read first.
		_, err = db.Collection("wishlists").UpdateOne(ctx, bson.M{
			"ownerId":         ownerID,
			"items.productId": bson.M{"$ne": productID},
		}, bson.M{
			"$push":        bson.M{"items": item},
			"$set":         bson.M{"updatedAt": time.Now()},
			"$setOnInsert": bson.M{"ownerId": ownerID},
		}, options.Update().SetUpsert(true))
		if err != nil && !mongo.IsDuplicateKeyError(err) {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "added to wishlist"})
	}
}

func RemoveWishlistItem(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /wishlist/items/:productId"
		defer handlePanic(c, route)

		ownerID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid productId"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		result, err := db.Collection("wishlists").UpdateOne(ctx, bson.M{
			"ownerId":         ownerID,
			"items.productId": productID,
		}, bson.M{
			"$pull": bson.M{"items": bson.M{"productId": productID}},
			"$set":  bson.M{"updatedAt": time.Now()},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if result.MatchedCount == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "wishlist item not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "removed from wishlist"})
	}
}

// MoveWishlistItemToCart adds the product to the cart with quantity 1 and
// removes it from the wishlist.
func MoveWishlistItemToCart(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /wishlist/items/:productId/move-to-cart"
		defer handlePanic(c, route)

		ownerID, ok := currentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid productId"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var wishlist models.Wishlist
		err = db.Collection("wishlists").FindOne(ctx, bson.M{
			"ownerId":         ownerID,
			"items.productId": productID,
		}).Decode(&wishlist)
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "wishlist item not found"})
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

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
			if item.ProductID == productID && item.Size == "" && item.Color == "" {
				item.Quantity++
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
				Quantity:  1,
			})
		}

		if err := saveCart(ctx, db, ownerID, cart.Items); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		_, err = db.Collection("wishlists").UpdateOne(ctx, bson.M{"ownerId": ownerID}, bson.M{
			"$pull": bson.M{"items": bson.M{"productId": productID}},
			"$set":  bson.M{"updatedAt": time.Now()},
		})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"items": cart.Items})
	}
}
