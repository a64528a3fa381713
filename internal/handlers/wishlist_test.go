package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestRemoveWishlistItem(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("product not on wishlist returns 404", func(mt *mtest.T) {
		mt.AddMockResponses(updateResult(0, 0))

		w := runAuthed(RemoveWishlistItem(mt.DB), http.MethodDelete,
			gin.Params{{Key: "productId", Value: primitive.NewObjectID().Hex()}})
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	mt.Run("listed product removed", func(mt *mtest.T) {
		mt.AddMockResponses(updateResult(1, 1))

		w := runAuthed(RemoveWishlistItem(mt.DB), http.MethodDelete,
			gin.Params{{Key: "productId", Value: primitive.NewObjectID().Hex()}})
		require.Equal(t, http.StatusOK, w.Code)
	})

	mt.Run("invalid product id rejected", func(mt *mtest.T) {
		w := runAuthed(RemoveWishlistItem(mt.DB), http.MethodDelete,
			gin.Params{{Key: "productId", Value: "not-hex"}})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}
