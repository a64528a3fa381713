package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

// runAuthed executes a handler against a test context carrying an
// authenticated user.
func runAuthed(handler gin.HandlerFunc, method string, params gin.Params) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, "/", nil)
	c.Params = params
	c.Set("userId", primitive.NewObjectID())
	handler(c)
	return w
}

func updateResult(matched, modified int32) bson.D {
	return mtest.CreateSuccessResponse(
		bson.E{Key: "n", Value: matched},
		bson.E{Key: "nModified", Value: modified},
	)
}

func TestRemoveCartItem(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("missing line returns 404", func(mt *mtest.T) {
		mt.AddMockResponses(updateResult(0, 0))

		w := runAuthed(RemoveCartItem(mt.DB), http.MethodDelete,
			gin.Params{{Key: "itemId", Value: "line-1"}})
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	mt.Run("existing line removed", func(mt *mtest.T) {
		mt.AddMockResponses(updateResult(1, 1))

		w := runAuthed(RemoveCartItem(mt.DB), http.MethodDelete,
			gin.Params{{Key: "itemId", Value: "line-1"}})
		require.Equal(t, http.StatusOK, w.Code)
	})
}
