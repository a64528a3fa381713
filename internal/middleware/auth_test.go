package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

const testSecret = "test-secret"

func signToken(t *testing.T, userID primitive.ObjectID, role string, ttl time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID.Hex(),
		"role":   role,
		"exp":    time.Now().Add(ttl).Unix(),
		"iat":    time.Now().Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestParseAccessToken(t *testing.T) {
	userID := primitive.NewObjectID()

	gotID, gotRole, err := ParseAccessToken(signToken(t, userID, models.RoleAdmin, time.Minute), testSecret)
	require.NoError(t, err)
	require.Equal(t, userID, gotID)
	require.Equal(t, models.RoleAdmin, gotRole)
}

func TestParseAccessTokenRejectsBadInput(t *testing.T) {
	userID := primitive.NewObjectID()

	t.Run("wrong secret", func(t *testing.T) {
		_, _, err := ParseAccessToken(signToken(t, userID, models.RoleUser, time.Minute), "other-secret")
		require.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		_, _, err := ParseAccessToken(signToken(t, userID, models.RoleUser, -time.Minute), testSecret)
		require.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, _, err := ParseAccessToken("not.a.token", testSecret)
		require.Error(t, err)
	})
}

func TestParseAccessTokenDefaultsRole(t *testing.T) {
	userID := primitive.NewObjectID()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID.Hex(),
		"exp":    time.Now().Add(time.Minute).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, role, err := ParseAccessToken(signed, testSecret)
	require.NoError(t, err)
	require.Equal(t, models.RoleUser, role)
}

func performRequest(handler gin.HandlerFunc, authHeader string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		c.Request.Header.Set("Authorization", authHeader)
	}
	handler(c)
	return w
}

func TestAuthGuard(t *testing.T) {
	userID := primitive.NewObjectID()

	t.Run("missing header", func(t *testing.T) {
		w := performRequest(AuthGuard(testSecret), "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		w := performRequest(AuthGuard(testSecret), "Token abc")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token passes", func(t *testing.T) {
		w := performRequest(AuthGuard(testSecret), "Bearer "+signToken(t, userID, models.RoleUser, time.Minute))
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("role gate", func(t *testing.T) {
		w := performRequest(AdminAuth(testSecret), "Bearer "+signToken(t, userID, models.RoleUser, time.Minute))
		require.Equal(t, http.StatusForbidden, w.Code)

		w = performRequest(AdminAuth(testSecret), "Bearer "+signToken(t, userID, models.RoleAdmin, time.Minute))
		require.Equal(t, http.StatusOK, w.Code)
	})
}
