package realtime

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"storefront/internal/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades the connection and registers it under the token's user id.
// The token travels as a query parameter because browsers cannot set headers
// on websocket dials.
func ServeWS(hub *Hub, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.Query("token"))
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		userID, _, err := middleware.ParseAccessToken(token, jwtSecret)
		if err != nil {
			log.Println("[WS] [ERROR] token validation failed:", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Println("[WS] [ERROR] upgrade failed:", err)
			return
		}

		s := &session{
			userID: userID.Hex(),
			conn:   conn,
			send:   make(chan []byte, sendBuffer),
			done:   make(chan struct{}),
		}
		hub.attach(s)
		log.Println("[WS] [INFO] session registered:", s.userID)

		go s.writePump(hub)
		go s.readPump(hub)
	}
}
