package realtime

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Server-emitted event names.
const (
	EventUserNotification  = "user_notification"
	EventAdminNotification = "admin_notification"
	EventNotificationsSync = "notifications_update"
)

const (
	sendBuffer   = 16
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 45 * time.Second
)

// frame is the wire shape of every server push.
type frame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type session struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
}

// Hub tracks connected sessions per user id. Pushes are best effort: nothing
// is queued for offline users and slow consumers are disconnected; the
// persisted feed is the fallback channel.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*session]struct{}
}

func NewHub() *Hub {
	return &Hub{sessions: make(map[string]map[*session]struct{})}
}

func (h *Hub) attach(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sessions[s.userID] == nil {
		h.sessions[s.userID] = make(map[*session]struct{})
	}
	h.sessions[s.userID][s] = struct{}{}
}

func (h *Hub) detach(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.sessions[s.userID]; ok {
		if _, ok := set[s]; ok {
			delete(set, s)
			close(s.done)
			if len(set) == 0 {
				delete(h.sessions, s.userID)
			}
		}
	}
}

// Connected reports how many sessions a user currently has.
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID])
}

// Push sends an event to every session of one user.
func (h *Hub) Push(userID, event string, data interface{}) {
	body, err := json.Marshal(frame{Event: event, Data: data})
	if err != nil {
		log.Println("[WS] [ERROR] marshal push failed:", err)
		return
	}

	h.mu.RLock()
	targets := make([]*session, 0, len(h.sessions[userID]))
	for s := range h.sessions[userID] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		h.deliver(s, body)
	}
}

// Broadcast sends an event to every connected session.
func (h *Hub) Broadcast(event string, data interface{}) {
	body, err := json.Marshal(frame{Event: event, Data: data})
	if err != nil {
		log.Println("[WS] [ERROR] marshal broadcast failed:", err)
		return
	}

	h.mu.RLock()
	targets := make([]*session, 0)
	for _, set := range h.sessions {
		for s := range set {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range targets {
		h.deliver(s, body)
	}
}

// deliver drops the session instead of blocking when its buffer is full. The
// send channel is never closed; detach signals through done, so a push holding
// a stale snapshot of a just-disconnected session cannot hit a closed channel.
func (h *Hub) deliver(s *session, body []byte) {
	select {
	case <-s.done:
	case s.send <- body:
	default:
		log.Println("[WS] [ERROR] slow consumer dropped:", s.userID)
		h.detach(s)
		if s.conn != nil {
			s.conn.Close()
		}
	}
}

func (s *session) writePump(h *Hub) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			s.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeTimeout))
			return
		case body := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, body); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames; it exists to notice the close.
func (s *session) readPump(h *Hub) {
	defer func() {
		h.detach(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(1024)
	s.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}
