package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestSession(userID string) *session {
	return &session{
		userID: userID,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

func decodeFrame(t *testing.T, body []byte) frame {
	t.Helper()
	var f frame
	require.NoError(t, json.Unmarshal(body, &f))
	return f
}

func TestPushReachesEverySessionOfUser(t *testing.T) {
	hub := NewHub()

	first := newTestSession("user-1")
	second := newTestSession("user-1")
	other := newTestSession("user-2")
	hub.attach(first)
	hub.attach(second)
	hub.attach(other)

	hub.Push("user-1", EventUserNotification, map[string]string{"title": "hello"})

	for _, s := range []*session{first, second} {
		select {
		case body := <-s.send:
			f := decodeFrame(t, body)
			require.Equal(t, EventUserNotification, f.Event)
		default:
			t.Fatal("expected a frame for user-1 session")
		}
	}

	select {
	case <-other.send:
		t.Fatal("user-2 must not receive a push for user-1")
	default:
	}
}

func TestBroadcastReachesAllUsers(t *testing.T) {
	hub := NewHub()

	first := newTestSession("user-1")
	second := newTestSession("user-2")
	hub.attach(first)
	hub.attach(second)

	hub.Broadcast(EventAdminNotification, map[string]string{"title": "sale"})

	for _, s := range []*session{first, second} {
		select {
		case body := <-s.send:
			f := decodeFrame(t, body)
			require.Equal(t, EventAdminNotification, f.Event)
		default:
			t.Fatal("expected a broadcast frame")
		}
	}
}

func TestSlowConsumerIsDropped(t *testing.T) {
	hub := NewHub()

	s := newTestSession("user-1")
	hub.attach(s)
	require.Equal(t, 1, hub.Connected("user-1"))

	for i := 0; i < sendBuffer+1; i++ {
		hub.Push("user-1", EventUserNotification, i)
	}

	require.Equal(t, 0, hub.Connected("user-1"))
}

func TestDeliverToDisconnectedSession(t *testing.T) {
	hub := NewHub()

	s := newTestSession("user-1")
	hub.attach(s)

	// A push snapshots its targets before sending. Detach in between, the way
	// readPump does on disconnect, and deliver with the stale reference.
	hub.detach(s)
	hub.deliver(s, []byte(`{"event":"user_notification"}`))

	require.Equal(t, 0, hub.Connected("user-1"))

	select {
	case <-s.done:
	default:
		t.Fatal("detach must signal the session's writer")
	}
}

func TestDetachIsIdempotent(t *testing.T) {
	hub := NewHub()

	s := newTestSession("user-1")
	hub.attach(s)
	hub.detach(s)
	hub.detach(s)

	require.Equal(t, 0, hub.Connected("user-1"))

	// Pushing to a detached user must not panic on the closed channel.
	hub.Push("user-1", EventUserNotification, "late")
}
