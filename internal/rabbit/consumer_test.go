package rabbit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"storefront/internal/events"
	"storefront/internal/models"
	"storefront/internal/notify"
	"storefront/internal/realtime"
)

func TestHandleClassifiesMalformedEvents(t *testing.T) {
	consumer := NewEventConsumer(nil, notify.NewStore(nil), realtime.NewHub())

	t.Run("garbage body", func(t *testing.T) {
		err := consumer.Handle([]byte("not json"))
		require.ErrorIs(t, err, errBadPayload)
	})

	t.Run("payload of the wrong shape", func(t *testing.T) {
		body, err := json.Marshal(events.Envelope{Kind: models.EventOrderStatus, Payload: []byte(`"nope"`)})
		require.NoError(t, err)
		require.ErrorIs(t, consumer.Handle(body), errBadPayload)
	})

	t.Run("unparseable owner id", func(t *testing.T) {
		payload, err := json.Marshal(events.OrderPlaced{OrderID: "xyz", OwnerID: "xyz"})
		require.NoError(t, err)
		body, err := json.Marshal(events.Envelope{Kind: models.EventOrderPlaced, Payload: payload})
		require.NoError(t, err)
		require.ErrorIs(t, consumer.Handle(body), errBadPayload)
	})

	t.Run("unknown kind is acked without error", func(t *testing.T) {
		body, err := json.Marshal(events.Envelope{Kind: "mystery", Payload: []byte(`{}`)})
		require.NoError(t, err)
		require.NoError(t, consumer.Handle(body))
	})
}
