package broker

import (
	"context"
	"encoding/json"
	"testing"

	"marketplace-service/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cartUpdatedMessage(t *testing.T) kafka.Message {
	t.Helper()

	payload, err := json.Marshal(&models.CartUpdatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "evt-1",
			EventType: models.EventTypeCartUpdated,
		},
		CartID:   "cart-1",
		Action:   models.CartActionAdd,
		Title:    "Widget",
		Quantity: 2,
		Total:    20,
	})
	require.NoError(t, err)
	return kafka.Message{Value: payload}
}

func TestHandleMessageRoutesCartUpdated(t *testing.T) {
	eh := NewEventHandler()

	var got *models.CartUpdatedEvent
	eh.OnCartUpdated(func(ctx context.Context, event *models.CartUpdatedEvent) error {
		got = event
		return nil
	})

	require.NoError(t, eh.HandleMessage(context.Background(), cartUpdatedMessage(t)))
	require.NotNil(t, got)
	assert.Equal(t, "cart-1", got.CartID)
	assert.Equal(t, "Widget", got.Title)
	assert.Equal(t, int64(20), got.Total)
}

func TestHandleMessageCartUpdatedWithoutHandler(t *testing.T) {
	eh := NewEventHandler()

	// consumers that don't care about cart mutations drop them silently
	assert.NoError(t, eh.HandleMessage(context.Background(), cartUpdatedMessage(t)))
}
