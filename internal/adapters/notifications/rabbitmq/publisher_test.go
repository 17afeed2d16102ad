package rabbitmq

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vet-clinic-api/internal/ports/notifications"
)

func TestEncode(t *testing.T) {
	at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	msg, err := encode(notifications.Event{
		Type:       notifications.UserCreated,
		OccurredAt: at,
		Payload:    map[string]any{"id": "u-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, uint8(amqp.Persistent), msg.DeliveryMode)
	assert.Equal(t, notifications.UserCreated, msg.Type)

	var back notifications.Event
	require.NoError(t, json.Unmarshal(msg.Body, &back))
	assert.Equal(t, "u-1", back.Payload["id"])
	assert.True(t, at.Equal(back.OccurredAt))
}

func TestPublishConsume_Broker(t *testing.T) {
	url := os.Getenv("AMQP_TEST_URL")
	if url == "" {
		t.Skip("AMQP_TEST_URL not set")
	}

	p, err := Dial(Config{URL: url, Queue: "clinic_events_test"}, nil)
	require.NoError(t, err)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	got := make(chan notifications.Event, 1)
	require.NoError(t, p.Consume(ctx, func(_ context.Context, ev notifications.Event) error {
		got <- ev
		return nil
	}))

	require.NoError(t, p.Publish(ctx, notifications.Event{Type: notifications.TutorRegistered, OccurredAt: time.Now()}))

	select {
	case ev := <-got:
		assert.Equal(t, notifications.TutorRegistered, ev.Type)
	case <-ctx.Done():
		t.Fatal("event not consumed")
	}
}
