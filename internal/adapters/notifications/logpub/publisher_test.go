package logpub

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vet-clinic-api/internal/platform/logger"
	"vet-clinic-api/internal/ports/notifications"
)

func TestPublish_LogsEvent(t *testing.T) {
	var buf bytes.Buffer
	p := New(logger.New(logger.Options{Output: &buf}))

	err := p.Publish(context.Background(), notifications.Event{
		Type:       notifications.MedicalRecordCreated,
		OccurredAt: time.Now(),
		Payload:    map[string]any{"petId": "p-1"},
	})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "type=medical_record.created")
	assert.Contains(t, buf.String(), "p-1")
}
