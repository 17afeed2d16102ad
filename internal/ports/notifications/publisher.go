package notifications

import (
	"context"
	"time"
)

const (
	UserCreated          = "user.created"
	TutorRegistered      = "tutor.registered"
	MedicalRecordCreated = "medical_record.created"
)

// Event es un hecho de dominio ya persistido. Payload va como JSON.
type Event struct {
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurredAt"`
	Payload    map[string]any `json:"payload"`
}

// Publisher entrega eventos fuera del proceso. Los services lo tratan como best-effort:
// un error se loguea pero no revierte la operación.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}
