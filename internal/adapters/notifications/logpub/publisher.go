package logpub

import (
	"context"

	"vet-clinic-api/internal/platform/logger"
	"vet-clinic-api/internal/ports/notifications"
)

// Publisher escribe los eventos en el log. Es el default cuando no hay AMQP_URL.
type Publisher struct {
	log logger.Logger
}

func New(log logger.Logger) *Publisher {
	if log == nil {
		log = logger.Nop()
	}
	return &Publisher{log: log}
}

func (p *Publisher) Publish(_ context.Context, ev notifications.Event) error {
	p.log.Info("domain event", logger.Fields{
		"type":        ev.Type,
		"occurred_at": ev.OccurredAt,
		"payload":     ev.Payload,
	})
	return nil
}
