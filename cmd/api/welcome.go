package main

import (
	"context"

	"vet-clinic-api/internal/platform/logger"
	"vet-clinic-api/internal/ports/notifications"
)

// welcome atiende los altas de usuarios y tutores. No hay proveedor de email: se deja
// registrado el aviso que se enviaría.
func welcome(log logger.Logger) func(context.Context, notifications.Event) error {
	return func(_ context.Context, ev notifications.Event) error {
		switch ev.Type {
		case notifications.UserCreated, notifications.TutorRegistered:
			log.Info("welcome notification", logger.Fields{
				"type":  ev.Type,
				"email": ev.Payload["email"],
				"name":  ev.Payload["name"],
			})
		default:
			log.Debug("event ignored", logger.Fields{"type": ev.Type})
		}
		return nil
	}
}
