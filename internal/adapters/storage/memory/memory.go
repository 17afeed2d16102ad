// Package memory guarda todo en mapas del proceso. Sirve para desarrollo y tests:
// nada sobrevive a un reinicio.
package memory

import (
	"context"
	"strings"
	"time"

	"vet-clinic-api/internal/domain/medicalrecords"
	"vet-clinic-api/internal/domain/pets"
	"vet-clinic-api/internal/domain/tutors"
	"vet-clinic-api/internal/domain/users"
)

var (
	_ users.Repository          = (*UserRepo)(nil)
	_ tutors.Repository         = (*TutorRepo)(nil)
	_ pets.Repository           = (*PetRepo)(nil)
	_ medicalrecords.Repository = (*MedicalRecordRepo)(nil)
)

// Options configura todos los repos en memoria.
type Options struct {
	// Latency se espera antes de cada operación para imitar un backend remoto.
	Latency time.Duration
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// contains es "contiene" sin distinguir mayúsculas. needle vacío siempre matchea.
func contains(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// inRange compara por día, bordes incluidos. nil = sin límite.
func inRange(t time.Time, from, to *time.Time) bool {
	d := day(t)
	if from != nil && d.Before(day(*from)) {
		return false
	}
	if to != nil && d.After(day(*to)) {
		return false
	}
	return true
}

func lessFold(a, b string) bool {
	return strings.ToLower(a) < strings.ToLower(b)
}
