package medicalrecords

import (
	"context"
	"errors"
	"time"

	"vet-clinic-api/internal/platform/paging"
)

var (
	ErrNotFound     = errors.New("medical record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Filter: rango de fechas inclusivo sobre consultationDate; diagnosisKeyword "contiene"
// sin mayúsculas. El orden es siempre consultationDate desc (más reciente primero).
type Filter struct {
	PetID            string
	VeterinarianID   string
	From             *time.Time
	To               *time.Time
	DiagnosisKeyword string
	IncludeInactive  bool
	Page             paging.Params
}

type Repository interface {
	Create(ctx context.Context, rec Record) error
	Update(ctx context.Context, rec Record) error
	GetByID(ctx context.Context, id string) (Record, error)
	List(ctx context.Context, f Filter) ([]Record, int, error)
}
