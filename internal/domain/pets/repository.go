package pets

import (
	"context"
	"errors"

	"vet-clinic-api/internal/platform/paging"
)

var (
	ErrNotFound     = errors.New("pet not found")
	ErrInvalidInput = errors.New("invalid input")
)

type Order string

const (
	OrderCreated Order = "created"
	OrderName    Order = "name"
	OrderOwner   Order = "owner" // nombre del tutor, luego nombre de la mascota
)

// Filter: name/breed/ownerName "contiene" sin mayúsculas; species exacto; ownerCpf
// "contiene" sobre dígitos; tutorId exacto.
type Filter struct {
	Name            string
	Species         Species
	Breed           string
	OwnerName       string
	OwnerCPF        string
	TutorID         string
	IncludeInactive bool
	OrderBy         Order
	Page            paging.Params
}

// Repository persiste mascotas. Las lecturas devuelven Owner completo.
type Repository interface {
	Create(ctx context.Context, p Pet) error
	Update(ctx context.Context, p Pet) error
	GetByID(ctx context.Context, id string) (Pet, error)
	List(ctx context.Context, f Filter) ([]Pet, int, error)
}
