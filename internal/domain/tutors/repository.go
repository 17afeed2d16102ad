package tutors

import (
	"context"
	"errors"

	"vet-clinic-api/internal/platform/paging"
)

var (
	ErrNotFound     = errors.New("tutor not found")
	ErrConflict     = errors.New("tutor already registered")
	ErrInvalidInput = errors.New("invalid input")
)

// ConflictError indica qué campo único (cpf, email) ya está en uso.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string { return e.Field + " already registered" }

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

type Order string

const (
	OrderCreated Order = "created"
	OrderName    Order = "name"
)

// Filter: todos los campos de texto son "contiene", sin distinguir mayúsculas.
// CPF y Phone se comparan sobre dígitos.
type Filter struct {
	Name            string
	CPF             string
	Email           string
	Phone           string
	IncludeInactive bool
	OrderBy         Order // "" => created
	Page            paging.Params
}

type Repository interface {
	Create(ctx context.Context, t Tutor) error
	Update(ctx context.Context, t Tutor) error
	GetByID(ctx context.Context, id string) (Tutor, error)
	FindByCPF(ctx context.Context, cpf string) (Tutor, error)
	FindByEmail(ctx context.Context, email string) (Tutor, error)
	List(ctx context.Context, f Filter) ([]Tutor, int, error)
}
