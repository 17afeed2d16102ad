package users

import (
	"context"
	"errors"
	"time"

	"vet-clinic-api/internal/platform/paging"
)

var (
	ErrNotFound     = errors.New("user not found")
	ErrConflict     = errors.New("user already registered")
	ErrInvalidInput = errors.New("invalid input")
	ErrProtected    = errors.New("administrators cannot be deleted")
)

// ConflictError indica qué campo único (cpf, email, username) ya está en uso.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string { return e.Field + " already registered" }

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

type Order string

const (
	OrderCreated Order = ""
	OrderName    Order = "name"
	OrderDate    Order = "date" // admissionDate, sin fecha al final
)

// Filter se aplica en orden: activos, nombre (substring, sin mayúsculas), CPF (substring
// de dígitos), rol (exacto), rango de admisión. Después ordena y pagina.
type Filter struct {
	Name            string
	CPF             string
	Role            Role
	AdmissionFrom   *time.Time
	AdmissionTo     *time.Time
	IncludeInactive bool
	OrderBy         Order
	Page            paging.Params // PageSize 0 => todo
}

// Repository persiste usuarios. Create/Update devuelven *ConflictError si se viola
// unicidad de CPF, email o username (incluye registros inactivos).
type Repository interface {
	Create(ctx context.Context, u User) error
	Update(ctx context.Context, u User) error
	GetByID(ctx context.Context, id string) (User, error)
	FindByCPF(ctx context.Context, cpf string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
	// List devuelve la página pedida y el total filtrado antes de paginar.
	List(ctx context.Context, f Filter) ([]User, int, error)
}
