package tutors

import "time"

// Tutor es el responsable (dueño) de una o más mascotas.
type Tutor struct {
	ID        string
	Name      string
	CPF       string // sólo dígitos
	Email     string
	Phone     string // sólo dígitos
	Address   string
	BirthDate time.Time

	PasswordHash string

	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastModifiedBy string
}
