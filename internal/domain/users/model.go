package users

import "time"

// Role define el perfil del usuario dentro de la clínica.
// @Enum ATENDENTE, VETERINARIO, ADMINISTRADOR, CLIENTE
type Role string

const (
	RoleAttendant     Role = "ATENDENTE"
	RoleVeterinarian  Role = "VETERINARIO"
	RoleAdministrator Role = "ADMINISTRADOR"
	RoleClient        Role = "CLIENTE"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAttendant, RoleVeterinarian, RoleAdministrator, RoleClient:
		return true
	}
	return false
}

// IsStaff: todo rol válido que no sea CLIENTE. Staff exige fecha de admisión.
func (r Role) IsStaff() bool {
	return r.Valid() && r != RoleClient
}

// User es un miembro del staff o un cliente con acceso al sistema.
// CPF y Phone se guardan sólo con dígitos.
type User struct {
	ID       string
	Name     string
	Username string // opcional; "" = sin username
	CPF      string
	Email    string
	Phone    string
	Role     Role

	AdmissionDate *time.Time // staff
	Address       string     // CLIENTE
	BirthDate     *time.Time // CLIENTE

	PasswordHash string

	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastModifiedBy string
}
