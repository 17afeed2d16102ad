package users

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"vet-clinic-api/internal/validation"
)

// CreateInput es el formulario completo de usuario. Update lo reconstruye desde el estado
// actual más el patch y lo valida entero.
type CreateInput struct {
	Name            string `json:"name" validate:"required,max=150"`
	Username        string `json:"username" validate:"omitempty,min=4,max=20,username"`
	CPF             string `json:"cpf" validate:"required,cpf"`
	Email           string `json:"email" validate:"required,max=255,email"`
	Phone           string `json:"phone" validate:"required,phone"`
	Role            Role   `json:"role" validate:"required,oneof=ATENDENTE VETERINARIO ADMINISTRADOR CLIENTE"`
	AdmissionDate   string `json:"admissionDate" validate:"omitempty,notfuture"`
	Address         string `json:"address" validate:"max=255"`
	BirthDate       string `json:"birthDate" validate:"omitempty,notfuture"`
	Password        string `json:"password" validate:"omitempty,password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// UpdateInput: nil = no tocar.
type UpdateInput struct {
	Name            *string `json:"name"`
	Username        *string `json:"username"`
	CPF             *string `json:"cpf"`
	Email           *string `json:"email"`
	Phone           *string `json:"phone"`
	Role            *Role   `json:"role"`
	AdmissionDate   *string `json:"admissionDate"`
	Address         *string `json:"address"`
	BirthDate       *string `json:"birthDate"`
	Password        *string `json:"password"`
	ConfirmPassword *string `json:"confirmPassword"`
}

func (in CreateInput) normalized() CreateInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.CPF = validation.OnlyDigits(in.CPF)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = validation.OnlyDigits(in.Phone)
	in.Role = Role(strings.ToUpper(strings.TrimSpace(string(in.Role))))
	in.AdmissionDate = strings.TrimSpace(in.AdmissionDate)
	in.Address = strings.TrimSpace(in.Address)
	in.BirthDate = strings.TrimSpace(in.BirthDate)
	return in
}

func (in CreateInput) apply(p UpdateInput) CreateInput {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&in.Name, p.Name)
	set(&in.Username, p.Username)
	set(&in.CPF, p.CPF)
	set(&in.Email, p.Email)
	set(&in.Phone, p.Phone)
	set(&in.AdmissionDate, p.AdmissionDate)
	set(&in.Address, p.Address)
	set(&in.BirthDate, p.BirthDate)
	set(&in.Password, p.Password)
	set(&in.ConfirmPassword, p.ConfirmPassword)
	if p.Role != nil {
		in.Role = *p.Role
	}
	return in
}

func formOf(u User) CreateInput {
	return CreateInput{
		Name:          u.Name,
		Username:      u.Username,
		CPF:           u.CPF,
		Email:         u.Email,
		Phone:         u.Phone,
		Role:          u.Role,
		AdmissionDate: validation.FormatDate(u.AdmissionDate),
		Address:       u.Address,
		BirthDate:     validation.FormatDate(u.BirthDate),
	}
}

// crossFieldRules: confirmación de contraseña y campos requeridos según rol.
func crossFieldRules(sl validator.StructLevel) {
	in := sl.Current().Interface().(CreateInput)

	if in.Password != "" && in.Password != in.ConfirmPassword {
		sl.ReportError(in.ConfirmPassword, "confirmPassword", "ConfirmPassword", "password_mismatch", "")
	}

	switch {
	case in.Role.IsStaff():
		if in.AdmissionDate == "" {
			sl.ReportError(in.AdmissionDate, "admissionDate", "AdmissionDate", "required_staff", "")
		}
	case in.Role == RoleClient:
		if in.Address == "" {
			sl.ReportError(in.Address, "address", "Address", "required_client", "")
		}
		if in.BirthDate == "" {
			sl.ReportError(in.BirthDate, "birthDate", "BirthDate", "required_client", "")
		}
	}
}
