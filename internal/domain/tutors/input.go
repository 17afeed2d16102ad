package tutors

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"vet-clinic-api/internal/validation"
)

type CreateInput struct {
	Name            string `json:"name" validate:"required,max=150"`
	CPF             string `json:"cpf" validate:"required,cpf"`
	Email           string `json:"email" validate:"required,max=255,email"`
	Phone           string `json:"phone" validate:"required,phone"`
	Address         string `json:"address" validate:"required,max=255"`
	BirthDate       string `json:"birthDate" validate:"required,notfuture"`
	Password        string `json:"password" validate:"omitempty,password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type UpdateInput struct {
	Name            *string `json:"name"`
	CPF             *string `json:"cpf"`
	Email           *string `json:"email"`
	Phone           *string `json:"phone"`
	Address         *string `json:"address"`
	BirthDate       *string `json:"birthDate"`
	Password        *string `json:"password"`
	ConfirmPassword *string `json:"confirmPassword"`
}

func (in CreateInput) normalized() CreateInput {
	in.Name = strings.TrimSpace(in.Name)
	in.CPF = validation.OnlyDigits(in.CPF)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = validation.OnlyDigits(in.Phone)
	in.Address = strings.TrimSpace(in.Address)
	in.BirthDate = strings.TrimSpace(in.BirthDate)
	return in
}

func (in CreateInput) apply(p UpdateInput) CreateInput {
	for _, f := range []struct {
		dst *string
		src *string
	}{
		{&in.Name, p.Name},
		{&in.CPF, p.CPF},
		{&in.Email, p.Email},
		{&in.Phone, p.Phone},
		{&in.Address, p.Address},
		{&in.BirthDate, p.BirthDate},
		{&in.Password, p.Password},
		{&in.ConfirmPassword, p.ConfirmPassword},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	return in
}

func formOf(t Tutor) CreateInput {
	return CreateInput{
		Name:      t.Name,
		CPF:       t.CPF,
		Email:     t.Email,
		Phone:     t.Phone,
		Address:   t.Address,
		BirthDate: validation.FormatDate(&t.BirthDate),
	}
}

func confirmPassword(sl validator.StructLevel) {
	in := sl.Current().Interface().(CreateInput)
	if in.Password != "" && in.Password != in.ConfirmPassword {
		sl.ReportError(in.ConfirmPassword, "confirmPassword", "ConfirmPassword", "password_mismatch", "")
	}
}
