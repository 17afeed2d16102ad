package validation

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Name            string  `json:"name" validate:"required,max=150"`
	CPF             string  `json:"cpf" validate:"required,cpf"`
	Email           string  `json:"email" validate:"required,email"`
	Phone           string  `json:"phone" validate:"omitempty,phone"`
	Username        *string `json:"username,omitempty" validate:"omitempty,min=4,max=20,username"`
	Role            string  `json:"role" validate:"required,oneof=ATENDENTE VETERINARIO ADMINISTRADOR CLIENTE"`
	AdmissionDate   string  `json:"admissionDate" validate:"omitempty,notfuture"`
	Password        string  `json:"password" validate:"required,password"`
	ConfirmPassword string  `json:"confirmPassword" validate:"required"`
}

func fixedNow() time.Time { return time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC) }

func newTestValidator() *Validator {
	v := New(fixedNow)
	v.RegisterStructRules(func(sl validator.StructLevel) {
		s := sl.Current().Interface().(signup)
		if s.Password != s.ConfirmPassword {
			sl.ReportError(s.ConfirmPassword, "confirmPassword", "ConfirmPassword", "password_mismatch", "")
		}
		if s.Role != "CLIENTE" && s.AdmissionDate == "" {
			sl.ReportError(s.AdmissionDate, "admissionDate", "AdmissionDate", "required_staff", "")
		}
	}, signup{})
	return v
}

func validSignup() signup {
	return signup{
		Name:            "Gabriel Souza",
		CPF:             "615.983.920-93",
		Email:           "gabriel@clinic.com",
		Phone:           "(11) 98765-4321",
		Role:            "VETERINARIO",
		AdmissionDate:   "2024-02-01",
		Password:        "g@briel984gM",
		ConfirmPassword: "g@briel984gM",
	}
}

func TestStruct_Valid(t *testing.T) {
	require.NoError(t, newTestValidator().Struct(validSignup()))
}

func TestStruct_FieldErrorsUseJSONNames(t *testing.T) {
	s := validSignup()
	s.CPF = "111.111.111-11"
	s.Email = "not-an-email"
	s.Role = "DONO"
	u := "a.b"
	s.Username = &u

	err := newTestValidator().Struct(s)
	errs, ok := AsErrors(err)
	require.True(t, ok)

	assert.Equal(t, "is not a valid CPF", errs["cpf"])
	assert.Equal(t, "must be a valid email", errs["email"])
	assert.Contains(t, errs["role"], "must be one of")
	assert.Contains(t, errs, "username")
}

func TestStruct_PasswordMessageNamesTheRule(t *testing.T) {
	s := validSignup()
	s.Password = "gabriel984gM"
	s.ConfirmPassword = s.Password

	errs, ok := AsErrors(newTestValidator().Struct(s))
	require.True(t, ok)
	assert.Equal(t, "must contain a special character", errs["password"])
}

func TestStruct_CrossFieldRules(t *testing.T) {
	s := validSignup()
	s.ConfirmPassword = "g@briel984gX"
	s.AdmissionDate = ""

	errs, ok := AsErrors(newTestValidator().Struct(s))
	require.True(t, ok)
	assert.Equal(t, "passwords do not match", errs["confirmPassword"])
	assert.Equal(t, "is required for staff members", errs["admissionDate"])

	s = validSignup()
	s.Role = "CLIENTE"
	s.AdmissionDate = ""
	assert.NoError(t, newTestValidator().Struct(s))
}

func TestStruct_NotFuture(t *testing.T) {
	v := newTestValidator()

	s := validSignup()
	s.AdmissionDate = "2025-03-10"
	assert.NoError(t, v.Struct(s), "today is allowed")

	s.AdmissionDate = "2025-03-11"
	errs, ok := AsErrors(v.Struct(s))
	require.True(t, ok)
	assert.Equal(t, "cannot be in the future", errs["admissionDate"])

	s.AdmissionDate = "10/03/2025"
	errs, ok = AsErrors(v.Struct(s))
	require.True(t, ok)
	assert.Equal(t, "must be a date in YYYY-MM-DD format", errs["admissionDate"])
}

func TestErrors_ErrorIsStable(t *testing.T) {
	e := Errors{}
	e.Add("name", "is required")
	e.Add("cpf", "is not a valid CPF")
	e.Add("cpf", "ignored")

	assert.Equal(t, "validation failed: cpf: is not a valid CPF; name: is required", e.Error())
	assert.NoError(t, Errors{}.OrNil())
}

func TestParseOptionalDate(t *testing.T) {
	d, err := ParseOptionalDate("")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = ParseOptionalDate("2020-05-17")
	require.NoError(t, err)
	assert.Equal(t, "2020-05-17", FormatDate(d))

	_, err = ParseOptionalDate("2020-13-01")
	assert.Error(t, err)
}
