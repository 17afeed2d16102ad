package validation

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout es el formato de fechas de calendario en el wire (birthDate, admissionDate, ...).
const DateLayout = "2006-01-02"

// Validator envuelve go-playground/validator con los tags propios del dominio:
//
//	cpf        dígitos verificadores módulo 11
//	password   política de contraseña (8-20, mayúscula, minúscula, dígito, especial)
//	phone      10 u 11 dígitos
//	username   letras, dígitos y "_"
//	date       YYYY-MM-DD
//	notfuture  YYYY-MM-DD no posterior a hoy (según now)
//
// Los errores se devuelven como Errors, indexados por el nombre JSON del campo.
type Validator struct {
	v   *validator.Validate
	now func() time.Time
}

func New(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	out := &Validator{v: v, now: now}

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})

	mustRegister(v, "cpf", func(fl validator.FieldLevel) bool { return ValidCPF(fl.Field().String()) })
	mustRegister(v, "password", func(fl validator.FieldLevel) bool { return ValidPassword(fl.Field().String()) })
	mustRegister(v, "phone", func(fl validator.FieldLevel) bool { return ValidPhone(fl.Field().String()) })
	mustRegister(v, "username", func(fl validator.FieldLevel) bool { return ValidUsername(fl.Field().String()) })
	mustRegister(v, "date", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(fl.Field().String())
		return err == nil
	})
	mustRegister(v, "notfuture", out.notFuture)

	return out
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("validation: register " + tag + ": " + err.Error())
	}
}

// RegisterStructRules agrega reglas cruzadas (confirmación, campos requeridos por rol...).
// Dentro de fn, sl.ReportError(value, "<jsonField>", "<GoField>", "<tag>", "") agrega el error.
func (v *Validator) RegisterStructRules(fn validator.StructLevelFunc, types ...any) {
	v.v.RegisterStructValidation(fn, types...)
}

// Struct valida s. Devuelve nil, Errors, o un error de programación (s no es struct).
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := Errors{}
	for _, fe := range verrs {
		out.Add(fe.Field(), message(fe))
	}
	return out
}

// Today es la fecha de hoy (00:00 UTC) según el reloj del validator.
func (v *Validator) Today() time.Time {
	return truncateDay(v.now())
}

func (v *Validator) notFuture(fl validator.FieldLevel) bool {
	d, err := ParseDate(fl.Field().String())
	if err != nil {
		return false
	}
	return !d.After(v.Today())
}

// ParseDate parsea YYYY-MM-DD en UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// ParseOptionalDate devuelve nil para "".
func ParseOptionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// FormatDate es el inverso de ParseDate; nil => "".
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
