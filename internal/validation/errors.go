package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Errors agrupa fallas de validación por campo (nombre JSON => mensaje).
// Se serializa tal cual en la respuesta 400.
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add registra msg para field. El primer mensaje por campo gana.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; ok {
		return
	}
	e[field] = msg
}

// OrNil devuelve nil si no hay errores (evita el nil-interface con mapa vacío).
func (e Errors) OrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// AsErrors extrae Errors de una cadena de errores envueltos.
func AsErrors(err error) (Errors, bool) {
	var out Errors
	if errors.As(err, &out) {
		return out, true
	}
	return nil, false
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if", "required_with":
		return "is required"
	case "required_staff":
		return "is required for staff members"
	case "required_client":
		return "is required for clients"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must have at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must have at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "email":
		return "must be a valid email"
	case "url":
		return "must be a valid URL"
	case "uuid", "uuid4":
		return "must be a valid id"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "cpf":
		return "is not a valid CPF"
	case "password":
		if p := PasswordProblems(stringValue(fe.Value())); len(p) > 0 {
			return p[0]
		}
		return "does not meet the password policy"
	case "password_mismatch":
		return "passwords do not match"
	case "phone":
		return "must have 10 or 11 digits"
	case "username":
		return "may only contain letters, digits and underscores"
	case "date":
		return "must be a date in YYYY-MM-DD format"
	case "notfuture":
		if _, err := ParseDate(stringValue(fe.Value())); err != nil {
			return "must be a date in YYYY-MM-DD format"
		}
		return "cannot be in the future"
	case "role":
		return "is not allowed for this role"
	default:
		return "is invalid"
	}
}

func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case *string:
		if s != nil {
			return *s
		}
	}
	return ""
}
