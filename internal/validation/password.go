package validation

import (
	"regexp"
	"unicode/utf8"
)

const (
	PasswordMinLength = 8
	PasswordMaxLength = 20
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// PasswordProblems devuelve las reglas de la política que la contraseña no cumple,
// en orden estable. Vacío => contraseña válida.
func PasswordProblems(p string) []string {
	var out []string

	n := utf8.RuneCountInString(p)
	if n < PasswordMinLength {
		out = append(out, "must have at least 8 characters")
	}
	if n > PasswordMaxLength {
		out = append(out, "must have at most 20 characters")
	}

	var upper, lower, digit, special bool
	for _, r := range p {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			special = true
		}
	}

	if !upper {
		out = append(out, "must contain an uppercase letter")
	}
	if !lower {
		out = append(out, "must contain a lowercase letter")
	}
	if !digit {
		out = append(out, "must contain a digit")
	}
	if !special {
		out = append(out, "must contain a special character")
	}
	return out
}

func ValidPassword(p string) bool {
	return len(PasswordProblems(p)) == 0
}

// ValidPhone acepta teléfonos brasileños de 10 u 11 dígitos (fijo o celular), con o sin máscara.
func ValidPhone(raw string) bool {
	n := len(OnlyDigits(raw))
	return n == 10 || n == 11
}

func ValidUsername(s string) bool {
	return usernamePattern.MatchString(s)
}
