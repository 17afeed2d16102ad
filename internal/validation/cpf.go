package validation

import "strings"

// OnlyDigits descarta todo lo que no sea 0-9 ("615.983.920-93" => "61598392093").
func OnlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// ValidCPF valida un CPF con el algoritmo módulo 11 de los dos dígitos verificadores.
// Acepta el número con o sin máscara. Secuencias repetidas ("11111111111") son inválidas
// aunque cumplan la cuenta.
func ValidCPF(raw string) bool {
	cpf := OnlyDigits(raw)
	if len(cpf) != 11 || repeated(cpf) {
		return false
	}

	digits := make([]int, 11)
	for i := range cpf {
		digits[i] = int(cpf[i] - '0')
	}

	if checkDigit(digits[:9], 10) != digits[9] {
		return false
	}
	return checkDigit(digits[:10], 11) == digits[10]
}

// checkDigit aplica pesos decrecientes desde firstWeight hasta 2.
func checkDigit(digits []int, firstWeight int) int {
	sum := 0
	for i, d := range digits {
		sum += d * (firstWeight - i)
	}
	dv := 11 - sum%11
	if dv >= 10 {
		return 0
	}
	return dv
}

func repeated(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}
