package utils

import "strings"

// DigitsOnly remove qualquer caractere não numérico da entrada.
// Usado tanto para o número de telefone quanto para o código OTP digitado.
func DigitsOnly(input string) string {
	var b strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MaskPhone oculta o número exceto os quatro últimos dígitos,
// para exibição no prompt da etapa de OTP.
func MaskPhone(phone string) string {
	digits := DigitsOnly(phone)
	if len(digits) <= 4 {
		return digits
	}
	return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
}
