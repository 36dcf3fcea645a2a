// Package validation contiene las reglas de forma para los campos de una identidad.
package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Email: local@dominio.tld, sin espacios, hasta 254 caracteres.
// No intenta cubrir RFC 5322 completo; la verificación real es el link por email.
var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Phone en E.164: '+' y de 8 a 15 dígitos, sin ceros a la izquierda.
var phoneRe = regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)

const (
	maxEmailLen = 254
	maxNameLen  = 100
)

// ValidEmail devuelve true si email tiene forma de dirección.
func ValidEmail(email string) bool {
	return len(email) <= maxEmailLen && emailRe.MatchString(email)
}

// ValidPhone devuelve true si phone está en formato E.164.
func ValidPhone(phone string) bool {
	return phoneRe.MatchString(phone)
}

// ValidDisplayName acepta cualquier texto no vacío (tras trim) de hasta 100 runas
// sin caracteres de control.
func ValidDisplayName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLen {
		return false
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}
	return true
}
