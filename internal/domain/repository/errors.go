package repository

import "errors"

var (
	// ErrNotFound indica que la identidad (o el artefacto) no existe.
	ErrNotFound = errors.New("not found")

	// ErrConflict: email duplicado, versión obsoleta o constraint violada.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indica datos de entrada inválidos (ej: 2FA sin teléfono).
	ErrInvalidInput = errors.New("invalid input")
)

// IsNotFound verifica si el error es ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict verifica si el error es ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
