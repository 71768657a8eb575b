package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
// Los casos de uso los devuelven envueltos con fmt.Errorf("...: %w", err); comparar siempre con errors.Is.
var (
	ErrValidation        = errors.New("entrada inválida")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrInvalidState      = errors.New("operación no permitida en el estado actual")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrTimeout           = errors.New("tiempo de espera agotado en almacenamiento")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")

	// ErrDuplicate clave única repetida (nombre o número de parte). Es un error de validación.
	ErrDuplicate = fmt.Errorf("%w: recurso duplicado", ErrValidation)

	// ErrTransient condición pasajera del almacenamiento (contención de bloqueos, serialización).
	// Solo el ledger reintenta ante este error; nunca llega al caller sin envolver.
	ErrTransient = errors.New("condición transitoria de almacenamiento")
)

// Validationf construye un ErrValidation con detalle.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
