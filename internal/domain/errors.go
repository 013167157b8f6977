package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrLockNotAcquired   = errors.New("no se pudo bloquear el ítem")
)

// ValidationError describe un dato rechazado en la frontera (tipo de movimiento, ids, fechas).
// errors.Is(err, ErrInvalidInput) es verdadero para cualquier ValidationError.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError construye el error para el campo indicado.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// RepositoryError envuelve un fallo del almacenamiento (lectura o escritura).
// Se propaga tal cual al caller; no se reintenta internamente.
type RepositoryError struct {
	Op  string
	Err error
}

// WrapRepository devuelve nil si err es nil; si no, lo envuelve con la operación.
func WrapRepository(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RepositoryError{Op: op, Err: err}
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repositorio: %s: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error { return e.Err }
