package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrValidation        = errors.New("entrada inválida")
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidState      = errors.New("operación no permitida en el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrCannotDelete      = errors.New("no se puede eliminar")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
)

// InsufficientStockError indica que la salida dejaría el stock en negativo.
// errors.Is(err, ErrInsufficientStock) es verdadero.
type InsufficientStockError struct {
	Key       string
	Current   int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s: disponible %d, solicitado %d", e.Key, e.Current, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// InvalidStateError indica una operación ilegal en el estado actual del ciclo.
type InvalidStateError struct {
	Operation string
	Current   string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s no permitido en estado %s", e.Operation, e.Current)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }

// CannotDeleteError se devuelve al eliminar un ciclo fuera de BROUILLON.
// Coincide tanto con ErrCannotDelete como con ErrInvalidState.
type CannotDeleteError struct {
	CycleID string
	Status  string
}

func (e *CannotDeleteError) Error() string {
	return fmt.Sprintf("no se puede eliminar el ciclo %s en estado %s", e.CycleID, e.Status)
}

func (e *CannotDeleteError) Is(target error) bool {
	return target == ErrCannotDelete || target == ErrInvalidState
}

// Validationf envuelve ErrValidation con un detalle.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf envuelve ErrNotFound con un detalle.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
