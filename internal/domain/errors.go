package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrVersionConflict    = errors.New("el registro fue modificado por otro usuario")
	ErrInvalidTransition  = errors.New("transición de estado inválida")
	ErrLocked             = errors.New("campo bloqueado por el estado actual")
	ErrOrderClosed        = errors.New("la orden está cerrada o anulada")
	ErrCapExceeded        = errors.New("el monto supera el tope asignado")
)

// FieldError describe un error de validación asociado a un campo (y opcionalmente a una fila de programa).
type FieldError struct {
	Field   string `json:"field"`
	Row     int    `json:"row"` // -1 cuando el error es de la orden y no de una fila
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("%s[%d]: %s", e.Field, e.Row, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Códigos de error de validación.
const (
	CodeRequired          = "REQUIRED"
	CodeTotalMismatch     = "TOTAL_MISMATCH"
	CodeSubCapOverflow    = "SUBCAP_OVERFLOW"
	CodeCapAboveAllocated = "CAP_ABOVE_ALLOCATED"
	CodeAboveTotal        = "ABOVE_TOTAL"
	CodeNegative          = "NEGATIVE"
	CodeDuplicateProgram  = "DUPLICATE_PROGRAM"
	CodeLinkedMismatch    = "LINKED_MISMATCH"
	CodeLineCapExceeded   = "LINE_CAP_EXCEEDED"
	CodeOrderClosed       = "ORDER_CLOSED"
	CodeLocked            = "LOCKED"
	CodeInvalidValue      = "INVALID_VALUE"
	CodeProgramNotInOrder = "PROGRAM_NOT_IN_ORDER"
)

// ValidationErrors lista de errores bloqueantes. Una lista vacía significa "válido".
type ValidationErrors []FieldError

// Add agrega un error de orden (sin fila).
func (v *ValidationErrors) Add(field, code, msg string) {
	*v = append(*v, FieldError{Field: field, Row: -1, Code: code, Message: msg})
}

// AddRow agrega un error asociado a una fila de programa.
func (v *ValidationErrors) AddRow(row int, field, code, msg string) {
	*v = append(*v, FieldError{Field: field, Row: row, Code: code, Message: msg})
}

// HasCode indica si algún error tiene el código dado.
func (v ValidationErrors) HasCode(code string) bool {
	for _, e := range v {
		if e.Code == code {
			return true
		}
	}
	return false
}

// Err devuelve nil si no hay errores.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return "validación: " + strings.Join(parts, "; ")
}

// Is permite errors.Is(err, ErrInvalidInput) sobre una lista de validación.
func (v ValidationErrors) Is(target error) bool {
	if target == ErrInvalidInput {
		return true
	}
	if target == ErrCapExceeded {
		return v.HasCode(CodeLineCapExceeded)
	}
	if target == ErrOrderClosed {
		return v.HasCode(CodeOrderClosed)
	}
	if target == ErrLocked {
		return v.HasCode(CodeLocked)
	}
	return false
}

// Warning advertencia no bloqueante (sobre-ejecución, programa duplicado en edición).
type Warning struct {
	Field   string `json:"field"`
	Row     int    `json:"row"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Códigos de advertencia.
const (
	WarnOverBudget       = "OVER_BUDGET"
	WarnDuplicateProgram = "DUPLICATE_PROGRAM"
)
