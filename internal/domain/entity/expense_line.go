package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Áreas que registran gastos contra una orden.
const (
	AreaTecnica        = "tecnica"
	AreaImplementacion = "implementacion"
	AreaTalentos       = "talentos"
	AreaProgramacion   = "programacion"
	AreaExperience     = "experience"
)

// Estados simplificados de una línea de gasto.
const (
	LineStatusPendiente = "pendiente"
	LineStatusActivo    = "activo"
	LineStatusCerrado   = "cerrado"
	LineStatusAnulado   = "anulado"
)

// ExpenseLine gasto real de un área, opcionalmente asociado a una orden y a una fila de programa.
type ExpenseLine struct {
	ID               string
	Area             string
	OrderID          string // vacío = gasto "standalone"
	ProgramID        string
	Description      string
	Net              decimal.Decimal
	CounterpartName  string
	CounterpartTaxID string
	Status           string
	VoucherID        string // comprobante generado a partir de la línea (si existe)
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Version          int
}

// IsCancelled indica si la línea está anulada.
func (l ExpenseLine) IsCancelled() bool {
	return l.Status == LineStatusAnulado
}
