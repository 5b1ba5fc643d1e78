package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de un comprobante.
const (
	MovementIngreso = "ingreso"
	MovementEgreso  = "egreso"
)

// Áreas de origen de un comprobante. Además de las áreas de gasto existe la carga directa.
const (
	OriginDirecto = "directo"
)

// Estados de aprobación del comprobante.
const (
	VoucherCreado       = "creado"
	VoucherRequiereInfo = "requiere_info"
	VoucherAprobado     = "aprobado"
	VoucherRechazado    = "rechazado"
	VoucherPagado       = "pagado"
)

// Comprobante documento financiero (factura de proveedor o de venta) sujeto al circuito de aprobación.
// Nunca se elimina: el rechazo es un estado terminal.
type Comprobante struct {
	ID           string
	MovementType string // ingreso, egreso
	OriginArea   string

	// Referencias a la entidad de origen (solo navegación).
	OriginOrderID   string
	OriginProgramID string
	OriginExpenseID string

	CounterpartName  string
	CounterpartTaxID string // CUIT
	DocumentType     string
	DocumentNumber   string
	DocumentDate     *time.Time

	Currency    string // la de la orden de origen o la moneda por defecto
	Net         decimal.Decimal
	IVARate     decimal.Decimal // porcentaje (21 = 21%)
	IVAAmount   decimal.Decimal
	Perceptions decimal.Decimal
	Total       decimal.Decimal

	// Retenciones. Ganancias e IIBB aplican a egresos; en ingresos se suman IVA y SUSS.
	IncomeTaxWithholding      decimal.Decimal
	GrossIncomeWithholding    decimal.Decimal
	IVAWithholding            decimal.Decimal
	SocialSecurityWithholding decimal.Decimal

	PaymentMethod    string
	Bank             string
	OperationNumber  string
	DueDate          *time.Time
	PaymentDate      *time.Time
	PaymentTermsDays int

	ApprovalState string
	Observations  string // visible para el área
	AdminNote     string // solo administración

	History []StateTransition

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int
}

// StateTransition registro de auditoría de un cambio de estado.
type StateTransition struct {
	From  string
	To    string
	Actor string
	Note  string
	At    time.Time
}

// Clone devuelve una copia con su propio historial.
func (c Comprobante) Clone() Comprobante {
	out := c
	out.History = append([]StateTransition(nil), c.History...)
	return out
}
