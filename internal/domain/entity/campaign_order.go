package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden de publicidad.
const (
	OrderStatusAbierto = "abierto"
	OrderStatusCerrado = "cerrado"
	OrderStatusAnulado = "anulado"
)

// CampaignOrder representa una Orden de Publicidad: el monto total de venta de la campaña
// y su distribución en filas de programa.
type CampaignOrder struct {
	ID               string
	Number           string
	Client           string
	Brand            string
	CampaignName     string
	BusinessUnit     string
	BusinessCategory string // aplica según unidad de negocio
	Project          string // aplica según unidad de negocio
	Currency         string // código ISO 4217 (ARS, USD)
	TotalSaleAmount  decimal.Decimal
	Programs         []ProgramAllocation
	Status           string // abierto, cerrado, anulado
	CreatedBy        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Version          int
}

// IsOpen indica si la orden admite modificaciones y nuevos gastos.
func (o *CampaignOrder) IsOpen() bool {
	return o.Status == OrderStatusAbierto
}

// Program busca una fila de programa por ID.
func (o *CampaignOrder) Program(id string) (*ProgramAllocation, int) {
	for i := range o.Programs {
		if o.Programs[i].ID == id {
			return &o.Programs[i], i
		}
	}
	return nil, -1
}

// Clone devuelve una copia profunda (snapshot inmutable para el caller).
func (o CampaignOrder) Clone() CampaignOrder {
	c := o
	c.Programs = append([]ProgramAllocation(nil), o.Programs...)
	return c
}

// ProgramAllocation una fila de presupuesto dentro de la orden, con sus topes por área.
type ProgramAllocation struct {
	ID                   string
	OrderID              string
	ProgramName          string
	AllocatedAmount      decimal.Decimal
	ImplementationCap    decimal.Decimal
	TalentCap            decimal.Decimal
	TechnicalCap         decimal.Decimal
	CreditNoteAmount     decimal.Decimal
	CreditNotePercentage decimal.Decimal
	FeeAmount            decimal.Decimal
	FeePercentage        decimal.Decimal
	Version              int
}

// CapsTotal suma de los tres sub-topes.
func (p ProgramAllocation) CapsTotal() decimal.Decimal {
	return p.ImplementationCap.Add(p.TalentCap).Add(p.TechnicalCap)
}
