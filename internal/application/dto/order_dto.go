package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Presupuestos-api/internal/domain"
)

// ProgramAllocationRequest fila de programa en el alta/edición de una orden.
// ID y Version vacíos indican una fila nueva.
type ProgramAllocationRequest struct {
	ID                   string          `json:"id,omitempty"`
	Version              int             `json:"version,omitempty"`
	ProgramName          string          `json:"program_name"`
	AllocatedAmount      decimal.Decimal `json:"allocated_amount"`
	ImplementationCap    decimal.Decimal `json:"implementation_cap"`
	TalentCap            decimal.Decimal `json:"talent_cap"`
	TechnicalCap         decimal.Decimal `json:"technical_cap"`
	CreditNoteAmount     decimal.Decimal `json:"credit_note_amount"`
	CreditNotePercentage decimal.Decimal `json:"credit_note_percentage"`
	FeeAmount            decimal.Decimal `json:"fee_amount"`
	FeePercentage        decimal.Decimal `json:"fee_percentage"`
}

// SaveOrderRequest body para POST /api/orders y PUT /api/orders/:id.
// Version es obligatoria en la edición (control optimista).
type SaveOrderRequest struct {
	Version          int                        `json:"version,omitempty"`
	Number           string                     `json:"number"`
	Client           string                     `json:"client"`
	Brand            string                     `json:"brand,omitempty"`
	CampaignName     string                     `json:"campaign_name"`
	BusinessUnit     string                     `json:"business_unit"`
	BusinessCategory string                     `json:"business_category,omitempty"`
	Project          string                     `json:"project,omitempty"`
	Currency         string                     `json:"currency"`
	TotalSaleAmount  decimal.Decimal            `json:"total_sale_amount"`
	Programs         []ProgramAllocationRequest `json:"programs"`
}

// OrderStatusRequest body para cerrar/anular una orden.
type OrderStatusRequest struct {
	Version int `json:"version"`
}

// ProgramAllocationResponse fila de programa en respuestas.
type ProgramAllocationResponse struct {
	ID                   string          `json:"id"`
	Version              int             `json:"version"`
	ProgramName          string          `json:"program_name"`
	AllocatedAmount      decimal.Decimal `json:"allocated_amount"`
	ImplementationCap    decimal.Decimal `json:"implementation_cap"`
	TalentCap            decimal.Decimal `json:"talent_cap"`
	TechnicalCap         decimal.Decimal `json:"technical_cap"`
	CreditNoteAmount     decimal.Decimal `json:"credit_note_amount"`
	CreditNotePercentage decimal.Decimal `json:"credit_note_percentage"`
	FeeAmount            decimal.Decimal `json:"fee_amount"`
	FeePercentage        decimal.Decimal `json:"fee_percentage"`
}

// OrderResponse orden con sus filas.
type OrderResponse struct {
	ID               string                      `json:"id"`
	Version          int                         `json:"version"`
	Number           string                      `json:"number"`
	Client           string                      `json:"client"`
	Brand            string                      `json:"brand,omitempty"`
	CampaignName     string                      `json:"campaign_name"`
	BusinessUnit     string                      `json:"business_unit"`
	BusinessCategory string                      `json:"business_category,omitempty"`
	Project          string                      `json:"project,omitempty"`
	Currency         string                      `json:"currency"`
	TotalSaleAmount  decimal.Decimal             `json:"total_sale_amount"`
	TotalFormatted   string                      `json:"total_formatted"`
	Status           string                      `json:"status"`
	Programs         []ProgramAllocationResponse `json:"programs"`
	Warnings         []domain.Warning            `json:"warnings,omitempty"`
	CreatedBy        string                      `json:"created_by"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
}

// OrderListResponse página de órdenes.
type OrderListResponse struct {
	Items []OrderResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// AreaBudget consumo de un área dentro de una fila de programa.
type AreaBudget struct {
	Area       string           `json:"area"`
	CapField   string           `json:"cap_field"`
	Allocated  decimal.Decimal  `json:"allocated"`
	Executed   decimal.Decimal  `json:"executed"`
	Remaining  decimal.Decimal  `json:"remaining"`
	OverBudget bool             `json:"over_budget"`
	Overage    decimal.Decimal  `json:"overage"`
	Warnings   []domain.Warning `json:"warnings,omitempty"`
}

// ProgramBudget consumo de una fila de programa.
type ProgramBudget struct {
	ProgramID   string          `json:"program_id"`
	ProgramName string          `json:"program_name"`
	Allocated   decimal.Decimal `json:"allocated"`
	Executed    decimal.Decimal `json:"executed"`
	Remaining   decimal.Decimal `json:"remaining"`
	OverBudget  bool            `json:"over_budget"`
	Areas       []AreaBudget    `json:"areas"`
}

// OrderBudgetResponse resumen de presupuesto de la orden para GET /api/orders/:id/budget.
type OrderBudgetResponse struct {
	OrderID    string           `json:"order_id"`
	Currency   string           `json:"currency"`
	Total      decimal.Decimal  `json:"total"`
	Executed   decimal.Decimal  `json:"executed"`
	Remaining  decimal.Decimal  `json:"remaining"`
	OverBudget bool             `json:"over_budget"`
	Programs   []ProgramBudget  `json:"programs"`
	Warnings   []domain.Warning `json:"warnings,omitempty"`
}

// LinkedPercentageRequest body para POST /api/orders/linked-percentage.
type LinkedPercentageRequest struct {
	Row         ProgramAllocationRequest `json:"row"`
	Pair        string                   `json:"pair"`         // nota_credito | fee
	ChangedSide string                   `json:"changed_side"` // monto | porcentaje
}

// FieldsToResetRequest body para POST /api/orders/fields-to-reset.
type FieldsToResetRequest struct {
	Field    string `json:"field"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// FieldsToResetResponse campos dependientes que deben limpiarse.
type FieldsToResetResponse struct {
	Fields []string `json:"fields"`
}

// DraftOrderCheckResponse validación en vivo de una orden en edición (no persiste).
type DraftOrderCheckResponse struct {
	Errors   []domain.FieldError `json:"errors"`
	Warnings []domain.Warning    `json:"warnings"`
}
