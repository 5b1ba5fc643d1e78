package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Presupuestos-api/internal/domain"
)

// CreateExpenseRequest body para POST /api/expenses/:area.
// OrderID y ProgramID son opcionales en las áreas que admiten gastos sin orden.
type CreateExpenseRequest struct {
	OrderID          string          `json:"order_id,omitempty"`
	ProgramID        string          `json:"program_id,omitempty"`
	Description      string          `json:"description"`
	Net              decimal.Decimal `json:"net"`
	CounterpartName  string          `json:"counterpart_name"`
	CounterpartTaxID string          `json:"counterpart_tax_id"`
}

// UpdateExpenseRequest body para PUT /api/expenses/:area/:id. Campos nil no cambian.
type UpdateExpenseRequest struct {
	Version          int              `json:"version"`
	Description      *string          `json:"description,omitempty"`
	Net              *decimal.Decimal `json:"net,omitempty"`
	CounterpartName  *string          `json:"counterpart_name,omitempty"`
	CounterpartTaxID *string          `json:"counterpart_tax_id,omitempty"`
}

// ExpenseStatusRequest body para PATCH /api/expenses/:area/:id/status.
type ExpenseStatusRequest struct {
	Version int    `json:"version"`
	Status  string `json:"status"`
}

// PromoteExpenseRequest body para POST /api/expenses/:area/:id/voucher.
type PromoteExpenseRequest struct {
	Version        int             `json:"version"`
	DocumentType   string          `json:"document_type"`
	DocumentNumber string          `json:"document_number"`
	DocumentDate   *time.Time      `json:"document_date,omitempty"`
	IVARate        decimal.Decimal `json:"iva_rate"`
	Perceptions    decimal.Decimal `json:"perceptions"`
	Observations   string          `json:"observations,omitempty"`
}

// ExpenseResponse línea de gasto con su estado de bloqueo y advertencias de presupuesto.
type ExpenseResponse struct {
	ID               string           `json:"id"`
	Version          int              `json:"version"`
	Area             string           `json:"area"`
	OrderID          string           `json:"order_id,omitempty"`
	ProgramID        string           `json:"program_id,omitempty"`
	Description      string           `json:"description"`
	Net              decimal.Decimal  `json:"net"`
	CounterpartName  string           `json:"counterpart_name"`
	CounterpartTaxID string           `json:"counterpart_tax_id"`
	Status           string           `json:"status"`
	VoucherID        string           `json:"voucher_id,omitempty"`
	FinancialLocked  bool             `json:"financial_locked"`
	Warnings         []domain.Warning `json:"warnings,omitempty"`
	CreatedBy        string           `json:"created_by"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
