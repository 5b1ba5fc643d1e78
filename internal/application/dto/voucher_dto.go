package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateVoucherRequest body para POST /api/vouchers (carga directa).
type CreateVoucherRequest struct {
	MovementType              string          `json:"movement_type"` // ingreso | egreso
	OriginOrderID             string          `json:"origin_order_id,omitempty"`
	CounterpartName           string          `json:"counterpart_name"`
	CounterpartTaxID          string          `json:"counterpart_tax_id"`
	DocumentType              string          `json:"document_type"`
	DocumentNumber            string          `json:"document_number"`
	DocumentDate              *time.Time      `json:"document_date,omitempty"`
	Currency                  string          `json:"currency,omitempty"`
	Net                       decimal.Decimal `json:"net"`
	IVARate                   decimal.Decimal `json:"iva_rate"`
	IVAAmount                 decimal.Decimal `json:"iva_amount"`
	Perceptions               decimal.Decimal `json:"perceptions"`
	IncomeTaxWithholding      decimal.Decimal `json:"income_tax_withholding"`
	GrossIncomeWithholding    decimal.Decimal `json:"gross_income_withholding"`
	IVAWithholding            decimal.Decimal `json:"iva_withholding"`
	SocialSecurityWithholding decimal.Decimal `json:"social_security_withholding"`
	PaymentTermsDays          int             `json:"payment_terms_days"`
	Observations              string          `json:"observations,omitempty"`
}

// UpdateVoucherRequest body para PUT /api/vouchers/:id. Campos nil no cambian.
type UpdateVoucherRequest struct {
	Version int `json:"version"`

	CounterpartName  *string          `json:"counterpart_name,omitempty"`
	CounterpartTaxID *string          `json:"counterpart_tax_id,omitempty"`
	DocumentType     *string          `json:"document_type,omitempty"`
	DocumentNumber   *string          `json:"document_number,omitempty"`
	DocumentDate     *time.Time       `json:"document_date,omitempty"`
	Net              *decimal.Decimal `json:"net,omitempty"`
	IVARate          *decimal.Decimal `json:"iva_rate,omitempty"`
	IVAAmount        *decimal.Decimal `json:"iva_amount,omitempty"`
	Perceptions      *decimal.Decimal `json:"perceptions,omitempty"`
	Observations     *string          `json:"observations,omitempty"`

	PaymentMethod             *string          `json:"payment_method,omitempty"`
	Bank                      *string          `json:"bank,omitempty"`
	OperationNumber           *string          `json:"operation_number,omitempty"`
	DueDate                   *time.Time       `json:"due_date,omitempty"`
	PaymentDate               *time.Time       `json:"payment_date,omitempty"`
	PaymentTermsDays          *int             `json:"payment_terms_days,omitempty"`
	IncomeTaxWithholding      *decimal.Decimal `json:"income_tax_withholding,omitempty"`
	GrossIncomeWithholding    *decimal.Decimal `json:"gross_income_withholding,omitempty"`
	IVAWithholding            *decimal.Decimal `json:"iva_withholding,omitempty"`
	SocialSecurityWithholding *decimal.Decimal `json:"social_security_withholding,omitempty"`
	AdminNote                 *string          `json:"admin_note,omitempty"`
}

// TransitionRequest body para las acciones de aprobación.
type TransitionRequest struct {
	Version int    `json:"version"`
	Note    string `json:"note,omitempty"`
}

// TransitionResponse registro de auditoría de un cambio de estado.
type TransitionResponse struct {
	From  string    `json:"from"`
	To    string    `json:"to"`
	Actor string    `json:"actor"`
	Note  string    `json:"note,omitempty"`
	At    time.Time `json:"at"`
}

// VoucherResponse comprobante con totales derivados y predicados de bloqueo.
type VoucherResponse struct {
	ID              string `json:"id"`
	Version         int    `json:"version"`
	MovementType    string `json:"movement_type"`
	OriginArea      string `json:"origin_area"`
	OriginOrderID   string `json:"origin_order_id,omitempty"`
	OriginProgramID string `json:"origin_program_id,omitempty"`
	OriginExpenseID string `json:"origin_expense_id,omitempty"`

	CounterpartName  string     `json:"counterpart_name"`
	CounterpartTaxID string     `json:"counterpart_tax_id"`
	DocumentType     string     `json:"document_type"`
	DocumentNumber   string     `json:"document_number"`
	DocumentDate     *time.Time `json:"document_date,omitempty"`

	Currency                  string          `json:"currency"`
	Net                       decimal.Decimal `json:"net"`
	IVARate                   decimal.Decimal `json:"iva_rate"`
	IVAAmount                 decimal.Decimal `json:"iva_amount"`
	Perceptions               decimal.Decimal `json:"perceptions"`
	Total                     decimal.Decimal `json:"total"`
	IncomeTaxWithholding      decimal.Decimal `json:"income_tax_withholding"`
	GrossIncomeWithholding    decimal.Decimal `json:"gross_income_withholding"`
	IVAWithholding            decimal.Decimal `json:"iva_withholding"`
	SocialSecurityWithholding decimal.Decimal `json:"social_security_withholding"`

	PaymentMethod    string     `json:"payment_method,omitempty"`
	Bank             string     `json:"bank,omitempty"`
	OperationNumber  string     `json:"operation_number,omitempty"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	PaymentDate      *time.Time `json:"payment_date,omitempty"`
	PaymentTermsDays int        `json:"payment_terms_days"`
	ProjectedDate    *time.Time `json:"projected_collection_date,omitempty"`

	ApprovalState   string          `json:"approval_state"`
	StateLabel      string          `json:"state_label"`
	NextStates      []string        `json:"next_states"`
	FinancialLocked bool            `json:"financial_locked"`
	AdminLocked     bool            `json:"admin_locked"`
	NetAmount       decimal.Decimal `json:"net_amount"` // neto a pagar (egreso) o a cobrar (ingreso)
	NetFormatted    string          `json:"net_amount_formatted"`

	Observations string               `json:"observations,omitempty"`
	AdminNote    string               `json:"admin_note,omitempty"`
	History      []TransitionResponse `json:"history"`
	CreatedBy    string               `json:"created_by"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// VoucherListResponse página de comprobantes.
type VoucherListResponse struct {
	Items []VoucherResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
