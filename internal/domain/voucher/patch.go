package voucher

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Presupuestos-api/internal/domain"
	"github.com/jhoicas/Presupuestos-api/internal/domain/entity"
)

// Patch edición parcial de un comprobante; nil = campo sin cambios.
type Patch struct {
	// Campos financieros (del área de origen).
	CounterpartName  *string
	CounterpartTaxID *string
	DocumentType     *string
	DocumentNumber   *string
	DocumentDate     *time.Time
	Net              *decimal.Decimal
	IVARate          *decimal.Decimal
	IVAAmount        *decimal.Decimal
	Perceptions      *decimal.Decimal
	Observations     *string

	// Campos administrativos.
	PaymentMethod             *string
	Bank                      *string
	OperationNumber           *string
	DueDate                   *time.Time
	PaymentDate               *time.Time
	PaymentTermsDays          *int
	IncomeTaxWithholding      *decimal.Decimal
	GrossIncomeWithholding    *decimal.Decimal
	IVAWithholding            *decimal.Decimal
	SocialSecurityWithholding *decimal.Decimal
	AdminNote                 *string
}

// Locks resultado de evaluar los predicados de bloqueo para un comprobante.
type Locks struct {
	Financial bool `json:"financial"`
	Admin     bool `json:"admin"`
}

// LocksFor evalúa los bloqueos; orderLocked (orden cerrada o anulada) fuerza el bloqueo financiero.
func LocksFor(state string, orderLocked bool) Locks {
	return Locks{
		Financial: orderLocked || FinancialFieldsLocked(state),
		Admin:     AdminFieldsLocked(state),
	}
}

// HasAdminChanges indica si el patch toca campos administrativos.
func (p Patch) HasAdminChanges() bool {
	return len(p.adminFields()) > 0
}

func (p Patch) financialFields() []string {
	var f []string
	add := func(set bool, name string) {
		if set {
			f = append(f, name)
		}
	}
	add(p.CounterpartName != nil, "counterpart_name")
	add(p.CounterpartTaxID != nil, "counterpart_tax_id")
	add(p.DocumentType != nil, "document_type")
	add(p.DocumentNumber != nil, "document_number")
	add(p.DocumentDate != nil, "document_date")
	add(p.Net != nil, "net")
	add(p.IVARate != nil, "iva_rate")
	add(p.IVAAmount != nil, "iva_amount")
	add(p.Perceptions != nil, "perceptions")
	add(p.Observations != nil, "observations")
	return f
}

func (p Patch) adminFields() []string {
	var f []string
	add := func(set bool, name string) {
		if set {
			f = append(f, name)
		}
	}
	add(p.PaymentMethod != nil, "payment_method")
	add(p.Bank != nil, "bank")
	add(p.OperationNumber != nil, "operation_number")
	add(p.DueDate != nil, "due_date")
	add(p.PaymentDate != nil, "payment_date")
	add(p.PaymentTermsDays != nil, "payment_terms_days")
	add(p.IncomeTaxWithholding != nil, "income_tax_withholding")
	add(p.GrossIncomeWithholding != nil, "gross_income_withholding")
	add(p.IVAWithholding != nil, "iva_withholding")
	add(p.SocialSecurityWithholding != nil, "social_security_withholding")
	add(p.AdminNote != nil, "admin_note")
	return f
}

// ApplyPatch aplica la edición respetando los bloqueos. Si algún campo está bloqueado o es inválido
// devuelve el comprobante original y un error por campo.
func ApplyPatch(v entity.Comprobante, p Patch, orderLocked bool, now time.Time) (entity.Comprobante, domain.ValidationErrors) {
	var errs domain.ValidationErrors
	locks := LocksFor(v.ApprovalState, orderLocked)

	if locks.Financial {
		for _, f := range p.financialFields() {
			errs.Add(f, domain.CodeLocked, "campo bloqueado: "+lockReason(v.ApprovalState, orderLocked))
		}
	}
	if locks.Admin {
		for _, f := range p.adminFields() {
			errs.Add(f, domain.CodeLocked, "campo bloqueado: comprobante en estado "+v.ApprovalState)
		}
	}

	nonNegative := []struct {
		field string
		value *decimal.Decimal
	}{
		{"net", p.Net}, {"iva_rate", p.IVARate}, {"iva_amount", p.IVAAmount}, {"perceptions", p.Perceptions},
		{"income_tax_withholding", p.IncomeTaxWithholding}, {"gross_income_withholding", p.GrossIncomeWithholding},
		{"iva_withholding", p.IVAWithholding}, {"social_security_withholding", p.SocialSecurityWithholding},
	}
	for _, n := range nonNegative {
		if n.value != nil && n.value.IsNegative() {
			errs.Add(n.field, domain.CodeNegative, "el importe no puede ser negativo")
		}
	}
	if p.PaymentTermsDays != nil && *p.PaymentTermsDays < 0 {
		errs.Add("payment_terms_days", domain.CodeNegative, "el plazo no puede ser negativo")
	}
	if len(errs) > 0 {
		return v, errs
	}

	out := v.Clone()
	setStr(&out.CounterpartName, p.CounterpartName)
	setStr(&out.CounterpartTaxID, p.CounterpartTaxID)
	setStr(&out.DocumentType, p.DocumentType)
	setStr(&out.DocumentNumber, p.DocumentNumber)
	setStr(&out.Observations, p.Observations)
	setStr(&out.PaymentMethod, p.PaymentMethod)
	setStr(&out.Bank, p.Bank)
	setStr(&out.OperationNumber, p.OperationNumber)
	setStr(&out.AdminNote, p.AdminNote)
	setTime(&out.DocumentDate, p.DocumentDate)
	setTime(&out.DueDate, p.DueDate)
	setTime(&out.PaymentDate, p.PaymentDate)
	if p.PaymentTermsDays != nil {
		out.PaymentTermsDays = *p.PaymentTermsDays
	}
	setDec(&out.IncomeTaxWithholding, p.IncomeTaxWithholding)
	setDec(&out.GrossIncomeWithholding, p.GrossIncomeWithholding)
	setDec(&out.IVAWithholding, p.IVAWithholding)
	setDec(&out.SocialSecurityWithholding, p.SocialSecurityWithholding)

	if p.Net != nil || p.IVARate != nil || p.IVAAmount != nil || p.Perceptions != nil {
		setDec(&out.Net, p.Net)
		setDec(&out.IVARate, p.IVARate)
		setDec(&out.Perceptions, p.Perceptions)
		switch {
		case p.IVAAmount != nil:
			out.IVAAmount = *p.IVAAmount
		case p.IVARate != nil || (p.Net != nil && !out.IVARate.IsZero()):
			out.IVAAmount = decimal.Zero // se recalcula desde la alícuota
		}
		// Sin alícuota ni cambios de base, el IVA cargado como monto se conserva.
		out = ComputeTotals(out)
	}
	out.UpdatedAt = now
	return out, nil
}

func lockReason(state string, orderLocked bool) string {
	if orderLocked {
		return "la orden de origen está cerrada o anulada"
	}
	return "comprobante en estado " + state
}

func setStr(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setDec(dst *decimal.Decimal, src *decimal.Decimal) {
	if src != nil {
		*dst = *src
	}
}

func setTime(dst **time.Time, src *time.Time) {
	if src != nil {
		t := *src
		*dst = &t
	}
}
