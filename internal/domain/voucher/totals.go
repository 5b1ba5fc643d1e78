package voucher

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Presupuestos-api/internal/domain/entity"
)

var hundred = decimal.NewFromInt(100)

// NetToPay neto a pagar de un egreso: neto - IIBB - ganancias.
func NetToPay(v entity.Comprobante) decimal.Decimal {
	return v.Net.Sub(v.GrossIncomeWithholding).Sub(v.IncomeTaxWithholding)
}

// NetToCollect neto a cobrar de un ingreso: total - retenciones de IVA, IIBB, ganancias y SUSS.
func NetToCollect(v entity.Comprobante) decimal.Decimal {
	return v.Total.
		Sub(v.IVAWithholding).
		Sub(v.GrossIncomeWithholding).
		Sub(v.IncomeTaxWithholding).
		Sub(v.SocialSecurityWithholding)
}

// NetAmount neto a pagar o a cobrar según el tipo de movimiento. Siempre se recalcula.
func NetAmount(v entity.Comprobante) decimal.Decimal {
	if v.MovementType == entity.MovementIngreso {
		return NetToCollect(v)
	}
	return NetToPay(v)
}

// ComputeTotals completa IVA (si no vino informado) y total = neto + IVA + percepciones.
func ComputeTotals(v entity.Comprobante) entity.Comprobante {
	if v.IVAAmount.IsZero() && !v.IVARate.IsZero() {
		v.IVAAmount = v.Net.Mul(v.IVARate).Div(hundred).Round(2)
	}
	v.Total = v.Net.Add(v.IVAAmount).Add(v.Perceptions)
	return v
}

// ProjectedCollectionDate fecha estimada de cobro = fecha de factura + plazo. Solo informativa.
func ProjectedCollectionDate(invoiceDate *time.Time, paymentTermsDays int) (time.Time, bool) {
	if invoiceDate == nil || invoiceDate.IsZero() || paymentTermsDays <= 0 {
		return time.Time{}, false
	}
	return invoiceDate.AddDate(0, 0, paymentTermsDays), true
}
