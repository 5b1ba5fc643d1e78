package allocation

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Presupuestos-api/internal/domain/entity"
)

// Pares monto/porcentaje vinculados de una fila de programa.
const (
	PairCreditNote = "nota_credito"
	PairFee        = "fee"
)

// Lado del par editado por el usuario.
const (
	SideAmount     = "monto"
	SidePercentage = "porcentaje"
)

// Precisión monetaria y de porcentajes.
const (
	currencyPlaces   = 2
	percentagePlaces = 2
)

var hundred = decimal.NewFromInt(100)

// AmountFor calcula monto = base * pct / 100, truncado a centavos.
func AmountFor(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(hundred).Truncate(currencyPlaces)
}

// PercentageFor calcula pct = monto / base * 100, redondeado a 2 decimales. Base cero devuelve cero.
func PercentageFor(base, amount decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		return decimal.Zero
	}
	return amount.Mul(hundred).Div(base).Round(percentagePlaces)
}

// LinkedPairConsistent indica si monto y porcentaje se corresponden dentro del redondeo.
// El porcentaje tiene 2 decimales, por lo que el monto derivado puede diferir hasta base*0.005/100 más un centavo.
func LinkedPairConsistent(base, amount, pct decimal.Decimal) bool {
	if base.IsZero() {
		return amount.IsZero()
	}
	tolerance := base.Abs().Mul(decimal.RequireFromString("0.00005")).Add(decimal.New(1, -currencyPlaces))
	return base.Mul(pct).Div(hundred).Sub(amount).Abs().LessThanOrEqual(tolerance)
}

// RecomputeLinkedPercentage recalcula el lado opuesto del par editado.
// Pares o lados desconocidos devuelven la fila sin cambios.
func RecomputeLinkedPercentage(row entity.ProgramAllocation, pair, changedSide string) entity.ProgramAllocation {
	var amount, pct *decimal.Decimal
	switch pair {
	case PairCreditNote:
		amount, pct = &row.CreditNoteAmount, &row.CreditNotePercentage
	case PairFee:
		amount, pct = &row.FeeAmount, &row.FeePercentage
	default:
		return row
	}

	base := row.AllocatedAmount
	switch changedSide {
	case SideAmount:
		*amount = amount.Truncate(currencyPlaces)
		*pct = PercentageFor(base, *amount)
	case SidePercentage:
		*pct = pct.Round(percentagePlaces)
		if base.IsZero() {
			*amount = decimal.Zero
		} else {
			*amount = AmountFor(base, *pct)
		}
	}
	return row
}

// RecomputeAllLinked recalcula ambos pares a partir de sus porcentajes (al cambiar el monto asignado).
func RecomputeAllLinked(row entity.ProgramAllocation) entity.ProgramAllocation {
	row = RecomputeLinkedPercentage(row, PairCreditNote, SidePercentage)
	return RecomputeLinkedPercentage(row, PairFee, SidePercentage)
}
