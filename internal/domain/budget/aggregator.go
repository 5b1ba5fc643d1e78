// Package budget agrega líneas de gasto contra un monto asignado: ejecutado, disponible y sobre-ejecución.
package budget

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Presupuestos-api/internal/domain"
	"github.com/jhoicas/Presupuestos-api/internal/domain/allocation"
	"github.com/jhoicas/Presupuestos-api/internal/domain/entity"
)

// CancelledPolicy define si las líneas anuladas cuentan como ejecutado.
type CancelledPolicy int

const (
	// ExcludeCancelled política por defecto: las líneas anuladas no consumen presupuesto.
	ExcludeCancelled CancelledPolicy = iota
	IncludeCancelled
)

// ExecutedAmount suma el neto de todas las líneas recibidas, sin filtrar por estado.
func ExecutedAmount(lines []entity.ExpenseLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Net)
	}
	return total
}

// Executed suma el neto aplicando explícitamente la política de anuladas.
func Executed(lines []entity.ExpenseLine, policy CancelledPolicy) decimal.Decimal {
	if policy == IncludeCancelled {
		return ExecutedAmount(lines)
	}
	total := decimal.Zero
	for _, l := range lines {
		if l.IsCancelled() {
			continue
		}
		total = total.Add(l.Net)
	}
	return total
}

// RemainingBudget asignado - ejecutado; puede ser negativo.
func RemainingBudget(allocated, executed decimal.Decimal) decimal.Decimal {
	return allocated.Sub(executed)
}

// IsOverBudget ejecutado > asignado.
func IsOverBudget(allocated, executed decimal.Decimal) bool {
	return executed.GreaterThan(allocated)
}

// Summary estado de consumo de un monto asignado.
type Summary struct {
	Allocated  decimal.Decimal
	Executed   decimal.Decimal
	Remaining  decimal.Decimal
	OverBudget bool
	Overage    decimal.Decimal // cero si no hay sobre-ejecución
}

// Summarize calcula el resumen de consumo para un monto asignado y sus líneas.
func Summarize(allocated decimal.Decimal, lines []entity.ExpenseLine, policy CancelledPolicy) Summary {
	executed := Executed(lines, policy)
	s := Summary{
		Allocated:  allocated,
		Executed:   executed,
		Remaining:  RemainingBudget(allocated, executed),
		OverBudget: IsOverBudget(allocated, executed),
		Overage:    decimal.Zero,
	}
	if s.OverBudget {
		s.Overage = executed.Sub(allocated)
	}
	return s
}

// Warnings advertencias persistentes de un resumen (sobre-ejecución con el monto exacto).
func (s Summary) Warnings(field string) []domain.Warning {
	if !s.OverBudget {
		return nil
	}
	return []domain.Warning{{
		Field:   field,
		Row:     -1,
		Code:    domain.WarnOverBudget,
		Message: fmt.Sprintf("presupuesto excedido en %s", s.Overage.StringFixed(2)),
	}}
}

// CheckLineCap tope duro por línea: el neto de una línea nueva no puede superar por sí solo el sub-tope del área.
func CheckLineCap(capAmount, net decimal.Decimal) domain.ValidationErrors {
	var errs domain.ValidationErrors
	if net.GreaterThan(capAmount) {
		errs.Add("net", domain.CodeLineCapExceeded,
			fmt.Sprintf("el neto (%s) supera el tope asignado (%s) en %s",
				net.StringFixed(2), capAmount.StringFixed(2), net.Sub(capAmount).StringFixed(2)))
	}
	return errs
}

// ProjectedWarnings advertencia blanda si al sumar net el agregado quedaría sobre-ejecutado.
func ProjectedWarnings(s Summary, net decimal.Decimal, field string) []domain.Warning {
	projected := Summary{Allocated: s.Allocated, Executed: s.Executed.Add(net)}
	projected.Remaining = RemainingBudget(projected.Allocated, projected.Executed)
	projected.OverBudget = IsOverBudget(projected.Allocated, projected.Executed)
	if projected.OverBudget {
		projected.Overage = projected.Executed.Sub(projected.Allocated)
	}
	return projected.Warnings(field)
}

// DuplicateProgramWarnings advertencia en vivo (no bloqueante) por programas repetidos en la orden en edición.
func DuplicateProgramWarnings(rows []entity.ProgramAllocation) []domain.Warning {
	var out []domain.Warning
	seen := make(map[string]int, len(rows))
	for i, r := range rows {
		name := allocation.NormalizeProgramName(r.ProgramName)
		if name == "" {
			continue
		}
		if first, ok := seen[name]; ok {
			out = append(out, domain.Warning{
				Field:   "program_name",
				Row:     i,
				Code:    domain.WarnDuplicateProgram,
				Message: fmt.Sprintf("programa repetido (también en la fila %d)", first+1),
			})
			continue
		}
		seen[name] = i
	}
	return out
}
