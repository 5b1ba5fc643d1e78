// Package allocation contiene las reglas de distribución del monto de venta de una orden
// en filas de programa y sus sub-topes (implementación, talentos, técnica).
// Son funciones puras: no acceden a persistencia ni lanzan panics.
package allocation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Presupuestos-api/internal/domain"
	"github.com/jhoicas/Presupuestos-api/internal/domain/entity"
)

// ValidateOrder valida la orden completa antes de persistirla y devuelve un error por campo/fila.
// Una lista vacía significa que la orden puede guardarse.
func ValidateOrder(order entity.CampaignOrder) domain.ValidationErrors {
	var errs domain.ValidationErrors

	validateRequired(order, &errs)

	seen := make(map[string]int, len(order.Programs))
	sum := decimal.Zero
	for i, row := range order.Programs {
		sum = sum.Add(row.AllocatedAmount)

		name := NormalizeProgramName(row.ProgramName)
		if name == "" {
			errs.AddRow(i, "program_name", domain.CodeRequired, "el programa es obligatorio")
		} else if first, dup := seen[name]; dup {
			errs.AddRow(i, "program_name", domain.CodeDuplicateProgram,
				fmt.Sprintf("el programa %q ya está cargado en la fila %d", row.ProgramName, first+1))
		} else {
			seen[name] = i
		}

		validateRow(i, row, order.TotalSaleAmount, &errs)
	}

	if len(order.Programs) > 0 && !sum.Equal(order.TotalSaleAmount) {
		diff := order.TotalSaleAmount.Sub(sum)
		msg := fmt.Sprintf("la suma de los programas (%s) no coincide con el total de venta (%s): faltan %s",
			sum.StringFixed(2), order.TotalSaleAmount.StringFixed(2), diff.StringFixed(2))
		if diff.IsNegative() {
			msg = fmt.Sprintf("la suma de los programas (%s) no coincide con el total de venta (%s): exceso de %s",
				sum.StringFixed(2), order.TotalSaleAmount.StringFixed(2), diff.Abs().StringFixed(2))
		}
		errs.Add("total_sale_amount", domain.CodeTotalMismatch, msg)
	}
	return errs
}

func validateRequired(order entity.CampaignOrder, errs *domain.ValidationErrors) {
	if strings.TrimSpace(order.Client) == "" {
		errs.Add("client", domain.CodeRequired, "el cliente es obligatorio")
	}
	if strings.TrimSpace(order.CampaignName) == "" {
		errs.Add("campaign_name", domain.CodeRequired, "el nombre de campaña es obligatorio")
	}
	if strings.TrimSpace(order.BusinessUnit) == "" {
		errs.Add("business_unit", domain.CodeRequired, "la unidad de negocio es obligatoria")
	} else {
		applicable := ApplicableFields(order.BusinessUnit)
		if applicable.Project && strings.TrimSpace(order.Project) == "" {
			errs.Add("project", domain.CodeRequired, "el proyecto es obligatorio para esta unidad de negocio")
		}
		if applicable.BusinessCategory && strings.TrimSpace(order.BusinessCategory) == "" {
			errs.Add("business_category", domain.CodeRequired, "la categoría de negocio es obligatoria para esta unidad de negocio")
		}
	}
	if strings.TrimSpace(order.Currency) == "" {
		errs.Add("currency", domain.CodeRequired, "la moneda es obligatoria")
	}
	if !order.TotalSaleAmount.IsPositive() {
		errs.Add("total_sale_amount", domain.CodeRequired, "el total de venta debe ser mayor a cero")
	}
	if len(order.Programs) == 0 {
		errs.Add("programs", domain.CodeRequired, "la orden debe tener al menos un programa")
	}
}

func validateRow(i int, row entity.ProgramAllocation, total decimal.Decimal, errs *domain.ValidationErrors) {
	alloc := row.AllocatedAmount
	if !alloc.IsPositive() {
		errs.AddRow(i, "allocated_amount", domain.CodeRequired, "el monto asignado debe ser mayor a cero")
	} else if alloc.GreaterThan(total) {
		errs.AddRow(i, "allocated_amount", domain.CodeAboveTotal,
			fmt.Sprintf("el monto asignado (%s) supera el total de venta (%s)", alloc.StringFixed(2), total.StringFixed(2)))
	}

	caps := []struct {
		field string
		label string
		value decimal.Decimal
	}{
		{"implementation_cap", "implementación", row.ImplementationCap},
		{"talent_cap", "talentos", row.TalentCap},
		{"technical_cap", "técnica", row.TechnicalCap},
	}
	for _, c := range caps {
		if c.value.IsNegative() {
			errs.AddRow(i, c.field, domain.CodeNegative, fmt.Sprintf("el tope de %s no puede ser negativo", c.label))
			continue
		}
		if c.value.GreaterThan(alloc) {
			errs.AddRow(i, c.field, domain.CodeCapAboveAllocated,
				fmt.Sprintf("el tope de %s (%s) supera el monto asignado (%s)", c.label, c.value.StringFixed(2), alloc.StringFixed(2)))
		}
	}

	if capsTotal := row.CapsTotal(); capsTotal.GreaterThan(alloc) {
		errs.AddRow(i, "caps", domain.CodeSubCapOverflow,
			fmt.Sprintf("programa %q: implementación + talentos + técnica (%s) supera el monto asignado (%s) en %s",
				row.ProgramName, capsTotal.StringFixed(2), alloc.StringFixed(2), capsTotal.Sub(alloc).StringFixed(2)))
	}

	if !LinkedPairConsistent(alloc, row.CreditNoteAmount, row.CreditNotePercentage) {
		errs.AddRow(i, "credit_note_amount", domain.CodeLinkedMismatch, "el monto de nota de crédito no coincide con su porcentaje")
	}
	if !LinkedPairConsistent(alloc, row.FeeAmount, row.FeePercentage) {
		errs.AddRow(i, "fee_amount", domain.CodeLinkedMismatch, "el monto de fee no coincide con su porcentaje")
	}
}

// NormalizeProgramName normaliza el nombre para comparar duplicados (sin mayúsculas ni espacios extra).
func NormalizeProgramName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
