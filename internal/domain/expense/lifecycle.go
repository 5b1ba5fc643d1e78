// Package expense define el motor genérico de líneas de gasto por área: configuración por área,
// ciclo de vida pendiente/activo/cerrado/anulado y su relación con el estado de la orden.
package expense

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Presupuestos-api/internal/domain"
	"github.com/jhoicas/Presupuestos-api/internal/domain/budget"
	"github.com/jhoicas/Presupuestos-api/internal/domain/entity"
)

// AreaConfig parametriza el motor para un área.
type AreaConfig struct {
	Area string
	// CapOf devuelve el sub-tope de la fila de programa que aplica al área.
	CapOf func(entity.ProgramAllocation) decimal.Decimal
	// CapField nombre del campo del sub-tope (para mensajes y advertencias).
	CapField string
	// RequiresOrder false permite líneas sin orden ni programa.
	RequiresOrder  bool
	RequiredFields []string
}

var areas = map[string]AreaConfig{
	entity.AreaTecnica: {
		Area:           entity.AreaTecnica,
		CapOf:          func(p entity.ProgramAllocation) decimal.Decimal { return p.TechnicalCap },
		CapField:       "technical_cap",
		RequiresOrder:  true,
		RequiredFields: []string{"counterpart_name", "description"},
	},
	entity.AreaImplementacion: {
		Area:           entity.AreaImplementacion,
		CapOf:          func(p entity.ProgramAllocation) decimal.Decimal { return p.ImplementationCap },
		CapField:       "implementation_cap",
		RequiresOrder:  true,
		RequiredFields: []string{"counterpart_name", "counterpart_tax_id"},
	},
	entity.AreaTalentos: {
		Area:           entity.AreaTalentos,
		CapOf:          func(p entity.ProgramAllocation) decimal.Decimal { return p.TalentCap },
		CapField:       "talent_cap",
		RequiresOrder:  true,
		RequiredFields: []string{"counterpart_name", "counterpart_tax_id"},
	},
	entity.AreaProgramacion: {
		Area:           entity.AreaProgramacion,
		CapOf:          func(p entity.ProgramAllocation) decimal.Decimal { return p.AllocatedAmount },
		CapField:       "allocated_amount",
		RequiresOrder:  false,
		RequiredFields: []string{"counterpart_name"},
	},
	entity.AreaExperience: {
		Area:           entity.AreaExperience,
		CapOf:          func(p entity.ProgramAllocation) decimal.Decimal { return p.AllocatedAmount },
		CapField:       "allocated_amount",
		RequiresOrder:  false,
		RequiredFields: []string{"counterpart_name", "description"},
	},
}

// Config devuelve la configuración del área.
func Config(area string) (AreaConfig, bool) {
	cfg, ok := areas[area]
	return cfg, ok
}

// Areas lista las áreas registradas.
func Areas() []string {
	return []string{entity.AreaTecnica, entity.AreaImplementacion, entity.AreaTalentos, entity.AreaProgramacion, entity.AreaExperience}
}

// lineTransitions ciclo de vida de una línea. cerrado y anulado son terminales.
var lineTransitions = map[string][]string{
	entity.LineStatusPendiente: {entity.LineStatusActivo, entity.LineStatusAnulado},
	entity.LineStatusActivo:    {entity.LineStatusCerrado, entity.LineStatusAnulado},
	entity.LineStatusCerrado:   nil,
	entity.LineStatusAnulado:   nil,
}

// CanChangeStatus indica si la línea puede pasar de from a to.
func CanChangeStatus(from, to string) bool {
	for _, s := range lineTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ChangeStatus valida el cambio de estado de la línea considerando el estado de la orden.
func ChangeStatus(line entity.ExpenseLine, to string, order *entity.CampaignOrder) (entity.ExpenseLine, error) {
	if !CanChangeStatus(line.Status, to) {
		return line, fmt.Errorf("%w: línea de %q a %q", domain.ErrInvalidTransition, line.Status, to)
	}
	// Con la orden cerrada o anulada solo se permite anular.
	if order != nil && !order.IsOpen() && to != entity.LineStatusAnulado {
		return line, domain.ErrOrderClosed
	}
	line.Status = to
	return line, nil
}

// ValidateNewLine valida la creación de una línea: campos requeridos, orden abierta,
// programa perteneciente a la orden y tope duro por línea del área.
// order puede ser nil para líneas standalone de áreas que lo permiten.
func ValidateNewLine(cfg AreaConfig, line entity.ExpenseLine, order *entity.CampaignOrder) domain.ValidationErrors {
	var errs domain.ValidationErrors

	if !line.Net.IsPositive() {
		errs.Add("net", domain.CodeRequired, "el neto debe ser mayor a cero")
	}
	errs = append(errs, RequiredFieldErrors(cfg, line)...)

	if line.OrderID == "" {
		if cfg.RequiresOrder {
			errs.Add("order_id", domain.CodeRequired, "el área "+cfg.Area+" requiere una orden")
		}
		return errs
	}
	if order == nil {
		errs.Add("order_id", domain.CodeInvalidValue, "la orden no existe")
		return errs
	}
	if !order.IsOpen() {
		errs.Add("order_id", domain.CodeOrderClosed, "no se pueden cargar gastos en una orden "+order.Status)
		return errs
	}
	if line.ProgramID == "" {
		if cfg.RequiresOrder {
			errs.Add("program_id", domain.CodeRequired, "el programa es obligatorio")
		}
		return errs
	}
	row, _ := order.Program(line.ProgramID)
	if row == nil {
		errs.Add("program_id", domain.CodeProgramNotInOrder, "el programa no pertenece a la orden")
		return errs
	}
	if line.Net.IsPositive() {
		errs = append(errs, budget.CheckLineCap(cfg.CapOf(*row), line.Net)...)
	}
	return errs
}

// RequiredFieldErrors marca los campos obligatorios del área que la línea deja vacíos.
func RequiredFieldErrors(cfg AreaConfig, line entity.ExpenseLine) domain.ValidationErrors {
	var errs domain.ValidationErrors
	for _, f := range cfg.RequiredFields {
		if strings.TrimSpace(fieldValue(line, f)) == "" {
			errs.Add(f, domain.CodeRequired, "campo obligatorio")
		}
	}
	return errs
}

func fieldValue(line entity.ExpenseLine, field string) string {
	switch field {
	case "counterpart_name":
		return line.CounterpartName
	case "counterpart_tax_id":
		return line.CounterpartTaxID
	case "description":
		return line.Description
	}
	return ""
}

// FinancialFieldsLocked la orden cerrada/anulada bloquea los campos financieros de sus líneas
// con precedencia sobre el estado propio de la línea.
func FinancialFieldsLocked(line entity.ExpenseLine, orderStatus string) bool {
	if orderStatus == entity.OrderStatusCerrado || orderStatus == entity.OrderStatusAnulado {
		return true
	}
	return line.Status == entity.LineStatusCerrado || line.Status == entity.LineStatusAnulado
}

// OrderLocked indica si el estado de la orden bloquea los campos financieros de sus derivados.
func OrderLocked(orderStatus string) bool {
	return orderStatus == entity.OrderStatusCerrado || orderStatus == entity.OrderStatusAnulado
}

// CanCloseOrder una orden no puede cerrarse mientras tenga líneas pendientes.
func CanCloseOrder(lines []entity.ExpenseLine) domain.ValidationErrors {
	var errs domain.ValidationErrors
	pending := 0
	for _, l := range lines {
		if l.Status == entity.LineStatusPendiente {
			pending++
		}
	}
	if pending > 0 {
		errs.Add("status", domain.CodeInvalidValue, fmt.Sprintf("la orden tiene %d gasto(s) pendiente(s)", pending))
	}
	return errs
}

// CascadeOrderStatus acompaña el cambio de estado de la orden: al cerrar, las líneas activas se cierran;
// al anular, las pendientes y activas se anulan. Devuelve solo las líneas modificadas.
func CascadeOrderStatus(lines []entity.ExpenseLine, orderStatus string) []entity.ExpenseLine {
	var changed []entity.ExpenseLine
	for _, l := range lines {
		switch {
		case orderStatus == entity.OrderStatusCerrado && l.Status == entity.LineStatusActivo:
			l.Status = entity.LineStatusCerrado
		case orderStatus == entity.OrderStatusAnulado &&
			(l.Status == entity.LineStatusActivo || l.Status == entity.LineStatusPendiente):
			l.Status = entity.LineStatusAnulado
		default:
			continue
		}
		changed = append(changed, l)
	}
	return changed
}

// CanRemoveProgram una fila de programa con gastos no anulados no puede quitarse de la orden.
func CanRemoveProgram(programID string, lines []entity.ExpenseLine) bool {
	for _, l := range lines {
		if l.ProgramID == programID && !l.IsCancelled() {
			return false
		}
	}
	return true
}
