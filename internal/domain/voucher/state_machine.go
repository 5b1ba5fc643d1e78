// Package voucher implementa el circuito de aprobación de comprobantes: tabla de transiciones,
// bloqueo de campos según estado y totales derivados.
package voucher

import (
	"fmt"
	"time"

	"github.com/jhoicas/Presupuestos-api/internal/domain"
	"github.com/jhoicas/Presupuestos-api/internal/domain/entity"
)

// transitions grafo de estados permitido. rechazado y pagado son terminales.
var transitions = map[string][]string{
	entity.VoucherCreado:       {entity.VoucherAprobado, entity.VoucherRequiereInfo, entity.VoucherRechazado},
	entity.VoucherRequiereInfo: {entity.VoucherAprobado, entity.VoucherRechazado},
	entity.VoucherAprobado:     {entity.VoucherPagado},
	entity.VoucherRechazado:    nil,
	entity.VoucherPagado:       nil,
}

// ValidState indica si el estado pertenece al circuito.
func ValidState(state string) bool {
	_, ok := transitions[state]
	return ok
}

// CanTransition indica si target es alcanzable en un paso desde from.
func CanTransition(from, target string) bool {
	for _, s := range transitions[from] {
		if s == target {
			return true
		}
	}
	return false
}

// NextStates estados alcanzables desde state (para que la UI habilite acciones).
func NextStates(state string) []string {
	return append([]string(nil), transitions[state]...)
}

// IsTerminal indica si el estado no admite más transiciones.
func IsTerminal(state string) bool {
	next, ok := transitions[state]
	return ok && len(next) == 0
}

// Transition devuelve una copia del comprobante en el estado target y registra el cambio para auditoría.
// El comprobante recibido no se modifica.
func Transition(v entity.Comprobante, target, actor, note string, now time.Time) (entity.Comprobante, error) {
	if !CanTransition(v.ApprovalState, target) {
		return v, fmt.Errorf("%w: de %q a %q", domain.ErrInvalidTransition, v.ApprovalState, target)
	}
	out := v.Clone()
	out.History = append(out.History, entity.StateTransition{
		From:  v.ApprovalState,
		To:    target,
		Actor: actor,
		Note:  note,
		At:    now,
	})
	out.ApprovalState = target
	out.UpdatedAt = now
	return out, nil
}

// FinancialFieldsLocked bloquea proveedor, CUIT, documento y montos.
func FinancialFieldsLocked(state string) bool {
	switch state {
	case entity.VoucherAprobado, entity.VoucherRechazado, entity.VoucherPagado:
		return true
	}
	return false
}

// AdminFieldsLocked bloquea forma de pago, banco, número de operación, retenciones y nota administrativa.
// En aprobado siguen editables para preparar el pago.
func AdminFieldsLocked(state string) bool {
	switch state {
	case entity.VoucherRechazado, entity.VoucherPagado:
		return true
	}
	return false
}

// TerminalLabel nombre del estado final según el tipo de movimiento.
func TerminalLabel(movementType string) string {
	if movementType == entity.MovementIngreso {
		return "cobrado"
	}
	return "pagado"
}

// StateLabel etiqueta visible del estado (pagado se muestra como cobrado en ingresos).
func StateLabel(v entity.Comprobante) string {
	if v.ApprovalState == entity.VoucherPagado {
		return TerminalLabel(v.MovementType)
	}
	return v.ApprovalState
}
