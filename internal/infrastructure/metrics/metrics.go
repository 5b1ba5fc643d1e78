// Package metrics registra las métricas Prometheus del motor de presupuesto y aprobación.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jhoicas/Presupuestos-api/internal/application/ports"
)

var _ ports.MetricsRecorder = (*Metrics)(nil)

// Metrics contadores del motor.
type Metrics struct {
	// Transiciones de comprobantes por estado de origen y destino
	VoucherTransitions *prometheus.CounterVec

	// Líneas de gasto rechazadas al guardar, por área y código de validación
	ExpenseRejections *prometheus.CounterVec

	// Guardados que dejaron un área sobre-ejecutada
	OverBudgetSaves *prometheus.CounterVec

	// Conflictos de versión (edición concurrente) por entidad
	VersionConflicts *prometheus.CounterVec
}

// New registra las métricas en reg. En producción se pasa prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		VoucherTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "presupuestos_voucher_transitions_total",
			Help: "Total de transiciones de estado de comprobantes",
		}, []string{"from", "to"}),

		ExpenseRejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "presupuestos_expense_rejections_total",
			Help: "Líneas de gasto rechazadas por validación",
		}, []string{"area", "code"}),

		OverBudgetSaves: f.NewCounterVec(prometheus.CounterOpts{
			Name: "presupuestos_over_budget_saves_total",
			Help: "Guardados de gastos que dejaron el área sobre-ejecutada",
		}, []string{"area"}),

		VersionConflicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "presupuestos_version_conflicts_total",
			Help: "Escrituras rechazadas por versión desactualizada",
		}, []string{"entity"}),
	}
}

// VoucherTransition cuenta un cambio de estado de comprobante.
func (m *Metrics) VoucherTransition(from, to string) {
	if m != nil {
		m.VoucherTransitions.WithLabelValues(from, to).Inc()
	}
}

// ExpenseRejected cuenta una línea rechazada.
func (m *Metrics) ExpenseRejected(area, code string) {
	if m != nil {
		m.ExpenseRejections.WithLabelValues(area, code).Inc()
	}
}

// OverBudget cuenta un guardado con sobre-ejecución.
func (m *Metrics) OverBudget(area string) {
	if m != nil {
		m.OverBudgetSaves.WithLabelValues(area).Inc()
	}
}

// VersionConflict cuenta un conflicto de versión.
func (m *Metrics) VersionConflict(entity string) {
	if m != nil {
		m.VersionConflicts.WithLabelValues(entity).Inc()
	}
}
