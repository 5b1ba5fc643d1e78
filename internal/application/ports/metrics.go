package ports

// MetricsRecorder puerto para métricas del motor (implementado con Prometheus).
type MetricsRecorder interface {
	VoucherTransition(from, to string)
	ExpenseRejected(area, code string)
	OverBudget(area string)
	VersionConflict(entity string)
}

// NopMetrics no registra nada (tests y herramientas).
type NopMetrics struct{}

func (NopMetrics) VoucherTransition(string, string) {}
func (NopMetrics) ExpenseRejected(string, string)   {}
func (NopMetrics) OverBudget(string)                {}
func (NopMetrics) VersionConflict(string)           {}
