package budget_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Presupuestos-api/internal/domain"
	"github.com/jhoicas/Presupuestos-api/internal/domain/budget"
	"github.com/jhoicas/Presupuestos-api/internal/domain/entity"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func lines() []entity.ExpenseLine {
	return []entity.ExpenseLine{
		{Net: d("1000"), Status: entity.LineStatusActivo},
		{Net: d("2500.50"), Status: entity.LineStatusPendiente},
		{Net: d("700"), Status: entity.LineStatusAnulado},
	}
}

func TestExecutedAmount_NoFiltra(t *testing.T) {
	assert.True(t, budget.ExecutedAmount(lines()).Equal(d("4200.50")))
	assert.True(t, budget.ExecutedAmount(nil).IsZero())
}

func TestExecuted_PoliticaDeAnuladas(t *testing.T) {
	assert.True(t, budget.Executed(lines(), budget.ExcludeCancelled).Equal(d("3500.50")))
	assert.True(t, budget.Executed(lines(), budget.IncludeCancelled).Equal(d("4200.50")))
}

func TestRemainingBudget_PuedeSerNegativo(t *testing.T) {
	assert.True(t, budget.RemainingBudget(d("1000"), d("1500")).Equal(d("-500")))
}

// Propiedad: IsOverBudget(a, e) == e > a, incluyendo negativos y cero.
func TestIsOverBudget_Propiedad(t *testing.T) {
	values := []string{"-100", "-0.01", "0", "0.01", "100", "100.00", "99999.99"}
	for _, a := range values {
		for _, e := range values {
			assert.Equal(t, d(e).GreaterThan(d(a)), budget.IsOverBudget(d(a), d(e)), "a=%s e=%s", a, e)
		}
	}
}

func TestSummarize_SobreEjecucionConMonto(t *testing.T) {
	s := budget.Summarize(d("3000"), lines(), budget.ExcludeCancelled)
	assert.True(t, s.OverBudget)
	assert.True(t, s.Overage.Equal(d("500.50")))
	w := s.Warnings("technical_cap")
	require.Len(t, w, 1)
	assert.Equal(t, domain.WarnOverBudget, w[0].Code)
	assert.Contains(t, w[0].Message, "500.50")

	ok := budget.Summarize(d("5000"), lines(), budget.ExcludeCancelled)
	assert.False(t, ok.OverBudget)
	assert.Nil(t, ok.Warnings("x"))
}

func TestCheckLineCap_TopeDuro(t *testing.T) {
	errs := budget.CheckLineCap(d("10000"), d("25000"))
	require.Len(t, errs, 1)
	assert.Equal(t, domain.CodeLineCapExceeded, errs[0].Code)
	assert.ErrorIs(t, errs.Err(), domain.ErrCapExceeded)

	assert.Empty(t, budget.CheckLineCap(d("10000"), d("10000")))
}

func TestProjectedWarnings(t *testing.T) {
	s := budget.Summarize(d("4000"), lines(), budget.ExcludeCancelled) // ejecutado 3500.50
	assert.Empty(t, budget.ProjectedWarnings(s, d("499.50"), "net"))
	assert.Len(t, budget.ProjectedWarnings(s, d("500"), "net"), 1)
}

func TestDuplicateProgramWarnings(t *testing.T) {
	rows := []entity.ProgramAllocation{
		{ProgramName: "Mañanas"}, {ProgramName: "Noche"}, {ProgramName: "MAÑANAS"}, {ProgramName: ""},
	}
	w := budget.DuplicateProgramWarnings(rows)
	require.Len(t, w, 1)
	assert.Equal(t, 2, w[0].Row)
	assert.Equal(t, domain.WarnDuplicateProgram, w[0].Code)
}
