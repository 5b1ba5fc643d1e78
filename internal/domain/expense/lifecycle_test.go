package expense_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Presupuestos-api/internal/domain"
	"github.com/jhoicas/Presupuestos-api/internal/domain/entity"
	"github.com/jhoicas/Presupuestos-api/internal/domain/expense"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func order() *entity.CampaignOrder {
	return &entity.CampaignOrder{
		ID: "o1", Status: entity.OrderStatusAbierto, TotalSaleAmount: d("100000"),
		Programs: []entity.ProgramAllocation{
			{ID: "p1", ProgramName: "Mañanas", AllocatedAmount: d("60000"), ImplementationCap: d("30000"), TalentCap: d("20000"), TechnicalCap: d("10000")},
			{ID: "p2", ProgramName: "Noticiero", AllocatedAmount: d("40000")},
		},
	}
}

func techLine(net string) entity.ExpenseLine {
	return entity.ExpenseLine{
		Area: entity.AreaTecnica, OrderID: "o1", ProgramID: "p1", Net: d(net),
		CounterpartName: "Sonido SRL", Description: "Alquiler de equipos", Status: entity.LineStatusPendiente,
	}
}

// Escenario: una línea de 25000 contra el tope técnico de 10000 se rechaza al crearse.
func TestValidateNewLine_TopeDuroTecnica(t *testing.T) {
	cfg, ok := expense.Config(entity.AreaTecnica)
	require.True(t, ok)

	errs := expense.ValidateNewLine(cfg, techLine("25000"), order())
	require.Len(t, errs, 1)
	assert.Equal(t, domain.CodeLineCapExceeded, errs[0].Code)
	assert.ErrorIs(t, errs.Err(), domain.ErrCapExceeded)

	assert.Empty(t, expense.ValidateNewLine(cfg, techLine("10000"), order()))
}

func TestValidateNewLine_OrdenCerrada(t *testing.T) {
	cfg, _ := expense.Config(entity.AreaTecnica)
	for _, st := range []string{entity.OrderStatusCerrado, entity.OrderStatusAnulado} {
		o := order()
		o.Status = st
		errs := expense.ValidateNewLine(cfg, techLine("100"), o)
		assert.ErrorIs(t, errs.Err(), domain.ErrOrderClosed, st)
	}
}

func TestValidateNewLine_Standalone(t *testing.T) {
	prog, _ := expense.Config(entity.AreaProgramacion)
	line := entity.ExpenseLine{Area: entity.AreaProgramacion, Net: d("500"), CounterpartName: "Productora"}
	assert.Empty(t, expense.ValidateNewLine(prog, line, nil))

	tec, _ := expense.Config(entity.AreaTecnica)
	line.Area = entity.AreaTecnica
	line.Description = "x"
	errs := expense.ValidateNewLine(tec, line, nil)
	require.Len(t, errs, 1)
	assert.Equal(t, "order_id", errs[0].Field)
}

func TestValidateNewLine_ProgramaAjeno(t *testing.T) {
	cfg, _ := expense.Config(entity.AreaTalentos)
	line := entity.ExpenseLine{OrderID: "o1", ProgramID: "zz", Net: d("1"), CounterpartName: "a", CounterpartTaxID: "20-1"}
	errs := expense.ValidateNewLine(cfg, line, order())
	assert.True(t, errs.HasCode(domain.CodeProgramNotInOrder))
}

func TestValidateNewLine_Requeridos(t *testing.T) {
	cfg, _ := expense.Config(entity.AreaImplementacion)
	errs := expense.ValidateNewLine(cfg, entity.ExpenseLine{OrderID: "o1", ProgramID: "p1"}, order())
	fields := map[string]bool{}
	for _, e := range errs {
		fields[e.Field] = true
	}
	assert.True(t, fields["net"])
	assert.True(t, fields["counterpart_name"])
	assert.True(t, fields["counterpart_tax_id"])
}

func TestRequiredFieldErrors(t *testing.T) {
	cfg, _ := expense.Config(entity.AreaTecnica)
	line := techLine("100")
	assert.Empty(t, expense.RequiredFieldErrors(cfg, line))

	line.Description = "   "
	errs := expense.RequiredFieldErrors(cfg, line)
	require.Len(t, errs, 1)
	assert.Equal(t, "description", errs[0].Field)
	assert.True(t, errs.HasCode(domain.CodeRequired))
}

func TestChangeStatus(t *testing.T) {
	l := techLine("1")
	l, err := expense.ChangeStatus(l, entity.LineStatusActivo, order())
	require.NoError(t, err)
	assert.Equal(t, entity.LineStatusActivo, l.Status)

	_, err = expense.ChangeStatus(l, entity.LineStatusPendiente, order())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	closed := order()
	closed.Status = entity.OrderStatusCerrado
	_, err = expense.ChangeStatus(l, entity.LineStatusCerrado, closed)
	assert.ErrorIs(t, err, domain.ErrOrderClosed)
	_, err = expense.ChangeStatus(l, entity.LineStatusAnulado, closed)
	assert.NoError(t, err)
}

func TestFinancialFieldsLocked_PrecedenciaDeOrden(t *testing.T) {
	l := techLine("1")
	assert.False(t, expense.FinancialFieldsLocked(l, entity.OrderStatusAbierto))
	assert.True(t, expense.FinancialFieldsLocked(l, entity.OrderStatusCerrado))
	assert.True(t, expense.FinancialFieldsLocked(l, entity.OrderStatusAnulado))
	l.Status = entity.LineStatusAnulado
	assert.True(t, expense.FinancialFieldsLocked(l, entity.OrderStatusAbierto))
}

func TestCascadeOrderStatus(t *testing.T) {
	lines := []entity.ExpenseLine{
		{ID: "a", Status: entity.LineStatusActivo},
		{ID: "b", Status: entity.LineStatusPendiente},
		{ID: "c", Status: entity.LineStatusCerrado},
	}
	closed := expense.CascadeOrderStatus(lines, entity.OrderStatusCerrado)
	require.Len(t, closed, 1)
	assert.Equal(t, entity.LineStatusCerrado, closed[0].Status)

	annulled := expense.CascadeOrderStatus(lines, entity.OrderStatusAnulado)
	require.Len(t, annulled, 2)
	for _, l := range annulled {
		assert.Equal(t, entity.LineStatusAnulado, l.Status)
	}
	assert.Equal(t, entity.LineStatusActivo, lines[0].Status, "el slice original no se modifica")
}

func TestCanCloseOrder_YQuitarPrograma(t *testing.T) {
	lines := []entity.ExpenseLine{{ProgramID: "p1", Status: entity.LineStatusPendiente}, {ProgramID: "p2", Status: entity.LineStatusAnulado}}
	assert.NotEmpty(t, expense.CanCloseOrder(lines))
	assert.False(t, expense.CanRemoveProgram("p1", lines))
	assert.True(t, expense.CanRemoveProgram("p2", lines))
}
