package expenses_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Presupuestos-api/internal/application/dto"
	"github.com/jhoicas/Presupuestos-api/internal/application/expenses"
	"github.com/jhoicas/Presupuestos-api/internal/application/vouchers"
	"github.com/jhoicas/Presupuestos-api/internal/domain"
	"github.com/jhoicas/Presupuestos-api/internal/domain/entity"
	"github.com/jhoicas/Presupuestos-api/internal/domain/repository"
	"github.com/jhoicas/Presupuestos-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

type fixture struct {
	uc    *expenses.ExpenseUseCase
	store *memory.Store
	order entity.CampaignOrder
}

// setup crea una orden abierta de 100000 con el programa p1 (técnica 10000) y p2 sin sub-topes.
func setup(t *testing.T) fixture {
	t.Helper()
	store := memory.NewStore()
	order := entity.CampaignOrder{
		ID: "o1", Number: "OP-1", Client: "Cliente", CampaignName: "Campaña", BusinessUnit: "medios",
		Currency: "USD", TotalSaleAmount: d("100000"), Status: entity.OrderStatusAbierto, Version: 1,
		Programs: []entity.ProgramAllocation{
			{ID: "p1", OrderID: "o1", ProgramName: "Mañanas", AllocatedAmount: d("60000"), ImplementationCap: d("30000"), TalentCap: d("20000"), TechnicalCap: d("10000"), Version: 1},
			{ID: "p2", OrderID: "o1", ProgramName: "Noticiero", AllocatedAmount: d("40000"), Version: 1},
		},
	}
	require.NoError(t, memory.NewOrderRepository(store).Create(context.Background(), &order))
	uc := expenses.NewExpenseUseCase(
		memory.NewTxRunner(store),
		memory.NewOrderRepository(store),
		memory.NewExpenseLineRepository(store),
		nil, nil, nil, "ARS",
	)
	return fixture{uc: uc, store: store, order: order}
}

func techRequest(net string) dto.CreateExpenseRequest {
	return dto.CreateExpenseRequest{
		OrderID: "o1", ProgramID: "p1", Description: "Alquiler de equipos",
		Net: d(net), CounterpartName: "Sonido SRL", CounterpartTaxID: "30-12345678-9",
	}
}

func setOrderStatus(t *testing.T, f fixture, status string) {
	t.Helper()
	require.NoError(t, memory.NewOrderRepository(f.store).UpdateStatus(context.Background(), "o1", status, f.order.Version))
}

// ──────────────────────────────────────────────────────────────────────────────
// Alta
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_TopeDuroPorLinea(t *testing.T) {
	f := setup(t)
	_, err := f.uc.Create(context.Background(), "u1", entity.AreaTecnica, techRequest("25000"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCapExceeded)

	list, err := f.uc.List(context.Background(), entity.AreaTecnica, repository.ExpenseFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreate_SobreEjecucionAgregadaEsAdvertencia(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	first, err := f.uc.Create(ctx, "u1", entity.AreaTecnica, techRequest("6000"))
	require.NoError(t, err)
	assert.Empty(t, first.Warnings)
	assert.Equal(t, entity.LineStatusPendiente, first.Status)

	second, err := f.uc.Create(ctx, "u1", entity.AreaTecnica, techRequest("5000"))
	require.NoError(t, err, "la sobre-ejecución del agregado no bloquea")
	require.Len(t, second.Warnings, 1)
	assert.Equal(t, domain.WarnOverBudget, second.Warnings[0].Code)
	assert.Contains(t, second.Warnings[0].Message, "1000.00")
}

func TestCreate_OrdenCerradaRechaza(t *testing.T) {
	f := setup(t)
	setOrderStatus(t, f, entity.OrderStatusCerrado)
	_, err := f.uc.Create(context.Background(), "u1", entity.AreaTecnica, techRequest("100"))
	assert.ErrorIs(t, err, domain.ErrOrderClosed)
}

func TestCreate_AreaDesconocida(t *testing.T) {
	f := setup(t)
	_, err := f.uc.Create(context.Background(), "u1", "marketing", techRequest("100"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreate_StandaloneProgramacion(t *testing.T) {
	f := setup(t)
	out, err := f.uc.Create(context.Background(), "u1", entity.AreaProgramacion, dto.CreateExpenseRequest{
		Net: d("1500"), CounterpartName: "Productora",
	})
	require.NoError(t, err)
	assert.Empty(t, out.OrderID)
}

func TestCreateBatch_Atomico(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.uc.CreateBatch(ctx, "u1", entity.AreaTecnica, []dto.CreateExpenseRequest{
		techRequest("1000"), techRequest("50000"),
	})
	require.Error(t, err)
	var verrs domain.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, 1, verrs[0].Row, "el error indica la línea del lote")

	list, err := f.uc.List(ctx, entity.AreaTecnica, repository.ExpenseFilter{})
	require.NoError(t, err)
	assert.Empty(t, list, "ninguna línea del lote se guarda")

	out, err := f.uc.CreateBatch(ctx, "u1", entity.AreaTecnica, []dto.CreateExpenseRequest{
		techRequest("7000"), techRequest("4000"),
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Empty(t, out[0].Warnings)
	require.Len(t, out[1].Warnings, 1, "la segunda línea supera el agregado")
	assert.Equal(t, 1, out[1].Warnings[0].Row)
}

// ──────────────────────────────────────────────────────────────────────────────
// Edición y ciclo de vida
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdate_BloqueoPorOrdenCerrada(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	line, err := f.uc.Create(ctx, "u1", entity.AreaTecnica, techRequest("1000"))
	require.NoError(t, err)
	setOrderStatus(t, f, entity.OrderStatusCerrado)

	_, err = f.uc.Update(ctx, "u1", entity.AreaTecnica, line.ID, dto.UpdateExpenseRequest{Version: line.Version, Net: ptr(d("900"))})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLocked)

	out, err := f.uc.Update(ctx, "u1", entity.AreaTecnica, line.ID, dto.UpdateExpenseRequest{Version: line.Version, Description: ptr("Detalle")})
	require.NoError(t, err, "la descripción no es un campo financiero")
	assert.True(t, out.FinancialLocked)
	assert.Equal(t, 2, out.Version)
}

func TestUpdate_VersionYTope(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	line, err := f.uc.Create(ctx, "u1", entity.AreaTecnica, techRequest("1000"))
	require.NoError(t, err)

	_, err = f.uc.Update(ctx, "u1", entity.AreaTecnica, line.ID, dto.UpdateExpenseRequest{Version: 7, Net: ptr(d("900"))})
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	_, err = f.uc.Update(ctx, "u1", entity.AreaTecnica, line.ID, dto.UpdateExpenseRequest{Version: line.Version, Net: ptr(d("10001"))})
	assert.ErrorIs(t, err, domain.ErrCapExceeded)

	out, err := f.uc.Update(ctx, "u1", entity.AreaTecnica, line.ID, dto.UpdateExpenseRequest{Version: line.Version, Net: ptr(d("10000"))})
	require.NoError(t, err)
	assert.True(t, out.Net.Equal(d("10000")))
	assert.Empty(t, out.Warnings, "la propia línea no se suma dos veces")
}

func TestChangeStatusYRemove(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	line, err := f.uc.Create(ctx, "u1", entity.AreaTalentos, dto.CreateExpenseRequest{
		OrderID: "o1", ProgramID: "p1", Net: d("500"), CounterpartName: "Conductor", CounterpartTaxID: "20-1",
	})
	require.NoError(t, err)

	active, err := f.uc.ChangeStatus(ctx, "u1", entity.AreaTalentos, line.ID, dto.ExpenseStatusRequest{Version: line.Version, Status: entity.LineStatusActivo})
	require.NoError(t, err)
	assert.Equal(t, entity.LineStatusActivo, active.Status)

	err = f.uc.Remove(ctx, "u1", entity.AreaTalentos, line.ID, active.Version)
	assert.ErrorIs(t, err, domain.ErrConflict, "solo se eliminan pendientes")

	_, err = f.uc.ChangeStatus(ctx, "u1", entity.AreaTalentos, line.ID, dto.ExpenseStatusRequest{Version: active.Version, Status: entity.LineStatusPendiente})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	other, err := f.uc.Create(ctx, "u1", entity.AreaTalentos, dto.CreateExpenseRequest{
		OrderID: "o1", ProgramID: "p1", Net: d("100"), CounterpartName: "Invitado", CounterpartTaxID: "20-2",
	})
	require.NoError(t, err)
	require.NoError(t, f.uc.Remove(ctx, "u1", entity.AreaTalentos, other.ID, other.Version))
	_, err = f.uc.Get(ctx, entity.AreaTalentos, other.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.Get(ctx, entity.AreaTecnica, line.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "una línea no es visible desde otra área")
}

// ──────────────────────────────────────────────────────────────────────────────
// Generación de comprobante
// ──────────────────────────────────────────────────────────────────────────────

func TestPromoteToVoucher(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	line, err := f.uc.Create(ctx, "u1", entity.AreaTecnica, techRequest("1000"))
	require.NoError(t, err)

	v, err := f.uc.PromoteToVoucher(ctx, "u1", entity.AreaTecnica, line.ID, dto.PromoteExpenseRequest{
		Version: line.Version, DocumentType: "FA", DocumentNumber: "0001-00000123", IVARate: d("21"),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementEgreso, v.MovementType)
	assert.Equal(t, entity.AreaTecnica, v.OriginArea)
	assert.Equal(t, line.ID, v.OriginExpenseID)
	assert.Equal(t, "USD", v.Currency, "hereda la moneda de la orden")
	assert.True(t, v.Total.Equal(d("1210")))
	assert.Equal(t, entity.VoucherCreado, v.ApprovalState)

	got, err := f.uc.Get(ctx, entity.AreaTecnica, line.ID)
	require.NoError(t, err)
	assert.Equal(t, v.ID, got.VoucherID)
	assert.Equal(t, entity.LineStatusActivo, got.Status)
	assert.True(t, got.FinancialLocked)

	_, err = f.uc.PromoteToVoucher(ctx, "u1", entity.AreaTecnica, line.ID, dto.PromoteExpenseRequest{Version: got.Version})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.uc.Update(ctx, "u1", entity.AreaTecnica, line.ID, dto.UpdateExpenseRequest{Version: got.Version, Net: ptr(d("1"))})
	assert.ErrorIs(t, err, domain.ErrLocked)
}

func TestPromoteToVoucher_RechazoLiberaLaLinea(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	line, err := f.uc.Create(ctx, "u1", entity.AreaTecnica, techRequest("1000"))
	require.NoError(t, err)
	v, err := f.uc.PromoteToVoucher(ctx, "u1", entity.AreaTecnica, line.ID, dto.PromoteExpenseRequest{
		Version: line.Version, DocumentType: "FA", DocumentNumber: "0001-00000124", IVARate: d("21"),
	})
	require.NoError(t, err)

	vuc := vouchers.NewVoucherUseCase(
		memory.NewTxRunner(f.store),
		memory.NewVoucherRepository(f.store),
		memory.NewOrderRepository(f.store),
		nil, nil, nil, nil, "ARS",
	)
	_, err = vuc.Reject(ctx, "admin1", entity.RoleFinanzas, v.ID, dto.TransitionRequest{Version: v.Version, Note: "factura mal emitida"})
	require.NoError(t, err)

	got, err := f.uc.Get(ctx, entity.AreaTecnica, line.ID)
	require.NoError(t, err)
	assert.Empty(t, got.VoucherID)
	assert.Equal(t, entity.LineStatusActivo, got.Status)
	assert.False(t, got.FinancialLocked)

	again, err := f.uc.PromoteToVoucher(ctx, "u1", entity.AreaTecnica, line.ID, dto.PromoteExpenseRequest{
		Version: got.Version, DocumentType: "FA", DocumentNumber: "0001-00000125", IVARate: d("21"),
	})
	require.NoError(t, err)
	assert.NotEqual(t, v.ID, again.ID)
}
