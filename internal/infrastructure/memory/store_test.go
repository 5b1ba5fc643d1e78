package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Presupuestos-api/internal/domain"
	"github.com/jhoicas/Presupuestos-api/internal/domain/entity"
	"github.com/jhoicas/Presupuestos-api/internal/domain/repository"
	"github.com/jhoicas/Presupuestos-api/internal/infrastructure/memory"
)

func order(id, number string) entity.CampaignOrder {
	return entity.CampaignOrder{
		ID: id, Number: number, Client: "Cliente", Status: entity.OrderStatusAbierto, Version: 1,
		TotalSaleAmount: decimal.NewFromInt(100),
		Programs:        []entity.ProgramAllocation{{ID: id + "-p1", OrderID: id, ProgramName: "Mañanas", AllocatedAmount: decimal.NewFromInt(100), Version: 1}},
	}
}

func TestTxRunner_RollbackSiFalla(t *testing.T) {
	store := memory.NewStore()
	tx := memory.NewTxRunner(store)
	ctx := context.Background()
	boom := errors.New("boom")

	err := tx.Run(ctx, func(orders repository.OrderRepository, lines repository.ExpenseLineRepository, _ repository.VoucherRepository) error {
		o := order("o1", "OP-1")
		require.NoError(t, orders.Create(ctx, &o))
		require.NoError(t, lines.Create(ctx, &entity.ExpenseLine{ID: "l1", Area: entity.AreaTecnica, OrderID: "o1", Version: 1}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := memory.NewOrderRepository(store).GetByID(ctx, "o1")
	require.NoError(t, err)
	assert.Nil(t, got)
	l, err := memory.NewExpenseLineRepository(store).GetByID(ctx, "l1")
	require.NoError(t, err)
	assert.Nil(t, l)
}

func TestOrderRepository_VersionYCopias(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewOrderRepository(store)
	ctx := context.Background()
	o := order("o1", "OP-1")
	require.NoError(t, repo.Create(ctx, &o))

	dup := order("o2", "OP-1")
	assert.ErrorIs(t, repo.Create(ctx, &dup), domain.ErrDuplicate, "número de orden repetido")

	got, err := repo.GetByID(ctx, "o1")
	require.NoError(t, err)
	got.Programs[0].ProgramName = "modificado fuera del repo"
	again, _ := repo.GetByID(ctx, "o1")
	assert.Equal(t, "Mañanas", again.Programs[0].ProgramName, "las lecturas devuelven copias")

	got.Client = "Otro"
	require.NoError(t, repo.Update(ctx, got, 1))
	assert.Equal(t, 2, got.Version)
	assert.ErrorIs(t, repo.Update(ctx, got, 1), domain.ErrVersionConflict)
	assert.ErrorIs(t, repo.UpdateStatus(ctx, "o1", entity.OrderStatusCerrado, 1), domain.ErrVersionConflict)
	require.NoError(t, repo.UpdateStatus(ctx, "o1", entity.OrderStatusCerrado, 2))

	list, err := repo.List(ctx, repository.OrderFilter{Status: entity.OrderStatusCerrado})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 3, list[0].Version)
}

func TestOrderRepository_NumeroUnicoAlEditar(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewOrderRepository(store)
	ctx := context.Background()
	a, b := order("o1", "OP-1"), order("o2", "OP-2")
	require.NoError(t, repo.Create(ctx, &a))
	require.NoError(t, repo.Create(ctx, &b))

	b.Number = "OP-1"
	assert.ErrorIs(t, repo.Update(ctx, &b, 1), domain.ErrDuplicate)
	a.Client = "Mismo número"
	require.NoError(t, repo.Update(ctx, &a, 1), "la propia orden no colisiona consigo misma")
}

func TestListas_OrdenDeInsercionYPaginado(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewVoucherRepository(store)
	ctx := context.Background()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, repo.Create(ctx, &entity.Comprobante{ID: id, MovementType: entity.MovementEgreso, Version: 1}))
	}
	all, err := repo.List(ctx, repository.VoucherFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)

	pageTwo, err := repo.List(ctx, repository.VoucherFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, pageTwo, 1)
	assert.Equal(t, "b", pageTwo[0].ID)

	empty, err := repo.List(ctx, repository.VoucherFilter{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}
