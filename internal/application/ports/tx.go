package ports

import (
	"context"

	"github.com/jhoicas/Presupuestos-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace rollback y el estado persistido queda intacto.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		orderRepo repository.OrderRepository,
		expenseRepo repository.ExpenseLineRepository,
		voucherRepo repository.VoucherRepository,
	) error) error
}
