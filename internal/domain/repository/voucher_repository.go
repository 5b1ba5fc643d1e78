package repository

import (
	"context"

	"github.com/jhoicas/Presupuestos-api/internal/domain/entity"
)

// VoucherFilter filtros para listar comprobantes.
type VoucherFilter struct {
	ApprovalState string
	OriginArea    string
	MovementType  string
	OriginOrderID string
	Limit         int
	Offset        int
}

// VoucherRepository define el puerto de persistencia para Comprobante. No existe borrado.
type VoucherRepository interface {
	Create(ctx context.Context, v *entity.Comprobante) error
	// Update persiste campos, estado y las transiciones nuevas del historial con control de versión.
	Update(ctx context.Context, v *entity.Comprobante, expectedVersion int) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Comprobante, error)
	List(ctx context.Context, filter VoucherFilter) ([]entity.Comprobante, error)
}
