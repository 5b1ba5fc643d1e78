package repository

import (
	"context"

	"github.com/jhoicas/Presupuestos-api/internal/domain/entity"
)

// OrderFilter filtros para listar órdenes.
type OrderFilter struct {
	Status string
	Client string
	Limit  int
	Offset int
}

// OrderRepository define el puerto de persistencia para CampaignOrder y sus filas de programa.
// Los métodos de lectura devuelven copias: modificar el resultado no altera lo persistido.
type OrderRepository interface {
	Create(ctx context.Context, order *entity.CampaignOrder) error
	// Update reemplaza cabecera y filas si la versión persistida coincide con expectedVersion;
	// si no, devuelve domain.ErrVersionConflict. Incrementa order.Version.
	Update(ctx context.Context, order *entity.CampaignOrder, expectedVersion int) error
	// UpdateStatus cambia solo el estado con control de versión.
	UpdateStatus(ctx context.Context, id, status string, expectedVersion int) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.CampaignOrder, error)
	// GetForUpdate igual que GetByID pero bloquea la fila dentro de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.CampaignOrder, error)
	List(ctx context.Context, filter OrderFilter) ([]entity.CampaignOrder, error)
}
