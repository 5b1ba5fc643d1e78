package repository

import (
	"context"

	"github.com/jhoicas/Presupuestos-api/internal/domain/entity"
)

// ExpenseFilter filtros para listar líneas de gasto. Campos vacíos no filtran.
type ExpenseFilter struct {
	Area      string
	OrderID   string
	ProgramID string
	Status    string
}

// ExpenseLineRepository define el puerto de persistencia para ExpenseLine (todas las áreas).
type ExpenseLineRepository interface {
	Create(ctx context.Context, line *entity.ExpenseLine) error
	// Update persiste la línea si la versión coincide; si no, domain.ErrVersionConflict.
	Update(ctx context.Context, line *entity.ExpenseLine, expectedVersion int) error
	Delete(ctx context.Context, id string, expectedVersion int) error
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.ExpenseLine, error)
	List(ctx context.Context, filter ExpenseFilter) ([]entity.ExpenseLine, error)
}
