package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Presupuestos-api/internal/domain"
	"github.com/jhoicas/Presupuestos-api/internal/domain/entity"
	"github.com/jhoicas/Presupuestos-api/internal/domain/repository"
)

var _ repository.ExpenseLineRepository = (*ExpenseLineRepo)(nil)

// ExpenseLineRepo implementación de ExpenseLineRepository (usable con pool o tx).
type ExpenseLineRepo struct {
	q Querier
}

// NewExpenseLineRepository construye el adaptador. Pasar pool o tx (Querier).
func NewExpenseLineRepository(q Querier) *ExpenseLineRepo {
	return &ExpenseLineRepo{q: q}
}

const expenseColumns = `id, area, order_id, program_id, description, net, counterpart_name, counterpart_tax_id,
	status, voucher_id, created_by, created_at, updated_at, version`

// Create persiste una línea nueva.
func (r *ExpenseLineRepo) Create(ctx context.Context, l *entity.ExpenseLine) error {
	query := `
		INSERT INTO expense_lines (` + expenseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		l.ID, l.Area, nullIfEmpty(l.OrderID), nullIfEmpty(l.ProgramID), l.Description, l.Net,
		l.CounterpartName, l.CounterpartTaxID, l.Status, nullIfEmpty(l.VoucherID),
		l.CreatedBy, l.CreatedAt, l.UpdatedAt, l.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert expense line: %w", err)
	}
	return nil
}

// Update persiste la línea si la versión coincide.
func (r *ExpenseLineRepo) Update(ctx context.Context, l *entity.ExpenseLine, expectedVersion int) error {
	query := `
		UPDATE expense_lines
		SET description = $3, net = $4, counterpart_name = $5, counterpart_tax_id = $6,
		    status = $7, voucher_id = $8, updated_at = $9, version = version + 1
		WHERE id = $1 AND version = $2`
	tag, err := r.q.Exec(ctx, query,
		l.ID, expectedVersion, l.Description, l.Net, l.CounterpartName, l.CounterpartTaxID,
		l.Status, nullIfEmpty(l.VoucherID), l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update expense line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrConflict(ctx, l.ID)
	}
	l.Version = expectedVersion + 1
	return nil
}

// Delete elimina la línea si la versión coincide.
func (r *ExpenseLineRepo) Delete(ctx context.Context, id string, expectedVersion int) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM expense_lines WHERE id = $1 AND version = $2`, id, expectedVersion)
	if err != nil {
		return fmt.Errorf("delete expense line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrConflict(ctx, id)
	}
	return nil
}

// GetByID obtiene una línea por ID.
func (r *ExpenseLineRepo) GetByID(ctx context.Context, id string) (*entity.ExpenseLine, error) {
	l, err := scanExpense(r.q.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expense_lines WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get expense line: %w", err)
	}
	return l, nil
}

// List líneas filtradas, en orden de alta.
func (r *ExpenseLineRepo) List(ctx context.Context, f repository.ExpenseFilter) ([]entity.ExpenseLine, error) {
	var (
		where []string
		args  []any
	)
	add := func(col, val string) {
		if val == "" {
			return
		}
		args = append(args, val)
		where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("area", f.Area)
	add("order_id", f.OrderID)
	add("program_id", f.ProgramID)
	add("status", f.Status)

	query := `SELECT ` + expenseColumns + ` FROM expense_lines`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expense lines: %w", err)
	}
	defer rows.Close()
	var list []entity.ExpenseLine
	for rows.Next() {
		l, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense line: %w", err)
		}
		list = append(list, *l)
	}
	return list, rows.Err()
}

func (r *ExpenseLineRepo) missingOrConflict(ctx context.Context, id string) error {
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM expense_lines WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check expense line: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrVersionConflict
}

func scanExpense(row pgx.Row) (*entity.ExpenseLine, error) {
	var (
		l                           entity.ExpenseLine
		orderID, programID, voucher *string
	)
	err := row.Scan(
		&l.ID, &l.Area, &orderID, &programID, &l.Description, &l.Net, &l.CounterpartName, &l.CounterpartTaxID,
		&l.Status, &voucher, &l.CreatedBy, &l.CreatedAt, &l.UpdatedAt, &l.Version,
	)
	if err != nil {
		return nil, err
	}
	l.OrderID = derefStr(orderID)
	l.ProgramID = derefStr(programID)
	l.VoucherID = derefStr(voucher)
	return &l, nil
}
