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

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo implementación de OrderRepository (usable con pool o tx).
// Create y Update escriben cabecera y filas; fuera de una tx no son atómicos.
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

const orderColumns = `id, number, client, brand, campaign_name, business_unit, business_category, project,
	currency, total_sale_amount, status, created_by, created_at, updated_at, version`

const programColumns = `id, order_id, program_name, allocated_amount, implementation_cap, talent_cap, technical_cap,
	credit_note_amount, credit_note_percentage, fee_amount, fee_percentage, version`

// Create persiste la cabecera y sus filas de programa.
func (r *OrderRepo) Create(ctx context.Context, o *entity.CampaignOrder) error {
	query := `
		INSERT INTO campaign_orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		o.ID, o.Number, o.Client, o.Brand, o.CampaignName, o.BusinessUnit, o.BusinessCategory, o.Project,
		o.Currency, o.TotalSaleAmount, o.Status, o.CreatedBy, o.CreatedAt, o.UpdatedAt, o.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: orden %s", domain.ErrDuplicate, o.Number)
		}
		return fmt.Errorf("insert order: %w", err)
	}
	for i := range o.Programs {
		if err := r.upsertProgram(ctx, o.ID, i, &o.Programs[i]); err != nil {
			return err
		}
	}
	return nil
}

// Update reemplaza cabecera y filas con control de versión de la cabecera.
// Las versiones de cada fila ya vienen resueltas por el caso de uso.
func (r *OrderRepo) Update(ctx context.Context, o *entity.CampaignOrder, expectedVersion int) error {
	query := `
		UPDATE campaign_orders
		SET number = $3, client = $4, brand = $5, campaign_name = $6, business_unit = $7,
		    business_category = $8, project = $9, currency = $10, total_sale_amount = $11,
		    status = $12, updated_at = $13, version = version + 1
		WHERE id = $1 AND version = $2`
	tag, err := r.q.Exec(ctx, query,
		o.ID, expectedVersion, o.Number, o.Client, o.Brand, o.CampaignName, o.BusinessUnit,
		o.BusinessCategory, o.Project, o.Currency, o.TotalSaleAmount, o.Status, o.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: orden %s", domain.ErrDuplicate, o.Number)
		}
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrConflict(ctx, o.ID)
	}

	keep := make([]string, 0, len(o.Programs))
	for i := range o.Programs {
		if err := r.upsertProgram(ctx, o.ID, i, &o.Programs[i]); err != nil {
			return err
		}
		keep = append(keep, o.Programs[i].ID)
	}
	if _, err := r.q.Exec(ctx,
		`DELETE FROM program_allocations WHERE order_id = $1 AND NOT (id = ANY($2::uuid[]))`,
		o.ID, keep,
	); err != nil {
		return fmt.Errorf("delete removed programs: %w", err)
	}
	o.Version = expectedVersion + 1
	return nil
}

func (r *OrderRepo) upsertProgram(ctx context.Context, orderID string, position int, p *entity.ProgramAllocation) error {
	query := `
		INSERT INTO program_allocations (id, order_id, position, program_name, allocated_amount,
		    implementation_cap, talent_cap, technical_cap, credit_note_amount, credit_note_percentage,
		    fee_amount, fee_percentage, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
		    position = EXCLUDED.position, program_name = EXCLUDED.program_name,
		    allocated_amount = EXCLUDED.allocated_amount, implementation_cap = EXCLUDED.implementation_cap,
		    talent_cap = EXCLUDED.talent_cap, technical_cap = EXCLUDED.technical_cap,
		    credit_note_amount = EXCLUDED.credit_note_amount, credit_note_percentage = EXCLUDED.credit_note_percentage,
		    fee_amount = EXCLUDED.fee_amount, fee_percentage = EXCLUDED.fee_percentage,
		    version = EXCLUDED.version`
	p.OrderID = orderID
	_, err := r.q.Exec(ctx, query,
		p.ID, orderID, position, p.ProgramName, p.AllocatedAmount,
		p.ImplementationCap, p.TalentCap, p.TechnicalCap, p.CreditNoteAmount, p.CreditNotePercentage,
		p.FeeAmount, p.FeePercentage, p.Version,
	)
	if err != nil {
		return fmt.Errorf("upsert program %s: %w", p.ID, err)
	}
	return nil
}

// UpdateStatus cambia solo el estado con control de versión.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id, status string, expectedVersion int) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE campaign_orders SET status = $3, updated_at = now(), version = version + 1
		WHERE id = $1 AND version = $2`, id, expectedVersion, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrConflict(ctx, id)
	}
	return nil
}

// GetByID obtiene la orden con sus filas ordenadas por posición.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.CampaignOrder, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate obtiene la orden y bloquea la fila de cabecera (SELECT FOR UPDATE).
func (r *OrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.CampaignOrder, error) {
	return r.get(ctx, id, true)
}

func (r *OrderRepo) get(ctx context.Context, id string, lock bool) (*entity.CampaignOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM campaign_orders WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	o, err := scanOrder(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if o.Programs, err = r.programs(ctx, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrderRepo) programs(ctx context.Context, orderID string) ([]entity.ProgramAllocation, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+programColumns+` FROM program_allocations WHERE order_id = $1 ORDER BY position`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	defer rows.Close()
	var list []entity.ProgramAllocation
	for rows.Next() {
		var p entity.ProgramAllocation
		if err := rows.Scan(
			&p.ID, &p.OrderID, &p.ProgramName, &p.AllocatedAmount, &p.ImplementationCap, &p.TalentCap,
			&p.TechnicalCap, &p.CreditNoteAmount, &p.CreditNotePercentage, &p.FeeAmount, &p.FeePercentage, &p.Version,
		); err != nil {
			return nil, fmt.Errorf("scan program: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// List órdenes filtradas por estado y cliente, más recientes primero.
func (r *OrderRepo) List(ctx context.Context, f repository.OrderFilter) ([]entity.CampaignOrder, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Client != "" {
		args = append(args, "%"+f.Client+"%")
		where = append(where, fmt.Sprintf("client ILIKE $%d", len(args)))
	}
	query := `SELECT ` + orderColumns + ` FROM campaign_orders`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	var list []entity.CampaignOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		list = append(list, *o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Las filas se leen después de cerrar el cursor: una tx no admite dos consultas abiertas.
	for i := range list {
		if list[i].Programs, err = r.programs(ctx, list[i].ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (r *OrderRepo) missingOrConflict(ctx context.Context, id string) error {
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM campaign_orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check order: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrVersionConflict
}

func scanOrder(row pgx.Row) (*entity.CampaignOrder, error) {
	var o entity.CampaignOrder
	err := row.Scan(
		&o.ID, &o.Number, &o.Client, &o.Brand, &o.CampaignName, &o.BusinessUnit, &o.BusinessCategory, &o.Project,
		&o.Currency, &o.TotalSaleAmount, &o.Status, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt, &o.Version,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
