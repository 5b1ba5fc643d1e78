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

var _ repository.VoucherRepository = (*VoucherRepo)(nil)

// VoucherRepo implementación de VoucherRepository (usable con pool o tx).
// El historial de transiciones vive en voucher_transitions y es de solo inserción.
type VoucherRepo struct {
	q Querier
}

// NewVoucherRepository construye el adaptador. Pasar pool o tx (Querier).
func NewVoucherRepository(q Querier) *VoucherRepo {
	return &VoucherRepo{q: q}
}

const voucherColumns = `id, movement_type, origin_area, origin_order_id, origin_program_id, origin_expense_id,
	counterpart_name, counterpart_tax_id, document_type, document_number, document_date,
	currency, net, iva_rate, iva_amount, perceptions, total,
	income_tax_withholding, gross_income_withholding, iva_withholding, social_security_withholding,
	payment_method, bank, operation_number, due_date, payment_date, payment_terms_days,
	approval_state, observations, admin_note, created_by, created_at, updated_at, version`

// Create persiste el comprobante y su historial inicial.
func (r *VoucherRepo) Create(ctx context.Context, v *entity.Comprobante) error {
	query := `
		INSERT INTO vouchers (` + voucherColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
		        $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34)`
	_, err := r.q.Exec(ctx, query,
		v.ID, v.MovementType, v.OriginArea, nullIfEmpty(v.OriginOrderID), nullIfEmpty(v.OriginProgramID), nullIfEmpty(v.OriginExpenseID),
		v.CounterpartName, v.CounterpartTaxID, v.DocumentType, v.DocumentNumber, v.DocumentDate,
		v.Currency, v.Net, v.IVARate, v.IVAAmount, v.Perceptions, v.Total,
		v.IncomeTaxWithholding, v.GrossIncomeWithholding, v.IVAWithholding, v.SocialSecurityWithholding,
		v.PaymentMethod, v.Bank, v.OperationNumber, v.DueDate, v.PaymentDate, v.PaymentTermsDays,
		v.ApprovalState, v.Observations, v.AdminNote, v.CreatedBy, v.CreatedAt, v.UpdatedAt, v.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert voucher: %w", err)
	}
	return r.appendHistory(ctx, v)
}

// Update persiste campos y estado con control de versión; agrega las transiciones nuevas.
func (r *VoucherRepo) Update(ctx context.Context, v *entity.Comprobante, expectedVersion int) error {
	query := `
		UPDATE vouchers SET
		    counterpart_name = $3, counterpart_tax_id = $4, document_type = $5, document_number = $6,
		    document_date = $7, currency = $8, net = $9, iva_rate = $10, iva_amount = $11, perceptions = $12,
		    total = $13, income_tax_withholding = $14, gross_income_withholding = $15, iva_withholding = $16,
		    social_security_withholding = $17, payment_method = $18, bank = $19, operation_number = $20,
		    due_date = $21, payment_date = $22, payment_terms_days = $23, approval_state = $24,
		    observations = $25, admin_note = $26, updated_at = $27, version = version + 1
		WHERE id = $1 AND version = $2`
	tag, err := r.q.Exec(ctx, query,
		v.ID, expectedVersion,
		v.CounterpartName, v.CounterpartTaxID, v.DocumentType, v.DocumentNumber,
		v.DocumentDate, v.Currency, v.Net, v.IVARate, v.IVAAmount, v.Perceptions,
		v.Total, v.IncomeTaxWithholding, v.GrossIncomeWithholding, v.IVAWithholding,
		v.SocialSecurityWithholding, v.PaymentMethod, v.Bank, v.OperationNumber,
		v.DueDate, v.PaymentDate, v.PaymentTermsDays, v.ApprovalState,
		v.Observations, v.AdminNote, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update voucher: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM vouchers WHERE id = $1)`, v.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check voucher: %w", err)
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrVersionConflict
	}
	if err := r.appendHistory(ctx, v); err != nil {
		return err
	}
	v.Version = expectedVersion + 1
	return nil
}

// appendHistory inserta las transiciones que todavía no están persistidas; seq es la posición en History.
func (r *VoucherRepo) appendHistory(ctx context.Context, v *entity.Comprobante) error {
	for i, h := range v.History {
		_, err := r.q.Exec(ctx, `
			INSERT INTO voucher_transitions (voucher_id, seq, from_state, to_state, actor, note, at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (voucher_id, seq) DO NOTHING`,
			v.ID, i, h.From, h.To, h.Actor, h.Note, h.At,
		)
		if err != nil {
			return fmt.Errorf("insert voucher transition: %w", err)
		}
	}
	return nil
}

// GetByID obtiene el comprobante con su historial.
func (r *VoucherRepo) GetByID(ctx context.Context, id string) (*entity.Comprobante, error) {
	v, err := scanVoucher(r.q.QueryRow(ctx, `SELECT `+voucherColumns+` FROM vouchers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get voucher: %w", err)
	}
	if v.History, err = r.history(ctx, v.ID); err != nil {
		return nil, err
	}
	return v, nil
}

func (r *VoucherRepo) history(ctx context.Context, voucherID string) ([]entity.StateTransition, error) {
	rows, err := r.q.Query(ctx, `
		SELECT from_state, to_state, actor, note, at
		FROM voucher_transitions WHERE voucher_id = $1 ORDER BY seq`, voucherID)
	if err != nil {
		return nil, fmt.Errorf("list voucher transitions: %w", err)
	}
	defer rows.Close()
	var list []entity.StateTransition
	for rows.Next() {
		var h entity.StateTransition
		if err := rows.Scan(&h.From, &h.To, &h.Actor, &h.Note, &h.At); err != nil {
			return nil, fmt.Errorf("scan voucher transition: %w", err)
		}
		list = append(list, h)
	}
	return list, rows.Err()
}

// List bandeja de comprobantes, más recientes primero. No carga el historial.
func (r *VoucherRepo) List(ctx context.Context, f repository.VoucherFilter) ([]entity.Comprobante, error) {
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
	add("approval_state", f.ApprovalState)
	add("origin_area", f.OriginArea)
	add("movement_type", f.MovementType)
	add("origin_order_id", f.OriginOrderID)

	query := `SELECT ` + voucherColumns + ` FROM vouchers`
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
		return nil, fmt.Errorf("list vouchers: %w", err)
	}
	defer rows.Close()
	var list []entity.Comprobante
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, fmt.Errorf("scan voucher: %w", err)
		}
		list = append(list, *v)
	}
	return list, rows.Err()
}

func scanVoucher(row pgx.Row) (*entity.Comprobante, error) {
	var (
		v                             entity.Comprobante
		orderID, programID, expenseID *string
	)
	err := row.Scan(
		&v.ID, &v.MovementType, &v.OriginArea, &orderID, &programID, &expenseID,
		&v.CounterpartName, &v.CounterpartTaxID, &v.DocumentType, &v.DocumentNumber, &v.DocumentDate,
		&v.Currency, &v.Net, &v.IVARate, &v.IVAAmount, &v.Perceptions, &v.Total,
		&v.IncomeTaxWithholding, &v.GrossIncomeWithholding, &v.IVAWithholding, &v.SocialSecurityWithholding,
		&v.PaymentMethod, &v.Bank, &v.OperationNumber, &v.DueDate, &v.PaymentDate, &v.PaymentTermsDays,
		&v.ApprovalState, &v.Observations, &v.AdminNote, &v.CreatedBy, &v.CreatedAt, &v.UpdatedAt, &v.Version,
	)
	if err != nil {
		return nil, err
	}
	v.OriginOrderID = derefStr(orderID)
	v.OriginProgramID = derefStr(programID)
	v.OriginExpenseID = derefStr(expenseID)
	return &v, nil
}
