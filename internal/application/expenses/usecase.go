// Package expenses contiene los casos de uso del motor genérico de gastos por área:
// alta individual y en lote, edición, cambio de estado, baja y generación del comprobante.
package expenses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Presupuestos-api/internal/application/dto"
	"github.com/jhoicas/Presupuestos-api/internal/application/ports"
	"github.com/jhoicas/Presupuestos-api/internal/application/vouchers"
	"github.com/jhoicas/Presupuestos-api/internal/domain"
	"github.com/jhoicas/Presupuestos-api/internal/domain/budget"
	"github.com/jhoicas/Presupuestos-api/internal/domain/entity"
	"github.com/jhoicas/Presupuestos-api/internal/domain/expense"
	"github.com/jhoicas/Presupuestos-api/internal/domain/repository"
	"github.com/jhoicas/Presupuestos-api/internal/domain/voucher"
	"github.com/jhoicas/Presupuestos-api/pkg/logger"
)

// ExpenseUseCase casos de uso de líneas de gasto.
type ExpenseUseCase struct {
	tx              ports.TxRunner
	orderRepo       repository.OrderRepository
	expenseRepo     repository.ExpenseLineRepository
	events          ports.EventPublisher
	metrics         ports.MetricsRecorder
	log             *logger.Logger
	defaultCurrency string
	now             func() time.Time
}

// NewExpenseUseCase construye el caso de uso. events, metrics y log pueden ser nil.
func NewExpenseUseCase(
	tx ports.TxRunner,
	orderRepo repository.OrderRepository,
	expenseRepo repository.ExpenseLineRepository,
	events ports.EventPublisher,
	metrics ports.MetricsRecorder,
	log *logger.Logger,
	defaultCurrency string,
) *ExpenseUseCase {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ExpenseUseCase{
		tx:              tx,
		orderRepo:       orderRepo,
		expenseRepo:     expenseRepo,
		events:          events,
		metrics:         metrics,
		log:             log,
		defaultCurrency: defaultCurrency,
		now:             time.Now,
	}
}

func areaConfig(area string) (expense.AreaConfig, error) {
	cfg, ok := expense.Config(area)
	if !ok {
		return cfg, fmt.Errorf("%w: área %q", domain.ErrNotFound, area)
	}
	return cfg, nil
}

// Create valida y registra una línea. El tope duro por línea bloquea; la sobre-ejecución del
// agregado del área solo genera advertencias.
func (uc *ExpenseUseCase) Create(ctx context.Context, userID, area string, in dto.CreateExpenseRequest) (*dto.ExpenseResponse, error) {
	cfg, err := areaConfig(area)
	if err != nil {
		return nil, err
	}
	var (
		saved    entity.ExpenseLine
		warnings []domain.Warning
	)
	err = uc.tx.Run(ctx, func(orderRepo repository.OrderRepository, expenseRepo repository.ExpenseLineRepository, _ repository.VoucherRepository) error {
		saved, warnings, err = uc.createLine(ctx, orderRepo, expenseRepo, cfg, userID, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("expense_id", saved.ID).Str("area", area).Str("order_id", saved.OrderID).Str("user_id", userID).Msg("gasto creado")
	uc.publish(ctx, ports.EventExpenseCreated, saved)
	return toResponse(saved, false, warnings), nil
}

// CreateBatch registra varias líneas de forma atómica: si alguna es inválida no se guarda ninguna
// y los errores se devuelven con Row = índice de la línea en el lote.
func (uc *ExpenseUseCase) CreateBatch(ctx context.Context, userID, area string, in []dto.CreateExpenseRequest) ([]dto.ExpenseResponse, error) {
	cfg, err := areaConfig(area)
	if err != nil {
		return nil, err
	}
	if len(in) == 0 {
		var errs domain.ValidationErrors
		errs.Add("lines", domain.CodeRequired, "el lote no tiene líneas")
		return nil, errs
	}

	type created struct {
		line     entity.ExpenseLine
		warnings []domain.Warning
	}
	var out []created
	err = uc.tx.Run(ctx, func(orderRepo repository.OrderRepository, expenseRepo repository.ExpenseLineRepository, _ repository.VoucherRepository) error {
		out = out[:0]
		var all domain.ValidationErrors
		for i, req := range in {
			line, ws, err := uc.createLine(ctx, orderRepo, expenseRepo, cfg, userID, req)
			var verrs domain.ValidationErrors
			if errors.As(err, &verrs) {
				for _, e := range verrs {
					e.Row = i
					all = append(all, e)
				}
				continue
			}
			if err != nil {
				return err
			}
			for j := range ws {
				ws[j].Row = i
			}
			out = append(out, created{line: line, warnings: ws})
		}
		if len(all) > 0 {
			return all
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := make([]dto.ExpenseResponse, 0, len(out))
	for _, c := range out {
		uc.publish(ctx, ports.EventExpenseCreated, c.line)
		resp = append(resp, *toResponse(c.line, false, c.warnings))
	}
	uc.log.Info().Str("area", area).Int("lines", len(resp)).Str("user_id", userID).Msg("lote de gastos creado")
	return resp, nil
}

func (uc *ExpenseUseCase) createLine(
	ctx context.Context,
	orderRepo repository.OrderRepository,
	expenseRepo repository.ExpenseLineRepository,
	cfg expense.AreaConfig,
	userID string,
	in dto.CreateExpenseRequest,
) (entity.ExpenseLine, []domain.Warning, error) {
	now := uc.now()
	line := entity.ExpenseLine{
		ID:               uuid.New().String(),
		Area:             cfg.Area,
		OrderID:          in.OrderID,
		ProgramID:        in.ProgramID,
		Description:      in.Description,
		Net:              in.Net,
		CounterpartName:  in.CounterpartName,
		CounterpartTaxID: in.CounterpartTaxID,
		Status:           entity.LineStatusPendiente,
		CreatedBy:        userID,
		CreatedAt:        now,
		UpdatedAt:        now,
		Version:          1,
	}

	var order *entity.CampaignOrder
	if line.OrderID != "" {
		var err error
		if order, err = orderRepo.GetForUpdate(ctx, line.OrderID); err != nil {
			return line, nil, err
		}
	}
	if errs := expense.ValidateNewLine(cfg, line, order); len(errs) > 0 {
		uc.rejected(cfg.Area, errs)
		return line, nil, errs
	}
	warnings, err := uc.projectedWarnings(ctx, expenseRepo, cfg, order, line, "")
	if err != nil {
		return line, nil, err
	}
	if err := expenseRepo.Create(ctx, &line); err != nil {
		return line, nil, err
	}
	return line, warnings, nil
}

// projectedWarnings advertencias de sobre-ejecución del área si se suma line al agregado.
// excludeID omite la versión persistida de la misma línea (edición).
func (uc *ExpenseUseCase) projectedWarnings(
	ctx context.Context,
	expenseRepo repository.ExpenseLineRepository,
	cfg expense.AreaConfig,
	order *entity.CampaignOrder,
	line entity.ExpenseLine,
	excludeID string,
) ([]domain.Warning, error) {
	if order == nil || line.ProgramID == "" {
		return nil, nil
	}
	row, idx := order.Program(line.ProgramID)
	if row == nil {
		return nil, nil
	}
	existing, err := expenseRepo.List(ctx, repository.ExpenseFilter{Area: cfg.Area, OrderID: order.ID, ProgramID: row.ID})
	if err != nil {
		return nil, err
	}
	others := existing[:0:0]
	for _, l := range existing {
		if l.ID != excludeID {
			others = append(others, l)
		}
	}
	s := budget.Summarize(cfg.CapOf(*row), others, budget.ExcludeCancelled)
	ws := budget.ProjectedWarnings(s, line.Net, cfg.CapField)
	for i := range ws {
		ws[i].Row = idx
	}
	if len(ws) > 0 {
		uc.metrics.OverBudget(cfg.Area)
	}
	return ws, nil
}

// Update edita una línea. Con la orden cerrada/anulada, la línea cerrada/anulada o ya convertida
// en comprobante, los campos financieros quedan bloqueados.
func (uc *ExpenseUseCase) Update(ctx context.Context, userID, area, id string, in dto.UpdateExpenseRequest) (*dto.ExpenseResponse, error) {
	cfg, err := areaConfig(area)
	if err != nil {
		return nil, err
	}
	var (
		saved    entity.ExpenseLine
		warnings []domain.Warning
		locked   bool
	)
	err = uc.tx.Run(ctx, func(orderRepo repository.OrderRepository, expenseRepo repository.ExpenseLineRepository, _ repository.VoucherRepository) error {
		line, err := getLine(ctx, expenseRepo, area, id)
		if err != nil {
			return err
		}
		if line.Version != in.Version {
			return domain.ErrVersionConflict
		}
		var order *entity.CampaignOrder
		orderStatus := ""
		if line.OrderID != "" {
			if order, err = orderRepo.GetForUpdate(ctx, line.OrderID); err != nil {
				return err
			}
			if order != nil {
				orderStatus = order.Status
			}
		}

		var errs domain.ValidationErrors
		if expense.FinancialFieldsLocked(*line, orderStatus) || line.VoucherID != "" {
			reason := lockReason(*line, orderStatus)
			for _, f := range financialFields(in) {
				errs.Add(f, domain.CodeLocked, "campo bloqueado: "+reason)
			}
		}
		if len(errs) > 0 {
			return errs
		}

		next := *line
		if in.Description != nil {
			next.Description = *in.Description
		}
		if in.CounterpartName != nil {
			next.CounterpartName = *in.CounterpartName
		}
		if in.CounterpartTaxID != nil {
			next.CounterpartTaxID = *in.CounterpartTaxID
		}
		if in.Net != nil {
			next.Net = *in.Net
			if !next.Net.IsPositive() {
				errs.Add("net", domain.CodeRequired, "el neto debe ser mayor a cero")
			} else if order != nil {
				if row, _ := order.Program(next.ProgramID); row != nil {
					errs = append(errs, budget.CheckLineCap(cfg.CapOf(*row), next.Net)...)
				}
			}
		}
		errs = append(errs, expense.RequiredFieldErrors(cfg, next)...)
		if len(errs) > 0 {
			uc.rejected(area, errs)
			return errs
		}

		if !next.IsCancelled() {
			if warnings, err = uc.projectedWarnings(ctx, expenseRepo, cfg, order, next, next.ID); err != nil {
				return err
			}
		}
		next.UpdatedAt = uc.now()
		if err := expenseRepo.Update(ctx, &next, in.Version); err != nil {
			return err
		}
		saved = next
		locked = expense.FinancialFieldsLocked(next, orderStatus) || next.VoucherID != ""
		return nil
	})
	if err != nil {
		uc.countConflict(err)
		return nil, err
	}

	uc.log.Info().Str("expense_id", id).Str("area", area).Int("version", saved.Version).Str("user_id", userID).Msg("gasto actualizado")
	uc.publish(ctx, ports.EventExpenseUpdated, saved)
	return toResponse(saved, locked, warnings), nil
}

// ChangeStatus mueve la línea en su ciclo de vida respetando el estado de la orden.
func (uc *ExpenseUseCase) ChangeStatus(ctx context.Context, userID, area, id string, in dto.ExpenseStatusRequest) (*dto.ExpenseResponse, error) {
	if _, err := areaConfig(area); err != nil {
		return nil, err
	}
	var (
		saved  entity.ExpenseLine
		locked bool
	)
	err := uc.tx.Run(ctx, func(orderRepo repository.OrderRepository, expenseRepo repository.ExpenseLineRepository, _ repository.VoucherRepository) error {
		line, err := getLine(ctx, expenseRepo, area, id)
		if err != nil {
			return err
		}
		if line.Version != in.Version {
			return domain.ErrVersionConflict
		}
		var order *entity.CampaignOrder
		orderStatus := ""
		if line.OrderID != "" {
			if order, err = orderRepo.GetForUpdate(ctx, line.OrderID); err != nil {
				return err
			}
			if order != nil {
				orderStatus = order.Status
			}
		}
		next, err := expense.ChangeStatus(*line, in.Status, order)
		if err != nil {
			return err
		}
		next.UpdatedAt = uc.now()
		if err := expenseRepo.Update(ctx, &next, in.Version); err != nil {
			return err
		}
		saved = next
		locked = expense.FinancialFieldsLocked(next, orderStatus) || next.VoucherID != ""
		return nil
	})
	if err != nil {
		uc.countConflict(err)
		return nil, err
	}

	uc.log.Info().Str("expense_id", id).Str("status", saved.Status).Str("user_id", userID).Msg("estado de gasto actualizado")
	uc.publish(ctx, ports.EventExpenseUpdated, saved)
	return toResponse(saved, locked, nil), nil
}

// Remove elimina una línea pendiente que todavía no generó comprobante.
func (uc *ExpenseUseCase) Remove(ctx context.Context, userID, area, id string, version int) error {
	if _, err := areaConfig(area); err != nil {
		return err
	}
	var removed entity.ExpenseLine
	err := uc.tx.Run(ctx, func(_ repository.OrderRepository, expenseRepo repository.ExpenseLineRepository, _ repository.VoucherRepository) error {
		line, err := getLine(ctx, expenseRepo, area, id)
		if err != nil {
			return err
		}
		if line.Status != entity.LineStatusPendiente || line.VoucherID != "" {
			return fmt.Errorf("%w: solo se eliminan gastos pendientes sin comprobante", domain.ErrConflict)
		}
		if err := expenseRepo.Delete(ctx, id, version); err != nil {
			return err
		}
		removed = *line
		return nil
	})
	if err != nil {
		uc.countConflict(err)
		return err
	}
	uc.log.Info().Str("expense_id", id).Str("area", area).Str("user_id", userID).Msg("gasto eliminado")
	uc.publish(ctx, ports.EventExpenseRemoved, removed)
	return nil
}

// Get devuelve una línea del área con su estado de bloqueo.
func (uc *ExpenseUseCase) Get(ctx context.Context, area, id string) (*dto.ExpenseResponse, error) {
	if _, err := areaConfig(area); err != nil {
		return nil, err
	}
	line, err := getLine(ctx, uc.expenseRepo, area, id)
	if err != nil {
		return nil, err
	}
	status, err := uc.orderStatus(ctx, line.OrderID)
	if err != nil {
		return nil, err
	}
	return toResponse(*line, expense.FinancialFieldsLocked(*line, status) || line.VoucherID != "", nil), nil
}

// List líneas del área, opcionalmente filtradas por orden, programa y estado.
func (uc *ExpenseUseCase) List(ctx context.Context, area string, filter repository.ExpenseFilter) ([]dto.ExpenseResponse, error) {
	if _, err := areaConfig(area); err != nil {
		return nil, err
	}
	filter.Area = area
	lines, err := uc.expenseRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	statuses := make(map[string]string)
	out := make([]dto.ExpenseResponse, 0, len(lines))
	for _, l := range lines {
		status, ok := statuses[l.OrderID]
		if !ok {
			if status, err = uc.orderStatus(ctx, l.OrderID); err != nil {
				return nil, err
			}
			statuses[l.OrderID] = status
		}
		out = append(out, *toResponse(l, expense.FinancialFieldsLocked(l, status) || l.VoucherID != "", nil))
	}
	return out, nil
}

// PromoteToVoucher genera el comprobante de egreso a partir de la línea. Desde ese momento
// administración opera sobre el comprobante y los campos financieros de la línea quedan fijos.
func (uc *ExpenseUseCase) PromoteToVoucher(ctx context.Context, userID, area, id string, in dto.PromoteExpenseRequest) (*dto.VoucherResponse, error) {
	if _, err := areaConfig(area); err != nil {
		return nil, err
	}
	var (
		created entity.Comprobante
		line    entity.ExpenseLine
	)
	err := uc.tx.Run(ctx, func(orderRepo repository.OrderRepository, expenseRepo repository.ExpenseLineRepository, voucherRepo repository.VoucherRepository) error {
		current, err := getLine(ctx, expenseRepo, area, id)
		if err != nil {
			return err
		}
		if current.Version != in.Version {
			return domain.ErrVersionConflict
		}
		if current.VoucherID != "" {
			return fmt.Errorf("%w: el gasto ya tiene comprobante %s", domain.ErrConflict, current.VoucherID)
		}
		if current.Status != entity.LineStatusPendiente && current.Status != entity.LineStatusActivo {
			return fmt.Errorf("%w: gasto %s", domain.ErrConflict, current.Status)
		}
		var errs domain.ValidationErrors
		if in.IVARate.IsNegative() {
			errs.Add("iva_rate", domain.CodeNegative, "la alícuota no puede ser negativa")
		}
		if in.Perceptions.IsNegative() {
			errs.Add("perceptions", domain.CodeNegative, "el importe no puede ser negativo")
		}
		if len(errs) > 0 {
			return errs
		}

		currency := uc.defaultCurrency
		if current.OrderID != "" {
			order, err := orderRepo.GetForUpdate(ctx, current.OrderID)
			if err != nil {
				return err
			}
			if order != nil {
				if !order.IsOpen() {
					return domain.ErrOrderClosed
				}
				currency = order.Currency
			}
		}

		now := uc.now()
		v := voucher.ComputeTotals(entity.Comprobante{
			ID:               uuid.New().String(),
			MovementType:     entity.MovementEgreso,
			OriginArea:       current.Area,
			OriginOrderID:    current.OrderID,
			OriginProgramID:  current.ProgramID,
			OriginExpenseID:  current.ID,
			CounterpartName:  current.CounterpartName,
			CounterpartTaxID: current.CounterpartTaxID,
			DocumentType:     in.DocumentType,
			DocumentNumber:   in.DocumentNumber,
			DocumentDate:     in.DocumentDate,
			Currency:         currency,
			Net:              current.Net,
			IVARate:          in.IVARate,
			Perceptions:      in.Perceptions,
			Observations:     in.Observations,
			ApprovalState:    entity.VoucherCreado,
			CreatedBy:        userID,
			CreatedAt:        now,
			UpdatedAt:        now,
			Version:          1,
		})
		if err := voucherRepo.Create(ctx, &v); err != nil {
			return err
		}

		next := *current
		next.VoucherID = v.ID
		if next.Status == entity.LineStatusPendiente {
			next.Status = entity.LineStatusActivo
		}
		next.UpdatedAt = now
		if err := expenseRepo.Update(ctx, &next, in.Version); err != nil {
			return err
		}
		created, line = v, next
		return nil
	})
	if err != nil {
		uc.countConflict(err)
		return nil, err
	}

	uc.log.Info().Str("expense_id", id).Str("voucher_id", created.ID).Str("user_id", userID).Msg("comprobante generado desde gasto")
	uc.publish(ctx, ports.EventExpenseUpdated, line)
	if uc.events != nil {
		evt := ports.Event{
			Type:       ports.EventVoucherCreated,
			EntityID:   created.ID,
			OrderID:    created.OriginOrderID,
			Area:       created.OriginArea,
			Version:    created.Version,
			State:      created.ApprovalState,
			OccurredAt: uc.now(),
		}
		if err := uc.events.Publish(ctx, evt); err != nil {
			uc.log.Warn().Err(err).Str("voucher_id", created.ID).Msg("no se pudo publicar el evento")
		}
	}
	return vouchers.ToResponse(created, false), nil
}

func getLine(ctx context.Context, repo repository.ExpenseLineRepository, area, id string) (*entity.ExpenseLine, error) {
	line, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if line == nil || line.Area != area {
		return nil, domain.ErrNotFound
	}
	return line, nil
}

func (uc *ExpenseUseCase) orderStatus(ctx context.Context, orderID string) (string, error) {
	if orderID == "" {
		return "", nil
	}
	o, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil || o == nil {
		return "", err
	}
	return o.Status, nil
}

func financialFields(in dto.UpdateExpenseRequest) []string {
	var f []string
	if in.Net != nil {
		f = append(f, "net")
	}
	if in.CounterpartName != nil {
		f = append(f, "counterpart_name")
	}
	if in.CounterpartTaxID != nil {
		f = append(f, "counterpart_tax_id")
	}
	return f
}

func lockReason(line entity.ExpenseLine, orderStatus string) string {
	switch {
	case expense.OrderLocked(orderStatus):
		return "la orden está " + orderStatus
	case line.VoucherID != "":
		return "el gasto ya tiene comprobante"
	default:
		return "gasto " + line.Status
	}
}

func (uc *ExpenseUseCase) rejected(area string, errs domain.ValidationErrors) {
	for _, e := range errs {
		uc.metrics.ExpenseRejected(area, e.Code)
	}
}

func (uc *ExpenseUseCase) publish(ctx context.Context, eventType string, l entity.ExpenseLine) {
	if uc.events == nil {
		return
	}
	evt := ports.Event{
		Type:       eventType,
		EntityID:   l.ID,
		OrderID:    l.OrderID,
		Area:       l.Area,
		Version:    l.Version,
		State:      l.Status,
		OccurredAt: uc.now(),
	}
	if err := uc.events.Publish(ctx, evt); err != nil {
		uc.log.Warn().Err(err).Str("event", eventType).Str("expense_id", l.ID).Msg("no se pudo publicar el evento")
	}
}

func (uc *ExpenseUseCase) countConflict(err error) {
	if errors.Is(err, domain.ErrVersionConflict) {
		uc.metrics.VersionConflict("expense")
	}
}

func toResponse(l entity.ExpenseLine, financialLocked bool, warnings []domain.Warning) *dto.ExpenseResponse {
	return &dto.ExpenseResponse{
		ID:               l.ID,
		Version:          l.Version,
		Area:             l.Area,
		OrderID:          l.OrderID,
		ProgramID:        l.ProgramID,
		Description:      l.Description,
		Net:              l.Net,
		CounterpartName:  l.CounterpartName,
		CounterpartTaxID: l.CounterpartTaxID,
		Status:           l.Status,
		VoucherID:        l.VoucherID,
		FinancialLocked:  financialLocked,
		Warnings:         warnings,
		CreatedBy:        l.CreatedBy,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
}
