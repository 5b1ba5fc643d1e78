// Package orders contiene los casos de uso de la Orden de Publicidad: alta, edición con control
// de versión, cierre/anulación en cascada y resumen de presupuesto por programa y área.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Presupuestos-api/internal/application/dto"
	"github.com/jhoicas/Presupuestos-api/internal/application/ports"
	"github.com/jhoicas/Presupuestos-api/internal/domain"
	"github.com/jhoicas/Presupuestos-api/internal/domain/allocation"
	"github.com/jhoicas/Presupuestos-api/internal/domain/budget"
	"github.com/jhoicas/Presupuestos-api/internal/domain/entity"
	"github.com/jhoicas/Presupuestos-api/internal/domain/expense"
	"github.com/jhoicas/Presupuestos-api/internal/domain/repository"
	"github.com/jhoicas/Presupuestos-api/pkg/logger"
)

// OrderUseCase casos de uso de órdenes.
type OrderUseCase struct {
	tx              ports.TxRunner
	orderRepo       repository.OrderRepository
	expenseRepo     repository.ExpenseLineRepository
	events          ports.EventPublisher
	metrics         ports.MetricsRecorder
	log             *logger.Logger
	defaultCurrency string
	now             func() time.Time
}

// NewOrderUseCase construye el caso de uso. events, metrics y log pueden ser nil.
func NewOrderUseCase(
	tx ports.TxRunner,
	orderRepo repository.OrderRepository,
	expenseRepo repository.ExpenseLineRepository,
	events ports.EventPublisher,
	metrics ports.MetricsRecorder,
	log *logger.Logger,
	defaultCurrency string,
) *OrderUseCase {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &OrderUseCase{
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

// Create valida y persiste una orden nueva en estado abierto.
func (uc *OrderUseCase) Create(ctx context.Context, userID string, in dto.SaveOrderRequest) (*dto.OrderResponse, error) {
	now := uc.now()
	order := entity.CampaignOrder{
		ID:        uuid.New().String(),
		Status:    entity.OrderStatusAbierto,
		CreatedBy: userID,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
	applyHeader(&order, in)
	if order.Currency == "" {
		order.Currency = uc.defaultCurrency
	}
	if strings.TrimSpace(order.Number) == "" {
		order.Number = orderNumber(now, order.ID)
	}
	for _, r := range in.Programs {
		p := toProgram(r)
		p.ID = uuid.New().String()
		p.OrderID = order.ID
		p.Version = 1
		order.Programs = append(order.Programs, p)
	}

	if errs := allocation.ValidateOrder(order); len(errs) > 0 {
		return nil, errs
	}
	err := uc.tx.Run(ctx, func(orderRepo repository.OrderRepository, _ repository.ExpenseLineRepository, _ repository.VoucherRepository) error {
		return orderRepo.Create(ctx, &order)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("order_id", order.ID).Str("number", order.Number).Str("user_id", userID).Msg("orden creada")
	uc.publish(ctx, ports.EventOrderCreated, order)
	return toOrderResponse(order, nil), nil
}

// Update reemplaza cabecera y filas de una orden abierta. in.Version y la versión de cada fila
// existente deben coincidir con lo persistido; si no, ErrVersionConflict.
func (uc *OrderUseCase) Update(ctx context.Context, userID, id string, in dto.SaveOrderRequest) (*dto.OrderResponse, error) {
	var saved entity.CampaignOrder
	err := uc.tx.Run(ctx, func(orderRepo repository.OrderRepository, expenseRepo repository.ExpenseLineRepository, _ repository.VoucherRepository) error {
		current, err := orderRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		if !current.IsOpen() {
			return domain.ErrOrderClosed
		}
		if current.Version != in.Version {
			return domain.ErrVersionConflict
		}

		next := current.Clone()
		applyHeader(&next, in)
		if next.Currency == "" {
			next.Currency = current.Currency
		}
		if strings.TrimSpace(next.Number) == "" {
			next.Number = current.Number
		}
		rows, err := mergePrograms(*current, in.Programs)
		if err != nil {
			return err
		}
		next.Programs = rows
		next.UpdatedAt = uc.now()

		errs := allocation.ValidateOrder(next)
		if removed := removedPrograms(*current, rows); len(removed) > 0 {
			lines, err := expenseRepo.List(ctx, repository.ExpenseFilter{OrderID: id})
			if err != nil {
				return err
			}
			for _, p := range removed {
				if !expense.CanRemoveProgram(p.ID, lines) {
					errs.Add("programs", domain.CodeInvalidValue,
						fmt.Sprintf("el programa %q tiene gastos cargados y no puede quitarse", p.ProgramName))
				}
			}
		}
		if len(errs) > 0 {
			return errs
		}
		if err := orderRepo.Update(ctx, &next, in.Version); err != nil {
			return err
		}
		saved = next
		return nil
	})
	if err != nil {
		uc.countConflict(err)
		return nil, err
	}

	uc.log.Info().Str("order_id", id).Int("version", saved.Version).Str("user_id", userID).Msg("orden actualizada")
	uc.publish(ctx, ports.EventOrderUpdated, saved)
	return toOrderResponse(saved, nil), nil
}

// mergePrograms combina las filas enviadas con las persistidas. Las filas sin ID son nuevas;
// las existentes conservan su versión si no cambiaron y la incrementan si cambiaron.
// Si cambia el monto asignado y los pares vinculados llegan intactos, sus montos se
// recalculan desde los porcentajes.
func mergePrograms(current entity.CampaignOrder, in []dto.ProgramAllocationRequest) ([]entity.ProgramAllocation, error) {
	rows := make([]entity.ProgramAllocation, 0, len(in))
	for _, r := range in {
		p := toProgram(r)
		p.OrderID = current.ID
		if p.ID == "" {
			p.ID = uuid.New().String()
			p.Version = 1
			rows = append(rows, p)
			continue
		}
		stored, _ := current.Program(p.ID)
		if stored == nil || stored.Version != r.Version {
			return nil, domain.ErrVersionConflict
		}
		p.Version = stored.Version
		if !p.AllocatedAmount.Equal(stored.AllocatedAmount) && linkedUnchanged(*stored, p) {
			p = allocation.RecomputeAllLinked(p)
		}
		if programChanged(*stored, p) {
			p.Version++
		}
		rows = append(rows, p)
	}
	return rows, nil
}

// orderNumber numera una orden cargada sin número: OP-<año>-<prefijo del ID>.
func orderNumber(now time.Time, id string) string {
	return fmt.Sprintf("OP-%d-%s", now.Year(), strings.ToUpper(strings.ReplaceAll(id, "-", "")[:8]))
}

// linkedUnchanged indica si el cliente reenvió los pares vinculados tal como estaban persistidos.
func linkedUnchanged(a, b entity.ProgramAllocation) bool {
	return a.CreditNoteAmount.Equal(b.CreditNoteAmount) &&
		a.CreditNotePercentage.Equal(b.CreditNotePercentage) &&
		a.FeeAmount.Equal(b.FeeAmount) &&
		a.FeePercentage.Equal(b.FeePercentage)
}

func programChanged(a, b entity.ProgramAllocation) bool {
	return a.ProgramName != b.ProgramName ||
		!a.AllocatedAmount.Equal(b.AllocatedAmount) ||
		!a.ImplementationCap.Equal(b.ImplementationCap) ||
		!a.TalentCap.Equal(b.TalentCap) ||
		!a.TechnicalCap.Equal(b.TechnicalCap) ||
		!a.CreditNoteAmount.Equal(b.CreditNoteAmount) ||
		!a.CreditNotePercentage.Equal(b.CreditNotePercentage) ||
		!a.FeeAmount.Equal(b.FeeAmount) ||
		!a.FeePercentage.Equal(b.FeePercentage)
}

func removedPrograms(current entity.CampaignOrder, rows []entity.ProgramAllocation) []entity.ProgramAllocation {
	kept := make(map[string]bool, len(rows))
	for _, r := range rows {
		kept[r.ID] = true
	}
	var out []entity.ProgramAllocation
	for _, p := range current.Programs {
		if !kept[p.ID] {
			out = append(out, p)
		}
	}
	return out
}

// Get devuelve la orden o ErrNotFound.
func (uc *OrderUseCase) Get(ctx context.Context, id string) (*dto.OrderResponse, error) {
	o, err := uc.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	return toOrderResponse(*o, nil), nil
}

// List devuelve una página de órdenes filtrada por estado y cliente.
func (uc *OrderUseCase) List(ctx context.Context, status, client string, page dto.PageRequest) (*dto.OrderListResponse, error) {
	page.DefaultPage()
	items, err := uc.orderRepo.List(ctx, repository.OrderFilter{Status: status, Client: client, Limit: page.Limit, Offset: page.Offset})
	if err != nil {
		return nil, err
	}
	out := &dto.OrderListResponse{
		Items: make([]dto.OrderResponse, 0, len(items)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, o := range items {
		out.Items = append(out.Items, *toOrderResponse(o, nil))
	}
	return out, nil
}

// Close cierra la orden. Falla si quedan gastos pendientes; las líneas activas pasan a cerrado.
func (uc *OrderUseCase) Close(ctx context.Context, userID, id string, version int) (*dto.OrderResponse, error) {
	return uc.changeStatus(ctx, userID, id, version, entity.OrderStatusCerrado, ports.EventOrderClosed)
}

// Annul anula la orden y sus líneas pendientes o activas.
func (uc *OrderUseCase) Annul(ctx context.Context, userID, id string, version int) (*dto.OrderResponse, error) {
	return uc.changeStatus(ctx, userID, id, version, entity.OrderStatusAnulado, ports.EventOrderAnnulled)
}

func (uc *OrderUseCase) changeStatus(ctx context.Context, userID, id string, version int, target, eventType string) (*dto.OrderResponse, error) {
	var cascaded int
	err := uc.tx.Run(ctx, func(orderRepo repository.OrderRepository, expenseRepo repository.ExpenseLineRepository, _ repository.VoucherRepository) error {
		current, err := orderRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		if !current.IsOpen() {
			return fmt.Errorf("%w: orden %s", domain.ErrInvalidTransition, current.Status)
		}
		if current.Version != version {
			return domain.ErrVersionConflict
		}
		lines, err := expenseRepo.List(ctx, repository.ExpenseFilter{OrderID: id})
		if err != nil {
			return err
		}
		if target == entity.OrderStatusCerrado {
			if errs := expense.CanCloseOrder(lines); len(errs) > 0 {
				return errs
			}
		}
		now := uc.now()
		for _, l := range expense.CascadeOrderStatus(lines, target) {
			l.UpdatedAt = now
			if err := expenseRepo.Update(ctx, &l, l.Version); err != nil {
				return err
			}
			cascaded++
		}
		return orderRepo.UpdateStatus(ctx, id, target, version)
	})
	if err != nil {
		uc.countConflict(err)
		return nil, err
	}

	o, err := uc.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	uc.log.Info().Str("order_id", id).Str("status", target).Int("lines", cascaded).Str("user_id", userID).Msg("estado de orden actualizado")
	uc.publish(ctx, eventType, *o)
	return toOrderResponse(*o, nil), nil
}

// BudgetSummary consumo de la orden por programa y por área. Las líneas anuladas no cuentan.
func (uc *OrderUseCase) BudgetSummary(ctx context.Context, id string) (*dto.OrderBudgetResponse, error) {
	var (
		order *entity.CampaignOrder
		lines []entity.ExpenseLine
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		o, err := uc.orderRepo.GetByID(gctx, id)
		order = o
		return err
	})
	g.Go(func() error {
		l, err := uc.expenseRepo.List(gctx, repository.ExpenseFilter{OrderID: id})
		lines = l
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	return summarize(*order, lines), nil
}

func summarize(order entity.CampaignOrder, lines []entity.ExpenseLine) *dto.OrderBudgetResponse {
	byProgram := make(map[string][]entity.ExpenseLine)
	for _, l := range lines {
		byProgram[l.ProgramID] = append(byProgram[l.ProgramID], l)
	}

	total := budget.Summarize(order.TotalSaleAmount, lines, budget.ExcludeCancelled)
	out := &dto.OrderBudgetResponse{
		OrderID:    order.ID,
		Currency:   order.Currency,
		Total:      total.Allocated,
		Executed:   total.Executed,
		Remaining:  total.Remaining,
		OverBudget: total.OverBudget,
		Programs:   make([]dto.ProgramBudget, 0, len(order.Programs)),
	}

	for i, p := range order.Programs {
		programLines := byProgram[p.ID]
		ps := budget.Summarize(p.AllocatedAmount, programLines, budget.ExcludeCancelled)
		pb := dto.ProgramBudget{
			ProgramID:   p.ID,
			ProgramName: p.ProgramName,
			Allocated:   ps.Allocated,
			Executed:    ps.Executed,
			Remaining:   ps.Remaining,
			OverBudget:  ps.OverBudget,
		}
		out.Warnings = append(out.Warnings, atRow(ps.Warnings("allocated_amount"), i)...)

		for _, area := range expense.Areas() {
			cfg, _ := expense.Config(area)
			areaLines := filterArea(programLines, area)
			if !cfg.RequiresOrder && len(areaLines) == 0 {
				continue
			}
			s := budget.Summarize(cfg.CapOf(p), areaLines, budget.ExcludeCancelled)
			ws := atRow(s.Warnings(cfg.CapField), i)
			pb.Areas = append(pb.Areas, dto.AreaBudget{
				Area:       area,
				CapField:   cfg.CapField,
				Allocated:  s.Allocated,
				Executed:   s.Executed,
				Remaining:  s.Remaining,
				OverBudget: s.OverBudget,
				Overage:    s.Overage,
				Warnings:   ws,
			})
			out.Warnings = append(out.Warnings, ws...)
		}
		out.Programs = append(out.Programs, pb)
	}
	out.Warnings = append(out.Warnings, total.Warnings("total_sale_amount")...)
	return out
}

func filterArea(lines []entity.ExpenseLine, area string) []entity.ExpenseLine {
	var out []entity.ExpenseLine
	for _, l := range lines {
		if l.Area == area {
			out = append(out, l)
		}
	}
	return out
}

func atRow(ws []domain.Warning, row int) []domain.Warning {
	for i := range ws {
		ws[i].Row = row
	}
	return ws
}

// CheckDraft valida una orden en edición sin persistirla: errores bloqueantes y advertencias en vivo.
func (uc *OrderUseCase) CheckDraft(in dto.SaveOrderRequest) *dto.DraftOrderCheckResponse {
	order := entity.CampaignOrder{Status: entity.OrderStatusAbierto}
	applyHeader(&order, in)
	if order.Currency == "" {
		order.Currency = uc.defaultCurrency
	}
	for _, r := range in.Programs {
		order.Programs = append(order.Programs, toProgram(r))
	}
	errs := allocation.ValidateOrder(order)
	warnings := budget.DuplicateProgramWarnings(order.Programs)
	out := &dto.DraftOrderCheckResponse{
		Errors:   []domain.FieldError(errs),
		Warnings: warnings,
	}
	if out.Errors == nil {
		out.Errors = []domain.FieldError{}
	}
	if out.Warnings == nil {
		out.Warnings = []domain.Warning{}
	}
	return out
}

// LinkedPercentage recalcula el lado opuesto de un par monto/porcentaje de la fila.
func (uc *OrderUseCase) LinkedPercentage(in dto.LinkedPercentageRequest) (*dto.ProgramAllocationResponse, error) {
	if in.Pair != allocation.PairCreditNote && in.Pair != allocation.PairFee {
		return nil, fmt.Errorf("%w: par %q", domain.ErrInvalidInput, in.Pair)
	}
	if in.ChangedSide != allocation.SideAmount && in.ChangedSide != allocation.SidePercentage {
		return nil, fmt.Errorf("%w: lado %q", domain.ErrInvalidInput, in.ChangedSide)
	}
	row := allocation.RecomputeLinkedPercentage(toProgram(in.Row), in.Pair, in.ChangedSide)
	resp := toProgramResponse(row)
	return &resp, nil
}

// FieldsToReset campos dependientes a limpiar cuando cambia un campo de clasificación.
func (uc *OrderUseCase) FieldsToReset(in dto.FieldsToResetRequest) dto.FieldsToResetResponse {
	fields := allocation.FieldsToReset(in.Field, in.OldValue, in.NewValue)
	if fields == nil {
		fields = []string{}
	}
	return dto.FieldsToResetResponse{Fields: fields}
}

func (uc *OrderUseCase) publish(ctx context.Context, eventType string, o entity.CampaignOrder) {
	if uc.events == nil {
		return
	}
	evt := ports.Event{
		Type:       eventType,
		EntityID:   o.ID,
		OrderID:    o.ID,
		Version:    o.Version,
		State:      o.Status,
		OccurredAt: uc.now(),
	}
	if err := uc.events.Publish(ctx, evt); err != nil {
		uc.log.Warn().Err(err).Str("event", eventType).Str("order_id", o.ID).Msg("no se pudo publicar el evento")
	}
}

func (uc *OrderUseCase) countConflict(err error) {
	if errors.Is(err, domain.ErrVersionConflict) {
		uc.metrics.VersionConflict("order")
	}
}
