// Package vouchers contiene los casos de uso del circuito de comprobantes: carga directa,
// edición con bloqueos por estado, transiciones de aprobación y constancia en PDF.
package vouchers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Presupuestos-api/internal/application/dto"
	"github.com/jhoicas/Presupuestos-api/internal/application/ports"
	"github.com/jhoicas/Presupuestos-api/internal/domain"
	"github.com/jhoicas/Presupuestos-api/internal/domain/entity"
	"github.com/jhoicas/Presupuestos-api/internal/domain/expense"
	"github.com/jhoicas/Presupuestos-api/internal/domain/repository"
	"github.com/jhoicas/Presupuestos-api/internal/domain/voucher"
	"github.com/jhoicas/Presupuestos-api/pkg/logger"
)

// CanAdminister indica si el rol opera el circuito: transiciones y campos administrativos.
func CanAdminister(role string) bool {
	switch role {
	case entity.RoleAdmin, entity.RoleAdministracion, entity.RoleFinanzas:
		return true
	}
	return false
}

// VoucherUseCase casos de uso de comprobantes.
type VoucherUseCase struct {
	tx              ports.TxRunner
	voucherRepo     repository.VoucherRepository
	orderRepo       repository.OrderRepository
	pdf             ports.VoucherPDFGenerator
	events          ports.EventPublisher
	metrics         ports.MetricsRecorder
	log             *logger.Logger
	defaultCurrency string
	now             func() time.Time
}

// NewVoucherUseCase construye el caso de uso. pdf, events, metrics y log pueden ser nil.
func NewVoucherUseCase(
	tx ports.TxRunner,
	voucherRepo repository.VoucherRepository,
	orderRepo repository.OrderRepository,
	pdf ports.VoucherPDFGenerator,
	events ports.EventPublisher,
	metrics ports.MetricsRecorder,
	log *logger.Logger,
	defaultCurrency string,
) *VoucherUseCase {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &VoucherUseCase{
		tx:              tx,
		voucherRepo:     voucherRepo,
		orderRepo:       orderRepo,
		pdf:             pdf,
		events:          events,
		metrics:         metrics,
		log:             log,
		defaultCurrency: defaultCurrency,
		now:             time.Now,
	}
}

// CreateDirect registra un comprobante cargado directamente por administración (sin línea de gasto).
func (uc *VoucherUseCase) CreateDirect(ctx context.Context, userID string, in dto.CreateVoucherRequest) (*dto.VoucherResponse, error) {
	var errs domain.ValidationErrors
	if in.MovementType != entity.MovementIngreso && in.MovementType != entity.MovementEgreso {
		errs.Add("movement_type", domain.CodeInvalidValue, "el tipo de movimiento debe ser ingreso o egreso")
	}
	if strings.TrimSpace(in.CounterpartName) == "" {
		errs.Add("counterpart_name", domain.CodeRequired, "la contraparte es obligatoria")
	}
	if strings.TrimSpace(in.CounterpartTaxID) == "" {
		errs.Add("counterpart_tax_id", domain.CodeRequired, "el CUIT es obligatorio")
	}
	if !in.Net.IsPositive() {
		errs.Add("net", domain.CodeRequired, "el neto debe ser mayor a cero")
	}
	amounts := []struct {
		field string
		value decimal.Decimal
	}{
		{"iva_rate", in.IVARate}, {"iva_amount", in.IVAAmount}, {"perceptions", in.Perceptions},
		{"income_tax_withholding", in.IncomeTaxWithholding}, {"gross_income_withholding", in.GrossIncomeWithholding},
		{"iva_withholding", in.IVAWithholding}, {"social_security_withholding", in.SocialSecurityWithholding},
	}
	for _, a := range amounts {
		if a.value.IsNegative() {
			errs.Add(a.field, domain.CodeNegative, "el importe no puede ser negativo")
		}
	}
	if in.PaymentTermsDays < 0 {
		errs.Add("payment_terms_days", domain.CodeNegative, "el plazo no puede ser negativo")
	}

	now := uc.now()
	v := entity.Comprobante{
		ID:                        uuid.New().String(),
		MovementType:              in.MovementType,
		OriginArea:                entity.OriginDirecto,
		OriginOrderID:             in.OriginOrderID,
		CounterpartName:           in.CounterpartName,
		CounterpartTaxID:          in.CounterpartTaxID,
		DocumentType:              in.DocumentType,
		DocumentNumber:            in.DocumentNumber,
		DocumentDate:              in.DocumentDate,
		Currency:                  in.Currency,
		Net:                       in.Net,
		IVARate:                   in.IVARate,
		IVAAmount:                 in.IVAAmount,
		Perceptions:               in.Perceptions,
		IncomeTaxWithholding:      in.IncomeTaxWithholding,
		GrossIncomeWithholding:    in.GrossIncomeWithholding,
		IVAWithholding:            in.IVAWithholding,
		SocialSecurityWithholding: in.SocialSecurityWithholding,
		PaymentTermsDays:          in.PaymentTermsDays,
		Observations:              in.Observations,
		ApprovalState:             entity.VoucherCreado,
		CreatedBy:                 userID,
		CreatedAt:                 now,
		UpdatedAt:                 now,
		Version:                   1,
	}

	err := uc.tx.Run(ctx, func(orderRepo repository.OrderRepository, _ repository.ExpenseLineRepository, voucherRepo repository.VoucherRepository) error {
		if v.OriginOrderID != "" {
			order, err := orderRepo.GetForUpdate(ctx, v.OriginOrderID)
			if err != nil {
				return err
			}
			switch {
			case order == nil:
				errs.Add("origin_order_id", domain.CodeInvalidValue, "la orden no existe")
			case !order.IsOpen():
				errs.Add("origin_order_id", domain.CodeOrderClosed, "la orden está "+order.Status)
			case v.Currency == "":
				v.Currency = order.Currency
			}
		}
		if len(errs) > 0 {
			return errs
		}
		if v.Currency == "" {
			v.Currency = uc.defaultCurrency
		}
		v = voucher.ComputeTotals(v)
		return voucherRepo.Create(ctx, &v)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("voucher_id", v.ID).Str("movement", v.MovementType).Str("user_id", userID).Msg("comprobante creado")
	uc.publish(ctx, ports.EventVoucherCreated, v)
	return ToResponse(v, false), nil
}

// Get devuelve el comprobante con sus campos derivados.
func (uc *VoucherUseCase) Get(ctx context.Context, id string) (*dto.VoucherResponse, error) {
	v, err := uc.voucherRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, domain.ErrNotFound
	}
	locked, err := orderLocked(ctx, uc.orderRepo, *v)
	if err != nil {
		return nil, err
	}
	return ToResponse(*v, locked), nil
}

// List bandeja de comprobantes filtrada por estado, área de origen, tipo y orden.
func (uc *VoucherUseCase) List(ctx context.Context, filter repository.VoucherFilter, page dto.PageRequest) (*dto.VoucherListResponse, error) {
	if filter.ApprovalState != "" && !voucher.ValidState(filter.ApprovalState) {
		return nil, fmt.Errorf("%w: estado de aprobación %q desconocido", domain.ErrInvalidInput, filter.ApprovalState)
	}
	page.DefaultPage()
	filter.Limit, filter.Offset = page.Limit, page.Offset
	items, err := uc.voucherRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := &dto.VoucherListResponse{
		Items: make([]dto.VoucherResponse, 0, len(items)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	statuses := make(map[string]bool)
	for _, v := range items {
		locked, seen := statuses[v.OriginOrderID]
		if !seen {
			if locked, err = orderLocked(ctx, uc.orderRepo, v); err != nil {
				return nil, err
			}
			statuses[v.OriginOrderID] = locked
		}
		out.Items = append(out.Items, *ToResponse(v, locked))
	}
	return out, nil
}

// Update aplica una edición parcial. Los campos administrativos solo los edita un rol que
// administra el circuito; los bloqueos por estado se informan campo por campo.
func (uc *VoucherUseCase) Update(ctx context.Context, userID, role, id string, in dto.UpdateVoucherRequest) (*dto.VoucherResponse, error) {
	patch := toPatch(in)
	if patch.HasAdminChanges() && !CanAdminister(role) {
		return nil, fmt.Errorf("%w: el rol %q no edita campos administrativos", domain.ErrForbidden, role)
	}

	var (
		saved  entity.Comprobante
		locked bool
	)
	err := uc.tx.Run(ctx, func(orderRepo repository.OrderRepository, _ repository.ExpenseLineRepository, voucherRepo repository.VoucherRepository) error {
		current, err := voucherRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		if current.Version != in.Version {
			return domain.ErrVersionConflict
		}
		if locked, err = orderLocked(ctx, orderRepo, *current); err != nil {
			return err
		}
		out, errs := voucher.ApplyPatch(*current, patch, locked, uc.now())
		if len(errs) > 0 {
			return errs
		}
		if err := voucherRepo.Update(ctx, &out, in.Version); err != nil {
			return err
		}
		saved = out
		return nil
	})
	if err != nil {
		uc.countConflict(err)
		return nil, err
	}

	uc.log.Info().Str("voucher_id", id).Int("version", saved.Version).Str("user_id", userID).Msg("comprobante actualizado")
	uc.publish(ctx, ports.EventVoucherUpdated, saved)
	return ToResponse(saved, locked), nil
}

// Approve creado|requiere_info -> aprobado.
func (uc *VoucherUseCase) Approve(ctx context.Context, userID, role, id string, in dto.TransitionRequest) (*dto.VoucherResponse, error) {
	return uc.transition(ctx, userID, role, id, entity.VoucherAprobado, in)
}

// RequestInfo creado -> requiere_info. La nota indica qué falta.
func (uc *VoucherUseCase) RequestInfo(ctx context.Context, userID, role, id string, in dto.TransitionRequest) (*dto.VoucherResponse, error) {
	return uc.transition(ctx, userID, role, id, entity.VoucherRequiereInfo, in)
}

// Reject creado|requiere_info -> rechazado (terminal). Requiere nota.
func (uc *VoucherUseCase) Reject(ctx context.Context, userID, role, id string, in dto.TransitionRequest) (*dto.VoucherResponse, error) {
	return uc.transition(ctx, userID, role, id, entity.VoucherRechazado, in)
}

// MarkAsPaid aprobado -> pagado (cobrado en ingresos). Completa la fecha de pago si falta.
func (uc *VoucherUseCase) MarkAsPaid(ctx context.Context, userID, role, id string, in dto.TransitionRequest) (*dto.VoucherResponse, error) {
	return uc.transition(ctx, userID, role, id, entity.VoucherPagado, in)
}

func (uc *VoucherUseCase) transition(ctx context.Context, userID, role, id, target string, in dto.TransitionRequest) (*dto.VoucherResponse, error) {
	if !CanAdminister(role) {
		return nil, fmt.Errorf("%w: el rol %q no opera el circuito de aprobación", domain.ErrForbidden, role)
	}
	if (target == entity.VoucherRequiereInfo || target == entity.VoucherRechazado) && strings.TrimSpace(in.Note) == "" {
		var errs domain.ValidationErrors
		errs.Add("note", domain.CodeRequired, "indique el motivo")
		return nil, errs
	}

	var (
		saved  entity.Comprobante
		from   string
		locked bool
	)
	err := uc.tx.Run(ctx, func(orderRepo repository.OrderRepository, expenseRepo repository.ExpenseLineRepository, voucherRepo repository.VoucherRepository) error {
		current, err := voucherRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		if current.Version != in.Version {
			return domain.ErrVersionConflict
		}
		now := uc.now()
		out, err := voucher.Transition(*current, target, userID, in.Note, now)
		if err != nil {
			return err
		}
		if target == entity.VoucherPagado && out.PaymentDate == nil {
			out.PaymentDate = &now
		}
		if err := voucherRepo.Update(ctx, &out, in.Version); err != nil {
			return err
		}
		if target == entity.VoucherRechazado {
			if err := releaseExpense(ctx, expenseRepo, out, now); err != nil {
				return err
			}
		}
		if locked, err = orderLocked(ctx, orderRepo, out); err != nil {
			return err
		}
		from, saved = current.ApprovalState, out
		return nil
	})
	if err != nil {
		uc.countConflict(err)
		return nil, err
	}

	uc.metrics.VoucherTransition(from, target)
	uc.log.Info().Str("voucher_id", id).Str("from", from).Str("to", target).Str("user_id", userID).Msg("transición de comprobante")
	uc.publish(ctx, ports.EventVoucherTransition, saved)
	return ToResponse(saved, locked), nil
}

// releaseExpense desvincula la línea de origen de un comprobante rechazado para que pueda
// corregirse y volver a generar su comprobante. La línea conserva su estado.
func releaseExpense(ctx context.Context, repo repository.ExpenseLineRepository, v entity.Comprobante, now time.Time) error {
	if v.OriginExpenseID == "" {
		return nil
	}
	line, err := repo.GetByID(ctx, v.OriginExpenseID)
	if err != nil || line == nil || line.VoucherID != v.ID {
		return err
	}
	line.VoucherID = ""
	line.UpdatedAt = now
	return repo.Update(ctx, line, line.Version)
}

// RenderPDF genera la constancia del comprobante. Devuelve los bytes y un nombre de archivo sugerido.
func (uc *VoucherUseCase) RenderPDF(ctx context.Context, id string) ([]byte, string, error) {
	if uc.pdf == nil {
		return nil, "", fmt.Errorf("pdf: generador no configurado")
	}
	v, err := uc.voucherRepo.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if v == nil {
		return nil, "", domain.ErrNotFound
	}
	var order *entity.CampaignOrder
	if v.OriginOrderID != "" {
		if order, err = uc.orderRepo.GetByID(ctx, v.OriginOrderID); err != nil {
			return nil, "", err
		}
	}
	b, err := uc.pdf.GenerateVoucherPDF(ctx, *v, order)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generar comprobante: %w", err)
	}
	name := v.DocumentNumber
	if name == "" {
		name = v.ID
	}
	return b, fmt.Sprintf("comprobante-%s.pdf", name), nil
}

// orderLocked la orden de origen cerrada o anulada bloquea los campos financieros del comprobante.
func orderLocked(ctx context.Context, orderRepo repository.OrderRepository, v entity.Comprobante) (bool, error) {
	if v.OriginOrderID == "" {
		return false, nil
	}
	o, err := orderRepo.GetByID(ctx, v.OriginOrderID)
	if err != nil {
		return false, err
	}
	return o != nil && expense.OrderLocked(o.Status), nil
}

func (uc *VoucherUseCase) publish(ctx context.Context, eventType string, v entity.Comprobante) {
	if uc.events == nil {
		return
	}
	evt := ports.Event{
		Type:       eventType,
		EntityID:   v.ID,
		OrderID:    v.OriginOrderID,
		Area:       v.OriginArea,
		Version:    v.Version,
		State:      v.ApprovalState,
		OccurredAt: uc.now(),
	}
	if err := uc.events.Publish(ctx, evt); err != nil {
		uc.log.Warn().Err(err).Str("event", eventType).Str("voucher_id", v.ID).Msg("no se pudo publicar el evento")
	}
}

func (uc *VoucherUseCase) countConflict(err error) {
	if errors.Is(err, domain.ErrVersionConflict) {
		uc.metrics.VersionConflict("voucher")
	}
}
