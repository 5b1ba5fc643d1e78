package vouchers

import (
	"github.com/jhoicas/Presupuestos-api/internal/application/dto"
	"github.com/jhoicas/Presupuestos-api/internal/domain/entity"
	"github.com/jhoicas/Presupuestos-api/internal/domain/voucher"
	"github.com/jhoicas/Presupuestos-api/pkg/money"
)

// ToResponse arma la respuesta con los campos derivados (neto a pagar/cobrar, fecha proyectada,
// bloqueos y acciones disponibles). Se recalculan en cada lectura, nunca se persisten.
func ToResponse(v entity.Comprobante, orderLocked bool) *dto.VoucherResponse {
	locks := voucher.LocksFor(v.ApprovalState, orderLocked)
	net := voucher.NetAmount(v)

	resp := &dto.VoucherResponse{
		ID:              v.ID,
		Version:         v.Version,
		MovementType:    v.MovementType,
		OriginArea:      v.OriginArea,
		OriginOrderID:   v.OriginOrderID,
		OriginProgramID: v.OriginProgramID,
		OriginExpenseID: v.OriginExpenseID,

		CounterpartName:  v.CounterpartName,
		CounterpartTaxID: v.CounterpartTaxID,
		DocumentType:     v.DocumentType,
		DocumentNumber:   v.DocumentNumber,
		DocumentDate:     v.DocumentDate,

		Currency:                  v.Currency,
		Net:                       v.Net,
		IVARate:                   v.IVARate,
		IVAAmount:                 v.IVAAmount,
		Perceptions:               v.Perceptions,
		Total:                     v.Total,
		IncomeTaxWithholding:      v.IncomeTaxWithholding,
		GrossIncomeWithholding:    v.GrossIncomeWithholding,
		IVAWithholding:            v.IVAWithholding,
		SocialSecurityWithholding: v.SocialSecurityWithholding,

		PaymentMethod:    v.PaymentMethod,
		Bank:             v.Bank,
		OperationNumber:  v.OperationNumber,
		DueDate:          v.DueDate,
		PaymentDate:      v.PaymentDate,
		PaymentTermsDays: v.PaymentTermsDays,

		ApprovalState:   v.ApprovalState,
		StateLabel:      voucher.StateLabel(v),
		NextStates:      voucher.NextStates(v.ApprovalState),
		FinancialLocked: locks.Financial,
		AdminLocked:     locks.Admin,
		NetAmount:       net,
		NetFormatted:    money.FormatCurrency(net, v.Currency),

		Observations: v.Observations,
		AdminNote:    v.AdminNote,
		History:      make([]dto.TransitionResponse, 0, len(v.History)),
		CreatedBy:    v.CreatedBy,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
	if resp.NextStates == nil {
		resp.NextStates = []string{}
	}
	if d, ok := voucher.ProjectedCollectionDate(v.DocumentDate, v.PaymentTermsDays); ok {
		resp.ProjectedDate = &d
	}
	for _, h := range v.History {
		resp.History = append(resp.History, dto.TransitionResponse{From: h.From, To: h.To, Actor: h.Actor, Note: h.Note, At: h.At})
	}
	return resp
}

func toPatch(in dto.UpdateVoucherRequest) voucher.Patch {
	return voucher.Patch{
		CounterpartName:           in.CounterpartName,
		CounterpartTaxID:          in.CounterpartTaxID,
		DocumentType:              in.DocumentType,
		DocumentNumber:            in.DocumentNumber,
		DocumentDate:              in.DocumentDate,
		Net:                       in.Net,
		IVARate:                   in.IVARate,
		IVAAmount:                 in.IVAAmount,
		Perceptions:               in.Perceptions,
		Observations:              in.Observations,
		PaymentMethod:             in.PaymentMethod,
		Bank:                      in.Bank,
		OperationNumber:           in.OperationNumber,
		DueDate:                   in.DueDate,
		PaymentDate:               in.PaymentDate,
		PaymentTermsDays:          in.PaymentTermsDays,
		IncomeTaxWithholding:      in.IncomeTaxWithholding,
		GrossIncomeWithholding:    in.GrossIncomeWithholding,
		IVAWithholding:            in.IVAWithholding,
		SocialSecurityWithholding: in.SocialSecurityWithholding,
		AdminNote:                 in.AdminNote,
	}
}
