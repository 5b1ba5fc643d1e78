package orders

import (
	"github.com/jhoicas/Presupuestos-api/internal/application/dto"
	"github.com/jhoicas/Presupuestos-api/internal/domain"
	"github.com/jhoicas/Presupuestos-api/internal/domain/entity"
	"github.com/jhoicas/Presupuestos-api/pkg/money"
)

func toProgram(r dto.ProgramAllocationRequest) entity.ProgramAllocation {
	return entity.ProgramAllocation{
		ID:                   r.ID,
		Version:              r.Version,
		ProgramName:          r.ProgramName,
		AllocatedAmount:      r.AllocatedAmount,
		ImplementationCap:    r.ImplementationCap,
		TalentCap:            r.TalentCap,
		TechnicalCap:         r.TechnicalCap,
		CreditNoteAmount:     r.CreditNoteAmount,
		CreditNotePercentage: r.CreditNotePercentage,
		FeeAmount:            r.FeeAmount,
		FeePercentage:        r.FeePercentage,
	}
}

func toProgramResponse(p entity.ProgramAllocation) dto.ProgramAllocationResponse {
	return dto.ProgramAllocationResponse{
		ID:                   p.ID,
		Version:              p.Version,
		ProgramName:          p.ProgramName,
		AllocatedAmount:      p.AllocatedAmount,
		ImplementationCap:    p.ImplementationCap,
		TalentCap:            p.TalentCap,
		TechnicalCap:         p.TechnicalCap,
		CreditNoteAmount:     p.CreditNoteAmount,
		CreditNotePercentage: p.CreditNotePercentage,
		FeeAmount:            p.FeeAmount,
		FeePercentage:        p.FeePercentage,
	}
}

// applyHeader copia la cabecera editable del request a la orden.
func applyHeader(o *entity.CampaignOrder, in dto.SaveOrderRequest) {
	o.Number = in.Number
	o.Client = in.Client
	o.Brand = in.Brand
	o.CampaignName = in.CampaignName
	o.BusinessUnit = in.BusinessUnit
	o.BusinessCategory = in.BusinessCategory
	o.Project = in.Project
	o.Currency = in.Currency
	o.TotalSaleAmount = in.TotalSaleAmount
}

func toOrderResponse(o entity.CampaignOrder, warnings []domain.Warning) *dto.OrderResponse {
	programs := make([]dto.ProgramAllocationResponse, 0, len(o.Programs))
	for _, p := range o.Programs {
		programs = append(programs, toProgramResponse(p))
	}
	return &dto.OrderResponse{
		ID:               o.ID,
		Version:          o.Version,
		Number:           o.Number,
		Client:           o.Client,
		Brand:            o.Brand,
		CampaignName:     o.CampaignName,
		BusinessUnit:     o.BusinessUnit,
		BusinessCategory: o.BusinessCategory,
		Project:          o.Project,
		Currency:         o.Currency,
		TotalSaleAmount:  o.TotalSaleAmount,
		TotalFormatted:   money.FormatCurrency(o.TotalSaleAmount, o.Currency),
		Status:           o.Status,
		Programs:         programs,
		Warnings:         warnings,
		CreatedBy:        o.CreatedBy,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}
