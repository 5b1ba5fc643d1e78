package ports

import (
	"context"

	"github.com/jhoicas/Presupuestos-api/internal/domain/entity"
)

// VoucherPDFGenerator genera la constancia imprimible de un comprobante.
// order es nil para comprobantes sin orden de origen.
type VoucherPDFGenerator interface {
	GenerateVoucherPDF(ctx context.Context, v entity.Comprobante, order *entity.CampaignOrder) ([]byte, error)
}
