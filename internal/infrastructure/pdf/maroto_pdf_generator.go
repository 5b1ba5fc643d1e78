// Package pdf genera la constancia en PDF de un comprobante del circuito de aprobación.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Tipo de movimiento + Estado │ Documento + Fecha     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  CONTRAPARTE: Nombre + CUIT                                 │
//	│  ORIGEN: Área / Orden / Cliente / Campaña                   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  IMPORTES: Neto / IVA / Percepciones / Total / Retenciones  │
//	│  NETO A PAGAR (o a cobrar)                                  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  PAGO: Forma / Banco / Operación / Vencimiento              │
//	│  HISTORIAL: De → A | Usuario | Fecha | Nota    + QR del ID  │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Presupuestos-api/internal/application/ports"
	"github.com/jhoicas/Presupuestos-api/internal/domain/entity"
	"github.com/jhoicas/Presupuestos-api/internal/domain/voucher"
	"github.com/jhoicas/Presupuestos-api/pkg/money"
)

var _ ports.VoucherPDFGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorDanger  = &props.Color{Red: 170, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa ports.VoucherPDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	companyName string
}

// NewMarotoPDFGenerator construye el generador. companyName se imprime como autor del documento.
func NewMarotoPDFGenerator(companyName string) *MarotoPDFGenerator {
	return &MarotoPDFGenerator{companyName: companyName}
}

// GenerateVoucherPDF genera el PDF y devuelve sus bytes. order es nil para comprobantes sin orden.
func (g *MarotoPDFGenerator) GenerateVoucherPDF(_ context.Context, v entity.Comprobante, order *entity.CampaignOrder) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Comprobante "+v.MovementType, true).
		WithAuthor(g.companyName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(v))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(counterpartRow(v))
	m.AddRows(originRow(v, order))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(amountRows(v)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(paymentRow(v))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(historyRows(v)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: tipo de movimiento y estado (izq), documento y fecha (der).
func headerRow(v entity.Comprobante) core.Row {
	title := "COMPROBANTE DE EGRESO"
	if v.MovementType == entity.MovementIngreso {
		title = "COMPROBANTE DE INGRESO"
	}
	stateColor := colorGray
	if v.ApprovalState == entity.VoucherRechazado {
		stateColor = colorDanger
	}
	return row.New(18).Add(
		col.New(7).Add(
			text.New(title, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Estado: "+strings.ToUpper(voucher.StateLabel(v)), props.Text{
				Style: fontstyle.Bold, Size: 9, Top: 9, Color: stateColor,
			}),
		),
		col.New(5).Add(
			text.New(nonEmpty(v.DocumentType, "DOC"), props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(v.DocumentNumber, v.ID), props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+formatDate(v.DocumentDate), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// counterpartRow: proveedor (egreso) o cliente (ingreso).
func counterpartRow(v entity.Comprobante) core.Row {
	label := "PROVEEDOR"
	if v.MovementType == entity.MovementIngreso {
		label = "CLIENTE"
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New(label, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(v.CounterpartName, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New("CUIT: "+nonEmpty(v.CounterpartTaxID, "—"), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
	)
}

// originRow: área de origen y, si existe, la orden de publicidad.
func originRow(v entity.Comprobante, order *entity.CampaignOrder) core.Row {
	detail := "Carga directa de administración"
	if v.OriginArea != entity.OriginDirecto {
		detail = "Área: " + v.OriginArea
	}
	if order != nil {
		detail += fmt.Sprintf("   |   Orden: %s   |   Cliente: %s   |   Campaña: %s",
			order.Number, order.Client, nonEmpty(order.CampaignName, "—"))
	}
	return row.New(12).Add(
		col.New(12).Add(
			text.New("ORIGEN", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(detail, props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

// amountRows: importes con sus etiquetas, en la moneda del comprobante.
func amountRows(v entity.Comprobante) []core.Row {
	type item struct {
		label string
		value decimal.Decimal
	}
	items := []item{
		{"Neto gravado", v.Net},
		{"IVA " + v.IVARate.StringFixed(2) + "%", v.IVAAmount},
		{"Percepciones", v.Perceptions},
		{"Total", v.Total},
	}
	if v.MovementType == entity.MovementIngreso {
		items = append(items,
			item{"Retención IVA", v.IVAWithholding},
			item{"Retención SUSS", v.SocialSecurityWithholding},
		)
	}
	items = append(items,
		item{"Retención IIBB", v.GrossIncomeWithholding},
		item{"Retención Ganancias", v.IncomeTaxWithholding},
	)

	rows := make([]core.Row, 0, len(items)+1)
	for _, it := range items {
		rows = append(rows, row.New(6).Add(
			col.New(6),
			col.New(3).Add(text.New(it.label+":", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})),
			col.New(3).Add(text.New(money.FormatCurrency(it.value, v.Currency), props.Text{Size: 9, Align: align.Right, Right: 1})),
		))
	}

	netLabel := "NETO A PAGAR:"
	if v.MovementType == entity.MovementIngreso {
		netLabel = "NETO A COBRAR:"
	}
	rows = append(rows, row.New(9).Add(
		col.New(6),
		col.New(3).Add(text.New(netLabel, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 2,
		})),
		col.New(3).Add(text.New(money.FormatCurrency(voucher.NetAmount(v), v.Currency), props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 2,
		})),
	))
	return rows
}

// paymentRow: datos administrativos del pago o cobro.
func paymentRow(v entity.Comprobante) core.Row {
	due := formatDate(v.DueDate)
	if d, ok := voucher.ProjectedCollectionDate(v.DocumentDate, v.PaymentTermsDays); ok && v.DueDate == nil {
		due = d.Format("02/01/2006") + " (proyectada)"
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New("PAGO", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(fmt.Sprintf("Forma: %s   |   Banco: %s   |   Operación: %s",
				nonEmpty(v.PaymentMethod, "—"), nonEmpty(v.Bank, "—"), nonEmpty(v.OperationNumber, "—"),
			), props.Text{Size: 8, Top: 6, Color: colorGray}),
			text.New(fmt.Sprintf("Vencimiento: %s   |   Fecha de pago: %s", due, formatDate(v.PaymentDate)),
				props.Text{Size: 8, Top: 11, Color: colorGray}),
		),
	)
}

// historyRows: auditoría de transiciones y QR con el identificador del comprobante.
func historyRows(v entity.Comprobante) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("HISTORIAL DE APROBACIÓN", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
		)),
	}
	if len(v.History) == 0 {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New("Sin movimientos: el comprobante está pendiente de revisión.", props.Text{Size: 7, Color: colorGray, Top: 1}),
		)))
	}
	for _, h := range v.History {
		rows = append(rows, row.New(5).Add(
			col.New(3).Add(text.New(h.From+" → "+h.To, props.Text{Size: 7, Top: 1})),
			col.New(2).Add(text.New(h.Actor, props.Text{Size: 7, Top: 1, Color: colorGray})),
			col.New(2).Add(text.New(h.At.Format("02/01/2006 15:04"), props.Text{Size: 7, Top: 1, Color: colorGray})),
			col.New(5).Add(text.New(h.Note, props.Text{Size: 7, Top: 1})),
		))
	}

	rows = append(rows, row.New(3))
	rows = append(rows, row.New(30).Add(
		col.New(3).Add(code.NewQr(v.ID, props.Rect{Percent: 95, Center: true})),
		col.New(9).Add(
			text.New("Identificador interno del comprobante:", props.Text{Size: 7, Top: 4, Left: 3, Color: colorGray}),
			text.New(v.ID, props.Text{Style: fontstyle.Bold, Size: 8, Top: 9, Left: 3}),
			text.New("Constancia interna. No reemplaza al documento fiscal original.", props.Text{
				Size: 6.5, Top: 18, Left: 3, Color: colorGray,
			}),
		),
	))
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "—"
	}
	return t.Format("02/01/2006")
}
