package voucher_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Presupuestos-api/internal/domain"
	"github.com/jhoicas/Presupuestos-api/internal/domain/entity"
	"github.com/jhoicas/Presupuestos-api/internal/domain/voucher"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var allStates = []string{
	entity.VoucherCreado, entity.VoucherRequiereInfo, entity.VoucherAprobado,
	entity.VoucherRechazado, entity.VoucherPagado,
}

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// ──────────────────────────────────────────────────────────────────────────────
// Grafo de transiciones
// ──────────────────────────────────────────────────────────────────────────────

func TestTransition_Grafo(t *testing.T) {
	allowed := map[string]map[string]bool{
		entity.VoucherCreado:       {entity.VoucherAprobado: true, entity.VoucherRequiereInfo: true, entity.VoucherRechazado: true},
		entity.VoucherRequiereInfo: {entity.VoucherAprobado: true, entity.VoucherRechazado: true},
		entity.VoucherAprobado:     {entity.VoucherPagado: true},
	}
	for _, from := range allStates {
		for _, to := range allStates {
			v := entity.Comprobante{ApprovalState: from}
			out, err := voucher.Transition(v, to, "admin", "", now)
			if allowed[from][to] {
				require.NoError(t, err, "%s -> %s", from, to)
				assert.Equal(t, to, out.ApprovalState)
				require.Len(t, out.History, 1)
				assert.Equal(t, from, out.History[0].From)
				assert.Equal(t, to, out.History[0].To)
			} else {
				assert.ErrorIs(t, err, domain.ErrInvalidTransition, "%s -> %s", from, to)
				assert.Equal(t, from, out.ApprovalState)
			}
		}
	}
}

func TestTransition_RechazadoEsTerminal(t *testing.T) {
	_, err := voucher.Transition(entity.Comprobante{ApprovalState: entity.VoucherRechazado}, entity.VoucherAprobado, "x", "", now)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.True(t, voucher.IsTerminal(entity.VoucherRechazado))
	assert.True(t, voucher.IsTerminal(entity.VoucherPagado))
	assert.False(t, voucher.IsTerminal(entity.VoucherAprobado))
}

func TestTransition_NoModificaOriginal(t *testing.T) {
	v := entity.Comprobante{ApprovalState: entity.VoucherCreado}
	_, err := voucher.Transition(v, entity.VoucherAprobado, "x", "ok", now)
	require.NoError(t, err)
	assert.Equal(t, entity.VoucherCreado, v.ApprovalState)
	assert.Empty(t, v.History)
}

// ──────────────────────────────────────────────────────────────────────────────
// Predicados de bloqueo
// ──────────────────────────────────────────────────────────────────────────────

func TestFinancialFieldsLocked(t *testing.T) {
	locked := map[string]bool{entity.VoucherAprobado: true, entity.VoucherRechazado: true, entity.VoucherPagado: true}
	for _, s := range allStates {
		assert.Equal(t, locked[s], voucher.FinancialFieldsLocked(s), s)
	}
}

func TestAdminFieldsLocked(t *testing.T) {
	locked := map[string]bool{entity.VoucherRechazado: true, entity.VoucherPagado: true}
	for _, s := range allStates {
		assert.Equal(t, locked[s], voucher.AdminFieldsLocked(s), s)
	}
}

func TestApplyPatch_AprobadoPermiteCamposAdministrativos(t *testing.T) {
	v := entity.Comprobante{ApprovalState: entity.VoucherAprobado, Net: d("1000")}
	bank := "Banco Nación"
	out, errs := voucher.ApplyPatch(v, voucher.Patch{Bank: &bank}, false, now)
	require.Empty(t, errs)
	assert.Equal(t, bank, out.Bank)

	net := d("2000")
	_, errs = voucher.ApplyPatch(v, voucher.Patch{Net: &net}, false, now)
	require.Len(t, errs, 1)
	assert.Equal(t, "net", errs[0].Field)
	assert.Equal(t, domain.CodeLocked, errs[0].Code)
}

func TestApplyPatch_OrdenCerradaBloqueaFinancieros(t *testing.T) {
	v := entity.Comprobante{ApprovalState: entity.VoucherCreado}
	name := "Proveedor"
	_, errs := voucher.ApplyPatch(v, voucher.Patch{CounterpartName: &name}, true, now)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "orden")
}

func TestApplyPatch_RecalculaTotales(t *testing.T) {
	v := entity.Comprobante{ApprovalState: entity.VoucherRequiereInfo, Net: d("1000"), IVARate: d("21"), IVAAmount: d("210"), Total: d("1210")}
	net := d("2000")
	out, errs := voucher.ApplyPatch(v, voucher.Patch{Net: &net}, false, now)
	require.Empty(t, errs)
	assert.True(t, out.IVAAmount.Equal(d("420")))
	assert.True(t, out.Total.Equal(d("2420")))
}

func TestApplyPatch_PercepcionesConservanIVACargadoComoMonto(t *testing.T) {
	v := voucher.ComputeTotals(entity.Comprobante{ApprovalState: entity.VoucherCreado, Net: d("1000"), IVAAmount: d("210")})
	require.True(t, v.Total.Equal(d("1210")))

	perc := d("50")
	out, errs := voucher.ApplyPatch(v, voucher.Patch{Perceptions: &perc}, false, now)
	require.Empty(t, errs)
	assert.True(t, out.IVAAmount.Equal(d("210")), "iva=%s", out.IVAAmount)
	assert.True(t, out.Total.Equal(d("1260")), "total=%s", out.Total)
}

func TestApplyPatch_NetoSinAlicuotaConservaIVA(t *testing.T) {
	v := entity.Comprobante{ApprovalState: entity.VoucherCreado, Net: d("1000"), IVAAmount: d("210"), Total: d("1210")}
	net := d("1500")
	out, errs := voucher.ApplyPatch(v, voucher.Patch{Net: &net}, false, now)
	require.Empty(t, errs)
	assert.True(t, out.IVAAmount.Equal(d("210")))
	assert.True(t, out.Total.Equal(d("1710")))
}

func TestApplyPatch_AlicuotaNuevaRecalculaIVA(t *testing.T) {
	v := entity.Comprobante{ApprovalState: entity.VoucherCreado, Net: d("1000"), IVAAmount: d("210"), Total: d("1210")}
	rate := d("10.5")
	out, errs := voucher.ApplyPatch(v, voucher.Patch{IVARate: &rate}, false, now)
	require.Empty(t, errs)
	assert.True(t, out.IVAAmount.Equal(d("105")))
	assert.True(t, out.Total.Equal(d("1105")))
}

func TestValidState(t *testing.T) {
	for _, s := range allStates {
		assert.True(t, voucher.ValidState(s), s)
	}
	assert.False(t, voucher.ValidState("cobrado"))
	assert.False(t, voucher.ValidState(""))
}

func TestApplyPatch_ImporteNegativo(t *testing.T) {
	neg := d("-1")
	_, errs := voucher.ApplyPatch(entity.Comprobante{ApprovalState: entity.VoucherCreado}, voucher.Patch{IVAWithholding: &neg}, false, now)
	assert.True(t, errs.HasCode(domain.CodeNegative))
}

// ──────────────────────────────────────────────────────────────────────────────
// Totales derivados
// ──────────────────────────────────────────────────────────────────────────────

func TestNetToPay_Egreso(t *testing.T) {
	v := entity.Comprobante{MovementType: entity.MovementEgreso, Net: d("1000"), GrossIncomeWithholding: d("30"), IncomeTaxWithholding: d("20")}
	assert.True(t, voucher.NetToPay(v).Equal(d("950")))
	assert.True(t, voucher.NetAmount(v).Equal(d("950")))
}

func TestNetToCollect_Ingreso(t *testing.T) {
	v := entity.Comprobante{
		MovementType: entity.MovementIngreso, Total: d("1210"),
		IVAWithholding: d("10"), GrossIncomeWithholding: d("20"), IncomeTaxWithholding: d("30"), SocialSecurityWithholding: d("40"),
	}
	assert.True(t, voucher.NetToCollect(v).Equal(d("1110")))
	assert.True(t, voucher.NetAmount(v).Equal(d("1110")))
	assert.Equal(t, "cobrado", voucher.TerminalLabel(v.MovementType))
}

func TestProjectedCollectionDate(t *testing.T) {
	inv := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	got, ok := voucher.ProjectedCollectionDate(&inv, 30)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC), got)

	_, ok = voucher.ProjectedCollectionDate(nil, 30)
	assert.False(t, ok)
	_, ok = voucher.ProjectedCollectionDate(&inv, 0)
	assert.False(t, ok)
}

// Escenario: creado (total 1210, IVA 210) -> aprobado -> pagado; luego banco bloqueado y neto a pagar legible.
func TestEscenario_AprobarPagarYBloquear(t *testing.T) {
	v := voucher.ComputeTotals(entity.Comprobante{
		MovementType: entity.MovementEgreso, ApprovalState: entity.VoucherCreado,
		Net: d("1000"), IVARate: d("21"),
	})
	require.True(t, v.Total.Equal(d("1210")))
	require.True(t, v.IVAAmount.Equal(d("210")))

	v, err := voucher.Transition(v, entity.VoucherAprobado, "admin", "", now)
	require.NoError(t, err)
	v, err = voucher.Transition(v, entity.VoucherPagado, "finanzas", "", now)
	require.NoError(t, err)

	bank := "Galicia"
	_, errs := voucher.ApplyPatch(v, voucher.Patch{Bank: &bank}, false, now)
	require.Len(t, errs, 1)
	assert.Equal(t, "bank", errs[0].Field)
	assert.True(t, voucher.NetToPay(v).Equal(d("1000")))
	assert.Len(t, v.History, 2)
}
