package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Presupuestos-api/internal/application/auth"
	"github.com/jhoicas/Presupuestos-api/internal/application/dto"
	"github.com/jhoicas/Presupuestos-api/internal/application/expenses"
	"github.com/jhoicas/Presupuestos-api/internal/application/orders"
	"github.com/jhoicas/Presupuestos-api/internal/application/vouchers"
	"github.com/jhoicas/Presupuestos-api/internal/infrastructure/events"
	"github.com/jhoicas/Presupuestos-api/internal/infrastructure/memory"
	"github.com/jhoicas/Presupuestos-api/internal/infrastructure/metrics"
	"github.com/jhoicas/Presupuestos-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/Presupuestos-api/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// buildAPI arma la API completa sobre el almacenamiento en memoria.
func buildAPI(t *testing.T, checks map[string]apphttp.HealthCheck) *fiber.App {
	t.Helper()
	store := memory.NewStore()
	tx := memory.NewTxRunner(store)
	orderRepo := memory.NewOrderRepository(store)
	expenseRepo := memory.NewExpenseLineRepository(store)
	voucherRepo := memory.NewVoucherRepository(store)
	broker := events.NewBroker(16)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:    auth.NewAuthUseCase(memory.NewUserRepository(store), auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer}),
		OrderUC:   orders.NewOrderUseCase(tx, orderRepo, expenseRepo, broker, m, nil, "ARS"),
		ExpenseUC: expenses.NewExpenseUseCase(tx, orderRepo, expenseRepo, broker, m, nil, "ARS"),
		VoucherUC: vouchers.NewVoucherUseCase(tx, voucherRepo, orderRepo, pdf.NewMarotoPDFGenerator("Medios SA"), broker, m, nil, "ARS"),
		Events:    apphttp.NewEventsHandler(broker, 0),
		Health:    apphttp.NewHealthHandler(checks),
		Gatherer:  reg,
		JWTSecret: testJWTSecret,
	})
	return app
}

// call ejecuta una request con el rol indicado ("" = sin token) y decodifica la respuesta en out si no es nil.
func call(t *testing.T, app *fiber.App, method, path, role string, body any, out any) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func orderBody() dto.SaveOrderRequest {
	return dto.SaveOrderRequest{
		Number:           "OP-0100",
		Client:           "Cliente SA",
		CampaignName:     "Invierno",
		BusinessUnit:     "medios",
		BusinessCategory: "consumo masivo",
		Currency:         "USD",
		TotalSaleAmount:  dec("100000"),
		Programs: []dto.ProgramAllocationRequest{
			{ProgramName: "Mañanas", AllocatedAmount: dec("60000"), ImplementationCap: dec("30000"), TalentCap: dec("20000"), TechnicalCap: dec("10000")},
			{ProgramName: "Noticiero", AllocatedAmount: dec("40000")},
		},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Flujo completo: orden → gasto → comprobante → aprobación
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_FlujoCompleto(t *testing.T) {
	app := buildAPI(t, nil)

	var order dto.OrderResponse
	require.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/orders", "comercial", orderBody(), &order))
	require.Len(t, order.Programs, 2)
	programID := order.Programs[0].ID

	assert.Equal(t, http.StatusForbidden, call(t, app, http.MethodPost, "/api/orders", "area", orderBody(), nil),
		"el rol area no crea órdenes")

	line := dto.CreateExpenseRequest{
		OrderID: order.ID, ProgramID: programID, Description: "Equipos",
		Net: dec("25000"), CounterpartName: "Sonido SRL", CounterpartTaxID: "30-12345678-9",
	}
	var verr dto.ValidationErrorResponse
	require.Equal(t, http.StatusUnprocessableEntity, call(t, app, http.MethodPost, "/api/expenses/tecnica", "area", line, &verr))
	assert.Equal(t, "CAP_EXCEEDED", verr.Code)
	assert.NotEmpty(t, verr.Errors)

	line.Net = dec("6000")
	var exp dto.ExpenseResponse
	require.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/expenses/tecnica", "area", line, &exp))
	assert.Equal(t, "pendiente", exp.Status)

	var list []dto.ExpenseResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/expenses/tecnica?order_id="+order.ID, "area", nil, &list))
	assert.Len(t, list, 1)

	var budget dto.OrderBudgetResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/orders/"+order.ID+"/budget", "area", nil, &budget))
	assert.True(t, dec("6000").Equal(budget.Executed), "ejecutado: %s", budget.Executed)

	promote := dto.PromoteExpenseRequest{Version: exp.Version, DocumentType: "FA", DocumentNumber: "0001-00000042", IVARate: dec("21")}
	var v dto.VoucherResponse
	require.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/expenses/tecnica/"+exp.ID+"/voucher", "area", promote, &v))
	assert.Equal(t, "creado", v.ApprovalState)
	assert.Equal(t, "USD", v.Currency)
	assert.True(t, dec("7260").Equal(v.Total), "total: %s", v.Total)

	assert.Equal(t, http.StatusForbidden,
		call(t, app, http.MethodPost, "/api/vouchers/"+v.ID+"/approve", "area", dto.TransitionRequest{Version: v.Version}, nil))

	var conflict dto.ErrorResponse
	require.Equal(t, http.StatusConflict,
		call(t, app, http.MethodPost, "/api/vouchers/"+v.ID+"/approve", "finanzas", dto.TransitionRequest{Version: v.Version + 5}, &conflict))
	assert.Equal(t, "VERSION_CONFLICT", conflict.Code)

	var approved dto.VoucherResponse
	require.Equal(t, http.StatusOK,
		call(t, app, http.MethodPost, "/api/vouchers/"+v.ID+"/approve", "finanzas", dto.TransitionRequest{Version: v.Version}, &approved))
	assert.Equal(t, "aprobado", approved.ApprovalState)
	require.Len(t, approved.History, 1)
	assert.Equal(t, "creado", approved.History[0].From)

	var rejectErr dto.ErrorResponse
	require.Equal(t, http.StatusConflict,
		call(t, app, http.MethodPost, "/api/vouchers/"+v.ID+"/reject", "administracion", dto.TransitionRequest{Version: approved.Version, Note: "no"}, &rejectErr))
	assert.Equal(t, "INVALID_TRANSITION", rejectErr.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/vouchers/"+v.ID+"/pdf", nil)
	req.Header.Set("Authorization", tokenForRole(t, "administracion"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "comprobante-0001-00000042.pdf")

	metricsReq := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	metricsResp, err := app.Test(metricsReq, -1)
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	body, _ := io.ReadAll(metricsResp.Body)
	assert.Contains(t, string(body), "presupuestos_voucher_transitions_total")
	assert.Contains(t, string(body), "presupuestos_expense_rejections_total")
}

// ──────────────────────────────────────────────────────────────────────────────
// Mapeo de errores y rutas auxiliares
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_SinToken_Retorna401(t *testing.T) {
	app := buildAPI(t, nil)
	assert.Equal(t, http.StatusUnauthorized, call(t, app, http.MethodGet, "/api/orders", "", nil, nil))
}

func TestRouter_OrdenInexistente_Retorna404(t *testing.T) {
	app := buildAPI(t, nil)
	var body dto.ErrorResponse
	assert.Equal(t, http.StatusNotFound, call(t, app, http.MethodGet, "/api/orders/no-existe", "comercial", nil, &body))
	assert.Equal(t, "NOT_FOUND", body.Code)
}

func TestRouter_AreaDesconocida_Retorna404(t *testing.T) {
	app := buildAPI(t, nil)
	assert.Equal(t, http.StatusNotFound, call(t, app, http.MethodGet, "/api/expenses/marketing", "area", nil, nil))
}

func TestRouter_DeleteSinVersion_Retorna400(t *testing.T) {
	app := buildAPI(t, nil)
	var body dto.ErrorResponse
	assert.Equal(t, http.StatusBadRequest, call(t, app, http.MethodDelete, "/api/expenses/tecnica/x", "area", nil, &body))
	assert.Equal(t, "INVALID_QUERY", body.Code)
}

func TestRouter_CheckDraftNoPersiste(t *testing.T) {
	app := buildAPI(t, nil)
	draft := orderBody()
	draft.TotalSaleAmount = dec("90000")

	var check dto.DraftOrderCheckResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodPost, "/api/orders/check", "comercial", draft, &check))
	assert.NotEmpty(t, check.Errors, "la suma de programas no coincide con el total")

	var list dto.OrderListResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/orders", "comercial", nil, &list))
	assert.Empty(t, list.Items)
}

func TestRouter_RegistroYLogin(t *testing.T) {
	app := buildAPI(t, nil)
	reg := dto.RegisterRequest{Email: "ana@medios.com", Password: "secreta123", Role: "finanzas"}

	var user dto.UserResponse
	require.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/auth/register", "", reg, &user))
	assert.Equal(t, "finanzas", user.Role)
	assert.Equal(t, http.StatusConflict, call(t, app, http.MethodPost, "/api/auth/register", "", reg, nil))

	var login dto.LoginResponse
	require.Equal(t, http.StatusOK, call(t, app, http.MethodPost, "/api/auth/login", "",
		dto.LoginRequest{Email: reg.Email, Password: reg.Password}, &login))
	assert.NotEmpty(t, login.Token)

	assert.Equal(t, http.StatusUnauthorized, call(t, app, http.MethodPost, "/api/auth/login", "",
		dto.LoginRequest{Email: reg.Email, Password: "incorrecta"}, nil))
}

func TestRouter_Health(t *testing.T) {
	app := buildAPI(t, map[string]apphttp.HealthCheck{
		"postgres": func(context.Context) error { return nil },
	})
	var body map[string]any
	require.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/health", "", nil, &body))
	assert.Equal(t, "ok", body["status"])

	down := buildAPI(t, map[string]apphttp.HealthCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})
	require.Equal(t, http.StatusServiceUnavailable, call(t, down, http.MethodGet, "/health", "", nil, &body))
	assert.Equal(t, "degraded", body["status"])
}
