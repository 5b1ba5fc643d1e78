package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/Presupuestos-api/internal/application/auth"
	"github.com/jhoicas/Presupuestos-api/internal/application/expenses"
	"github.com/jhoicas/Presupuestos-api/internal/application/orders"
	"github.com/jhoicas/Presupuestos-api/internal/application/vouchers"
	"github.com/jhoicas/Presupuestos-api/internal/domain/entity"
	"github.com/jhoicas/Presupuestos-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC    *auth.AuthUseCase
	OrderUC   *orders.OrderUseCase
	ExpenseUC *expenses.ExpenseUseCase
	VoucherUC *vouchers.VoucherUseCase
	Events    *EventsHandler      // nil deshabilita /api/events
	Health    *HealthHandler      // nil responde ok sin verificar dependencias
	Gatherer  prometheus.Gatherer // nil deshabilita /metrics
	Log       *logger.Logger
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	health := deps.Health
	if health == nil {
		health = NewHealthHandler(nil)
	}
	app.Get("/health", health.Health)
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC, deps.Log)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	commercial := RequireRole(entity.RoleAdmin, entity.RoleComercial)
	administrative := RequireRole(entity.RoleAdmin, entity.RoleAdministracion, entity.RoleFinanzas)

	// Órdenes de campaña
	ordersGroup := protected.Group("/orders")
	orderHandler := NewOrderHandler(deps.OrderUC, deps.Log)
	ordersGroup.Post("/check", orderHandler.Check)
	ordersGroup.Post("/linked-percentage", orderHandler.LinkedPercentage)
	ordersGroup.Post("/fields-to-reset", orderHandler.FieldsToReset)
	ordersGroup.Post("/", commercial, orderHandler.Create)
	ordersGroup.Get("/", orderHandler.List)
	ordersGroup.Get("/:id", orderHandler.GetByID)
	ordersGroup.Put("/:id", commercial, orderHandler.Update)
	ordersGroup.Get("/:id/budget", orderHandler.Budget)
	ordersGroup.Post("/:id/close", commercial, orderHandler.Close)
	ordersGroup.Post("/:id/annul", commercial, orderHandler.Annul)

	// Gastos por área
	expensesGroup := protected.Group("/expenses/:area")
	expenseHandler := NewExpenseHandler(deps.ExpenseUC, deps.Log)
	expensesGroup.Post("/batch", expenseHandler.CreateBatch)
	expensesGroup.Post("/", expenseHandler.Create)
	expensesGroup.Get("/", expenseHandler.List)
	expensesGroup.Get("/:id", expenseHandler.GetByID)
	expensesGroup.Put("/:id", expenseHandler.Update)
	expensesGroup.Delete("/:id", expenseHandler.Delete)
	expensesGroup.Patch("/:id/status", expenseHandler.ChangeStatus)
	expensesGroup.Post("/:id/voucher", expenseHandler.PromoteToVoucher)

	// Comprobantes y circuito de aprobación
	vouchersGroup := protected.Group("/vouchers")
	voucherHandler := NewVoucherHandler(deps.VoucherUC, deps.Log)
	vouchersGroup.Post("/", voucherHandler.Create)
	vouchersGroup.Get("/", voucherHandler.List)
	vouchersGroup.Get("/:id", voucherHandler.GetByID)
	vouchersGroup.Put("/:id", voucherHandler.Update)
	vouchersGroup.Get("/:id/pdf", voucherHandler.PDF)
	vouchersGroup.Post("/:id/approve", administrative, voucherHandler.Approve)
	vouchersGroup.Post("/:id/request-info", administrative, voucherHandler.RequestInfo)
	vouchersGroup.Post("/:id/reject", administrative, voucherHandler.Reject)
	vouchersGroup.Post("/:id/pay", administrative, voucherHandler.Pay)

	if deps.Events != nil {
		protected.Get("/events", deps.Events.Stream)
	}
}
