package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Presupuestos-api/internal/application/dto"
	"github.com/jhoicas/Presupuestos-api/internal/application/expenses"
	"github.com/jhoicas/Presupuestos-api/internal/domain/repository"
	"github.com/jhoicas/Presupuestos-api/pkg/logger"
)

// ExpenseHandler maneja las líneas de gasto de todas las áreas. El área viaja en la ruta.
type ExpenseHandler struct {
	uc *expenses.ExpenseUseCase
	errorMapper
}

// NewExpenseHandler construye el handler de gastos.
func NewExpenseHandler(uc *expenses.ExpenseUseCase, log *logger.Logger) *ExpenseHandler {
	return &ExpenseHandler{uc: uc, errorMapper: newErrorMapper(log)}
}

// Create godoc
// @Summary      Cargar línea de gasto
// @Description  Valida el tope del área en la fila de programa. Sobre-ejecución sin tope duro devuelve advertencias.
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        area  path  string                    true  "implementacion | talentos | tecnica | programacion | experience"
// @Param        body  body  dto.CreateExpenseRequest  true  "línea de gasto"
// @Success      201   {object}  dto.ExpenseResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ValidationErrorResponse
// @Router       /api/expenses/{area} [post]
func (h *ExpenseHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateExpenseRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), GetUserID(c), c.Params("area"), in)
	if err != nil {
		return h.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// CreateBatch godoc
// @Summary      Cargar lote de líneas de gasto
// @Description  Todo o nada: si una fila falla no se persiste ninguna. Los errores indican la fila.
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        area  path  string                      true  "área"
// @Param        body  body  []dto.CreateExpenseRequest  true  "líneas"
// @Success      201   {array}   dto.ExpenseResponse
// @Failure      422   {object}  dto.ValidationErrorResponse
// @Router       /api/expenses/{area}/batch [post]
func (h *ExpenseHandler) CreateBatch(c *fiber.Ctx) error {
	var in []dto.CreateExpenseRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreateBatch(c.UserContext(), GetUserID(c), c.Params("area"), in)
	if err != nil {
		return h.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar gastos del área
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        area        path   string  true   "área"
// @Param        order_id    query  string  false  "orden"
// @Param        program_id  query  string  false  "fila de programa"
// @Param        status      query  string  false  "pendiente | activo | cerrado | anulado"
// @Success      200         {array}  dto.ExpenseResponse
// @Router       /api/expenses/{area} [get]
func (h *ExpenseHandler) List(c *fiber.Ctx) error {
	filter := repository.ExpenseFilter{
		OrderID:   c.Query("order_id"),
		ProgramID: c.Query("program_id"),
		Status:    c.Query("status"),
	}
	out, err := h.uc.List(c.UserContext(), c.Params("area"), filter)
	if err != nil {
		return h.respond(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener línea de gasto
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        area  path  string  true  "área"
// @Param        id    path  string  true  "ID de la línea"
// @Success      200   {object}  dto.ExpenseResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/expenses/{area}/{id} [get]
func (h *ExpenseHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), c.Params("area"), c.Params("id"))
	if err != nil {
		return h.respond(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Editar línea de gasto
// @Description  Con la orden cerrada o anulada solo se editan campos no financieros.
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        area  path  string                    true  "área"
// @Param        id    path  string                    true  "ID de la línea"
// @Param        body  body  dto.UpdateExpenseRequest  true  "campos a cambiar y versión"
// @Success      200   {object}  dto.ExpenseResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ValidationErrorResponse
// @Router       /api/expenses/{area}/{id} [put]
func (h *ExpenseHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateExpenseRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), GetUserID(c), c.Params("area"), c.Params("id"), in)
	if err != nil {
		return h.respond(c, err)
	}
	return c.JSON(out)
}

// ChangeStatus godoc
// @Summary      Cambiar estado de la línea
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        area  path  string                    true  "área"
// @Param        id    path  string                    true  "ID de la línea"
// @Param        body  body  dto.ExpenseStatusRequest  true  "estado destino y versión"
// @Success      200   {object}  dto.ExpenseResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/expenses/{area}/{id}/status [patch]
func (h *ExpenseHandler) ChangeStatus(c *fiber.Ctx) error {
	var in dto.ExpenseStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.ChangeStatus(c.UserContext(), GetUserID(c), c.Params("area"), c.Params("id"), in)
	if err != nil {
		return h.respond(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar línea de gasto
// @Tags         expenses
// @Security     BearerAuth
// @Param        area     path   string  true  "área"
// @Param        id       path   string  true  "ID de la línea"
// @Param        version  query  int     true  "versión esperada"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/expenses/{area}/{id} [delete]
func (h *ExpenseHandler) Delete(c *fiber.Ctx) error {
	version := c.QueryInt("version", -1)
	if version < 0 {
		return badQuery(c, "version es requerida")
	}
	if err := h.uc.Remove(c.UserContext(), GetUserID(c), c.Params("area"), c.Params("id"), version); err != nil {
		return h.respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PromoteToVoucher godoc
// @Summary      Generar comprobante desde la línea
// @Description  Crea el comprobante de egreso y la línea pasa a activo.
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        area  path  string                     true  "área"
// @Param        id    path  string                     true  "ID de la línea"
// @Param        body  body  dto.PromoteExpenseRequest  true  "datos del documento"
// @Success      201   {object}  dto.VoucherResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ValidationErrorResponse
// @Router       /api/expenses/{area}/{id}/voucher [post]
func (h *ExpenseHandler) PromoteToVoucher(c *fiber.Ctx) error {
	var in dto.PromoteExpenseRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.PromoteToVoucher(c.UserContext(), GetUserID(c), c.Params("area"), c.Params("id"), in)
	if err != nil {
		return h.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
