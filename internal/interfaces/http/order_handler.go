package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Presupuestos-api/internal/application/dto"
	"github.com/jhoicas/Presupuestos-api/internal/application/orders"
	"github.com/jhoicas/Presupuestos-api/pkg/logger"
)

// OrderHandler maneja órdenes de campaña y las ayudas de edición del formulario.
type OrderHandler struct {
	uc *orders.OrderUseCase
	errorMapper
}

// NewOrderHandler construye el handler de órdenes.
func NewOrderHandler(uc *orders.OrderUseCase, log *logger.Logger) *OrderHandler {
	return &OrderHandler{uc: uc, errorMapper: newErrorMapper(log)}
}

// Create godoc
// @Summary      Crear orden de campaña
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.SaveOrderRequest  true  "cabecera y filas de programa"
// @Success      201   {object}  dto.OrderResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ValidationErrorResponse
// @Router       /api/orders [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in dto.SaveOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return h.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Editar orden de campaña
// @Description  Reemplaza cabecera y filas. version es obligatoria; filas sin id se crean y las omitidas se eliminan.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                true  "ID de la orden"
// @Param        body  body  dto.SaveOrderRequest  true  "orden completa"
// @Success      200   {object}  dto.OrderResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ValidationErrorResponse
// @Router       /api/orders/{id} [put]
func (h *OrderHandler) Update(c *fiber.Ctx) error {
	var in dto.SaveOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return h.respond(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener orden
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.respond(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar órdenes
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        status  query  string  false  "abierto | cerrado | anulado"
// @Param        client  query  string  false  "filtro por cliente (contiene)"
// @Param        limit   query  int     false  "máximo 100"
// @Param        offset  query  int     false  "desplazamiento"
// @Success      200     {object}  dto.OrderListResponse
// @Router       /api/orders [get]
func (h *OrderHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badQuery(c, "limit y offset deben ser numéricos")
	}
	out, err := h.uc.List(c.UserContext(), c.Query("status"), c.Query("client"), page)
	if err != nil {
		return h.respond(c, err)
	}
	return c.JSON(out)
}

// Close godoc
// @Summary      Cerrar orden
// @Description  Una orden cerrada bloquea los campos financieros de sus líneas de gasto.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                  true  "ID de la orden"
// @Param        body  body  dto.OrderStatusRequest  true  "versión esperada"
// @Success      200   {object}  dto.OrderResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/close [post]
func (h *OrderHandler) Close(c *fiber.Ctx) error {
	var in dto.OrderStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Close(c.UserContext(), GetUserID(c), c.Params("id"), in.Version)
	if err != nil {
		return h.respond(c, err)
	}
	return c.JSON(out)
}

// Annul godoc
// @Summary      Anular orden
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                  true  "ID de la orden"
// @Param        body  body  dto.OrderStatusRequest  true  "versión esperada"
// @Success      200   {object}  dto.OrderResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/annul [post]
func (h *OrderHandler) Annul(c *fiber.Ctx) error {
	var in dto.OrderStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Annul(c.UserContext(), GetUserID(c), c.Params("id"), in.Version)
	if err != nil {
		return h.respond(c, err)
	}
	return c.JSON(out)
}

// Budget godoc
// @Summary      Resumen de presupuesto de la orden
// @Description  Asignado, ejecutado y saldo por fila de programa y por área. Las líneas canceladas no suman.
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.OrderBudgetResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/budget [get]
func (h *OrderHandler) Budget(c *fiber.Ctx) error {
	out, err := h.uc.BudgetSummary(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.respond(c, err)
	}
	return c.JSON(out)
}

// Check godoc
// @Summary      Validar orden en edición
// @Description  Devuelve errores y advertencias sin persistir.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.SaveOrderRequest  true  "orden en edición"
// @Success      200   {object}  dto.DraftOrderCheckResponse
// @Router       /api/orders/check [post]
func (h *OrderHandler) Check(c *fiber.Ctx) error {
	var in dto.SaveOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	return c.JSON(h.uc.CheckDraft(in))
}

// LinkedPercentage godoc
// @Summary      Recalcular par monto/porcentaje
// @Description  Completa el lado opuesto del par nota_credito o fee a partir del lado editado.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.LinkedPercentageRequest  true  "fila, par y lado editado"
// @Success      200   {object}  dto.ProgramAllocationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/orders/linked-percentage [post]
func (h *OrderHandler) LinkedPercentage(c *fiber.Ctx) error {
	var in dto.LinkedPercentageRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.LinkedPercentage(in)
	if err != nil {
		return h.respond(c, err)
	}
	return c.JSON(out)
}

// FieldsToReset godoc
// @Summary      Campos dependientes a limpiar
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.FieldsToResetRequest  true  "campo editado y valores"
// @Success      200   {object}  dto.FieldsToResetResponse
// @Router       /api/orders/fields-to-reset [post]
func (h *OrderHandler) FieldsToReset(c *fiber.Ctx) error {
	var in dto.FieldsToResetRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	return c.JSON(h.uc.FieldsToReset(in))
}
