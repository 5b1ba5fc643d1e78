package http

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Presupuestos-api/internal/application/dto"
	"github.com/jhoicas/Presupuestos-api/internal/application/vouchers"
	"github.com/jhoicas/Presupuestos-api/internal/domain/repository"
	"github.com/jhoicas/Presupuestos-api/pkg/logger"
)

// VoucherHandler maneja la bandeja de comprobantes y su circuito de aprobación.
type VoucherHandler struct {
	uc *vouchers.VoucherUseCase
	errorMapper
}

// NewVoucherHandler construye el handler de comprobantes.
func NewVoucherHandler(uc *vouchers.VoucherUseCase, log *logger.Logger) *VoucherHandler {
	return &VoucherHandler{uc: uc, errorMapper: newErrorMapper(log)}
}

// Create godoc
// @Summary      Cargar comprobante directo
// @Description  Comprobante sin línea de gasto de origen. Sin orden usa la moneda por defecto.
// @Tags         vouchers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateVoucherRequest  true  "comprobante"
// @Success      201   {object}  dto.VoucherResponse
// @Failure      422   {object}  dto.ValidationErrorResponse
// @Router       /api/vouchers [post]
func (h *VoucherHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateVoucherRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreateDirect(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return h.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Bandeja de comprobantes
// @Tags         vouchers
// @Produce      json
// @Security     BearerAuth
// @Param        approval_state   query  string  false  "creado | requiere_info | aprobado | rechazado | pagado"
// @Param        origin_area      query  string  false  "área de origen o directo"
// @Param        movement_type    query  string  false  "ingreso | egreso"
// @Param        origin_order_id  query  string  false  "orden de origen"
// @Param        limit            query  int     false  "máximo 100"
// @Param        offset           query  int     false  "desplazamiento"
// @Success      200              {object}  dto.VoucherListResponse
// @Router       /api/vouchers [get]
func (h *VoucherHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badQuery(c, "limit y offset deben ser numéricos")
	}
	filter := repository.VoucherFilter{
		ApprovalState: c.Query("approval_state"),
		OriginArea:    c.Query("origin_area"),
		MovementType:  c.Query("movement_type"),
		OriginOrderID: c.Query("origin_order_id"),
	}
	out, err := h.uc.List(c.UserContext(), filter, page)
	if err != nil {
		return h.respond(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener comprobante
// @Tags         vouchers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del comprobante"
// @Success      200  {object}  dto.VoucherResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/vouchers/{id} [get]
func (h *VoucherHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.respond(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Editar comprobante
// @Description  Los campos administrativos requieren rol administracion, finanzas o admin. Pagado bloquea todo.
// @Tags         vouchers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                    true  "ID del comprobante"
// @Param        body  body  dto.UpdateVoucherRequest  true  "campos a cambiar y versión"
// @Success      200   {object}  dto.VoucherResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ValidationErrorResponse
// @Router       /api/vouchers/{id} [put]
func (h *VoucherHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateVoucherRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), GetUserID(c), GetRole(c), c.Params("id"), in)
	if err != nil {
		return h.respond(c, err)
	}
	return c.JSON(out)
}

type transitionFunc func(ctx context.Context, userID, role, id string, in dto.TransitionRequest) (*dto.VoucherResponse, error)

func (h *VoucherHandler) transition(fn transitionFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in dto.TransitionRequest
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
		out, err := fn(c.UserContext(), GetUserID(c), GetRole(c), c.Params("id"), in)
		if err != nil {
			return h.respond(c, err)
		}
		return c.JSON(out)
	}
}

// Approve godoc
// @Summary      Aprobar comprobante
// @Tags         vouchers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                 true  "ID del comprobante"
// @Param        body  body  dto.TransitionRequest  true  "versión y nota"
// @Success      200   {object}  dto.VoucherResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/vouchers/{id}/approve [post]
func (h *VoucherHandler) Approve(c *fiber.Ctx) error {
	return h.transition(h.uc.Approve)(c)
}

// RequestInfo godoc
// @Summary      Pedir información
// @Description  La nota es obligatoria.
// @Tags         vouchers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                 true  "ID del comprobante"
// @Param        body  body  dto.TransitionRequest  true  "versión y nota"
// @Success      200   {object}  dto.VoucherResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ValidationErrorResponse
// @Router       /api/vouchers/{id}/request-info [post]
func (h *VoucherHandler) RequestInfo(c *fiber.Ctx) error {
	return h.transition(h.uc.RequestInfo)(c)
}

// Reject godoc
// @Summary      Rechazar comprobante
// @Description  La nota es obligatoria. Rechazado es terminal.
// @Tags         vouchers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                 true  "ID del comprobante"
// @Param        body  body  dto.TransitionRequest  true  "versión y nota"
// @Success      200   {object}  dto.VoucherResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ValidationErrorResponse
// @Router       /api/vouchers/{id}/reject [post]
func (h *VoucherHandler) Reject(c *fiber.Ctx) error {
	return h.transition(h.uc.Reject)(c)
}

// Pay godoc
// @Summary      Marcar como pagado
// @Description  Solo desde aprobado. Completa la fecha de pago si falta.
// @Tags         vouchers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                 true  "ID del comprobante"
// @Param        body  body  dto.TransitionRequest  true  "versión"
// @Success      200   {object}  dto.VoucherResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/vouchers/{id}/pay [post]
func (h *VoucherHandler) Pay(c *fiber.Ctx) error {
	return h.transition(h.uc.MarkAsPaid)(c)
}

// PDF godoc
// @Summary      Constancia PDF del comprobante
// @Tags         vouchers
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del comprobante"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/vouchers/{id}/pdf [get]
func (h *VoucherHandler) PDF(c *fiber.Ctx) error {
	b, name, err := h.uc.RenderPDF(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.respond(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s"`, name))
	return c.Send(b)
}
