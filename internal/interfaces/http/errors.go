package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Presupuestos-api/internal/application/dto"
	"github.com/jhoicas/Presupuestos-api/internal/domain"
	"github.com/jhoicas/Presupuestos-api/pkg/logger"
)

// errorMapper traduce errores de dominio a respuestas HTTP. Los 500 se registran y no exponen detalle.
type errorMapper struct {
	log *logger.Logger
}

func newErrorMapper(log *logger.Logger) errorMapper {
	if log == nil {
		log = logger.Nop()
	}
	return errorMapper{log: log}
}

func (m errorMapper) respond(c *fiber.Ctx, err error) error {
	var verrs domain.ValidationErrors
	if errors.As(err, &verrs) {
		code := "VALIDATION"
		switch {
		case verrs.HasCode(domain.CodeOrderClosed):
			code = "ORDER_CLOSED"
		case verrs.HasCode(domain.CodeLocked):
			code = "LOCKED"
		case verrs.HasCode(domain.CodeLineCapExceeded):
			code = "CAP_EXCEEDED"
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ValidationErrorResponse{
			Code: code, Message: "la solicitud no pasó la validación", Errors: verrs,
		})
	}

	status, code := fiber.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrVersionConflict):
		status, code = fiber.StatusConflict, "VERSION_CONFLICT"
	case errors.Is(err, domain.ErrInvalidTransition):
		status, code = fiber.StatusConflict, "INVALID_TRANSITION"
	case errors.Is(err, domain.ErrOrderClosed):
		status, code = fiber.StatusConflict, "ORDER_CLOSED"
	case errors.Is(err, domain.ErrLocked):
		status, code = fiber.StatusConflict, "LOCKED"
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		status, code = fiber.StatusConflict, "EMAIL_EXISTS"
	case errors.Is(err, domain.ErrDuplicate):
		status, code = fiber.StatusConflict, "DUPLICATE"
	case errors.Is(err, domain.ErrConflict):
		status, code = fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrCapExceeded):
		status, code = fiber.StatusUnprocessableEntity, "CAP_EXCEEDED"
	case errors.Is(err, domain.ErrNotFound):
		status, code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrUnauthorized):
		status, code = fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrForbidden):
		status, code = fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = fiber.StatusBadRequest, "INVALID_INPUT"
	}
	if status == fiber.StatusInternalServerError {
		m.log.Error().Err(err).Str("path", c.Path()).Str("method", c.Method()).Msg("error no controlado")
		return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: "error interno"})
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func badQuery(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: msg})
}
