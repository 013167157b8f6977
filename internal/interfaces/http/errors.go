package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/bodega-lotes/internal/application/dto"
	"github.com/jhoicas/bodega-lotes/internal/domain"
)

// writeError traduce errores de dominio a respuestas HTTP.
func writeError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	var vErr *domain.ValidationError
	var fieldErrs validator.ValidationErrors
	switch {
	case errors.As(err, &vErr):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code:    "VALIDATION",
			Message: "datos inválidos",
			Fields:  []dto.FieldError{{Field: vErr.Field, Reason: vErr.Reason}},
		})
	case errors.As(err, &fieldErrs):
		resp := dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"}
		for _, fe := range fieldErrs {
			resp.Fields = append(resp.Fields, dto.FieldError{Field: fe.Field(), Reason: fe.Tag()})
		}
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "ítem o lote no encontrado"})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "el stock cambió durante la operación, reintente"})
	case errors.Is(err, domain.ErrLockNotAcquired):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "ITEM_LOCKED", Message: "el ítem está siendo modificado, reintente"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
