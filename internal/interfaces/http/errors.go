package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/seedor-api/internal/application/dto"
	"github.com/jhoicas/seedor-api/internal/domain"
	"github.com/jhoicas/seedor-api/pkg/logger"
)

// StatusFor traduce el tipo de error de dominio a status HTTP. Los conflictos son 400:
// los clientes existentes los tratan como errores de entrada.
func StatusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation, domain.KindConflict, domain.KindLimitReached:
		return fiber.StatusBadRequest
	case domain.KindUnauthorized:
		return fiber.StatusUnauthorized
	case domain.KindForbidden:
		return fiber.StatusForbidden
	case domain.KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError escribe {success:false, error, code}. El texto técnico de fallos de
// upstream e internos va al log, nunca al cliente.
func respondError(c *fiber.Ctx, log *logger.Logger, err error) error {
	de := domain.AsError(err)
	status := StatusFor(de.Kind)
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).
			Str("code", de.Code).
			Str("path", c.Path()).
			Str("request_id", requestID(c)).
			Msg("error atendiendo petición")
	}
	return c.Status(status).JSON(errorBody(de))
}

func errorBody(de *domain.Error) dto.ErrorResponse {
	return dto.ErrorResponse{Success: false, Error: de.Message, Code: de.Code}
}

// fiberErrorHandler respuesta para errores que escapan a los handlers (404 de ruta,
// cuerpo demasiado grande, panics recuperados).
func fiberErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if fe, ok := err.(*fiber.Error); ok {
			code := "HTTP_ERROR"
			if fe.Code == fiber.StatusNotFound {
				code = "ROUTE_NOT_FOUND"
			}
			return c.Status(fe.Code).JSON(dto.ErrorResponse{Error: fe.Message, Code: code})
		}
		return respondError(c, log, err)
	}
}
