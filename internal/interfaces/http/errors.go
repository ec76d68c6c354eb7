package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/iptegra/nexus-api/internal/application/dto"
	"github.com/iptegra/nexus-api/internal/domain"
)

// statusFor estado HTTP y código de cada tipo de error de dominio.
func statusFor(kind domain.Kind) (int, string) {
	switch kind {
	case domain.KindUnauthenticated:
		return fiber.StatusUnauthorized, "UNAUTHENTICATED"
	case domain.KindUnauthorized:
		return fiber.StatusForbidden, "FORBIDDEN"
	case domain.KindPreconditionFailed:
		return fiber.StatusConflict, "PRECONDITION_FAILED"
	case domain.KindNotFound:
		return fiber.StatusNotFound, "NOT_FOUND"
	case domain.KindValidation:
		return fiber.StatusBadRequest, "VALIDATION"
	case domain.KindConflict:
		return fiber.StatusConflict, "CONFLICT"
	case domain.KindTransientIO:
		return fiber.StatusServiceUnavailable, "TRANSIENT"
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

// ErrorBody traduce un error al cuerpo de respuesta. Los errores internos no exponen detalle.
func ErrorBody(err error) (int, dto.ErrorResponse) {
	kind := domain.KindOf(err)
	status, code := statusFor(kind)
	body := dto.ErrorResponse{
		Code:      code,
		Message:   err.Error(),
		Kind:      string(kind),
		Retryable: kind.Retryable(),
	}
	if kind == domain.KindInternal {
		body.Message = "error interno; intenta de nuevo más tarde"
	}
	var bulkErr *domain.BulkError
	if errors.As(err, &bulkErr) {
		body.FailedIDs = bulkErr.FailedIDs
	}
	return status, body
}

func writeError(c *fiber.Ctx, err error) error {
	status, body := ErrorBody(err)
	if status == fiber.StatusInternalServerError {
		// el access log no ve el error original: se registra aquí
		zerolog.Ctx(c.UserContext()).Error().Err(err).Str("path", c.Path()).Msg("error interno")
	}
	return c.Status(status).JSON(body)
}

// ErrorHandler manejador de errores de Fiber: *fiber.Error (404 de ruta, body demasiado grande)
// conserva su código; el resto pasa por la traducción de dominio.
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: "HTTP_ERROR", Message: fe.Message})
		}
		status, body := ErrorBody(err)
		if status == fiber.StatusInternalServerError {
			log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error no controlado")
		}
		return c.Status(status).JSON(body)
	}
}
