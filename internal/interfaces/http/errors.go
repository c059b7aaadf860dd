package http

import (
	"errors"
	"strings"

	"github.com/go-playground/validator"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-pares/internal/application/dto"
	"github.com/jhoicas/Inventario-pares/internal/domain"
)

var validate = validator.New()

// retryAfterSeconds sugerencia para clientes ante bloqueos agotados.
const retryAfterSeconds = "1"

// bindBody decodifica y valida el cuerpo; devuelve el error a responder con 400 o nil.
func bindBody(c *fiber.Ctx, out any) *dto.ErrorResponse {
	if err := c.BodyParser(out); err != nil {
		return &dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"}
	}
	if err := validate.Struct(out); err != nil {
		return &dto.ErrorResponse{Code: "VALIDATION", Message: validationMessage(err)}
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "datos inválidos"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Field()+": "+fe.Tag())
	}
	return "datos inválidos: " + strings.Join(parts, ", ")
}

// respondError traduce errores de dominio a HTTP. Los no reconocidos se devuelven a Fiber
// para que el ErrorHandler de la app los registre y responda 500.
func respondError(c *fiber.Ctx, err error) error {
	var status int
	var code string
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrNotFound):
		status, code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrPermissionDenied):
		status, code = fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrInsufficientStock):
		status, code = fiber.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrAlreadyClaimed):
		status, code = fiber.StatusConflict, "ALREADY_CLAIMED"
	case errors.Is(err, domain.ErrIrreversibleConflict):
		status, code = fiber.StatusConflict, "IRREVERSIBLE_CONFLICT"
	case errors.Is(err, domain.ErrConflict):
		status, code = fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrInvalidStateTransition):
		status, code = fiber.StatusUnprocessableEntity, "INVALID_STATE_TRANSITION"
	case errors.Is(err, domain.ErrLockTimeout):
		status, code = fiber.StatusServiceUnavailable, "LOCK_TIMEOUT"
		c.Set(fiber.HeaderRetryAfter, retryAfterSeconds)
	default:
		return err
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}

// ErrorHandler respuesta de último recurso para errores no mapeados.
func ErrorHandler(onInternal func(c *fiber.Ctx, err error)) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: "HTTP_ERROR", Message: fe.Message})
		}
		if onInternal != nil {
			onInternal(c, err)
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
	}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}
