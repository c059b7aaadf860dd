package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-pares/internal/application/dto"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
)

// LocalLocation ubicación ya resuelta por RequireManagedLocation.
const LocalLocation = "location"

// locationGetter es el contrato mínimo que necesita el middleware para resolver la ubicación.
// Lo implementa *catalog.LocationUseCase.
type locationGetter interface {
	GetByID(ctx context.Context, actor entity.Actor, id string) (*entity.Location, error)
}

// RequireManagedLocation devuelve un middleware Fiber que verifica que la ubicación del
// parámetro de ruta exista en la empresa del token y que el actor la gestione (un admin
// gestiona todas). Debe usarse DESPUÉS de AuthMiddleware.
//
// Comportamiento:
//   - 404 Not Found → la ubicación no existe o es de otra empresa.
//   - 403 Forbidden → el actor no gestiona la ubicación.
//   - 503 Service Unavailable → fallo de infraestructura al consultar.
func RequireManagedLocation(param string, locations locationGetter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := GetActor(c)
		if actor.CompanyID == "" {
			return unauthorized(c)
		}

		id := c.Params(param)
		loc, err := locations.GetByID(c.Context(), actor, id)
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "LOCATION_CHECK_FAILED",
				Message: "no se pudo verificar la ubicación, intente más tarde",
			})
		}
		if loc == nil {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Code:    "NOT_FOUND",
				Message: "ubicación no encontrada",
			})
		}
		if !actor.Manages(loc.ID) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "FORBIDDEN",
				Message: "la ubicación '" + loc.Name + "' no está asignada al usuario",
			})
		}

		c.Locals(LocalLocation, loc)
		return c.Next()
	}
}

// locationFromCtx ubicación cargada por RequireManagedLocation (nil si no pasó por él).
func locationFromCtx(c *fiber.Ctx) *entity.Location {
	loc, _ := c.Locals(LocalLocation).(*entity.Location)
	return loc
}
