package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-pares/internal/application/dto"
	"github.com/jhoicas/Inventario-pares/internal/application/pairing"
)

// PairingHandler formación y división manual de pares (protegido).
type PairingHandler struct {
	engine *pairing.Engine
}

// NewPairingHandler construye el handler.
func NewPairingHandler(engine *pairing.Engine) *PairingHandler {
	return &PairingHandler{engine: engine}
}

// Form godoc
// @Summary      Formar pares con pies sueltos de la misma ubicación
// @Tags         pairing
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PairSpotRequest  true  "ubicación, producto, talla y máximo a formar (0 = todos)"
// @Success      200   {object}  dto.PairFormationResponse
// @Router       /api/pairing/form [post]
func (h *PairingHandler) Form(c *fiber.Ctx) error {
	var in dto.PairSpotRequest
	if e := bindBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	spot := pairing.Spot{LocationID: in.LocationID, ProductID: in.ProductID, Size: in.Size}
	n, err := h.engine.FormAt(c.Context(), GetActor(c), spot, in.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.PairFormationResponse{LocationID: in.LocationID, ProductID: in.ProductID, Size: in.Size, Formed: n})
}

// Split divide pares completos en un izquierdo y un derecho.
func (h *PairingHandler) Split(c *fiber.Ctx) error {
	var in dto.PairSpotRequest
	if e := bindBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	spot := pairing.Spot{LocationID: in.LocationID, ProductID: in.ProductID, Size: in.Size}
	if err := h.engine.SplitPair(c.Context(), GetActor(c), spot, in.Quantity); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Opportunities pares completables (misma ubicación primero). product_id y size son filtros opcionales.
func (h *PairingHandler) Opportunities(c *fiber.Ctx) error {
	actor := GetActor(c)
	if actor.CompanyID == "" {
		return unauthorized(c)
	}
	ops, err := h.engine.Opportunities(c.Context(), actor.CompanyID, c.Query("product_id"), c.Query("size"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(ops), "items": ops})
}
