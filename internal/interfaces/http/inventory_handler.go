package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-pares/internal/application/catalog"
	"github.com/jhoicas/Inventario-pares/internal/application/dto"
	"github.com/jhoicas/Inventario-pares/internal/application/ledger"
	"github.com/jhoicas/Inventario-pares/internal/domain"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
	"github.com/jhoicas/Inventario-pares/internal/domain/inventory"
	"github.com/jhoicas/Inventario-pares/internal/domain/repository"
)

// InventoryHandler ingreso, venta, ajustes y consultas de stock (protegido).
type InventoryHandler struct {
	ledger    *ledger.Ledger
	locations *catalog.LocationUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(l *ledger.Ledger, locations *catalog.LocationUseCase) *InventoryHandler {
	return &InventoryHandler{ledger: l, locations: locations}
}

// RegisterStock godoc
// @Summary      Registrar ingreso de unidades
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterStockRequest  true  "ubicación, producto, talla, tipo y cantidad"
// @Success      201   {object}  dto.InventoryUnitResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/stock [post]
func (h *InventoryHandler) RegisterStock(c *fiber.Ctx) error {
	actor := GetActor(c)
	if actor.UserID == "" || actor.CompanyID == "" {
		return unauthorized(c)
	}
	var in dto.RegisterStockRequest
	if e := bindBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	u, err := h.ledger.RegisterStock(c.Context(), actor, ledger.StockInput{
		LocationID: in.LocationID,
		ProductID:  in.ProductID,
		Size:       in.Size,
		UnitType:   entity.UnitType(in.UnitType),
		Quantity:   in.Quantity,
		Notes:      in.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToInventoryUnitResponse(u))
}

// Adjust godoc
// @Summary      Ajuste manual de inventario (conteo físico)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustStockRequest  true  "delta positivo o negativo"
// @Success      200   {object}  dto.InventoryUnitResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/adjustments [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	actor := GetActor(c)
	if actor.UserID == "" || actor.CompanyID == "" {
		return unauthorized(c)
	}
	var in dto.AdjustStockRequest
	if e := bindBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	key := entity.UnitKey{LocationID: in.LocationID, ProductID: in.ProductID, Size: in.Size, UnitType: entity.UnitType(in.UnitType)}
	u, err := h.ledger.AdjustStock(c.Context(), actor, key, in.Delta, in.Notes)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToInventoryUnitResponse(u))
}

// Sell godoc
// @Summary      Venta de pares completos
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SaleRequest  true  "ubicación, producto, talla, cantidad"
// @Success      200   {object}  dto.InventoryUnitResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/inventory/sales [post]
func (h *InventoryHandler) Sell(c *fiber.Ctx) error {
	actor := GetActor(c)
	if actor.UserID == "" || actor.CompanyID == "" {
		return unauthorized(c)
	}
	var in dto.SaleRequest
	if e := bindBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	u, err := h.ledger.Sell(c.Context(), actor, ledger.SaleInput{
		LocationID: in.LocationID,
		ProductID:  in.ProductID,
		Size:       in.Size,
		Quantity:   in.Quantity,
		Notes:      in.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToInventoryUnitResponse(u))
}

// SetDisplay fija los pares reservados para exhibición.
func (h *InventoryHandler) SetDisplay(c *fiber.Ctx) error {
	actor := GetActor(c)
	if actor.UserID == "" || actor.CompanyID == "" {
		return unauthorized(c)
	}
	var in dto.SetDisplayRequest
	if e := bindBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	u, err := h.ledger.SetDisplay(c.Context(), actor, in.LocationID, in.ProductID, in.Size, in.Display)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToInventoryUnitResponse(u))
}

// Availability godoc
// @Summary      Disponibilidad en una ubicación (sin bloqueo)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        location_id  query  string  true  "Ubicación"
// @Param        product_id   query  string  true  "Producto"
// @Param        size         query  string  true  "Talla"
// @Success      200  {object}  ledger.Availability
// @Router       /api/inventory/availability [get]
func (h *InventoryHandler) Availability(c *fiber.Ctx) error {
	actor := GetActor(c)
	if actor.CompanyID == "" {
		return unauthorized(c)
	}
	locationID, productID, size := c.Query("location_id"), c.Query("product_id"), c.Query("size")
	if locationID == "" || productID == "" || size == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "location_id, product_id y size son requeridos"})
	}
	loc, err := h.locations.GetByID(c.Context(), actor, locationID)
	if err != nil {
		return respondError(c, err)
	}
	if loc == nil {
		return respondError(c, domain.ErrNotFound)
	}
	a, err := h.ledger.QueryAvailability(c.Context(), locationID, productID, size)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(a)
}

// Distribution distribución global de un producto-talla.
func (h *InventoryHandler) Distribution(c *fiber.Ctx) error {
	actor := GetActor(c)
	if actor.CompanyID == "" {
		return unauthorized(c)
	}
	productID, size := c.Query("product_id"), c.Query("size")
	if productID == "" || size == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id y size son requeridos"})
	}
	d, err := h.ledger.QueryGlobalDistribution(c.Context(), actor.CompanyID, productID, size)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toDistributionResponse(d))
}

// LocationInventory filas con existencias de una ubicación (resuelta por RequireManagedLocation).
func (h *InventoryHandler) LocationInventory(c *fiber.Ctx) error {
	actor := GetActor(c)
	if actor.CompanyID == "" {
		return unauthorized(c)
	}
	loc := locationFromCtx(c)
	if loc == nil {
		var err error
		if loc, err = h.locations.GetByID(c.Context(), actor, c.Params("id")); err != nil {
			return respondError(c, err)
		}
		if loc == nil {
			return respondError(c, domain.ErrNotFound)
		}
	}
	units, err := h.ledger.ListLocationInventory(c.Context(), actor.CompanyID, loc.ID)
	if err != nil {
		return respondError(c, err)
	}
	items := make([]dto.InventoryUnitResponse, 0, len(units))
	for _, u := range units {
		items = append(items, dto.ToInventoryUnitResponse(u))
	}
	return c.JSON(fiber.Map{"location": dto.ToLocationResponse(loc), "items": items})
}

// History auditoría de cambios filtrada por query params.
func (h *InventoryHandler) History(c *fiber.Ctx) error {
	actor := GetActor(c)
	if actor.CompanyID == "" {
		return unauthorized(c)
	}
	changes, err := h.ledger.History(c.Context(), repository.ChangeFilter{
		CompanyID:         actor.CompanyID,
		LocationID:        c.Query("location_id"),
		ProductID:         c.Query("product_id"),
		Size:              c.Query("size"),
		TransferRequestID: c.Query("transfer_id"),
		Limit:             c.QueryInt("limit", 100),
	})
	if err != nil {
		return respondError(c, err)
	}
	items := make([]dto.InventoryChangeResponse, 0, len(changes))
	for _, ch := range changes {
		items = append(items, dto.ToInventoryChangeResponse(ch))
	}
	return c.JSON(fiber.Map{"total": len(items), "items": items})
}

func toDistributionResponse(d inventory.Distribution) dto.DistributionResponse {
	out := dto.DistributionResponse{
		ProductID:           d.ProductID,
		Size:                d.Size,
		Locations:           make([]dto.HoldingResponse, 0, len(d.Locations)),
		TotalPairs:          d.TotalPairs,
		TotalLeft:           d.TotalLeft,
		TotalRight:          d.TotalRight,
		FormablePairs:       d.FormablePairs,
		TotalPotentialPairs: d.TotalPotentialPairs(),
		EfficiencyPct:       d.EfficiencyPct(),
		Balanced:            d.Balanced(),
	}
	for _, h := range d.Locations {
		out.Locations = append(out.Locations, dto.HoldingResponse(h))
	}
	return out
}
