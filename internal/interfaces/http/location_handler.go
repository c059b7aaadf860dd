package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-pares/internal/application/catalog"
	"github.com/jhoicas/Inventario-pares/internal/application/dto"
	"github.com/jhoicas/Inventario-pares/internal/domain"
)

// LocationHandler maneja las peticiones HTTP de locales y bodegas (protegido).
type LocationHandler struct {
	uc *catalog.LocationUseCase
}

// NewLocationHandler construye el handler.
func NewLocationHandler(uc *catalog.LocationUseCase) *LocationHandler {
	return &LocationHandler{uc: uc}
}

// Create godoc
// @Summary      Crear ubicación
// @Tags         locations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateLocationRequest  true  "Datos de la ubicación"
// @Success      201   {object}  dto.LocationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/locations [post]
func (h *LocationHandler) Create(c *fiber.Ctx) error {
	actor := GetActor(c)
	if actor.CompanyID == "" {
		return unauthorized(c)
	}
	var in dto.CreateLocationRequest
	if e := bindBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	loc, err := h.uc.Create(c.Context(), actor, catalog.LocationInput{Name: in.Name, Type: in.Type, Address: in.Address})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToLocationResponse(loc))
}

// List godoc
// @Summary      Listar ubicaciones
// @Tags         locations
// @Security     Bearer
// @Produce      json
// @Param        managed  query  bool  false  "Solo las que gestiona el usuario"
// @Success      200  {object}  dto.LocationListResponse
// @Router       /api/locations [get]
func (h *LocationHandler) List(c *fiber.Ctx) error {
	actor := GetActor(c)
	if actor.CompanyID == "" {
		return unauthorized(c)
	}
	list, err := h.uc.List(c.Context(), actor, c.QueryBool("managed", false))
	if err != nil {
		return respondError(c, err)
	}
	items := make([]dto.LocationResponse, 0, len(list))
	for _, l := range list {
		items = append(items, dto.ToLocationResponse(l))
	}
	return c.JSON(dto.LocationListResponse{Items: items})
}

// GetByID obtiene una ubicación por ID.
func (h *LocationHandler) GetByID(c *fiber.Ctx) error {
	actor := GetActor(c)
	loc, err := h.uc.GetByID(c.Context(), actor, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if loc == nil {
		return respondError(c, domain.ErrNotFound)
	}
	return c.JSON(dto.ToLocationResponse(loc))
}

// SetActive activa o desactiva una ubicación.
func (h *LocationHandler) SetActive(c *fiber.Ctx) error {
	actor := GetActor(c)
	var in dto.SetLocationActiveRequest
	if e := bindBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	loc, err := h.uc.SetActive(c.Context(), actor, c.Params("id"), *in.Active)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToLocationResponse(loc))
}
