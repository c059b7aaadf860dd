package http

import (
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-pares/internal/application/dto"
	"github.com/jhoicas/Inventario-pares/internal/application/intake"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
)

// maxImageBytes tamaño máximo de la foto de ingreso.
const maxImageBytes = 8 << 20

// IntakeHandler ingreso asistido por clasificación de imagen (protegido).
type IntakeHandler struct {
	uc *intake.UseCase
}

// NewIntakeHandler construye el handler.
func NewIntakeHandler(uc *intake.UseCase) *IntakeHandler {
	return &IntakeHandler{uc: uc}
}

// Register godoc
// @Summary      Ingreso de calzado con foto
// @Description  La foto se envía al clasificador; su sugerencia solo completa los campos vacíos.
// @Tags         intake
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        image           formData  file    false  "Foto del calzado"
// @Param        location_id     formData  string  true   "Ubicación que recibe"
// @Param        reference_code  formData  string  false  "Referencia"
// @Param        size            formData  string  false  "Talla"
// @Param        quantity        formData  int     true   "Cantidad"
// @Success      201  {object}  dto.IntakeResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/intake [post]
func (h *IntakeHandler) Register(c *fiber.Ctx) error {
	actor := GetActor(c)
	if actor.UserID == "" || actor.CompanyID == "" {
		return unauthorized(c)
	}
	var in dto.IntakeRequest
	if e := bindBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	price := decimal.Zero
	if s := strings.TrimSpace(in.UnitPrice); s != "" {
		p, err := decimal.NewFromString(s)
		if err != nil || p.IsNegative() {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "unit_price inválido"})
		}
		price = p
	}
	image, contentType, err := readImage(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_IMAGE", Message: err.Error()})
	}

	res, err := h.uc.Register(c.Context(), actor, intake.Input{
		LocationID:       in.LocationID,
		ReferenceCode:    in.ReferenceCode,
		Brand:            in.Brand,
		Model:            in.Model,
		Description:      in.Description,
		UnitPrice:        price,
		ImageURL:         in.ImageURL,
		Size:             in.Size,
		UnitType:         entity.UnitType(in.UnitType),
		Quantity:         in.Quantity,
		Image:            image,
		ImageContentType: contentType,
		Notes:            in.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}
	out := dto.IntakeResponse{
		Product:        dto.ToProductResponse(res.Product),
		Unit:           dto.ToInventoryUnitResponse(res.Unit),
		ProductCreated: res.ProductCreated,
	}
	if hint := res.Hint; hint != nil {
		out.Hint = &dto.ClassificationHintResponse{
			ReferenceCode: hint.ReferenceCode,
			Brand:         hint.Brand,
			Model:         hint.Model,
			Size:          hint.Size,
			Confidence:    hint.Confidence,
			Applied:       res.HintApplied,
		}
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// readImage lee el campo "image" si viene; sin foto el ingreso sigue siendo manual.
func readImage(c *fiber.Ctx) ([]byte, string, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		return nil, "", nil
	}
	if fh.Size > maxImageBytes {
		return nil, "", fmt.Errorf("la imagen supera %d MB", maxImageBytes>>20)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", fmt.Errorf("no se pudo abrir la imagen: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("no se pudo leer la imagen: %w", err)
	}
	return data, fh.Header.Get("Content-Type"), nil
}
