package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-pares/internal/application/dto"
	"github.com/jhoicas/Inventario-pares/internal/application/transfer"
	"github.com/jhoicas/Inventario-pares/internal/domain/entity"
)

// TransferHandler solicitudes de transferencia, devoluciones y seguimiento (protegido).
// Cada comando responde la solicitud actualizada; los rechazos salen por respondError.
type TransferHandler struct {
	engine *transfer.Engine
}

// NewTransferHandler construye el handler.
func NewTransferHandler(engine *transfer.Engine) *TransferHandler {
	return &TransferHandler{engine: engine}
}

// Create godoc
// @Summary      Solicitar transferencia
// @Description  Crea una solicitud pendiente. Con propósito "cliente" queda una reserva con vencimiento.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransferRequest  true  "origen, destino, producto, talla, tipo, cantidad y propósito"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	actor := GetActor(c)
	if actor.UserID == "" || actor.CompanyID == "" {
		return unauthorized(c)
	}
	var in dto.CreateTransferRequest
	if e := bindBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	t, err := h.engine.Create(c.Context(), actor, transfer.CreateInput{
		SourceLocationID:      in.SourceLocationID,
		DestinationLocationID: in.DestinationLocationID,
		ProductID:             in.ProductID,
		Size:                  in.Size,
		UnitType:              entity.UnitType(in.UnitType),
		Quantity:              in.Quantity,
		Purpose:               entity.Purpose(in.Purpose),
		PickupMode:            entity.PickupMode(in.PickupMode),
		Notes:                 in.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToTransferResponse(t))
}

// ListMine godoc
// @Summary      Mis solicitudes
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "Estados separados por coma"
// @Success      200  {object}  dto.TransferListResponse
// @Router       /api/transfers [get]
func (h *TransferHandler) ListMine(c *fiber.Ctx) error {
	actor := GetActor(c)
	if actor.UserID == "" {
		return unauthorized(c)
	}
	var statuses []entity.TransferStatus
	for _, s := range strings.Split(c.Query("status"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			statuses = append(statuses, entity.TransferStatus(s))
		}
	}
	list, err := h.engine.ListMine(c.Context(), actor, statuses...)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToTransferList(list))
}

// Pending cola del bodeguero: pendientes en sus ubicaciones de origen, clientes primero.
func (h *TransferHandler) Pending(c *fiber.Ctx) error {
	list, err := h.engine.ListPendingForCustodian(c.Context(), GetActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToTransferList(list))
}

// Available solicitudes aceptadas esperando corredor.
func (h *TransferHandler) Available(c *fiber.Ctx) error {
	list, err := h.engine.ListAvailableForCourier(c.Context(), GetActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToTransferList(list))
}

func (h *TransferHandler) Summary(c *fiber.Ctx) error {
	s, err := h.engine.Summary(c.Context(), GetActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(s)
}

// Get godoc
// @Summary      Detalle de solicitud
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.TransferDetailResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) Get(c *fiber.Ctx) error {
	d, err := h.engine.Get(c.Context(), GetActor(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	out := dto.TransferDetailResponse{
		TransferResponse: dto.ToTransferResponse(d.Transfer),
		AllowedCommands:  make([]string, 0, len(d.AllowedCommands)),
		ProgressPct:      d.ProgressPct,
		Incidents:        make([]dto.IncidentResponse, 0, len(d.Incidents)),
		Returns:          make([]dto.TransferResponse, 0, len(d.Returns)),
	}
	for _, cmd := range d.AllowedCommands {
		out.AllowedCommands = append(out.AllowedCommands, string(cmd))
	}
	for _, i := range d.Incidents {
		out.Incidents = append(out.Incidents, dto.ToIncidentResponse(i))
	}
	for _, r := range d.Returns {
		out.Returns = append(out.Returns, dto.ToTransferResponse(r))
	}
	return c.JSON(out)
}

// Accept godoc
// @Summary      Aceptar solicitud (bodeguero del origen)
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.TransferResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/accept [post]
func (h *TransferHandler) Accept(c *fiber.Ctx) error {
	t, err := h.engine.Accept(c.Context(), GetActor(c), c.Params("id"))
	return h.reply(c, t, err)
}

func (h *TransferHandler) Reject(c *fiber.Ctx) error {
	var in dto.ReasonRequest
	if e := bindBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	t, err := h.engine.Reject(c.Context(), GetActor(c), c.Params("id"), in.Reason)
	return h.reply(c, t, err)
}

func (h *TransferHandler) Cancel(c *fiber.Ctx) error {
	var in dto.ReasonRequest
	if e := bindBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	t, err := h.engine.Cancel(c.Context(), GetActor(c), c.Params("id"), in.Reason)
	return h.reply(c, t, err)
}

// HandToRequester entrega directa al solicitante (recogida propia).
func (h *TransferHandler) HandToRequester(c *fiber.Ctx) error {
	t, err := h.engine.HandToRequester(c.Context(), GetActor(c), c.Params("id"))
	return h.reply(c, t, err)
}

// AssignCourier sin courier_id el corredor autenticado toma la solicitud.
func (h *TransferHandler) AssignCourier(c *fiber.Ctx) error {
	var in dto.AssignCourierRequest
	if e := bindBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	actor := GetActor(c)
	courierID := in.CourierID
	if courierID == "" {
		courierID = actor.UserID
	}
	t, err := h.engine.AssignCourier(c.Context(), actor, c.Params("id"), courierID)
	return h.reply(c, t, err)
}

func (h *TransferHandler) ConfirmPickup(c *fiber.Ctx) error {
	t, err := h.engine.ConfirmPickup(c.Context(), GetActor(c), c.Params("id"))
	return h.reply(c, t, err)
}

// ConfirmDelivery godoc
// @Summary      Resultado de la entrega
// @Description  delivered=false deja la solicitud en delivery_failed.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID de la solicitud"
// @Param        body  body  dto.DeliveryRequest  true  "resultado"
// @Success      200   {object}  dto.TransferResponse
// @Router       /api/transfers/{id}/delivery [post]
func (h *TransferHandler) ConfirmDelivery(c *fiber.Ctx) error {
	var in dto.DeliveryRequest
	if e := bindBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	t, err := h.engine.ConfirmDelivery(c.Context(), GetActor(c), c.Params("id"), *in.Delivered, in.Notes)
	return h.reply(c, t, err)
}

func (h *TransferHandler) RetryDelivery(c *fiber.Ctx) error {
	t, err := h.engine.RetryDelivery(c.Context(), GetActor(c), c.Params("id"))
	return h.reply(c, t, err)
}

// ConfirmReception godoc
// @Summary      Confirmar recepción en destino
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                true  "ID de la solicitud"
// @Param        body  body  dto.ReceptionRequest  true  "cantidad recibida y estado"
// @Success      200   {object}  dto.TransferResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/reception [post]
func (h *TransferHandler) ConfirmReception(c *fiber.Ctx) error {
	var in dto.ReceptionRequest
	if e := bindBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	t, err := h.engine.ConfirmReception(c.Context(), GetActor(c), c.Params("id"), transfer.ReceptionInput{
		ReceivedQuantity: in.ReceivedQuantity,
		ConditionOK:      *in.ConditionOK,
		Notes:            in.Notes,
	})
	return h.reply(c, t, err)
}

func (h *TransferHandler) ReportIncident(c *fiber.Ctx) error {
	var in dto.IncidentRequest
	if e := bindBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	inc, err := h.engine.ReportIncident(c.Context(), GetActor(c), c.Params("id"), transfer.IncidentInput{
		IncidentType: in.IncidentType,
		Description:  in.Description,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToIncidentResponse(inc))
}

// RequestReturn godoc
// @Summary      Solicitar devolución
// @Description  Crea una solicitud inversa sobre una transferencia completada.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "ID de la transferencia original"
// @Param        body  body  dto.ReturnRequest  true  "cantidad a devolver"
// @Success      201   {object}  dto.TransferResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/returns [post]
func (h *TransferHandler) RequestReturn(c *fiber.Ctx) error {
	var in dto.ReturnRequest
	if e := bindBody(c, &in); e != nil {
		return c.Status(fiber.StatusBadRequest).JSON(e)
	}
	t, err := h.engine.RequestReturn(c.Context(), GetActor(c), c.Params("id"), transfer.ReturnInput{
		Quantity:   in.Quantity,
		PickupMode: entity.PickupMode(in.PickupMode),
		Notes:      in.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToTransferResponse(t))
}

// AcceptReturn el destino original acepta; puede fallar con IRREVERSIBLE_CONFLICT.
func (h *TransferHandler) AcceptReturn(c *fiber.Ctx) error {
	t, err := h.engine.AcceptReturn(c.Context(), GetActor(c), c.Params("id"))
	return h.reply(c, t, err)
}

func (h *TransferHandler) reply(c *fiber.Ctx, t *entity.TransferRequest, err error) error {
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.ToTransferResponse(t))
}
