package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/iptegra/nexus-api/internal/application/dto"
	"github.com/iptegra/nexus-api/internal/application/requests"
)

// TimeHandler temporizador por (solicitud, usuario del token).
type TimeHandler struct {
	uc *requests.TimeTrackingUseCase
	v  *Validator
}

// NewTimeHandler construye el handler.
func NewTimeHandler(uc *requests.TimeTrackingUseCase, v *Validator) *TimeHandler {
	return &TimeHandler{uc: uc, v: v}
}

// description cuerpo opcional: sin cuerpo la descripción queda vacía.
func (h *TimeHandler) description(c *fiber.Ctx) (string, error) {
	var in dto.TimeActionRequest
	if len(c.Body()) == 0 {
		return "", nil
	}
	if err := h.v.bindBody(c, &in); err != nil {
		return "", err
	}
	return in.Description, nil
}

// Start godoc
// @Summary      Iniciar temporizador
// @Description  Falla con 409 si ya hay una entrada ACTIVE o PAUSED para la solicitud y el usuario.
// @Tags         time
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la solicitud"
// @Param        body  body  dto.TimeActionRequest  false  "Descripción"
// @Success      201   {object}  dto.TimeEntryResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/requests/{id}/time/start [post]
func (h *TimeHandler) Start(c *fiber.Ctx) error {
	desc, err := h.description(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Start(c.Context(), GetActor(c), c.Params("id"), desc)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Pause godoc
// @Summary      Pausar temporizador
// @Tags         time
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la solicitud"
// @Param        body  body  dto.TimeActionRequest  false  "Descripción"
// @Success      200   {object}  dto.TimeEntryResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/requests/{id}/time/pause [post]
func (h *TimeHandler) Pause(c *fiber.Ctx) error {
	desc, err := h.description(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Pause(c.Context(), GetActor(c), c.Params("id"), desc)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Resume godoc
// @Summary      Reanudar temporizador
// @Tags         time
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.TimeEntryResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/requests/{id}/time/resume [post]
func (h *TimeHandler) Resume(c *fiber.Ctx) error {
	out, err := h.uc.Resume(c.Context(), GetActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Complete godoc
// @Summary      Completar temporizador
// @Description  Suma la duración final a las horas reales de la solicitud.
// @Tags         time
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la solicitud"
// @Param        body  body  dto.TimeActionRequest  false  "Descripción"
// @Success      200   {object}  dto.TimeEntryResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/requests/{id}/time/complete [post]
func (h *TimeHandler) Complete(c *fiber.Ctx) error {
	desc, err := h.description(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Complete(c.Context(), GetActor(c), c.Params("id"), desc)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Current godoc
// @Summary      Temporizador abierto
// @Description  Entrada abierta con el tiempo transcurrido derivado; solo para mostrar.
// @Tags         time
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.CurrentTimeResponse
// @Router       /api/requests/{id}/time/current [get]
func (h *TimeHandler) Current(c *fiber.Ctx) error {
	out, err := h.uc.Current(c.Context(), GetActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListEntries godoc
// @Summary      Registros de tiempo de la solicitud
// @Tags         time
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la solicitud"
// @Success      200  {array}  dto.TimeEntryResponse
// @Router       /api/requests/{id}/time-entries [get]
func (h *TimeHandler) ListEntries(c *fiber.Ctx) error {
	out, err := h.uc.ListEntries(c.Context(), GetActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar registro de tiempo
// @Description  Solo registros COMPLETED; resta su duración de las horas reales.
// @Tags         time
// @Security     Bearer
// @Param        id   path  string  true  "ID del registro"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/time-entries/{id} [delete]
func (h *TimeHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.Context(), GetActor(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
