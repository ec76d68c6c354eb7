package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/iptegra/nexus-api/internal/application/dto"
	"github.com/iptegra/nexus-api/internal/application/requests"
	"github.com/iptegra/nexus-api/internal/domain/entity"
)

// RequestHandler maneja el ciclo de vida de solicitudes (protegido).
type RequestHandler struct {
	uc *requests.LifecycleUseCase
	v  *Validator
}

// NewRequestHandler construye el handler.
func NewRequestHandler(uc *requests.LifecycleUseCase, v *Validator) *RequestHandler {
	return &RequestHandler{uc: uc, v: v}
}

// Create godoc
// @Summary      Crear solicitud (intake)
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateRequestRequest  true  "Datos de la solicitud"
// @Success      201   {object}  dto.RequestResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/requests [post]
func (h *RequestHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateRequestRequest
	if err := h.v.bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Create(c.Context(), GetActor(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar solicitudes
// @Description  Sin view_all_requests ni view_team_request solo devuelve las propias o asignadas.
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Param        status     query  string  false  "Estado"
// @Param        priority   query  string  false  "Prioridad"
// @Param        client_id  query  string  false  "Cliente"
// @Param        q          query  string  false  "Búsqueda por título o número"
// @Param        limit      query  int     false  "Límite"  default(50)
// @Param        offset     query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.RequestListResponse
// @Router       /api/requests [get]
func (h *RequestHandler) List(c *fiber.Ctx) error {
	var q dto.RequestListQuery
	if err := h.v.bindQuery(c, &q); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.List(c.Context(), GetActor(c), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Board godoc
// @Summary      Tablero Kanban
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.BoardResponse
// @Router       /api/requests/board [get]
func (h *RequestHandler) Board(c *fiber.Ctx) error {
	out, err := h.uc.Board(c.Context(), GetActor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener solicitud
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.RequestResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/requests/{id} [get]
func (h *RequestHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.Context(), GetActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Activities godoc
// @Summary      Historial de la solicitud
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la solicitud"
// @Success      200  {array}  dto.ActivityResponse
// @Router       /api/requests/{id}/activities [get]
func (h *RequestHandler) Activities(c *fiber.Ctx) error {
	out, err := h.uc.Activities(c.Context(), GetActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ChangeStatus godoc
// @Summary      Mover solicitud de columna
// @Description  Requiere change_request_status. Mover al mismo estado no genera actividad.
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la solicitud"
// @Param        body  body  dto.ChangeStatusRequest  true  "Nuevo estado"
// @Success      200   {object}  dto.RequestResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/requests/{id}/status [patch]
func (h *RequestHandler) ChangeStatus(c *fiber.Ctx) error {
	var in dto.ChangeStatusRequest
	if err := h.v.bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ChangeStatus(c.Context(), GetActor(c), c.Params("id"), entity.RequestStatus(in.Status))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ChangePriority godoc
// @Summary      Cambiar prioridad
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la solicitud"
// @Param        body  body  dto.ChangePriorityRequest  true  "Nueva prioridad"
// @Success      200   {object}  dto.RequestResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/requests/{id}/priority [patch]
func (h *RequestHandler) ChangePriority(c *fiber.Ctx) error {
	var in dto.ChangePriorityRequest
	if err := h.v.bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.ChangePriority(c.Context(), GetActor(c), c.Params("id"), entity.Priority(in.Priority))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// UpdateEstimate godoc
// @Summary      Actualizar estimación
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la solicitud"
// @Param        body  body  dto.UpdateEstimateRequest  true  "Horas estimadas"
// @Success      200   {object}  dto.RequestResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/requests/{id}/estimate [patch]
func (h *RequestHandler) UpdateEstimate(c *fiber.Ctx) error {
	var in dto.UpdateEstimateRequest
	if err := h.v.bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.UpdateEstimate(c.Context(), GetActor(c), c.Params("id"), in.EstimatedHours)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// AssignUsers godoc
// @Summary      Reemplazar asignados
// @Description  Reemplaza el conjunto completo. Requiere assign_request.
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la solicitud"
// @Param        body  body  dto.AssignUsersRequest  true  "Usuarios"
// @Success      200   {object}  dto.RequestResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/requests/{id}/assignees [put]
func (h *RequestHandler) AssignUsers(c *fiber.Ctx) error {
	var in dto.AssignUsersRequest
	if err := h.v.bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.AssignUsers(c.Context(), GetActor(c), c.Params("id"), in.UserIDs)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar solicitud
// @Description  Falla con 409 si tiene usuarios asignados. Irreversible.
// @Tags         requests
// @Security     Bearer
// @Param        id   path  string  true  "ID de la solicitud"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/requests/{id} [delete]
func (h *RequestHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.DeleteRequest(c.Context(), GetActor(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
