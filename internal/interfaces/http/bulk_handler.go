package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/iptegra/nexus-api/internal/application/bulk"
	"github.com/iptegra/nexus-api/internal/application/dto"
	"github.com/iptegra/nexus-api/internal/domain/entity"
)

// BulkHandler acciones masivas sobre una selección.
type BulkHandler struct {
	coord *bulk.Coordinator
	v     *Validator
}

// NewBulkHandler construye el handler.
func NewBulkHandler(coord *bulk.Coordinator, v *Validator) *BulkHandler {
	return &BulkHandler{coord: coord, v: v}
}

// Requests godoc
// @Summary      Acción masiva sobre solicitudes
// @Description  Todo o nada: si algún id falla no se aplica ninguno y failed_ids lista los culpables.
// @Description  export devuelve el CSV como adjunto.
// @Tags         bulk
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BulkActionRequest  true  "acción, ids y valor"
// @Success      200   {object}  dto.BulkResult
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/bulk/requests [post]
func (h *BulkHandler) Requests(c *fiber.Ctx) error {
	return h.apply(c, bulk.TargetRequests)
}

// Clients godoc
// @Summary      Acción masiva sobre clientes
// @Description  Solo delete y export.
// @Tags         bulk
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BulkActionRequest  true  "acción e ids"
// @Success      200   {object}  dto.BulkResult
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/bulk/clients [post]
func (h *BulkHandler) Clients(c *fiber.Ctx) error {
	return h.apply(c, bulk.TargetClients)
}

func (h *BulkHandler) apply(c *fiber.Ctx, target bulk.Target) error {
	var in dto.BulkActionRequest
	if err := h.v.bindBody(c, &in); err != nil {
		return writeError(c, err)
	}
	cmd := bulk.NewCommand(target, bulk.Action(in.Action), entity.NewSelectionSet(in.IDs...), in.Value)
	if err := h.coord.ApplyBulkAction(c.Context(), GetActor(c), cmd); err != nil {
		return writeError(c, err)
	}
	if cmd.Action == bulk.ActionExport {
		name := fmt.Sprintf("%s-%s.csv", target, time.Now().Format("20060102-150405"))
		c.Set(fiber.HeaderContentType, cmd.ContentType)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
		return c.Send(cmd.Export)
	}
	return c.JSON(dto.BulkResult{
		Action:   string(cmd.Action),
		State:    string(cmd.State),
		Affected: cmd.Affected,
		Count:    len(cmd.Affected),
	})
}
