package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/iptegra/nexus-api/internal/application/usecase"
)

// AIHandler maneja los endpoints de insights asistidos por IA.
type AIHandler struct {
	uc *usecase.AIUseCase
}

// NewAIHandler construye el handler.
func NewAIHandler(uc *usecase.AIUseCase) *AIHandler {
	return &AIHandler{uc: uc}
}

// RequestRisk godoc
// @Summary      Riesgo de entrega de una solicitud
// @Description  Envía los datos de la solicitud al LLM y devuelve risk_level (LOW, MEDIUM, HIGH),
// @Description  un resumen y hasta 3 recomendaciones. Requiere view_ai_insights. Timeout interno de 15 s.
// @Tags         ai
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.RequestRiskDTO
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/ai/requests/{id}/risk [post]
func (h *AIHandler) RequestRisk(c *fiber.Ctx) error {
	out, err := h.uc.RequestRisk(c.Context(), GetActor(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
