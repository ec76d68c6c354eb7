package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/iptegra/nexus-api/internal/application/dto"
	"github.com/iptegra/nexus-api/internal/application/ports"
	"github.com/iptegra/nexus-api/internal/domain"
	"github.com/iptegra/nexus-api/internal/domain/permission"
	"github.com/iptegra/nexus-api/internal/domain/repository"
	"github.com/iptegra/nexus-api/pkg/clock"
)

// llmTimeout tope por llamada al LLM para que la latencia externa no retenga el handler.
const llmTimeout = 15 * time.Second

// AIUseCase orquesta la evaluación de riesgo de solicitudes asistida por IA.
type AIUseCase struct {
	llm      ports.LLMService
	requests repository.RequestRepository
	clock    clock.Clock
}

// NewAIUseCase construye el caso de uso inyectando el puerto LLMService.
func NewAIUseCase(llm ports.LLMService, requests repository.RequestRepository, clk clock.Clock) *AIUseCase {
	if clk == nil {
		clk = clock.Real()
	}
	return &AIUseCase{llm: llm, requests: requests, clock: clk}
}

// RequestRisk evalúa el riesgo de entrega de una solicitud visible para el actor.
func (uc *AIUseCase) RequestRisk(ctx context.Context, actor permission.Actor, requestID string) (*dto.RequestRiskDTO, error) {
	if actor.Cannot(permission.ViewAIInsights) {
		return nil, fmt.Errorf("%w: se requiere %s", domain.ErrUnauthorized, permission.ViewAIInsights)
	}
	req, err := uc.requests.GetByID(ctx, actor.CompanyID, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil || (actor.ShouldFilterByUser(permission.ResourceRequest) && !actor.IsOwner(req.CreatedBy) && !req.IsAssignedTo(actor.UserID)) {
		return nil, fmt.Errorf("%w: solicitud %s", domain.ErrNotFound, requestID)
	}

	facts := dto.RequestRiskFacts{
		RequestNumber:  req.RequestNumber,
		Title:          req.Title,
		Description:    req.Description,
		Type:           string(req.Type),
		Status:         string(req.Status),
		Priority:       string(req.Priority),
		AssignedCount:  len(req.AssignedUsers),
		EstimatedHours: req.EstimatedHours.String(),
		ActualHours:    req.ActualHours.String(),
		AgeDays:        int(uc.clock.Now().Sub(req.CreatedAt).Hours() / 24),
	}

	ctx, cancel := context.WithTimeout(ctx, llmTimeout)
	defer cancel()

	result, err := uc.llm.AssessRequestRisk(ctx, facts)
	if err != nil {
		return nil, fmt.Errorf("evaluación IA: %w", err)
	}
	result.RequestID = req.ID
	return result, nil
}
