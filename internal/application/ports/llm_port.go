package ports

import (
	"context"

	"github.com/iptegra/nexus-api/internal/application/dto"
)

// LLMService define el puerto de salida para los servicios de inteligencia artificial.
// Cualquier adaptador (Anthropic, mock) debe implementar esta interfaz.
type LLMService interface {
	// AssessRequestRisk evalúa el riesgo de entrega de una solicitud a partir de sus datos.
	// El contexto debe llevar un timeout para evitar bloqueos en llamadas externas.
	AssessRequestRisk(ctx context.Context, facts dto.RequestRiskFacts) (*dto.RequestRiskDTO, error)
}
