package dto

import "time"

// Nombres de eventos en tiempo real. Son pistas para invalidar cachés en la UI,
// nunca la fuente de verdad.
const (
	EventRequestCreated = "request:created"
	EventRequestUpdated = "request:updated"
	EventRequestDeleted = "request:deleted"
	EventClientCreated  = "client:created"
	EventClientUpdated  = "client:updated"
	EventClientDeleted  = "client:deleted"
)

// RealtimeEvent evento publicado tras un commit.
type RealtimeEvent struct {
	Type       string    `json:"type"`
	CompanyID  string    `json:"company_id"`
	EntityID   string    `json:"entity_id"`
	ActorID    string    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data,omitempty"`
}
