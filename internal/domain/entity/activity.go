package entity

import (
	"encoding/json"
	"time"
)

// ActivityType tipo de entrada de auditoría.
type ActivityType string

const (
	ActivityCreated        ActivityType = "created"
	ActivityStatusChange   ActivityType = "status_change"
	ActivityPriorityChange ActivityType = "priority_change"
	ActivityAssignment     ActivityType = "assignment"
	ActivityTimeLogged     ActivityType = "time_logged"
	ActivityEstimateChange ActivityType = "estimate_change"
)

// Activity registro inmutable de una acción sobre una Request.
// Seq es monótono por solicitud (orden de aceptación en el servidor).
type Activity struct {
	ID           string
	RequestID    string
	Seq          int64
	ActivityType ActivityType
	Description  string
	ActorID      string
	Metadata     json.RawMessage
	CreatedAt    time.Time
}
