package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// RequestType tipo de solicitud.
type RequestType string

const (
	RequestTypeProductFeature RequestType = "PRODUCT_FEATURE"
	RequestTypeCustomization  RequestType = "CUSTOMIZATION"
	RequestTypeBug            RequestType = "BUG"
	RequestTypeSupport        RequestType = "SUPPORT"
	RequestTypeInfrastructure RequestType = "INFRASTRUCTURE"
)

// IsValid indica si el tipo pertenece al catálogo.
func (t RequestType) IsValid() bool {
	switch t {
	case RequestTypeProductFeature, RequestTypeCustomization, RequestTypeBug, RequestTypeSupport, RequestTypeInfrastructure:
		return true
	}
	return false
}

// RequestStatus columna del tablero Kanban.
type RequestStatus string

const (
	StatusIntake     RequestStatus = "INTAKE"
	StatusBacklog    RequestStatus = "BACKLOG"
	StatusInProgress RequestStatus = "IN_PROGRESS"
	StatusReview     RequestStatus = "REVIEW"
	StatusDone       RequestStatus = "DONE"
	StatusRejected   RequestStatus = "REJECTED"
)

// RequestStatuses en el orden de las columnas del tablero.
var RequestStatuses = []RequestStatus{
	StatusIntake, StatusBacklog, StatusInProgress, StatusReview, StatusDone, StatusRejected,
}

// IsValid indica si el estado pertenece al catálogo.
func (s RequestStatus) IsValid() bool {
	for _, v := range RequestStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsTerminal DONE y REJECTED no tienen transición definida, aunque se permite reabrir.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusDone || s == StatusRejected
}

// Priority prioridad de la solicitud.
type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

// IsValid indica si la prioridad pertenece al catálogo.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Request solicitud de trabajo (ítem del tablero).
type Request struct {
	ID             string
	CompanyID      string
	RequestNumber  string // REQ-000001, asignado por la base de datos
	Title          string
	Description    string
	Type           RequestType
	Status         RequestStatus
	Priority       Priority
	ClientID       string
	ProductID      *string
	AssignedUsers  []string
	EstimatedHours decimal.Decimal
	ActualHours    decimal.Decimal
	CreatedBy      string // dueño del recurso para edit_own_request
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsAssignedTo indica si el usuario está asignado.
func (r *Request) IsAssignedTo(userID string) bool {
	for _, id := range r.AssignedUsers {
		if id == userID {
			return true
		}
	}
	return false
}
