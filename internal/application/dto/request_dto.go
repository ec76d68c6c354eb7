package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateRequestRequest alta de una solicitud (intake).
type CreateRequestRequest struct {
	Title          string           `json:"title" validate:"required,min=3,max=200"`
	Description    string           `json:"description" validate:"omitempty,max=5000"`
	Type           string           `json:"type" validate:"required,oneof=PRODUCT_FEATURE CUSTOMIZATION BUG SUPPORT INFRASTRUCTURE"`
	Priority       string           `json:"priority" validate:"omitempty,oneof=CRITICAL HIGH MEDIUM LOW"`
	ClientID       string           `json:"client_id" validate:"required"`
	ProductID      *string          `json:"product_id,omitempty"`
	EstimatedHours *decimal.Decimal `json:"estimated_hours,omitempty" swaggertype:"string"`
}

// ChangeStatusRequest movimiento en el tablero.
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=INTAKE BACKLOG IN_PROGRESS REVIEW DONE REJECTED"`
}

// ChangePriorityRequest cambio de prioridad.
type ChangePriorityRequest struct {
	Priority string `json:"priority" validate:"required,oneof=CRITICAL HIGH MEDIUM LOW"`
}

// UpdateEstimateRequest nueva estimación en horas (≥ 0).
type UpdateEstimateRequest struct {
	EstimatedHours decimal.Decimal `json:"estimated_hours" swaggertype:"string"`
}

// AssignUsersRequest reemplaza el conjunto completo de asignados. Lista vacía desasigna a todos.
type AssignUsersRequest struct {
	UserIDs []string `json:"user_ids" validate:"omitempty,dive,required"`
}

// RequestListQuery filtros del listado.
type RequestListQuery struct {
	PageRequest
	Status   string `query:"status" validate:"omitempty,oneof=INTAKE BACKLOG IN_PROGRESS REVIEW DONE REJECTED"`
	Priority string `query:"priority" validate:"omitempty,oneof=CRITICAL HIGH MEDIUM LOW"`
	ClientID string `query:"client_id"`
	Search   string `query:"q" validate:"omitempty,max=100"`
}

// RequestResponse salida de una solicitud.
type RequestResponse struct {
	ID             string          `json:"id"`
	RequestNumber  string          `json:"request_number"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Type           string          `json:"type"`
	Status         string          `json:"status"`
	Priority       string          `json:"priority"`
	ClientID       string          `json:"client_id"`
	ProductID      *string         `json:"product_id,omitempty"`
	AssignedUsers  []string        `json:"assigned_users"`
	EstimatedHours decimal.Decimal `json:"estimated_hours" swaggertype:"string"`
	ActualHours    decimal.Decimal `json:"actual_hours" swaggertype:"string"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// RequestListResponse listado paginado.
type RequestListResponse struct {
	Items []RequestResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// BoardColumn columna del tablero Kanban.
type BoardColumn struct {
	Status string            `json:"status"`
	Count  int               `json:"count"`
	Items  []RequestResponse `json:"items"`
}

// BoardResponse tablero completo, columnas en orden de flujo.
type BoardResponse struct {
	Columns []BoardColumn `json:"columns"`
}

// ActivityResponse entrada del historial.
type ActivityResponse struct {
	ID           string    `json:"id"`
	RequestID    string    `json:"request_id"`
	Seq          int64     `json:"seq"`
	ActivityType string    `json:"activity_type"`
	Description  string    `json:"description"`
	ActorID      string    `json:"actor_id"`
	Metadata     any       `json:"metadata,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
