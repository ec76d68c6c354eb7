package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimeActionRequest cuerpo opcional de start/pause/complete.
type TimeActionRequest struct {
	Description string `json:"description" validate:"omitempty,max=1000"`
}

// TimeEntryResponse salida de un registro de tiempo.
type TimeEntryResponse struct {
	ID          string          `json:"id"`
	RequestID   string          `json:"request_id"`
	UserID      string          `json:"user_id"`
	Status      string          `json:"status"`
	StartedAt   time.Time       `json:"started_at"`
	EndedAt     *time.Time      `json:"ended_at,omitempty"`
	Duration    decimal.Decimal `json:"duration" swaggertype:"string"`
	Description string          `json:"description"`
}

// CurrentTimeResponse registro abierto con el tiempo transcurrido derivado (solo para mostrar).
type CurrentTimeResponse struct {
	Entry          *TimeEntryResponse `json:"entry"`
	ElapsedSeconds int64              `json:"elapsed_seconds"`
	LiveHours      decimal.Decimal    `json:"live_hours" swaggertype:"string"`
	ServerTime     time.Time          `json:"server_time"`
}
