package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimeEntryStatus estado de una sesión de trabajo.
type TimeEntryStatus string

const (
	TimeEntryActive    TimeEntryStatus = "ACTIVE"
	TimeEntryPaused    TimeEntryStatus = "PAUSED"
	TimeEntryCompleted TimeEntryStatus = "COMPLETED"
)

// IsOpen ACTIVE o PAUSED: como máximo una abierta por (solicitud, usuario).
func (s TimeEntryStatus) IsOpen() bool {
	return s == TimeEntryActive || s == TimeEntryPaused
}

// TimeEntry sesión de trabajo registrada contra una Request.
type TimeEntry struct {
	ID               string
	CompanyID        string
	RequestID        string
	UserID           string
	Status           TimeEntryStatus
	StartedAt        time.Time
	SegmentStartedAt time.Time // ancla del tramo en curso (start o último resume)
	EndedAt          *time.Time
	Duration         decimal.Decimal // horas acumuladas; inmutable una vez COMPLETED
	Description      string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
