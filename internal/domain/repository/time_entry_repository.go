package repository

import (
	"context"

	"github.com/iptegra/nexus-api/internal/domain/entity"
)

// TimeEntryRepository puerto de persistencia para TimeEntry.
type TimeEntryRepository interface {
	// Create falla con domain.ErrPreconditionFailed si ya existe una entrada abierta
	// para (solicitud, usuario) (índice único parcial).
	Create(ctx context.Context, e *entity.TimeEntry) error
	GetByID(ctx context.Context, companyID, id string) (*entity.TimeEntry, error)
	// GetOpen entrada ACTIVE o PAUSED de (solicitud, usuario), o nil.
	GetOpen(ctx context.Context, requestID, userID string) (*entity.TimeEntry, error)
	Update(ctx context.Context, e *entity.TimeEntry) error
	Delete(ctx context.Context, id string) error
	ListByRequest(ctx context.Context, requestID string) ([]*entity.TimeEntry, error)
}
