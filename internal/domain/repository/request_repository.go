package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iptegra/nexus-api/internal/domain/entity"
)

// RequestFilter filtros del listado de solicitudes (siempre acotado a una company).
// OnlyUserID restringe a las solicitudes creadas por o asignadas al usuario.
type RequestFilter struct {
	CompanyID  string
	Status     entity.RequestStatus
	Priority   entity.Priority
	ClientID   string
	OnlyUserID string
	Search     string
	Limit      int
	Offset     int
}

// RequestRepository puerto de persistencia para Request.
// Get* devuelven (nil, nil) si no existe.
type RequestRepository interface {
	// Create persiste la solicitud y rellena RequestNumber desde la secuencia de la base de datos.
	Create(ctx context.Context, r *entity.Request) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Request, error)
	// GetForUpdate bloquea la fila hasta el fin de la transacción (SELECT ... FOR UPDATE).
	GetForUpdate(ctx context.Context, companyID, id string) (*entity.Request, error)
	Update(ctx context.Context, r *entity.Request) error
	ReplaceAssignees(ctx context.Context, requestID string, userIDs []string) error
	Delete(ctx context.Context, companyID, id string) error
	List(ctx context.Context, f RequestFilter) ([]*entity.Request, error)
	// AddActualHours suma delta (puede ser negativo) a actual_hours sin bajar de cero.
	AddActualHours(ctx context.Context, requestID string, delta decimal.Decimal) error
	CountByClient(ctx context.Context, companyID, clientID string) (int, error)
}

// ActivityRepository puerto de persistencia para el historial de una solicitud.
type ActivityRepository interface {
	// Append asigna Seq = último + 1 para la solicitud. Llamar con la fila de la solicitud bloqueada.
	Append(ctx context.Context, a *entity.Activity) error
	ListByRequest(ctx context.Context, requestID string) ([]*entity.Activity, error)
}
