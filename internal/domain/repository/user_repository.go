package repository

import (
	"context"

	"github.com/iptegra/nexus-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
// Los usuarios los administra el subsistema de autenticación; aquí solo se leen.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	// ExistingIDs devuelve cuáles de los ids pertenecen a usuarios activos de la company.
	ExistingIDs(ctx context.Context, companyID string, ids []string) ([]string, error)
	// ListActive usuarios activos de la company ordenados por nombre.
	ListActive(ctx context.Context, companyID string) ([]*entity.User, error)
}
