package repository

import (
	"context"

	"github.com/iptegra/nexus-api/internal/domain/entity"
	"github.com/iptegra/nexus-api/internal/domain/permission"
)

// RoleRepository fuente de la tabla nombre de rol → id y del conjunto de permisos por rol.
type RoleRepository interface {
	GetByName(ctx context.Context, companyID, name string) (*entity.Role, error)
	GetByID(ctx context.Context, companyID, id string) (*entity.Role, error)
	// GetPermissions devuelve el set del rol; vacío (no nil) si no tiene filas.
	GetPermissions(ctx context.Context, roleID string) (permission.Set, error)
	ReplacePermissions(ctx context.Context, roleID string, set permission.Set) error
}
