package ports

import (
	"context"

	"github.com/iptegra/nexus-api/internal/domain/permission"
)

// PermissionCache caché del set de permisos por (company, rol).
// Get devuelve ok=false si no hay entrada.
type PermissionCache interface {
	Get(ctx context.Context, companyID, role string) (set permission.Set, ok bool, err error)
	Set(ctx context.Context, companyID, role string, set permission.Set) error
	Invalidate(ctx context.Context, companyID, role string) error
}
