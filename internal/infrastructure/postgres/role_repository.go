package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iptegra/nexus-api/internal/domain/entity"
	"github.com/iptegra/nexus-api/internal/domain/permission"
	"github.com/iptegra/nexus-api/internal/domain/repository"
)

var _ repository.RoleRepository = (*RoleRepo)(nil)

// RoleRepo roles y role_permissions sobre PostgreSQL.
type RoleRepo struct {
	q Querier
}

// NewRoleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRoleRepository(q Querier) *RoleRepo {
	return &RoleRepo{q: q}
}

func (r *RoleRepo) get(ctx context.Context, op, where string, args ...any) (*entity.Role, error) {
	var role entity.Role
	err := r.q.QueryRow(ctx, `SELECT id, company_id, name, created_at FROM roles WHERE `+where, args...).
		Scan(&role.ID, &role.CompanyID, &role.Name, &role.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap(op, err)
	}
	return &role, nil
}

// GetByName rol de la company por nombre (CEO, BACKEND, ...).
func (r *RoleRepo) GetByName(ctx context.Context, companyID, name string) (*entity.Role, error) {
	return r.get(ctx, "get role by name", "company_id = $1 AND name = $2", companyID, name)
}

// GetByID rol de la company por id.
func (r *RoleRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Role, error) {
	return r.get(ctx, "get role by id", "company_id = $1 AND id = $2", companyID, id)
}

// GetPermissions set del rol, vacío si no hay filas.
func (r *RoleRepo) GetPermissions(ctx context.Context, roleID string) (permission.Set, error) {
	rows, err := r.q.Query(ctx, `SELECT permission_key, granted FROM role_permissions WHERE role_id = $1`, roleID)
	if err != nil {
		return nil, wrap("get role permissions", err)
	}
	defer rows.Close()
	set := permission.Set{}
	for rows.Next() {
		var key string
		var granted bool
		if err := rows.Scan(&key, &granted); err != nil {
			return nil, wrap("scan role permission", err)
		}
		set[permission.Key(key)] = granted
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("get role permissions", err)
	}
	return set, nil
}

// ReplacePermissions reemplaza el set completo en una sola sentencia.
func (r *RoleRepo) ReplacePermissions(ctx context.Context, roleID string, set permission.Set) error {
	keys := make([]string, 0, len(set))
	granted := make([]bool, 0, len(set))
	for k, v := range set {
		keys = append(keys, string(k))
		granted = append(granted, v)
	}
	_, err := r.q.Exec(ctx, `
		WITH cleared AS (
			DELETE FROM role_permissions WHERE role_id = $1 AND permission_key <> ALL($2::text[])
		)
		INSERT INTO role_permissions (role_id, permission_key, granted)
		SELECT $1, k, g FROM unnest($2::text[], $3::bool[]) AS t(k, g)
		ON CONFLICT (role_id, permission_key) DO UPDATE SET granted = EXCLUDED.granted`,
		roleID, keys, granted)
	return wrap("replace role permissions", err)
}
