package session

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/iptegra/nexus-api/internal/application/dto"
	"github.com/iptegra/nexus-api/internal/application/ports"
	"github.com/iptegra/nexus-api/internal/domain"
	"github.com/iptegra/nexus-api/internal/domain/access"
	"github.com/iptegra/nexus-api/internal/domain/permission"
	"github.com/iptegra/nexus-api/internal/domain/repository"
)

// SessionUseCase resuelve los permisos de la sesión y alimenta el guard y el menú.
type SessionUseCase struct {
	roles repository.RoleRepository
	cache ports.PermissionCache
	guard *access.Guard
	menu  *access.MenuFilter
	log   zerolog.Logger
}

// NewSessionUseCase construye el caso de uso. cache puede ser nil (sin Redis).
func NewSessionUseCase(roles repository.RoleRepository, cache ports.PermissionCache, guard *access.Guard, menu *access.MenuFilter, log zerolog.Logger) *SessionUseCase {
	return &SessionUseCase{roles: roles, cache: cache, guard: guard, menu: menu, log: log}
}

// LoadPermissions set del rol en la company: caché, luego base de datos.
// Un rol sin aprovisionar devuelve un set vacío (todo denegado salvo CEO).
// Los fallos de la caché solo se registran.
func (uc *SessionUseCase) LoadPermissions(ctx context.Context, companyID string, role permission.Role) (permission.Set, error) {
	name := string(role)
	if uc.cache != nil {
		set, ok, err := uc.cache.Get(ctx, companyID, name)
		switch {
		case err != nil:
			uc.log.Warn().Err(err).Str("role", name).Msg("caché de permisos no disponible")
		case ok:
			return set, nil
		}
	}

	set := permission.Set{}
	r, err := uc.roles.GetByName(ctx, companyID, name)
	if err != nil {
		return nil, err
	}
	if r != nil {
		set, err = uc.roles.GetPermissions(ctx, r.ID)
		if err != nil {
			return nil, err
		}
	} else {
		uc.log.Debug().Str("company_id", companyID).Str("role", name).Msg("rol sin aprovisionar: set vacío")
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, companyID, name, set); err != nil {
			uc.log.Warn().Err(err).Str("role", name).Msg("no se pudo guardar el set en caché")
		}
	}
	return set, nil
}

// ResolveActor arma el actor de la petición con su set cargado.
func (uc *SessionUseCase) ResolveActor(ctx context.Context, userID, companyID, role string) (permission.Actor, error) {
	set, err := uc.LoadPermissions(ctx, companyID, permission.Role(role))
	if err != nil {
		return permission.Actor{}, err
	}
	return permission.Actor{UserID: userID, CompanyID: companyID, Role: permission.Role(role), Permissions: set}, nil
}

// Navigation menú podado para el actor.
func (uc *SessionUseCase) Navigation(actor permission.Actor) access.Menu {
	return uc.menu.Filter(actor.Role, actor.Permissions)
}

// Me identidad, permisos concedidos y menú.
func (uc *SessionUseCase) Me(actor permission.Actor) *dto.MeResponse {
	keys := actor.Permissions.Keys()
	perms := make([]string, 0, len(keys))
	for _, k := range keys {
		perms = append(perms, string(k))
	}
	return &dto.MeResponse{
		UserID:      actor.UserID,
		CompanyID:   actor.CompanyID,
		Role:        string(actor.Role),
		Permissions: perms,
		Navigation:  uc.Navigation(actor),
	}
}

// CheckRoute decisión del guard. Si el set no se pudo cargar la respuesta es "loading",
// nunca una redirección por falta de permiso.
func (uc *SessionUseCase) CheckRoute(ctx context.Context, authenticated bool, companyID string, role permission.Role, path string) access.Decision {
	in := access.GuardInput{IsAuthenticated: authenticated, Role: role, Path: path}
	if authenticated {
		set, err := uc.LoadPermissions(ctx, companyID, role)
		if err != nil {
			uc.log.Warn().Err(err).Str("path", path).Msg("permisos no cargados para el guard")
		} else {
			in.HasLoadedPermissions = true
			in.Permissions = set
		}
	}
	return uc.guard.Decide(in)
}

// Routes tabla del guard (para que la UI registre sus rutas protegidas).
func (uc *SessionUseCase) Routes() []access.Route {
	return uc.guard.Routes()
}

// UpdateRolePermissions reemplaza el set del rol. Las claves desconocidas se guardan
// igual y se reportan; se invalida la caché del rol y la memoria del menú.
func (uc *SessionUseCase) UpdateRolePermissions(ctx context.Context, actor permission.Actor, roleID string, in map[string]bool) (*dto.RolePermissionsResponse, error) {
	if actor.Cannot(permission.ManageRoles) {
		return nil, fmt.Errorf("%w: se requiere %s", domain.ErrUnauthorized, permission.ManageRoles)
	}
	role, err := uc.roles.GetByID(ctx, actor.CompanyID, roleID)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, fmt.Errorf("%w: rol %s", domain.ErrNotFound, roleID)
	}

	set := make(permission.Set, len(in))
	var unknown []string
	for k, granted := range in {
		key := permission.Key(k)
		set[key] = granted
		if !permission.Known(key) {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)

	if err := uc.roles.ReplacePermissions(ctx, role.ID, set); err != nil {
		return nil, err
	}
	if uc.cache != nil {
		if err := uc.cache.Invalidate(ctx, actor.CompanyID, role.Name); err != nil {
			uc.log.Error().Err(err).Str("role", role.Name).Msg("no se pudo invalidar la caché de permisos")
		}
	}
	uc.menu.Reset()
	uc.log.Info().Str("role", role.Name).Str("by", actor.UserID).Int("keys", len(set)).Msg("permisos de rol actualizados")

	out := make(map[string]bool, len(set))
	for k, v := range set {
		out[string(k)] = v
	}
	return &dto.RolePermissionsResponse{RoleID: role.ID, Permissions: out, UnknownKeys: unknown}, nil
}
