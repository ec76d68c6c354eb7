package usecase

import (
	"context"
	"fmt"

	"github.com/iptegra/nexus-api/internal/application/auth"
	"github.com/iptegra/nexus-api/internal/application/dto"
	"github.com/iptegra/nexus-api/internal/domain"
	"github.com/iptegra/nexus-api/internal/domain/permission"
	"github.com/iptegra/nexus-api/internal/domain/repository"
)

// UserUseCase directorio del equipo (selector de asignados).
type UserUseCase struct {
	repo repository.UserRepository
}

// NewUserUseCase construye el caso de uso con el puerto de persistencia.
func NewUserUseCase(repo repository.UserRepository) *UserUseCase {
	return &UserUseCase{repo: repo}
}

// ListTeam usuarios activos de la company del actor. Lo necesita quien asigna o ve el trabajo del equipo.
func (uc *UserUseCase) ListTeam(ctx context.Context, actor permission.Actor) ([]dto.UserResponse, error) {
	if !actor.CanAny(permission.AssignRequest, permission.ViewTeamRequest, permission.ViewAllRequests, permission.ManageRoles) {
		return nil, fmt.Errorf("%w: se requiere %s o %s", domain.ErrUnauthorized, permission.AssignRequest, permission.ViewTeamRequest)
	}
	users, err := uc.repo.ListActive(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, *auth.ToUserResponse(u))
	}
	return out, nil
}

// GetByID obtiene un usuario de la company del actor.
func (uc *UserUseCase) GetByID(ctx context.Context, actor permission.Actor, id string) (*dto.UserResponse, error) {
	user, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil || user.CompanyID != actor.CompanyID {
		return nil, fmt.Errorf("%w: usuario %s", domain.ErrUserNotFound, id)
	}
	return auth.ToUserResponse(user), nil
}
