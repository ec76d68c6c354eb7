package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iptegra/nexus-api/internal/application/apptest"
	"github.com/iptegra/nexus-api/internal/application/usecase"
	"github.com/iptegra/nexus-api/internal/domain"
	"github.com/iptegra/nexus-api/internal/domain/entity"
	"github.com/iptegra/nexus-api/internal/domain/permission"
)

func teamStore() *apptest.Store {
	store := apptest.NewStore()
	store.AddUser(&entity.User{ID: "u2", CompanyID: "c1", Name: "Bea", Role: "FRONTEND", Status: entity.UserStatusActive})
	store.AddUser(&entity.User{ID: "u1", CompanyID: "c1", Name: "Ana", Role: "BACKEND", Status: entity.UserStatusActive})
	store.AddUser(&entity.User{ID: "u3", CompanyID: "c1", Name: "Carlos", Role: "BACKEND", Status: entity.UserStatusInactive})
	store.AddUser(&entity.User{ID: "x1", CompanyID: "c2", Name: "Otra", Role: "CEO", Status: entity.UserStatusActive})
	return store
}

func TestListTeam_SoloActivosDeLaCompany(t *testing.T) {
	uc := usecase.NewUserUseCase(teamStore().Users())

	out, err := uc.ListTeam(context.Background(), apptest.Actor("c1", "u9", permission.RoleProjectManager, permission.AssignRequest))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "Ana", out[0].Name)
	assert.Equal(t, "Bea", out[1].Name)
}

func TestListTeam_RequierePermiso(t *testing.T) {
	uc := usecase.NewUserUseCase(teamStore().Users())

	_, err := uc.ListTeam(context.Background(), apptest.Actor("c1", "u1", permission.RoleBackend, permission.TrackTime))
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
}

func TestGetUser_OtraCompanyNoExiste(t *testing.T) {
	uc := usecase.NewUserUseCase(teamStore().Users())
	actor := apptest.Actor("c1", "u1", permission.RoleBackend)

	_, err := uc.GetByID(context.Background(), actor, "x1")
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	out, err := uc.GetByID(context.Background(), actor, "u2")
	require.NoError(t, err)
	assert.Equal(t, "Bea", out.Name)
}
