package clients_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iptegra/nexus-api/internal/application/apptest"
	"github.com/iptegra/nexus-api/internal/application/clients"
	"github.com/iptegra/nexus-api/internal/application/dto"
	"github.com/iptegra/nexus-api/internal/domain"
	"github.com/iptegra/nexus-api/internal/domain/entity"
	"github.com/iptegra/nexus-api/internal/domain/permission"
	"github.com/iptegra/nexus-api/pkg/clock"
)

func setup(t *testing.T) (*clients.ClientUseCase, *apptest.Store, *apptest.RecordingPublisher) {
	t.Helper()
	store := apptest.NewStore()
	store.PutClient(&entity.Client{ID: "cl1", CompanyID: "c1", Name: "Acme", Tier: entity.TierSMB, Status: entity.ClientActive, OwnerID: "u1"})
	store.PutClient(&entity.Client{ID: "cl2", CompanyID: "c1", Name: "Globex", Tier: entity.TierEnterprise, Status: entity.ClientActive, OwnerID: "u2"})
	pub := &apptest.RecordingPublisher{}
	uc := clients.NewClientUseCase(apptest.NewTxRunner(store), store.Repos().Clients, pub,
		clock.NewManual(time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)), zerolog.Nop())
	return uc, store, pub
}

func TestCreate_DuenoPorDefecto(t *testing.T) {
	uc, _, pub := setup(t)
	out, err := uc.Create(context.Background(), apptest.Actor("c1", "u3", permission.RoleComercial, permission.CreateClient),
		dto.CreateClientRequest{Name: "Initech", Tier: "CORPORATE"})
	require.NoError(t, err)
	assert.Equal(t, "u3", out.OwnerID)
	assert.Equal(t, "PROSPECT", out.Status)
	assert.Equal(t, []string{dto.EventClientCreated}, pub.Types())
}

func TestCreate_SinPermiso(t *testing.T) {
	uc, _, _ := setup(t)
	_, err := uc.Create(context.Background(), apptest.Actor("c1", "u3", permission.RoleBackend),
		dto.CreateClientRequest{Name: "Initech", Tier: "CORPORATE"})
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
}

func TestList_SoloPropiosSinViewAll(t *testing.T) {
	uc, _, _ := setup(t)
	ctx := context.Background()

	own, err := uc.List(ctx, apptest.Actor("c1", "u1", permission.RoleComercial, permission.ViewProductsClients), dto.ClientListQuery{})
	require.NoError(t, err)
	require.Len(t, own.Items, 1)
	assert.Equal(t, "cl1", own.Items[0].ID)

	all, err := uc.List(ctx, apptest.Actor("c1", "u1", permission.RoleComercial, permission.ViewProductsClients, permission.ViewAllClients), dto.ClientListQuery{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)

	_, err = uc.List(ctx, apptest.Actor("c1", "u1", permission.RoleBackend), dto.ClientListQuery{})
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
}

func TestUpdate_EditOwn(t *testing.T) {
	uc, store, _ := setup(t)
	ctx := context.Background()
	a := apptest.Actor("c1", "u1", permission.RoleComercial, permission.EditOwnClient)
	name := "Acme S.A.S."

	out, err := uc.Update(ctx, a, "cl1", dto.UpdateClientRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, out.Name)

	_, err = uc.Update(ctx, a, "cl2", dto.UpdateClientRequest{Name: &name})
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))

	c, err := store.Repos().Clients.GetByID(ctx, "c1", "cl2")
	require.NoError(t, err)
	assert.Equal(t, "Globex", c.Name)
}

func TestUpdate_EnTransaccion(t *testing.T) {
	store := apptest.NewStore()
	store.PutClient(&entity.Client{ID: "cl1", CompanyID: "c1", Name: "Acme", Tier: entity.TierSMB, Status: entity.ClientActive, OwnerID: "u1"})
	tx := apptest.NewTxRunner(store)
	pub := &apptest.RecordingPublisher{}
	uc := clients.NewClientUseCase(tx, store.Repos().Clients, pub, clock.NewManual(time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)), zerolog.Nop())
	ctx := context.Background()
	ceo := apptest.Actor("c1", "u9", permission.RoleCEO)

	tier := "GALAXY"
	_, err := uc.Update(ctx, ceo, "cl1", dto.UpdateClientRequest{Tier: &tier})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.Equal(t, 0, tx.Commits+tx.Rollbacks, "la entrada inválida no abre transacción")

	store.FailOn("clients.update", "cl1", errors.New("disco lleno"))
	name := "Acme Global"
	_, err = uc.Update(ctx, ceo, "cl1", dto.UpdateClientRequest{Name: &name})
	require.Error(t, err)
	assert.Equal(t, 1, tx.Rollbacks)
	assert.Empty(t, pub.Events(), "sin commit no hay evento")

	store.FailOn("clients.update", "cl1", nil)
	enterprise := "ENTERPRISE"
	out, err := uc.Update(ctx, ceo, "cl1", dto.UpdateClientRequest{Name: &name, Tier: &enterprise})
	require.NoError(t, err)
	assert.Equal(t, "Acme Global", out.Name)
	assert.Equal(t, "ENTERPRISE", out.Tier)
	assert.Equal(t, 1, tx.Commits)
	assert.Equal(t, []string{dto.EventClientUpdated}, pub.Types())
}

func TestDelete_ConSolicitudes(t *testing.T) {
	uc, store, _ := setup(t)
	ctx := context.Background()
	store.PutRequest(&entity.Request{ID: "r1", CompanyID: "c1", ClientID: "cl1"})
	a := apptest.Actor("c1", "u1", permission.RoleCEO)

	err := uc.Delete(ctx, a, "cl1")
	assert.Equal(t, domain.KindPreconditionFailed, domain.KindOf(err))

	require.NoError(t, uc.Delete(ctx, a, "cl2"))
	_, err = uc.Get(ctx, a, "cl2")
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}
