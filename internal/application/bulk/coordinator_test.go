package bulk_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iptegra/nexus-api/internal/application/apptest"
	"github.com/iptegra/nexus-api/internal/application/bulk"
	"github.com/iptegra/nexus-api/internal/application/clients"
	"github.com/iptegra/nexus-api/internal/application/dto"
	"github.com/iptegra/nexus-api/internal/application/requests"
	"github.com/iptegra/nexus-api/internal/domain"
	"github.com/iptegra/nexus-api/internal/domain/entity"
	"github.com/iptegra/nexus-api/internal/domain/permission"
	"github.com/iptegra/nexus-api/internal/infrastructure/export"
	"github.com/iptegra/nexus-api/pkg/clock"
)

type fixture struct {
	store *apptest.Store
	tx    *apptest.TxRunner
	pub   *apptest.RecordingPublisher
	coord *bulk.Coordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := apptest.NewStore()
	store.AddUser(&entity.User{ID: "u1", CompanyID: "c1", Status: entity.UserStatusActive})
	store.AddUser(&entity.User{ID: "u2", CompanyID: "c1", Status: entity.UserStatusActive})
	store.PutClient(&entity.Client{ID: "cl1", CompanyID: "c1", Name: "Acme", Tier: entity.TierSMB, Status: entity.ClientActive, OwnerID: "u1"})
	store.PutClient(&entity.Client{ID: "cl2", CompanyID: "c1", Name: "Globex", Tier: entity.TierSMB, Status: entity.ClientActive, OwnerID: "u1"})
	for _, id := range []string{"r1", "r2", "r3"} {
		store.PutRequest(&entity.Request{
			ID: id, CompanyID: "c1", RequestNumber: "REQ-" + id, Title: "Solicitud " + id,
			Type: entity.RequestTypeBug, Status: entity.StatusInProgress, Priority: entity.PriorityMedium,
			ClientID: "cl1", CreatedBy: "u1",
		})
	}

	tx := apptest.NewTxRunner(store)
	pub := &apptest.RecordingPublisher{}
	clk := clock.NewManual(time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC))
	repos := store.Repos()
	lc := requests.NewLifecycleUseCase(requests.Deps{
		Tx:          tx,
		Requests:    repos.Requests,
		Activities:  repos.Activities,
		TimeEntries: repos.TimeEntries,
		Users:       store.Users(),
		Events:      pub,
		Clock:       clk,
		Log:         zerolog.Nop(),
	})
	cl := clients.NewClientUseCase(tx, repos.Clients, pub, clk, zerolog.Nop())
	exp, err := export.NewCSVExporter("utf-8")
	require.NoError(t, err)
	return &fixture{store: store, tx: tx, pub: pub, coord: bulk.NewCoordinator(tx, lc, cl, exp, zerolog.Nop())}
}

// ─── Todo o nada ──────────────────────────────────────────────────────────────

func TestBulkStatus_ConfirmaYLimpiaSeleccion(t *testing.T) {
	f := newFixture(t)
	sel := entity.NewSelectionSet("r1", "r2", "r3")
	cmd := bulk.NewCommand(bulk.TargetRequests, bulk.ActionStatus, sel, string(entity.StatusDone))
	actor := apptest.Actor("c1", "u9", permission.RoleProjectManager, permission.ChangeRequestStatus, permission.ViewAllRequests)

	require.NoError(t, f.coord.ApplyBulkAction(context.Background(), actor, cmd))

	assert.Equal(t, bulk.StateConfirmed, cmd.State)
	assert.Equal(t, []string{"r1", "r2", "r3"}, cmd.Affected)
	assert.Equal(t, 0, sel.Len(), "la selección se vacía al confirmar")
	for _, id := range []string{"r1", "r2", "r3"} {
		assert.Equal(t, entity.StatusDone, f.store.Request(id).Status)
		assert.Len(t, f.store.ActivitiesOf(id), 1)
	}
	assert.Len(t, f.pub.Events(), 3)
	assert.Equal(t, 1, f.tx.Commits)
}

func TestBulkStatus_SinPermisoNoMutaNada(t *testing.T) {
	f := newFixture(t)
	sel := entity.NewSelectionSet("r1", "r2", "r3")
	cmd := bulk.NewCommand(bulk.TargetRequests, bulk.ActionStatus, sel, string(entity.StatusDone))
	actor := apptest.Actor("c1", "u1", permission.RoleBackend, permission.TrackTime)

	err := f.coord.ApplyBulkAction(context.Background(), actor, cmd)
	require.Error(t, err)
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))

	assert.Equal(t, bulk.StateFailed, cmd.State)
	assert.Equal(t, 3, sel.Len(), "la selección se conserva para revisar o cancelar")
	for _, id := range []string{"r1", "r2", "r3"} {
		assert.Equal(t, entity.StatusInProgress, f.store.Request(id).Status, "ninguna solicitud cambia")
		assert.Empty(t, f.store.ActivitiesOf(id))
	}
	assert.Empty(t, f.pub.Events())
	assert.Equal(t, 0, f.tx.Commits+f.tx.Rollbacks, "no se abre transacción")
}

func TestBulkStatus_FalloParcialRevierteTodo(t *testing.T) {
	f := newFixture(t)
	f.store.FailOn("requests.update", "r3", errors.New("disco lleno"))
	sel := entity.NewSelectionSet("r1", "r2", "r3")
	cmd := bulk.NewCommand(bulk.TargetRequests, bulk.ActionStatus, sel, string(entity.StatusReview))

	err := f.coord.ApplyBulkAction(context.Background(), apptest.Actor("c1", "u9", permission.RoleCEO), cmd)
	require.Error(t, err)

	var bulkErr *domain.BulkError
	require.ErrorAs(t, err, &bulkErr)
	assert.Equal(t, []string{"r3"}, bulkErr.FailedIDs)
	assert.ErrorIs(t, err, domain.ErrBulkFailed)

	for _, id := range []string{"r1", "r2", "r3"} {
		assert.Equal(t, entity.StatusInProgress, f.store.Request(id).Status, "r1 y r2 se revierten")
		assert.Empty(t, f.store.ActivitiesOf(id))
	}
	assert.Equal(t, 1, f.tx.Rollbacks)
	assert.Equal(t, 3, sel.Len())
	assert.Empty(t, f.pub.Events())
}

func TestBulkDelete_ConAsignadosListaFallidos(t *testing.T) {
	f := newFixture(t)
	r2 := f.store.Request("r2")
	r2.AssignedUsers = []string{"u2"}
	f.store.PutRequest(r2)
	sel := entity.NewSelectionSet("r1", "r2")
	cmd := bulk.NewCommand(bulk.TargetRequests, bulk.ActionDelete, sel, "")

	err := f.coord.ApplyBulkAction(context.Background(), apptest.Actor("c1", "u9", permission.RoleCEO), cmd)
	require.Error(t, err)
	assert.Equal(t, domain.KindPreconditionFailed, domain.KindOf(err))

	var bulkErr *domain.BulkError
	require.ErrorAs(t, err, &bulkErr)
	assert.Equal(t, []string{"r2"}, bulkErr.FailedIDs)
	assert.NotNil(t, f.store.Request("r1"), "r1 no se borra si r2 falla")
}

// ─── Acciones ─────────────────────────────────────────────────────────────────

func TestBulkAssign_EsAditivo(t *testing.T) {
	f := newFixture(t)
	r1 := f.store.Request("r1")
	r1.AssignedUsers = []string{"u1"}
	f.store.PutRequest(r1)
	cmd := bulk.NewCommand(bulk.TargetRequests, bulk.ActionAssign, entity.NewSelectionSet("r1", "r2"), "u2")

	require.NoError(t, f.coord.ApplyBulkAction(context.Background(), apptest.Actor("c1", "u9", permission.RoleProjectManager, permission.AssignRequest, permission.ViewAllRequests), cmd))

	assert.Equal(t, []string{"u1", "u2"}, f.store.Request("r1").AssignedUsers)
	assert.Equal(t, []string{"u2"}, f.store.Request("r2").AssignedUsers)
}

func TestBulkAssign_MiembroInexistente(t *testing.T) {
	f := newFixture(t)
	cmd := bulk.NewCommand(bulk.TargetRequests, bulk.ActionAssign, entity.NewSelectionSet("r1"), "fantasma")

	err := f.coord.ApplyBulkAction(context.Background(), apptest.Actor("c1", "u9", permission.RoleCEO), cmd)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.Empty(t, f.store.Request("r1").AssignedUsers)
}

func TestBulkPriority_ValorInvalido(t *testing.T) {
	f := newFixture(t)
	cmd := bulk.NewCommand(bulk.TargetRequests, bulk.ActionPriority, entity.NewSelectionSet("r1"), "URGENTE")
	err := f.coord.ApplyBulkAction(context.Background(), apptest.Actor("c1", "u9", permission.RoleCEO), cmd)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestBulk_SeleccionVaciaYAccionNoSoportada(t *testing.T) {
	f := newFixture(t)
	ceo := apptest.Actor("c1", "u9", permission.RoleCEO)

	err := f.coord.ApplyBulkAction(context.Background(), ceo, bulk.NewCommand(bulk.TargetRequests, bulk.ActionDelete, entity.NewSelectionSet(), ""))
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	err = f.coord.ApplyBulkAction(context.Background(), ceo, bulk.NewCommand(bulk.TargetClients, bulk.ActionStatus, entity.NewSelectionSet("cl1"), "DONE"))
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestBulk_ComandoResueltoNoSeReaplica(t *testing.T) {
	f := newFixture(t)
	ceo := apptest.Actor("c1", "u9", permission.RoleCEO)
	cmd := bulk.NewCommand(bulk.TargetRequests, bulk.ActionPriority, entity.NewSelectionSet("r1"), "HIGH")
	require.NoError(t, f.coord.ApplyBulkAction(context.Background(), ceo, cmd))

	err := f.coord.ApplyBulkAction(context.Background(), ceo, cmd)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.Equal(t, bulk.StateConfirmed, cmd.State)
}

func TestBulkExport_Solicitudes(t *testing.T) {
	f := newFixture(t)
	cmd := bulk.NewCommand(bulk.TargetRequests, bulk.ActionExport, entity.NewSelectionSet("r2", "r1"), "")

	require.NoError(t, f.coord.ApplyBulkAction(context.Background(), apptest.Actor("c1", "u9", permission.RoleCEO), cmd))

	assert.Equal(t, "text/csv; charset=utf-8", cmd.ContentType)
	lines := strings.Split(strings.TrimSpace(string(cmd.Export)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "REQ-r1;"))
	assert.True(t, strings.HasPrefix(lines[2], "REQ-r2;"))
	assert.Empty(t, f.pub.Events(), "exportar no publica eventos")
}

func TestBulkExport_SoloVisibles(t *testing.T) {
	f := newFixture(t)
	cmd := bulk.NewCommand(bulk.TargetRequests, bulk.ActionExport, entity.NewSelectionSet("r1"), "")
	actor := apptest.Actor("c1", "u2", permission.RoleBackend, permission.ExportRequests)

	err := f.coord.ApplyBulkAction(context.Background(), actor, cmd)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err), "u2 no creó ni tiene asignada r1")
	assert.Nil(t, cmd.Export)
}

func TestBulkMutaciones_SoloVisibles(t *testing.T) {
	f := newFixture(t)
	r2 := f.store.Request("r2")
	r2.AssignedUsers = []string{"u2"}
	f.store.PutRequest(r2)
	actor := apptest.Actor("c1", "u2", permission.RoleBackend,
		permission.ChangeRequestStatus, permission.ChangeRequestPriority, permission.AssignRequest)

	for _, tc := range []struct {
		action bulk.Action
		value  string
	}{
		{bulk.ActionStatus, string(entity.StatusDone)},
		{bulk.ActionPriority, string(entity.PriorityHigh)},
		{bulk.ActionAssign, "u2"},
	} {
		cmd := bulk.NewCommand(bulk.TargetRequests, tc.action, entity.NewSelectionSet("r1", "r2"), tc.value)
		err := f.coord.ApplyBulkAction(context.Background(), actor, cmd)
		require.Error(t, err, string(tc.action))
		assert.Equal(t, domain.KindNotFound, domain.KindOf(err), string(tc.action))

		var bulkErr *domain.BulkError
		require.ErrorAs(t, err, &bulkErr)
		assert.Equal(t, []string{"r1"}, bulkErr.FailedIDs, "u2 solo ve r2")
	}
	assert.Equal(t, entity.StatusInProgress, f.store.Request("r2").Status, "r2 se revierte con el resto")
	assert.Empty(t, f.store.Request("r1").AssignedUsers)
	assert.Empty(t, f.pub.Events())
}

func TestBulkClients_DeleteYExport(t *testing.T) {
	f := newFixture(t)
	ceo := apptest.Actor("c1", "u9", permission.RoleCEO)

	cmd := bulk.NewCommand(bulk.TargetClients, bulk.ActionDelete, entity.NewSelectionSet("cl1", "cl2"), "")
	err := f.coord.ApplyBulkAction(context.Background(), ceo, cmd)
	assert.Equal(t, domain.KindPreconditionFailed, domain.KindOf(err), "cl1 tiene solicitudes")

	exp := bulk.NewCommand(bulk.TargetClients, bulk.ActionExport, entity.NewSelectionSet("cl1", "cl2"), "")
	require.NoError(t, f.coord.ApplyBulkAction(context.Background(), ceo, exp))
	assert.Contains(t, string(exp.Export), "Globex;SMB;ACTIVE")

	del := bulk.NewCommand(bulk.TargetClients, bulk.ActionDelete, entity.NewSelectionSet("cl2"), "")
	require.NoError(t, f.coord.ApplyBulkAction(context.Background(), ceo, del))
	assert.Equal(t, []string{dto.EventClientDeleted}, f.pub.Types())
}
