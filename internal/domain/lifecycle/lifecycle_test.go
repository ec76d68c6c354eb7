package lifecycle_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iptegra/nexus-api/internal/domain"
	"github.com/iptegra/nexus-api/internal/domain/entity"
	"github.com/iptegra/nexus-api/internal/domain/lifecycle"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// ──────────────────────────────────────────────────────────────────────────────
// Estados y prioridad
// ──────────────────────────────────────────────────────────────────────────────

func TestPlanStatusChange_MismoEstadoEsNoOp(t *testing.T) {
	for _, s := range entity.RequestStatuses {
		c, err := lifecycle.PlanStatusChange(lifecycle.Permissive(), s, s)
		require.NoError(t, err)
		assert.True(t, c.NoOp, "mover %s a %s no debe generar cambio", s, s)

		c, err = lifecycle.PlanStatusChange(lifecycle.DefaultWorkflow(), s, s)
		require.NoError(t, err)
		assert.True(t, c.NoOp, "el no-op también aplica con la tabla estricta")
	}
}

func TestPlanStatusChange_PermisivoCualquierDireccion(t *testing.T) {
	c, err := lifecycle.PlanStatusChange(lifecycle.Permissive(), entity.StatusDone, entity.StatusIntake)
	require.NoError(t, err)
	assert.False(t, c.NoOp)
	assert.Contains(t, c.Description, "DONE")
	assert.Contains(t, c.Description, "INTAKE")
}

func TestPlanStatusChange_TablaEstricta(t *testing.T) {
	wf := lifecycle.DefaultWorkflow()

	_, err := lifecycle.PlanStatusChange(wf, entity.StatusBacklog, entity.StatusInProgress)
	assert.NoError(t, err)

	_, err = lifecycle.PlanStatusChange(wf, entity.StatusIntake, entity.StatusDone)
	assert.True(t, errors.Is(err, domain.ErrPreconditionFailed), "INTAKE→DONE no está en la tabla")
	assert.Equal(t, domain.KindPreconditionFailed, domain.KindOf(err))
}

func TestPlanStatusChange_EstadoInvalido(t *testing.T) {
	_, err := lifecycle.PlanStatusChange(nil, entity.StatusBacklog, entity.RequestStatus("ARCHIVED"))
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestPlanPriorityChange(t *testing.T) {
	c, err := lifecycle.PlanPriorityChange(entity.PriorityMedium, entity.PriorityMedium)
	require.NoError(t, err)
	assert.True(t, c.NoOp)

	c, err = lifecycle.PlanPriorityChange(entity.PriorityMedium, entity.PriorityCritical)
	require.NoError(t, err)
	assert.False(t, c.NoOp)

	_, err = lifecycle.PlanPriorityChange(entity.PriorityMedium, "URGENT")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestCheckDeletable_ConAsignados(t *testing.T) {
	r := &entity.Request{RequestNumber: "REQ-000001", AssignedUsers: []string{"u1"}}
	err := lifecycle.CheckDeletable(r)
	require.Error(t, err)
	assert.Equal(t, domain.KindPreconditionFailed, domain.KindOf(err))
	assert.Contains(t, err.Error(), "desasígnalos", "el mensaje debe indicar cómo corregir")

	r.AssignedUsers = nil
	assert.NoError(t, lifecycle.CheckDeletable(r))
}

// ──────────────────────────────────────────────────────────────────────────────
// Asignación
// ──────────────────────────────────────────────────────────────────────────────

func TestDiffAssignees(t *testing.T) {
	d := lifecycle.DiffAssignees([]string{"u1", "u2"}, []string{"u2", "u3", "u3", " "})
	assert.Equal(t, []string{"u3"}, d.Added)
	assert.Equal(t, []string{"u1"}, d.Removed)
	assert.Equal(t, "Asignados: u3. Desasignados: u1", d.Describe())

	same := lifecycle.DiffAssignees([]string{"u2", "u1"}, []string{"u1", "u2"})
	assert.True(t, same.Empty())
}

// ──────────────────────────────────────────────────────────────────────────────
// Seguimiento de tiempo
// ──────────────────────────────────────────────────────────────────────────────

func TestTimer_AcumulaSoloTramosActivos(t *testing.T) {
	e := lifecycle.NewEntry("te1", "c1", "r1", "u1", "inicio", t0)

	require.NoError(t, lifecycle.Pause(e, t0.Add(30*time.Minute), ""))
	assert.True(t, decimal.NewFromFloat(0.5).Equal(e.Duration), "0.5h tras 30 minutos")
	assert.Equal(t, entity.TimeEntryPaused, e.Status)

	// diez minutos en pausa no cuentan
	require.NoError(t, lifecycle.Resume(e, t0.Add(40*time.Minute)))
	final, err := lifecycle.Complete(e, t0.Add(60*time.Minute), "listo")
	require.NoError(t, err)

	assert.Equal(t, "0.8333", final.String())
	assert.Equal(t, entity.TimeEntryCompleted, e.Status)
	require.NotNil(t, e.EndedAt)
	assert.Equal(t, t0.Add(60*time.Minute), *e.EndedAt)
	assert.Equal(t, "listo", e.Description)
}

func TestTimer_CompleteDesdePausaNoSumaTiempoPausado(t *testing.T) {
	e := lifecycle.NewEntry("te1", "c1", "r1", "u1", "", t0)
	require.NoError(t, lifecycle.Pause(e, t0.Add(15*time.Minute), ""))
	final, err := lifecycle.Complete(e, t0.Add(3*time.Hour), "")
	require.NoError(t, err)
	assert.Equal(t, "0.25", final.String())
}

func TestTimer_TransicionesInvalidas(t *testing.T) {
	e := lifecycle.NewEntry("te1", "c1", "r1", "u1", "", t0)

	assert.Equal(t, domain.KindPreconditionFailed, domain.KindOf(lifecycle.Resume(e, t0)), "no se reanuda un ACTIVE")
	require.NoError(t, lifecycle.Pause(e, t0.Add(time.Minute), ""))
	assert.Equal(t, domain.KindPreconditionFailed, domain.KindOf(lifecycle.Pause(e, t0.Add(2*time.Minute), "")))

	_, err := lifecycle.Complete(e, t0.Add(3*time.Minute), "")
	require.NoError(t, err)
	_, err = lifecycle.Complete(e, t0.Add(4*time.Minute), "")
	assert.Equal(t, domain.KindPreconditionFailed, domain.KindOf(err), "COMPLETED es terminal")
	assert.Equal(t, domain.KindPreconditionFailed, domain.KindOf(lifecycle.Resume(e, t0)))
}

func TestCheckCanStart(t *testing.T) {
	assert.NoError(t, lifecycle.CheckCanStart(nil))

	open := lifecycle.NewEntry("te1", "c1", "r1", "u1", "", t0)
	assert.Equal(t, domain.KindPreconditionFailed, domain.KindOf(lifecycle.CheckCanStart(open)))

	require.NoError(t, lifecycle.Pause(open, t0.Add(time.Minute), ""))
	assert.Equal(t, domain.KindPreconditionFailed, domain.KindOf(lifecycle.CheckCanStart(open)), "PAUSED también bloquea")

	_, err := lifecycle.Complete(open, t0.Add(2*time.Minute), "")
	require.NoError(t, err)
	assert.NoError(t, lifecycle.CheckCanStart(open))
}

func TestCheckEntryDeletable(t *testing.T) {
	e := lifecycle.NewEntry("te1", "c1", "r1", "u1", "", t0)
	assert.Equal(t, domain.KindPreconditionFailed, domain.KindOf(lifecycle.CheckEntryDeletable(e)))
	_, err := lifecycle.Complete(e, t0.Add(time.Hour), "")
	require.NoError(t, err)
	assert.NoError(t, lifecycle.CheckEntryDeletable(e))
}

func TestElapsed_SoloActivo(t *testing.T) {
	e := lifecycle.NewEntry("te1", "c1", "r1", "u1", "", t0)
	assert.Equal(t, 5*time.Minute, lifecycle.Elapsed(e, t0.Add(5*time.Minute)))
	assert.Equal(t, time.Duration(0), lifecycle.Elapsed(e, t0.Add(-time.Minute)), "reloj desfasado no da negativo")

	require.NoError(t, lifecycle.Pause(e, t0.Add(6*time.Minute), ""))
	assert.Equal(t, time.Duration(0), lifecycle.Elapsed(e, t0.Add(time.Hour)))
	assert.Equal(t, "0.1", lifecycle.LiveHours(e, t0.Add(time.Hour)).String())
	assert.True(t, e.Duration.Equal(decimal.RequireFromString("0.1")), "Elapsed no modifica la entrada")
}

func TestHoursOf(t *testing.T) {
	assert.Equal(t, "1", lifecycle.HoursOf(time.Hour).String())
	assert.Equal(t, "0.3333", lifecycle.HoursOf(20*time.Minute).String())
	assert.True(t, lifecycle.HoursOf(-time.Hour).IsZero())
}
