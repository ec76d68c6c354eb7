package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iptegra/nexus-api/internal/application/apptest"
	"github.com/iptegra/nexus-api/internal/application/dto"
	"github.com/iptegra/nexus-api/internal/application/usecase"
	"github.com/iptegra/nexus-api/internal/domain"
	"github.com/iptegra/nexus-api/internal/domain/entity"
	"github.com/iptegra/nexus-api/internal/domain/permission"
	"github.com/iptegra/nexus-api/pkg/clock"
)

type fakeLLM struct {
	got dto.RequestRiskFacts
	err error
}

func (f *fakeLLM) AssessRequestRisk(ctx context.Context, facts dto.RequestRiskFacts) (*dto.RequestRiskDTO, error) {
	f.got = facts
	if _, ok := ctx.Deadline(); !ok {
		panic("se esperaba un contexto con timeout")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &dto.RequestRiskDTO{RiskLevel: "HIGH", Summary: "desvío", Recommendations: []string{}}, nil
}

func setup() (*usecase.AIUseCase, *fakeLLM) {
	store := apptest.NewStore()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.PutRequest(&entity.Request{
		ID: "r1", CompanyID: "c1", RequestNumber: "REQ-000042", Title: "Migrar PBX",
		Type: entity.RequestTypeInfrastructure, Status: entity.StatusInProgress, Priority: entity.PriorityCritical,
		EstimatedHours: decimal.RequireFromString("10"), ActualHours: decimal.RequireFromString("14.5"),
		AssignedUsers: []string{"u2"}, CreatedBy: "u9", CreatedAt: t0,
	})
	llm := &fakeLLM{}
	uc := usecase.NewAIUseCase(llm, store.Repos().Requests, clock.NewManual(t0.Add(10*24*time.Hour+time.Hour)))
	return uc, llm
}

func TestRequestRisk_EnviaDatosDeLaSolicitud(t *testing.T) {
	uc, llm := setup()
	out, err := uc.RequestRisk(context.Background(), apptest.Actor("c1", "u1", permission.RoleDevDirector, permission.ViewAIInsights, permission.ViewAllRequests), "r1")
	require.NoError(t, err)

	assert.Equal(t, "r1", out.RequestID)
	assert.Equal(t, "HIGH", out.RiskLevel)
	assert.Equal(t, "REQ-000042", llm.got.RequestNumber)
	assert.Equal(t, "14.5", llm.got.ActualHours)
	assert.Equal(t, 1, llm.got.AssignedCount)
	assert.Equal(t, 10, llm.got.AgeDays)
}

func TestRequestRisk_RequierePermiso(t *testing.T) {
	uc, _ := setup()
	_, err := uc.RequestRisk(context.Background(), apptest.Actor("c1", "u1", permission.RoleBackend), "r1")
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
}

func TestRequestRisk_NoVisible(t *testing.T) {
	uc, _ := setup()
	_, err := uc.RequestRisk(context.Background(), apptest.Actor("c1", "u1", permission.RoleBackend, permission.ViewAIInsights), "r1")
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err), "u1 no creó ni tiene asignada r1")

	out, err := uc.RequestRisk(context.Background(), apptest.Actor("c1", "u2", permission.RoleBackend, permission.ViewAIInsights), "r1")
	require.NoError(t, err, "u2 está asignado")
	assert.Equal(t, "r1", out.RequestID)
}
