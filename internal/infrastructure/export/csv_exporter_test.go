package export_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iptegra/nexus-api/internal/domain/entity"
	"github.com/iptegra/nexus-api/internal/infrastructure/export"
)

func TestNewCSVExporter_Codificaciones(t *testing.T) {
	e, err := export.NewCSVExporter("")
	require.NoError(t, err)
	assert.Equal(t, "text/csv; charset=utf-8", e.ContentType())

	e, err = export.NewCSVExporter("Windows-1252")
	require.NoError(t, err)
	assert.Equal(t, "text/csv; charset=windows-1252", e.ContentType())

	_, err = export.NewCSVExporter("ebcdic")
	assert.Error(t, err)
}

func TestExportRequests_UTF8(t *testing.T) {
	e, err := export.NewCSVExporter("utf-8")
	require.NoError(t, err)
	var buf bytes.Buffer
	err = e.ExportRequests(&buf, []*entity.Request{{
		RequestNumber:  "REQ-000001",
		Title:          "Migración; fase 1",
		Type:           entity.RequestTypeBug,
		Status:         entity.StatusDone,
		Priority:       entity.PriorityHigh,
		ClientID:       "cl1",
		AssignedUsers:  []string{"u1", "u2"},
		EstimatedHours: decimal.RequireFromString("8"),
		ActualHours:    decimal.RequireFromString("0.8333"),
		CreatedAt:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}})
	require.NoError(t, err)

	want := "numero;titulo;tipo;estado;prioridad;cliente;asignados;horas_estimadas;horas_reales;creada\n" +
		"REQ-000001;\"Migración; fase 1\";BUG;DONE;HIGH;cl1;u1 u2;8;0.8333;2026-03-01\n"
	assert.Equal(t, want, buf.String())
}

func TestExportClients_Windows1252(t *testing.T) {
	e, err := export.NewCSVExporter("windows-1252")
	require.NoError(t, err)
	var buf bytes.Buffer
	err = e.ExportClients(&buf, []*entity.Client{{
		Name:      "Compañía",
		Tier:      entity.TierSMB,
		Status:    entity.ClientActive,
		OwnerID:   "u1",
		CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}})
	require.NoError(t, err)

	out := buf.Bytes()
	assert.Contains(t, string(out), "Compa\xf1\xeda;SMB;ACTIVE;;;u1;2026-03-01", "ñ e í deben quedar en un byte")
	assert.NotContains(t, string(out), "ñ", "no debe quedar UTF-8")
}
