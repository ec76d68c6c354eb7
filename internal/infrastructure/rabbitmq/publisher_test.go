package rabbitmq_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iptegra/nexus-api/internal/application/dto"
	"github.com/iptegra/nexus-api/internal/infrastructure/rabbitmq"
)

func TestEncodeDecode_ConservaCamposDeEnrutado(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	body, err := rabbitmq.Encode(dto.RealtimeEvent{
		Type: dto.EventRequestUpdated, CompanyID: "c1", EntityID: "r1", ActorID: "u1", OccurredAt: at,
	})
	require.NoError(t, err)
	assert.Contains(t, string(body), `"type":"request:updated"`)

	ev, err := rabbitmq.Decode(body)
	require.NoError(t, err)
	assert.Equal(t, "c1", ev.CompanyID)
	assert.Equal(t, "r1", ev.EntityID)
	assert.True(t, at.Equal(ev.OccurredAt))
}

func TestDecode_RechazaEventosIncompletos(t *testing.T) {
	_, err := rabbitmq.Decode([]byte(`{"type":"request:created"}`))
	assert.Error(t, err, "sin company_id no se puede enrutar")

	_, err = rabbitmq.Decode([]byte(`no-json`))
	assert.Error(t, err)
}
