package realtime_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iptegra/nexus-api/internal/application/dto"
	"github.com/iptegra/nexus-api/internal/infrastructure/realtime"
)

func TestHub_SoloEntregaALaCompanyDelEvento(t *testing.T) {
	hub := realtime.NewHub()
	a := hub.Subscribe("c1", 4)
	b := hub.Subscribe("c2", 4)

	n := hub.Broadcast(dto.RealtimeEvent{Type: dto.EventRequestCreated, CompanyID: "c1", EntityID: "r1"})
	assert.Equal(t, 1, n)

	ev := <-a.C
	assert.Equal(t, "r1", ev.EntityID)
	assert.Empty(t, b.C, "c2 no debe recibir eventos de c1")
}

func TestHub_BufferLlenoNoBloquea(t *testing.T) {
	hub := realtime.NewHub()
	s := hub.Subscribe("c1", 1)

	assert.Equal(t, 1, hub.Broadcast(dto.RealtimeEvent{CompanyID: "c1", EntityID: "r1"}))
	assert.Equal(t, 0, hub.Broadcast(dto.RealtimeEvent{CompanyID: "c1", EntityID: "r2"}), "el segundo se descarta")
	assert.Equal(t, uint64(1), hub.Dropped())
	assert.Equal(t, "r1", (<-s.C).EntityID)
}

func TestHub_UnsubscribeCierraYEsIdempotente(t *testing.T) {
	hub := realtime.NewHub()
	s := hub.Subscribe("c1", 1)
	require.Equal(t, 1, hub.Connections("c1"))

	hub.Unsubscribe(s)
	hub.Unsubscribe(s)

	_, ok := <-s.C
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Connections("c1"))
}
