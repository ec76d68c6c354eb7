package realtime_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iptegra/nexus-api/internal/application/dto"
	"github.com/iptegra/nexus-api/internal/infrastructure/realtime"
	"github.com/iptegra/nexus-api/pkg/jwt"
)

const secret = "test-secret"

func newGateway(t *testing.T) (*realtime.Hub, *httptest.Server) {
	t.Helper()
	hub := realtime.NewHub()
	srv := httptest.NewServer(realtime.NewServer(hub, secret, nil, zerolog.Nop()).Router())
	t.Cleanup(srv.Close)
	return hub, srv
}

func wsURL(srv *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
}

func TestServer_Health(t *testing.T) {
	_, srv := newGateway(t)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_SinTokenEs401(t *testing.T) {
	_, srv := newGateway(t)
	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp2, err := http.Get(srv.URL + "/ws?token=basura")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
}

func TestServer_ReenviaEventosDeSuCompany(t *testing.T) {
	hub, srv := newGateway(t)
	token, err := jwt.Generate(secret, "u1", "c1", "BACKEND", "test", 5)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, wsURL(srv, token), nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	require.Eventually(t, func() bool { return hub.Connections("c1") == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Broadcast(dto.RealtimeEvent{Type: dto.EventRequestUpdated, CompanyID: "c2", EntityID: "otra"})
	hub.Broadcast(dto.RealtimeEvent{Type: dto.EventRequestUpdated, CompanyID: "c1", EntityID: "r1"})

	var got dto.RealtimeEvent
	require.NoError(t, wsjson.Read(ctx, conn, &got))
	assert.Equal(t, "r1", got.EntityID, "el evento de c2 no se reenvía")
	assert.Equal(t, dto.EventRequestUpdated, got.Type)
}
