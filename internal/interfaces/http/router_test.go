package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iptegra/nexus-api/internal/application/apptest"
	"github.com/iptegra/nexus-api/internal/application/auth"
	"github.com/iptegra/nexus-api/internal/application/bulk"
	"github.com/iptegra/nexus-api/internal/application/clients"
	"github.com/iptegra/nexus-api/internal/application/dto"
	"github.com/iptegra/nexus-api/internal/application/requests"
	"github.com/iptegra/nexus-api/internal/application/session"
	"github.com/iptegra/nexus-api/internal/application/usecase"
	"github.com/iptegra/nexus-api/internal/domain/access"
	"github.com/iptegra/nexus-api/internal/domain/entity"
	"github.com/iptegra/nexus-api/internal/domain/lifecycle"
	"github.com/iptegra/nexus-api/internal/domain/permission"
	"github.com/iptegra/nexus-api/internal/infrastructure/export"
	"github.com/iptegra/nexus-api/internal/infrastructure/menu"
	apphttp "github.com/iptegra/nexus-api/internal/interfaces/http"
	"github.com/iptegra/nexus-api/pkg/clock"
)

// ─── Aplicación completa sobre el store en memoria ───────────────────────────

func newAPI(t *testing.T) (*fiber.App, *apptest.Store) {
	t.Helper()
	store := apptest.NewStore()
	store.AddRole(&entity.Role{ID: "role-be", CompanyID: testCompanyID, Name: "BACKEND"},
		permission.SetOf(permission.TrackTime))
	store.AddRole(&entity.Role{ID: "role-pm", CompanyID: testCompanyID, Name: "PROJECT_MANAGER"},
		permission.SetOf(permission.CreateRequest, permission.ViewAllRequests))
	hash, err := bcrypt.GenerateFromPassword([]byte("secreta123"), bcrypt.MinCost)
	require.NoError(t, err)
	store.AddUser(&entity.User{
		ID: testUserID, CompanyID: testCompanyID, Email: "dev@iptegra.test", PasswordHash: string(hash),
		Name: "Dev", Role: "BACKEND", Status: entity.UserStatusActive,
	})
	store.PutClient(&entity.Client{ID: "cl1", CompanyID: testCompanyID, Name: "Acme", Tier: entity.TierSMB, Status: entity.ClientActive, OwnerID: testUserID})

	def, err := menu.Default()
	require.NoError(t, err)
	log := zerolog.Nop()
	tx := apptest.NewTxRunner(store)
	repos := store.Repos()
	deps := requests.Deps{
		Tx: tx, Requests: repos.Requests, Activities: repos.Activities, TimeEntries: repos.TimeEntries,
		Users: store.Users(), Events: &apptest.RecordingPublisher{}, Clock: clock.Real(),
		Policy: lifecycle.Permissive(), Log: log,
	}
	lc := requests.NewLifecycleUseCase(deps)
	cl := clients.NewClientUseCase(tx, repos.Clients, nil, clock.Real(), log)
	exporter, err := export.NewCSVExporter("utf-8")
	require.NoError(t, err)
	v, err := apphttp.NewValidator()
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler(log)})
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC:      auth.NewAuthUseCase(store.Users(), auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer}),
		SessionUC:   session.NewSessionUseCase(store.Roles(), apptest.NewMemoryPermissionCache(), def.Guard(), def.MenuFilter(), log),
		LifecycleUC: lc,
		TimeUC:      requests.NewTimeTrackingUseCase(deps),
		ClientUC:    cl,
		Bulk:        bulk.NewCoordinator(tx, lc, cl, exporter, log),
		AIUC:        usecase.NewAIUseCase(nil, repos.Requests, clock.Real()),
		UserUC:      usecase.NewUserUseCase(store.Users()),
		Validator:   v,
		JWTSecret:   testJWTSecret,
		Health:      map[string]apphttp.Pinger{},
	})
	return app, store
}

func call(t *testing.T, app *fiber.App, method, path, auth string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// ─── Sesión ───────────────────────────────────────────────────────────────────

func TestAPI_LoginYMe(t *testing.T) {
	app, _ := newAPI(t)

	resp := call(t, app, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "DEV@iptegra.test", Password: "secreta123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decode[dto.LoginResponse](t, resp)
	require.NotEmpty(t, login.Token)

	resp = call(t, app, http.MethodGet, "/api/session/me", "Bearer "+login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[dto.MeResponse](t, resp)
	assert.Equal(t, "BACKEND", me.Role)
	assert.Equal(t, []string{"track_time"}, me.Permissions)
}

func TestAPI_LoginPasswordIncorrecta_Retorna401(t *testing.T) {
	app, _ := newAPI(t)

	resp := call(t, app, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "dev@iptegra.test", Password: "otra"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "unauthenticated", body.Kind)
}

func TestAPI_RouteCheck(t *testing.T) {
	app, _ := newAPI(t)

	resp := call(t, app, http.MethodPost, "/api/session/route-check", "", dto.RouteCheckRequest{Path: "/requests"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	d := decode[access.Decision](t, resp)
	assert.Equal(t, access.OutcomeRedirect, d.Outcome, "sin sesión")
	assert.Equal(t, "/sign-in", d.RedirectTo)

	resp = call(t, app, http.MethodPost, "/api/session/route-check", tokenForRole(t, "BACKEND"), dto.RouteCheckRequest{Path: "/executive"})
	d = decode[access.Decision](t, resp)
	assert.Equal(t, access.OutcomeRedirect, d.Outcome)
	assert.Equal(t, "/dashboard", d.RedirectTo)

	resp = call(t, app, http.MethodPost, "/api/session/route-check", tokenForRole(t, "CEO"), dto.RouteCheckRequest{Path: "/executive"})
	d = decode[access.Decision](t, resp)
	assert.Equal(t, access.OutcomeAllow, d.Outcome)
}

// ─── Solicitudes ──────────────────────────────────────────────────────────────

func TestAPI_CrearSolicitud(t *testing.T) {
	app, _ := newAPI(t)
	in := dto.CreateRequestRequest{Title: "Nueva troncal SIP", Type: "INFRASTRUCTURE", ClientID: "cl1"}

	resp := call(t, app, http.MethodPost, "/api/requests", tokenForRole(t, "BACKEND"), in)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "BACKEND no tiene create_request")

	resp = call(t, app, http.MethodPost, "/api/requests", tokenForRole(t, "PROJECT_MANAGER"), in)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.RequestResponse](t, resp)
	assert.Equal(t, "REQ-000001", created.RequestNumber)
	assert.Equal(t, "INTAKE", created.Status)

	resp = call(t, app, http.MethodGet, "/api/requests/board", tokenForRole(t, "PROJECT_MANAGER"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "board no debe confundirse con /:id")
	board := decode[dto.BoardResponse](t, resp)
	require.NotEmpty(t, board.Columns)
	assert.Equal(t, "INTAKE", board.Columns[0].Status)
	assert.Equal(t, 1, board.Columns[0].Count)
}

func TestAPI_ValidacionTraducida(t *testing.T) {
	app, _ := newAPI(t)

	resp := call(t, app, http.MethodPost, "/api/requests", tokenForRole(t, "PROJECT_MANAGER"),
		dto.CreateRequestRequest{Type: "BUG", ClientID: "cl1"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "VALIDATION", body.Code)
	assert.Contains(t, body.Message, "Title")
}

func TestAPI_SolicitudInexistente_Retorna404(t *testing.T) {
	app, _ := newAPI(t)

	resp := call(t, app, http.MethodGet, "/api/requests/no-existe", tokenForRole(t, "PROJECT_MANAGER"), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_RiesgoIARequierePermiso(t *testing.T) {
	app, _ := newAPI(t)

	resp := call(t, app, http.MethodPost, "/api/ai/requests/r1/risk", tokenForRole(t, "BACKEND"), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPI_SinToken_Retorna401(t *testing.T) {
	app, _ := newAPI(t)

	resp := call(t, app, http.MethodGet, "/api/requests", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_Health(t *testing.T) {
	app, _ := newAPI(t)

	resp := call(t, app, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
