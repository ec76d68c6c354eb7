package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/iptegra/nexus-api/internal/application/auth"
	"github.com/iptegra/nexus-api/internal/application/bulk"
	"github.com/iptegra/nexus-api/internal/application/clients"
	"github.com/iptegra/nexus-api/internal/application/requests"
	"github.com/iptegra/nexus-api/internal/application/session"
	"github.com/iptegra/nexus-api/internal/application/usecase"
	"github.com/iptegra/nexus-api/internal/domain/permission"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	SessionUC   *session.SessionUseCase
	LifecycleUC *requests.LifecycleUseCase
	TimeUC      *requests.TimeTrackingUseCase
	ClientUC    *clients.ClientUseCase
	Bulk        *bulk.Coordinator
	AIUC        *usecase.AIUseCase
	UserUC      *usecase.UserUseCase
	Validator   *Validator
	JWTSecret   string
	Health      map[string]Pinger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Público
	api.Get("/health", Health(deps.Health))
	authHandler := NewAuthHandler(deps.AuthUC, deps.Validator)
	api.Post("/auth/login", authHandler.Login)

	sessionHandler := NewSessionHandler(deps.SessionUC, deps.Validator)
	// El guard responde también a visitantes sin sesión (redirect a sign-in).
	api.Post("/session/route-check", OptionalAuth(deps.JWTSecret), sessionHandler.RouteCheck)

	// Rutas protegidas: JWT + set de permisos del rol
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret), LoadActor(deps.SessionUC))

	protected.Get("/session/me", sessionHandler.Me)
	protected.Get("/session/navigation", sessionHandler.Navigation)
	protected.Put("/roles/:id/permissions", RequirePermission(permission.ManageRoles), sessionHandler.UpdateRolePermissions)

	// Solicitudes
	requestHandler := NewRequestHandler(deps.LifecycleUC, deps.Validator)
	timeHandler := NewTimeHandler(deps.TimeUC, deps.Validator)
	reqs := protected.Group("/requests")
	reqs.Post("/", requestHandler.Create)
	reqs.Get("/", requestHandler.List)
	reqs.Get("/board", requestHandler.Board)
	reqs.Get("/:id", requestHandler.Get)
	reqs.Delete("/:id", requestHandler.Delete)
	reqs.Get("/:id/activities", requestHandler.Activities)
	reqs.Patch("/:id/status", requestHandler.ChangeStatus)
	reqs.Patch("/:id/priority", requestHandler.ChangePriority)
	reqs.Patch("/:id/estimate", requestHandler.UpdateEstimate)
	reqs.Put("/:id/assignees", requestHandler.AssignUsers)

	// Tiempo
	reqs.Post("/:id/time/start", timeHandler.Start)
	reqs.Post("/:id/time/pause", timeHandler.Pause)
	reqs.Post("/:id/time/resume", timeHandler.Resume)
	reqs.Post("/:id/time/complete", timeHandler.Complete)
	reqs.Get("/:id/time/current", timeHandler.Current)
	reqs.Get("/:id/time-entries", timeHandler.ListEntries)
	protected.Delete("/time-entries/:id", timeHandler.Delete)

	// Clientes
	clientHandler := NewClientHandler(deps.ClientUC, deps.Validator)
	cl := protected.Group("/clients")
	cl.Post("/", clientHandler.Create)
	cl.Get("/", clientHandler.List)
	cl.Get("/:id", clientHandler.Get)
	cl.Put("/:id", clientHandler.Update)
	cl.Delete("/:id", clientHandler.Delete)

	// Acciones masivas
	bulkHandler := NewBulkHandler(deps.Bulk, deps.Validator)
	protected.Post("/bulk/requests", bulkHandler.Requests)
	protected.Post("/bulk/clients", bulkHandler.Clients)

	// Equipo
	userHandler := NewUserHandler(deps.UserUC)
	protected.Get("/users", userHandler.List)
	protected.Get("/users/:id", userHandler.Get)

	// IA
	aiHandler := NewAIHandler(deps.AIUC)
	protected.Post("/ai/requests/:id/risk", RequirePermission(permission.ViewAIInsights), aiHandler.RequestRisk)
}
