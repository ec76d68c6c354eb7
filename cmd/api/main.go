package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/swaggo/swag"

	"github.com/iptegra/nexus-api/docs"
	"github.com/iptegra/nexus-api/internal/application/auth"
	"github.com/iptegra/nexus-api/internal/application/bulk"
	"github.com/iptegra/nexus-api/internal/application/clients"
	"github.com/iptegra/nexus-api/internal/application/ports"
	"github.com/iptegra/nexus-api/internal/application/requests"
	"github.com/iptegra/nexus-api/internal/application/session"
	"github.com/iptegra/nexus-api/internal/application/usecase"
	"github.com/iptegra/nexus-api/internal/domain/lifecycle"
	infraai "github.com/iptegra/nexus-api/internal/infrastructure/ai"
	"github.com/iptegra/nexus-api/internal/infrastructure/export"
	"github.com/iptegra/nexus-api/internal/infrastructure/menu"
	"github.com/iptegra/nexus-api/internal/infrastructure/postgres"
	"github.com/iptegra/nexus-api/internal/infrastructure/rabbitmq"
	infraredis "github.com/iptegra/nexus-api/internal/infrastructure/redis"
	httpRouter "github.com/iptegra/nexus-api/internal/interfaces/http"
	"github.com/iptegra/nexus-api/pkg/clock"
	"github.com/iptegra/nexus-api/pkg/config"
	"github.com/iptegra/nexus-api/pkg/logger"
)

// @title           IPTEGRA Nexus API
// @version         1.0
// @description     Solicitudes, tiempo, clientes y permisos por rol.
// @BasePath        /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @description                 Bearer <token>
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
		App:   cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("db", postgres.RedactDSN(cfg.DB.ConnectionString())).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("esquema de base de datos")
	}

	// Caché de permisos: si Redis no responde se sigue sin caché.
	redisClient := infraredis.NewClient(cfg.Redis)
	defer redisClient.Close()
	var permCache ports.PermissionCache = infraredis.NewPermissionCache(redisClient, time.Duration(cfg.Redis.PermissionTTLSec)*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr()).Msg("Redis no disponible: permisos sin caché")
		permCache = nil
	}

	// Bus de eventos: sin broker la API funciona, solo sin tiempo real.
	var events ports.EventPublisher = ports.NopPublisher{}
	if publisher, err := rabbitmq.Dial(cfg.RabbitMQ); err != nil {
		log.Warn().Err(err).Msg("RabbitMQ no disponible: eventos en tiempo real desactivados")
	} else {
		defer publisher.Close()
		events = publisher
	}

	nav, err := menu.Default()
	if err != nil {
		log.Fatal().Err(err).Msg("definición de navegación")
	}

	var policy lifecycle.TransitionPolicy = lifecycle.Permissive()
	if cfg.Workflow.StrictTransitions {
		policy = lifecycle.DefaultWorkflow()
	}

	exporter, err := export.NewCSVExporter(cfg.Export.Encoding)
	if err != nil {
		log.Fatal().Err(err).Msg("exportador CSV")
	}
	llm, err := infraai.NewLLMService(cfg.AI.Provider, cfg.AI.AnthropicAPIKey, cfg.AI.AnthropicModel, cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel)
	if err != nil {
		log.Fatal().Err(err).Msg("proveedor de IA")
	}

	clk := clock.Real()
	txRunner := postgres.NewTxRunner(pool)
	userRepo := postgres.NewUserRepository(pool)
	requestRepo := postgres.NewRequestRepository(pool)
	deps := requests.Deps{
		Tx:          txRunner,
		Requests:    requestRepo,
		Activities:  postgres.NewActivityRepository(pool),
		TimeEntries: postgres.NewTimeEntryRepository(pool),
		Users:       userRepo,
		Events:      events,
		Clock:       clk,
		Policy:      policy,
		Log:         log.Component("requests"),
	}
	lifecycleUC := requests.NewLifecycleUseCase(deps)
	timeUC := requests.NewTimeTrackingUseCase(deps)
	clientUC := clients.NewClientUseCase(txRunner, postgres.NewClientRepository(pool), events, clk, log.Component("clients"))
	sessionUC := session.NewSessionUseCase(postgres.NewRoleRepository(pool), permCache, nav.Guard(), nav.MenuFilter(), log.Component("session"))
	bulkCoord := bulk.NewCoordinator(txRunner, lifecycleUC, clientUC, exporter, log.Component("bulk"))
	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	aiUC := usecase.NewAIUseCase(llm, requestRepo, clk)

	validator, err := httpRouter.NewValidator()
	if err != nil {
		log.Fatal().Err(err).Msg("validador")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30, // exportaciones CSV grandes
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler(log.Component("http")),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(httpRouter.AccessLog(log.Component("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat("./docs/swagger.json"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    docs.SwaggerInfo.Title,
		}))
	}
	app.Get("/openapi.json", func(c *fiber.Ctx) error {
		doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
		return c.SendString(doc)
	})

	health := map[string]httpRouter.Pinger{"postgres": pool.Ping}
	if permCache != nil {
		health["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:      authUC,
		SessionUC:   sessionUC,
		LifecycleUC: lifecycleUC,
		TimeUC:      timeUC,
		ClientUC:    clientUC,
		Bulk:        bulkCoord,
		AIUC:        aiUC,
		UserUC:      usecase.NewUserUseCase(userRepo),
		Validator:   validator,
		JWTSecret:   cfg.JWT.Secret,
		Health:      health,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
