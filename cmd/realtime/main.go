// realtime es el gateway WebSocket: consume los eventos de dominio de RabbitMQ y los
// reenvía a los clientes conectados de la misma company.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/iptegra/nexus-api/internal/application/dto"
	"github.com/iptegra/nexus-api/internal/infrastructure/rabbitmq"
	"github.com/iptegra/nexus-api/internal/infrastructure/realtime"
	"github.com/iptegra/nexus-api/pkg/config"
	"github.com/iptegra/nexus-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
		App:   cfg.App.Name + "-realtime",
	})

	consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQ, log.Component("rabbitmq"))
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a RabbitMQ")
	}
	defer consumer.Close()

	hub := realtime.NewHub()
	server := realtime.NewServer(hub, cfg.JWT.Secret, cfg.Realtime.AllowedOrigins, log.Component("realtime"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		err := consumer.Run(ctx, func(ev dto.RealtimeEvent) {
			n := hub.Broadcast(ev)
			log.Debug().Str("type", ev.Type).Str("company_id", ev.CompanyID).Int("delivered", n).Msg("evento reenviado")
		})
		if err != nil {
			log.Error().Err(err).Msg("consumidor detenido")
			stop()
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Realtime.Addr(),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("gateway WebSocket escuchando")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("servidor WebSocket finalizado")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Uint64("dropped", hub.Dropped()).Msg("cerrando gateway...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del gateway")
	}
}
