package ports

import (
	"context"

	"github.com/iptegra/nexus-api/internal/application/dto"
)

// EventPublisher publica eventos en tiempo real después de confirmar una mutación.
// Un fallo al publicar no revierte la mutación: el llamador solo lo registra.
type EventPublisher interface {
	Publish(ctx context.Context, ev dto.RealtimeEvent) error
}

// NopPublisher descarta los eventos (sin broker configurado).
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, dto.RealtimeEvent) error { return nil }
