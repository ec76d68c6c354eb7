// Package rabbitmq transporta los eventos en tiempo real entre la API y el gateway WebSocket.
// Un exchange fanout: cada instancia del gateway recibe todos los eventos y filtra por company.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iptegra/nexus-api/internal/application/dto"
	"github.com/iptegra/nexus-api/internal/application/ports"
	"github.com/iptegra/nexus-api/internal/domain"
	"github.com/iptegra/nexus-api/pkg/config"
)

var _ ports.EventPublisher = (*Publisher)(nil)

// Publisher publica eventos JSON en el exchange.
type Publisher struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	ch       *amqp.Channel
	exchange string
	timeout  time.Duration
}

// Dial conecta, abre un canal y declara el exchange.
func Dial(cfg config.RabbitMQConfig) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("conectar a RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("abrir canal: %w", err)
	}
	if err := declareExchange(ch, cfg.Exchange); err != nil {
		_ = conn.Close()
		return nil, err
	}
	timeout := time.Duration(cfg.PublishTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Publisher{conn: conn, ch: ch, exchange: cfg.Exchange, timeout: timeout}, nil
}

func declareExchange(ch *amqp.Channel, name string) error {
	err := ch.ExchangeDeclare(
		name,
		amqp.ExchangeFanout,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declarar exchange %s: %w", name, err)
	}
	return nil
}

// Publish serializa el evento y lo publica con timeout.
func (p *Publisher) Publish(ctx context.Context, ev dto.RealtimeEvent) error {
	body, err := Encode(ev)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx,
		p.exchange,
		"",    // routing key (ignorada por fanout)
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Transient,
			Type:         ev.Type,
			Timestamp:    ev.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("%w: publicar %s: %v", domain.ErrTransientIO, ev.Type, err)
	}
	return nil
}

// Close cierra canal y conexión.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.ch.Close()
	return p.conn.Close()
}

// Encode formato de cable de un evento.
func Encode(ev dto.RealtimeEvent) ([]byte, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("serializar evento %s: %w", ev.Type, err)
	}
	return body, nil
}

// Decode inverso de Encode. Rechaza eventos sin tipo o sin company.
func Decode(body []byte) (dto.RealtimeEvent, error) {
	var ev dto.RealtimeEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, fmt.Errorf("evento inválido: %w", err)
	}
	if ev.Type == "" || ev.CompanyID == "" {
		return ev, fmt.Errorf("evento inválido: faltan type o company_id")
	}
	return ev, nil
}
