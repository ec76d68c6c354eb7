package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/iptegra/nexus-api/internal/application/dto"
	"github.com/iptegra/nexus-api/pkg/config"
)

// Consumer recibe todos los eventos del exchange en una cola exclusiva de esta instancia.
type Consumer struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	msgs <-chan amqp.Delivery
	log  zerolog.Logger
}

// NewConsumer declara el exchange, una cola exclusiva con auto-delete y la vincula.
func NewConsumer(cfg config.RabbitMQConfig, log zerolog.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("conectar a RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("abrir canal: %w", err)
	}
	fail := func(err error) (*Consumer, error) {
		_ = conn.Close()
		return nil, err
	}
	if err := declareExchange(ch, cfg.Exchange); err != nil {
		return fail(err)
	}
	q, err := ch.QueueDeclare(
		"",    // nombre generado por el broker
		false, // durable
		true,  // auto-delete
		true,  // exclusiva
		false, // no-wait
		nil,
	)
	if err != nil {
		return fail(fmt.Errorf("declarar cola: %w", err))
	}
	if err := ch.QueueBind(q.Name, "", cfg.Exchange, false, nil); err != nil {
		return fail(fmt.Errorf("vincular cola: %w", err))
	}
	msgs, err := ch.Consume(
		q.Name,
		"",    // consumer tag asignado por el broker
		true,  // auto-ack: los eventos son pistas, perder uno no es grave
		true,  // exclusivo
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fail(fmt.Errorf("consumir cola: %w", err))
	}
	return &Consumer{conn: conn, ch: ch, msgs: msgs, log: log}, nil
}

// Run entrega cada evento decodificado a handle hasta que ctx termine o se cierre el canal.
func (c *Consumer) Run(ctx context.Context, handle func(dto.RealtimeEvent)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-c.msgs:
			if !ok {
				return fmt.Errorf("canal de RabbitMQ cerrado")
			}
			ev, err := Decode(d.Body)
			if err != nil {
				c.log.Warn().Err(err).Msg("evento descartado")
				continue
			}
			handle(ev)
		}
	}
}

// Close cierra canal y conexión.
func (c *Consumer) Close() error {
	_ = c.ch.Close()
	return c.conn.Close()
}
