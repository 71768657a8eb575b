package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jhoicas/stock-ledger/internal/application/ports"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

var _ ports.EventPublisher = (*Publisher)(nil)

// channel subconjunto de *amqp.Channel que usa el publicador.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher publica eventos de alertas en un exchange topic; el nombre del evento es la routing key.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       channel
	exchange string
	log      *logger.Logger
}

// Dial conecta al broker con reintentos y declara el exchange (topic, durable).
func Dial(cfg config.RabbitMQConfig, log *logger.Logger) (*Publisher, error) {
	if cfg.Exchange == "" {
		return nil, fmt.Errorf("el nombre del exchange no puede estar vacío")
	}
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("rabbitmq")

	var (
		conn *amqp.Connection
		err  error
	)
	for i := 0; i < 5; i++ {
		conn, err = amqp.Dial(cfg.URL)
		if err == nil {
			break
		}
		wait := time.Duration(i*i)*time.Second + time.Second
		log.Warn().Err(err).Dur("retry_in", wait).Msg("no se pudo conectar a RabbitMQ")
		time.Sleep(wait)
	}
	if err != nil {
		return nil, fmt.Errorf("conectar a RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("abrir canal: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declarar exchange %s: %w", cfg.Exchange, err)
	}
	log.Info().Str("exchange", cfg.Exchange).Msg("exchange de alertas listo")

	p := newPublisher(ch, cfg.Exchange, log)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, exchange string, log *logger.Logger) *Publisher {
	if log == nil {
		log = logger.Nop()
	}
	return &Publisher{ch: ch, exchange: exchange, log: log}
}

// Publish envía el evento como JSON persistente.
func (p *Publisher) Publish(ctx context.Context, event ports.AlertEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("codificar evento: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx, p.exchange, event.Name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		MessageId:    event.AlertID,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publicar %s en %s: %w", event.Name, p.exchange, err)
	}
	p.log.Debug().Str("event", event.Name).Str("alert_id", event.AlertID).Msg("evento publicado")
	return nil
}

// Close cierra canal y conexión.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		if err := p.ch.Close(); err != nil {
			return err
		}
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
