package ports

import (
	"context"
	"time"
)

// Nombres de eventos de alertas (routing keys).
const (
	EventAlertOpened   = "alert.opened"
	EventAlertResolved = "alert.resolved"
)

// AlertEvent notificación de cambio de estado de una alerta.
type AlertEvent struct {
	Name       string    `json:"event"`
	AlertID    string    `json:"alert_id"`
	ItemID     string    `json:"item_id"`
	AlertType  string    `json:"alert_type"`
	Quantity   int64     `json:"quantity"`
	Note       string    `json:"note,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher puerto de salida para eventos de alertas (RabbitMQ en producción).
type EventPublisher interface {
	Publish(ctx context.Context, event AlertEvent) error
}

// NoopPublisher descarta los eventos.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, AlertEvent) error { return nil }
