package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// AlertRepository puerto de persistencia de alertas.
type AlertRepository interface {
	// Create falla con domain.ErrDuplicate si ya hay una alerta activa del mismo tipo para el ítem.
	Create(ctx context.Context, alert *entity.Alert) error
	GetByID(ctx context.Context, id string) (*entity.Alert, error)
	GetActive(ctx context.Context, itemID, alertType string) (*entity.Alert, error)
	// ListActive lista alertas activas; itemID vacío = todas.
	ListActive(ctx context.Context, itemID string) ([]*entity.Alert, error)
	// MarkResolved persiste la resolución solo si la alerta sigue activa; si no, domain.ErrInvalidState.
	MarkResolved(ctx context.Context, alert *entity.Alert) error
}
