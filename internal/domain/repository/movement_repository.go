package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// MovementFilter filtros del historial. To es inclusivo. ItemID vacío = todos los ítems.
type MovementFilter struct {
	ItemID     string
	Types      []string
	From       *time.Time
	To         *time.Time
	SupplierID string
}

// MovementCursor posición de keyset: (transaction_date, seq) del último movimiento leído.
type MovementCursor struct {
	Date time.Time
	Seq  int64
}

// MovementRepository puerto del log append-only. No hay Update ni Delete.
type MovementRepository interface {
	// Create asigna ID (si falta) y Seq, y persiste el movimiento.
	Create(ctx context.Context, movement *entity.Movement) error
	GetByID(ctx context.Context, id string) (*entity.Movement, error)
	CountByItem(ctx context.Context, itemID string) (int64, error)
	// LastSeq devuelve el Seq del último movimiento del ítem (0 si no tiene).
	LastSeq(ctx context.Context, itemID string) (int64, error)
	// List devuelve hasta limit movimientos ordenados por (transaction_date, seq), posteriores a after.
	List(ctx context.Context, filter MovementFilter, after *MovementCursor, limit int) ([]*entity.Movement, error)
}
