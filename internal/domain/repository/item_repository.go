package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ItemFilter filtros para listar ítems.
type ItemFilter struct {
	CategoryID  string
	Active      *bool
	StockStatus string // out_of_stock | low_stock | in_stock
	Search      string // nombre o número de parte
	Limit       int
	Offset      int
}

// ItemRepository define el puerto de persistencia para InventoryItem (DIP).
// GetByID y similares devuelven (nil, nil) cuando no existe.
type ItemRepository interface {
	Create(ctx context.Context, item *entity.InventoryItem) error
	GetByID(ctx context.Context, id string) (*entity.InventoryItem, error)
	// GetForUpdate bloquea la fila del ítem hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.InventoryItem, error)
	GetByName(ctx context.Context, name string) (*entity.InventoryItem, error)
	GetByPartNumber(ctx context.Context, partNumber string) (*entity.InventoryItem, error)
	// LockKey toma un candado sobre una clave lógica (p. ej. un nombre) hasta el fin de la transacción.
	// Fuera de una transacción no retiene nada.
	LockKey(ctx context.Context, key string) error
	// Update modifica solo atributos maestros; nunca la cantidad.
	Update(ctx context.Context, item *entity.InventoryItem) error
	// UpdateStock es de uso exclusivo del ledger.
	UpdateStock(ctx context.Context, id string, quantity int64, unitCost decimal.Decimal) error
	SetActive(ctx context.Context, id string, active bool) error
	List(ctx context.Context, filter ItemFilter) ([]*entity.InventoryItem, error)
	Delete(ctx context.Context, id string) error
}
