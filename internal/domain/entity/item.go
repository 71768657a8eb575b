package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de stock derivados de la cantidad y el umbral de reorden.
const (
	StockStatusOutOfStock = "out_of_stock"
	StockStatusLowStock   = "low_stock"
	StockStatusInStock    = "in_stock"
)

// InventoryItem representa un ítem del catálogo de inventario.
// QuantityInStock es derivado: solo el ledger lo escribe (suma firmada de los movimientos).
type InventoryItem struct {
	ID               string
	Name             string
	PartNumber       string // opcional, único si REGISTRY_UNIQUE_PART_NUMBER
	CategoryID       string
	SupplierID       string // opcional
	Description      string
	UnitCost         decimal.Decimal
	SellingPrice     *decimal.Decimal
	QuantityInStock  int64
	ReorderThreshold int64
	ReorderQuantity  int64
	Location         string
	Notes            string
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// StockStatus clasifica la cantidad actual frente al umbral de reorden.
func (i *InventoryItem) StockStatus() string {
	switch {
	case i.QuantityInStock <= 0:
		return StockStatusOutOfStock
	case i.QuantityInStock <= i.ReorderThreshold:
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}

// StockValue valor del stock al costo unitario vigente.
func (i *InventoryItem) StockValue() decimal.Decimal {
	return i.UnitCost.Mul(decimal.NewFromInt(i.QuantityInStock))
}
