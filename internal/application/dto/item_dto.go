package dto

import (
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// CreateItemRequest entrada para dar de alta un ítem. InitialQuantity > 0 genera un movimiento "initial".
type CreateItemRequest struct {
	Name             string           `json:"name" validate:"required,min=1,max=200"`
	PartNumber       string           `json:"part_number,omitempty"`
	CategoryID       string           `json:"category_id" validate:"required"`
	SupplierID       string           `json:"supplier_id,omitempty"`
	Description      string           `json:"description"`
	UnitCost         decimal.Decimal  `json:"unit_cost"`
	SellingPrice     *decimal.Decimal `json:"selling_price,omitempty"`
	InitialQuantity  int64            `json:"initial_quantity"`
	ReorderThreshold int64            `json:"reorder_threshold"`
	ReorderQuantity  int64            `json:"reorder_quantity"`
	Location         string           `json:"location"`
	Notes            string           `json:"notes"`
}

// UpdateItemRequest atributos maestros editables. La cantidad no es editable: solo cambia vía movimientos.
type UpdateItemRequest struct {
	Name             *string          `json:"name"`
	PartNumber       *string          `json:"part_number"`
	CategoryID       *string          `json:"category_id"`
	SupplierID       *string          `json:"supplier_id"`
	Description      *string          `json:"description"`
	UnitCost         *decimal.Decimal `json:"unit_cost"`
	SellingPrice     *decimal.Decimal `json:"selling_price"`
	ReorderThreshold *int64           `json:"reorder_threshold"`
	ReorderQuantity  *int64           `json:"reorder_quantity"`
	Location         *string          `json:"location"`
	Notes            *string          `json:"notes"`
}

// ItemListRequest filtros de GET /api/items.
type ItemListRequest struct {
	CategoryID  string `query:"category_id"`
	Active      *bool  `query:"active"`
	StockStatus string `query:"stock_status"`
	Search      string `query:"search"`
	Limit       int    `query:"limit"`
	Offset      int    `query:"offset"`
}

// ItemResponse salida de un ítem.
type ItemResponse struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	PartNumber       string           `json:"part_number,omitempty"`
	CategoryID       string           `json:"category_id"`
	SupplierID       string           `json:"supplier_id,omitempty"`
	Description      string           `json:"description"`
	UnitCost         decimal.Decimal  `json:"unit_cost"`
	SellingPrice     *decimal.Decimal `json:"selling_price,omitempty"`
	QuantityInStock  int64            `json:"quantity_in_stock"`
	ReorderThreshold int64            `json:"reorder_threshold"`
	ReorderQuantity  int64            `json:"reorder_quantity"`
	StockStatus      string           `json:"stock_status"`
	StockValue       decimal.Decimal  `json:"stock_value"`
	Location         string           `json:"location"`
	Notes            string           `json:"notes"`
	IsActive         bool             `json:"is_active"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// ItemListResponse lista paginada de ítems.
type ItemListResponse struct {
	Items []ItemResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// ItemFromEntity convierte la entidad a su representación de salida.
func ItemFromEntity(i *entity.InventoryItem) ItemResponse {
	return ItemResponse{
		ID:               i.ID,
		Name:             i.Name,
		PartNumber:       i.PartNumber,
		CategoryID:       i.CategoryID,
		SupplierID:       i.SupplierID,
		Description:      i.Description,
		UnitCost:         i.UnitCost,
		SellingPrice:     i.SellingPrice,
		QuantityInStock:  i.QuantityInStock,
		ReorderThreshold: i.ReorderThreshold,
		ReorderQuantity:  i.ReorderQuantity,
		StockStatus:      i.StockStatus(),
		StockValue:       i.StockValue(),
		Location:         i.Location,
		Notes:            i.Notes,
		IsActive:         i.IsActive,
		CreatedAt:        i.CreatedAt,
		UpdatedAt:        i.UpdatedAt,
	}
}
