package dto

import (
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/items/:id/movements.
// Para "adjustment" Quantity lleva signo (delta != 0); para el resto debe ser > 0.
type RegisterMovementRequest struct {
	Type            string           `json:"type"`
	Quantity        int64            `json:"quantity"`
	UnitCost        *decimal.Decimal `json:"unit_cost,omitempty"`
	TransactionDate *time.Time       `json:"transaction_date,omitempty"`
	SupplierID      string           `json:"supplier_id,omitempty"`
	Notes           string           `json:"notes,omitempty"`
}

// MovementResponse salida de un movimiento.
type MovementResponse struct {
	ID              string          `json:"id"`
	Seq             int64           `json:"seq"`
	ItemID          string          `json:"item_id"`
	Type            string          `json:"type"`
	Quantity        int64           `json:"quantity"`
	Delta           int64           `json:"delta"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	TransactionDate time.Time       `json:"transaction_date"`
	SupplierID      string          `json:"supplier_id,omitempty"`
	CreatedBy       string          `json:"created_by"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// MovementListResponse historial de movimientos de un ítem.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Count int                `json:"count"`
}

// QuantityResponse cantidad actual de un ítem.
type QuantityResponse struct {
	ItemID   string `json:"item_id"`
	Quantity int64  `json:"quantity"`
}

// MovementFromEntity convierte la entidad a su representación de salida.
func MovementFromEntity(m *entity.Movement) MovementResponse {
	return MovementResponse{
		ID:              m.ID,
		Seq:             m.Seq,
		ItemID:          m.ItemID,
		Type:            m.Type,
		Quantity:        m.Quantity,
		Delta:           m.Delta(),
		UnitCost:        m.UnitCost,
		TotalCost:       m.TotalCost,
		TransactionDate: m.TransactionDate,
		SupplierID:      m.SupplierID,
		CreatedBy:       m.CreatedBy,
		Notes:           m.Notes,
		CreatedAt:       m.CreatedAt,
	}
}
