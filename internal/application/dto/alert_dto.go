package dto

import (
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ResolveAlertRequest body para POST /api/alerts/:id/resolve.
type ResolveAlertRequest struct {
	Note string `json:"note"`
}

// AlertResponse salida de una alerta.
type AlertResponse struct {
	ID             string     `json:"id"`
	ItemID         string     `json:"item_id"`
	Type           string     `json:"type"`
	Status         string     `json:"status"`
	Message        string     `json:"message"`
	QuantityAtOpen int64      `json:"quantity_at_open"`
	CreatedAt      time.Time  `json:"created_at"`
	ResolutionNote string     `json:"resolution_note,omitempty"`
	ResolvedBy     string     `json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

// StockStatusResponse estado de stock de un ítem (GET /api/items/:id/status).
type StockStatusResponse struct {
	ItemID           string  `json:"item_id"`
	Quantity         int64   `json:"quantity"`
	ReorderThreshold int64   `json:"reorder_threshold"`
	Status           string  `json:"status"`
	Percentage       float64 `json:"percentage"` // [0, 1]
}

// AlertFromEntity convierte la entidad a su representación de salida.
func AlertFromEntity(a *entity.Alert) AlertResponse {
	return AlertResponse{
		ID:             a.ID,
		ItemID:         a.ItemID,
		Type:           a.Type,
		Status:         a.Status,
		Message:        a.Message,
		QuantityAtOpen: a.QuantityAtOpen,
		CreatedAt:      a.CreatedAt,
		ResolutionNote: a.ResolutionNote,
		ResolvedBy:     a.ResolvedBy,
		ResolvedAt:     a.ResolvedAt,
	}
}
