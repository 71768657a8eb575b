package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ValuationRequest filtros de GET /api/reports/valuation.
type ValuationRequest struct {
	CategoryID       string `query:"category_id"`
	IncludeZeroStock bool   `query:"include_zero_stock"`
}

// ValuationTotalsDTO totales de valorización (cantidad × costo unitario).
type ValuationTotalsDTO struct {
	Items    int             `json:"items"`
	Quantity int64           `json:"quantity"`
	Value    decimal.Decimal `json:"value"`
}

// CategoryValuationDTO totales de una categoría.
type CategoryValuationDTO struct {
	CategoryID string `json:"category_id"`
	ValuationTotalsDTO
}

// ValuationReportDTO salida del reporte de valorización.
type ValuationReportDTO struct {
	CategoryID       string                 `json:"category_id,omitempty"`
	IncludeZeroStock bool                   `json:"include_zero_stock"`
	Items            []ItemResponse         `json:"items"`
	Totals           ValuationTotalsDTO     `json:"totals"`
	ByCategory       []CategoryValuationDTO `json:"by_category"`
}

// MovementReportRequest filtros de GET /api/reports/movements. Fechas YYYY-MM-DD, ambas inclusivas.
type MovementReportRequest struct {
	From       time.Time
	To         time.Time
	Type       string
	CategoryID string
}

// MovementGroupDTO agregado de un grupo de movimientos.
type MovementGroupDTO struct {
	Key           string          `json:"key"`
	Count         int             `json:"count"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalCost     decimal.Decimal `json:"total_cost"`
}

// MovementTotalsDTO totales de costo por tipo; Net = In - Out - Use.
type MovementTotalsDTO struct {
	Count int             `json:"count"`
	In    decimal.Decimal `json:"in"`
	Out   decimal.Decimal `json:"out"`
	Use   decimal.Decimal `json:"use"`
	Net   decimal.Decimal `json:"net"`
}

// MovementReportDTO salida del reporte de movimientos.
type MovementReportDTO struct {
	From       time.Time          `json:"from"`
	To         time.Time          `json:"to"`
	Type       string             `json:"type,omitempty"`
	CategoryID string             `json:"category_id,omitempty"`
	Totals     MovementTotalsDTO  `json:"totals"`
	ByType     []MovementGroupDTO `json:"by_type"`
	ByCategory []MovementGroupDTO `json:"by_category"`
	ByItem     []MovementGroupDTO `json:"by_item"`
	ByDate     []MovementGroupDTO `json:"by_date"`
}
