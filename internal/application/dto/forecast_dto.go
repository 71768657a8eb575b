package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLevelOverrides sobrescribe por llamada los parámetros configurados de reposición.
type StockLevelOverrides struct {
	ServiceLevelFactor *float64 `query:"service_level"`
	LeadTimePeriods    *float64 `query:"lead_time"`
	OrderingCost       *float64 `query:"ordering_cost"`
	HoldingCost        *float64 `query:"holding_cost"`
	WindowPeriods      *int     `query:"window"`
}

// DemandPointDTO demanda de un período.
type DemandPointDTO struct {
	PeriodStart time.Time `json:"period_start"`
	Quantity    int64     `json:"quantity"`
}

// StockLevelsDTO salida de GET /api/items/:id/stock-levels.
type StockLevelsDTO struct {
	ItemID                string  `json:"item_id"`
	AveragePeriodDemand   float64 `json:"average_period_demand"`
	DemandStdDev          float64 `json:"demand_std_dev"`
	AnnualDemand          float64 `json:"annual_demand"`
	SafetyStock           float64 `json:"safety_stock"`
	ReorderPoint          float64 `json:"reorder_point"`
	EconomicOrderQuantity float64 `json:"economic_order_quantity"`
}

// ForecastDTO salida de GET /api/items/:id/forecast.
type ForecastDTO struct {
	ItemID      string           `json:"item_id"`
	AsOf        time.Time        `json:"as_of"`
	Period      string           `json:"period"`
	Demand      []DemandPointDTO `json:"demand"`
	Trend       string           `json:"trend"`
	Forecast    []float64        `json:"forecast"`
	StockLevels StockLevelsDTO   `json:"stock_levels"`
}

// TrendDTO salida de GET /api/items/:id/trend.
type TrendDTO struct {
	ItemID string           `json:"item_id"`
	Trend  string           `json:"trend"`
	Demand []DemandPointDTO `json:"demand"`
}

// ReorderCandidateDTO ítem en o bajo su punto de reorden calculado.
type ReorderCandidateDTO struct {
	ItemID             string          `json:"item_id"`
	Name               string          `json:"name"`
	PartNumber         string          `json:"part_number,omitempty"`
	CurrentStock       int64           `json:"current_stock"`
	ReorderPoint       float64         `json:"reorder_point"`
	SafetyStock        float64         `json:"safety_stock"`
	Deficit            float64         `json:"deficit"`             // ReorderPoint - CurrentStock
	SuggestedOrderQty  int64           `json:"suggested_order_qty"` // max(EOQ, reorder_quantity), redondeado hacia arriba
	UnitCost           decimal.Decimal `json:"unit_cost"`
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"`
	Trend              string          `json:"trend"`
	Priority           int             `json:"priority"` // 1 = más urgente
}

// ReorderReportDTO lista de reposición con su fecha de corte.
type ReorderReportDTO struct {
	GeneratedAt time.Time             `json:"generated_at"`
	Period      string                `json:"period"`
	Candidates  []ReorderCandidateDTO `json:"candidates"`
	TotalCost   decimal.Decimal       `json:"total_cost"`
}
