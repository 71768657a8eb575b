package entity

import "time"

// Tendencias de demanda.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// DemandPoint demanda saliente (out + use) de un período.
type DemandPoint struct {
	PeriodStart time.Time
	Quantity    int64
}

// StockLevels parámetros de reposición derivados de la demanda.
type StockLevels struct {
	AveragePeriodDemand   float64
	DemandStdDev          float64
	AnnualDemand          float64
	SafetyStock           float64
	ReorderPoint          float64
	EconomicOrderQuantity float64
}

// ForecastResult proyección derivada (no persistida como fuente de verdad; puede cachearse).
type ForecastResult struct {
	ItemID      string
	AsOf        time.Time
	Period      string
	Demand      []DemandPoint
	Trend       string
	Forecast    []float64
	StockLevels StockLevels
}
