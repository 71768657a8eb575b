package forecast

import (
	"math"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// StockParams parámetros de configuración para los niveles óptimos.
type StockParams struct {
	ServiceLevelFactor float64 // z, p. ej. 1.65 para ~95%
	LeadTimePeriods    float64
	OrderingCost       float64 // costo por pedido
	HoldingCost        float64 // costo de mantener una unidad por año
	PeriodsPerYear     float64
}

// OptimalStockLevels calcula stock de seguridad, punto de reorden y EOQ.
//
//	safety = z * σ * √L          (0 con menos de 2 puntos)
//	ROP    = μ * L + safety
//	EOQ    = √(2 * D * S / H)     (0 si D, S o H son cero)
//
// μ y σ (desviación muestral, n-1) se calculan sobre ActiveSpan(series).
func OptimalStockLevels(series []float64, p StockParams) entity.StockLevels {
	span := ActiveSpan(series)
	if len(span) == 0 {
		return entity.StockLevels{}
	}
	lead := p.LeadTimePeriods
	if lead < 0 {
		lead = 0
	}

	mu := mean(span)
	var sigma, safety float64
	if len(span) >= 2 {
		sigma = sampleStdDev(span, mu)
		safety = p.ServiceLevelFactor * sigma * math.Sqrt(lead)
	}
	annual := mu * p.PeriodsPerYear

	return entity.StockLevels{
		AveragePeriodDemand:   mu,
		DemandStdDev:          sigma,
		AnnualDemand:          annual,
		SafetyStock:           safety,
		ReorderPoint:          mu*lead + safety,
		EconomicOrderQuantity: EOQ(annual, p.OrderingCost, p.HoldingCost),
	}
}

// EOQ cantidad económica de pedido. Nunca divide por cero: entradas nulas o inválidas dan 0.
func EOQ(annualDemand, orderingCost, holdingCost float64) float64 {
	if annualDemand <= 0 || orderingCost <= 0 || holdingCost <= 0 {
		return 0
	}
	q := math.Sqrt(2 * annualDemand * orderingCost / holdingCost)
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return 0
	}
	return q
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func sampleStdDev(xs []float64, mu float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var ss float64
	for _, x := range xs {
		d := x - mu
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
