package forecast

import (
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// AggregateDemand agrupa la demanda saliente (out + use) en los últimos n períodos hasta asOf.
// Devuelve exactamente n puntos ordenados, con cero en los períodos sin salidas.
// Entradas, devoluciones, cargas iniciales y ajustes no cuentan como demanda.
func AggregateDemand(movements []*entity.Movement, asOf time.Time, period string, n int) []entity.DemandPoint {
	if n < 1 {
		n = 1
	}
	from, to := Window(asOf, period, n)

	points := make([]entity.DemandPoint, n)
	index := make(map[int64]int, n)
	for i := 0; i < n; i++ {
		start := AddPeriods(from, period, i)
		points[i].PeriodStart = start
		index[start.Unix()] = i
	}

	for _, m := range movements {
		if m == nil || !m.IsDemand() {
			continue
		}
		d := m.TransactionDate.UTC()
		if d.Before(from) || !d.Before(to) {
			continue
		}
		if i, ok := index[PeriodStart(d, period).Unix()]; ok {
			points[i].Quantity += m.Quantity
		}
	}
	return points
}

// Quantities extrae la serie numérica de una agregación de demanda.
func Quantities(points []entity.DemandPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = float64(p.Quantity)
	}
	return out
}

// ActiveSpan recorta los períodos en cero al inicio y al final de la serie.
// Los huecos internos se conservan: son demanda nula observada, no ausencia de historia.
func ActiveSpan(series []float64) []float64 {
	start, end := 0, len(series)
	for start < end && series[start] == 0 {
		start++
	}
	for end > start && series[end-1] == 0 {
		end--
	}
	return series[start:end]
}
