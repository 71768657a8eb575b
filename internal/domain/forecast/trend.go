package forecast

import "github.com/jhoicas/stock-ledger/internal/domain/entity"

// Trend compara la media del tercio más reciente contra la del tercio más antiguo.
// Los períodos en cero previos a la primera demanda no cuentan como historia.
// El tercio es ⌊n/3⌋ períodos con historia (mínimo 1). Con menos de 2 períodos la tendencia es estable.
// threshold es relativo (0.10 = 10%).
func Trend(series []float64, threshold float64) string {
	first := 0
	for first < len(series) && series[first] == 0 {
		first++
	}
	observed := series[first:]
	n := len(observed)
	if n < 2 {
		return entity.TrendStable
	}
	k := n / 3
	if k < 1 {
		k = 1
	}
	// observed[0] > 0, así que early > 0
	early := mean(observed[:k])
	recent := mean(observed[n-k:])

	change := (recent - early) / early
	switch {
	case change > threshold:
		return entity.TrendIncreasing
	case change < -threshold:
		return entity.TrendDecreasing
	default:
		return entity.TrendStable
	}
}

// MovingAverageForecast proyecta periodsAhead períodos con la media móvil simple de los
// últimos window valores. La proyección es plana. Sin historia devuelve ceros.
func MovingAverageForecast(series []float64, window, periodsAhead int) []float64 {
	if periodsAhead <= 0 {
		return []float64{}
	}
	if window < 1 {
		window = 1
	}
	tail := series
	if len(tail) > window {
		tail = tail[len(tail)-window:]
	}
	value := mean(tail)
	out := make([]float64, periodsAhead)
	for i := range out {
		out[i] = value
	}
	return out
}
