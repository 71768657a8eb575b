package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

func mov(typ string, qty int64, date time.Time) *entity.Movement {
	return &entity.Movement{Type: typ, Quantity: qty, Direction: entity.DirectionFor(typ), TransactionDate: date}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestPeriodStart(t *testing.T) {
	wed := day(2026, time.October, 14)
	assert.Equal(t, time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC), PeriodStart(wed, PeriodWeek))
	assert.Equal(t, time.Date(2026, time.October, 12, 0, 0, 0, 0, time.UTC), PeriodStart(day(2026, time.October, 18), PeriodWeek),
		"el domingo pertenece a la semana que empezó el lunes anterior")
	assert.Equal(t, time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC), PeriodStart(wed, PeriodMonth))
	assert.Equal(t, time.Date(2026, time.October, 14, 0, 0, 0, 0, time.UTC), PeriodStart(wed, PeriodDay))
}

func TestAggregateDemand_ZeroFillAndOnlyOutbound(t *testing.T) {
	asOf := day(2026, time.March, 15)
	movements := []*entity.Movement{
		mov(entity.MovementTypeOut, 5, day(2026, time.January, 10)),
		mov(entity.MovementTypeUse, 3, day(2026, time.January, 20)),
		mov(entity.MovementTypeIn, 100, day(2026, time.February, 2)),
		mov(entity.MovementTypeReturn, 4, day(2026, time.February, 3)),
		mov(entity.MovementTypeAdjustment, 6, day(2026, time.February, 4)),
		mov(entity.MovementTypeOut, 2, day(2026, time.March, 14)),
		mov(entity.MovementTypeOut, 7, day(2025, time.December, 31)),
		mov(entity.MovementTypeOut, 9, day(2026, time.April, 1)),
	}

	points := AggregateDemand(movements, asOf, PeriodMonth, 3)
	require.Len(t, points, 3)
	assert.Equal(t, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), points[0].PeriodStart)
	assert.Equal(t, []float64{8, 0, 2}, Quantities(points))
}

func TestAggregateDemand_EmptyHistory(t *testing.T) {
	points := AggregateDemand(nil, day(2026, time.March, 15), PeriodMonth, 12)
	require.Len(t, points, 12)
	for _, p := range points {
		assert.Zero(t, p.Quantity)
	}
}

func TestTrend(t *testing.T) {
	tests := []struct {
		name   string
		series []float64
		want   string
	}{
		{"sin datos", nil, entity.TrendStable},
		{"un solo período", []float64{10}, entity.TrendStable},
		{"dos períodos al alza", []float64{10, 20}, entity.TrendIncreasing},
		{"dentro del umbral", []float64{10, 10, 10, 10, 10, 10.5}, entity.TrendStable},
		{"baja", []float64{20, 20, 15, 15, 10, 10}, entity.TrendDecreasing},
		{"arranca en cero", []float64{0, 0, 0, 3, 4, 5}, entity.TrendIncreasing},
		{"todo en cero", []float64{0, 0, 0, 0}, entity.TrendStable},
		{"un solo período con demanda", []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 5}, entity.TrendStable},
		{"ítem nuevo con dos períodos", []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 4, 8}, entity.TrendIncreasing},
		{"demanda que se apaga", []float64{0, 0, 6, 0, 0, 0}, entity.TrendDecreasing},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Trend(tc.series, 0.10))
		})
	}
}

func TestMovingAverageForecast(t *testing.T) {
	assert.Equal(t, []float64{4, 4}, MovingAverageForecast([]float64{1, 2, 3, 4, 5}, 3, 2))
	assert.Equal(t, []float64{6}, MovingAverageForecast([]float64{6}, 3, 1), "menos historia que la ventana usa lo disponible")
	assert.Equal(t, []float64{0, 0, 0}, MovingAverageForecast(nil, 3, 3), "sin historia proyecta cero")
	assert.Empty(t, MovingAverageForecast([]float64{1}, 3, 0))
}

// Historia mensual [10,12,11,13,20,22,21,23,0,0,0,0] con L=1 y z=1.65.
func TestOptimalStockLevels_EscenarioHistoriaConColaEnCero(t *testing.T) {
	series := []float64{10, 12, 11, 13, 20, 22, 21, 23, 0, 0, 0, 0}

	assert.Equal(t, entity.TrendDecreasing, Trend(series, 0.10))

	levels := OptimalStockLevels(series, StockParams{
		ServiceLevelFactor: 1.65,
		LeadTimePeriods:    1,
		PeriodsPerYear:     12,
	})
	assert.InDelta(t, 16.5, levels.AveragePeriodDemand, 1e-9)
	assert.InDelta(t, math.Sqrt(30), levels.DemandStdDev, 1e-9)
	assert.InDelta(t, 1.65*math.Sqrt(30), levels.SafetyStock, 1e-9)
	assert.InDelta(t, 16.5+1.65*math.Sqrt(30), levels.ReorderPoint, 1e-9)
	assert.InDelta(t, 198, levels.AnnualDemand, 1e-9)
	assert.Zero(t, levels.EconomicOrderQuantity, "sin costos configurados el EOQ degrada a 0")
}

func TestOptimalStockLevels_MenosDeDosPuntos(t *testing.T) {
	levels := OptimalStockLevels([]float64{0, 0, 7, 0}, StockParams{ServiceLevelFactor: 1.65, LeadTimePeriods: 2, PeriodsPerYear: 12})
	assert.Zero(t, levels.SafetyStock)
	assert.InDelta(t, 14, levels.ReorderPoint, 1e-9)

	assert.Equal(t, entity.StockLevels{}, OptimalStockLevels(nil, StockParams{ServiceLevelFactor: 1.65, LeadTimePeriods: 1}))
}

func TestOptimalStockLevels_Determinista(t *testing.T) {
	series := []float64{3, 9, 4, 11, 0, 6, 8, 2, 7, 5, 10, 1}
	p := StockParams{ServiceLevelFactor: 1.65, LeadTimePeriods: 2.5, OrderingCost: 45, HoldingCost: 1.75, PeriodsPerYear: 12}
	first := OptimalStockLevels(series, p)
	second := OptimalStockLevels(series, p)
	assert.Equal(t, first, second)
	assert.Positive(t, first.EconomicOrderQuantity)
}

func TestEOQ(t *testing.T) {
	assert.InDelta(t, math.Sqrt(60000), EOQ(1200, 50, 2), 1e-9)
	assert.Zero(t, EOQ(1200, 0, 2))
	assert.Zero(t, EOQ(1200, 50, 0))
	assert.Zero(t, EOQ(0, 50, 2))
	assert.Zero(t, EOQ(1200, -1, 2))
}

func TestActiveSpan(t *testing.T) {
	assert.Equal(t, []float64{3, 0, 4}, ActiveSpan([]float64{0, 0, 3, 0, 4, 0}))
	assert.Empty(t, ActiveSpan([]float64{0, 0}))
}
