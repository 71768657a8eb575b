package forecasting

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/ports"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/forecast"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Config parámetros por defecto del motor de pronóstico.
type Config struct {
	WindowPeriods      int
	Period             string
	SMAPeriods         int
	TrendThreshold     float64
	ServiceLevelFactor float64
	LeadTimePeriods    float64
	OrderingCost       float64
	HoldingCost        float64
	HoldingRate        float64
	HorizonPeriods     int // períodos proyectados por defecto
}

// UseCase motor de pronóstico. Solo lee datos confirmados; tolera leer una cantidad ligeramente desfasada.
type UseCase struct {
	items     repository.ItemRepository
	movements repository.MovementRepository
	cache     ports.ForecastCache
	renderer  ports.ReportRenderer
	cfg       Config
	log       *logger.Logger
	now       func() time.Time
}

// NewUseCase construye el motor. cache nil = sin caché; renderer nil deshabilita el PDF.
func NewUseCase(
	items repository.ItemRepository,
	movements repository.MovementRepository,
	cache ports.ForecastCache,
	renderer ports.ReportRenderer,
	cfg Config,
	log *logger.Logger,
) *UseCase {
	if cache == nil {
		cache = ports.NoopForecastCache{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Period == "" {
		cfg.Period = forecast.PeriodMonth
	}
	if cfg.WindowPeriods <= 0 {
		cfg.WindowPeriods = 12
	}
	if cfg.SMAPeriods <= 0 {
		cfg.SMAPeriods = 3
	}
	if cfg.HorizonPeriods <= 0 {
		cfg.HorizonPeriods = 3
	}
	return &UseCase{
		items:     items,
		movements: movements,
		cache:     cache,
		renderer:  renderer,
		cfg:       cfg,
		log:       log.Named("forecasting"),
		now:       time.Now,
	}
}

// WithClock reemplaza el reloj. "Ahora" solo define la ventana de historial.
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

// params conjunto completo de entradas de un cálculo; forma parte de la clave de caché.
type params struct {
	period         string
	window         int
	sma            int
	horizon        int
	trendThreshold float64
	stock          forecast.StockParams
}

func (uc *UseCase) defaultParams(item *entity.InventoryItem) params {
	return params{
		period:         uc.cfg.Period,
		window:         uc.cfg.WindowPeriods,
		sma:            uc.cfg.SMAPeriods,
		horizon:        uc.cfg.HorizonPeriods,
		trendThreshold: uc.cfg.TrendThreshold,
		stock: forecast.StockParams{
			ServiceLevelFactor: uc.cfg.ServiceLevelFactor,
			LeadTimePeriods:    uc.cfg.LeadTimePeriods,
			OrderingCost:       uc.cfg.OrderingCost,
			HoldingCost:        uc.holdingCost(item),
			PeriodsPerYear:     forecast.PeriodsPerYear(uc.cfg.Period),
		},
	}
}

// holdingCost usa el costo configurado; si no hay, una tasa sobre el costo unitario del ítem.
func (uc *UseCase) holdingCost(item *entity.InventoryItem) float64 {
	if uc.cfg.HoldingCost > 0 {
		return uc.cfg.HoldingCost
	}
	if uc.cfg.HoldingRate > 0 {
		return uc.cfg.HoldingRate * item.UnitCost.InexactFloat64()
	}
	return 0
}

func (p params) withOverrides(o dto.StockLevelOverrides) (params, error) {
	if o.ServiceLevelFactor != nil {
		if *o.ServiceLevelFactor < 0 {
			return p, domain.Validationf("service_level no puede ser negativo")
		}
		p.stock.ServiceLevelFactor = *o.ServiceLevelFactor
	}
	if o.LeadTimePeriods != nil {
		if *o.LeadTimePeriods < 0 {
			return p, domain.Validationf("lead_time no puede ser negativo")
		}
		p.stock.LeadTimePeriods = *o.LeadTimePeriods
	}
	if o.OrderingCost != nil {
		p.stock.OrderingCost = *o.OrderingCost
	}
	if o.HoldingCost != nil {
		p.stock.HoldingCost = *o.HoldingCost
	}
	if o.WindowPeriods != nil {
		if *o.WindowPeriods < 1 {
			return p, domain.Validationf("window debe ser >= 1")
		}
		p.window = *o.WindowPeriods
	}
	return p, nil
}

// AggregateDemand serie de demanda (out + use) por período en la ventana, con ceros donde no hubo salidas.
// period vacío usa el configurado.
func (uc *UseCase) AggregateDemand(ctx context.Context, itemID, period string) ([]entity.DemandPoint, error) {
	item, err := uc.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	p := uc.defaultParams(item)
	if period != "" {
		if !forecast.ValidPeriod(period) {
			return nil, domain.Validationf("período inválido %q", period)
		}
		p.period = period
		p.stock.PeriodsPerYear = forecast.PeriodsPerYear(period)
	}
	res, err := uc.compute(ctx, item, p)
	if err != nil {
		return nil, err
	}
	return res.Demand, nil
}

// TrendAnalysis clasifica la tendencia de la demanda reciente frente a la más antigua.
func (uc *UseCase) TrendAnalysis(ctx context.Context, itemID string) (*entity.ForecastResult, error) {
	return uc.Forecast(ctx, itemID)
}

// CalculateDemandForecast proyecta periodsAhead períodos con media móvil simple.
func (uc *UseCase) CalculateDemandForecast(ctx context.Context, itemID string, periodsAhead int) ([]float64, error) {
	if periodsAhead < 1 {
		return nil, domain.Validationf("periods debe ser >= 1")
	}
	item, err := uc.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	p := uc.defaultParams(item)
	p.horizon = periodsAhead
	res, err := uc.compute(ctx, item, p)
	if err != nil {
		return nil, err
	}
	return res.Forecast, nil
}

// CalculateOptimalStockLevels stock de seguridad, punto de reorden y EOQ con los parámetros
// configurados, sobrescritos por overrides cuando vienen.
func (uc *UseCase) CalculateOptimalStockLevels(ctx context.Context, itemID string, overrides dto.StockLevelOverrides) (entity.StockLevels, error) {
	item, err := uc.getItem(ctx, itemID)
	if err != nil {
		return entity.StockLevels{}, err
	}
	p, err := uc.defaultParams(item).withOverrides(overrides)
	if err != nil {
		return entity.StockLevels{}, err
	}
	res, err := uc.compute(ctx, item, p)
	if err != nil {
		return entity.StockLevels{}, err
	}
	return res.StockLevels, nil
}

// Forecast resultado completo con los parámetros configurados.
func (uc *UseCase) Forecast(ctx context.Context, itemID string) (*entity.ForecastResult, error) {
	item, err := uc.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return uc.compute(ctx, item, uc.defaultParams(item))
}

// compute arma el ForecastResult de un ítem, consultando primero la caché.
func (uc *UseCase) compute(ctx context.Context, item *entity.InventoryItem, p params) (*entity.ForecastResult, error) {
	asOf := forecast.PeriodStart(uc.now(), p.period)

	lastSeq, err := uc.movements.LastSeq(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("último movimiento: %w", err)
	}
	key := cacheKey(item.ID, lastSeq, asOf, p)
	if cached, ok, err := uc.cache.Get(ctx, key); err != nil {
		uc.log.Warn().Err(err).Str("item_id", item.ID).Msg("lectura de caché de pronóstico falló")
	} else if ok {
		return cached, nil
	}

	history, err := uc.loadDemandHistory(ctx, item.ID, asOf, p)
	if err != nil {
		return nil, err
	}
	demand := forecast.AggregateDemand(history, asOf, p.period, p.window)
	series := forecast.Quantities(demand)

	res := &entity.ForecastResult{
		ItemID:      item.ID,
		AsOf:        asOf,
		Period:      p.period,
		Demand:      demand,
		Trend:       forecast.Trend(series, p.trendThreshold),
		Forecast:    forecast.MovingAverageForecast(series, p.sma, p.horizon),
		StockLevels: forecast.OptimalStockLevels(series, p.stock),
	}
	if err := uc.cache.Set(ctx, key, res); err != nil {
		uc.log.Warn().Err(err).Str("item_id", item.ID).Msg("escritura de caché de pronóstico falló")
	}
	return res, nil
}

// loadDemandHistory lee solo salidas (out, use) dentro de la ventana, página por página.
func (uc *UseCase) loadDemandHistory(ctx context.Context, itemID string, asOf time.Time, p params) ([]*entity.Movement, error) {
	from, to := forecast.Window(asOf, p.period, p.window)
	toInclusive := to.Add(-time.Nanosecond)
	filter := repository.MovementFilter{
		ItemID: itemID,
		Types:  []string{entity.MovementTypeOut, entity.MovementTypeUse},
		From:   &from,
		To:     &toInclusive,
	}
	const pageSize = 500
	var (
		out    []*entity.Movement
		cursor *repository.MovementCursor
	)
	for {
		page, err := uc.movements.List(ctx, filter, cursor, pageSize)
		if err != nil {
			return nil, fmt.Errorf("historial de demanda: %w", err)
		}
		out = append(out, page...)
		if len(page) < pageSize {
			return out, nil
		}
		last := page[len(page)-1]
		cursor = &repository.MovementCursor{Date: last.TransactionDate, Seq: last.Seq}
	}
}

func (uc *UseCase) getItem(ctx context.Context, itemID string) (*entity.InventoryItem, error) {
	item, err := uc.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("ítem %s: %w", itemID, domain.ErrNotFound)
	}
	return item, nil
}

func cacheKey(itemID string, lastSeq int64, asOf time.Time, p params) string {
	return fmt.Sprintf("forecast:v1:%s:%d:%s:%s:w%d:n%d:h%d:t%g:z%g:l%g:s%g:c%g",
		itemID, lastSeq, asOf.Format("2006-01-02"), p.period,
		p.window, p.sma, p.horizon, p.trendThreshold,
		p.stock.ServiceLevelFactor, p.stock.LeadTimePeriods, p.stock.OrderingCost, p.stock.HoldingCost)
}
