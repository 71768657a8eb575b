// Package bootstrap arma los casos de uso a partir de la configuración: almacenamiento
// (PostgreSQL o memoria), caché de pronósticos, publicador de eventos y generador de PDF.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-ledger/internal/application/forecasting"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/application/monitor"
	"github.com/jhoicas/stock-ledger/internal/application/ports"
	"github.com/jhoicas/stock-ledger/internal/application/registry"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/stock-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/rabbitmq"
	infraredis "github.com/jhoicas/stock-ledger/internal/infrastructure/redis"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// App casos de uso listos para servir.
type App struct {
	Registry    *registry.UseCase
	Ledger      *ledger.UseCase
	Monitor     *monitor.UseCase
	Forecasting *forecasting.UseCase

	closers []func()
}

// Close libera conexiones en orden inverso de apertura.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

type storage struct {
	tx        ports.TxRunner
	items     repository.ItemRepository
	movements repository.MovementRepository
	alerts    repository.AlertRepository
}

// Build conecta la infraestructura según cfg. Redis y RabbitMQ son opcionales:
// sin dirección configurada se usan la caché y el publicador nulos.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	app := &App{}

	st, err := app.openStorage(ctx, cfg, log)
	if err != nil {
		app.Close()
		return nil, err
	}

	var cache ports.ForecastCache
	if cfg.Redis.Addr != "" {
		client, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		app.closers = append(app.closers, func() { _ = client.Close() })
		cache = infraredis.NewForecastCache(client, cfg.Redis.TTL)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("caché de pronósticos en Redis")
	}

	var publisher ports.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		pub, err := rabbitmq.Dial(cfg.RabbitMQ, log)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("rabbitmq: %w", err)
		}
		app.closers = append(app.closers, func() { _ = pub.Close() })
		publisher = pub
		log.Info().Str("exchange", cfg.RabbitMQ.Exchange).Msg("eventos de alertas en RabbitMQ")
	}

	app.Monitor = monitor.NewUseCase(st.items, st.alerts, publisher, monitor.Config{
		AutoResolve: cfg.Monitor.AutoResolve,
	}, log)
	app.Ledger = ledger.NewUseCase(st.tx, st.items, st.movements, app.Monitor, ledger.Config{
		OpTimeout:    cfg.Ledger.OpTimeout,
		MaxRetries:   cfg.Ledger.MaxRetries,
		RetryBackoff: cfg.Ledger.RetryBackoff,
		WeightedCost: cfg.Ledger.WeightedCost,
	}, log)
	app.Registry = registry.NewUseCase(st.tx, st.items, app.Ledger, registry.Config{
		UniqueName:       cfg.Registry.UniqueName,
		UniquePartNumber: cfg.Registry.UniquePartNumber,
	}, log)
	app.Forecasting = forecasting.NewUseCase(st.items, st.movements, cache,
		infrapdf.NewMarotoPDFGenerator("Lista de reposición"),
		forecasting.Config{
			WindowPeriods:      cfg.Forecast.WindowPeriods,
			Period:             cfg.Forecast.Period,
			SMAPeriods:         cfg.Forecast.SMAPeriods,
			TrendThreshold:     cfg.Forecast.TrendThreshold,
			ServiceLevelFactor: cfg.Forecast.ServiceLevelFactor,
			LeadTimePeriods:    cfg.Forecast.LeadTimePeriods,
			OrderingCost:       cfg.Forecast.OrderingCost,
			HoldingCost:        cfg.Forecast.HoldingCost,
			HoldingRate:        cfg.Forecast.HoldingRate,
		}, log)
	return app, nil
}

func (a *App) openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (storage, error) {
	switch cfg.App.StorageDriver {
	case "memory":
		s := memory.NewStore()
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		return storage{tx: s.TxRunner(), items: s.Items(), movements: s.Movements(), alerts: s.Alerts()}, nil
	case "postgres", "":
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return storage{}, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		applied, err := postgres.Migrate(ctx, pool)
		if err != nil {
			return storage{}, fmt.Errorf("migraciones: %w", err)
		}
		for _, name := range applied {
			log.Info().Str("migration", name).Msg("migración aplicada")
		}
		return storage{
			tx:        postgres.NewTxRunner(pool, cfg.Ledger.LockTimeout),
			items:     postgres.NewItemRepository(pool),
			movements: postgres.NewMovementRepository(pool),
			alerts:    postgres.NewAlertRepository(pool),
		}, nil
	default:
		return storage{}, fmt.Errorf("driver de almacenamiento desconocido %q", cfg.App.StorageDriver)
	}
}
