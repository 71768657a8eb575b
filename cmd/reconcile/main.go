// reconcile revisa los umbrales de todos los ítems activos (abre las alertas que falten)
// y recalcula la lista de reposición, dejando los pronósticos en caché.
//
// Uso: go run ./cmd/reconcile [ruta/reposicion.pdf]
// Con ruta, además escribe la lista de reposición en PDF.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/stock-ledger/internal/bootstrap"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Named("reconcile")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar dependencias")
	}
	defer app.Close()

	res, err := app.Monitor.Reconcile(ctx)
	if err != nil {
		log.Error().Err(err).Msg("reconciliación de alertas")
		os.Exit(1)
	}
	log.Info().Int("checked", res.Checked).Int("failed", res.Failed).Msg("umbrales revisados")

	report, err := app.Forecasting.GetReorderCandidates(ctx)
	if err != nil {
		log.Error().Err(err).Msg("lista de reposición")
		os.Exit(1)
	}
	log.Info().
		Int("candidates", len(report.Candidates)).
		Str("total_cost", report.TotalCost.StringFixed(2)).
		Msg("pronósticos recalculados")

	if len(os.Args) > 1 {
		pdf, err := app.Forecasting.ReorderReportPDF(ctx)
		if err != nil {
			log.Error().Err(err).Msg("generar PDF")
			os.Exit(1)
		}
		if err := os.WriteFile(os.Args[1], pdf, 0o644); err != nil {
			log.Error().Err(err).Str("path", os.Args[1]).Msg("escribir PDF")
			os.Exit(1)
		}
		log.Info().Str("path", os.Args[1]).Msg("PDF escrito")
	}
	if res.Failed > 0 {
		os.Exit(1)
	}
}
