package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/forecasting"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// ForecastHandler expone el motor de pronóstico y la lista de reposición.
type ForecastHandler struct {
	uc  *forecasting.UseCase
	log *logger.Logger
}

// NewForecastHandler construye el handler.
func NewForecastHandler(uc *forecasting.UseCase, log *logger.Logger) *ForecastHandler {
	return &ForecastHandler{uc: uc, log: log}
}

// Forecast godoc
// @Summary      Pronóstico de demanda
// @Description  Serie de demanda, tendencia, proyección y niveles óptimos. periods cambia el horizonte proyectado.
// @Tags         forecast
// @Security     Bearer
// @Produce      json
// @Param        id       path   string  true   "ID del ítem"
// @Param        periods  query  int     false  "Períodos a proyectar"
// @Success      200  {object}  dto.ForecastDTO
// @Router       /api/items/{id}/forecast [get]
func (h *ForecastHandler) Forecast(c *fiber.Ctx) error {
	id := c.Params("id")
	res, err := h.uc.Forecast(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := forecasting.ToForecastDTO(res)
	if periods := c.QueryInt("periods", 0); periods != 0 {
		proj, err := h.uc.CalculateDemandForecast(c.UserContext(), id, periods)
		if err != nil {
			return writeError(c, h.log, err)
		}
		out.Forecast = proj
	}
	return c.JSON(out)
}

// Trend godoc
// @Summary      Tendencia de demanda
// @Tags         forecast
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ítem"
// @Success      200  {object}  dto.TrendDTO
// @Router       /api/items/{id}/trend [get]
func (h *ForecastHandler) Trend(c *fiber.Ctx) error {
	res, err := h.uc.TrendAnalysis(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.TrendDTO{ItemID: res.ItemID, Trend: res.Trend, Demand: forecasting.ToDemandDTO(res.Demand)})
}

// StockLevels godoc
// @Summary      Niveles óptimos de stock
// @Tags         forecast
// @Security     Bearer
// @Produce      json
// @Param        id             path   string  true   "ID del ítem"
// @Param        service_level  query  number  false  "Factor z de nivel de servicio"
// @Param        lead_time      query  number  false  "Lead time en períodos"
// @Param        ordering_cost  query  number  false  "Costo por pedido"
// @Param        holding_cost   query  number  false  "Costo de mantener una unidad por año"
// @Param        window         query  int     false  "Períodos de historia"
// @Success      200  {object}  dto.StockLevelsDTO
// @Router       /api/items/{id}/stock-levels [get]
func (h *ForecastHandler) StockLevels(c *fiber.Ctx) error {
	var o dto.StockLevelOverrides
	if err := c.QueryParser(&o); err != nil {
		return badRequest(c, "INVALID_QUERY", "parámetros inválidos")
	}
	id := c.Params("id")
	levels, err := h.uc.CalculateOptimalStockLevels(c.UserContext(), id, o)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(forecasting.ToStockLevelsDTO(id, levels))
}

// ReorderCandidates godoc
// @Summary      Lista de reposición
// @Description  Ítems activos con stock en o bajo su punto de reorden, ordenados por déficit.
// @Tags         forecast
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ReorderReportDTO
// @Router       /api/forecast/reorder-candidates [get]
func (h *ForecastHandler) ReorderCandidates(c *fiber.Ctx) error {
	out, err := h.uc.GetReorderCandidates(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// ReorderCandidatesPDF godoc
// @Summary      Lista de reposición en PDF
// @Tags         forecast
// @Security     Bearer
// @Produce      application/pdf
// @Success      200  {file}  binary
// @Router       /api/forecast/reorder-candidates.pdf [get]
func (h *ForecastHandler) ReorderCandidatesPDF(c *fiber.Ctx) error {
	pdf, err := h.uc.ReorderReportPDF(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="reposicion.pdf"`)
	return c.Send(pdf)
}
