package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/monitor"
	"github.com/jhoicas/stock-ledger/internal/application/registry"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// AlertHandler expone el monitor de umbrales: estado de stock y alertas.
type AlertHandler struct {
	uc    *monitor.UseCase
	items *registry.UseCase
	log   *logger.Logger
}

// NewAlertHandler construye el handler.
func NewAlertHandler(uc *monitor.UseCase, items *registry.UseCase, log *logger.Logger) *AlertHandler {
	return &AlertHandler{uc: uc, items: items, log: log}
}

// Status godoc
// @Summary      Estado de stock del ítem
// @Description  percentage = cantidad / denominador, acotado a [0, 1]. Por defecto el denominador es reorder_quantity.
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        id           path   string  true   "ID del ítem"
// @Param        denominator  query  int     false  "Denominador del porcentaje"
// @Success      200  {object}  dto.StockStatusResponse
// @Router       /api/items/{id}/status [get]
func (h *AlertHandler) Status(c *fiber.Ctx) error {
	id := c.Params("id")
	var den *int64
	if raw := c.Query("denominator"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return badRequest(c, "INVALID_QUERY", "denominator inválido")
		}
		den = &v
	}
	item, err := h.items.GetItem(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	status, err := h.uc.GetStockStatus(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	pct, err := h.uc.GetStockPercentage(c.UserContext(), id, den)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.StockStatusResponse{
		ItemID:           id,
		Quantity:         item.QuantityInStock,
		ReorderThreshold: item.ReorderThreshold,
		Status:           status,
		Percentage:       pct,
	})
}

// List godoc
// @Summary      Alertas activas
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        item_id  query  string  false  "Filtrar por ítem"
// @Success      200  {array}  dto.AlertResponse
// @Router       /api/alerts [get]
func (h *AlertHandler) List(c *fiber.Ctx) error {
	alerts, err := h.uc.ListActiveAlerts(c.UserContext(), c.Query("item_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.AlertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, dto.AlertFromEntity(a))
	}
	return c.JSON(out)
}

// Resolve godoc
// @Summary      Resolver alerta
// @Tags         alerts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID de la alerta"
// @Param        body  body  dto.ResolveAlertRequest  true  "Nota de resolución"
// @Success      200   {object}  dto.AlertResponse
// @Failure      409   {object}  dto.ErrorResponse  "ya resuelta"
// @Router       /api/alerts/{id}/resolve [post]
func (h *AlertHandler) Resolve(c *fiber.Ctx) error {
	var in dto.ResolveAlertRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	a, err := h.uc.ResolveAlert(c.UserContext(), c.Params("id"), GetUserID(c), in.Note)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.AlertFromEntity(a))
}
