package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// MovementHandler maneja el ledger de movimientos (protegido).
type MovementHandler struct {
	uc  *ledger.UseCase
	log *logger.Logger
}

// NewMovementHandler construye el handler.
func NewMovementHandler(uc *ledger.UseCase, log *logger.Logger) *MovementHandler {
	return &MovementHandler{uc: uc, log: log}
}

// Apply godoc
// @Summary      Registrar movimiento
// @Description  Tipos: initial, in, out, use, return, adjustment. Para adjustment quantity lleva signo.
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "ID del ítem"
// @Param        body  body  dto.RegisterMovementRequest  true  "Movimiento"
// @Success      201   {object}  dto.MovementResponse
// @Failure      409   {object}  dto.ErrorResponse  "INSUFFICIENT_STOCK | INVALID_STATE"
// @Failure      504   {object}  dto.ErrorResponse
// @Router       /api/items/{id}/movements [post]
func (h *MovementHandler) Apply(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	input := ledger.MovementInput{
		ItemID:     c.Params("id"),
		Type:       strings.TrimSpace(in.Type),
		Quantity:   in.Quantity,
		UnitCost:   in.UnitCost,
		SupplierID: in.SupplierID,
		Actor:      GetUserID(c),
		Notes:      in.Notes,
	}
	if in.TransactionDate != nil {
		input.TransactionDate = *in.TransactionDate
	}
	m, err := h.uc.ApplyMovement(c.UserContext(), input)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MovementFromEntity(m))
}

// List godoc
// @Summary      Historial de movimientos
// @Description  Orden por fecha de transacción y luego por orden de inserción.
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        id           path   string  true   "ID del ítem"
// @Param        type         query  string  false  "Tipos separados por coma"
// @Param        from         query  string  false  "YYYY-MM-DD o RFC3339"
// @Param        to           query  string  false  "YYYY-MM-DD o RFC3339 (inclusivo)"
// @Param        supplier_id  query  string  false  "Proveedor"
// @Success      200  {object}  dto.MovementListResponse
// @Router       /api/items/{id}/movements [get]
func (h *MovementHandler) List(c *fiber.Ctx) error {
	var f ledger.MovementFilter
	if raw := c.Query("type"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				f.Types = append(f.Types, t)
			}
		}
	}
	if raw := c.Query("from"); raw != "" {
		t, err := parseDate(raw, false)
		if err != nil {
			return badRequest(c, "INVALID_QUERY", "from inválido")
		}
		f.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := parseDate(raw, true)
		if err != nil {
			return badRequest(c, "INVALID_QUERY", "to inválido")
		}
		f.To = &t
	}
	f.SupplierID = c.Query("supplier_id")

	seq, err := h.uc.ListMovements(c.UserContext(), c.Params("id"), f)
	if err != nil {
		return writeError(c, h.log, err)
	}
	items := make([]dto.MovementResponse, 0)
	for m, err := range seq {
		if err != nil {
			return writeError(c, h.log, err)
		}
		items = append(items, dto.MovementFromEntity(m))
	}
	return c.JSON(dto.MovementListResponse{Items: items, Count: len(items)})
}

// Quantity godoc
// @Summary      Cantidad actual del ítem
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del ítem"
// @Success      200  {object}  dto.QuantityResponse
// @Router       /api/items/{id}/quantity [get]
func (h *MovementHandler) Quantity(c *fiber.Ctx) error {
	id := c.Params("id")
	q, err := h.uc.GetCurrentQuantity(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.QuantityResponse{ItemID: id, Quantity: q})
}

// Report godoc
// @Summary      Reporte de movimientos
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        from         query  string  true   "YYYY-MM-DD"
// @Param        to           query  string  true   "YYYY-MM-DD (inclusivo)"
// @Param        type         query  string  false  "Tipo de movimiento"
// @Param        category_id  query  string  false  "Categoría"
// @Success      200  {object}  dto.MovementReportDTO
// @Router       /api/reports/movements [get]
func (h *MovementHandler) Report(c *fiber.Ctx) error {
	fromRaw, toRaw := c.Query("from"), c.Query("to")
	if fromRaw == "" || toRaw == "" {
		return badRequest(c, "INVALID_QUERY", "from y to son requeridos")
	}
	from, err := parseDate(fromRaw, false)
	if err != nil {
		return badRequest(c, "INVALID_QUERY", "from inválido")
	}
	to, err := parseDate(toRaw, false)
	if err != nil {
		return badRequest(c, "INVALID_QUERY", "to inválido")
	}
	out, err := h.uc.MovementReport(c.UserContext(), dto.MovementReportRequest{
		From:       from,
		To:         to,
		Type:       c.Query("type"),
		CategoryID: c.Query("category_id"),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// parseDate acepta YYYY-MM-DD o RFC3339. Con endOfDay, una fecha sin hora cubre el día completo.
func parseDate(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
