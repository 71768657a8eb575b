package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/internal/application/ports"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Nota que se registra cuando la política de auto-resolución cierra una alerta.
const autoResolveNote = "resuelta automáticamente: stock sobre el umbral de reorden"

// Config política del monitor.
type Config struct {
	AutoResolve bool
}

// UseCase monitor de umbrales: abre y resuelve alertas como máquina de dos estados (active -> resolved).
type UseCase struct {
	items     repository.ItemRepository
	alerts    repository.AlertRepository
	publisher ports.EventPublisher
	cfg       Config
	log       *logger.Logger
	now       func() time.Time
}

// NewUseCase construye el monitor. publisher nil = sin eventos.
func NewUseCase(
	items repository.ItemRepository,
	alerts repository.AlertRepository,
	publisher ports.EventPublisher,
	cfg Config,
	log *logger.Logger,
) *UseCase {
	if publisher == nil {
		publisher = ports.NoopPublisher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{
		items:     items,
		alerts:    alerts,
		publisher: publisher,
		cfg:       cfg,
		log:       log.Named("monitor"),
		now:       time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

// CheckThresholds evalúa la cantidad actual del ítem contra su umbral.
// Con cantidad <= umbral abre una alerta (out_of_stock si es 0, low_stock si no) salvo que ya exista
// una activa del mismo tipo. Con cantidad sobre el umbral no hace nada, salvo que AutoResolve esté activo.
func (uc *UseCase) CheckThresholds(ctx context.Context, item *entity.InventoryItem) error {
	qty := item.QuantityInStock
	if qty > item.ReorderThreshold {
		if uc.cfg.AutoResolve {
			return uc.autoResolve(ctx, item)
		}
		return nil
	}

	alertType := entity.AlertTypeLowStock
	if qty <= 0 {
		alertType = entity.AlertTypeOutOfStock
	}
	existing, err := uc.alerts.GetActive(ctx, item.ID, alertType)
	if err != nil {
		return fmt.Errorf("buscar alerta activa: %w", err)
	}
	if existing != nil {
		return nil
	}

	alert := &entity.Alert{
		ID:             uuid.New().String(),
		ItemID:         item.ID,
		Type:           alertType,
		Status:         entity.AlertStatusActive,
		Message:        alertMessage(item, alertType),
		QuantityAtOpen: qty,
		CreatedAt:      uc.now().UTC(),
	}
	if err := uc.alerts.Create(ctx, alert); err != nil {
		// Otro chequeo concurrente ya la abrió
		if errors.Is(err, domain.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("crear alerta: %w", err)
	}
	uc.log.Info().Str("item_id", item.ID).Str("alert_id", alert.ID).Str("type", alertType).Int64("quantity", qty).Msg("alerta abierta")
	uc.publish(ctx, ports.AlertEvent{
		Name:       ports.EventAlertOpened,
		AlertID:    alert.ID,
		ItemID:     item.ID,
		AlertType:  alertType,
		Quantity:   qty,
		OccurredAt: alert.CreatedAt,
	})
	return nil
}

// ResolveAlert cierra una alerta activa con una nota obligatoria.
func (uc *UseCase) ResolveAlert(ctx context.Context, alertID, actor, note string) (*entity.Alert, error) {
	if strings.TrimSpace(note) == "" {
		return nil, domain.Validationf("la nota de resolución es obligatoria")
	}
	alert, err := uc.alerts.GetByID(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, fmt.Errorf("alerta %s: %w", alertID, domain.ErrNotFound)
	}
	if err := uc.resolve(ctx, alert, actor, note); err != nil {
		return nil, err
	}
	return alert, nil
}

func (uc *UseCase) resolve(ctx context.Context, alert *entity.Alert, actor, note string) error {
	if err := alert.Resolve(note, actor, uc.now().UTC()); err != nil {
		return fmt.Errorf("alerta %s ya resuelta: %w", alert.ID, err)
	}
	if err := uc.alerts.MarkResolved(ctx, alert); err != nil {
		return err
	}
	uc.log.Info().Str("alert_id", alert.ID).Str("item_id", alert.ItemID).Str("resolved_by", actor).Msg("alerta resuelta")
	uc.publish(ctx, ports.AlertEvent{
		Name:       ports.EventAlertResolved,
		AlertID:    alert.ID,
		ItemID:     alert.ItemID,
		AlertType:  alert.Type,
		Quantity:   alert.QuantityAtOpen,
		Note:       note,
		Actor:      actor,
		OccurredAt: *alert.ResolvedAt,
	})
	return nil
}

func (uc *UseCase) autoResolve(ctx context.Context, item *entity.InventoryItem) error {
	active, err := uc.alerts.ListActive(ctx, item.ID)
	if err != nil {
		return err
	}
	for _, a := range active {
		if err := uc.resolve(ctx, a, "system", autoResolveNote); err != nil && !errors.Is(err, domain.ErrInvalidState) {
			return err
		}
	}
	return nil
}

// GetStockStatus clasifica el ítem en out_of_stock, low_stock o in_stock.
func (uc *UseCase) GetStockStatus(ctx context.Context, itemID string) (string, error) {
	item, err := uc.getItem(ctx, itemID)
	if err != nil {
		return "", err
	}
	return item.StockStatus(), nil
}

// GetStockPercentage devuelve cantidad / denominador acotado a [0, 1].
// denominator nil usa la cantidad de reorden del ítem.
func (uc *UseCase) GetStockPercentage(ctx context.Context, itemID string, denominator *int64) (float64, error) {
	item, err := uc.getItem(ctx, itemID)
	if err != nil {
		return 0, err
	}
	d := item.ReorderQuantity
	if denominator != nil {
		d = *denominator
	}
	return StockPercentage(item.QuantityInStock, d), nil
}

// StockPercentage con denominador no positivo devuelve 1 si hay stock y 0 si no.
func StockPercentage(quantity, denominator int64) float64 {
	if denominator <= 0 {
		if quantity > 0 {
			return 1
		}
		return 0
	}
	p := float64(quantity) / float64(denominator)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}

// ListActiveAlerts lista alertas activas; itemID vacío = todas.
func (uc *UseCase) ListActiveAlerts(ctx context.Context, itemID string) ([]*entity.Alert, error) {
	if itemID != "" {
		if _, err := uc.getItem(ctx, itemID); err != nil {
			return nil, err
		}
	}
	return uc.alerts.ListActive(ctx, itemID)
}

// ReconcileResult resumen de una corrida de reconciliación.
type ReconcileResult struct {
	Checked int
	Failed  int
}

// Reconcile re-evalúa todos los ítems activos. Recupera alertas que un chequeo post-commit no alcanzó a abrir.
func (uc *UseCase) Reconcile(ctx context.Context) (ReconcileResult, error) {
	active := true
	var res ReconcileResult
	const pageSize = 500
	for offset := 0; ; offset += pageSize {
		page, err := uc.items.List(ctx, repository.ItemFilter{Active: &active, Limit: pageSize, Offset: offset})
		if err != nil {
			return res, err
		}
		for _, item := range page {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			res.Checked++
			if err := uc.CheckThresholds(ctx, item); err != nil {
				res.Failed++
				uc.log.Warn().Err(err).Str("item_id", item.ID).Msg("reconciliación de ítem falló")
			}
		}
		if len(page) < pageSize {
			break
		}
	}
	uc.log.Info().Int("checked", res.Checked).Int("failed", res.Failed).Msg("reconciliación terminada")
	return res, nil
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

// publish es best-effort: un broker caído no afecta el estado de las alertas.
func (uc *UseCase) publish(ctx context.Context, ev ports.AlertEvent) {
	if err := uc.publisher.Publish(ctx, ev); err != nil {
		uc.log.Error().Err(err).Str("event", ev.Name).Str("alert_id", ev.AlertID).Msg("no se pudo publicar evento de alerta")
	}
}

func alertMessage(item *entity.InventoryItem, alertType string) string {
	if alertType == entity.AlertTypeOutOfStock {
		return fmt.Sprintf("%s sin stock", item.Name)
	}
	return fmt.Sprintf("%s con stock bajo: %d (umbral %d)", item.Name, item.QuantityInStock, item.ReorderThreshold)
}
