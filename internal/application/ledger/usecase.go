package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/ports"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// ThresholdChecker es lo que el ledger necesita del monitor de umbrales tras cada commit.
type ThresholdChecker interface {
	CheckThresholds(ctx context.Context, item *entity.InventoryItem) error
}

// Config parámetros operativos del ledger.
type Config struct {
	OpTimeout    time.Duration // 0 = sin límite propio, solo el del caller
	MaxRetries   int
	RetryBackoff time.Duration
	WeightedCost bool
	PageSize     int // tamaño de página al iterar el historial
}

// UseCase es el único punto de mutación del stock: cada cambio de cantidad es un Movement.
type UseCase struct {
	txRunner  ports.TxRunner
	items     repository.ItemRepository
	movements repository.MovementRepository
	monitor   ThresholdChecker
	cfg       Config
	log       *logger.Logger
	now       func() time.Time
}

// NewUseCase construye el ledger. monitor puede ser nil (sin alertas).
func NewUseCase(
	txRunner ports.TxRunner,
	items repository.ItemRepository,
	movements repository.MovementRepository,
	monitor ThresholdChecker,
	cfg Config,
	log *logger.Logger,
) *UseCase {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 200
	}
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{
		txRunner:  txRunner,
		items:     items,
		movements: movements,
		monitor:   monitor,
		cfg:       cfg,
		log:       log.Named("ledger"),
		now:       time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

// MovementInput entrada de ApplyMovement.
// Quantity > 0 para todos los tipos salvo adjustment, donde es un delta con signo distinto de cero.
// UnitCost nil toma el costo unitario vigente del ítem. TransactionDate cero = ahora.
type MovementInput struct {
	ItemID          string
	Type            string
	Quantity        int64
	UnitCost        *decimal.Decimal
	TransactionDate time.Time
	SupplierID      string
	Actor           string
	Notes           string
}

// ApplyMovement valida, serializa por ítem (bloqueo de fila) y persiste de forma atómica
// el movimiento junto con la nueva cantidad del ítem. Tras el commit invoca al monitor;
// un fallo del monitor se registra pero no revierte el movimiento.
func (uc *UseCase) ApplyMovement(ctx context.Context, in MovementInput) (*entity.Movement, error) {
	direction, qty, err := resolveSign(in)
	if err != nil {
		return nil, err
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return nil, domain.Validationf("unit_cost no puede ser negativo")
	}

	opCtx, cancel := uc.withTimeout(ctx)
	defer cancel()

	now := uc.now().UTC()
	txDate := in.TransactionDate
	if txDate.IsZero() {
		txDate = now
	}

	var (
		applied *entity.Movement
		after   *entity.InventoryItem
	)
	err = uc.retry(opCtx, in.ItemID, func() error {
		return uc.txRunner.Run(opCtx, func(
			items repository.ItemRepository,
			movements repository.MovementRepository,
			_ repository.AlertRepository,
		) error {
			// Bloquea la fila del ítem (SELECT FOR UPDATE) hasta el Commit/Rollback
			item, err := items.GetForUpdate(opCtx, in.ItemID)
			if err != nil {
				return err
			}
			if item == nil {
				return fmt.Errorf("ítem %s: %w", in.ItemID, domain.ErrNotFound)
			}
			if !item.IsActive && in.Type != entity.MovementTypeAdjustment {
				return fmt.Errorf("ítem %s inactivo: %w", item.ID, domain.ErrInvalidState)
			}

			delta := int64(direction) * qty
			newQty := item.QuantityInStock + delta
			if newQty < 0 {
				return fmt.Errorf("%w: disponible %d, solicitado %d", domain.ErrInsufficientStock, item.QuantityInStock, qty)
			}

			unitCost := item.UnitCost
			if in.UnitCost != nil {
				unitCost = *in.UnitCost
			}
			newCost := item.UnitCost
			if uc.cfg.WeightedCost && in.UnitCost != nil && isCostBearing(in.Type) {
				newCost = inventory.WeightedAverageCost(item.QuantityInStock, item.UnitCost, qty, unitCost)
			}

			mov := &entity.Movement{
				ID:              uuid.New().String(),
				ItemID:          item.ID,
				Type:            in.Type,
				Quantity:        qty,
				Direction:       direction,
				UnitCost:        unitCost,
				TotalCost:       unitCost.Mul(decimal.NewFromInt(qty)),
				TransactionDate: txDate,
				SupplierID:      in.SupplierID,
				CreatedBy:       in.Actor,
				Notes:           in.Notes,
				CreatedAt:       now,
			}
			if err := movements.Create(opCtx, mov); err != nil {
				return err
			}
			if err := items.UpdateStock(opCtx, item.ID, newQty, newCost); err != nil {
				return err
			}

			item.QuantityInStock = newQty
			item.UnitCost = newCost
			item.UpdatedAt = now
			applied, after = mov, item
			return nil
		})
	})
	if err != nil {
		return nil, uc.classify(opCtx, err)
	}

	uc.log.Debug().
		Str("item_id", after.ID).
		Str("movement_id", applied.ID).
		Str("type", applied.Type).
		Int64("delta", applied.Delta()).
		Int64("quantity", after.QuantityInStock).
		Msg("movimiento aplicado")

	uc.notifyMonitor(ctx, after)
	return applied, nil
}

// GetCurrentQuantity devuelve la cantidad en stock del ítem.
func (uc *UseCase) GetCurrentQuantity(ctx context.Context, itemID string) (int64, error) {
	item, err := uc.items.GetByID(ctx, itemID)
	if err != nil {
		return 0, err
	}
	if item == nil {
		return 0, fmt.Errorf("ítem %s: %w", itemID, domain.ErrNotFound)
	}
	return item.QuantityInStock, nil
}

// notifyMonitor es best-effort: el stock ya está confirmado.
func (uc *UseCase) notifyMonitor(ctx context.Context, item *entity.InventoryItem) {
	if uc.monitor == nil {
		return
	}
	// El deadline de la operación no aplica al chequeo posterior al commit
	checkCtx := context.WithoutCancel(ctx)
	if uc.cfg.OpTimeout > 0 {
		var cancel context.CancelFunc
		checkCtx, cancel = context.WithTimeout(checkCtx, uc.cfg.OpTimeout)
		defer cancel()
	}
	if err := uc.monitor.CheckThresholds(checkCtx, item); err != nil {
		uc.log.Warn().Err(err).Str("item_id", item.ID).Msg("chequeo de umbrales falló; se reconciliará en la próxima corrida")
	}
}

func (uc *UseCase) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if uc.cfg.OpTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, uc.cfg.OpTimeout)
}

// retry reintenta fn solo ante condiciones transitorias, con backoff lineal.
func (uc *UseCase) retry(ctx context.Context, itemID string, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, domain.ErrTransient) || attempt >= uc.cfg.MaxRetries {
			return err
		}
		uc.log.Debug().Err(err).Str("item_id", itemID).Int("attempt", attempt+1).Msg("reintentando movimiento")
		wait := uc.cfg.RetryBackoff * time.Duration(attempt+1)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// classify traduce vencimientos de deadline a domain.ErrTimeout; el resto pasa sin tocar.
func (uc *UseCase) classify(ctx context.Context, err error) error {
	if errors.Is(err, domain.ErrTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("aplicar movimiento: %w", domain.ErrTimeout)
	}
	return err
}

// resolveSign valida cantidad y tipo y devuelve la dirección y la cantidad positiva a registrar.
func resolveSign(in MovementInput) (int8, int64, error) {
	if in.ItemID == "" {
		return 0, 0, domain.Validationf("item_id es obligatorio")
	}
	if !entity.IsValidMovementType(in.Type) {
		return 0, 0, domain.Validationf("tipo de movimiento desconocido %q", in.Type)
	}
	if in.Type == entity.MovementTypeAdjustment {
		switch {
		case in.Quantity > 0:
			return entity.DirectionIn, in.Quantity, nil
		case in.Quantity < 0:
			return entity.DirectionOut, -in.Quantity, nil
		default:
			return 0, 0, domain.Validationf("el ajuste requiere un delta distinto de cero")
		}
	}
	if in.Quantity <= 0 {
		return 0, 0, domain.Validationf("quantity debe ser mayor que cero")
	}
	return entity.DirectionFor(in.Type), in.Quantity, nil
}

// isCostBearing indica si el tipo de movimiento recalcula el costo promedio.
func isCostBearing(t string) bool {
	return t == entity.MovementTypeInitial || t == entity.MovementTypeIn
}
