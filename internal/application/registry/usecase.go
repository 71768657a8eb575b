package registry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/application/ports"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// MovementApplier es lo que el registro necesita del ledger para cargar el stock inicial.
type MovementApplier interface {
	ApplyMovement(ctx context.Context, in ledger.MovementInput) (*entity.Movement, error)
}

// Config reglas de unicidad del catálogo.
type Config struct {
	UniqueName       bool
	UniquePartNumber bool
}

// UseCase casos de uso del catálogo de ítems. La cantidad nunca se escribe aquí: se maneja vía movimientos.
type UseCase struct {
	txRunner ports.TxRunner
	items    repository.ItemRepository
	ledger   MovementApplier
	cfg      Config
	log      *logger.Logger
	now      func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	txRunner ports.TxRunner,
	items repository.ItemRepository,
	ledger MovementApplier,
	cfg Config,
	log *logger.Logger,
) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{
		txRunner: txRunner,
		items:    items,
		ledger:   ledger,
		cfg:      cfg,
		log:      log.Named("registry"),
		now:      time.Now,
	}
}

// CreateItem da de alta un ítem con cantidad 0. Si InitialQuantity > 0 aplica un movimiento "initial".
func (uc *UseCase) CreateItem(ctx context.Context, actor string, in dto.CreateItemRequest) (*dto.ItemResponse, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.PartNumber = strings.TrimSpace(in.PartNumber)
	if in.Name == "" {
		return nil, domain.Validationf("name es obligatorio")
	}
	if strings.TrimSpace(in.CategoryID) == "" {
		return nil, domain.Validationf("category_id es obligatorio")
	}
	if err := validateAmounts(in.UnitCost, in.SellingPrice, in.ReorderThreshold, in.ReorderQuantity); err != nil {
		return nil, err
	}
	if in.InitialQuantity < 0 {
		return nil, domain.Validationf("initial_quantity no puede ser negativa")
	}
	now := uc.now().UTC()
	item := &entity.InventoryItem{
		ID:               uuid.New().String(),
		Name:             in.Name,
		PartNumber:       in.PartNumber,
		CategoryID:       in.CategoryID,
		SupplierID:       in.SupplierID,
		Description:      in.Description,
		UnitCost:         in.UnitCost,
		SellingPrice:     in.SellingPrice,
		QuantityInStock:  0,
		ReorderThreshold: in.ReorderThreshold,
		ReorderQuantity:  in.ReorderQuantity,
		Location:         in.Location,
		Notes:            in.Notes,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	err := uc.txRunner.Run(ctx, func(items repository.ItemRepository, _ repository.MovementRepository, _ repository.AlertRepository) error {
		if err := uc.lockUniqueKeys(ctx, items, item.Name, item.PartNumber); err != nil {
			return err
		}
		if err := uc.checkUnique(ctx, items, "", item.Name, item.PartNumber); err != nil {
			return err
		}
		return items.Create(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	if in.InitialQuantity > 0 {
		cost := in.UnitCost
		_, err := uc.ledger.ApplyMovement(ctx, ledger.MovementInput{
			ItemID:          item.ID,
			Type:            entity.MovementTypeInitial,
			Quantity:        in.InitialQuantity,
			UnitCost:        &cost,
			TransactionDate: now,
			SupplierID:      in.SupplierID,
			Actor:           actor,
			Notes:           "stock inicial",
		})
		if err != nil {
			// Sin movimiento el ítem no tiene historial: se puede retirar sin romper el log
			if derr := uc.items.Delete(ctx, item.ID); derr != nil {
				uc.log.Error().Err(derr).Str("item_id", item.ID).Msg("no se pudo revertir el alta del ítem")
			}
			return nil, fmt.Errorf("stock inicial: %w", err)
		}
	}

	created, err := uc.items.GetByID(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	if created == nil {
		created = item
	}
	uc.log.Info().Str("item_id", item.ID).Str("name", item.Name).Int64("initial_quantity", in.InitialQuantity).Msg("ítem creado")
	resp := dto.ItemFromEntity(created)
	return &resp, nil
}

// GetItem obtiene un ítem por ID.
func (uc *UseCase) GetItem(ctx context.Context, id string) (*dto.ItemResponse, error) {
	item, err := uc.getItem(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.ItemFromEntity(item)
	return &resp, nil
}

// ListItems lista ítems con filtros y paginación.
func (uc *UseCase) ListItems(ctx context.Context, in dto.ItemListRequest) (*dto.ItemListResponse, error) {
	page := dto.PageRequest{Limit: in.Limit, Offset: in.Offset}
	page.DefaultPage()
	if page.Limit > 100 {
		page.Limit = 100
	}
	switch in.StockStatus {
	case "", entity.StockStatusOutOfStock, entity.StockStatusLowStock, entity.StockStatusInStock:
	default:
		return nil, domain.Validationf("stock_status inválido %q", in.StockStatus)
	}
	list, err := uc.items.List(ctx, repository.ItemFilter{
		CategoryID:  in.CategoryID,
		Active:      in.Active,
		StockStatus: in.StockStatus,
		Search:      strings.TrimSpace(in.Search),
		Limit:       page.Limit,
		Offset:      page.Offset,
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.ItemResponse, 0, len(list))
	for _, it := range list {
		out = append(out, dto.ItemFromEntity(it))
	}
	return &dto.ItemListResponse{
		Items: out,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: len(out)},
	}, nil
}

// UpdateItem modifica atributos maestros. La cantidad en stock no es editable.
// El ítem se lee bloqueado para no pisar el costo que recalcula un movimiento concurrente.
func (uc *UseCase) UpdateItem(ctx context.Context, id string, in dto.UpdateItemRequest) (*dto.ItemResponse, error) {
	var updated *entity.InventoryItem
	err := uc.txRunner.Run(ctx, func(items repository.ItemRepository, _ repository.MovementRepository, _ repository.AlertRepository) error {
		item, err := items.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("ítem %s: %w", id, domain.ErrNotFound)
		}
		if err := applyUpdate(item, in); err != nil {
			return err
		}
		if err := uc.lockUniqueKeys(ctx, items, item.Name, item.PartNumber); err != nil {
			return err
		}
		if err := uc.checkUnique(ctx, items, item.ID, item.Name, item.PartNumber); err != nil {
			return err
		}
		item.UpdatedAt = uc.now().UTC()
		if err := items.Update(ctx, item); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := dto.ItemFromEntity(updated)
	return &resp, nil
}

func applyUpdate(item *entity.InventoryItem, in dto.UpdateItemRequest) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return domain.Validationf("name no puede quedar vacío")
		}
		item.Name = name
	}
	if in.PartNumber != nil {
		item.PartNumber = strings.TrimSpace(*in.PartNumber)
	}
	if in.CategoryID != nil {
		if strings.TrimSpace(*in.CategoryID) == "" {
			return domain.Validationf("category_id no puede quedar vacío")
		}
		item.CategoryID = *in.CategoryID
	}
	if in.SupplierID != nil {
		item.SupplierID = *in.SupplierID
	}
	if in.Description != nil {
		item.Description = *in.Description
	}
	if in.UnitCost != nil {
		item.UnitCost = *in.UnitCost
	}
	if in.SellingPrice != nil {
		item.SellingPrice = in.SellingPrice
	}
	if in.ReorderThreshold != nil {
		item.ReorderThreshold = *in.ReorderThreshold
	}
	if in.ReorderQuantity != nil {
		item.ReorderQuantity = *in.ReorderQuantity
	}
	if in.Location != nil {
		item.Location = *in.Location
	}
	if in.Notes != nil {
		item.Notes = *in.Notes
	}
	return validateAmounts(item.UnitCost, item.SellingPrice, item.ReorderThreshold, item.ReorderQuantity)
}

// Deactivate marca el ítem como inactivo. No toca cantidad ni historial.
func (uc *UseCase) Deactivate(ctx context.Context, id string) error {
	return uc.setActive(ctx, id, false)
}

// Reactivate vuelve a activar un ítem.
func (uc *UseCase) Reactivate(ctx context.Context, id string) error {
	return uc.setActive(ctx, id, true)
}

func (uc *UseCase) setActive(ctx context.Context, id string, active bool) error {
	if _, err := uc.getItem(ctx, id); err != nil {
		return err
	}
	if err := uc.items.SetActive(ctx, id, active); err != nil {
		return err
	}
	uc.log.Info().Str("item_id", id).Bool("active", active).Msg("estado del ítem cambiado")
	return nil
}

// DeleteItem elimina un ítem sin movimientos. Con historial falla con domain.ErrConflict:
// el log es append-only y no puede quedar huérfano.
func (uc *UseCase) DeleteItem(ctx context.Context, id string) error {
	return uc.txRunner.Run(ctx, func(
		items repository.ItemRepository,
		movements repository.MovementRepository,
		_ repository.AlertRepository,
	) error {
		item, err := items.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("ítem %s: %w", id, domain.ErrNotFound)
		}
		n, err := movements.CountByItem(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("ítem %s tiene %d movimientos: %w", id, n, domain.ErrConflict)
		}
		return items.Delete(ctx, id)
	})
}

// ValuationReport valoriza el inventario (cantidad × costo unitario) con totales por categoría.
func (uc *UseCase) ValuationReport(ctx context.Context, in dto.ValuationRequest) (*dto.ValuationReportDTO, error) {
	report := &dto.ValuationReportDTO{
		CategoryID:       in.CategoryID,
		IncludeZeroStock: in.IncludeZeroStock,
		Items:            []dto.ItemResponse{},
		Totals:           dto.ValuationTotalsDTO{Value: decimal.Zero},
		ByCategory:       []dto.CategoryValuationDTO{},
	}
	byCategory := map[string]*dto.CategoryValuationDTO{}
	var order []string

	const pageSize = 500
	for offset := 0; ; offset += pageSize {
		page, err := uc.items.List(ctx, repository.ItemFilter{CategoryID: in.CategoryID, Limit: pageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		for _, it := range page {
			if !in.IncludeZeroStock && it.QuantityInStock <= 0 {
				continue
			}
			value := it.StockValue()
			report.Items = append(report.Items, dto.ItemFromEntity(it))
			report.Totals.Items++
			report.Totals.Quantity += it.QuantityInStock
			report.Totals.Value = report.Totals.Value.Add(value)

			cat, ok := byCategory[it.CategoryID]
			if !ok {
				cat = &dto.CategoryValuationDTO{CategoryID: it.CategoryID, ValuationTotalsDTO: dto.ValuationTotalsDTO{Value: decimal.Zero}}
				byCategory[it.CategoryID] = cat
				order = append(order, it.CategoryID)
			}
			cat.Items++
			cat.Quantity += it.QuantityInStock
			cat.Value = cat.Value.Add(value)
		}
		if len(page) < pageSize {
			break
		}
	}
	for _, id := range order {
		report.ByCategory = append(report.ByCategory, *byCategory[id])
	}
	return report, nil
}

func (uc *UseCase) getItem(ctx context.Context, id string) (*entity.InventoryItem, error) {
	item, err := uc.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("ítem %s: %w", id, domain.ErrNotFound)
	}
	return item, nil
}

// lockUniqueKeys serializa hasta el fin de la transacción las altas y cambios que compiten por
// el mismo nombre o número de parte. Siempre en el mismo orden: nombre y luego número de parte.
func (uc *UseCase) lockUniqueKeys(ctx context.Context, items repository.ItemRepository, name, partNumber string) error {
	if uc.cfg.UniqueName {
		if err := items.LockKey(ctx, "item-name:"+strings.ToLower(name)); err != nil {
			return err
		}
	}
	if uc.cfg.UniquePartNumber && partNumber != "" {
		if err := items.LockKey(ctx, "item-part:"+partNumber); err != nil {
			return err
		}
	}
	return nil
}

// checkUnique aplica las reglas de unicidad configuradas. selfID excluye al propio ítem en updates.
func (uc *UseCase) checkUnique(ctx context.Context, items repository.ItemRepository, selfID, name, partNumber string) error {
	if uc.cfg.UniqueName {
		existing, err := items.GetByName(ctx, name)
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != selfID {
			return fmt.Errorf("%w: nombre %q", domain.ErrDuplicate, name)
		}
	}
	if uc.cfg.UniquePartNumber && partNumber != "" {
		existing, err := items.GetByPartNumber(ctx, partNumber)
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != selfID {
			return fmt.Errorf("%w: número de parte %q", domain.ErrDuplicate, partNumber)
		}
	}
	return nil
}

func validateAmounts(unitCost decimal.Decimal, sellingPrice *decimal.Decimal, threshold, reorderQty int64) error {
	if unitCost.IsNegative() {
		return domain.Validationf("unit_cost no puede ser negativo")
	}
	if sellingPrice != nil && sellingPrice.IsNegative() {
		return domain.Validationf("selling_price no puede ser negativo")
	}
	if threshold < 0 {
		return domain.Validationf("reorder_threshold no puede ser negativo")
	}
	if reorderQty < 0 {
		return domain.Validationf("reorder_quantity no puede ser negativa")
	}
	return nil
}
