package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// ItemRepo implementa repository.ItemRepository. tx nil = escritura directa.
type ItemRepo struct {
	s  *Store
	tx *memTx
}

var _ repository.ItemRepository = (*ItemRepo)(nil)

func (r *ItemRepo) Create(_ context.Context, item *entity.InventoryItem) error {
	c := cloneItem(item)
	if r.tx != nil {
		r.tx.items[c.ID] = c
		delete(r.tx.deleted, c.ID)
		r.tx.ops = append(r.tx.ops, func(s *Store) { s.items[c.ID] = cloneItem(c) })
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[c.ID]; ok {
		return fmt.Errorf("ítem %s: %w", c.ID, domain.ErrDuplicate)
	}
	r.s.items[c.ID] = c
	return nil
}

func (r *ItemRepo) GetByID(_ context.Context, id string) (*entity.InventoryItem, error) {
	if r.tx != nil {
		if r.tx.deleted[id] {
			return nil, nil
		}
		if it, ok := r.tx.items[id]; ok {
			return cloneItem(it), nil
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return cloneItem(r.s.items[id]), nil
}

// GetForUpdate toma el candado del ítem hasta el fin de la transacción.
func (r *ItemRepo) GetForUpdate(ctx context.Context, id string) (*entity.InventoryItem, error) {
	if r.tx == nil {
		return nil, fmt.Errorf("GetForUpdate requiere una transacción")
	}
	if err := r.tx.lock(ctx, id); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// LockKey comparte el mapa de candados de ítems con un prefijo propio.
func (r *ItemRepo) LockKey(ctx context.Context, key string) error {
	if r.tx == nil {
		return nil
	}
	return r.tx.lock(ctx, "key:"+key)
}

func (r *ItemRepo) GetByName(ctx context.Context, name string) (*entity.InventoryItem, error) {
	return r.findOne(ctx, func(it *entity.InventoryItem) bool { return strings.EqualFold(it.Name, name) })
}

func (r *ItemRepo) GetByPartNumber(ctx context.Context, partNumber string) (*entity.InventoryItem, error) {
	if partNumber == "" {
		return nil, nil
	}
	return r.findOne(ctx, func(it *entity.InventoryItem) bool { return it.PartNumber == partNumber })
}

func (r *ItemRepo) findOne(ctx context.Context, match func(*entity.InventoryItem) bool) (*entity.InventoryItem, error) {
	for _, it := range r.snapshot() {
		if match(it) {
			return it, nil
		}
	}
	return nil, nil
}

// Update reemplaza los atributos maestros. Cantidad, estado activo y fecha de alta no se tocan.
func (r *ItemRepo) Update(_ context.Context, item *entity.InventoryItem) error {
	c := cloneItem(item)
	return r.patch(item.ID, func(dst *entity.InventoryItem) {
		qty, active, created := dst.QuantityInStock, dst.IsActive, dst.CreatedAt
		*dst = *cloneItem(c)
		dst.QuantityInStock, dst.IsActive, dst.CreatedAt = qty, active, created
	})
}

// UpdateStock es de uso exclusivo del ledger.
func (r *ItemRepo) UpdateStock(_ context.Context, id string, quantity int64, unitCost decimal.Decimal) error {
	return r.patch(id, func(dst *entity.InventoryItem) {
		dst.QuantityInStock = quantity
		dst.UnitCost = unitCost
	})
}

func (r *ItemRepo) SetActive(_ context.Context, id string, active bool) error {
	return r.patch(id, func(dst *entity.InventoryItem) { dst.IsActive = active })
}

// patch modifica campos puntuales. En transacción se aplica sobre el estado vigente al Commit.
func (r *ItemRepo) patch(id string, apply func(*entity.InventoryItem)) error {
	if r.tx != nil {
		current, _ := r.GetByID(context.Background(), id)
		if current == nil {
			return fmt.Errorf("ítem %s: %w", id, domain.ErrNotFound)
		}
		apply(current)
		r.tx.items[id] = current
		r.tx.ops = append(r.tx.ops, func(s *Store) {
			if dst, ok := s.items[id]; ok {
				apply(dst)
			}
		})
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	dst, ok := r.s.items[id]
	if !ok {
		return fmt.Errorf("ítem %s: %w", id, domain.ErrNotFound)
	}
	apply(dst)
	return nil
}

func (r *ItemRepo) List(_ context.Context, filter repository.ItemFilter) ([]*entity.InventoryItem, error) {
	var out []*entity.InventoryItem
	for _, it := range r.snapshot() {
		if matchItem(it, filter) {
			out = append(out, it)
		}
	}
	return paginateItems(out, filter.Limit, filter.Offset), nil
}

// Delete falla con domain.ErrConflict si el ítem tiene movimientos (equivalente a la FK).
func (r *ItemRepo) Delete(_ context.Context, id string) error {
	if r.tx != nil {
		if len(r.tx.movementsOf(id)) > 0 {
			return fmt.Errorf("ítem %s con movimientos: %w", id, domain.ErrConflict)
		}
		delete(r.tx.items, id)
		r.tx.deleted[id] = true
		r.tx.ops = append(r.tx.ops, func(s *Store) { s.deleteItem(id) })
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[id]; !ok {
		return fmt.Errorf("ítem %s: %w", id, domain.ErrNotFound)
	}
	if len(r.s.byItem[id]) > 0 {
		return fmt.Errorf("ítem %s con movimientos: %w", id, domain.ErrConflict)
	}
	r.s.deleteItem(id)
	return nil
}

// snapshot copia de todos los ítems visibles (almacenamiento + vista de la transacción).
func (r *ItemRepo) snapshot() []*entity.InventoryItem {
	r.s.mu.RLock()
	all := make(map[string]*entity.InventoryItem, len(r.s.items))
	for id, it := range r.s.items {
		all[id] = cloneItem(it)
	}
	r.s.mu.RUnlock()
	if r.tx != nil {
		for id := range r.tx.deleted {
			delete(all, id)
		}
		for id, it := range r.tx.items {
			all[id] = cloneItem(it)
		}
	}
	out := make([]*entity.InventoryItem, 0, len(all))
	for _, it := range all {
		out = append(out, it)
	}
	return out
}

// deleteItem borra el ítem y sus alertas (ON DELETE CASCADE). Requiere s.mu tomado.
func (s *Store) deleteItem(id string) {
	delete(s.items, id)
	for aid, a := range s.alerts {
		if a.ItemID == id {
			delete(s.alerts, aid)
		}
	}
}
