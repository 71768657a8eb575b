package memory

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// MovementRepo implementa repository.MovementRepository (append-only).
type MovementRepo struct {
	s  *Store
	tx *memTx
}

var _ repository.MovementRepository = (*MovementRepo)(nil)

// Create asigna ID y Seq. Los Seq descartados por un rollback no se reutilizan (como un BIGSERIAL).
func (r *MovementRepo) Create(_ context.Context, m *entity.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	m.Seq = atomic.AddInt64(&r.s.seq, 1)
	c := cloneMovement(m)

	if r.tx != nil {
		if r.tx.deleted[c.ItemID] {
			return fmt.Errorf("ítem %s: %w", c.ItemID, domain.ErrNotFound)
		}
		r.tx.movements = append(r.tx.movements, c)
		r.tx.ops = append(r.tx.ops, func(s *Store) { s.appendMovement(c) })
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[c.ItemID]; !ok {
		return fmt.Errorf("ítem %s: %w", c.ItemID, domain.ErrNotFound)
	}
	r.s.appendMovement(c)
	return nil
}

func (r *MovementRepo) GetByID(_ context.Context, id string) (*entity.Movement, error) {
	for _, m := range r.visible("") {
		if m.ID == id {
			return cloneMovement(m), nil
		}
	}
	return nil, nil
}

func (r *MovementRepo) CountByItem(_ context.Context, itemID string) (int64, error) {
	return int64(len(r.visible(itemID))), nil
}

func (r *MovementRepo) LastSeq(_ context.Context, itemID string) (int64, error) {
	var last int64
	for _, m := range r.visible(itemID) {
		if m.Seq > last {
			last = m.Seq
		}
	}
	return last, nil
}

func (r *MovementRepo) List(_ context.Context, filter repository.MovementFilter, after *repository.MovementCursor, limit int) ([]*entity.Movement, error) {
	var out []*entity.Movement
	for _, m := range r.visible(filter.ItemID) {
		if matchMovement(m, filter) && afterCursor(m, after) {
			out = append(out, m)
		}
	}
	sortMovements(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for i, m := range out {
		out[i] = cloneMovement(m)
	}
	return out, nil
}

// visible movimientos confirmados más los propios de la transacción. itemID vacío = todos.
func (r *MovementRepo) visible(itemID string) []*entity.Movement {
	r.s.mu.RLock()
	var src []*entity.Movement
	if itemID == "" {
		src = r.s.movements
	} else {
		src = r.s.byItem[itemID]
	}
	out := make([]*entity.Movement, len(src))
	copy(out, src)
	r.s.mu.RUnlock()

	if r.tx != nil {
		for _, m := range r.tx.movements {
			if itemID == "" || m.ItemID == itemID {
				out = append(out, m)
			}
		}
	}
	return out
}

func (tx *memTx) movementsOf(itemID string) []*entity.Movement {
	repo := &MovementRepo{s: tx.s, tx: tx}
	return repo.visible(itemID)
}

// appendMovement requiere s.mu tomado.
func (s *Store) appendMovement(m *entity.Movement) {
	s.movements = append(s.movements, m)
	s.byItem[m.ItemID] = append(s.byItem[m.ItemID], m)
}
