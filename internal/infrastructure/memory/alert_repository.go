package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// AlertRepo implementa repository.AlertRepository.
type AlertRepo struct {
	s  *Store
	tx *memTx
}

var _ repository.AlertRepository = (*AlertRepo)(nil)

// Create falla con domain.ErrDuplicate si ya hay una activa del mismo tipo (índice único parcial).
func (r *AlertRepo) Create(_ context.Context, alert *entity.Alert) error {
	c := cloneAlert(alert)
	if r.tx != nil {
		if r.activeInView(c.ItemID, c.Type) != nil {
			return fmt.Errorf("alerta %s/%s: %w", c.ItemID, c.Type, domain.ErrDuplicate)
		}
		r.tx.alerts[c.ID] = c
		r.tx.ops = append(r.tx.ops, func(s *Store) { s.alerts[c.ID] = cloneAlert(c) })
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[c.ItemID]; !ok {
		return fmt.Errorf("ítem %s: %w", c.ItemID, domain.ErrNotFound)
	}
	if c.IsActive() && r.s.activeAlertExists(c.ItemID, c.Type, "") {
		return fmt.Errorf("alerta %s/%s: %w", c.ItemID, c.Type, domain.ErrDuplicate)
	}
	r.s.alerts[c.ID] = c
	return nil
}

func (r *AlertRepo) GetByID(_ context.Context, id string) (*entity.Alert, error) {
	for _, a := range r.view() {
		if a.ID == id {
			return cloneAlert(a), nil
		}
	}
	return nil, nil
}

func (r *AlertRepo) GetActive(_ context.Context, itemID, alertType string) (*entity.Alert, error) {
	return cloneAlert(r.activeInView(itemID, alertType)), nil
}

// ListActive ordenadas por fecha de creación.
func (r *AlertRepo) ListActive(_ context.Context, itemID string) ([]*entity.Alert, error) {
	out := []*entity.Alert{}
	for _, a := range r.view() {
		if a.IsActive() && (itemID == "" || a.ItemID == itemID) {
			out = append(out, cloneAlert(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// MarkResolved actualización condicional: solo si la alerta sigue activa.
func (r *AlertRepo) MarkResolved(_ context.Context, alert *entity.Alert) error {
	c := cloneAlert(alert)
	if r.tx != nil {
		current := r.find(c.ID)
		if current == nil {
			return fmt.Errorf("alerta %s: %w", c.ID, domain.ErrNotFound)
		}
		if !current.IsActive() {
			return fmt.Errorf("alerta %s: %w", c.ID, domain.ErrInvalidState)
		}
		r.tx.alerts[c.ID] = c
		r.tx.ops = append(r.tx.ops, func(s *Store) { s.alerts[c.ID] = cloneAlert(c) })
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.alerts[c.ID]
	if !ok {
		return fmt.Errorf("alerta %s: %w", c.ID, domain.ErrNotFound)
	}
	if !current.IsActive() {
		return fmt.Errorf("alerta %s: %w", c.ID, domain.ErrInvalidState)
	}
	r.s.alerts[c.ID] = c
	return nil
}

func (r *AlertRepo) find(id string) *entity.Alert {
	for _, a := range r.view() {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (r *AlertRepo) activeInView(itemID, alertType string) *entity.Alert {
	for _, a := range r.view() {
		if a.IsActive() && a.ItemID == itemID && a.Type == alertType {
			return a
		}
	}
	return nil
}

// view alertas confirmadas con la vista de la transacción superpuesta.
func (r *AlertRepo) view() []*entity.Alert {
	r.s.mu.RLock()
	all := make(map[string]*entity.Alert, len(r.s.alerts))
	for id, a := range r.s.alerts {
		all[id] = cloneAlert(a)
	}
	r.s.mu.RUnlock()
	if r.tx != nil {
		for id, a := range r.tx.alerts {
			all[id] = a
		}
	}
	out := make([]*entity.Alert, 0, len(all))
	for _, a := range all {
		out = append(out, a)
	}
	return out
}

// activeAlertExists requiere s.mu tomado. exceptID excluye una alerta concreta.
func (s *Store) activeAlertExists(itemID, alertType, exceptID string) bool {
	for id, a := range s.alerts {
		if id != exceptID && a.IsActive() && a.ItemID == itemID && a.Type == alertType {
			return true
		}
	}
	return false
}
