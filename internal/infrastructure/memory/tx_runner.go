package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// TxRunner implementa ports.TxRunner: escrituras acumuladas y aplicadas juntas en el Commit.
type TxRunner struct {
	s *Store
}

// memTx transacción en curso. ops se aplican en orden en el Commit; las vistas sirven a las lecturas
// de la propia transacción.
type memTx struct {
	s         *Store
	held      map[string]bool
	ops       []func(s *Store)
	items     map[string]*entity.InventoryItem // vista local de ítems tocados
	deleted   map[string]bool
	movements []*entity.Movement
	alerts    map[string]*entity.Alert
}

// Run ejecuta fn con repos atados a la transacción. Si fn falla, nada se aplica.
func (r *TxRunner) Run(ctx context.Context, fn func(
	items repository.ItemRepository,
	movements repository.MovementRepository,
	alerts repository.AlertRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memTx{
		s:       r.s,
		held:    make(map[string]bool),
		items:   make(map[string]*entity.InventoryItem),
		deleted: make(map[string]bool),
		alerts:  make(map[string]*entity.Alert),
	}
	defer tx.release()

	if err := fn(&ItemRepo{s: r.s, tx: tx}, &MovementRepo{s: r.s, tx: tx}, &AlertRepo{s: r.s, tx: tx}); err != nil {
		return err
	}
	// Un deadline vencido durante fn equivale a un rollback
	if err := ctx.Err(); err != nil {
		return err
	}
	return tx.commit()
}

func (tx *memTx) lock(ctx context.Context, id string) error {
	if tx.held[id] {
		return nil
	}
	if err := tx.s.lockItem(ctx, id); err != nil {
		return err
	}
	tx.held[strings.Clone(id)] = true
	return nil
}

func (tx *memTx) release() {
	for id := range tx.held {
		tx.s.unlockItem(id)
	}
	tx.held = nil
}

func (tx *memTx) commit() error {
	s := tx.s
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validar antes de aplicar para que el commit sea todo o nada
	for _, a := range tx.alerts {
		if a.IsActive() && s.activeAlertExists(a.ItemID, a.Type, a.ID) {
			return fmt.Errorf("alerta %s/%s: %w", a.ItemID, a.Type, domain.ErrDuplicate)
		}
	}
	for id := range tx.deleted {
		if len(s.byItem[id]) > 0 {
			return fmt.Errorf("ítem %s con movimientos: %w", id, domain.ErrConflict)
		}
	}
	for _, op := range tx.ops {
		op(s)
	}
	return nil
}
