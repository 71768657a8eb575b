// Package memory implementa los puertos de persistencia en memoria.
// Se usa en tests y con STORAGE_DRIVER=memory. Las transacciones acumulan sus escrituras
// y las aplican juntas en el Commit; cada ítem tiene su propio candado (equivalente a SELECT FOR UPDATE).
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// Store estado compartido de todos los repositorios en memoria.
type Store struct {
	mu        sync.RWMutex
	items     map[string]*entity.InventoryItem
	movements []*entity.Movement
	byItem    map[string][]*entity.Movement
	alerts    map[string]*entity.Alert
	seq       int64

	locksMu sync.Mutex
	locks   map[string]chan struct{}
}

// NewStore crea un almacenamiento vacío.
func NewStore() *Store {
	return &Store{
		items:  make(map[string]*entity.InventoryItem),
		byItem: make(map[string][]*entity.Movement),
		alerts: make(map[string]*entity.Alert),
		locks:  make(map[string]chan struct{}),
	}
}

// Items repositorio de ítems fuera de transacción.
func (s *Store) Items() *ItemRepo { return &ItemRepo{s: s} }

// Movements repositorio de movimientos fuera de transacción.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{s: s} }

// Alerts repositorio de alertas fuera de transacción.
func (s *Store) Alerts() *AlertRepo { return &AlertRepo{s: s} }

// TxRunner ejecutor de transacciones sobre este almacenamiento.
func (s *Store) TxRunner() *TxRunner { return &TxRunner{s: s} }

// lockItem toma el candado del ítem respetando el deadline del contexto.
func (s *Store) lockItem(ctx context.Context, id string) error {
	s.locksMu.Lock()
	ch, ok := s.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		// id puede apuntar al buffer de la petición HTTP
		s.locks[strings.Clone(id)] = ch
	}
	s.locksMu.Unlock()

	select {
	case ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) unlockItem(id string) {
	s.locksMu.Lock()
	ch := s.locks[id]
	s.locksMu.Unlock()
	<-ch
}

func cloneItem(i *entity.InventoryItem) *entity.InventoryItem {
	if i == nil {
		return nil
	}
	c := *i
	if i.SellingPrice != nil {
		p := *i.SellingPrice
		c.SellingPrice = &p
	}
	return &c
}

func cloneMovement(m *entity.Movement) *entity.Movement {
	c := *m
	return &c
}

func cloneAlert(a *entity.Alert) *entity.Alert {
	if a == nil {
		return nil
	}
	c := *a
	if a.ResolvedAt != nil {
		t := *a.ResolvedAt
		c.ResolvedAt = &t
	}
	return &c
}

// matchItem aplica ItemFilter (sin paginación).
func matchItem(it *entity.InventoryItem, f repository.ItemFilter) bool {
	if f.CategoryID != "" && it.CategoryID != f.CategoryID {
		return false
	}
	if f.Active != nil && it.IsActive != *f.Active {
		return false
	}
	if f.StockStatus != "" && it.StockStatus() != f.StockStatus {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(it.Name), q) && !strings.Contains(strings.ToLower(it.PartNumber), q) {
			return false
		}
	}
	return true
}

func paginateItems(list []*entity.InventoryItem, limit, offset int) []*entity.InventoryItem {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	if offset > len(list) {
		return []*entity.InventoryItem{}
	}
	list = list[offset:]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list
}

// matchMovement aplica MovementFilter. To es inclusivo.
func matchMovement(m *entity.Movement, f repository.MovementFilter) bool {
	if f.ItemID != "" && m.ItemID != f.ItemID {
		return false
	}
	if len(f.Types) > 0 {
		ok := false
		for _, t := range f.Types {
			if m.Type == t {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if f.From != nil && m.TransactionDate.Before(*f.From) {
		return false
	}
	if f.To != nil && m.TransactionDate.After(*f.To) {
		return false
	}
	if f.SupplierID != "" && m.SupplierID != f.SupplierID {
		return false
	}
	return true
}

func afterCursor(m *entity.Movement, c *repository.MovementCursor) bool {
	if c == nil {
		return true
	}
	if m.TransactionDate.Equal(c.Date) {
		return m.Seq > c.Seq
	}
	return m.TransactionDate.After(c.Date)
}

func sortMovements(list []*entity.Movement) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].TransactionDate.Equal(list[j].TransactionDate) {
			return list[i].TransactionDate.Before(list[j].TransactionDate)
		}
		return list[i].Seq < list[j].Seq
	})
}
