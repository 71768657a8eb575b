package ledger

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// MovementFilter filtros del historial de un ítem. To es inclusivo.
type MovementFilter struct {
	Types      []string
	From       *time.Time
	To         *time.Time
	SupplierID string
}

// ListMovements devuelve el historial del ítem ordenado por (fecha de transacción, orden de inserción).
// La secuencia es perezosa (páginas por keyset), finita y reiniciable: cada recorrido vuelve a consultar
// desde el principio. Un error corta el recorrido después de entregarse como último elemento.
func (uc *UseCase) ListMovements(ctx context.Context, itemID string, f MovementFilter) (iter.Seq2[*entity.Movement, error], error) {
	for _, t := range f.Types {
		if !entity.IsValidMovementType(t) {
			return nil, domain.Validationf("tipo de movimiento desconocido %q", t)
		}
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return nil, domain.Validationf("rango de fechas invertido")
	}
	item, err := uc.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("ítem %s: %w", itemID, domain.ErrNotFound)
	}

	filter := repository.MovementFilter{
		ItemID:     itemID,
		Types:      f.Types,
		From:       f.From,
		To:         f.To,
		SupplierID: f.SupplierID,
	}
	return uc.scan(ctx, filter), nil
}

// scan recorre el log con paginación por keyset sobre (transaction_date, seq).
func (uc *UseCase) scan(ctx context.Context, filter repository.MovementFilter) iter.Seq2[*entity.Movement, error] {
	pageSize := uc.cfg.PageSize
	return func(yield func(*entity.Movement, error) bool) {
		var cursor *repository.MovementCursor
		for {
			page, err := uc.movements.List(ctx, filter, cursor, pageSize)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, m := range page {
				if !yield(m, nil) {
					return
				}
			}
			if len(page) < pageSize {
				return
			}
			last := page[len(page)-1]
			cursor = &repository.MovementCursor{Date: last.TransactionDate, Seq: last.Seq}
		}
	}
}

// CollectMovements materializa una secuencia; útil para respuestas HTTP acotadas.
func CollectMovements(seq iter.Seq2[*entity.Movement, error]) ([]*entity.Movement, error) {
	out := []*entity.Movement{}
	for m, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
