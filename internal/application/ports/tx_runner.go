package ports

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de almacenamiento, pasando repositorios
// atados a esa transacción. Si fn devuelve error se hace Rollback; si no, Commit.
// Los adaptadores traducen contención de bloqueos a domain.ErrTransient y vencimiento
// del deadline a domain.ErrTimeout.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		items repository.ItemRepository,
		movements repository.MovementRepository,
		alerts repository.AlertRepository,
	) error) error
}
