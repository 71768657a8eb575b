package entity

import (
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// Tipos y estados de alerta.
const (
	AlertTypeLowStock   = "low_stock"
	AlertTypeOutOfStock = "out_of_stock"

	AlertStatusActive   = "active"
	AlertStatusResolved = "resolved"
)

// Alert alerta de umbral. Máquina de dos estados: active -> resolved.
type Alert struct {
	ID             string
	ItemID         string
	Type           string
	Status         string
	Message        string
	QuantityAtOpen int64
	CreatedAt      time.Time
	ResolutionNote string
	ResolvedBy     string
	ResolvedAt     *time.Time
}

// IsActive indica si la alerta sigue abierta.
func (a *Alert) IsActive() bool {
	return a.Status == AlertStatusActive
}

// Resolve cierra la alerta. Una alerta ya resuelta no se vuelve a resolver.
func (a *Alert) Resolve(note, by string, at time.Time) error {
	if !a.IsActive() {
		return domain.ErrInvalidState
	}
	a.Status = AlertStatusResolved
	a.ResolutionNote = note
	a.ResolvedBy = by
	a.ResolvedAt = &at
	return nil
}
