package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del ledger.
const (
	MovementTypeInitial    = "initial"    // carga inicial (+)
	MovementTypeIn         = "in"         // entrada (+)
	MovementTypeReturn     = "return"     // devolución (+)
	MovementTypeOut        = "out"        // salida (-)
	MovementTypeUse        = "use"        // consumo interno (-)
	MovementTypeAdjustment = "adjustment" // ajuste con signo explícito
)

// MovementTypes lista cerrada de tipos aceptados.
var MovementTypes = []string{
	MovementTypeInitial, MovementTypeIn, MovementTypeReturn,
	MovementTypeOut, MovementTypeUse, MovementTypeAdjustment,
}

// Direcciones de un movimiento. Quantity siempre es positiva; el signo vive en Direction.
const (
	DirectionIn  int8 = 1
	DirectionOut int8 = -1
)

// Movement entrada inmutable del ledger. Las correcciones se hacen con un ajuste compensatorio.
type Movement struct {
	ID              string
	Seq             int64 // orden de inserción, asignado por el almacenamiento
	ItemID          string
	Type            string
	Quantity        int64 // siempre > 0
	Direction       int8  // +1 / -1
	UnitCost        decimal.Decimal
	TotalCost       decimal.Decimal // Quantity * UnitCost
	TransactionDate time.Time
	SupplierID      string
	CreatedBy       string
	Notes           string
	CreatedAt       time.Time
}

// Delta efecto firmado sobre la cantidad del ítem.
func (m *Movement) Delta() int64 {
	return int64(m.Direction) * m.Quantity
}

// IsDemand indica si el movimiento cuenta como demanda (solo out y use).
func (m *Movement) IsDemand() bool {
	return m.Type == MovementTypeOut || m.Type == MovementTypeUse
}

// IsValidMovementType verifica que t pertenezca a la lista cerrada de tipos.
func IsValidMovementType(t string) bool {
	for _, mt := range MovementTypes {
		if mt == t {
			return true
		}
	}
	return false
}

// DirectionFor resuelve el signo fijo de un tipo. Para adjustment devuelve 0: lo decide el caller.
func DirectionFor(t string) int8 {
	switch t {
	case MovementTypeInitial, MovementTypeIn, MovementTypeReturn:
		return DirectionIn
	case MovementTypeOut, MovementTypeUse:
		return DirectionOut
	default:
		return 0
	}
}
