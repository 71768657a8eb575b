package inventory

import "github.com/shopspring/decimal"

// WeightedAverageCost implementa el costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
// Con stock resultante <= 0 conserva el costo de la entrada.
func WeightedAverageCost(stockQty int64, currentCost decimal.Decimal, inQty int64, inCost decimal.Decimal) decimal.Decimal {
	if stockQty < 0 {
		stockQty = 0
	}
	sum := stockQty + inQty
	if sum <= 0 {
		return inCost
	}
	num := decimal.NewFromInt(stockQty).Mul(currentCost).Add(decimal.NewFromInt(inQty).Mul(inCost))
	return num.Div(decimal.NewFromInt(sum)).Round(4)
}
