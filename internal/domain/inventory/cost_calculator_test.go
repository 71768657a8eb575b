package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestWeightedAverageCost(t *testing.T) {
	tests := []struct {
		name     string
		stock    int64
		current  string
		inQty    int64
		inCost   string
		expected string
	}{
		{"sin stock previo toma el costo de entrada", 0, "0", 10, "5.50", "5.5"},
		{"promedio simple", 10, "10", 10, "20", "15"},
		{"ponderado por cantidad", 30, "2", 10, "6", "3"},
		{"redondeo a 4 decimales", 2, "1", 1, "2", "1.3333"},
		{"stock negativo se trata como cero", -5, "100", 4, "3", "3"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := WeightedAverageCost(tc.stock, decimal.RequireFromString(tc.current), tc.inQty, decimal.RequireFromString(tc.inCost))
			assert.True(t, decimal.RequireFromString(tc.expected).Equal(got), "esperado %s, obtenido %s", tc.expected, got)
		})
	}
}
