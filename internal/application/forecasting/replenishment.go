package forecasting

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// GetReorderCandidates devuelve los ítems activos cuya cantidad está en o bajo su punto de reorden
// calculado, con la cantidad sugerida de pedido y una prioridad por déficit.
func (uc *UseCase) GetReorderCandidates(ctx context.Context) (*dto.ReorderReportDTO, error) {
	active := true
	const pageSize = 500

	candidates := []dto.ReorderCandidateDTO{}
	for offset := 0; ; offset += pageSize {
		page, err := uc.items.List(ctx, repository.ItemFilter{Active: &active, Limit: pageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		for _, item := range page {
			res, err := uc.compute(ctx, item, uc.defaultParams(item))
			if err != nil {
				return nil, fmt.Errorf("pronóstico de %s: %w", item.ID, err)
			}
			if c, ok := reorderCandidate(item, res); ok {
				candidates = append(candidates, c)
			}
		}
		if len(page) < pageSize {
			break
		}
	}

	// Mayor déficit primero; a igual déficit, menor stock y luego nombre para un orden estable
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Deficit != b.Deficit {
			return a.Deficit > b.Deficit
		}
		if a.CurrentStock != b.CurrentStock {
			return a.CurrentStock < b.CurrentStock
		}
		return a.Name < b.Name
	})

	total := decimal.Zero
	for i := range candidates {
		candidates[i].Priority = i + 1
		total = total.Add(candidates[i].EstimatedOrderCost)
	}

	return &dto.ReorderReportDTO{
		GeneratedAt: uc.now().UTC(),
		Period:      uc.cfg.Period,
		Candidates:  candidates,
		TotalCost:   total,
	}, nil
}

// ReorderReportPDF genera la lista de reposición como PDF.
func (uc *UseCase) ReorderReportPDF(ctx context.Context) ([]byte, error) {
	if uc.renderer == nil {
		return nil, fmt.Errorf("generador de reportes no configurado")
	}
	report, err := uc.GetReorderCandidates(ctx)
	if err != nil {
		return nil, err
	}
	return uc.renderer.RenderReorderReport(ctx, *report)
}

func reorderCandidate(item *entity.InventoryItem, res *entity.ForecastResult) (dto.ReorderCandidateDTO, bool) {
	rop := res.StockLevels.ReorderPoint
	if float64(item.QuantityInStock) > rop {
		return dto.ReorderCandidateDTO{}, false
	}
	suggested := int64(math.Ceil(res.StockLevels.EconomicOrderQuantity))
	if item.ReorderQuantity > suggested {
		suggested = item.ReorderQuantity
	}
	return dto.ReorderCandidateDTO{
		ItemID:             item.ID,
		Name:               item.Name,
		PartNumber:         item.PartNumber,
		CurrentStock:       item.QuantityInStock,
		ReorderPoint:       rop,
		SafetyStock:        res.StockLevels.SafetyStock,
		Deficit:            rop - float64(item.QuantityInStock),
		SuggestedOrderQty:  suggested,
		UnitCost:           item.UnitCost,
		EstimatedOrderCost: item.UnitCost.Mul(decimal.NewFromInt(suggested)),
		Trend:              res.Trend,
	}, true
}

// ToForecastDTO convierte el resultado a su representación de salida.
func ToForecastDTO(res *entity.ForecastResult) dto.ForecastDTO {
	return dto.ForecastDTO{
		ItemID:      res.ItemID,
		AsOf:        res.AsOf,
		Period:      res.Period,
		Demand:      ToDemandDTO(res.Demand),
		Trend:       res.Trend,
		Forecast:    res.Forecast,
		StockLevels: ToStockLevelsDTO(res.ItemID, res.StockLevels),
	}
}

// ToDemandDTO convierte la serie de demanda.
func ToDemandDTO(points []entity.DemandPoint) []dto.DemandPointDTO {
	out := make([]dto.DemandPointDTO, len(points))
	for i, p := range points {
		out[i] = dto.DemandPointDTO{PeriodStart: p.PeriodStart, Quantity: p.Quantity}
	}
	return out
}

// ToStockLevelsDTO convierte los niveles de reposición.
func ToStockLevelsDTO(itemID string, s entity.StockLevels) dto.StockLevelsDTO {
	return dto.StockLevelsDTO{
		ItemID:                itemID,
		AveragePeriodDemand:   s.AveragePeriodDemand,
		DemandStdDev:          s.DemandStdDev,
		AnnualDemand:          s.AnnualDemand,
		SafetyStock:           s.SafetyStock,
		ReorderPoint:          s.ReorderPoint,
		EconomicOrderQuantity: s.EconomicOrderQuantity,
	}
}
