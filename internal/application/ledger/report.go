package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// MovementReport agrega los movimientos de un rango de fechas (ambas inclusivas, por día UTC):
// totales de costo por tipo y agrupaciones por tipo, categoría, ítem y día.
func (uc *UseCase) MovementReport(ctx context.Context, in dto.MovementReportRequest) (*dto.MovementReportDTO, error) {
	if in.Type != "" && !entity.IsValidMovementType(in.Type) {
		return nil, domain.Validationf("tipo de movimiento desconocido %q", in.Type)
	}
	if in.To.Before(in.From) {
		return nil, domain.Validationf("rango de fechas invertido")
	}
	from := dayStart(in.From)
	to := dayStart(in.To).Add(24*time.Hour - time.Nanosecond)

	filter := repository.MovementFilter{From: &from, To: &to}
	if in.Type != "" {
		filter.Types = []string{in.Type}
	}

	// Nombre y categoría por ítem, resueltos una vez por reporte
	itemCache := map[string]*entity.InventoryItem{}
	lookup := func(id string) (*entity.InventoryItem, error) {
		if it, ok := itemCache[id]; ok {
			return it, nil
		}
		it, err := uc.items.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		itemCache[id] = it
		return it, nil
	}

	report := &dto.MovementReportDTO{
		From:       from,
		To:         dayStart(in.To),
		Type:       in.Type,
		CategoryID: in.CategoryID,
		Totals: dto.MovementTotalsDTO{
			In: decimal.Zero, Out: decimal.Zero, Use: decimal.Zero, Net: decimal.Zero,
		},
	}
	byType := newGrouping()
	byCategory := newGrouping()
	byItem := newGrouping()
	byDate := newGrouping()

	for m, err := range uc.scan(ctx, filter) {
		if err != nil {
			return nil, err
		}
		item, err := lookup(m.ItemID)
		if err != nil {
			return nil, err
		}
		categoryID, itemName := "", m.ItemID
		if item != nil {
			categoryID, itemName = item.CategoryID, item.Name
		}
		if in.CategoryID != "" && categoryID != in.CategoryID {
			continue
		}

		report.Totals.Count++
		switch m.Type {
		case entity.MovementTypeIn:
			report.Totals.In = report.Totals.In.Add(m.TotalCost)
		case entity.MovementTypeOut:
			report.Totals.Out = report.Totals.Out.Add(m.TotalCost)
		case entity.MovementTypeUse:
			report.Totals.Use = report.Totals.Use.Add(m.TotalCost)
		}
		byType.add(m.Type, m)
		byCategory.add(categoryID, m)
		byItem.add(itemName, m)
		byDate.add(m.TransactionDate.UTC().Format("2006-01-02"), m)
	}
	report.Totals.Net = report.Totals.In.Sub(report.Totals.Out).Sub(report.Totals.Use)
	report.ByType = byType.sorted()
	report.ByCategory = byCategory.sorted()
	report.ByItem = byItem.sorted()
	report.ByDate = byDate.sorted()
	return report, nil
}

type grouping map[string]*dto.MovementGroupDTO

func newGrouping() grouping { return grouping{} }

func (g grouping) add(key string, m *entity.Movement) {
	grp, ok := g[key]
	if !ok {
		grp = &dto.MovementGroupDTO{Key: key, TotalCost: decimal.Zero}
		g[key] = grp
	}
	grp.Count++
	grp.TotalQuantity += m.Quantity
	grp.TotalCost = grp.TotalCost.Add(m.TotalCost)
}

func (g grouping) sorted() []dto.MovementGroupDTO {
	out := make([]dto.MovementGroupDTO, 0, len(g))
	for _, grp := range g {
		out = append(out, *grp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
