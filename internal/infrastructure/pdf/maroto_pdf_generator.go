// Package pdf genera el reporte de reposición en PDF con Maroto v2.
//
// Layout de la página A4 (apaisada):
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: título + período  │  fecha de generación            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: # | Ítem | Stock | ROP | Seguridad | Déficit |       │
//	│         Sugerido | Costo unit. | Costo pedido | Tendencia    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: ítems a pedir / costo estimado                     │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/ports"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 170, Green: 30, Blue: 30}
)

var _ ports.ReportRenderer = (*MarotoPDFGenerator)(nil)

// MarotoPDFGenerator implementa ports.ReportRenderer usando Maroto v2.
type MarotoPDFGenerator struct {
	title string
}

// NewMarotoPDFGenerator construye el generador. title aparece en la cabecera y en los metadatos.
func NewMarotoPDFGenerator(title string) *MarotoPDFGenerator {
	if title == "" {
		title = "Reporte de reposición"
	}
	return &MarotoPDFGenerator{title: title}
}

// RenderReorderReport genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) RenderReorderReport(_ context.Context, report dto.ReorderReportDTO) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithOrientation(orientation.Horizontal).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle(g.title, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	if len(report.Candidates) == 0 {
		m.AddRows(row.New(12).Add(col.New(12).Add(
			text.New("Ningún ítem está en o bajo su punto de reorden.", props.Text{
				Size: 10, Align: align.Center, Top: 4, Color: colorGray,
			}),
		)))
	} else {
		m.AddRows(tableHeaderRow())
		m.AddRows(candidateRows(report.Candidates)...)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(report))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

func (g *MarotoPDFGenerator) headerRow(report dto.ReorderReportDTO) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New(strings.ToUpper(g.title), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Demanda agregada por "+periodLabel(report.Period), props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("Generado", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(report.GeneratedAt.Format("02/01/2006 15:04 MST"), props.Text{
				Size: 9, Align: align.Right, Top: 7,
			}),
		),
	)
}

// Anchos de columna sobre la grilla de 12.
var columns = []struct {
	label string
	size  int
	align align.Type
}{
	{"#", 1, align.Center},
	{"Ítem", 3, align.Left},
	{"Stock", 1, align.Right},
	{"ROP", 1, align.Right},
	{"Déficit", 1, align.Right},
	{"Sugerido", 1, align.Right},
	{"Costo unit.", 1, align.Right},
	{"Costo pedido", 2, align.Right},
	{"Tendencia", 1, align.Center},
}

func tableHeaderRow() core.Row {
	cols := make([]core.Col, len(columns))
	for i, c := range columns {
		cols[i] = col.New(c.size).Add(text.New(c.label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: c.align, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(cols...)
}

func candidateRows(candidates []dto.ReorderCandidateDTO) []core.Row {
	result := make([]core.Row, 0, len(candidates))
	for _, c := range candidates {
		name := c.Name
		if c.PartNumber != "" {
			name += " (" + c.PartNumber + ")"
		}
		values := []string{
			strconv.Itoa(c.Priority),
			name,
			strconv.FormatInt(c.CurrentStock, 10),
			strconv.FormatFloat(c.ReorderPoint, 'f', 1, 64),
			strconv.FormatFloat(c.Deficit, 'f', 1, 64),
			strconv.FormatInt(c.SuggestedOrderQty, 10),
			"$" + formatMoney(c.UnitCost.StringFixed(0)),
			"$" + formatMoney(c.EstimatedOrderCost.StringFixed(0)),
			trendLabel(c.Trend),
		}
		cols := make([]core.Col, len(columns))
		for i, def := range columns {
			p := props.Text{Size: 8, Align: def.align, Top: 1, Left: 1, Right: 1}
			if c.CurrentStock <= 0 && i == 2 {
				p.Color = colorAlert
				p.Style = fontstyle.Bold
			}
			cols[i] = col.New(def.size).Add(text.New(values[i], p))
		}
		result = append(result, row.New(7).Add(cols...))
	}
	return result
}

func totalsRow(report dto.ReorderReportDTO) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2})
	}
	grand := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1})
	}
	return row.New(16).Add(
		col.New(6),
		col.New(3).Add(label("Ítems a pedir:"), label("COSTO ESTIMADO:")),
		col.New(3).Add(
			grand(strconv.Itoa(len(report.Candidates))),
			grand("$"+formatMoney(report.TotalCost.StringFixed(0))),
		),
	)
}

func periodLabel(p string) string {
	switch p {
	case "day":
		return "día"
	case "week":
		return "semana"
	default:
		return "mes"
	}
}

func trendLabel(t string) string {
	switch t {
	case entity.TrendIncreasing:
		return "alza"
	case entity.TrendDecreasing:
		return "baja"
	default:
		return "estable"
	}
}

// formatMoney inserta puntos de miles en un string numérico sin decimales.
// Ej: "25000" → "25.000", "-1000000" → "-1.000.000"
func formatMoney(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	n := len(s)
	if n <= 3 {
		return sign + s
	}
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(s) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf)
}
