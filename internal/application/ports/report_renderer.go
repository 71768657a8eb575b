package ports

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
)

// ReportRenderer genera la representación imprimible del reporte de reposición.
type ReportRenderer interface {
	RenderReorderReport(ctx context.Context, report dto.ReorderReportDTO) ([]byte, error)
}
