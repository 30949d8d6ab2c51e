package interfaces

import (
	"context"

	"github.com/customeros/dmarc-summaries/internal/models"
)

// ReportSource reads per domain, per bucket aggregates from the report store.
// Bucket labels are the internal ones (YYYY-MM-DD or thirtyDays).
type ReportSource interface {
	CategoryTotals(ctx context.Context, domain, startDate string) (models.CategoryTotals, error)
	DkimFailureTable(ctx context.Context, domain, startDate string) ([]models.DetailRow, error)
	DmarcFailureTable(ctx context.Context, domain, startDate string) ([]models.DetailRow, error)
	FullPassTable(ctx context.Context, domain, startDate string) ([]models.DetailRow, error)
	SpfFailureTable(ctx context.Context, domain, startDate string) ([]models.DetailRow, error)
}

type SummaryBuilder interface {
	Build(ctx context.Context, domain, startDate string) (*models.SummaryData, error)
}
