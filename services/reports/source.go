package reports

import (
	"context"
	"encoding/json"

	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"

	"github.com/customeros/dmarc-summaries/interfaces"
	"github.com/customeros/dmarc-summaries/internal/enum"
	"github.com/customeros/dmarc-summaries/internal/models"
	"github.com/customeros/dmarc-summaries/internal/tracing"
)

type reportSource struct {
	container Container
}

func NewReportSource(container Container) interfaces.ReportSource {
	return &reportSource{
		container: container,
	}
}

// externalLabel translates an internal bucket label to the report store's.
func externalLabel(startDate string) string {
	if startDate == enum.ThirtyDays {
		return enum.ThirtyDaysExternal
	}
	return startDate
}

func queryParams(domain, startDate string) []azcosmos.QueryParameter {
	return []azcosmos.QueryParameter{
		{Name: "@domain", Value: domain},
		{Name: "@date", Value: externalLabel(startDate)},
	}
}

// CategoryTotals returns zero totals when the store has no document for the
// bucket.
func (s *reportSource) CategoryTotals(ctx context.Context, domain, startDate string) (models.CategoryTotals, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ReportSource.CategoryTotals")
	defer span.Finish()
	tracing.TagComponentCosmosRepository(span)
	tracing.TagDomain(span, domain)
	span.LogKV("startDate", startDate)

	items, err := s.container.QueryItems(ctx, categoryTotalsQuery, domain, queryParams(domain, startDate))
	if err != nil {
		tracing.TraceErr(span, err)
		return models.CategoryTotals{}, err
	}

	var totals models.CategoryTotals
	for _, item := range items {
		var row categoryTotalsRow
		if err = json.Unmarshal(item, &row); err != nil {
			tracing.TraceErr(span, err)
			return models.CategoryTotals{}, errors.Wrap(err, "decode category totals")
		}
		current := row.toModel()
		totals.Pass += current.Pass
		totals.Fail += current.Fail
		totals.PassDkimOnly += current.PassDkimOnly
		totals.PassSpfOnly += current.PassSpfOnly
	}
	return totals, nil
}

func (s *reportSource) DkimFailureTable(ctx context.Context, domain, startDate string) ([]models.DetailRow, error) {
	return s.detailTable(ctx, "ReportSource.DkimFailureTable", enum.DetailTableDkimFailure, domain, startDate)
}

func (s *reportSource) DmarcFailureTable(ctx context.Context, domain, startDate string) ([]models.DetailRow, error) {
	return s.detailTable(ctx, "ReportSource.DmarcFailureTable", enum.DetailTableDmarcFailure, domain, startDate)
}

func (s *reportSource) FullPassTable(ctx context.Context, domain, startDate string) ([]models.DetailRow, error) {
	return s.detailTable(ctx, "ReportSource.FullPassTable", enum.DetailTableFullPass, domain, startDate)
}

func (s *reportSource) SpfFailureTable(ctx context.Context, domain, startDate string) ([]models.DetailRow, error) {
	return s.detailTable(ctx, "ReportSource.SpfFailureTable", enum.DetailTableSpfFailure, domain, startDate)
}

func (s *reportSource) detailTable(ctx context.Context, operation string, table enum.DetailTable, domain, startDate string) ([]models.DetailRow, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, operation)
	defer span.Finish()
	tracing.TagComponentCosmosRepository(span)
	tracing.TagDomain(span, domain)
	span.LogKV("startDate", startDate, "table", table.String())

	items, err := s.container.QueryItems(ctx, detailQuery(table), domain, queryParams(domain, startDate))
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	rows := make([]models.DetailRow, 0, len(items))
	for _, item := range items {
		var row detailRow
		if err = json.Unmarshal(item, &row); err != nil {
			tracing.TraceErr(span, err)
			return nil, errors.Wrapf(err, "decode %s row", table)
		}
		rows = append(rows, row.toModel(domain, startDate, table))
	}

	span.LogFields(tracingLog.Int("result.rows", len(rows)))
	return rows, nil
}
