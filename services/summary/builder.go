package summary

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/customeros/dmarc-summaries/interfaces"
	"github.com/customeros/dmarc-summaries/internal/models"
	"github.com/customeros/dmarc-summaries/internal/tracing"
)

type builder struct {
	reports interfaces.ReportSource
}

func NewBuilder(reports interfaces.ReportSource) interfaces.SummaryBuilder {
	return &builder{
		reports: reports,
	}
}

// Build reads the category totals and the four detail tables of one bucket
// concurrently and composes the summary payload.
func (b *builder) Build(ctx context.Context, domain, startDate string) (*models.SummaryData, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SummaryBuilder.Build")
	defer span.Finish()
	tracing.TagComponentService(span)
	tracing.TagDomain(span, domain)
	span.LogKV("startDate", startDate)

	var (
		totals models.CategoryTotals
		tables models.DetailTables
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = b.reports.CategoryTotals(gCtx, domain, startDate)
		return errors.Wrap(err, "category totals")
	})
	g.Go(func() error {
		var err error
		tables.DkimFailure, err = b.reports.DkimFailureTable(gCtx, domain, startDate)
		return errors.Wrap(err, "dkim failure table")
	})
	g.Go(func() error {
		var err error
		tables.DmarcFailure, err = b.reports.DmarcFailureTable(gCtx, domain, startDate)
		return errors.Wrap(err, "dmarc failure table")
	})
	g.Go(func() error {
		var err error
		tables.FullPass, err = b.reports.FullPassTable(gCtx, domain, startDate)
		return errors.Wrap(err, "full pass table")
	})
	g.Go(func() error {
		var err error
		tables.SpfFailure, err = b.reports.SpfFailureTable(gCtx, domain, startDate)
		return errors.Wrap(err, "spf failure table")
	})
	if err := g.Wait(); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	tables.DkimFailure = mapRowGuidance(tables.DkimFailure)
	tables.SpfFailure = mapRowGuidance(tables.SpfFailure)
	percentages, total := CalculatePercentages(totals)

	return &models.SummaryData{
		CategoryTotals:      totals,
		CategoryPercentages: percentages,
		TotalMessages:       total,
		DetailTables:        normalizeTables(tables),
	}, nil
}

func mapRowGuidance(rows []models.DetailRow) []models.DetailRow {
	for i := range rows {
		rows[i].Guidance = MapGuidance(rows[i].Guidance)
	}
	return rows
}

// normalizeTables stores empty tables as empty lists rather than null.
func normalizeTables(tables models.DetailTables) models.DetailTables {
	if tables.DkimFailure == nil {
		tables.DkimFailure = []models.DetailRow{}
	}
	if tables.DmarcFailure == nil {
		tables.DmarcFailure = []models.DetailRow{}
	}
	if tables.FullPass == nil {
		tables.FullPass = []models.DetailRow{}
	}
	if tables.SpfFailure == nil {
		tables.SpfFailure = []models.DetailRow{}
	}
	return tables
}
