package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/customeros/dmarc-summaries/interfaces"
	"github.com/customeros/dmarc-summaries/internal/enum"
	er "github.com/customeros/dmarc-summaries/internal/errors"
	"github.com/customeros/dmarc-summaries/internal/models"
	"github.com/customeros/dmarc-summaries/internal/tracing"
	"github.com/customeros/dmarc-summaries/internal/utils"
)

type summaryRepository struct {
	db *gorm.DB
}

func NewSummaryRepository(db *gorm.DB) interfaces.SummaryRepository {
	return &summaryRepository{
		db: db,
	}
}

// Create inserts the summary document and its edge from the domain, tagged
// with startDate. The unique (domain, startDate) index rejects duplicates.
func (r *summaryRepository) Create(ctx context.Context, domain, startDate string, data models.SummaryData) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SummaryRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagDomain(span, domain)
	span.LogKV("startDate", startDate)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		domainID, err := resolveDomainID(tx, "SummaryRepository.Create", domain)
		if err != nil {
			return err
		}

		summary := models.NewDMARCSummary(data)
		if err = tx.Create(summary).Error; err != nil {
			return errors.Wrap(err, "db error")
		}

		edge := models.DomainToDMARCSummary{
			FromID:    domainID,
			ToID:      summary.ID,
			StartDate: startDate,
			CreatedAt: utils.Now(),
		}
		if err = tx.Create(&edge).Error; err != nil {
			return errors.Wrap(err, "db error")
		}

		span.LogFields(tracingLog.String("result.summaryId", summary.ID))
		return nil
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return er.Datastore("SummaryRepository.Create", err)
	}
	return nil
}

// Upsert replaces the payload of the summary linked to (domain, startDate).
// When no edge exists nothing is written and false is returned.
func (r *summaryRepository) Upsert(ctx context.Context, domain, startDate string, data models.SummaryData) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SummaryRepository.Upsert")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagDomain(span, domain)
	span.LogKV("startDate", startDate)

	updated := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		domainID, err := resolveDomainID(tx, "SummaryRepository.Upsert", domain)
		if err != nil {
			return err
		}
		edge, err := findSummaryEdge(tx, domainID, startDate)
		if err != nil || edge == nil {
			return err
		}

		summary := models.NewDMARCSummary(data)
		summary.ID = edge.ToID
		summary.UpdatedAt = utils.Now()
		err = tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"category_totals",
				"category_percentages",
				"detail_tables",
				"total_messages",
				"updated_at",
			}),
		}).Create(summary).Error
		if err != nil {
			return errors.Wrap(err, "db error")
		}
		updated = true
		return nil
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return false, er.Datastore("SummaryRepository.Upsert", err)
	}

	span.LogFields(tracingLog.Bool("result.updated", updated))
	return updated, nil
}

// Remove deletes the summary of (domain, startDate) and its edge. Missing
// edges or documents are not an error.
func (r *summaryRepository) Remove(ctx context.Context, domain, startDate string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SummaryRepository.Remove")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagDomain(span, domain)
	span.LogKV("startDate", startDate)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		domainID, err := resolveDomainID(tx, "SummaryRepository.Remove", domain)
		if err != nil {
			return err
		}
		edge, err := findSummaryEdge(tx, domainID, startDate)
		if err != nil || edge == nil {
			return err
		}

		if err = tx.Where("id = ?", edge.ToID).Delete(&models.DMARCSummary{}).Error; err != nil {
			return errors.Wrap(err, "db error")
		}
		if err = tx.Where("id = ?", edge.ID).Delete(&models.DomainToDMARCSummary{}).Error; err != nil {
			return errors.Wrap(err, "db error")
		}
		return nil
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return er.Datastore("SummaryRepository.Remove", err)
	}
	return nil
}

// Get returns nil without error when the domain has no summary for startDate.
func (r *summaryRepository) Get(ctx context.Context, domain, startDate string) (*models.DMARCSummary, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SummaryRepository.Get")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagDomain(span, domain)
	span.LogKV("startDate", startDate)

	var summary models.DMARCSummary
	err := r.db.WithContext(ctx).
		Joins("JOIN domains_to_dmarc_summaries ON domains_to_dmarc_summaries.to_id = dmarc_summaries.id").
		Joins("JOIN domains ON domains.id = domains_to_dmarc_summaries.from_id").
		Where("domains.domain = ? AND domains_to_dmarc_summaries.start_date = ?", domain, startDate).
		First(&summary).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, er.Datastore("SummaryRepository.Get", err)
	}
	return &summary, nil
}

// ListStartDates returns the monthly bucket labels stored for the domain,
// oldest first. The thirty day bucket is not included.
func (r *summaryRepository) ListStartDates(ctx context.Context, domain string) ([]string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SummaryRepository.ListStartDates")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagDomain(span, domain)

	startDates := []string{}
	err := r.db.WithContext(ctx).
		Model(&models.DomainToDMARCSummary{}).
		Joins("JOIN domains ON domains.id = domains_to_dmarc_summaries.from_id").
		Where("domains.domain = ? AND domains_to_dmarc_summaries.start_date <> ?", domain, enum.ThirtyDays).
		Order("domains_to_dmarc_summaries.start_date ASC").
		Pluck("domains_to_dmarc_summaries.start_date", &startDates).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, er.Datastore("SummaryRepository.ListStartDates", err)
	}

	span.LogFields(tracingLog.Int("result.count", len(startDates)))
	return startDates, nil
}

func (r *summaryRepository) CountStartDate(ctx context.Context, domain, startDate string) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SummaryRepository.CountStartDate")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagDomain(span, domain)
	span.LogKV("startDate", startDate)

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.DomainToDMARCSummary{}).
		Joins("JOIN domains ON domains.id = domains_to_dmarc_summaries.from_id").
		Where("domains.domain = ? AND domains_to_dmarc_summaries.start_date = ?", domain, startDate).
		Count(&count).Error
	if err != nil {
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return 0, er.Datastore("SummaryRepository.CountStartDate", err)
	}
	return count, nil
}
