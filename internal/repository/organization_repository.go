package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/customeros/dmarc-summaries/interfaces"
	er "github.com/customeros/dmarc-summaries/internal/errors"
	"github.com/customeros/dmarc-summaries/internal/models"
	"github.com/customeros/dmarc-summaries/internal/tracing"
)

type organizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) interfaces.OrganizationRepository {
	return &organizationRepository{
		db: db,
	}
}

// GetByAcronym returns nil without error when no organization uses the acronym.
func (r *organizationRepository) GetByAcronym(ctx context.Context, acronym string) (*models.Organization, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "OrganizationRepository.GetByAcronym")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("acronym", acronym)

	var organization models.Organization
	err := r.db.WithContext(ctx).
		Where("acronym = ?", acronym).
		First(&organization).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.LogFields(tracingLog.Bool("response.exists", false))
			return nil, nil
		}
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, er.Datastore("OrganizationRepository.GetByAcronym", err)
	}

	span.LogFields(tracingLog.Bool("response.exists", true))
	return &organization, nil
}
