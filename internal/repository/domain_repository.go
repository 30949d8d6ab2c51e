package repository

import (
	"context"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/customeros/dmarc-summaries/interfaces"
	"github.com/customeros/dmarc-summaries/internal/enum"
	er "github.com/customeros/dmarc-summaries/internal/errors"
	"github.com/customeros/dmarc-summaries/internal/models"
	"github.com/customeros/dmarc-summaries/internal/tracing"
	"github.com/customeros/dmarc-summaries/internal/utils"
)

type domainRepository struct {
	db *gorm.DB
}

func NewDomainRepository(db *gorm.DB) interfaces.DomainRepository {
	return &domainRepository{
		db: db,
	}
}

func (r *domainRepository) GetByName(ctx context.Context, domain string) (*models.Domain, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DomainRepository.GetByName")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagDomain(span, domain)

	var entity models.Domain
	err := r.db.WithContext(ctx).
		Where("domain = ?", domain).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.LogFields(tracingLog.Bool("response.exists", false))
			return nil, nil
		}
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return nil, er.Datastore("DomainRepository.GetByName", err)
	}

	span.LogFields(tracingLog.Bool("response.exists", true))
	return &entity, nil
}

func (r *domainRepository) UpdateMailStatus(ctx context.Context, domain string, sendsEmail enum.SendsEmail) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DomainRepository.UpdateMailStatus")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagDomain(span, domain)
	span.LogKV("sendsEmail", sendsEmail.String())

	if !sendsEmail.IsValid() {
		err := er.Validation("DomainRepository.UpdateMailStatus", errors.Wrapf(ErrInvalidInput, "sendsEmail %q", sendsEmail))
		tracing.TraceErr(span, err)
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&models.Domain{}).
		Where("domain = ?", domain).
		Updates(map[string]interface{}{
			"sends_email": sendsEmail.String(),
			"updated_at":  utils.Now(),
		})
	if result.Error != nil {
		tracing.TraceErr(span, errors.Wrap(result.Error, "db error"))
		return er.Datastore("DomainRepository.UpdateMailStatus", result.Error)
	}
	if result.RowsAffected == 0 {
		err := er.NotFound("DomainRepository.UpdateMailStatus", errors.Wrap(er.ErrDomainNotFound, domain))
		tracing.TraceErr(span, err)
		return err
	}

	return nil
}
