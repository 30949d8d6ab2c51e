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

type ownershipRepository struct {
	db *gorm.DB
}

func NewOwnershipRepository(db *gorm.DB) interfaces.OwnershipRepository {
	return &ownershipRepository{
		db: db,
	}
}

// Create links the organization to the domain. It does not check for an
// existing owner; callers reconcile the current owner first.
func (r *ownershipRepository) Create(ctx context.Context, domain, orgAcronym string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "OwnershipRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagDomain(span, domain)
	span.LogKV("orgAcronym", orgAcronym)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createOwnership(tx, "OwnershipRepository.Create", domain, orgAcronym)
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return er.Datastore("OwnershipRepository.Create", err)
	}
	return nil
}

// Remove deletes the edge between the organization and the domain. When an
// edge existed the domain is deprovisioned as well: summaries are deleted and
// its ownership metadata is cleared. Removing a missing edge is a no-op.
func (r *ownershipRepository) Remove(ctx context.Context, domain, orgAcronym string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "OwnershipRepository.Remove")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagDomain(span, domain)
	span.LogKV("orgAcronym", orgAcronym)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		removed, err := removeOwnership(tx, "OwnershipRepository.Remove", domain, orgAcronym)
		span.LogFields(tracingLog.Int64("result.removedEdges", removed))
		return err
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return er.Datastore("OwnershipRepository.Remove", err)
	}
	return nil
}

// Transfer moves the domain from one organization to another in a single
// transaction, deprovisioning the summaries kept under the previous owner.
func (r *ownershipRepository) Transfer(ctx context.Context, domain, fromOrgAcronym, toOrgAcronym string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "OwnershipRepository.Transfer")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagDomain(span, domain)
	span.LogKV("fromOrgAcronym", fromOrgAcronym, "toOrgAcronym", toOrgAcronym)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := removeOwnership(tx, "OwnershipRepository.Transfer", domain, fromOrgAcronym); err != nil {
			return err
		}
		return createOwnership(tx, "OwnershipRepository.Transfer", domain, toOrgAcronym)
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return er.Datastore("OwnershipRepository.Transfer", err)
	}
	return nil
}

// Deprovision strips every owner from the domain, deletes all of its
// summaries and resets its mail status to unknown.
func (r *ownershipRepository) Deprovision(ctx context.Context, domain string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "OwnershipRepository.Deprovision")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagDomain(span, domain)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		domainID, err := resolveDomainID(tx, "OwnershipRepository.Deprovision", domain)
		if err != nil {
			return err
		}
		if err = tx.Where("to_id = ?", domainID).Delete(&models.Ownership{}).Error; err != nil {
			return errors.Wrap(err, "db error")
		}
		return deprovisionDomain(tx, domainID)
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return er.Datastore("OwnershipRepository.Deprovision", err)
	}
	return nil
}

// GetOwner returns the acronym of the owning organization, or an empty string
// when the domain is unowned.
func (r *ownershipRepository) GetOwner(ctx context.Context, domain string) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "OwnershipRepository.GetOwner")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagDomain(span, domain)

	var organization models.Organization
	err := r.db.WithContext(ctx).
		Joins("JOIN ownership ON ownership.from_id = organizations.id").
		Joins("JOIN domains ON domains.id = ownership.to_id").
		Where("domains.domain = ?", domain).
		First(&organization).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.LogFields(tracingLog.Bool("response.owned", false))
			return "", nil
		}
		tracing.TraceErr(span, errors.Wrap(err, "db error"))
		return "", er.Datastore("OwnershipRepository.GetOwner", err)
	}

	span.LogFields(tracingLog.String("response.owner", organization.Acronym))
	return organization.Acronym, nil
}

func createOwnership(tx *gorm.DB, op, domain, orgAcronym string) error {
	domainID, err := resolveDomainID(tx, op, domain)
	if err != nil {
		return err
	}
	orgID, err := resolveOrganizationID(tx, op, orgAcronym)
	if err != nil {
		return err
	}

	edge := models.Ownership{
		FromID:    orgID,
		ToID:      domainID,
		CreatedAt: utils.Now(),
	}
	if err = tx.Create(&edge).Error; err != nil {
		return errors.Wrap(err, "db error")
	}

	err = tx.Model(&models.Domain{}).
		Where("id = ?", domainID).
		Updates(map[string]interface{}{
			"has_dmarc_report": true,
			"updated_at":       utils.Now(),
		}).Error
	if err != nil {
		return errors.Wrap(err, "db error")
	}
	return nil
}

func removeOwnership(tx *gorm.DB, op, domain, orgAcronym string) (int64, error) {
	domainID, err := resolveDomainID(tx, op, domain)
	if err != nil {
		return 0, err
	}
	orgID, err := resolveOrganizationID(tx, op, orgAcronym)
	if err != nil {
		return 0, err
	}

	result := tx.Where("from_id = ? AND to_id = ?", orgID, domainID).Delete(&models.Ownership{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "db error")
	}
	if result.RowsAffected == 0 {
		return 0, nil
	}
	return result.RowsAffected, deprovisionDomain(tx, domainID)
}

func deprovisionDomain(tx *gorm.DB, domainID string) error {
	if _, err := deleteDomainSummaries(tx, domainID); err != nil {
		return err
	}
	err := tx.Model(&models.Domain{}).
		Where("id = ?", domainID).
		Updates(map[string]interface{}{
			"has_dmarc_report": false,
			"sends_email":      enum.SendsEmailUnknown.String(),
			"updated_at":       utils.Now(),
		}).Error
	if err != nil {
		return errors.Wrap(err, "db error")
	}
	return nil
}
