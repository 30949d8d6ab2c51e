package repository

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	er "github.com/customeros/dmarc-summaries/internal/errors"
	"github.com/customeros/dmarc-summaries/internal/models"
)

// resolveDomainID looks the domain up inside tx and fails with a not found
// error when it is missing.
func resolveDomainID(tx *gorm.DB, op, domain string) (string, error) {
	var entity models.Domain
	err := tx.Select("id").Where("domain = ?", domain).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", er.NotFound(op, errors.Wrap(er.ErrDomainNotFound, domain))
		}
		return "", er.Datastore(op, errors.Wrap(err, "db error"))
	}
	return entity.ID, nil
}

func resolveOrganizationID(tx *gorm.DB, op, acronym string) (string, error) {
	var entity models.Organization
	err := tx.Select("id").Where("acronym = ?", acronym).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", er.NotFound(op, errors.Wrap(er.ErrOrganizationNotFound, acronym))
		}
		return "", er.Datastore(op, errors.Wrap(err, "db error"))
	}
	return entity.ID, nil
}

// findSummaryEdge returns nil when the domain has no summary for startDate.
func findSummaryEdge(tx *gorm.DB, domainID, startDate string) (*models.DomainToDMARCSummary, error) {
	var edge models.DomainToDMARCSummary
	err := tx.Where("from_id = ? AND start_date = ?", domainID, startDate).First(&edge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "db error")
	}
	return &edge, nil
}

// deleteDomainSummaries removes every summary edge of the domain and the
// summary documents they point to.
func deleteDomainSummaries(tx *gorm.DB, domainID string) (int64, error) {
	var summaryIDs []string
	err := tx.Model(&models.DomainToDMARCSummary{}).
		Where("from_id = ?", domainID).
		Pluck("to_id", &summaryIDs).Error
	if err != nil {
		return 0, errors.Wrap(err, "db error")
	}
	if len(summaryIDs) == 0 {
		return 0, nil
	}

	err = tx.Where("id IN ?", summaryIDs).Delete(&models.DMARCSummary{}).Error
	if err != nil {
		return 0, errors.Wrap(err, "db error")
	}
	result := tx.Where("from_id = ?", domainID).Delete(&models.DomainToDMARCSummary{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "db error")
	}
	return result.RowsAffected, nil
}
