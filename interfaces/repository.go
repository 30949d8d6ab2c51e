package interfaces

import (
	"context"

	"github.com/customeros/dmarc-summaries/internal/enum"
	"github.com/customeros/dmarc-summaries/internal/models"
)

type OrganizationRepository interface {
	GetByAcronym(ctx context.Context, acronym string) (*models.Organization, error)
}

type DomainRepository interface {
	GetByName(ctx context.Context, domain string) (*models.Domain, error)
	UpdateMailStatus(ctx context.Context, domain string, sendsEmail enum.SendsEmail) error
}

type OwnershipRepository interface {
	Create(ctx context.Context, domain, orgAcronym string) error
	Remove(ctx context.Context, domain, orgAcronym string) error
	Transfer(ctx context.Context, domain, fromOrgAcronym, toOrgAcronym string) error
	Deprovision(ctx context.Context, domain string) error
	GetOwner(ctx context.Context, domain string) (string, error)
}

type SummaryRepository interface {
	Create(ctx context.Context, domain, startDate string, data models.SummaryData) error
	Upsert(ctx context.Context, domain, startDate string, data models.SummaryData) (bool, error)
	Remove(ctx context.Context, domain, startDate string) error
	Get(ctx context.Context, domain, startDate string) (*models.DMARCSummary, error)
	ListStartDates(ctx context.Context, domain string) ([]string, error)
	CountStartDate(ctx context.Context, domain, startDate string) (int64, error)
}
