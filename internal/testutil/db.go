package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/customeros/dmarc-summaries/internal/models"
)

// NewTestDB opens a private in-memory SQLite database with every table migrated.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps the memory database alive and serializes transactions
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func SeedOrganization(t *testing.T, db *gorm.DB, acronym string) *models.Organization {
	t.Helper()
	organization := &models.Organization{Acronym: acronym, Name: acronym}
	require.NoError(t, db.Create(organization).Error)
	return organization
}

func SeedDomain(t *testing.T, db *gorm.DB, name string) *models.Domain {
	t.Helper()
	domain := &models.Domain{Domain: name}
	require.NoError(t, db.Create(domain).Error)
	return domain
}

func SeedOwnership(t *testing.T, db *gorm.DB, organization *models.Organization, domain *models.Domain) {
	t.Helper()
	require.NoError(t, db.Create(&models.Ownership{FromID: organization.ID, ToID: domain.ID}).Error)
}

// SeedSummary stores an empty summary for the domain under startDate.
func SeedSummary(t *testing.T, db *gorm.DB, domain *models.Domain, startDate string) *models.DMARCSummary {
	t.Helper()
	summary := models.NewDMARCSummary(models.SummaryData{})
	require.NoError(t, db.Create(summary).Error)
	require.NoError(t, db.Create(&models.DomainToDMARCSummary{FromID: domain.ID, ToID: summary.ID, StartDate: startDate}).Error)
	return summary
}

func Count(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var count int64
	tx := db.Model(model)
	if query != "" {
		tx = tx.Where(query, args...)
	}
	require.NoError(t, tx.Count(&count).Error)
	return count
}
