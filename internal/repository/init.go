package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/customeros/dmarc-summaries/config"
	"github.com/customeros/dmarc-summaries/interfaces"
	"github.com/customeros/dmarc-summaries/internal/models"
)

type Repositories struct {
	OrganizationRepository interfaces.OrganizationRepository
	DomainRepository       interfaces.DomainRepository
	OwnershipRepository    interfaces.OwnershipRepository
	SummaryRepository      interfaces.SummaryRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		OrganizationRepository: NewOrganizationRepository(db),
		DomainRepository:       NewDomainRepository(db),
		OwnershipRepository:    NewOwnershipRepository(db),
		SummaryRepository:      NewSummaryRepository(db),
	}
}

func MigrateDB(dbConfig *config.DatabaseConfig, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	sqlDB.SetMaxOpenConns(5)

	err = db.AutoMigrate(models.All()...)

	sqlDB.SetMaxIdleConns(dbConfig.MaxIdleConn)
	sqlDB.SetMaxOpenConns(dbConfig.MaxConn)
	sqlDB.SetConnMaxLifetime(time.Duration(dbConfig.ConnMaxLifetime) * time.Minute)

	return err
}
