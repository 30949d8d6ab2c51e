package database

import (
	"gorm.io/gorm"

	"github.com/customeros/dmarc-summaries/config"
	"github.com/customeros/dmarc-summaries/internal/logger"
)

// InitDatabase connects to the graph store database.
func InitDatabase(dbConfig *config.DatabaseConfig, log logger.Logger) (*gorm.DB, error) {
	db, err := NewConnection(dbConfig)
	if err != nil {
		log.Errorf("Failed to connect to the database: %v", err)
		return nil, err
	}
	log.Infof("Connected to database %s on %s:%s", dbConfig.DBName, dbConfig.Host, dbConfig.Port)
	return db, nil
}
