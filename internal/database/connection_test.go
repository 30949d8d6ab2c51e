package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"

	"github.com/customeros/dmarc-summaries/config"
)

func TestDSN(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:     "db.internal",
		User:     "summaries",
		Password: "secret",
		DBName:   "graph",
		SSLMode:  "disable",
	}
	assert.Equal(t, "host=db.internal port=5432 user=summaries password=secret dbname=graph sslmode=disable", dsn(cfg, 5432))
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, logLevel("silent"))
	assert.Equal(t, logger.Error, logLevel("ERROR"))
	assert.Equal(t, logger.Info, logLevel("info"))
	assert.Equal(t, logger.Warn, logLevel("WARN"))
	assert.Equal(t, logger.Warn, logLevel(""))
}

func TestNewConnection_InvalidConfig(t *testing.T) {
	_, err := NewConnection(&config.DatabaseConfig{Host: "localhost"})
	assert.Error(t, err)
}
