package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	cron_config "github.com/customeros/dmarc-summaries/internal/cron/config"
	"github.com/customeros/dmarc-summaries/internal/logger"
	"github.com/customeros/dmarc-summaries/internal/tracing"
)

type Config struct {
	AppConfig      *AppConfig
	Logger         *logger.Config
	Tracing        *tracing.JaegerConfig
	DatabaseConfig *DatabaseConfig
	CosmosConfig   *CosmosConfig
	GitHubConfig   *GitHubConfig
	S3Config       *S3Config
	RabbitMQConfig *RabbitMQConfig
	CronConfig     *cron_config.Config
}

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:      &AppConfig{},
		Logger:         &logger.Config{},
		Tracing:        &tracing.JaegerConfig{},
		DatabaseConfig: &DatabaseConfig{},
		CosmosConfig:   &CosmosConfig{},
		GitHubConfig:   &GitHubConfig{},
		S3Config:       &S3Config{},
		RabbitMQConfig: &RabbitMQConfig{},
		CronConfig:     &cron_config.Config{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		return nil, errors.Wrap(err, "error loading dmarc-summaries config")
	}

	return config, nil
}

var validate = validator.New()

// Validate checks the given sections only, so commands that never touch a
// backend do not need its settings.
func Validate(sections ...interface{}) error {
	for _, section := range sections {
		if err := validate.Struct(section); err != nil {
			return errors.Wrapf(err, "invalid %T", section)
		}
	}
	return nil
}

// ManifestSection returns the settings of the configured manifest source.
func (c *Config) ManifestSection() interface{} {
	switch c.AppConfig.ManifestSource {
	case ManifestSourceS3:
		return c.S3Config
	case ManifestSourceFile:
		return c.AppConfig
	default:
		return c.GitHubConfig
	}
}

// ReconcileSections lists what a reconciliation needs: the app settings, the
// graph database, the report store and the manifest source.
func (c *Config) ReconcileSections() []interface{} {
	return []interface{}{c.AppConfig, c.DatabaseConfig, c.CosmosConfig, c.ManifestSection()}
}
