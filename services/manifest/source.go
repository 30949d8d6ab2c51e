package manifest

import (
	"github.com/pkg/errors"

	"github.com/customeros/dmarc-summaries/config"
	"github.com/customeros/dmarc-summaries/interfaces"
)

// NewManifestSource returns the source selected by MANIFEST_SOURCE.
func NewManifestSource(cfg *config.Config) (interfaces.ManifestSource, error) {
	switch cfg.AppConfig.ManifestSource {
	case config.ManifestSourceGitHub:
		return NewGitHubSource(cfg.GitHubConfig, nil), nil
	case config.ManifestSourceS3:
		client, err := NewS3Client(cfg.S3Config)
		if err != nil {
			return nil, err
		}
		return NewS3Source(cfg.S3Config, client), nil
	case config.ManifestSourceFile:
		return NewFileSource(cfg.AppConfig.ManifestFilePath), nil
	default:
		return nil, errors.Errorf("unknown manifest source %q", cfg.AppConfig.ManifestSource)
	}
}
