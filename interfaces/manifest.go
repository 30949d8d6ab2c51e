package interfaces

import (
	"context"

	"github.com/customeros/dmarc-summaries/dto"
)

type ManifestSource interface {
	Load(ctx context.Context) (dto.Manifest, error)
}
