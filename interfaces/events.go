package interfaces

import (
	"context"

	"github.com/customeros/dmarc-summaries/dto"
)

type EventPublisher interface {
	PublishSummariesReconciled(ctx context.Context, event dto.SummariesReconciled) error
	Close() error
}
