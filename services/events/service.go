package events

import (
	"context"

	"github.com/customeros/dmarc-summaries/config"
	"github.com/customeros/dmarc-summaries/dto"
	"github.com/customeros/dmarc-summaries/interfaces"
	"github.com/customeros/dmarc-summaries/internal/logger"
)

// NewEventPublisher connects to RabbitMQ, or returns a publisher that drops
// every event when no URL is configured.
func NewEventPublisher(cfg *config.RabbitMQConfig, log logger.Logger) (interfaces.EventPublisher, error) {
	if cfg == nil || cfg.URL == "" {
		log.Info("RABBITMQ_URL not set, summary events are disabled")
		return NoopPublisher{}, nil
	}
	return NewRabbitMQPublisher(cfg.URL, cfg.Exchange, log, nil)
}

type NoopPublisher struct{}

func (NoopPublisher) PublishSummariesReconciled(context.Context, dto.SummariesReconciled) error {
	return nil
}

func (NoopPublisher) Close() error {
	return nil
}
