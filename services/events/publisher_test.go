package events

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/dmarc-summaries/config"
	"github.com/customeros/dmarc-summaries/dto"
	"github.com/customeros/dmarc-summaries/internal/logger"
)

func TestNewEvent(t *testing.T) {
	span := opentracing.GlobalTracer().StartSpan("test")
	defer span.Finish()

	message := dto.SummariesReconciled{RunID: "run", Organization: "ACR", Domain: "domain.ca", Created: []string{"2021-01-01"}}
	event := newEvent(span, message.Domain, dto.EventTypeSummariesReconciled, message)

	assert.True(t, strings.HasPrefix(event.Event.Id, "event_"))
	assert.Equal(t, "domain.ca", event.Event.EntityId)
	assert.Equal(t, dto.EventTypeSummariesReconciled, event.Event.EventType)
	assert.Equal(t, message, event.Event.Data)
	assert.Equal(t, AppSource, event.Metadata.AppSource)
	assert.NotEmpty(t, event.Metadata.Timestamp)
}

func TestNewEventPublisher_WithoutURL(t *testing.T) {
	log := logger.NewAppLogger(&logger.Config{LogLevel: "error"})
	log.InitLogger()

	publisher, err := NewEventPublisher(&config.RabbitMQConfig{Exchange: "dmarc-summaries"}, log)
	require.NoError(t, err)
	assert.IsType(t, NoopPublisher{}, publisher)

	assert.NoError(t, publisher.PublishSummariesReconciled(context.Background(), dto.SummariesReconciled{Domain: "domain.ca"}))
	assert.NoError(t, publisher.Close())
}

type fakeChannel struct {
	published []amqp091.Publishing
	keys      []string
	err       error
	closed    bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp091.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) IsClosed() bool {
	return f.closed
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func newTestPublisher(channel *fakeChannel, confirms ...bool) *RabbitMQPublisher {
	log := logger.NewAppLogger(&logger.Config{LogLevel: "error"})
	log.InitLogger()

	publisher := &RabbitMQPublisher{
		exchange:       "dmarc-summaries",
		logger:         log,
		publishChannel: channel,
		confirms:       make(chan amqp091.Confirmation, len(confirms)),
		config: PublisherConfig{
			MaxRetries:     3,
			PublishTimeout: 20 * time.Millisecond,
		},
	}
	publisher.ensureChannel = func() error { return nil }
	for i, ack := range confirms {
		publisher.confirms <- amqp091.Confirmation{DeliveryTag: uint64(i + 1), Ack: ack}
	}
	return publisher
}

func TestRabbitMQPublisher_PublishSummariesReconciled(t *testing.T) {
	message := dto.SummariesReconciled{RunID: "run_1", Organization: "ACR", Domain: "domain.ca", Created: []string{"2021-01-01"}}

	t.Run("confirmed on first attempt", func(t *testing.T) {
		channel := &fakeChannel{}
		publisher := newTestPublisher(channel, true)

		require.NoError(t, publisher.PublishSummariesReconciled(context.Background(), message))
		require.Len(t, channel.published, 1)
		assert.Equal(t, RoutingKeySummariesReconciled, channel.keys[0])
		assert.Equal(t, "application/json", channel.published[0].ContentType)
		assert.Equal(t, amqp091.Persistent, channel.published[0].DeliveryMode)

		var event dto.Event
		require.NoError(t, json.Unmarshal(channel.published[0].Body, &event))
		assert.Equal(t, dto.EventTypeSummariesReconciled, event.Event.EventType)
		assert.Equal(t, "domain.ca", event.Event.EntityId)
		assert.Equal(t, AppSource, event.Metadata.AppSource)
	})

	t.Run("retries after a nack", func(t *testing.T) {
		channel := &fakeChannel{}
		publisher := newTestPublisher(channel, false, true)

		require.NoError(t, publisher.PublishSummariesReconciled(context.Background(), message))
		assert.Len(t, channel.published, 2)
	})

	t.Run("gives up when confirms time out", func(t *testing.T) {
		channel := &fakeChannel{}
		publisher := newTestPublisher(channel)

		err := publisher.PublishSummariesReconciled(context.Background(), message)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Publish confirmation timeout")
		assert.Len(t, channel.published, 3)
	})

	t.Run("channel failure", func(t *testing.T) {
		channel := &fakeChannel{err: errors.New("channel closed")}
		publisher := newTestPublisher(channel)

		err := publisher.PublishSummariesReconciled(context.Background(), message)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "channel closed")
	})

	t.Run("connection cannot be established", func(t *testing.T) {
		channel := &fakeChannel{}
		publisher := newTestPublisher(channel, true)
		publisher.ensureChannel = func() error { return errors.New("dial refused") }

		err := publisher.PublishSummariesReconciled(context.Background(), message)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "dial refused")
		assert.Empty(t, channel.published)
	})

	t.Run("cancelled context", func(t *testing.T) {
		channel := &fakeChannel{}
		publisher := newTestPublisher(channel, true)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := publisher.PublishSummariesReconciled(ctx, message)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, channel.published)
	})
}

func TestRabbitMQPublisher_Close(t *testing.T) {
	channel := &fakeChannel{}
	publisher := newTestPublisher(channel)

	require.NoError(t, publisher.Close())
	assert.True(t, channel.closed)
	assert.True(t, publisher.isClosed())
}
