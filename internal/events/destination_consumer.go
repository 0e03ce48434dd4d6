package events

import (
	"context"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/wayfinder-labs/service-wayfinding/internal/application"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/domain"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/kafka"
	"github.com/wayfinder-labs/service-wayfinding/internal/proto/events"
	"go.uber.org/zap"
)

// DestinationRecorder stores destinations. *application.DestinationService satisfies it.
type DestinationRecorder interface {
	Record(ctx context.Context, name, sessionID string, at time.Time) (*application.DestinationDTO, error)
}

// DestinationEventConsumer listens to dialogue events and stores the destinations they carry.
type DestinationEventConsumer struct {
	consumer *kafka.Consumer
	recorder DestinationRecorder
	logger   *zap.Logger
}

// NewDestinationEventConsumer creates a new DestinationEventConsumer.
func NewDestinationEventConsumer(
	brokers []string,
	groupID string,
	recorder DestinationRecorder,
	logger *zap.Logger,
) *DestinationEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicDialogueEvents, logger)
	return &DestinationEventConsumer{
		consumer: consumer,
		recorder: recorder,
		logger:   logger,
	}
}

// Start begins consuming dialogue events. This blocks until the context is cancelled.
func (c *DestinationEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *DestinationEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *DestinationEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from dialogue topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case events.DialogueDestinationRecorded:
		return c.handleDestinationRecorded(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled dialogue event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *DestinationEventConsumer) handleDestinationRecorded(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt events.DestinationRecordedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse DestinationRecordedEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	at := evt.RecordedAt
	if at.IsZero() {
		at = cloudEvent.Time
	}

	dest, err := c.recorder.Record(ctx, evt.Destination, evt.SessionID, at)
	if err != nil {
		if appErr, ok := domain.AsAppError(err); ok && appErr.Code == domain.CodeValidation {
			c.logger.Warn("dropping invalid destination event",
				zap.String("event_id", cloudEvent.ID),
				zap.Error(err),
			)
			return nil
		}
		c.logger.Error("failed to record destination",
			zap.String("destination", evt.Destination),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("destination recorded from dialogue event",
		zap.String("destination_id", dest.ID.String()),
		zap.String("destination", dest.Name),
	)
	return nil
}
