package kafka

import (
	"context"
	"errors"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"

	"storefront/internal/config"
	"storefront/internal/domain/order"
	"storefront/internal/infrastructure/encoding/avro"
	"storefront/pkg/logger"
)

// EventHandler receives decoded order events.
type EventHandler interface {
	Record(ctx context.Context, evt order.Event) error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// EventConsumer feeds the order event topic into an EventHandler. Offsets
// are committed only after the handler succeeded, so a failed write is
// redelivered.
type EventConsumer struct {
	reader  messageReader
	codec   *avro.OrderEventCodec
	handler EventHandler
	logger  logger.Logger
}

func NewEventConsumer(cfg config.KafkaConfig, codec *avro.OrderEventCodec, handler EventHandler, log logger.Logger) *EventConsumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.ConsumerGroup,
		Topic:    cfg.EventsTopic,
		MinBytes: 1e3,
		MaxBytes: 1e6,
	})

	return &EventConsumer{
		reader:  reader,
		codec:   codec,
		handler: handler,
		logger:  log,
	}
}

// Start blocks until ctx is done or the handler fails.
func (c *EventConsumer) Start(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		if err := c.handle(ctx, msg); err != nil {
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("commit offset %d: %w", msg.Offset, err)
		}
	}
}

// handle skips messages that cannot be decoded; retrying them never helps.
func (c *EventConsumer) handle(ctx context.Context, msg kafkago.Message) error {
	evt, err := c.codec.Decode(msg.Value)
	if err != nil {
		c.logger.Error("Skipping undecodable order event",
			logger.Int("partition", msg.Partition),
			logger.Int64("offset", msg.Offset),
			logger.Error(err),
		)
		return nil
	}

	if err := c.handler.Record(ctx, evt); err != nil {
		return fmt.Errorf("handle order event %s: %w", evt.ID, err)
	}
	return nil
}

func (c *EventConsumer) Close() error {
	return c.reader.Close()
}
