package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"storefront/internal/config"
	"storefront/internal/domain/order"
	"storefront/internal/infrastructure/encoding/avro"
	"storefront/pkg/logger"
)

var errNotConnected = errors.New("kafka producer is not connected")

// EventProducer publishes Avro-encoded order events keyed by order number,
// so every event of one order lands on the same partition.
type EventProducer struct {
	client *kgo.Client
	topic  string
	codec  *avro.OrderEventCodec
	logger logger.Logger
}

func NewEventProducer(cfg config.KafkaConfig, codec *avro.OrderEventCodec, log logger.Logger) (*EventProducer, error) {
	log.Info("Connecting Kafka producer",
		logger.Any("brokers", cfg.Brokers),
		logger.String("topic", cfg.EventsTopic),
	)

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.EventsTopic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	return &EventProducer{
		client: client,
		topic:  cfg.EventsTopic,
		codec:  codec,
		logger: log,
	}, nil
}

func (p *EventProducer) PublishOrderEvent(ctx context.Context, evt order.Event) error {
	payload, err := p.codec.Encode(evt)
	if err != nil {
		return fmt.Errorf("encode order event: %w", err)
	}
	return p.publish(ctx, evt.OrderNumber, string(evt.Type), payload)
}

func (p *EventProducer) publish(ctx context.Context, key, eventType string, payload []byte) error {
	if len(payload) == 0 {
		return fmt.Errorf("payload is empty")
	}
	if p.client == nil {
		return errNotConnected
	}

	rec := &kgo.Record{
		Topic:     p.topic,
		Key:       []byte(key),
		Value:     payload,
		Timestamp: time.Now().UTC(),
		Headers:   []kgo.RecordHeader{{Key: "event_type", Value: []byte(eventType)}},
	}

	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		p.logger.Error("Failed to publish order event",
			logger.String("topic", p.topic),
			logger.String("key", key),
			logger.Int("payload_size", len(payload)),
			logger.Error(err),
		)
		return fmt.Errorf("publish to kafka topic %s: %w", p.topic, err)
	}

	p.logger.Debug("Order event published",
		logger.String("topic", p.topic),
		logger.String("key", key),
		logger.String("event_type", eventType),
	)
	return nil
}

func (p *EventProducer) Close(ctx context.Context) error {
	p.logger.Info("Closing Kafka producer", logger.String("topic", p.topic))
	if p.client != nil {
		p.client.Close()
	}
	return nil
}
