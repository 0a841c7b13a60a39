// Package events delivers outbox messages to the message broker.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"bookstore/internal/infrastructure/storage/postgres"
	"bookstore/pkg/config"
	"bookstore/pkg/logger"
)

// KafkaPublisher delivers outbox messages to a Kafka topic.
// The aggregate id is the partition key, so movements of one book stay ordered.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *logger.Logger
}

var _ postgres.OutboxHandler = (*KafkaPublisher)(nil)

// NewProducerConfig returns the sarama settings used for movement events.
func NewProducerConfig(clientID string) *sarama.Config {
	cfg := sarama.NewConfig()
	if clientID != "" {
		cfg.ClientID = clientID
	}
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Idempotent = true
	cfg.Producer.Timeout = 5 * time.Second
	cfg.Net.MaxOpenRequests = 1
	return cfg
}

// NewKafkaPublisher connects a sync producer to the configured brokers.
func NewKafkaPublisher(cfg config.KafkaConfig, log *logger.Logger) (*KafkaPublisher, error) {
	producer, err := sarama.NewSyncProducer(cfg.Brokers, NewProducerConfig(cfg.ClientID))
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, cfg.MovementsTopic, log), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer.
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		log:      log.WithComponent("events.kafka"),
	}
}

// Handle sends one message. Retries are left to the outbox relay.
func (p *KafkaPublisher) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	partition, offset, err := p.producer.SendMessage(p.producerMessage(msg))
	if err != nil {
		return fmt.Errorf("send %s to %s: %w", msg.EventType, p.topic, err)
	}

	p.log.WithContext(ctx).Debugw("event published",
		"topic", p.topic,
		"partition", partition,
		"offset", offset,
		"event_type", msg.EventType,
		"message_id", msg.ID,
	)
	return nil
}

func (p *KafkaPublisher) producerMessage(msg *postgres.OutboxMessage) *sarama.ProducerMessage {
	return &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(msg.AggregateID.String()),
		Value: sarama.ByteEncoder(msg.Payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(msg.EventType)},
			{Key: []byte("event-id"), Value: []byte(msg.ID.String())},
			{Key: []byte("aggregate-type"), Value: []byte(msg.AggregateType)},
		},
		Timestamp: msg.CreatedAt,
	}
}

// Close closes the producer.
func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// LogPublisher is used when no brokers are configured; it only logs the messages.
type LogPublisher struct {
	log *logger.Logger
}

var _ postgres.OutboxHandler = (*LogPublisher)(nil)

// NewLogPublisher creates a handler that writes messages to the log.
func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log.WithComponent("events.log")}
}

// Handle logs the message.
func (p *LogPublisher) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	p.log.WithContext(ctx).Infow("event",
		"event_type", msg.EventType,
		"aggregate_type", msg.AggregateType,
		"aggregate_id", msg.AggregateID,
		"message_id", msg.ID,
	)
	return nil
}
