package notifications

import (
	"context"
	"fmt"
	"time"

	"dejair/pkg/logger"

	"github.com/IBM/sarama"
)

// EventProducer interface defines the contract for publishing booking events
type EventProducer interface {
	Publish(ctx context.Context, notification *BookingNotification) error
	Close() error
	HealthCheck(ctx context.Context) error
}

// KafkaProducerConfig contains configuration for the Kafka event producer
type KafkaProducerConfig struct {
	Brokers          []string
	EventTopic       string
	RetryMax         int
	TimeoutMs        int
	RequiredAcks     sarama.RequiredAcks
	CompressionType  sarama.CompressionCodec
	IdempotentWrites bool
	MaxMessageBytes  int
}

// DefaultKafkaProducerConfig returns a default producer configuration
func DefaultKafkaProducerConfig(brokers []string, topic string) *KafkaProducerConfig {
	return &KafkaProducerConfig{
		Brokers:          brokers,
		EventTopic:       topic,
		RetryMax:         3,
		TimeoutMs:        10000, // 10 seconds
		RequiredAcks:     sarama.WaitForAll,
		CompressionType:  sarama.CompressionSnappy,
		IdempotentWrites: true,
		MaxMessageBytes:  1000000, // 1MB
	}
}

// KafkaEventProducer publishes booking events to Kafka
type KafkaEventProducer struct {
	producer sarama.SyncProducer
	config   *KafkaProducerConfig
	log      *logger.Logger
}

// NewKafkaEventProducer creates a new Kafka event producer
func NewKafkaEventProducer(config *KafkaProducerConfig) (EventProducer, error) {
	saramaConfig := sarama.NewConfig()

	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = config.RequiredAcks
	saramaConfig.Producer.Compression = config.CompressionType
	saramaConfig.Producer.Retry.Max = config.RetryMax
	saramaConfig.Producer.Timeout = time.Duration(config.TimeoutMs) * time.Millisecond
	saramaConfig.Producer.Idempotent = config.IdempotentWrites
	saramaConfig.Producer.MaxMessageBytes = config.MaxMessageBytes

	if config.IdempotentWrites {
		saramaConfig.Net.MaxOpenRequests = 1
	}

	// Hash partitioner keeps one booking's events ordered
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &KafkaEventProducer{
		producer: producer,
		config:   config,
		log:      logger.GetDefault(),
	}, nil
}

// Publish sends a single booking notification to Kafka
func (kep *KafkaEventProducer) Publish(ctx context.Context, notification *BookingNotification) error {
	messageBytes, err := notification.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic:     kep.config.EventTopic,
		Key:       sarama.StringEncoder(notification.GetPartitionKey()),
		Value:     sarama.ByteEncoder(messageBytes),
		Timestamp: notification.CreatedAt,
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(notification.Type)},
		},
	}

	partition, offset, err := kep.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to publish booking event: %w", err)
	}

	kep.log.Debug("booking event published",
		"type", notification.Type,
		"booking_id", notification.BookingID.String(),
		"partition", partition,
		"offset", offset,
	)
	return nil
}

// Close shuts down the producer
func (kep *KafkaEventProducer) Close() error {
	return kep.producer.Close()
}

// HealthCheck verifies the producer can reach the cluster
func (kep *KafkaEventProducer) HealthCheck(ctx context.Context) error {
	msg := &BookingNotification{Type: "HEALTH_CHECK", CreatedAt: time.Now()}
	messageBytes, err := msg.ToJSON()
	if err != nil {
		return err
	}
	_, _, err = kep.producer.SendMessage(&sarama.ProducerMessage{
		Topic: kep.config.EventTopic,
		Value: sarama.ByteEncoder(messageBytes),
	})
	return err
}

// NoopProducer drops events; used when the broker is disabled.
type NoopProducer struct{}

func (NoopProducer) Publish(ctx context.Context, notification *BookingNotification) error {
	return nil
}

func (NoopProducer) Close() error { return nil }

func (NoopProducer) HealthCheck(ctx context.Context) error { return nil }
