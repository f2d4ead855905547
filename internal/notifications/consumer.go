package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dejair/pkg/logger"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// RecipientResolver maps a booking to the client name/email that should
// receive the notification (to avoid circular dependency with storage layers)
type RecipientResolver interface {
	ResolveBookingClient(ctx context.Context, bookingID uuid.UUID) (name, email string, err error)
}

type EventConsumer interface {
	Start(ctx context.Context) error
	Stop() error
}

type ConsumerConfig struct {
	Brokers          []string
	GroupID          string
	Topics           []string
	SessionTimeoutMs int
	HeartbeatMs      int
	OffsetOldest     bool
}

func DefaultConsumerConfig(brokers []string, groupID, topic string) *ConsumerConfig {
	return &ConsumerConfig{
		Brokers:          brokers,
		GroupID:          groupID,
		Topics:           []string{topic},
		SessionTimeoutMs: 30000,
		HeartbeatMs:      3000,
		OffsetOldest:     false,
	}
}

// KafkaEventConsumer consumes booking events and emails the client.
type KafkaEventConsumer struct {
	consumerGroup sarama.ConsumerGroup
	config        *ConsumerConfig
	emailService  EmailService
	resolver      RecipientResolver
	log           *logger.Logger
	cancel        context.CancelFunc
}

func NewKafkaEventConsumer(config *ConsumerConfig, emailService EmailService, resolver RecipientResolver) (EventConsumer, error) {
	saramaConfig := sarama.NewConfig()

	saramaConfig.Consumer.Group.Session.Timeout = time.Duration(config.SessionTimeoutMs) * time.Millisecond
	saramaConfig.Consumer.Group.Heartbeat.Interval = time.Duration(config.HeartbeatMs) * time.Millisecond
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = 1 * time.Second

	if config.OffsetOldest {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	consumerGroup, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &KafkaEventConsumer{
		consumerGroup: consumerGroup,
		config:        config,
		emailService:  emailService,
		resolver:      resolver,
		log:           logger.GetDefault(),
	}, nil
}

// Start runs the consume loop until ctx is cancelled or Stop is called.
func (kec *KafkaEventConsumer) Start(ctx context.Context) error {
	ctx, kec.cancel = context.WithCancel(ctx)

	go func() {
		for err := range kec.consumerGroup.Errors() {
			kec.log.Error("consumer group error", "error", err)
		}
	}()

	go func() {
		handler := &consumerGroupHandler{consumer: kec}
		for {
			select {
			case <-ctx.Done():
				kec.log.Info("notification consumer shutting down")
				return
			default:
				err := kec.consumerGroup.Consume(ctx, kec.config.Topics, handler)
				if err != nil && !errors.Is(err, sarama.ErrClosedConsumerGroup) {
					kec.log.Error("consume loop error", "error", err)
					time.Sleep(time.Second)
				}
			}
		}
	}()

	kec.log.Info("notification consumer started", "topics", kec.config.Topics, "group", kec.config.GroupID)
	return nil
}

func (kec *KafkaEventConsumer) Stop() error {
	if kec.cancel != nil {
		kec.cancel()
	}
	return kec.consumerGroup.Close()
}

func (kec *KafkaEventConsumer) handleMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	notification, err := FromJSON(message.Value)
	if err != nil {
		// Poison message; log and move on rather than blocking the partition.
		kec.log.Error("dropping malformed notification", "offset", message.Offset, "error", err)
		return nil
	}

	if notification.Type == "HEALTH_CHECK" {
		return nil
	}

	name, email, err := kec.resolver.ResolveBookingClient(ctx, notification.BookingID)
	if err != nil {
		return fmt.Errorf("failed to resolve recipient for booking %s: %w", notification.BookingID, err)
	}

	return kec.emailService.SendBookingNotification(ctx, email, name, notification)
}

// consumerGroupHandler implements sarama.ConsumerGroupHandler
type consumerGroupHandler struct {
	consumer *KafkaEventConsumer
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if err := h.consumer.handleMessage(session.Context(), message); err != nil {
			h.consumer.log.Error("failed to handle notification",
				"topic", message.Topic, "offset", message.Offset, "error", err)
		}
		session.MarkMessage(message, "")
	}
	return nil
}
