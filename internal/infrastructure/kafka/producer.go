package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/oldkaseb/najbot/config"
	"github.com/oldkaseb/najbot/internal/domain/whisper/deps"
)

// Audit event topics
const (
	TopicWhisperIssued       = "whispers.issued"
	TopicWhisperRedeemed     = "whispers.redeemed"
	TopicWhisperExpired      = "whispers.expired"
	TopicSubscriptionChanged = "subscriptions.changed"
)

// AuditProducerImpl publishes whisper lifecycle events to Kafka
type AuditProducerImpl struct {
	producer sarama.SyncProducer
	logger   zerolog.Logger
}

// NewProducer creates a Kafka audit producer. When no brokers are
// configured the returned producer is a no-op.
func NewProducer(cfg *config.KafkaConfig, logger zerolog.Logger) (deps.AuditProducer, error) {
	if !cfg.Enabled() {
		logger.Info().Msg("Kafka brokers not configured, audit events disabled")
		return &nopProducer{}, nil
	}

	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 3
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.Compression = sarama.CompressionSnappy

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Info().Strs("brokers", cfg.Brokers).Msg("Kafka producer initialized successfully")

	return &AuditProducerImpl{
		producer: producer,
		logger:   logger,
	}, nil
}

func (k *AuditProducerImpl) WhisperIssued(ctx context.Context, token string, fromID, targetID, chatID int64) error {
	event := map[string]interface{}{
		"event_id":  uuid.NewString(),
		"token":     token,
		"from_id":   fromID,
		"target_id": targetID,
		"chat_id":   chatID,
		"issued_at": time.Now().UTC().Format(time.RFC3339),
	}
	return k.sendEvent(ctx, TopicWhisperIssued, event)
}

func (k *AuditProducerImpl) WhisperRedeemed(ctx context.Context, token string, targetID, chatID int64) error {
	event := map[string]interface{}{
		"event_id":    uuid.NewString(),
		"token":       token,
		"target_id":   targetID,
		"chat_id":     chatID,
		"redeemed_at": time.Now().UTC().Format(time.RFC3339),
	}
	return k.sendEvent(ctx, TopicWhisperRedeemed, event)
}

func (k *AuditProducerImpl) WhisperExpired(ctx context.Context, token string, chatID int64) error {
	event := map[string]interface{}{
		"event_id":   uuid.NewString(),
		"token":      token,
		"chat_id":    chatID,
		"expired_at": time.Now().UTC().Format(time.RFC3339),
	}
	return k.sendEvent(ctx, TopicWhisperExpired, event)
}

func (k *AuditProducerImpl) SubscriptionChanged(ctx context.Context, groupID, userID int64, action string) error {
	event := map[string]interface{}{
		"event_id":   uuid.NewString(),
		"group_id":   groupID,
		"user_id":    userID,
		"action":     action,
		"changed_at": time.Now().UTC().Format(time.RFC3339),
	}
	return k.sendEvent(ctx, TopicSubscriptionChanged, event)
}

func (k *AuditProducerImpl) sendEvent(ctx context.Context, topic string, event interface{}) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event to JSON: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(jsonData),
	}

	partition, offset, err := k.producer.SendMessage(message)
	if err != nil {
		k.logger.Error().Err(err).Str("topic", topic).Msg("Failed to send Kafka message")
		return err
	}

	k.logger.Debug().Str("topic", topic).Int32("partition", partition).Int64("offset", offset).Msg("Kafka message sent successfully")
	return nil
}

func (k *AuditProducerImpl) Close() error {
	if k.producer == nil {
		return nil
	}
	if err := k.producer.Close(); err != nil {
		k.logger.Error().Err(err).Msg("Failed to close Kafka producer")
		return err
	}
	k.logger.Info().Msg("Kafka producer closed successfully")
	return nil
}

// nopProducer is used when Kafka is not configured
type nopProducer struct{}

func (*nopProducer) WhisperIssued(context.Context, string, int64, int64, int64) error { return nil }
func (*nopProducer) WhisperRedeemed(context.Context, string, int64, int64) error      { return nil }
func (*nopProducer) WhisperExpired(context.Context, string, int64) error              { return nil }
func (*nopProducer) SubscriptionChanged(context.Context, int64, int64, string) error  { return nil }
func (*nopProducer) Close() error                                                     { return nil }
