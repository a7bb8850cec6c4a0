package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"github.com/jobhunter-backend/auth-service/pkg/retry"
)

// ActivationEvent is published when a new account needs its activation email.
// A separate mail worker consumes the topic and renders the message.
type ActivationEvent struct {
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	ActivationURL string    `json:"activation_url"`
	RequestedAt   time.Time `json:"requested_at"`
}

// KafkaNotifierConfig holds configuration for the Kafka notifier
type KafkaNotifierConfig struct {
	Brokers  []string
	ClientID string
	Topic    string
	Retry    *retry.Config
}

// KafkaNotifier publishes activation events to Kafka
type KafkaNotifier struct {
	client *kgo.Client
	topic  string
	retry  *retry.Config
	log    *zap.Logger
}

// NewKafkaNotifier creates a new KafkaNotifier and verifies broker connectivity
func NewKafkaNotifier(ctx context.Context, cfg *KafkaNotifierConfig, log *zap.Logger) (*KafkaNotifier, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka client: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Kafka: %w", err)
	}

	retryCfg := cfg.Retry
	if retryCfg == nil {
		retryCfg = &retry.Config{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			Multiplier:      2.0,
			JitterFactor:    0.1,
		}
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &KafkaNotifier{
		client: client,
		topic:  cfg.Topic,
		retry:  retryCfg,
		log:    log,
	}, nil
}

// SendActivation publishes an activation event keyed by email so all events
// for one account land on the same partition.
func (n *KafkaNotifier) SendActivation(ctx context.Context, email, name, activationURL string) error {
	event := &ActivationEvent{
		Email:         email,
		Name:          name,
		ActivationURL: activationURL,
		RequestedAt:   time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal activation event: %w", err)
	}

	record := &kgo.Record{
		Topic: n.topic,
		Key:   []byte(email),
		Value: payload,
	}

	result := retry.Do(ctx, n.retry, func(ctx context.Context) error {
		return n.client.ProduceSync(ctx, record).FirstErr()
	})
	if result.Err != nil {
		n.log.Error("activation event publish failed",
			zap.String("topic", n.topic),
			zap.Int("attempts", result.Attempts),
			zap.Error(result.LastError))
		return fmt.Errorf("failed to publish activation event: %w", result.Err)
	}

	n.log.Info("activation event published",
		zap.String("topic", n.topic),
		zap.Int("attempts", result.Attempts))
	return nil
}

// Close flushes pending records and closes the client
func (n *KafkaNotifier) Close() {
	n.client.Close()
}
