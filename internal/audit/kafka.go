package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"veris/pkg/platform/circuit"
)

const defaultTopic = "veris.audit.events"

// Kafka publishes events to a broker, keyed by owner so one owner's
// events stay ordered within a partition. When the broker misbehaves a
// circuit breaker redirects events to structured logs until the broker
// recovers; audit delivery degrades, operations never fail.
type Kafka struct {
	client  *kgo.Client
	topic   string
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// KafkaOption configures a Kafka publisher.
type KafkaOption func(*Kafka)

// WithTopic overrides the audit topic.
func WithTopic(topic string) KafkaOption {
	return func(k *Kafka) {
		if topic != "" {
			k.topic = topic
		}
	}
}

// WithLogger sets the fallback logger.
func WithLogger(logger *slog.Logger) KafkaOption {
	return func(k *Kafka) {
		k.logger = logger
	}
}

// NewKafka connects to the brokers and ensures the audit topic exists.
func NewKafka(brokers []string, opts ...KafkaOption) (*Kafka, error) {
	k := &Kafka{
		topic:   defaultTopic,
		breaker: circuit.New("audit-kafka", circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(2)),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(k)
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(k.topic),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}
	k.client = client

	if err := k.ensureTopic(context.Background()); err != nil {
		client.Close()
		return nil, err
	}
	return k, nil
}

func (k *Kafka) ensureTopic(ctx context.Context) error {
	adm := kadm.NewClient(k.client)
	resp, err := adm.CreateTopic(ctx, -1, -1, nil, k.topic)
	if err != nil {
		return fmt.Errorf("create audit topic: %w", err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create audit topic: %w", resp.Err)
	}
	return nil
}

func (k *Kafka) Emit(ctx context.Context, event Event) error {
	event = stamp(event)

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}

	// Every emit doubles as a probe: successes while open walk the
	// breaker back closed.
	record := &kgo.Record{
		Key:   []byte(event.Owner.String()),
		Value: payload,
	}
	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		if useFallback, _ := k.breaker.RecordFailure(); useFallback {
			k.logFallback(ctx, event, err)
			return nil
		}
		return fmt.Errorf("produce audit event: %w", err)
	}
	k.breaker.RecordSuccess()
	return nil
}

func (k *Kafka) logFallback(ctx context.Context, event Event, cause error) {
	k.logger.WarnContext(ctx, "audit event diverted to log",
		"action", event.Action,
		"owner", event.Owner,
		"height", event.Height,
		"error", cause,
	)
}

func (k *Kafka) Close() {
	k.client.Close()
}
