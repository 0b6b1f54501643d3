package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"haulcheck/internal/domain"
)

// StatusEvent is published when an entity's aggregate status actually
// changes. Edge-triggered by construction: the transport layer publishes only
// on a reported transition, so idempotent re-application never duplicates an
// event. Downstream notification delivery (push/SMS/email) consumes these.
type StatusEvent struct {
	EntityID string                 `json:"entity_id"`
	Previous domain.AggregateStatus `json:"previous"`
	Current  domain.AggregateStatus `json:"current"`
	Kind     domain.DocumentKind    `json:"kind,omitempty"`
	Decision domain.DecisionStatus  `json:"decision,omitempty"`
	At       time.Time              `json:"at"`
}

// Publisher emits approval status-change events.
type Publisher interface {
	PublishStatusChange(ctx context.Context, event StatusEvent) error
	Close()
}

// KafkaPublisher publishes status events to a Kafka topic, keyed by entity so
// per-entity ordering is preserved.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &KafkaPublisher{client: client, topic: topic}, nil
}

func (p *KafkaPublisher) PublishStatusChange(ctx context.Context, event StatusEvent) error {
	if event.At.IsZero() {
		event.At = time.Now()
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode status event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.EntityID),
		Value: value,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce status event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() {
	p.client.Close()
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishStatusChange(context.Context, StatusEvent) error { return nil }
func (NoopPublisher) Close()                                                {}
