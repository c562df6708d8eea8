package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"github.com/meetlite/meetlite/pkg/logger"
)

// Event types published to the rsvp topic.
const (
	TypeRSVPConfirmed = "rsvp.confirmed"
	TypeRSVPCancelled = "rsvp.cancelled"
	TypeEventCreated  = "event.created"
	TypeEventDeleted  = "event.deleted"
)

// Envelope is the wire format for domain events.
type Envelope struct {
	Type       string    `json:"type"`
	EventID    string    `json:"event_id"`
	UserID     string    `json:"user_id,omitempty"`
	Remaining  int       `json:"remaining,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher emits domain events after state changes have committed.
// Publishing is best effort: admission already succeeded by the time an
// event is emitted, so a broker outage must not fail the request.
type Publisher interface {
	Publish(ctx context.Context, ev Envelope)
	Close()
}

// KafkaPublisher publishes events to Kafka via franz-go.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	log    *logger.Logger
}

// KafkaConfig holds Kafka publisher configuration.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// NewKafkaPublisher creates a publisher connected to the given brokers.
func NewKafkaPublisher(cfg KafkaConfig, log *logger.Logger) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.ProducerLinger(5*time.Millisecond),
		kgo.RecordRetries(3),
	)
	if err != nil {
		return nil, err
	}
	return &KafkaPublisher{client: client, topic: cfg.Topic, log: log}, nil
}

// Publish sends the event asynchronously, keyed by event id so all
// records for one event land in the same partition in order.
func (p *KafkaPublisher) Publish(ctx context.Context, ev Envelope) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	value, err := json.Marshal(ev)
	if err != nil {
		p.log.ErrorContext(ctx, "marshal domain event",
			zap.String("type", ev.Type), zap.Error(err))
		return
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(ev.EventID),
		Value: value,
	}
	p.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		if err != nil {
			p.log.Error("publish domain event",
				zap.String("type", ev.Type),
				zap.String("event_id", ev.EventID),
				zap.Error(err))
		}
	})
}

// Close flushes pending records and releases the client.
func (p *KafkaPublisher) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.client.Flush(ctx)
	p.client.Close()
}

// NopPublisher discards all events. Used when Kafka is disabled and in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Envelope) {}
func (NopPublisher) Close()                            {}
