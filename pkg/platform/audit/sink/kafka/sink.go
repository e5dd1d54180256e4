// Package kafka publishes audit events to a Kafka topic. The sink is a
// write-only Store: reads go through a queryable store, not the broker.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"clubgate/pkg/platform/audit"
	"clubgate/pkg/platform/sentinel"
)

type Sink struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// New connects a producer to the given brokers. Returns nil when no brokers
// are configured; callers fall back to an in-process store.
func New(brokers []string, topic string, logger *slog.Logger) (*Sink, error) {
	if len(brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &Sink{client: client, topic: topic, logger: logger}, nil
}

// Append produces the event keyed by session ID, so one session's trail stays
// ordered within a partition.
func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Key:   []byte(event.SessionID),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// ListBySession is not served by the broker.
func (s *Sink) ListBySession(context.Context, string) ([]audit.Event, error) {
	return nil, fmt.Errorf("audit trail reads are not served from kafka: %w", sentinel.ErrUnavailable)
}

func (s *Sink) Close() {
	s.client.Close()
}
