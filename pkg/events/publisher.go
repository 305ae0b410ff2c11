// Package events publishes domain events to a message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Event is a single message. Key selects the partition.
type Event struct {
	Type       string    `json:"type"`
	Key        string    `json:"-"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// Publisher is the interface for sending events to a broker.
type Publisher interface {
	// Publish sends events in one write.
	Publish(ctx context.Context, events ...Event) error
	// Close flushes and releases the connection.
	Close() error
}

// --- Kafka Publisher ---

type kafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher writing to topic on the given brokers.
func NewKafkaPublisher(brokers []string, topic string) Publisher {
	return &kafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
		},
	}
}

func (p *kafkaPublisher) Publish(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs, err := encode(events)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("events: failed to write %d messages to %s: %w", len(msgs), p.writer.Topic, err)
	}
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

func encode(events []Event) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		if e.OccurredAt.IsZero() {
			e.OccurredAt = time.Now().UTC()
		}
		value, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("events: encode %s: %w", e.Type, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.Key),
			Value: value,
			Headers: []kafka.Header{
				{Key: "type", Value: []byte(e.Type)},
			},
		})
	}
	return msgs, nil
}

// --- Null Publisher (no-op, used when no broker is configured) ---

type nullPublisher struct{}

// NewNullPublisher creates a publisher that drops every event.
func NewNullPublisher() Publisher {
	return &nullPublisher{}
}

func (p *nullPublisher) Publish(ctx context.Context, events ...Event) error {
	return nil
}

func (p *nullPublisher) Close() error {
	return nil
}

// NewPublisherFromConfig returns a Kafka publisher when brokers are set,
// and a null publisher otherwise.
func NewPublisherFromConfig(brokers []string, topic string) (Publisher, error) {
	if len(brokers) == 0 {
		return NewNullPublisher(), nil
	}
	if topic == "" {
		return nil, fmt.Errorf("events: topic is required when brokers are configured")
	}
	return NewKafkaPublisher(brokers, topic), nil
}
