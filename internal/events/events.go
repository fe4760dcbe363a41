// Package events publishes ride lifecycle events for downstream consumers
// such as push notification workers.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// Type names a lifecycle event.
type Type string

const (
	TypeRequestSubmitted Type = "request.submitted"
	TypeRequestCancelled Type = "request.cancelled"
	TypeGroupAccepted    Type = "group.accepted"
	TypeRideCompleted    Type = "ride.completed"
	TypePaymentRecorded  Type = "payment.recorded"
)

// Event is the message body written to the topic.
type Event struct {
	Type        Type      `json:"type"`
	RideID      string    `json:"ride_id,omitempty"`
	DriverID    string    `json:"driver_id,omitempty"`
	RecipientID string    `json:"recipient_id"`
	RequestIDs  []string  `json:"request_ids,omitempty"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Amount      float64   `json:"amount,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, events ...Event) error
	Close() error
}

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a Kafka topic keyed by recipient, so a
// recipient's events stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}
}

// Publish writes all events in one batch.
func (k *KafkaPublisher) Publish(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		b, err := json.Marshal(e)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{Key: []byte(e.RecipientID), Value: b})
	}
	return k.writer.WriteMessages(ctx, msgs...)
}

// Close flushes and closes the writer.
func (k *KafkaPublisher) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...Event) error { return nil }
func (NopPublisher) Close() error                            { return nil }
