// Package audit emits a record for every booking mutation so operators can
// reconstruct who changed what. Publishing is best-effort: a broker outage
// must never fail the booking itself.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"quadras/pkg/kafka"
	"quadras/pkg/logger"
)

const (
	ActionCreated = "booking.created"
	ActionUpdated = "booking.updated"
	ActionDeleted = "booking.deleted"
)

type Entry struct {
	Action     string    `json:"action"`
	Actor      string    `json:"actor"`
	Admin      bool      `json:"admin"`
	CourtAlias string    `json:"court_alias"`
	CalendarID string    `json:"calendar_id"`
	EventID    string    `json:"event_id,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type Publisher interface {
	Record(ctx context.Context, entry Entry)
	Close() error
}

type kafkaPublisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

// NewKafkaPublisher publishes audit entries keyed by calendar ID so records
// for one court stay ordered on a single partition.
func NewKafkaPublisher(brokers []string, topic string, log *logger.Logger) (Publisher, error) {
	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: brokers,
		Topic:   topic,
	})
	if err != nil {
		return nil, err
	}
	return &kafkaPublisher{producer: producer, log: log}, nil
}

func (p *kafkaPublisher) Record(ctx context.Context, entry Entry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	value, err := json.Marshal(entry)
	if err != nil {
		p.log.Error("Failed to encode audit entry", "action", entry.Action, "error", err)
		return
	}
	err = p.producer.Publish(ctx, kafka.Message{
		Key:       entry.CalendarID,
		Value:     value,
		Timestamp: entry.Timestamp,
	})
	if err != nil {
		p.log.Error("Failed to publish audit entry",
			"action", entry.Action,
			"calendar_id", entry.CalendarID,
			"error", err,
		)
	}
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

type noopPublisher struct{}

// NewNoopPublisher is used when no Kafka brokers are configured.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Record(context.Context, Entry) {}
func (noopPublisher) Close() error                  { return nil }
