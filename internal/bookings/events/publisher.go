package events

import (
	"context"

	"ceramico/pkg/kafka"
	"ceramico/pkg/model"
)

// Topic carries booking lifecycle events to the notifier.
const Topic = "booking-events"

// Publisher emits booking lifecycle events. Publishing is best-effort from
// the caller's point of view; ledger writes never roll back on publish
// failure.
type Publisher interface {
	Publish(ctx context.Context, event model.BookingEvent) error
}

type kafkaPublisher struct {
	producer *kafka.Producer
	source   string
}

func NewKafkaPublisher(producer *kafka.Producer, source string) Publisher {
	return &kafkaPublisher{producer: producer, source: source}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event model.BookingEvent) error {
	msg, err := kafka.NewMessage().
		WithKey(event.BookingID).
		WithValue(event).
		WithEventID("").
		WithEventType(event.Type).
		WithSource(p.source).
		Build()
	if err != nil {
		return err
	}

	return p.producer.Publish(ctx, msg)
}
