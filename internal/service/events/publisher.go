// Package events publishes reservation events for the use cases.
package events

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Domenick1991/railbooking/internal/kafka"
)

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// Publisher writes every event to the booking topic and, when set, to the
// notifications topic. Failures are logged and never returned: the booking
// state is already committed when an event is published.
type Publisher struct {
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	log                logrus.FieldLogger
}

func NewPublisher(producer Producer, bookingTopic, notificationsTopic string, log logrus.FieldLogger) *Publisher {
	return &Publisher{
		producer:           producer,
		bookingTopic:       bookingTopic,
		notificationsTopic: notificationsTopic,
		log:                log,
	}
}

func (p *Publisher) Publish(ctx context.Context, event kafka.ReservationEvent) {
	if p == nil || p.producer == nil || p.bookingTopic == "" {
		return
	}
	for _, topic := range []string{p.bookingTopic, p.notificationsTopic} {
		if topic == "" {
			continue
		}
		if err := p.producer.Publish(ctx, topic, event.Key(), event); err != nil {
			p.log.WithError(err).WithFields(logrus.Fields{
				"topic":      topic,
				"type":       event.Type,
				"booking_id": event.BookingID,
			}).Warn("failed to publish event")
		}
	}
}
