package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const (
	EventBookingReserved  = "booking_reserved"
	EventBookingSettled   = "booking_settled"
	EventBookingDiscarded = "booking_discarded"
	EventSeatReleased     = "seat_released"
	EventBookingRemoved   = "booking_removed"
	EventTicketIssued     = "ticket_issued"
)

// ReservationEvent is the payload written to the booking events and
// notifications topics.
type ReservationEvent struct {
	Type         string    `json:"type"`
	BookingID    int64     `json:"booking_id"`
	ScheduleID   int64     `json:"schedule_id"`
	TravelerID   int64     `json:"traveler_id,omitempty"`
	Email        string    `json:"email,omitempty"`
	SeatNumbers  []string  `json:"seat_numbers,omitempty"`
	Status       string    `json:"status,omitempty"`
	Amount       int64     `json:"amount,omitempty"`
	TicketNumber string    `json:"ticket_number,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Key partitions events by booking so one booking's events stay ordered.
func (e ReservationEvent) Key() string {
	return strconv.FormatInt(e.BookingID, 10)
}

type Producer struct {
	brokers []string
	writer  *kafka.Writer
	log     logrus.FieldLogger
}

func NewProducer(brokers []string, log logrus.FieldLogger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		brokers: brokers,
		writer:  writer,
		log:     log,
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("write message to %s: %w", topic, err)
	}

	p.log.WithFields(logrus.Fields{"topic": topic, "key": key}).Debug("event published")
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// CheckConnection dials the first broker and reads its partition list.
func (p *Producer) CheckConnection(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("connect to kafka: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("read partitions: %w", err)
	}

	p.log.WithField("partitions", len(partitions)).Info("connected to kafka")
	return nil
}
