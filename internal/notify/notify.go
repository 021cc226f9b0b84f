// Package notify turns reservation events into traveler notifications.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Domenick1991/railbooking/internal/kafka"
)

type Sender struct {
	log logrus.FieldLogger
}

func NewSender(log logrus.FieldLogger) *Sender {
	return &Sender{log: log}
}

// Send delivers the notification for event. Delivery is a structured log
// line; events without a recipient are skipped.
func (s *Sender) Send(ctx context.Context, event kafka.ReservationEvent) error {
	if event.Email == "" {
		s.log.WithFields(logrus.Fields{"type": event.Type, "booking_id": event.BookingID}).Debug("notification skipped: no recipient")
		return nil
	}
	subject, body := Render(event)
	s.log.WithFields(logrus.Fields{
		"to":         event.Email,
		"type":       event.Type,
		"booking_id": event.BookingID,
		"subject":    subject,
	}).Info(body)
	return nil
}

// Render builds the subject and body of a notification.
func Render(e kafka.ReservationEvent) (string, string) {
	seats := strings.Join(e.SeatNumbers, ", ")
	switch e.Type {
	case kafka.EventBookingReserved:
		return "Seats reserved", fmt.Sprintf("Booking %d holds seats %s on schedule %d. Complete payment to confirm.", e.BookingID, seats, e.ScheduleID)
	case kafka.EventBookingSettled:
		return "Booking confirmed", fmt.Sprintf("Payment of %s received for booking %d, seats %s.", FormatAmount(e.Amount), e.BookingID, seats)
	case kafka.EventBookingDiscarded:
		return "Booking cancelled", fmt.Sprintf("Booking %d was cancelled and seats %s were released.", e.BookingID, seats)
	case kafka.EventSeatReleased:
		return "Seat released", fmt.Sprintf("Seat %s of booking %d was released.", seats, e.BookingID)
	case kafka.EventBookingRemoved:
		return "Booking removed", fmt.Sprintf("Booking %d no longer holds any seats and was removed.", e.BookingID)
	case kafka.EventTicketIssued:
		return "Your ticket", fmt.Sprintf("Ticket %s was issued for booking %d.", e.TicketNumber, e.BookingID)
	default:
		return "Booking update", fmt.Sprintf("Booking %d: %s.", e.BookingID, e.Type)
	}
}

// FormatAmount renders minor currency units as a decimal string.
func FormatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign, minor = "-", -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
