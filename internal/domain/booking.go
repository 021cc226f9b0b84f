package domain

import (
	"strings"
	"time"
)

type BookingStatus string

const (
	BookingStatusOpen    BookingStatus = "OPEN"
	BookingStatusSettled BookingStatus = "SETTLED"
)

const (
	DefaultPassengerAge    = 30
	DefaultPassengerGender = "Not specified"
)

type Booking struct {
	ID         int64
	TravelerID int64
	ScheduleID int64
	Status     BookingStatus
	BookedAt   time.Time
	Details    []BookingDetail
	Payment    *Payment
}

// SeatNumbers lists the seats held by the booking in detail order.
func (b *Booking) SeatNumbers() []string {
	out := make([]string, 0, len(b.Details))
	for _, d := range b.Details {
		out = append(out, d.SeatNumber)
	}
	return out
}

type BookingDetail struct {
	ID         int64
	BookingID  int64
	SeatID     int64
	SeatNumber string
	SeatClass  SeatClass
	Passenger  Passenger
}

// Passenger is the snapshot stored on every booking detail. It does not
// follow later profile edits.
type Passenger struct {
	Name   string
	Age    int
	Gender string
}

type Traveler struct {
	ID          int64
	FirstName   string
	LastName    string
	Email       string
	Gender      string
	DateOfBirth *time.Time
}

// NewPassengerSnapshot derives the passenger attributes recorded at booking
// time. A missing or zero age becomes DefaultPassengerAge and a missing gender
// becomes DefaultPassengerGender.
func NewPassengerSnapshot(t Traveler, now time.Time) Passenger {
	name := strings.TrimSpace(t.FirstName)
	if last := strings.TrimSpace(t.LastName); last != "" {
		name = name + " " + last
	}

	age := 0
	if t.DateOfBirth != nil {
		age = AgeAt(*t.DateOfBirth, now)
	}
	if age <= 0 {
		age = DefaultPassengerAge
	}

	gender := strings.TrimSpace(t.Gender)
	if gender == "" {
		gender = DefaultPassengerGender
	}

	return Passenger{Name: name, Age: age, Gender: gender}
}

// AgeAt returns the number of whole years between dob and now.
func AgeAt(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}

type PaymentStatus string

const (
	PaymentStatusPaid   PaymentStatus = "Paid"
	PaymentStatusFailed PaymentStatus = "Failed"
)

type Payment struct {
	ID        int64
	BookingID int64
	Amount    int64
	Method    string
	Status    PaymentStatus
	Reference string
	PaidAt    time.Time
}

type Ticket struct {
	ID           int64
	TicketNumber string
	BookingID    int64
	IssuedAt     time.Time
}

type TravelHistory struct {
	ID         int64
	TravelerID int64
	BookingID  int64
	TripDate   time.Time
}

// ReleaseResult reports the outcome of freeing one seat.
type ReleaseResult struct {
	SeatID         int64
	SeatNumber     string
	BookingID      int64
	BookingRemoved bool
	// DetailMissing is set when the seat was claimed without a booking detail.
	DetailMissing bool
}
