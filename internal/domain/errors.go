package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrTravelerNotFound = errors.New("traveler not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrSeatNotFound     = errors.New("seat not found")
	ErrTicketNotFound   = errors.New("ticket not found")

	ErrSeatConflict    = errors.New("seat already booked")
	ErrBookingSettled  = errors.New("booking already settled")
	ErrPaymentDeclined = errors.New("payment declined")

	ErrSeatNotBooked  = errors.New("seat is not currently booked")
	ErrBookingEmpty   = errors.New("booking has no seats")
	ErrInvalidSeatSet = errors.New("invalid seat set")
	ErrInvalidInput   = errors.New("invalid input")
)

// SeatConflictError names the requested seats that were already claimed.
type SeatConflictError struct {
	SeatIDs     []int64
	SeatNumbers []string
}

func (e *SeatConflictError) Error() string {
	switch {
	case len(e.SeatNumbers) > 0:
		return fmt.Sprintf("%s: %s", ErrSeatConflict, strings.Join(e.SeatNumbers, ", "))
	case len(e.SeatIDs) > 0:
		return fmt.Sprintf("%s: seat ids %v", ErrSeatConflict, e.SeatIDs)
	default:
		return ErrSeatConflict.Error()
	}
}

func (e *SeatConflictError) Unwrap() error { return ErrSeatConflict }

type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Field != "" && e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Field != "":
		return fmt.Sprintf("invalid %s", e.Field)
	default:
		return ErrInvalidInput.Error()
	}
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindConflict
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	default:
		return "internal"
	}
}

// KindOf classifies err for transport mapping. Unknown errors are internal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrScheduleNotFound),
		errors.Is(err, ErrTravelerNotFound),
		errors.Is(err, ErrBookingNotFound),
		errors.Is(err, ErrSeatNotFound),
		errors.Is(err, ErrTicketNotFound):
		return KindNotFound
	case errors.Is(err, ErrSeatConflict),
		errors.Is(err, ErrBookingSettled),
		errors.Is(err, ErrPaymentDeclined):
		return KindConflict
	case errors.Is(err, ErrSeatNotBooked),
		errors.Is(err, ErrBookingEmpty),
		errors.Is(err, ErrInvalidSeatSet),
		errors.Is(err, ErrInvalidInput):
		return KindValidation
	default:
		return KindInternal
	}
}
