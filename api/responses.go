package api

import (
	"time"

	"github.com/Domenick1991/railbooking/internal/domain"
)

const dateLayout = "2006-01-02"

type scheduleResponse struct {
	ID            int64  `json:"schedule_id"`
	TrainID       int64  `json:"train_id"`
	TrainName     string `json:"train_name"`
	TrainNumber   string `json:"train_number"`
	RouteName     string `json:"route_name"`
	TravelDate    string `json:"travel_date"`
	DepartureTime string `json:"departure_time"`
	ArrivalTime   string `json:"arrival_time"`
}

func toScheduleResponse(s *domain.Schedule) scheduleResponse {
	return scheduleResponse{
		ID:            s.ID,
		TrainID:       s.TrainID,
		TrainName:     s.TrainName,
		TrainNumber:   s.TrainNumber,
		RouteName:     s.RouteName,
		TravelDate:    s.TravelDate.Format(dateLayout),
		DepartureTime: s.DepartureTime,
		ArrivalTime:   s.ArrivalTime,
	}
}

type seatResponse struct {
	ID     int64  `json:"seat_id"`
	Number string `json:"seat_number"`
	Class  string `json:"seat_class"`
	Booked bool   `json:"is_booked"`
}

type seatMapResponse struct {
	ScheduleID int64          `json:"schedule_id"`
	Total      int            `json:"total"`
	Available  int            `json:"available"`
	Seats      []seatResponse `json:"seats"`
}

func toSeatMapResponse(scheduleID int64, seats []domain.Seat) seatMapResponse {
	resp := seatMapResponse{ScheduleID: scheduleID, Total: len(seats), Seats: make([]seatResponse, 0, len(seats))}
	for _, s := range seats {
		if !s.Booked {
			resp.Available++
		}
		resp.Seats = append(resp.Seats, seatResponse{ID: s.ID, Number: s.Number, Class: string(s.Class), Booked: s.Booked})
	}
	return resp
}

type bookingSeatResponse struct {
	SeatID        int64  `json:"seat_id"`
	SeatNumber    string `json:"seat_number"`
	SeatClass     string `json:"seat_class"`
	PassengerName string `json:"passenger_name"`
	Age           int    `json:"age"`
	Gender        string `json:"gender"`
}

type paymentResponse struct {
	ID        int64     `json:"payment_id"`
	BookingID int64     `json:"booking_id"`
	Amount    int64     `json:"amount"`
	Method    string    `json:"payment_method"`
	Status    string    `json:"payment_status"`
	Reference string    `json:"reference,omitempty"`
	PaidAt    time.Time `json:"payment_date"`
}

func toPaymentResponse(p *domain.Payment) *paymentResponse {
	if p == nil {
		return nil
	}
	return &paymentResponse{
		ID:        p.ID,
		BookingID: p.BookingID,
		Amount:    p.Amount,
		Method:    p.Method,
		Status:    string(p.Status),
		Reference: p.Reference,
		PaidAt:    p.PaidAt,
	}
}

type bookingResponse struct {
	ID         int64                 `json:"booking_id"`
	TravelerID int64                 `json:"traveler_id"`
	ScheduleID int64                 `json:"schedule_id"`
	Status     string                `json:"status"`
	BookedAt   time.Time             `json:"booking_date"`
	Seats      []bookingSeatResponse `json:"seats"`
	Payment    *paymentResponse      `json:"payment,omitempty"`
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	resp := bookingResponse{
		ID:         b.ID,
		TravelerID: b.TravelerID,
		ScheduleID: b.ScheduleID,
		Status:     string(b.Status),
		BookedAt:   b.BookedAt,
		Seats:      make([]bookingSeatResponse, 0, len(b.Details)),
		Payment:    toPaymentResponse(b.Payment),
	}
	for _, d := range b.Details {
		resp.Seats = append(resp.Seats, bookingSeatResponse{
			SeatID:        d.SeatID,
			SeatNumber:    d.SeatNumber,
			SeatClass:     string(d.SeatClass),
			PassengerName: d.Passenger.Name,
			Age:           d.Passenger.Age,
			Gender:        d.Passenger.Gender,
		})
	}
	return resp
}

type ticketResponse struct {
	ID           int64     `json:"ticket_id"`
	TicketNumber string    `json:"ticket_number"`
	BookingID    int64     `json:"booking_id"`
	IssuedAt     time.Time `json:"issue_date"`
}

func toTicketResponse(t *domain.Ticket) ticketResponse {
	return ticketResponse{ID: t.ID, TicketNumber: t.TicketNumber, BookingID: t.BookingID, IssuedAt: t.IssuedAt}
}

type releaseResponse struct {
	Message        string `json:"message"`
	SeatNumber     string `json:"seat_number"`
	BookingID      int64  `json:"booking_id,omitempty"`
	BookingRemoved bool   `json:"booking_removed"`
}

func toReleaseResponse(r *domain.ReleaseResult) releaseResponse {
	msg := "Seat released; booking still holds other seats"
	switch {
	case r.BookingRemoved:
		msg = "Seat released and booking removed"
	case r.DetailMissing:
		msg = "Seat released"
	}
	return releaseResponse{Message: msg, SeatNumber: r.SeatNumber, BookingID: r.BookingID, BookingRemoved: r.BookingRemoved}
}

type historyResponse struct {
	BookingID     int64      `json:"booking_id"`
	ScheduleID    int64      `json:"schedule_id"`
	TravelDate    string     `json:"travel_date"`
	DepartureTime string     `json:"departure_time"`
	ArrivalTime   string     `json:"arrival_time"`
	TrainName     string     `json:"train_name"`
	TrainNumber   string     `json:"train_number"`
	RouteName     string     `json:"route_name"`
	PassengerName string     `json:"passenger_name"`
	SeatNumber    string     `json:"seat_number"`
	SeatClass     string     `json:"seat_class"`
	TicketID      *int64     `json:"ticket_id"`
	Status        string     `json:"status"`
	Amount        *int64     `json:"amount"`
	Method        *string    `json:"payment_method"`
	PaidAt        *time.Time `json:"payment_date"`
}

func toHistoryResponse(entries []domain.HistoryEntry) []historyResponse {
	out := make([]historyResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyResponse{
			BookingID:     e.BookingID,
			ScheduleID:    e.ScheduleID,
			TravelDate:    e.TravelDate.Format(dateLayout),
			DepartureTime: e.DepartureTime,
			ArrivalTime:   e.ArrivalTime,
			TrainName:     e.TrainName,
			TrainNumber:   e.TrainNumber,
			RouteName:     e.RouteName,
			PassengerName: e.PassengerName,
			SeatNumber:    e.SeatNumber,
			SeatClass:     string(e.SeatClass),
			TicketID:      e.TicketID,
			Status:        e.Status,
			Amount:        e.Amount,
			Method:        e.Method,
			PaidAt:        e.PaidAt,
		})
	}
	return out
}

type salesResponse struct {
	ScheduleID  int64  `json:"schedule_id"`
	TrainName   string `json:"train_name"`
	TrainNumber string `json:"train_number"`
	TravelDate  string `json:"travel_date"`
	TicketCount int64  `json:"ticket_count"`
	TotalSales  int64  `json:"total_sales"`
}

type demographicsResponse struct {
	Gender         string  `json:"gender"`
	PassengerCount int64   `json:"passenger_count"`
	Percentage     float64 `json:"percentage"`
}

type occupancyResponse struct {
	ScheduleID    int64   `json:"schedule_id"`
	TrainName     string  `json:"train_name"`
	TrainNumber   string  `json:"train_number"`
	TravelDate    string  `json:"travel_date"`
	BookedSeats   int64   `json:"booked_seats"`
	TotalSeats    int64   `json:"total_seats"`
	OccupancyRate float64 `json:"occupancy_rate"`
}

type ridePassengerResponse struct {
	TravelerID    int64  `json:"traveler_id"`
	BookingID     int64  `json:"booking_id"`
	PassengerName string `json:"passenger_name"`
	Email         string `json:"email"`
	Gender        string `json:"gender"`
	Age           int    `json:"age"`
	SeatNumber    string `json:"seat_number"`
	SeatClass     string `json:"seat_class"`
}

type rideResponse struct {
	ScheduleID    int64                   `json:"schedule_id"`
	TrainName     string                  `json:"train_name"`
	TravelDate    string                  `json:"travel_date"`
	DepartureTime string                  `json:"departure_time"`
	ArrivalTime   string                  `json:"arrival_time"`
	Passengers    []ridePassengerResponse `json:"passengers"`
}
