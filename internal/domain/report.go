package domain

import "time"

type SalesRow struct {
	ScheduleID  int64
	TrainName   string
	TrainNumber string
	TravelDate  time.Time
	TicketCount int64
	TotalSales  int64
}

type DemographicsRow struct {
	Gender         string
	PassengerCount int64
	Percentage     float64
}

type OccupancyRow struct {
	ScheduleID    int64
	TrainName     string
	TrainNumber   string
	TravelDate    time.Time
	BookedSeats   int64
	TotalSeats    int64
	OccupancyRate float64
}

// Ride is one schedule with the passengers currently holding seats on it.
type Ride struct {
	ScheduleID    int64
	TrainName     string
	TravelDate    time.Time
	DepartureTime string
	ArrivalTime   string
	Passengers    []RidePassenger
}

type RidePassenger struct {
	TravelerID    int64
	BookingID     int64
	PassengerName string
	Email         string
	Gender        string
	Age           int
	SeatNumber    string
	SeatClass     SeatClass
}

// HistoryEntry is one row of a traveler's travel history.
type HistoryEntry struct {
	BookingID     int64
	ScheduleID    int64
	TravelDate    time.Time
	DepartureTime string
	ArrivalTime   string
	TrainName     string
	TrainNumber   string
	RouteName     string
	PassengerName string
	SeatNumber    string
	SeatClass     SeatClass
	TicketID      *int64
	Status        string
	Amount        *int64
	Method        *string
	PaidAt        *time.Time
	HistoryID     *int64
}

const (
	HistoryStatusCompleted     = "Completed"
	HistoryStatusPaymentFailed = "Payment Failed"
	HistoryStatusPending       = "Pending"
)

// HistoryStatus maps a payment status (possibly absent) to the label shown in
// travel history.
func HistoryStatus(status *string) string {
	if status == nil {
		return HistoryStatusPending
	}
	switch PaymentStatus(*status) {
	case PaymentStatusPaid:
		return HistoryStatusCompleted
	case PaymentStatusFailed:
		return HistoryStatusPaymentFailed
	default:
		return HistoryStatusPending
	}
}
