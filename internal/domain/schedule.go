package domain

import (
	"fmt"
	"time"
)

type SeatClass string

const (
	SeatClassAC SeatClass = "AC"
	SeatClassSL SeatClass = "SL"
)

type Schedule struct {
	ID            int64
	TrainID       int64
	TrainName     string
	TrainNumber   string
	RouteName     string
	TravelDate    time.Time
	DepartureTime string
	ArrivalTime   string
}

type Seat struct {
	ID         int64
	ScheduleID int64
	Number     string
	Class      SeatClass
	Booked     bool
}

// SeatPlan returns the seat inventory seeded for a new schedule: A1..A{ac} in
// class AC followed by S1..S{sl} in class SL.
func SeatPlan(ac, sl int) []Seat {
	seats := make([]Seat, 0, ac+sl)
	for i := 1; i <= ac; i++ {
		seats = append(seats, Seat{Number: fmt.Sprintf("A%d", i), Class: SeatClassAC})
	}
	for i := 1; i <= sl; i++ {
		seats = append(seats, Seat{Number: fmt.Sprintf("S%d", i), Class: SeatClassSL})
	}
	return seats
}
