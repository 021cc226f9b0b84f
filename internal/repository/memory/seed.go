package memory

import (
	"context"
	"time"

	"github.com/Domenick1991/railbooking/internal/domain"
)

// SeedDemo loads a small catalog for the memory storage driver: one train, two
// travelers and a schedule per day for the next three days.
func SeedDemo(ctx context.Context, s *Store, acSeats, slSeats int, now time.Time) error {
	trainID := s.AddTrain("12951", "Rajdhani Express", "Mumbai Central - New Delhi")

	dob := time.Date(1990, time.May, 14, 0, 0, 0, 0, time.UTC)
	s.AddTraveler(domain.Traveler{FirstName: "Asha", LastName: "Verma", Email: "asha@example.com", Gender: "Female", DateOfBirth: &dob})
	s.AddTraveler(domain.Traveler{FirstName: "Ravi", Email: "ravi@example.com"})

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 3; i++ {
		sc := &domain.Schedule{
			TrainID:       trainID,
			TravelDate:    day.AddDate(0, 0, i),
			DepartureTime: "16:35:00",
			ArrivalTime:   "08:35:00",
		}
		if err := s.Create(ctx, sc, domain.SeatPlan(acSeats, slSeats)); err != nil {
			return err
		}
	}
	return nil
}
