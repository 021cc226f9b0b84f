package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Domenick1991/railbooking/internal/domain"
	"github.com/Domenick1991/railbooking/internal/logger"
	"github.com/Domenick1991/railbooking/internal/repository"
)

type ScheduleUseCase interface {
	List(ctx context.Context) ([]domain.Schedule, error)
	GetByID(ctx context.Context, id int64) (*domain.Schedule, error)
	SeatMap(ctx context.Context, scheduleID int64) ([]domain.Seat, error)
	Create(ctx context.Context, input CreateScheduleInput) (*domain.Schedule, error)
}

// SeatMapCache is a versioned cache-aside store. Invalidation bumps the
// version, so a seat map read before a claim committed is never written back
// after that claim's invalidation.
type SeatMapCache interface {
	GetSeatMap(ctx context.Context, scheduleID int64) ([]domain.Seat, int64, error)
	SetSeatMap(ctx context.Context, scheduleID, version int64, seats []domain.Seat) error
}

type CreateScheduleInput struct {
	TrainID       int64  `json:"train_id"`
	TravelDate    string `json:"travel_date"`
	DepartureTime string `json:"departure_time"`
	ArrivalTime   string `json:"arrival_time"`
}

type ScheduleService struct {
	repo    repository.ScheduleRepository
	cache   SeatMapCache
	acSeats int
	slSeats int
	log     logrus.FieldLogger
}

func NewScheduleService(repo repository.ScheduleRepository, cache SeatMapCache, acSeats, slSeats int, log logrus.FieldLogger) *ScheduleService {
	if log == nil {
		log = logger.Discard()
	}
	return &ScheduleService{repo: repo, cache: cache, acSeats: acSeats, slSeats: slSeats, log: log}
}

func (s *ScheduleService) List(ctx context.Context) ([]domain.Schedule, error) {
	return s.repo.List(ctx)
}

func (s *ScheduleService) GetByID(ctx context.Context, id int64) (*domain.Schedule, error) {
	if id <= 0 {
		return nil, domain.Invalid("schedule_id", "must be positive")
	}
	return s.repo.GetByID(ctx, id)
}

// SeatMap lists the schedule's seats, served from the cache when possible.
func (s *ScheduleService) SeatMap(ctx context.Context, scheduleID int64) ([]domain.Seat, error) {
	if scheduleID <= 0 {
		return nil, domain.Invalid("schedule_id", "must be positive")
	}
	cacheable := false
	var version int64
	if s.cache != nil {
		cached, v, err := s.cache.GetSeatMap(ctx, scheduleID)
		switch {
		case err != nil:
			s.log.WithError(err).WithField("schedule_id", scheduleID).Debug("seat map cache unavailable")
		case cached != nil:
			return cached, nil
		default:
			cacheable, version = true, v
		}
	}

	seats, err := s.repo.ListSeats(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if cacheable {
		if err := s.cache.SetSeatMap(ctx, scheduleID, version, seats); err != nil {
			s.log.WithError(err).WithField("schedule_id", scheduleID).Debug("seat map not cached")
		}
	}
	return seats, nil
}

// Create adds a schedule together with its seat plan.
func (s *ScheduleService) Create(ctx context.Context, input CreateScheduleInput) (*domain.Schedule, error) {
	if input.TrainID <= 0 {
		return nil, domain.Invalid("train_id", "must be positive")
	}
	date, err := time.Parse(time.DateOnly, strings.TrimSpace(input.TravelDate))
	if err != nil {
		return nil, domain.Invalid("travel_date", "must be YYYY-MM-DD")
	}
	departure, err := normalizeClock(input.DepartureTime)
	if err != nil {
		return nil, domain.Invalid("departure_time", err.Error())
	}
	arrival, err := normalizeClock(input.ArrivalTime)
	if err != nil {
		return nil, domain.Invalid("arrival_time", err.Error())
	}

	schedule := &domain.Schedule{
		TrainID:       input.TrainID,
		TravelDate:    date,
		DepartureTime: departure,
		ArrivalTime:   arrival,
	}
	if err := s.repo.Create(ctx, schedule, domain.SeatPlan(s.acSeats, s.slSeats)); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"schedule_id": schedule.ID, "train_id": schedule.TrainID, "date": input.TravelDate}).Info("schedule created")
	return schedule, nil
}

// normalizeClock accepts HH:MM or HH:MM:SS and returns HH:MM:SS.
func normalizeClock(v string) (string, error) {
	v = strings.TrimSpace(v)
	for _, layout := range []string{time.TimeOnly, "15:04"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format(time.TimeOnly), nil
		}
	}
	return "", fmt.Errorf("must be HH:MM or HH:MM:SS, got %q", v)
}

var _ ScheduleUseCase = (*ScheduleService)(nil)
