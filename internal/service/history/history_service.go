package history

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Domenick1991/railbooking/internal/domain"
	"github.com/Domenick1991/railbooking/internal/logger"
	"github.com/Domenick1991/railbooking/internal/repository"
)

type HistoryUseCase interface {
	List(ctx context.Context, travelerID int64) ([]domain.HistoryEntry, error)
	Record(ctx context.Context, input RecordInput) error
}

type RecordInput struct {
	TravelerID int64  `json:"traveler_id"`
	BookingID  int64  `json:"booking_id"`
	TripDate   string `json:"trip_date"`
}

type HistoryService struct {
	repo repository.HistoryRepository
	log  logrus.FieldLogger
}

func NewHistoryService(repo repository.HistoryRepository, log logrus.FieldLogger) *HistoryService {
	if log == nil {
		log = logger.Discard()
	}
	return &HistoryService{repo: repo, log: log}
}

// List returns the traveler's history and records every booking not yet in
// travel_history. Recording failures are logged; the list is still returned.
func (s *HistoryService) List(ctx context.Context, travelerID int64) ([]domain.HistoryEntry, error) {
	if travelerID <= 0 {
		return nil, domain.Invalid("traveler_id", "must be positive")
	}
	entries, err := s.repo.ListByTraveler(ctx, travelerID)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]bool)
	for _, e := range entries {
		if e.HistoryID != nil || seen[e.BookingID] {
			continue
		}
		seen[e.BookingID] = true
		if err := s.repo.Upsert(ctx, travelerID, e.BookingID, e.TravelDate); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"traveler_id": travelerID,
				"booking_id":  e.BookingID,
			}).Warn("failed to record travel history")
		}
	}
	return entries, nil
}

func (s *HistoryService) Record(ctx context.Context, input RecordInput) error {
	if input.TravelerID <= 0 {
		return domain.Invalid("traveler_id", "must be positive")
	}
	if input.BookingID <= 0 {
		return domain.Invalid("booking_id", "must be positive")
	}
	date, err := time.Parse(time.DateOnly, strings.TrimSpace(input.TripDate))
	if err != nil {
		return domain.Invalid("trip_date", "must be YYYY-MM-DD")
	}
	return s.repo.Upsert(ctx, input.TravelerID, input.BookingID, date)
}

var _ HistoryUseCase = (*HistoryService)(nil)
