package report

import (
	"context"

	"github.com/Domenick1991/railbooking/internal/domain"
	"github.com/Domenick1991/railbooking/internal/repository"
)

// ReportUseCase serves the read-only admin reports and the staff roster.
type ReportUseCase interface {
	Sales(ctx context.Context) ([]domain.SalesRow, error)
	Demographics(ctx context.Context) ([]domain.DemographicsRow, error)
	Occupancy(ctx context.Context) ([]domain.OccupancyRow, error)
	Rides(ctx context.Context) ([]domain.Ride, error)
}

type ReportService struct {
	repo repository.ReportRepository
}

func NewReportService(repo repository.ReportRepository) *ReportService {
	return &ReportService{repo: repo}
}

func (s *ReportService) Sales(ctx context.Context) ([]domain.SalesRow, error) {
	return s.repo.Sales(ctx)
}

func (s *ReportService) Demographics(ctx context.Context) ([]domain.DemographicsRow, error) {
	return s.repo.Demographics(ctx)
}

func (s *ReportService) Occupancy(ctx context.Context) ([]domain.OccupancyRow, error) {
	return s.repo.Occupancy(ctx)
}

func (s *ReportService) Rides(ctx context.Context) ([]domain.Ride, error) {
	return s.repo.Rides(ctx)
}

var _ ReportUseCase = (*ReportService)(nil)
