package report

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Domenick1991/railbooking/internal/domain"
	"github.com/Domenick1991/railbooking/internal/repository/mocks"
)

func TestReportService(t *testing.T) {
	repo := &mocks.MockReportRepository{}
	service := NewReportService(repo)
	ctx := context.Background()

	repo.On("Sales", ctx).Return([]domain.SalesRow{{ScheduleID: 1, TotalSales: 1500}}, nil).Once()
	repo.On("Demographics", ctx).Return([]domain.DemographicsRow{{Gender: "Female", Percentage: 100}}, nil).Once()
	repo.On("Occupancy", ctx).Return([]domain.OccupancyRow(nil), errors.New("db down")).Once()
	repo.On("Rides", ctx).Return([]domain.Ride{{ScheduleID: 1}}, nil).Once()

	sales, err := service.Sales(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(1500), sales[0].TotalSales)

	demo, err := service.Demographics(ctx)
	assert.NoError(t, err)
	assert.Len(t, demo, 1)

	_, err = service.Occupancy(ctx)
	assert.Error(t, err)

	rides, err := service.Rides(ctx)
	assert.NoError(t, err)
	assert.Len(t, rides, 1)

	repo.AssertExpectations(t)
}
