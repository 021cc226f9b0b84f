package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Domenick1991/railbooking/internal/service/cancellation"
	"github.com/Domenick1991/railbooking/internal/service/report"
)

type AdminHandler struct {
	cancellations cancellation.CancellationUseCase
	reports       report.ReportUseCase
	log           logrus.FieldLogger
}

func NewAdminHandler(cancellations cancellation.CancellationUseCase, reports report.ReportUseCase, log logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{cancellations: cancellations, reports: reports, log: log}
}

func (h *AdminHandler) Register(router *gin.RouterGroup) {
	router.DELETE("/schedules/:id/seats/:seat_number", h.releaseSeat)
	router.GET("/reports/sales", h.sales)
	router.GET("/reports/demographics", h.demographics)
	router.GET("/reports/occupancy", h.occupancy)
}

// RegisterStaff mounts the ride roster.
func (h *AdminHandler) RegisterStaff(router *gin.RouterGroup) {
	router.GET("/rides", h.rides)
}

func (h *AdminHandler) releaseSeat(c *gin.Context) {
	scheduleID, ok := paramID(c, "id")
	if !ok {
		return
	}
	result, err := h.cancellations.ReleaseSeat(c.Request.Context(), scheduleID, c.Param("seat_number"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toReleaseResponse(result))
}

func (h *AdminHandler) sales(c *gin.Context) {
	rows, err := h.reports.Sales(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	resp := make([]salesResponse, 0, len(rows))
	for _, r := range rows {
		resp = append(resp, salesResponse{
			ScheduleID:  r.ScheduleID,
			TrainName:   r.TrainName,
			TrainNumber: r.TrainNumber,
			TravelDate:  r.TravelDate.Format(dateLayout),
			TicketCount: r.TicketCount,
			TotalSales:  r.TotalSales,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) demographics(c *gin.Context) {
	rows, err := h.reports.Demographics(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	resp := make([]demographicsResponse, 0, len(rows))
	for _, r := range rows {
		resp = append(resp, demographicsResponse{Gender: r.Gender, PassengerCount: r.PassengerCount, Percentage: r.Percentage})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) occupancy(c *gin.Context) {
	rows, err := h.reports.Occupancy(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	resp := make([]occupancyResponse, 0, len(rows))
	for _, r := range rows {
		resp = append(resp, occupancyResponse{
			ScheduleID:    r.ScheduleID,
			TrainName:     r.TrainName,
			TrainNumber:   r.TrainNumber,
			TravelDate:    r.TravelDate.Format(dateLayout),
			BookedSeats:   r.BookedSeats,
			TotalSeats:    r.TotalSeats,
			OccupancyRate: r.OccupancyRate,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) rides(c *gin.Context) {
	rides, err := h.reports.Rides(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	resp := make([]rideResponse, 0, len(rides))
	for _, r := range rides {
		ride := rideResponse{
			ScheduleID:    r.ScheduleID,
			TrainName:     r.TrainName,
			TravelDate:    r.TravelDate.Format(dateLayout),
			DepartureTime: r.DepartureTime,
			ArrivalTime:   r.ArrivalTime,
			Passengers:    make([]ridePassengerResponse, 0, len(r.Passengers)),
		}
		for _, p := range r.Passengers {
			ride.Passengers = append(ride.Passengers, ridePassengerResponse{
				TravelerID:    p.TravelerID,
				BookingID:     p.BookingID,
				PassengerName: p.PassengerName,
				Email:         p.Email,
				Gender:        p.Gender,
				Age:           p.Age,
				SeatNumber:    p.SeatNumber,
				SeatClass:     string(p.SeatClass),
			})
		}
		resp = append(resp, ride)
	}
	c.JSON(http.StatusOK, resp)
}
