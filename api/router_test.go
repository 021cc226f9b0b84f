package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Domenick1991/railbooking/config"
	"github.com/Domenick1991/railbooking/internal/auth"
	"github.com/Domenick1991/railbooking/internal/gateway"
	"github.com/Domenick1991/railbooking/internal/logger"
	"github.com/Domenick1991/railbooking/internal/repository/memory"
	"github.com/Domenick1991/railbooking/internal/service/cancellation"
	"github.com/Domenick1991/railbooking/internal/service/history"
	"github.com/Domenick1991/railbooking/internal/service/payment"
	"github.com/Domenick1991/railbooking/internal/service/report"
	"github.com/Domenick1991/railbooking/internal/service/reservation"
	"github.com/Domenick1991/railbooking/internal/service/schedule"
	"github.com/Domenick1991/railbooking/internal/service/ticket"
)

const (
	ashaID = int64(2)
	raviID = int64(3)
)

type testServer struct {
	router *gin.Engine
	tokens map[string]string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.Discard()

	store := memory.NewStore()
	require.NoError(t, memory.SeedDemo(context.Background(), store, 2, 2, time.Now()))

	gw := gateway.NewLocal()
	reservations := reservation.NewReservationService(store, store.Travelers(), gw)
	tickets := ticket.NewTicketService(store, store)
	handlers := Handlers{
		Schedules: NewScheduleHandler(schedule.NewScheduleService(store, nil, 2, 2, log), log),
		Bookings:  NewBookingHandler(reservations, payment.NewPaymentService(store, gw), tickets, log),
		Tickets:   NewTicketHandler(tickets, reservations, log),
		Travelers: NewTravelerHandler(history.NewHistoryService(store, log), tickets, log),
		Admin:     NewAdminHandler(cancellation.NewCancellationService(store), report.NewReportService(store), log),
	}

	manager := auth.NewManager(config.AuthConfig{JWTSecret: "test-secret", Issuer: "railbooking"})
	tokens := make(map[string]string)
	for name, spec := range map[string]struct {
		id   int64
		role auth.Role
	}{
		"asha":  {ashaID, auth.RolePassenger},
		"ravi":  {raviID, auth.RolePassenger},
		"admin": {1000, auth.RoleAdmin},
		"staff": {1001, auth.RoleStaff},
	} {
		token, err := manager.Issue(spec.id, name+"@example.com", spec.role)
		require.NoError(t, err)
		tokens[name] = token
	}

	return &testServer{router: NewRouter(handlers, RouterConfig{Auth: manager}, log), tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, path, as string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != "" {
		req.Header.Set("Authorization", "Bearer "+s.tokens[as])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestRouter_bookingLifecycle(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodGet, "/api/v1/schedules", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	schedules := decode[[]scheduleResponse](t, w)
	require.Len(t, schedules, 3)
	scheduleID := schedules[0].ID

	w = srv.do(t, http.MethodGet, fmt.Sprintf("/api/v1/schedules/%d/seats", scheduleID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	seatMap := decode[seatMapResponse](t, w)
	require.Equal(t, 4, seatMap.Available)
	a1, a2 := seatMap.Seats[0], seatMap.Seats[1]

	reserve := reservation.ReserveInput{ScheduleID: scheduleID, TravelerID: ashaID, SeatIDs: []int64{a1.ID, a2.ID}}
	assert.Equal(t, http.StatusUnauthorized, srv.do(t, http.MethodPost, "/api/v1/bookings", "", reserve).Code)
	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodPost, "/api/v1/bookings", "ravi", reserve).Code)

	w = srv.do(t, http.MethodPost, "/api/v1/bookings", "asha", reserve)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	booking := decode[bookingResponse](t, w)
	assert.Len(t, booking.Seats, 2)
	assert.Equal(t, "Asha Verma", booking.Seats[0].PassengerName)

	w = srv.do(t, http.MethodPost, "/api/v1/bookings", "ravi",
		reservation.ReserveInput{ScheduleID: scheduleID, TravelerID: raviID, SeatIDs: []int64{a2.ID}})
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, []int64{a2.ID}, decode[errorResponse](t, w).BookedSeatIDs)

	bookingPath := fmt.Sprintf("/api/v1/bookings/%d", booking.ID)
	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodGet, bookingPath, "ravi", nil).Code)
	assert.Equal(t, http.StatusOK, srv.do(t, http.MethodGet, bookingPath, "staff", nil).Code)

	w = srv.do(t, http.MethodPost, bookingPath+"/payments", "asha", settleRequest{Amount: 250000, Method: "upi"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Paid", decode[paymentResponse](t, w).Status)

	w = srv.do(t, http.MethodPost, bookingPath+"/payments", "asha", settleRequest{Amount: 250000, Method: "upi"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = srv.do(t, http.MethodPost, bookingPath+"/ticket", "asha", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	issued := decode[ticketResponse](t, w)
	assert.Regexp(t, `^TKT-[0-9A-F]{12}$`, issued.TicketNumber)

	w = srv.do(t, http.MethodPost, bookingPath+"/ticket", "asha", nil)
	assert.Equal(t, issued.TicketNumber, decode[ticketResponse](t, w).TicketNumber)

	w = srv.do(t, http.MethodGet, fmt.Sprintf("/api/v1/tickets/%d/pdf", issued.ID), "asha", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = srv.do(t, http.MethodGet, fmt.Sprintf("/api/v1/travelers/%d/tickets", ashaID), "asha", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]ticketResponse](t, w), 1)
	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodGet, fmt.Sprintf("/api/v1/travelers/%d/tickets", ashaID), "ravi", nil).Code)

	w = srv.do(t, http.MethodGet, fmt.Sprintf("/api/v1/travelers/%d/history", ashaID), "asha", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]historyResponse](t, w), 2)

	w = srv.do(t, http.MethodPost, fmt.Sprintf("/api/v1/travelers/%d/history", raviID), "ravi",
		recordHistoryRequest{BookingID: booking.ID, TripDate: "2026-05-02"})
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())

	w = srv.do(t, http.MethodGet, "/api/v1/staff/rides", "staff", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodGet, "/api/v1/staff/rides", "asha", nil).Code)
}

func TestRouter_releaseCascade(t *testing.T) {
	srv := newTestServer(t)

	schedules := decode[[]scheduleResponse](t, srv.do(t, http.MethodGet, "/api/v1/schedules", "", nil))
	scheduleID := schedules[0].ID
	seats := decode[seatMapResponse](t, srv.do(t, http.MethodGet, fmt.Sprintf("/api/v1/schedules/%d/seats", scheduleID), "", nil)).Seats

	w := srv.do(t, http.MethodPost, "/api/v1/bookings", "asha",
		reservation.ReserveInput{ScheduleID: scheduleID, TravelerID: ashaID, SeatIDs: []int64{seats[0].ID, seats[1].ID}})
	require.Equal(t, http.StatusCreated, w.Code)
	booking := decode[bookingResponse](t, w)

	releasePath := func(seat string) string {
		return fmt.Sprintf("/api/v1/admin/schedules/%d/seats/%s", scheduleID, seat)
	}
	assert.Equal(t, http.StatusForbidden, srv.do(t, http.MethodDelete, releasePath("A1"), "staff", nil).Code)

	w = srv.do(t, http.MethodDelete, releasePath("a1"), "admin", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decode[releaseResponse](t, w)
	assert.False(t, first.BookingRemoved)
	assert.Equal(t, booking.ID, first.BookingID)

	w = srv.do(t, http.MethodDelete, releasePath("A2"), "admin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[releaseResponse](t, w).BookingRemoved)

	assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, fmt.Sprintf("/api/v1/bookings/%d", booking.ID), "admin", nil).Code)
	assert.Equal(t, http.StatusBadRequest, srv.do(t, http.MethodDelete, releasePath("A2"), "admin", nil).Code)

	w = srv.do(t, http.MethodGet, fmt.Sprintf("/api/v1/schedules/%d/seats", scheduleID), "", nil)
	assert.Equal(t, 4, decode[seatMapResponse](t, w).Available)
}

func TestRouter_openWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logger.Discard()
	res := &MockReservationUseCase{}
	handlers := Handlers{
		Schedules: NewScheduleHandler(&MockScheduleUseCase{}, log),
		Bookings:  NewBookingHandler(res, &MockPaymentUseCase{}, &MockTicketUseCase{}, log),
		Tickets:   NewTicketHandler(&MockTicketUseCase{}, res, log),
		Travelers: NewTravelerHandler(&MockHistoryUseCase{}, &MockTicketUseCase{}, log),
		Admin:     NewAdminHandler(&MockCancellationUseCase{}, &MockReportUseCase{}, log),
	}
	router := NewRouter(handlers, RouterConfig{}, log)
	res.On("GetBooking", mock.Anything, int64(7)).Return(openBooking(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/7", nil)
	req.Header.Set("X-Request-ID", "req-1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))
}
