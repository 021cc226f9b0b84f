package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Domenick1991/railbooking/internal/domain"
	"github.com/Domenick1991/railbooking/internal/service/payment"
	"github.com/Domenick1991/railbooking/internal/service/reservation"
	"github.com/Domenick1991/railbooking/internal/service/ticket"
)

type BookingHandler struct {
	reservations reservation.ReservationUseCase
	payments     payment.PaymentUseCase
	tickets      ticket.TicketUseCase
	log          logrus.FieldLogger
}

type settleRequest struct {
	Amount int64  `json:"amount"`
	Method string `json:"method"`
}

func NewBookingHandler(reservations reservation.ReservationUseCase, payments payment.PaymentUseCase, tickets ticket.TicketUseCase, log logrus.FieldLogger) *BookingHandler {
	return &BookingHandler{reservations: reservations, payments: payments, tickets: tickets, log: log}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.reserve)
	router.POST("/checkout", h.checkout)
	router.GET("/:id", h.get)
	router.POST("/:id/payments", h.settle)
	router.POST("/:id/ticket", h.issueTicket)
	router.GET("/:id/ticket", h.getTicket)
}

func (h *BookingHandler) reserve(c *gin.Context) {
	var req reservation.ReserveInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if !authorize(c, req.TravelerID) {
		return
	}

	booking, err := h.reservations.Reserve(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toBookingResponse(booking))
}

func (h *BookingHandler) checkout(c *gin.Context) {
	var req reservation.CheckoutInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if !authorize(c, req.TravelerID) {
		return
	}

	booking, err := h.reservations.Checkout(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toBookingResponse(booking))
}

func (h *BookingHandler) get(c *gin.Context) {
	booking, ok := h.ownBooking(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) settle(c *gin.Context) {
	booking, ok := h.ownBooking(c)
	if !ok {
		return
	}
	var req settleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	p, err := h.payments.Settle(c.Request.Context(), payment.SettleInput{BookingID: booking.ID, Amount: req.Amount, Method: req.Method})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toPaymentResponse(p))
}

func (h *BookingHandler) issueTicket(c *gin.Context) {
	booking, ok := h.ownBooking(c)
	if !ok {
		return
	}
	t, err := h.tickets.Issue(c.Request.Context(), booking.ID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toTicketResponse(t))
}

func (h *BookingHandler) getTicket(c *gin.Context) {
	booking, ok := h.ownBooking(c)
	if !ok {
		return
	}
	t, err := h.tickets.GetByBooking(c.Request.Context(), booking.ID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toTicketResponse(t))
}

// ownBooking loads the booking named in the path and checks the caller may
// act on it.
func (h *BookingHandler) ownBooking(c *gin.Context) (*domain.Booking, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	booking, err := h.reservations.GetBooking(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return nil, false
	}
	if !authorize(c, booking.TravelerID) {
		return nil, false
	}
	return booking, true
}
