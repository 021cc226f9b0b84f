package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Domenick1991/railbooking/internal/domain"
	"github.com/Domenick1991/railbooking/internal/service/reservation"
	"github.com/Domenick1991/railbooking/internal/service/ticket"
)

type TicketHandler struct {
	tickets      ticket.TicketUseCase
	reservations reservation.ReservationUseCase
	log          logrus.FieldLogger
}

func NewTicketHandler(tickets ticket.TicketUseCase, reservations reservation.ReservationUseCase, log logrus.FieldLogger) *TicketHandler {
	return &TicketHandler{tickets: tickets, reservations: reservations, log: log}
}

func (h *TicketHandler) Register(router *gin.RouterGroup) {
	router.GET("/:id", h.get)
	router.GET("/:id/pdf", h.pdf)
}

func (h *TicketHandler) get(c *gin.Context) {
	t, ok := h.ownTicket(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toTicketResponse(t))
}

func (h *TicketHandler) pdf(c *gin.Context) {
	t, ok := h.ownTicket(c)
	if !ok {
		return
	}
	doc, err := h.tickets.PDF(c.Request.Context(), t.ID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.Data(http.StatusOK, "application/pdf", doc.Content)
}

func (h *TicketHandler) ownTicket(c *gin.Context) (*domain.Ticket, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	t, err := h.tickets.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return nil, false
	}
	booking, err := h.reservations.GetBooking(c.Request.Context(), t.BookingID)
	if err != nil {
		writeError(c, h.log, err)
		return nil, false
	}
	if !authorize(c, booking.TravelerID) {
		return nil, false
	}
	return t, true
}
