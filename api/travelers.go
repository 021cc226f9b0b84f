package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Domenick1991/railbooking/internal/service/history"
	"github.com/Domenick1991/railbooking/internal/service/ticket"
)

type TravelerHandler struct {
	history history.HistoryUseCase
	tickets ticket.TicketUseCase
	log     logrus.FieldLogger
}

type recordHistoryRequest struct {
	BookingID int64  `json:"booking_id"`
	TripDate  string `json:"trip_date"`
}

func NewTravelerHandler(history history.HistoryUseCase, tickets ticket.TicketUseCase, log logrus.FieldLogger) *TravelerHandler {
	return &TravelerHandler{history: history, tickets: tickets, log: log}
}

func (h *TravelerHandler) Register(router *gin.RouterGroup) {
	router.GET("/:id/history", h.listHistory)
	router.POST("/:id/history", h.recordHistory)
	router.GET("/:id/tickets", h.listTickets)
}

func (h *TravelerHandler) listHistory(c *gin.Context) {
	id, ok := h.traveler(c)
	if !ok {
		return
	}
	entries, err := h.history.List(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toHistoryResponse(entries))
}

func (h *TravelerHandler) recordHistory(c *gin.Context) {
	id, ok := h.traveler(c)
	if !ok {
		return
	}
	var req recordHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	input := history.RecordInput{TravelerID: id, BookingID: req.BookingID, TripDate: req.TripDate}
	if err := h.history.Record(c.Request.Context(), input); err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, input)
}

func (h *TravelerHandler) listTickets(c *gin.Context) {
	id, ok := h.traveler(c)
	if !ok {
		return
	}
	tickets, err := h.tickets.ListByTraveler(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	resp := make([]ticketResponse, 0, len(tickets))
	for i := range tickets {
		resp = append(resp, toTicketResponse(&tickets[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TravelerHandler) traveler(c *gin.Context) (int64, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return 0, false
	}
	return id, authorize(c, id)
}
