package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Domenick1991/railbooking/internal/auth"
	"github.com/Domenick1991/railbooking/internal/service/schedule"
)

type ScheduleHandler struct {
	service schedule.ScheduleUseCase
	log     logrus.FieldLogger
}

func NewScheduleHandler(service schedule.ScheduleUseCase, log logrus.FieldLogger) *ScheduleHandler {
	return &ScheduleHandler{service: service, log: log}
}

func (h *ScheduleHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.GET("/:id/seats", h.seats)
}

func (h *ScheduleHandler) RegisterAdmin(router *gin.RouterGroup) {
	router.POST("", h.create)
}

func (h *ScheduleHandler) list(c *gin.Context) {
	schedules, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	resp := make([]scheduleResponse, 0, len(schedules))
	for i := range schedules {
		resp = append(resp, toScheduleResponse(&schedules[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ScheduleHandler) get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	sc, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toScheduleResponse(sc))
}

func (h *ScheduleHandler) seats(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	seats, err := h.service.SeatMap(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toSeatMapResponse(id, seats))
}

func (h *ScheduleHandler) create(c *gin.Context) {
	var req schedule.CreateScheduleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	sc, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toScheduleResponse(sc))
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// authorize rejects passengers acting for someone else. Routes mounted
// without authentication are open.
func authorize(c *gin.Context, travelerID int64) bool {
	claims := auth.FromContext(c)
	if claims == nil || claims.CanActFor(travelerID) {
		return true
	}
	c.JSON(http.StatusForbidden, errorResponse{Error: "access forbidden"})
	return false
}
