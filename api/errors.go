package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Domenick1991/railbooking/internal/domain"
)

type errorResponse struct {
	Error             string   `json:"error"`
	Field             string   `json:"field,omitempty"`
	BookedSeatIDs     []int64  `json:"booked_seat_ids,omitempty"`
	BookedSeatNumbers []string `json:"booked_seat_numbers,omitempty"`
}

// StatusOf maps an error to its HTTP status.
func StatusOf(err error) int {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the status for err. Internal failures are logged
// here and reported without detail.
func writeError(c *gin.Context, log logrus.FieldLogger, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"request_id": c.GetString(requestIDKey),
		}).Error("request failed")
		c.JSON(status, errorResponse{Error: "internal error"})
		return
	}

	resp := errorResponse{Error: err.Error()}
	var conflict *domain.SeatConflictError
	if errors.As(err, &conflict) {
		resp.Error = "seats already booked"
		resp.BookedSeatIDs = conflict.SeatIDs
		resp.BookedSeatNumbers = conflict.SeatNumbers
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
	}
	c.JSON(status, resp)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}
