package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Domenick1991/flightbooker/internal/domain"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error       string                           `json:"error"`
	BookingIDs  []int64                          `json:"booking_ids,omitempty"`
	IDsByStatus map[domain.BookingStatus][]int64 `json:"ids_by_status,omitempty"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSeatUnavailable),
		errors.Is(err, domain.ErrAlreadySettled),
		errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrPartialConflict):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrBusy):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a service error to its HTTP status. Unknown errors are
// attached to the gin context for the logger and hidden from the client.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, errorResponse{Error: "internal error"})
		return
	}

	resp := errorResponse{Error: err.Error()}
	var batchErr *domain.BatchError
	if errors.As(err, &batchErr) {
		resp.BookingIDs = batchErr.IDs
		resp.IDsByStatus = batchErr.IDsByStatus
	}
	c.JSON(status, resp)
}

func badRequest(c *gin.Context, format string, args ...interface{}) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: fmt.Sprintf(format, args...)})
}

// formatCents renders an amount in cents as a decimal string, 85000 -> "850.00".
func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
