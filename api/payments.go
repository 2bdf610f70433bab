package api

import (
	"net/http"

	"github.com/Domenick1991/flightbooker/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	service booking.BookingUseCase
}

type paymentRequest struct {
	BookingIDs    []int64 `json:"booking_ids" binding:"required,min=1"`
	PaymentMethod string  `json:"payment_method"`
}

type paymentResponse struct {
	Status        string            `json:"status"`
	Bookings      []bookingResponse `json:"bookings"`
	TotalCents    int64             `json:"total_cents"`
	Total         string            `json:"total"`
	PaymentMethod string            `json:"payment_method,omitempty"`
}

func NewPaymentHandler(service booking.BookingUseCase) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.settle)
}

// settle confirms every booking in the request or none of them.
func (h *PaymentHandler) settle(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "%v", err)
		return
	}

	result, err := h.service.Settle(c.Request.Context(), booking.SettleInput{
		BookingIDs:    req.BookingIDs,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	resp := paymentResponse{
		Status:        "success",
		Bookings:      make([]bookingResponse, 0, len(result.Bookings)),
		TotalCents:    result.TotalCents,
		Total:         formatCents(result.TotalCents),
		PaymentMethod: result.PaymentMethod,
	}
	for i := range result.Bookings {
		resp.Bookings = append(resp.Bookings, newBookingResponse(&result.Bookings[i]))
	}
	c.JSON(http.StatusOK, resp)
}
