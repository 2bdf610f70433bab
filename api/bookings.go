package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/flightbooker/internal/domain"
	"github.com/Domenick1991/flightbooker/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	FlightID       int64  `json:"flight_id" binding:"required"`
	SeatID         int64  `json:"seat_id" binding:"required"`
	UserID         *int64 `json:"user_id"`
	PassengerName  string `json:"passenger_name" binding:"required"`
	PassengerEmail string `json:"passenger_email" binding:"required"`
	PassengerPhone string `json:"passenger_phone"`
}

type bookingResponse struct {
	ID             int64  `json:"id"`
	PNR            string `json:"pnr"`
	PIN            string `json:"pin"`
	FlightID       int64  `json:"flight_id"`
	SeatID         int64  `json:"seat_id"`
	UserID         *int64 `json:"user_id,omitempty"`
	PassengerName  string `json:"passenger_name"`
	PassengerEmail string `json:"passenger_email"`
	PassengerPhone string `json:"passenger_phone,omitempty"`
	PriceCents     int64  `json:"price_cents"`
	Price          string `json:"price"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at,omitempty"`
}

type boardingPassResponse struct {
	PNR          string `json:"pnr"`
	PIN          string `json:"pin"`
	FlightNumber string `json:"flight_number"`
	SeatNumber   string `json:"seat_number"`
	QRPayload    string `json:"qr_payload"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("/:pnr", h.get)
	router.GET("/:pnr/boarding-pass", h.boardingPass)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "%v", err)
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		FlightID:       req.FlightID,
		SeatID:         req.SeatID,
		UserID:         req.UserID,
		PassengerName:  req.PassengerName,
		PassengerEmail: req.PassengerEmail,
		PassengerPhone: req.PassengerPhone,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newBookingResponse(b))
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.service.GetByPNR(c.Request.Context(), c.Param("pnr"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBookingResponse(b))
}

func (h *BookingHandler) boardingPass(c *gin.Context) {
	pass, err := h.service.BoardingPass(c.Request.Context(), c.Param("pnr"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, boardingPassResponse{
		PNR:          pass.PNR,
		PIN:          pass.PIN,
		FlightNumber: pass.FlightNumber,
		SeatNumber:   pass.SeatNumber,
		QRPayload:    pass.Payload(),
	})
}

func newBookingResponse(b *domain.Booking) bookingResponse {
	resp := bookingResponse{
		ID:             b.ID,
		PNR:            b.PNR,
		PIN:            b.PIN,
		FlightID:       b.FlightID,
		SeatID:         b.SeatID,
		UserID:         b.UserID,
		PassengerName:  b.Passenger.Name,
		PassengerEmail: b.Passenger.Email,
		PassengerPhone: b.Passenger.Phone,
		PriceCents:     b.PriceCents,
		Price:          formatCents(b.PriceCents),
		Status:         string(b.Status),
	}
	if !b.CreatedAt.IsZero() {
		resp.CreatedAt = b.CreatedAt.Format(time.RFC3339)
	}
	return resp
}
