package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/flightbooker/internal/service/flights"
	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

type FlightHandler struct {
	service flights.FlightUseCase
}

type searchFlightsRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Date        string `json:"date"`
	Airline     string `json:"airline"`
	SortBy      string `json:"sort_by" binding:"omitempty,oneof=price duration departure"`
}

type flightQuoteResponse struct {
	flights.FlightQuote
	CurrentPrice string `json:"current_price"`
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.POST("/search", h.search)
	router.GET("/:id", h.get)
	router.GET("/:id/seats", h.seats)
}

func (h *FlightHandler) search(c *gin.Context) {
	var req searchFlightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "%v", err)
		return
	}

	input := flights.SearchInput{
		Origin:      req.Origin,
		Destination: req.Destination,
		Airline:     req.Airline,
		SortBy:      req.SortBy,
	}
	if req.Date != "" {
		date, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			badRequest(c, "date must be YYYY-MM-DD")
			return
		}
		input.Date = &date
	}

	quotes, err := h.service.Search(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]flightQuoteResponse, 0, len(quotes))
	for _, q := range quotes {
		resp = append(resp, flightQuoteResponse{FlightQuote: q, CurrentPrice: formatCents(q.CurrentPriceCents)})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FlightHandler) get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	flight, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *FlightHandler) seats(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	seats, err := h.service.ListSeats(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, seats)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}
