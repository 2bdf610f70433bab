package api

import (
	"net/http"

	"github.com/Domenick1991/flightbooker/internal/service/flights"
	"github.com/gin-gonic/gin"
)

// DirectoryHandler serves the airport and airline reference lists.
type DirectoryHandler struct {
	service flights.FlightUseCase
}

func NewDirectoryHandler(service flights.FlightUseCase) *DirectoryHandler {
	return &DirectoryHandler{service: service}
}

func (h *DirectoryHandler) Register(router *gin.RouterGroup) {
	router.GET("/airports", h.airports)
	router.GET("/airlines", h.airlines)
}

func (h *DirectoryHandler) airports(c *gin.Context) {
	airports, err := h.service.Airports(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, airports)
}

func (h *DirectoryHandler) airlines(c *gin.Context) {
	airlines, err := h.service.Airlines(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, airlines)
}
