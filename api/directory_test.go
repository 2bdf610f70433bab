package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Domenick1991/flightbooker/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newDirectoryRouter(service *MockFlightUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewDirectoryHandler(service).Register(router.Group("/api"))
	return router
}

func TestDirectoryHandler_airports(t *testing.T) {
	mockService := &MockFlightUseCase{}
	router := newDirectoryRouter(mockService)

	mockService.On("Airports", mock.Anything).Return([]domain.Airport{
		{ID: 1, Code: "LED", Name: "Pulkovo", City: "Saint Petersburg", Country: "Russia"},
		{ID: 2, Code: "SVO", Name: "Sheremetyevo", City: "Moscow", Country: "Russia"},
	}, nil).Once()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/airports", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var response []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response, 2)
	assert.Equal(t, "LED", response[0]["code"])
	assert.Equal(t, "Saint Petersburg", response[0]["city"])
	assert.Equal(t, "Russia", response[1]["country"])
	mockService.AssertExpectations(t)
}

func TestDirectoryHandler_airlines(t *testing.T) {
	mockService := &MockFlightUseCase{}
	router := newDirectoryRouter(mockService)

	mockService.On("Airlines", mock.Anything).Return([]domain.Airline{{ID: 1, Code: "SU", Name: "Aeroflot"}}, nil).Once()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/airlines", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":1,"code":"SU","name":"Aeroflot"}]`, w.Body.String())
}

func TestDirectoryHandler_Error(t *testing.T) {
	mockService := &MockFlightUseCase{}
	router := newDirectoryRouter(mockService)

	mockService.On("Airports", mock.Anything).Return(nil, errors.New("connection reset")).Once()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/airports", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, w.Body.String())
}
