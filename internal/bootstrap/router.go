package bootstrap

import (
	"net/http"
	"time"

	"github.com/Domenick1991/flightbooker/api"
	"github.com/Domenick1991/flightbooker/config"
	"github.com/Domenick1991/flightbooker/internal/service/booking"
	"github.com/Domenick1991/flightbooker/internal/service/flights"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"
)

const swaggerSpec = "flightbooker.swagger.json"

type Services struct {
	Flights  flights.FlightUseCase
	Bookings booking.BookingUseCase
}

// NewRouter wires the REST API, the API docs and the health gateway into
// one gin engine.
func NewRouter(cfg *config.Config, logger *logrus.Logger, svc Services, gateway http.Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(cors.New(corsConfig(cfg.HTTP.CORSOrigins)))

	apiGroup := router.Group("/api")
	api.NewFlightHandler(svc.Flights).Register(apiGroup.Group("/flights"))
	api.NewDirectoryHandler(svc.Flights).Register(apiGroup)
	api.NewBookingHandler(svc.Bookings).Register(apiGroup.Group("/bookings"))
	api.NewPaymentHandler(svc.Bookings).Register(apiGroup.Group("/payments"))

	if gateway != nil {
		router.GET("/healthz", gin.WrapH(gateway))
	}

	if cfg.HTTP.SwaggerDir != "" {
		router.Static("/swagger", cfg.HTTP.SwaggerDir)
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/"+swaggerSpec))))
	}
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
		}
		entry := logger.WithFields(fields)
		if len(c.Errors) > 0 {
			entry.WithField("errors", c.Errors.String()).Error("request failed")
			return
		}
		if c.Writer.Status() >= http.StatusBadRequest {
			entry.Warn("request rejected")
			return
		}
		entry.Info("request served")
	}
}
