package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/flightbooker/config"
	"github.com/Domenick1991/flightbooker/internal/bootstrap"
	"github.com/Domenick1991/flightbooker/internal/cache"
	"github.com/Domenick1991/flightbooker/internal/kafka"
	"github.com/Domenick1991/flightbooker/internal/pricing"
	"github.com/Domenick1991/flightbooker/internal/repository"
	"github.com/Domenick1991/flightbooker/internal/service/booking"
	"github.com/Domenick1991/flightbooker/internal/service/flights"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Warnf("invalid log level %q, using info", cfg.Log.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if level < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatalf("ping postgres: %v", err)
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.MaxRetries, logger)
	defer producer.Close()
	if err := producer.CheckConnection(ctx); err != nil {
		logger.WithError(err).Warn("kafka unavailable, booking events will be retried per message")
	}

	flightRepo := repository.NewFlightRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	ledger := repository.NewLedger(pool, cfg.Database.LockTimeout, logger)
	calculator := pricing.NewCalculator()

	var flightOpts []flights.FlightServiceOption
	bookingOpts := []booking.BookingServiceOption{
		booking.WithProducer(producer, cfg.Kafka.BookingTopic),
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithRetry(cfg.Booking.MaxAttempts, cfg.Booking.RetryBackoff),
	}
	if cfg.Redis.Enabled {
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.FlightsCacheTTL)
		defer redisCache.Close()
		flightOpts = append(flightOpts, flights.WithCache(redisCache))
		bookingOpts = append(bookingOpts, booking.WithCache(redisCache, cfg.Booking.HoldTTL))
	}

	services := bootstrap.Services{
		Flights:  flights.NewFlightService(flightRepo, calculator, logger, flightOpts...),
		Bookings: booking.NewBookingService(ledger, bookingRepo, calculator, logger, bookingOpts...),
	}

	if err := bootstrap.Run(ctx, cfg, logger, services); err != nil {
		logger.Fatalf("server error: %v", err)
	}
	logger.Info("server stopped")
}
