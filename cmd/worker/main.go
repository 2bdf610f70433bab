package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/flightbooker/config"
	"github.com/Domenick1991/flightbooker/internal/email"
	"github.com/Domenick1991/flightbooker/internal/kafka"
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
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	}
	if cfg.Kafka.NotificationsTopic == "" {
		logger.Fatal("kafka.notifications_topic is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, logger)
	defer consumer.Close()

	sender := email.NewSender(logger)

	logger.WithField("topic", cfg.Kafka.NotificationsTopic).Info("notification worker started")
	if err := consumer.Consume(ctx, kafka.BookingEventHandler(logger, sender.Send)); err != nil {
		logger.Fatalf("consumer stopped: %v", err)
	}
	logger.Info("notification worker stopped")
}
