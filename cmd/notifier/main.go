package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"ceramico/internal/bookings/events"
	"ceramico/internal/notifier"
	"ceramico/pkg/config"
	"ceramico/pkg/kafka"
	kafka_config "ceramico/pkg/kafka/config"
	"ceramico/pkg/mailer"
)

const (
	ServiceName   = "notifier"
	consumerGroup = "notifier"
)

func main() {
	cfg := config.Load(ServiceName)

	cfg.Log.Info("Starting Notifier service")

	sender, err := mailer.NewSMTPSender(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create SMTP sender", "error", err)
	}

	n := notifier.New(sender, cfg.Log)

	kafkaCfg := kafka_config.Load()
	consumer, err := kafka.NewConsumer(kafkaCfg, events.Topic, consumerGroup, n.HandleMessage, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		sig := <-shutdown
		cfg.Log.Info("Shutdown signal received", "signal", sig)
		cancel()
	}()

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped with error", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close consumer", "error", err)
	}
	cfg.Log.Info("Notifier stopped")
}
