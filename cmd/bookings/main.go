package main

import (
	"ceramico/internal/bookings/events"
	"ceramico/internal/bookings/handler"
	"ceramico/internal/bookings/repository"
	"ceramico/internal/bookings/service"
	"ceramico/internal/bookings/validator"
	"ceramico/pkg/app"
	"ceramico/pkg/config"
	"ceramico/pkg/kafka"
	kafka_config "ceramico/pkg/kafka/config"
	kafka_middleware "ceramico/pkg/kafka/middleware"
	"ceramico/pkg/payment"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Bookings service")

	producer := initProducer(cfg)
	defer func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	}()

	bookingService := initServices(cfg, producer)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handler.NewBookingHandler(bookingService, cfg.Log))
	serverApp.Run()
}

func initProducer(cfg *config.Config) *kafka.Producer {
	kafkaCfg := kafka_config.Load()
	producer, err := kafka.NewProducer(kafkaCfg, events.Topic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducer(cfg.Log))
	return producer
}

func initServices(cfg *config.Config, producer *kafka.Producer) service.BookingService {
	bookingValidator := validator.NewBookingValidator()
	bookingRepo := repository.NewMongoBookingRepository(cfg)
	lockRepo := repository.NewSlotLockRepository(cfg)
	seatRepo := repository.NewSeatRepository(cfg)
	refunder := payment.NewStripeRefunder(cfg.StripeAPIKey, cfg.Log)
	publisher := events.NewKafkaPublisher(producer, ServiceName)

	bookingService := service.NewBookingService(
		bookingRepo,
		lockRepo,
		seatRepo,
		bookingValidator,
		refunder,
		publisher,
		cfg,
	)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService
}
