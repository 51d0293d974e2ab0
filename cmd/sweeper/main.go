package main

import (
	"os"
	"os/signal"
	"syscall"

	"ceramico/internal/sweeper"
	"ceramico/pkg/config"
)

const ServiceName = "sweeper"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Sweeper service", "schedule", cfg.SweepSchedule)

	store := sweeper.NewMongoStore(cfg)
	s := sweeper.New(store, cfg.Log)

	if err := s.Start(cfg.SweepSchedule, cfg.RequestTimeout); err != nil {
		cfg.Log.Fatal("Failed to start sweep scheduler", "error", err)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	sig := <-shutdown

	cfg.Log.Info("Shutdown signal received", "signal", sig)
	s.Stop()
}
