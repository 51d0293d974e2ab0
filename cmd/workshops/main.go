package main

import (
	"ceramico/internal/workshops/handler"
	"ceramico/internal/workshops/repository"
	"ceramico/internal/workshops/service"
	"ceramico/internal/workshops/validator"
	"ceramico/pkg/app"
	"ceramico/pkg/config"
)

const ServiceName = "workshops"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Workshops service")
	workshopService := initServices(cfg)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handler.NewWorkshopHandler(workshopService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.WorkshopService {
	workshopValidator := validator.NewWorkshopValidator()
	workshopRepo := repository.NewMongoWorkshopRepository(cfg)
	workshopService := service.NewWorkshopService(workshopRepo, workshopValidator, cfg)

	cfg.Log.Info("Workshop service initialized", "database", cfg.MongoDatabaseName)
	return workshopService
}
