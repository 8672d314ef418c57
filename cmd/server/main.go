package main

import (
	"log"
	"time"

	"github.com/markaggar/water-monitor-go/internal/api"
	"github.com/markaggar/water-monitor-go/internal/config"
	"github.com/markaggar/water-monitor-go/internal/database"
	"github.com/markaggar/water-monitor-go/internal/engine"
	"github.com/markaggar/water-monitor-go/internal/repository"
	"github.com/markaggar/water-monitor-go/internal/service"
)

func main() {
	cfg := config.Load()

	dbConfig := database.Config{
		Path: cfg.DBPath,
	}
	if err := database.Init(dbConfig); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer database.Close()

	db := database.GetDB()
	stateRepo := repository.NewStateRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	eng := engine.NewEngine(cfg.Monitor, time.Local)
	monitorService := service.NewMonitorService(eng, stateRepo, sessionRepo)
	if err := monitorService.Start(); err != nil {
		log.Fatal("Failed to start monitor service:", err)
	}

	router := api.SetupRouter(cfg, monitorService)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
