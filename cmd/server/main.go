package main

import (
	"log"

	"ticktick/backend/internal/config"
	"ticktick/backend/internal/db"
	"ticktick/backend/internal/handler"
	"ticktick/backend/internal/repository"
	"ticktick/backend/internal/router"
	"ticktick/backend/internal/service"
)

func main() {
	cfg := config.Load()

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	timerRepo := repository.NewTimerRepository(database)

	timerService := service.NewTimerService(timerRepo, cfg.Policy)
	statisticsService := service.NewStatisticsService(timerRepo, cfg.Policy)

	timerHandler := handler.NewTimerHandler(timerService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService)

	engine := router.New(timerHandler, statisticsHandler, cfg.CORSOrigins)
	log.Printf("ticktick backend listening on :%s", cfg.Port)
	if err := engine.Run(":" + cfg.Port); err != nil {
		log.Fatalf("run server: %v", err)
	}
}
