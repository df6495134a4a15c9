package main

import (
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"gofinemap/adapters/memory"
	"gofinemap/adapters/postgres"
	"gofinemap/app"
	"gofinemap/internal"
	"gofinemap/internal/config"
	"gofinemap/ports"
	"gofinemap/ui"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := internal.NewDefaultLogger()

	var repo ports.FitRepository
	if cfg.Database.URL != "" {
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer db.Close()
		repo = postgres.NewFitRepository(db)
		logger.Info("fit persistence enabled (postgres)")
	} else {
		repo = memory.NewFitRepository()
		logger.Warn("DATABASE_URL not set; fits are kept in memory only")
	}

	fitService := app.NewFitService(repo, logger, cfg.Fit.MaxConcurrency)
	server := ui.NewServer(fitService, logger)

	if err := server.Start(ui.Config{Port: cfg.Server.Port}); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
