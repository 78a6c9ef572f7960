package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/taskboard-dev/taskboard/db"
	"github.com/taskboard-dev/taskboard/internal/auth"
	"github.com/taskboard-dev/taskboard/internal/config"
	"github.com/taskboard-dev/taskboard/internal/handlers"
	"github.com/taskboard-dev/taskboard/internal/router"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	cfg, err := config.Load()

	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := auth.Init(cfg.JWT.Secret, cfg.JWT.TokenDuration); err != nil {
		log.Fatalf("Failed to initialize auth: %v", err)
	}

	if err := db.ConnectDatabase(cfg.Database.URL); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.MigrateDatabase(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	if err := db.SeedAccessControl(); err != nil {
		log.Fatalf("Failed to seed roles and permissions: %v", err)
	}

	handlers.Init(cfg)

	r := router.NewRouter()

	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
