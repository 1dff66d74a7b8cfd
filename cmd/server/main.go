package main

import (
	"os"

	"spese-backend/internal/config"
	"spese-backend/internal/database"
	"spese-backend/internal/server"

	"github.com/gofiber/fiber/v2/log"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Errorf("invalid configuration: %v", err)
		os.Exit(1)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	app := server.NewApp(cfg, db)

	log.Infof("server listening on port %s", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
