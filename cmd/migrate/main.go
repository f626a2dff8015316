package main

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/safar/go-sql-shop/internal/config"
	"github.com/safar/go-sql-shop/internal/database"
	"github.com/safar/go-sql-shop/internal/logging"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down]")
	}

	direction := os.Args[1]
	if direction != "up" && direction != "down" {
		log.Fatal("Direction must be 'up' or 'down'")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	logger := logging.New(cfg.Log)

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	ran, err := database.Migrate(context.Background(), db, direction)
	for _, name := range ran {
		logger.WithField("migration", name).Info("migration applied")
	}
	if err != nil {
		logger.Fatalf("Migrate %s: %v", direction, err)
	}

	logger.Infof("Successfully ran %d migration(s) %s", len(ran), direction)
}
