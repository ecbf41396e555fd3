package main

import (
	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"

	"puja-service/internal/config"
	"puja-service/internal/consumers"
	"puja-service/internal/database"
	"puja-service/internal/services"
	"puja-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	cfg.SetupLogging()

	// Connect DB
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	mailer := services.NewMailService(cfg)
	if !mailer.Enabled() {
		log.Warn("SMTP_HOST not set, notifications will only be logged")
	}
	panchangam := services.NewPanchangamService(db, services.NewAstrologyClient(cfg), cfg.AstroRequestPause, cfg.Location())

	// Processor
	processor := consumers.NewNotificationProcessor(db, mailer, panchangam, cfg.Location())

	log.WithField("redis", cfg.RedisURL).Info("Starting Asynq Worker...")
	worker.StartWorker(asynq.RedisClientOpt{Addr: cfg.RedisURL}, processor)
}
