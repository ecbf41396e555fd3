package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"

	"puja-service/internal/config"
	"puja-service/internal/database"
	grpcServer "puja-service/internal/grpc"
	"puja-service/internal/handlers"
	"puja-service/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	cfg.SetupLogging()
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Object storage for KYC documents
	var storage services.ObjectStorage
	if cfg.S3Bucket != "" {
		s3Client, err := services.NewS3Client(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to create S3 client: %v", err)
		}
		storage = services.NewStorageService(s3Client, cfg.S3Bucket, cfg.AWSRegion, cfg.S3Endpoint)
	} else {
		log.Warn("S3_BUCKET not set, KYC uploads are disabled")
	}

	// Redis/Asynq Client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisURL})
	defer asynqClient.Close()

	// Services
	walletService := services.NewWalletService(db)
	agentService := services.NewAgentService(db, storage)
	taskService := services.NewTaskService(db, walletService)
	withdrawalService := services.NewWithdrawalService(db, walletService, asynqClient)
	bookingService := services.NewBookingService(db, services.NewCashfreeClient(cfg), cfg.CashfreeReturnURL)
	panchangamService := services.NewPanchangamService(db, services.NewAstrologyClient(cfg), cfg.AstroRequestPause, cfg.Location())

	h := &handlers.Handler{
		Agents:      agentService,
		Tasks:       taskService,
		Wallets:     walletService,
		Withdrawals: withdrawalService,
		Bookings:    bookingService,
		Panchangam:  panchangamService,
		Queue:       asynqClient,
		Auth:        handlers.NewAuth(cfg, agentService),
	}
	if cfg.AdminPasswordHash == "" {
		log.Warn("ADMIN_PASSWORD_HASH not set, admin login is disabled")
	}

	// Start gRPC server
	ledger := grpcServer.NewServer(&grpcServer.Server{
		Wallet:     walletService,
		Task:       taskService,
		Panchangam: panchangamService,
	})
	go func() {
		if err := grpcServer.StartGRPCServer(cfg.GRPCPort, ledger); err != nil {
			log.Fatalf("gRPC server stopped: %v", err)
		}
	}()

	// Start Cron Schedulers
	scheduler, err := panchangamService.StartScheduler(cfg.PanchangamCron, cfg.PanchangamKeep)
	if err != nil {
		log.Fatalf("Failed to start panchangam scheduler: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infof("HTTP Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	<-scheduler.Stop().Done()
	ledger.GracefulStop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP shutdown incomplete")
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info("Server stopped")
}
