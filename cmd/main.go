package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"guardian-service/internal/api"
	"guardian-service/internal/auth"
	"guardian-service/internal/authority"
	"guardian-service/internal/config"
	"guardian-service/internal/db"
	"guardian-service/internal/dispatch"
	"guardian-service/internal/emergency"
	"guardian-service/internal/kafka"
	"guardian-service/internal/logging"
	"guardian-service/internal/providers"
	"guardian-service/internal/tracking"
	"guardian-service/internal/utils"
	"guardian-service/pkg/telegram"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	var dbConn *db.DB
	err = utils.Retry(logger, 5, 3*time.Second, func() error {
		var err error
		dbConn, err = db.New(cfg.DB.DSN)
		return err
	})
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	defer dbConn.Close()

	if err := dbConn.Bootstrap(ctx); err != nil {
		log.Fatalf("Database bootstrap failed: %v", err)
	}

	// Authority relay, with optional Telegram monitoring room
	var monitor *telegram.Notifier
	if cfg.Telegram.BotToken != "" {
		monitor, err = telegram.New(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			logger.Errorf("Telegram monitor init failed: %v", err)
		}
	}
	relay := authority.NewRelay(cfg.Authority.WebhookURL, cfg.Authority.WebhookToken, cfg.Authority.Timeout, monitor, logger)

	// Notification gateway and dispatch fan-out
	smsSender := providers.NewSMSSender(cfg)
	emailSender := providers.NewEmailSender(cfg)
	orchestrator := dispatch.NewOrchestrator(smsSender, emailSender, relay, logger)

	// Live tracking with a scheduled expiry sweep
	trackingSvc := tracking.NewService(dbConn, cfg.Tracking.TTL, logger)
	sched := cron.New()
	if err := trackingSvc.StartSweeper(sched); err != nil {
		log.Fatalf("Tracking sweeper init failed: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Emergency sessions
	composer := emergency.NewMessageComposer(cfg, logger)
	manager := emergency.NewManager(dbConn, trackingSvc, orchestrator, composer, cfg.Emergency.CountdownSeconds, cfg.Emergency.LocationPoll, logger)

	hub := api.NewHub(logger)
	manager.Subscribe(hub.Broadcast)

	// Optional external trigger feed
	if consumer := kafka.NewConsumer(cfg, manager, logger); consumer != nil {
		defer consumer.Close()
		go consumer.Start(ctx)
	}

	jwtSvc := auth.NewJWTService(cfg.Auth.JWTSecret)

	// Start API server
	handler := api.NewHandler(dbConn, logger, orchestrator, trackingSvc, manager, jwtSvc, emailSender, hub)
	router := api.NewRouter(logger, cfg, handler)
	logger.Infof("Starting API server on %s", cfg.API.Port)
	if err := router.Run(cfg.API.Port); err != nil {
		logger.Errorf("API server failed: %v", err)
	}
}
