package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/swagculi/chatapp/internal/app/registry"
	"github.com/swagculi/chatapp/internal/app/server"
	"github.com/swagculi/chatapp/internal/app/worker"
	"github.com/swagculi/chatapp/internal/config"
	"github.com/swagculi/chatapp/internal/core/services"
	"github.com/swagculi/chatapp/internal/platform/telemetry"
	"github.com/swagculi/chatapp/internal/plugins/postgres"
	redisPlugin "github.com/swagculi/chatapp/internal/plugins/redis"
	"github.com/swagculi/chatapp/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	log := logging.NewLogger(cfg.Service.Name, logging.Options{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
	})
	log.Info("starting application")

	otelShutdown, err := telemetry.InitTelemetry(ctx, *cfg)
	if err != nil {
		log.Error("failed to initialize telemetry", "err", err)
	}
	defer func() {
		log.Info("flushing telemetry...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Error("telemetry shutdown failed", "err", err)
		}
	}()

	// Infra
	var pdb *sql.DB
	if pdb, err = postgres.New(ctx, *cfg.Postgres); err != nil {
		log.Error("postgres connection failed", "err", err)
		return
	}
	defer pdb.Close()
	log.Info("postgres connected")
	var rdb *goredis.Client
	if rdb, err = redisPlugin.NewRedisClient(ctx, *cfg.Redis); err != nil {
		log.Error("redis connection failed", "url", cfg.Redis.URL, "err", err)
		return
	}
	defer rdb.Close()
	log.Info("redis connected")

	// Adapters
	userRepo := postgres.NewUserRepo(pdb)
	msgRepo := postgres.NewMessageRepo(pdb)
	lastSeen := redisPlugin.NewRedisLastSeenStore(rdb, cfg.Presence.LastSeenTTL)
	queue := redisPlugin.NewRedisDeliveryQueue(log, rdb)

	// Core
	hub := registry.New(log)
	txManager := services.NewTxManager(pdb)
	tokenSvc := services.NewTokenService(cfg.SecretToken)
	messageSvc := services.NewMessageService(log, msgRepo, queue, hub, txManager)
	presenceSvc := services.NewPresenceService(log, hub, lastSeen, cfg.Presence.TypingIdle, cfg.Presence.HeartbeatInterval)
	userSvc := services.NewUserService(log, userRepo, lastSeen)

	// Delivery pipeline
	wrkr := worker.NewDeliveryWorker(log, queue, hub, cfg.Worker.DeliveryGroup)
	if err := wrkr.Run(ctx); err != nil {
		log.Error("delivery worker failed to start", "err", err)
		return
	}

	// Server
	srv := server.NewServer(log, cfg.Service.Name, cfg.Service.Addr, tokenSvc, presenceSvc, messageSvc, userSvc, hub)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.Error("server stopped", "err", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", "err", err)
	}
}
