package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/parishkit/chms-api/internal/config"
	"github.com/parishkit/chms-api/internal/repository/postgres"
	"github.com/parishkit/chms-api/pkg/logger"
	"github.com/parishkit/chms-api/pkg/messaging/redis"
	"github.com/parishkit/chms-api/pkg/metrics"
	"github.com/parishkit/chms-api/pkg/worker"
)

const auditRetentionDays = 365

func main() {
	log := logger.NewLogger(nil)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err, "failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	base := postgres.NewBaseRepository(db)
	outboxRepo := postgres.NewOutboxRepository(base)
	auditRepo := postgres.NewAuditRepository(base)

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	}, &log.ZL)
	if err != nil {
		log.Fatal(err, "failed to connect to Redis")
	}
	defer broker.Close()

	m := metrics.NewMetrics("chms", "worker")

	processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:     cfg.Outbox.BatchSize,
		PollInterval:  cfg.Outbox.PollInterval,
		RetryAttempts: cfg.Outbox.MaxRetries,
		RetryDelay:    cfg.Outbox.RetryDelay,
		Retention:     cfg.Outbox.Retention,
	}, log, m)

	auditCleanup := worker.NewAuditCleanupWorker(auditRepo, auditRetentionDays, 24*time.Hour, log)

	ctx, cancel := context.WithCancel(context.Background())
	go processor.Start(ctx)
	go processor.StartRetentionCleanup(ctx, time.Hour)
	go auditCleanup.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down worker")
	cancel()
}
