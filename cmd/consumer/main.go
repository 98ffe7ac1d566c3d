// Package main provides the ETL audit consumer for Redis Streams.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/rueidis"

	"github.com/jnst/layered-crud-template/internal/config"
	"github.com/jnst/layered-crud-template/internal/event"
	"github.com/jnst/layered-crud-template/internal/logger"
	"github.com/jnst/layered-crud-template/internal/model"
)

const (
	groupName = "etl-audit"
	exitCode  = 1
)

// auditETLCompleted records a completed ETL run.
func auditETLCompleted(_ context.Context, e *model.ETLCompletedEvent) error {
	slog.Info("ETL completed event received",
		slog.String("event_id", e.EventID),
		slog.Int64("post_id", e.PostID),
		slog.Int64("gpdb1_id", e.Gpdb1ID),
		slog.Int64("gpdb2_id", e.Gpdb2ID),
		slog.Time("completed_at", e.CompletedAt),
	)

	return nil
}

func setupRedisClient(cfg *config.Config) (rueidis.Client, error) {
	return rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{cfg.RedisAddr},
	})
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(exitCode)
	}

	// ログ設定
	slog.SetDefault(logger.Setup(cfg.LogLevel))

	if cfg.RedisAddr == "" {
		slog.Error("REDIS_ADDR is required for the consumer")
		os.Exit(exitCode)
	}

	redisClient, err := setupRedisClient(cfg)
	if err != nil {
		slog.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(exitCode)
	}
	defer redisClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := event.NewConsumer(redisClient, cfg.ETLEventStream, groupName, cfg.ConsumerName, auditETLCompleted)
	consumer.CreateGroup(ctx)

	slog.Info("starting message consumer",
		slog.String("service", "consumer"),
		slog.String("stream", cfg.ETLEventStream),
		slog.String("group", groupName),
		slog.String("consumer", cfg.ConsumerName),
	)

	consumer.Run(ctx)
}
