// Package main provides the HTTP API server for the layered CRUD template.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/rueidis"

	"github.com/jnst/layered-crud-template/internal/config"
	"github.com/jnst/layered-crud-template/internal/datasource"
	"github.com/jnst/layered-crud-template/internal/event"
	"github.com/jnst/layered-crud-template/internal/external"
	"github.com/jnst/layered-crud-template/internal/handler"
	"github.com/jnst/layered-crud-template/internal/logger"
	"github.com/jnst/layered-crud-template/internal/repository"
	"github.com/jnst/layered-crud-template/internal/service"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
	exitCode          = 1
)

type services struct {
	sample   service.SampleService
	external service.ExternalDataService
}

func buildServices(cfg *config.Config, registry *datasource.Registry, publisher event.Publisher) (*services, error) {
	sampleService, err := service.NewSampleServiceImpl(
		repository.NewSampleRepositoryImpl(registry.Primary()),
		repository.NewPgxTransactionManager(datasource.Primary, registry.Primary()),
	)
	if err != nil {
		return nil, err
	}

	stores := make(map[datasource.Name]service.AnalyticsStore, 2)
	for _, name := range []datasource.Name{datasource.GPDB1, datasource.GPDB2} {
		db, err := registry.Analytics(name)
		if err != nil {
			return nil, err
		}

		stores[name] = service.AnalyticsStore{
			Repo:           repository.NewAnalyticsDataRepositoryImpl(name, db),
			TransactionMgr: repository.NewSQLXTransactionManager(name, db),
		}
	}

	client, err := external.NewPostClient(cfg.ExternalAPI)
	if err != nil {
		return nil, err
	}

	externalService, err := service.NewExternalDataServiceImpl(client, stores, publisher)
	if err != nil {
		return nil, err
	}

	return &services{sample: sampleService, external: externalService}, nil
}

// setupPublisher returns a Redis Streams publisher, or a no-op one when REDIS_ADDR is unset.
func setupPublisher(cfg *config.Config) (event.Publisher, func(), error) {
	if cfg.RedisAddr == "" {
		slog.Info("REDIS_ADDR not set, ETL events are not published")
		return event.NopPublisher{}, func() {}, nil
	}

	redisClient, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress: []string{cfg.RedisAddr},
	})
	if err != nil {
		return nil, nil, err
	}

	return event.NewRedisStreamPublisher(redisClient, cfg.ETLEventStream), redisClient.Close, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	// データベース接続
	registry, err := datasource.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer registry.Close()

	publisher, closePublisher, err := setupPublisher(cfg)
	if err != nil {
		return err
	}
	defer closePublisher()

	// 依存関係注入
	svcs, err := buildServices(cfg, registry, publisher)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.NewRouter(svcs.sample, svcs.external, registry),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("starting API server", slog.String("service", "api"), slog.String("port", cfg.Port))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("shutdown signal received, stopping API server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

func main() {
	// 環境変数読み込み
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(exitCode)
	}

	// ログ設定
	slog.SetDefault(logger.Setup(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("API server failed", slog.String("error", err.Error()))
		stop()
		os.Exit(exitCode)
	}
}
