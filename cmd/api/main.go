package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"loanquote/internal/cache"
	"loanquote/internal/config"
	"loanquote/internal/db"
	"loanquote/internal/engine"
	"loanquote/internal/metrics"
	"loanquote/internal/parser"
	"loanquote/internal/repository"
	"loanquote/internal/server"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("failed to run: %v", err)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Setup logger
	var logger *zap.Logger
	if cfg.IsDevelopment() {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("starting loanquote",
		zap.String("env", cfg.Server.Env),
		zap.Int("port", cfg.Server.Port),
		zap.String("lender_source", cfg.Lenders.Source),
	)

	recorder := metrics.New()

	srvCfg := server.Config{
		Port:      cfg.Server.Port,
		Engine:    engine.New(logger, engine.WithWorkers(cfg.Engine.Workers), engine.WithObserver(recorder)),
		Parser:    parser.New(logger),
		Metrics:   recorder,
		CacheTTL:  cfg.Redis.QuoteTTL,
		RateLimit: cfg.Redis.RateLimitPerMinute,
		Logger:    logger,
	}

	// Lender documents
	switch cfg.Lenders.Source {
	case config.SourcePostgres:
		database, err := db.New(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer database.Close()
		logger.Info("connected to PostgreSQL")

		repo := repository.NewPostgresRepository(database.Pool(), logger, repository.WithFailureObserver(recorder))
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		srvCfg.Repo = repo
		srvCfg.DB = database
	default:
		srvCfg.Repo = repository.NewDirRepository(cfg.Lenders.Dir, logger, repository.WithFailureObserver(recorder))
	}

	configs, err := srvCfg.Repo.ListConfigs(ctx)
	switch {
	case errors.Is(err, repository.ErrNoConfigs):
		logger.Warn("lender source not found, quotes will be empty", zap.Error(err))
	case err != nil:
		return fmt.Errorf("load lender configs: %w", err)
	default:
		logger.Info("lenders ready", zap.Int("count", len(configs)))
	}

	// Connect to Redis
	if cfg.CacheEnabled() {
		cacheClient, err := cache.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer cacheClient.Close()
		logger.Info("connected to Redis")
		srvCfg.Cache = cacheClient
	}

	srv := server.New(srvCfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	logger.Info("loanquote ready",
		zap.Int("port", cfg.Server.Port),
	)

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	logger.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}
