package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/admin_console/internal/config"
	"github.com/congo-pay/admin_console/internal/infra"
	"github.com/congo-pay/admin_console/internal/logging"
	"github.com/congo-pay/admin_console/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel)

	ctx := context.Background()

	db, cache, err := connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("connect backends", "error", err)
		os.Exit(1)
	}
	defer func() {
		if db != nil {
			db.Close()
		}
		if cache != nil {
			if err := cache.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}
	}()

	srv, err := server.New(cfg, db, cache, logger)
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}

// connect opens Postgres and Redis. In development either may be left
// unconfigured and the in-memory stores are used instead.
func connect(ctx context.Context, cfg config.Config, logger *slog.Logger) (*pgxpool.Pool, *redis.Client, error) {
	var (
		db    *pgxpool.Pool
		cache *redis.Client
		err   error
	)
	if cfg.DatabaseURL != "" {
		if db, err = infra.NewPostgresPool(ctx, cfg.DatabaseURL); err != nil {
			return nil, nil, err
		}
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory stores")
	}
	if cfg.RedisURL != "" {
		if cache, err = infra.NewRedisClient(ctx, cfg.RedisURL); err != nil {
			if db != nil {
				db.Close()
			}
			return nil, nil, err
		}
	} else {
		logger.Warn("REDIS_URL not set, rate limits and the shared in-flight gate are disabled")
	}
	return db, cache, nil
}
