package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/admin_console/internal/config"
	"github.com/congo-pay/admin_console/internal/notification"
	"github.com/congo-pay/admin_console/internal/provider"
	"github.com/congo-pay/admin_console/internal/routes"
)

// Server wraps the Fiber application and shared dependencies.
type Server struct {
	app      *fiber.App
	cfg      config.Config
	notifier *notification.KafkaNotifier
	logger   *slog.Logger
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
// db and cache may be nil in development.
func New(cfg config.Config, db *pgxpool.Pool, cache *redis.Client, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName: cfg.AppName,
		// Verification calls may take up to VerifyTimeout.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.VerifyTimeout + 15*time.Second,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var (
		kafka    *notification.KafkaNotifier
		notifier notification.Notifier = notification.NewLoggerNotifier(logger)
	)
	if cfg.KafkaBrokers != "" {
		kafka = notification.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		notifier = notification.Fanout{notifier, kafka}
	}

	err := routes.Setup(app, routes.Deps{
		Cfg:      cfg,
		DB:       db,
		Cache:    cache,
		Logger:   logger,
		Provider: provider.NewClient(cfg.ProviderBaseURL, cfg.ProviderAPIKey, cfg.VerifyTimeout, logger),
		Notifier: notifier,
		Registry: registry,
	})
	if err != nil {
		if kafka != nil {
			_ = kafka.Close()
		}
		return nil, err
	}

	return &Server{app: app, cfg: cfg, notifier: kafka, logger: logger}, nil
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server, then flushes pending notifications.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.app.ShutdownWithContext(ctx)
	if s.notifier != nil {
		if cerr := s.notifier.Close(); cerr != nil {
			s.logger.Warn("close kafka notifier", "error", cerr)
		}
	}
	return err
}
