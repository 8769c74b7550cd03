package routes

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/admin_console/internal/auth"
	"github.com/congo-pay/admin_console/internal/config"
	"github.com/congo-pay/admin_console/internal/middleware"
	"github.com/congo-pay/admin_console/internal/notification"
	"github.com/congo-pay/admin_console/internal/operator"
	"github.com/congo-pay/admin_console/internal/verification"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	Logger   *slog.Logger
	Provider verification.Provider
	// Notifier receives one message per submission. Nil logs notifications.
	Notifier notification.Notifier
	// Registry collects verification metrics and backs /metrics.
	Registry *prometheus.Registry
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though config also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Provider == nil {
		return fmt.Errorf("verification provider is required")
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	// Plain text access log in desired format: [HH:MM:SS] 200 -  145ms METHOD /path
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)
	RegisterMetricsRoute(app, d.Registry)

	// Services and handlers
	var operatorRepo operator.Repository
	var attemptRepo verification.Repository
	if d.DB != nil {
		operatorRepo = operator.NewPostgresRepository(d.DB)
		attemptRepo = verification.NewPostgresRepository(d.DB)
	} else {
		operatorRepo = operator.NewMemoryRepository()
		attemptRepo = verification.NewMemoryRepository()
	}
	operatorSvc := operator.NewService(operatorRepo)
	if d.Cfg.AdminEmail != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := operatorSvc.EnsureBootstrap(ctx, d.Cfg.AdminEmail, d.Cfg.AdminPassword); err != nil {
			return fmt.Errorf("bootstrap operator: %w", err)
		}
	}
	authSvc := auth.NewService(d.Cfg, operatorRepo)
	authHandler := auth.NewHandler(operatorSvc, authSvc)

	var gate verification.Gate = verification.NopGate{}
	if d.Cache != nil {
		// The marker outlives the provider timeout so a slow call keeps its slot.
		gate = verification.NewRedisGate(d.Cache, d.Cfg.VerifyTimeout+10*time.Second, d.Logger)
	}
	notifier := d.Notifier
	if notifier == nil {
		notifier = notification.NewLoggerNotifier(d.Logger)
	}
	var metrics *verification.Metrics
	if d.Registry != nil {
		metrics = verification.NewMetrics(d.Registry)
	}
	verificationSvc, err := verification.NewService(verification.Deps{
		Provider: d.Provider,
		Gate:     gate,
		Repo:     attemptRepo,
		Notifier: notifier,
		Metrics:  metrics,
		Logger:   d.Logger,
		Timeout:  d.Cfg.VerifyTimeout,
	})
	if err != nil {
		return err
	}
	verificationHandler := verification.NewHandler(verificationSvc)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	RegisterAuthRoutes(api, authHandler, middleware.LoginRateLimit(d.Cache, d.Cfg.LoginRateLimit))

	// Protected routes
	protected := api.Group("", middleware.JWTAuth(d.Cfg.JWTSecret, authSvc))
	RegisterSessionRoutes(protected, authHandler)
	RegisterVerificationRoutes(protected, verificationHandler, middleware.VerificationRateLimit(d.Cache, d.Cfg.VerifyRateLimit))

	return nil
}
