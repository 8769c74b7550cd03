package middleware

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/admin_console/internal/auth"
	"github.com/congo-pay/admin_console/internal/config"
	"github.com/congo-pay/admin_console/internal/logging"
	"github.com/congo-pay/admin_console/internal/operator"
)

func setupCache(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		cache.Close()
		mr.Close()
	})
	return cache, mr
}

func login(t *testing.T, app *fiber.App, email string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/login", strings.NewReader(`{"email":"`+email+`"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp.StatusCode
}

func TestLoginRateLimitPerEmail(t *testing.T) {
	cache, mr := setupCache(t)
	app := fiber.New()
	app.Post("/login", LoginRateLimit(cache, 2), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 2; i++ {
		if status := login(t, app, "ada@console.test"); status != fiber.StatusOK {
			t.Fatalf("attempt %d: expected 200 got %d", i+1, status)
		}
	}
	if status := login(t, app, "ADA@console.test"); status != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", status)
	}
	if status := login(t, app, "other@console.test"); status != fiber.StatusOK {
		t.Fatalf("other email should not be limited, got %d", status)
	}

	mr.FastForward(2 * time.Minute)
	if status := login(t, app, "ada@console.test"); status != fiber.StatusOK {
		t.Fatalf("expected window reset, got %d", status)
	}
}

func TestRateLimitFailsOpenWithoutRedis(t *testing.T) {
	app := fiber.New()
	app.Post("/login", LoginRateLimit(nil, 1), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	for i := 0; i < 3; i++ {
		if status := login(t, app, "ada@console.test"); status != fiber.StatusOK {
			t.Fatalf("expected 200 got %d", status)
		}
	}
}

func TestVerificationRateLimitPerOperator(t *testing.T) {
	cache, _ := setupCache(t)
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(OperatorIDKey, c.Get("X-Operator"))
		return c.Next()
	})
	app.Post("/verify", VerificationRateLimit(cache, 1), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	send := func(op string) *limitResult {
		req := httptest.NewRequest(fiber.MethodPost, "/verify", nil)
		req.Header.Set("X-Operator", op)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		return &limitResult{status: resp.StatusCode, retryAfter: resp.Header.Get(fiber.HeaderRetryAfter)}
	}

	if r := send("op-1"); r.status != fiber.StatusOK {
		t.Fatalf("expected 200 got %d", r.status)
	}
	r := send("op-1")
	if r.status != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", r.status)
	}
	if r.retryAfter != "60" {
		t.Fatalf("expected Retry-After 60 got %q", r.retryAfter)
	}
	if r := send("op-2"); r.status != fiber.StatusOK {
		t.Fatalf("second operator should pass, got %d", r.status)
	}
}

type limitResult struct {
	status     int
	retryAfter string
}

func TestJWTAuth(t *testing.T) {
	cfg := config.Config{JWTSecret: "access", RefreshSecret: "refresh", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour}
	repo := operator.NewMemoryRepository()
	op, err := operator.NewService(repo).Register(context.Background(), "Ada", operator.Credentials{Email: "ada@console.test", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	tokens := auth.NewService(cfg, repo)
	pair, err := tokens.Login(op)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	app := fiber.New()
	app.Use(RequestID(), Audit(logging.Discard()))
	app.Get("/me", JWTAuth(cfg.JWTSecret, tokens), func(c *fiber.Ctx) error {
		id, _ := c.Locals(OperatorIDKey).(string)
		return c.SendString(id)
	})

	call := func(header string) int {
		req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set(fiber.HeaderAuthorization, header)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		if resp.Header.Get(requestIDHeader) == "" {
			t.Fatalf("expected request id header")
		}
		return resp.StatusCode
	}

	if status := call(""); status != fiber.StatusUnauthorized {
		t.Fatalf("missing token: expected 401 got %d", status)
	}
	if status := call("Bearer " + pair.RefreshToken); status != fiber.StatusUnauthorized {
		t.Fatalf("refresh token: expected 401 got %d", status)
	}
	if status := call("Bearer " + pair.AccessToken); status != fiber.StatusOK {
		t.Fatalf("valid token: expected 200 got %d", status)
	}

	if err := tokens.Logout(context.Background(), op.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if status := call("Bearer " + pair.AccessToken); status != fiber.StatusUnauthorized {
		t.Fatalf("revoked token: expected 401 got %d", status)
	}
}

func TestAuditLogsRouteTemplate(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(RequestID(), Audit(logging.NewText(&buf, "debug")))
	app.Post("/verification/:subjectId", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "invalid")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/verification/merchant-secret", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.StatusCode)
	}

	line := buf.String()
	if !strings.Contains(line, "route=/verification/:subjectId") {
		t.Fatalf("expected route template in log, got %q", line)
	}
	if strings.Contains(line, "merchant-secret") {
		t.Fatalf("subject id leaked into log: %q", line)
	}
	if !strings.Contains(line, "level=WARN") || !strings.Contains(line, "status=422") {
		t.Fatalf("expected warn with status 422, got %q", line)
	}
}
