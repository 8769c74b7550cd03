package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/admin_console/internal/verification"
)

// RateLimitConfig describes a fixed window limiter.
type RateLimitConfig struct {
	// Prefix namespaces the Redis counters, e.g. "rl:login:".
	Prefix  string
	Max     int
	Window  time.Duration
	Message string
	// Key picks the bucket of a request. Requests with an empty key use the
	// client IP.
	Key func(c *fiber.Ctx) string
}

// RateLimit counts requests per key in Redis. It is a no-op without Redis and
// fails open on cache errors.
func RateLimit(cache *redis.Client, cfg RateLimitConfig) fiber.Handler {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Message == "" {
		cfg.Message = "too many requests, try again later"
	}
	return func(c *fiber.Ctx) error {
		if cache == nil || cfg.Max <= 0 {
			return c.Next()
		}
		var id string
		if cfg.Key != nil {
			id = strings.TrimSpace(cfg.Key(c))
		}
		if id == "" {
			id = c.IP()
		}
		key := cfg.Prefix + id
		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err != nil {
			return c.Next()
		}
		if cnt == 1 {
			cache.Expire(c.UserContext(), key, cfg.Window)
		}
		if cnt > int64(cfg.Max) {
			c.Set(fiber.HeaderRetryAfter, retryAfter(cfg.Window))
			return fiber.NewError(http.StatusTooManyRequests, cfg.Message)
		}
		return c.Next()
	}
}

// LoginRateLimit limits login attempts per email or IP.
func LoginRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	return RateLimit(cache, RateLimitConfig{
		Prefix:  "rl:login:",
		Max:     maxPerMin,
		Message: "too many login attempts, try again later",
		Key: func(c *fiber.Ctx) string {
			var req struct {
				Email string `json:"email"`
			}
			_ = c.BodyParser(&req)
			return strings.ToLower(req.Email)
		},
	})
}

// VerificationRateLimit limits submissions per authenticated operator. It must
// run after JWTAuth.
func VerificationRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	return RateLimit(cache, RateLimitConfig{
		Prefix:  "rl:verify:",
		Max:     maxPerMin,
		Message: verification.MessageRateLimited,
		Key: func(c *fiber.Ctx) string {
			id, _ := c.Locals(OperatorIDKey).(string)
			return id
		},
	})
}

func retryAfter(window time.Duration) string {
	seconds := int(window / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return strconv.Itoa(seconds)
}
