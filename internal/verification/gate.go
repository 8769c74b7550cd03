package verification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const inflightPrefix = "verification:inflight:v1:"

// Gate keeps a single submission in flight per operator across replicas.
type Gate interface {
	Acquire(ctx context.Context, operatorID string) (release func(), err error)
}

// RedisGate reserves a marker key with SETNX. The TTL bounds how long a
// crashed replica can block an operator.
type RedisGate struct {
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisGate builds a gate backed by cache.
func NewRedisGate(cache *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisGate {
	return &RedisGate{cache: cache, ttl: ttl, logger: logger}
}

// Acquire reserves the operator's slot or returns ErrSubmissionInFlight.
func (g *RedisGate) Acquire(ctx context.Context, operatorID string) (func(), error) {
	key := inflightPrefix + operatorID
	token := uuid.NewString()

	ok, err := g.cache.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("reserve in-flight slot: %w", err)
	}
	if !ok {
		return nil, ErrSubmissionInFlight
	}

	release := func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		current, err := g.cache.Get(cleanupCtx, key).Result()
		if err != nil && err != redis.Nil {
			g.logger.Warn("in-flight slot lookup failed", slog.String("operator_id", operatorID), slog.Any("error", err))
			return
		}
		// Only drop our own reservation; after a TTL expiry the key may
		// belong to a newer submission.
		if current == token {
			g.cache.Del(cleanupCtx, key) // best effort cleanup
		}
	}
	return release, nil
}

// NopGate is used when no Redis is configured; the per-process Session
// still serialises submissions.
type NopGate struct{}

// Acquire always succeeds.
func (NopGate) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}
