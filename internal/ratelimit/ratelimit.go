package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrTooManyAttempts = errors.New("too many attempts")
)

// Limiter records one attempt for key and rejects it with
// ErrTooManyAttempts when the key is over its window or blocked. The
// returned duration is a retry-after hint for rejected attempts.
type Limiter interface {
	Allow(ctx context.Context, key string) (time.Duration, error)
}

type Config struct {
	Window      time.Duration
	MaxAttempts int
	Block       time.Duration
}

func (c Config) withDefaults() Config {
	if c.Window <= 0 {
		c.Window = time.Minute
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 10
	}
	if c.Block <= 0 {
		c.Block = 5 * time.Minute
	}
	return c
}

// New selects the limiter implementation. A multi-instance production
// deployment must count attempts in the shared store; the process-local
// limiter is never substituted for it silently.
func New(cfg Config, pool *pgxpool.Pool, production bool) (Limiter, error) {
	if pool != nil {
		return NewPostgres(pool, cfg), nil
	}
	if production {
		return nil, errors.New("shared rate limit store required in production")
	}
	return NewLocal(cfg), nil
}
