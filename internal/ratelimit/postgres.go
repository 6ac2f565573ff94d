package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres counts attempts in a shared table so every instance sees the
// same window. A store failure surfaces as an error; the caller decides
// whether that means rejecting the request.
type Postgres struct {
	pool *pgxpool.Pool
	cfg  Config
}

func NewPostgres(pool *pgxpool.Pool, cfg Config) *Postgres {
	return &Postgres{pool: pool, cfg: cfg.withDefaults()}
}

func (p *Postgres) Allow(ctx context.Context, key string) (time.Duration, error) {
	var (
		attempts     int
		blockedUntil *time.Time
	)
	err := p.pool.QueryRow(ctx, `
		INSERT INTO rate_limit_counters (key, attempts, window_start)
		VALUES ($1, 1, now())
		ON CONFLICT (key) DO UPDATE SET
			attempts = CASE
				WHEN rate_limit_counters.window_start < now() - $2::interval THEN 1
				ELSE rate_limit_counters.attempts + 1
			END,
			window_start = CASE
				WHEN rate_limit_counters.window_start < now() - $2::interval THEN now()
				ELSE rate_limit_counters.window_start
			END
		RETURNING attempts, blocked_until
	`, key, p.cfg.Window).Scan(&attempts, &blockedUntil)
	if err != nil {
		return 0, fmt.Errorf("rate limit upsert: %w", err)
	}

	now := time.Now()
	if blockedUntil != nil && blockedUntil.After(now) {
		return blockedUntil.Sub(now), ErrTooManyAttempts
	}

	if attempts > p.cfg.MaxAttempts {
		_, err := p.pool.Exec(ctx, `
			UPDATE rate_limit_counters
			SET blocked_until = now() + $2::interval, attempts = 0, window_start = now()
			WHERE key = $1
		`, key, p.cfg.Block)
		if err != nil {
			return 0, fmt.Errorf("rate limit block: %w", err)
		}
		return p.cfg.Block, ErrTooManyAttempts
	}

	return 0, nil
}
