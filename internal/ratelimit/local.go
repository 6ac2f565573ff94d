package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Local is the single-instance limiter: a sliding attempt window per
// key, with a block period once the window overflows.
type Local struct {
	cfg Config
	now func() time.Time

	mu           sync.Mutex
	attempts     map[string][]time.Time
	blockedUntil map[string]time.Time
}

func NewLocal(cfg Config) *Local {
	return &Local{
		cfg:          cfg.withDefaults(),
		now:          time.Now,
		attempts:     make(map[string][]time.Time),
		blockedUntil: make(map[string]time.Time),
	}
}

func (l *Local) Allow(ctx context.Context, key string) (time.Duration, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if until, ok := l.blockedUntil[key]; ok {
		if until.After(now) {
			return until.Sub(now), ErrTooManyAttempts
		}
		delete(l.blockedUntil, key)
	}

	cutoff := now.Add(-l.cfg.Window)
	history := l.attempts[key]
	for len(history) > 0 && history[0].Before(cutoff) {
		history = history[1:]
	}
	history = append(history, now)

	if len(history) > l.cfg.MaxAttempts {
		l.blockedUntil[key] = now.Add(l.cfg.Block)
		delete(l.attempts, key)
		return l.cfg.Block, ErrTooManyAttempts
	}

	l.attempts[key] = history
	return 0, nil
}
