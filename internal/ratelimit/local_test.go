package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestLocal(cfg Config) (*Local, *time.Time) {
	l := NewLocal(cfg)
	now := time.Date(2025, 9, 11, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLocalAllowsUpToMax(t *testing.T) {
	l, _ := newTestLocal(Config{Window: time.Minute, MaxAttempts: 3, Block: 5 * time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		retry, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err, "attempt %d", i+1)
		require.Zero(t, retry)
	}

	retry, err := l.Allow(ctx, "1.2.3.4")
	require.ErrorIs(t, err, ErrTooManyAttempts)
	require.Equal(t, 5*time.Minute, retry)
}

func TestLocalBlockExpires(t *testing.T) {
	l, now := newTestLocal(Config{Window: time.Minute, MaxAttempts: 2, Block: 5 * time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		l.Allow(ctx, "1.2.3.4")
	}

	// Still inside the block period.
	*now = now.Add(4 * time.Minute)
	retry, err := l.Allow(ctx, "1.2.3.4")
	require.ErrorIs(t, err, ErrTooManyAttempts)
	require.Equal(t, time.Minute, retry)

	// Block has lapsed and the window restarted.
	*now = now.Add(2 * time.Minute)
	retry, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.Zero(t, retry)
}

func TestLocalWindowSlides(t *testing.T) {
	l, now := newTestLocal(Config{Window: time.Minute, MaxAttempts: 2, Block: 5 * time.Minute})
	ctx := context.Background()

	_, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	_, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)

	// The first attempts fall outside the window, so this is allowed.
	*now = now.Add(2 * time.Minute)
	_, err = l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
}

func TestLocalKeysAreIndependent(t *testing.T) {
	l, _ := newTestLocal(Config{Window: time.Minute, MaxAttempts: 1, Block: 5 * time.Minute})
	ctx := context.Background()

	_, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	_, err = l.Allow(ctx, "1.2.3.4")
	require.ErrorIs(t, err, ErrTooManyAttempts)

	_, err = l.Allow(ctx, "5.6.7.8")
	require.NoError(t, err)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	require.Equal(t, time.Minute, cfg.Window)
	require.Equal(t, 10, cfg.MaxAttempts)
	require.Equal(t, 5*time.Minute, cfg.Block)
}

func TestNewRequiresSharedBackendInProduction(t *testing.T) {
	_, err := New(Config{}, nil, true)
	require.Error(t, err)

	l, err := New(Config{}, nil, false)
	require.NoError(t, err)
	require.IsType(t, &Local{}, l)
}
