// Package ratelimit counts requests per client in fixed windows. Counters
// live in an injected Store: an in-process map or Redis.
package ratelimit

import (
	"context"
	"time"
)

// Store increments the counter of key for the current window. It returns
// the count after the increment and the time the window resets.
type Store interface {
	Hit(ctx context.Context, key string, window time.Duration) (count int64, reset time.Time, err error)
}

type Result struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	Reset     time.Time
}

type Limiter struct {
	store  Store
	limit  int64
	window time.Duration
}

func NewLimiter(store Store, limit int64, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = 100
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &Limiter{store: store, limit: limit, window: window}
}

func (l *Limiter) Allow(ctx context.Context, key string) (Result, error) {
	count, reset, err := l.store.Hit(ctx, key, l.window)
	if err != nil {
		return Result{}, err
	}
	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Remaining: remaining,
		Reset:     reset,
	}, nil
}
