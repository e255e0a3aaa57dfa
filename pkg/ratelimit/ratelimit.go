// Package ratelimit 基于令牌桶的进程内限流，按 key 隔离
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter defines the interface for rate limiting
type RateLimiter interface {
	// Allow checks if the request is allowed for the given key
	Allow(ctx context.Context, key string) (*Result, error)
	// Wait blocks until the given key may proceed or ctx is done
	Wait(ctx context.Context, key string) error
}

// Limit defines the rate limit rule
type Limit struct {
	// 每秒请求数，<=0 表示不限流
	QPS   float64
	Burst int
}

// Result represents the result of a rate limit check
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// TokenBucketLimiter implements RateLimiter using golang.org/x/time/rate
type TokenBucketLimiter struct {
	limit    Limit
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewTokenBucketLimiter creates a new TokenBucketLimiter
func NewTokenBucketLimiter(limit Limit) *TokenBucketLimiter {
	if limit.Burst <= 0 {
		limit.Burst = 1
	}
	return &TokenBucketLimiter{
		limit:    limit,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Disabled 是否未设置限流
func (l *TokenBucketLimiter) Disabled() bool {
	return l.limit.QPS <= 0
}

func (l *TokenBucketLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(l.limit.QPS), l.limit.Burst)
		l.limiters[key] = lim
	}
	return lim
}

// Allow checks if the request is allowed
func (l *TokenBucketLimiter) Allow(_ context.Context, key string) (*Result, error) {
	if l.Disabled() {
		return &Result{Allowed: true, Remaining: l.limit.Burst}, nil
	}
	lim := l.get(key)
	now := time.Now()
	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return nil, fmt.Errorf("rate limit check failed for %s", key)
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return &Result{Allowed: false, RetryAfter: delay}, nil
	}
	remaining := int(lim.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	return &Result{Allowed: true, Remaining: remaining}, nil
}

// Wait blocks until the key has a token
func (l *TokenBucketLimiter) Wait(ctx context.Context, key string) error {
	if l.Disabled() {
		return nil
	}
	if err := l.get(key).Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait failed: %w", err)
	}
	return nil
}
