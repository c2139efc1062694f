package service

import (
	"context"
	"sync"
	"time"
)

// TokenBucket is an in-memory per-key rate limiter. It is safe for
// concurrent use. Idle buckets are dropped by a janitor goroutine that stops
// when the context passed to NewTokenBucket is done.
type TokenBucket struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	rate     float64 // tokens added per second
	capacity float64
	now      func() time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

const (
	bucketSweepInterval = 5 * time.Minute
	bucketIdleTTL       = 10 * time.Minute
)

// NewTokenBucket creates a limiter allowing bursts of capacity per key,
// refilled at rate tokens per second.
func NewTokenBucket(ctx context.Context, rate, capacity float64) *TokenBucket {
	tb := &TokenBucket{
		buckets:  make(map[string]*bucket),
		rate:     rate,
		capacity: capacity,
		now:      time.Now,
	}
	go tb.sweep(ctx)
	return tb
}

// Allow consumes one token for key and reports whether one was available.
func (tb *TokenBucket) Allow(key string) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := tb.now()
	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{tokens: tb.capacity, last: now}
		tb.buckets[key] = b
	}

	b.tokens = min(b.tokens+now.Sub(b.last).Seconds()*tb.rate, tb.capacity)
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (tb *TokenBucket) sweep(ctx context.Context) {
	ticker := time.NewTicker(bucketSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tb.mu.Lock()
			cutoff := tb.now().Add(-bucketIdleTTL)
			for key, b := range tb.buckets {
				if b.last.Before(cutoff) {
					delete(tb.buckets, key)
				}
			}
			tb.mu.Unlock()
		}
	}
}
