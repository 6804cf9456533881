// Package ratelimit implements a token bucket limiter for pacing calls
// to quota-limited services.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const grantHistorySize = 100

// Stats holds limiter statistics for observability.
type Stats struct {
	RequestsLastMinute int     `json:"requests_last_minute"`
	TokensAvailable    float64 `json:"tokens_available"`
	Capacity           int     `json:"rate_limit"`
}

// Limiter is a token bucket: capacity accumulates at refillRate tokens
// per second and is debited per permitted call. Acquire blocks the caller
// until enough tokens are available. There is no arrival-order fairness
// guarantee among concurrent waiters.
type Limiter struct {
	mu         sync.Mutex
	capacity   float64
	tokens     float64
	refillRate float64
	lastRefill time.Time

	// Bounded FIFO of grant timestamps for the stats window.
	recent []time.Time

	now func() time.Time
}

// New creates a limiter with the given capacity and refill rate (tokens/sec).
func New(capacity int, refillRate float64) *Limiter {
	return &Limiter{
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		refillRate: refillRate,
		lastRefill: time.Now(),
		recent:     make([]time.Time, 0, grantHistorySize),
		now:        time.Now,
	}
}

// Acquire blocks until n tokens are available, then debits them.
// It returns early with the context error if ctx is cancelled while waiting.
func (l *Limiter) Acquire(ctx context.Context, n int) error {
	if n <= 0 {
		n = 1
	}
	need := float64(n)
	if need > l.capacity {
		return fmt.Errorf("requested %d tokens exceeds capacity %d", n, int(l.capacity))
	}

	l.mu.Lock()
	l.refillLocked()

	if l.tokens >= need {
		l.tokens -= need
		l.recordGrantLocked()
		l.mu.Unlock()
		return nil
	}

	wait := time.Duration((need - l.tokens) / l.refillRate * float64(time.Second))
	l.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
	}

	// The wait covered exactly the missing tokens; whatever refilled
	// meanwhile is consumed by this grant.
	l.mu.Lock()
	l.lastRefill = l.now()
	l.tokens = 0
	l.recordGrantLocked()
	l.mu.Unlock()
	return nil
}

// Stats reports grants within the trailing 60-second window, the current
// token level, and the configured capacity. No side effects on the bucket
// beyond refill bookkeeping.
func (l *Limiter) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refillLocked()

	cutoff := l.now().Add(-time.Minute)
	count := 0
	for _, t := range l.recent {
		if t.After(cutoff) {
			count++
		}
	}

	return Stats{
		RequestsLastMinute: count,
		TokensAvailable:    l.tokens,
		Capacity:           int(l.capacity),
	}
}

func (l *Limiter) refillLocked() {
	now := l.now()
	elapsed := now.Sub(l.lastRefill).Seconds()
	if elapsed > 0 {
		l.tokens += elapsed * l.refillRate
		if l.tokens > l.capacity {
			l.tokens = l.capacity
		}
	}
	l.lastRefill = now
}

func (l *Limiter) recordGrantLocked() {
	l.recent = append(l.recent, l.now())
	if len(l.recent) > grantHistorySize {
		l.recent = l.recent[1:]
	}
}
