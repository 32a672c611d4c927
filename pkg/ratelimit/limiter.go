// Package ratelimit provides a per-key token bucket used to throttle
// question traffic by caller IP.
package ratelimit

import (
	"sync"
	"time"
)

// defaultIdleWindow controls how long an untouched bucket survives before
// the background sweep reclaims it.
const defaultIdleWindow = 10 * time.Minute

// Limiter is a per-key token bucket. Each key gets its own bucket of
// capacity burst, refilled at rate tokens per second.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64
	burst   float64
	window  time.Duration
	stop    chan struct{}
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// New creates a limiter refilling rate tokens per second up to burst per
// key, and starts the idle-bucket sweep.
func New(rate, burst int) *Limiter {
	if rate <= 0 {
		rate = 1
	}
	if burst <= 0 {
		burst = rate
	}

	l := &Limiter{
		buckets: make(map[string]*bucket),
		rate:    float64(rate),
		burst:   float64(burst),
		window:  defaultIdleWindow,
		stop:    make(chan struct{}),
	}

	go l.sweep()

	return l
}

// Allow reports whether the key may proceed, consuming one token if so.
func (l *Limiter) Allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.burst, lastRefill: now}
		l.buckets[key] = b
	}

	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens = min(b.tokens+elapsed*l.rate, l.burst)
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Reset forgets the key's bucket.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// Close stops the background sweep.
func (l *Limiter) Close() {
	close(l.stop)
}

func (l *Limiter) sweep() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			l.mu.Lock()
			for key, b := range l.buckets {
				if now.Sub(b.lastRefill) > l.window {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		case <-l.stop:
			return
		}
	}
}
