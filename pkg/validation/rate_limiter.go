package validation

import (
	"sync"
	"time"
)

// RateLimiter is a token bucket per key. Each key may spend maxRequests
// tokens per window; tokens refill continuously.
type RateLimiter struct {
	maxRequests int
	window      time.Duration
	clients     map[string]*bucket
	mu          sync.Mutex
	now         func() time.Time
	cleanupTick *time.Ticker
	done        chan struct{}
	closeOnce   sync.Once
}

// bucket is the state of one key
type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// NewRateLimiter creates a limiter and starts the goroutine that forgets
// idle keys. Close stops it.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		clients:     make(map[string]*bucket),
		now:         time.Now,
		cleanupTick: time.NewTicker(window),
		done:        make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Allow spends one token of key and reports whether one was available
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.clients[key]
	if !ok {
		b = &bucket{tokens: float64(rl.maxRequests), lastSeen: now}
		rl.clients[key] = b
	}

	elapsed := now.Sub(b.lastSeen)
	if elapsed > 0 {
		b.tokens += float64(rl.maxRequests) * float64(elapsed) / float64(rl.window)
		if b.tokens > float64(rl.maxRequests) {
			b.tokens = float64(rl.maxRequests)
		}
	}
	b.lastSeen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Len returns the number of keys being tracked
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

func (rl *RateLimiter) cleanup() {
	for {
		select {
		case <-rl.cleanupTick.C:
			rl.removeIdle()
		case <-rl.done:
			return
		}
	}
}

// removeIdle forgets keys unused for two windows; their buckets would be
// full again anyway
func (rl *RateLimiter) removeIdle() {
	cutoff := rl.now().Add(-2 * rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, b := range rl.clients {
		if b.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() {
		close(rl.done)
		rl.cleanupTick.Stop()
	})
}
