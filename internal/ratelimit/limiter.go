package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientLimiter holds a rate limiter and the last time it was used
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientRateLimiter manages token bucket limiters per client key
type ClientRateLimiter struct {
	mu              sync.Mutex
	limiters        map[string]*clientLimiter
	rate            rate.Limit
	burst           int
	idleTimeout     time.Duration
	cleanupInterval time.Duration
	now             func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// NewClientRateLimiter creates a limiter allowing r requests per second with
// bursts of b per client. Call Close to stop the eviction goroutine.
func NewClientRateLimiter(r float64, b int) *ClientRateLimiter {
	limiter := &ClientRateLimiter{
		limiters:        make(map[string]*clientLimiter),
		rate:            rate.Limit(r),
		burst:           b,
		idleTimeout:     time.Hour,
		cleanupInterval: 5 * time.Minute,
		now:             time.Now,
		stop:            make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

// Burst returns the configured burst size
func (l *ClientRateLimiter) Burst() int {
	return l.burst
}

// GetLimiter returns the rate limiter for the given client key
func (l *ClientRateLimiter) GetLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	info, exists := l.limiters[key]
	if !exists {
		info = &clientLimiter{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[key] = info
	}
	info.lastSeen = l.now()

	return info.limiter
}

// Allow reports whether a request for key may proceed now
func (l *ClientRateLimiter) Allow(key string) bool {
	return l.GetLimiter(key).Allow()
}

// Len returns the number of tracked clients
func (l *ClientRateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// Close stops background eviction. It is safe to call more than once.
func (l *ClientRateLimiter) Close() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *ClientRateLimiter) cleanup() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.evictIdle()
		case <-l.stop:
			return
		}
	}
}

// evictIdle removes limiters unused for longer than idleTimeout
func (l *ClientRateLimiter) evictIdle() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, info := range l.limiters {
		if now.Sub(info.lastSeen) > l.idleTimeout {
			delete(l.limiters, key)
		}
	}
}
