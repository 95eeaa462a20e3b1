package notification

import (
	"sync"
	"time"
)

// RateLimiterConfig controls push delivery rate limiting
type RateLimiterConfig struct {
	MaxPerInterval int           // maximum pushes per interval
	Interval       time.Duration // refill interval
	Burst          int           // maximum token bucket size
}

// DefaultRateLimiterConfig returns sensible push rate limits
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		MaxPerInterval: 60,
		Interval:       time.Minute,
		Burst:          10,
	}
}

// RateLimiter implements a token bucket limiter for push deliveries.
// Tokens refill continuously at MaxPerInterval per Interval, capped at Burst.
type RateLimiter struct {
	mu         sync.Mutex
	rate       float64 // tokens per second
	tokens     float64
	maxTokens  float64
	lastRefill time.Time
}

// NewRateLimiter creates a rate limiter from the given config
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.MaxPerInterval <= 0 || cfg.Interval <= 0 {
		cfg = DefaultRateLimiterConfig()
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.MaxPerInterval
	}
	return &RateLimiter{
		rate:       float64(cfg.MaxPerInterval) / cfg.Interval.Seconds(),
		tokens:     float64(cfg.Burst),
		maxTokens:  float64(cfg.Burst),
		lastRefill: time.Now(),
	}
}

// Allow reports whether a push may be delivered now, consuming a token if so
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(r.lastRefill).Seconds()
	r.lastRefill = now

	r.tokens += elapsed * r.rate
	if r.tokens > r.maxTokens {
		r.tokens = r.maxTokens
	}

	if r.tokens < 1 {
		return false
	}
	r.tokens--
	return true
}
