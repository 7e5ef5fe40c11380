package inference

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter keeps a client-side token bucket per provider
type RateLimiter struct {
	limiters map[string]*providerLimiter
	mu       sync.RWMutex
}

type providerLimiter struct {
	limiter *rate.Limiter
	denied  int64
	mu      sync.Mutex
}

// RateLimitStatus describes one provider bucket
type RateLimitStatus struct {
	Limit  float64
	Burst  int
	Tokens float64
	Denied int64
}

// NewRateLimiter creates an empty limiter set; unregistered providers are never limited
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*providerLimiter),
	}
}

// Register sets the request rate (per second) and burst for a provider
func (r *RateLimiter) Register(provider string, rps float64, burst int) {
	if rps <= 0 {
		return
	}
	if burst < 1 {
		burst = 1
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.limiters[provider] = &providerLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Allow consumes a token for provider and reports whether the call may proceed
func (r *RateLimiter) Allow(provider string) bool {
	limiter := r.getLimiter(provider)
	if limiter == nil {
		return true
	}

	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	if limiter.limiter.Allow() {
		return true
	}
	limiter.denied++
	return false
}

// Status returns the bucket state of provider, or nil if it is unlimited
func (r *RateLimiter) Status(provider string) *RateLimitStatus {
	limiter := r.getLimiter(provider)
	if limiter == nil {
		return nil
	}

	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	return &RateLimitStatus{
		Limit:  float64(limiter.limiter.Limit()),
		Burst:  limiter.limiter.Burst(),
		Tokens: limiter.limiter.TokensAt(time.Now()),
		Denied: limiter.denied,
	}
}

func (r *RateLimiter) getLimiter(provider string) *providerLimiter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.limiters[provider]
}
