package runner

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter is consulted before each fetch with the target host.
type RateLimiter interface {
	Wait(ctx context.Context, domain string) error
	Close()
}

type globalRateLimiter struct {
	limiter *rate.Limiter
}

func newGlobalRateLimiter(requestsPerSecond int) RateLimiter {
	if requestsPerSecond <= 0 {
		return &noRateLimiter{}
	}

	return &globalRateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

func (r *globalRateLimiter) Wait(ctx context.Context, domain string) error {
	return r.limiter.Wait(ctx)
}

func (r *globalRateLimiter) Close() {}

// domainRateLimiter allows maxRequests per window for each host independently.
type domainRateLimiter struct {
	every    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
}

func newDomainRateLimiter(maxRequests int, window time.Duration) RateLimiter {
	if maxRequests <= 0 || window <= 0 {
		return &noRateLimiter{}
	}

	return &domainRateLimiter{
		every:    rate.Every(window / time.Duration(maxRequests)),
		burst:    maxRequests,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (r *domainRateLimiter) limiterFor(domain string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.limiters[domain]
	if !ok {
		l = rate.NewLimiter(r.every, r.burst)
		r.limiters[domain] = l
	}
	return l
}

func (r *domainRateLimiter) Wait(ctx context.Context, domain string) error {
	return r.limiterFor(domain).Wait(ctx)
}

func (r *domainRateLimiter) Close() {}

type noRateLimiter struct{}

func (r *noRateLimiter) Wait(ctx context.Context, domain string) error {
	return nil
}

func (r *noRateLimiter) Close() {}
