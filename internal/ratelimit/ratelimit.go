package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/amishk599/jobscout/internal/model"
)

// SourceRateLimiter enforces a minimum delay between requests to the same source.
// A zero delay disables limiting.
type SourceRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter // key: source name
	minDelay  time.Duration
	overrides map[string]time.Duration
}

// NewSourceRateLimiter creates a rate limiter that enforces minDelay between
// consecutive requests to the same source. overrides replaces minDelay for
// the named sources and may be nil.
func NewSourceRateLimiter(minDelay time.Duration, overrides map[string]time.Duration) *SourceRateLimiter {
	return &SourceRateLimiter{
		limiters:  make(map[string]*rate.Limiter),
		minDelay:  minDelay,
		overrides: overrides,
	}
}

func (r *SourceRateLimiter) limiterFor(source string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lim, ok := r.limiters[source]; ok {
		return lim
	}
	delay := r.minDelay
	if d, ok := r.overrides[source]; ok {
		delay = d
	}
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	lim := rate.NewLimiter(limit, 1)
	r.limiters[source] = lim
	return lim
}

// Wait blocks until the given source may be queried again.
func (r *SourceRateLimiter) Wait(ctx context.Context, source string) error {
	if err := r.limiterFor(source).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", source, err)
	}
	return nil
}

// RateLimitedScraper is a decorator that enforces per-source rate limiting
// before delegating to the wrapped Scraper.
type RateLimitedScraper struct {
	inner   model.Scraper
	limiter *SourceRateLimiter
}

// NewRateLimitedScraper wraps a Scraper with per-source rate limiting.
func NewRateLimitedScraper(inner model.Scraper, limiter *SourceRateLimiter) *RateLimitedScraper {
	return &RateLimitedScraper{
		inner:   inner,
		limiter: limiter,
	}
}

// ScrapeJobs waits for the limiter to admit params.Site, then delegates.
func (s *RateLimitedScraper) ScrapeJobs(ctx context.Context, params model.SearchParams) ([]model.RawPosting, error) {
	if err := s.limiter.Wait(ctx, params.Site); err != nil {
		return nil, err
	}
	return s.inner.ScrapeJobs(ctx, params)
}
