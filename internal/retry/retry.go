package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

// maxDelay caps both the computed backoff and a backend-supplied Retry-After.
const maxDelay = 2 * time.Minute

// RetryScraper is a decorator that re-runs a failed search for one site when
// the failure looks transient. It never retries across sites.
type RetryScraper struct {
	inner      model.Scraper
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewRetryScraper wraps a Scraper with retry logic.
// maxRetries is the number of additional attempts after the first failure.
// baseDelay is the delay before the first retry, doubled on each subsequent retry.
func NewRetryScraper(inner model.Scraper, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *RetryScraper {
	return &RetryScraper{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// ScrapeJobs attempts the search, retrying on transient errors. The last error
// is returned unchanged once retries run out.
func (s *RetryScraper) ScrapeJobs(ctx context.Context, params model.SearchParams) ([]model.RawPosting, error) {
	for attempt := 0; ; attempt++ {
		postings, err := s.inner.ScrapeJobs(ctx, params)
		if err == nil {
			if attempt > 0 {
				s.logger.Info("search recovered", "site", params.Site, "attempts", attempt+1)
			}
			return postings, nil
		}
		if attempt >= s.maxRetries || !isRetryable(err) {
			return nil, err
		}

		delay := s.backoffDelay(attempt+1, err)
		s.logger.Warn("retrying after transient error",
			"site", params.Site,
			"attempt", attempt+1,
			"max_retries", s.maxRetries,
			"delay", delay,
			"error", err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("retry %s cancelled: %w", params.Site, ctx.Err())
		case <-timer.C:
		}
	}
}

// backoffDelay is baseDelay doubled per attempt with ±30% jitter. A Retry-After
// on the error replaces it.
func (s *RetryScraper) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return min(httpErr.RetryAfter, maxDelay)
	}

	if s.baseDelay <= 0 {
		return 0
	}
	delay := s.baseDelay
	for i := 1; i < attempt && delay < maxDelay; i++ {
		delay *= 2
	}
	delay = min(delay, maxDelay)
	jitter := (rand.Float64()*2 - 1) * 0.3 * float64(delay)
	return delay + time.Duration(jitter)
}

// isRetryable treats HTTP 429/5xx and transport failures (network, DNS,
// decode) as transient. Cancellation never is.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Transient()
	}
	return true
}
