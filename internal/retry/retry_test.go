package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockScraper calls a function on each invocation, tracking call count.
type mockScraper struct {
	calls int
	fn    func(attempt int) ([]model.RawPosting, error)
}

func (m *mockScraper) ScrapeJobs(_ context.Context, _ model.SearchParams) ([]model.RawPosting, error) {
	m.calls++
	return m.fn(m.calls)
}

var params = model.SearchParams{Site: "linkedin"}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	jobs := []model.RawPosting{{"title": "Engineer"}}
	mock := &mockScraper{fn: func(_ int) ([]model.RawPosting, error) {
		return jobs, nil
	}}

	rs := NewRetryScraper(mock, 2, 10*time.Millisecond, discardLogger())
	got, err := rs.ScrapeJobs(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("unexpected jobs: %v", got)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
}

func TestRetry_RetriesOn5xx_SucceedsOnSecondAttempt(t *testing.T) {
	mock := &mockScraper{fn: func(attempt int) ([]model.RawPosting, error) {
		if attempt == 1 {
			return nil, &model.HTTPError{StatusCode: 503, Err: errors.New("service unavailable")}
		}
		return []model.RawPosting{{"title": "Engineer"}}, nil
	}}

	rs := NewRetryScraper(mock, 2, 10*time.Millisecond, discardLogger())
	got, err := rs.ScrapeJobs(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 job, got %d", len(got))
	}
	if mock.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.calls)
	}
}

func TestRetry_DoesNotRetryOn4xx(t *testing.T) {
	mock := &mockScraper{fn: func(_ int) ([]model.RawPosting, error) {
		return nil, &model.HTTPError{StatusCode: 404, Err: errors.New("not found")}
	}}

	rs := NewRetryScraper(mock, 2, 10*time.Millisecond, discardLogger())
	_, err := rs.ScrapeJobs(context.Background(), params)
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != 404 {
		t.Fatalf("expected HTTPError with status 404, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call (no retry), got %d", mock.calls)
	}
}

func TestRetry_ZeroRetriesMakesSingleAttempt(t *testing.T) {
	mock := &mockScraper{fn: func(_ int) ([]model.RawPosting, error) {
		return nil, &model.HTTPError{StatusCode: 500, Err: errors.New("internal error")}
	}}

	rs := NewRetryScraper(mock, 0, 10*time.Millisecond, discardLogger())
	if _, err := rs.ScrapeJobs(context.Background(), params); err == nil {
		t.Fatal("expected error, got nil")
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call, got %d", mock.calls)
	}
}

func TestRetry_GivesUpAfterMaxRetries(t *testing.T) {
	mock := &mockScraper{fn: func(_ int) ([]model.RawPosting, error) {
		return nil, &model.HTTPError{StatusCode: 500, Err: errors.New("internal error")}
	}}

	rs := NewRetryScraper(mock, 2, 10*time.Millisecond, discardLogger())
	if _, err := rs.ScrapeJobs(context.Background(), params); err == nil {
		t.Fatal("expected error after max retries, got nil")
	}
	// 1 initial + 2 retries
	if mock.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", mock.calls)
	}
}

func TestRetry_RespectsContextCancellation(t *testing.T) {
	mock := &mockScraper{fn: func(_ int) ([]model.RawPosting, error) {
		return nil, &model.HTTPError{StatusCode: 500, Err: errors.New("internal error")}
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rs := NewRetryScraper(mock, 2, time.Second, discardLogger())
	_, err := rs.ScrapeJobs(ctx, params)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if mock.calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", mock.calls)
	}
}

func TestBackoffDelay(t *testing.T) {
	rs := NewRetryScraper(nil, 3, time.Second, discardLogger())
	plain := errors.New("connection reset")

	tests := []struct {
		name     string
		attempt  int
		err      error
		min, max time.Duration
	}{
		{"first retry", 1, plain, 700 * time.Millisecond, 1300 * time.Millisecond},
		{"third retry doubles twice", 3, plain, 2800 * time.Millisecond, 5200 * time.Millisecond},
		{"retry-after wins", 1, &model.HTTPError{StatusCode: 429, RetryAfter: 7 * time.Second}, 7 * time.Second, 7 * time.Second},
		{"retry-after is capped", 1, &model.HTTPError{StatusCode: 503, RetryAfter: time.Hour}, maxDelay, maxDelay},
		{"huge attempt is capped", 80, plain, 0, maxDelay + maxDelay*3/10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := rs.backoffDelay(tc.attempt, tc.err)
			if got < tc.min || got > tc.max {
				t.Errorf("backoffDelay(%d) = %v, want within [%v, %v]", tc.attempt, got, tc.min, tc.max)
			}
		})
	}
}

func TestBackoffDelay_ZeroBase(t *testing.T) {
	rs := NewRetryScraper(nil, 3, 0, discardLogger())
	if got := rs.backoffDelay(2, errors.New("eof")); got != 0 {
		t.Errorf("backoffDelay with zero base = %v, want 0", got)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"429", &model.HTTPError{StatusCode: 429}, true},
		{"502 wrapped", fmt.Errorf("source bayt: %w", &model.HTTPError{StatusCode: 502}), true},
		{"400", &model.HTTPError{StatusCode: 400}, false},
		{"network", errors.New("dial tcp: connection refused"), true},
		{"canceled", fmt.Errorf("request: %w", context.Canceled), false},
		{"deadline", context.DeadlineExceeded, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := isRetryable(tc.err); got != tc.want {
				t.Errorf("isRetryable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
