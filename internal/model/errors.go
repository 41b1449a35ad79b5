package model

import (
	"fmt"
	"net/http"
	"time"
)

// HTTPError is returned by the scraping client for any non-200 response.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // zero if the backend sent no usable Retry-After
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// Transient reports whether the same request may succeed later: 429 or any 5xx.
func (e *HTTPError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}
