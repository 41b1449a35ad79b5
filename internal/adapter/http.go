package adapter

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/amishk599/jobscout/internal/model"
)

// errorBodyLimit caps how much of a failed response ends up in the error text.
const errorBodyLimit = 512

// statusError turns a non-200 response into a *model.HTTPError so the retry
// decorator can classify it. The body is read but not closed.
func statusError(resp *http.Response, site string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	return &model.HTTPError{
		StatusCode: resp.StatusCode,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		Err:        fmt.Errorf("jobspy fetch for %s: unexpected status %d: %s", site, resp.StatusCode, strings.TrimSpace(string(body))),
	}
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Returns zero if absent, unparseable or already in the past.
func parseRetryAfter(value string) time.Duration {
	return retryAfterAt(value, time.Now())
}

// retryAfterAt accepts both forms of the header: delay seconds ("120") and an
// HTTP date, measured from now.
func retryAfterAt(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	at, err := http.ParseTime(value)
	if err != nil {
		return 0
	}
	if d := at.Sub(now); d > 0 {
		return d
	}
	return 0
}
