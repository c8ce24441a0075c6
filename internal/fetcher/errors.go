package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// StatusError is returned for a non-2xx HTTP response
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsRetryable reports whether a failed request may succeed on retry.
// Client errors abort immediately except 429; everything else (5xx,
// network failures, timeouts) is retried. Caller cancellation never is.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		if se.StatusCode == http.StatusTooManyRequests {
			return true
		}
		return se.StatusCode < 400 || se.StatusCode >= 500
	}
	return true
}
