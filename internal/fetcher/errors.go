package fetcher

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTransient wraps the last error after every retry failed.
	ErrTransient = errors.New("transient fetch failure")
	// ErrStatus matches upstream statuses that are not worth retrying.
	ErrStatus = errors.New("unexpected upstream status")
	// ErrBodyTooLarge is returned when a page exceeds Config.MaxBodyBytes.
	ErrBodyTooLarge = errors.New("response body too large")
	// ErrInvalidURL is returned for URLs that are not absolute http(s).
	ErrInvalidURL = errors.New("invalid fetch url")
)

// StatusError carries a non-2xx upstream status.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Temporary reports whether the status is worth retrying.
func (e *StatusError) Temporary() bool {
	return e.Code >= http.StatusInternalServerError || e.Code == http.StatusTooManyRequests
}

// Is makes errors.Is(err, ErrStatus) true for non-retryable statuses only.
func (e *StatusError) Is(target error) bool {
	return target == ErrStatus && !e.Temporary()
}
