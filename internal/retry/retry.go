// Package retry provides the backoff policy used around page fetches.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"strings"
	"time"
)

var (
	// ErrExhausted wraps the last error once every attempt has failed.
	ErrExhausted = errors.New("retry attempts exhausted")
	// ErrContextCancelled is returned when ctx ends between attempts.
	ErrContextCancelled = errors.New("context cancelled during retry")
)

const (
	defaultRetries    = 2
	defaultBaseDelay  = 200 * time.Millisecond
	defaultMultiplier = 2.0
	defaultMaxDelay   = 5 * time.Second
)

// Policy decides how many times an operation is retried and how long to wait
// between attempts. The zero value is usable and behaves like DefaultPolicy.
type Policy struct {
	// Retries is the number of attempts after the first one.
	Retries int
	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration
	// Multiplier grows the delay for each further retry.
	Multiplier float64
	// MaxDelay caps a single wait.
	MaxDelay time.Duration
	// IsRetryable classifies errors; nil means DefaultIsRetryable.
	IsRetryable func(error) bool
}

// DefaultPolicy retries twice with 200ms and 400ms waits.
func DefaultPolicy() Policy {
	return Policy{
		Retries:     defaultRetries,
		BaseDelay:   defaultBaseDelay,
		Multiplier:  defaultMultiplier,
		MaxDelay:    defaultMaxDelay,
		IsRetryable: DefaultIsRetryable,
	}
}

func (p Policy) withDefaults() Policy {
	if p.Retries < 0 {
		p.Retries = 0
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = defaultBaseDelay
	}
	if p.Multiplier <= 0 {
		p.Multiplier = defaultMultiplier
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = defaultMaxDelay
	}
	if p.IsRetryable == nil {
		p.IsRetryable = DefaultIsRetryable
	}
	return p
}

// Attempts is the total number of calls Do makes at most.
func (p Policy) Attempts() int {
	return p.withDefaults().Retries + 1
}

// Backoff returns the wait before retry n, counting from zero:
// BaseDelay * Multiplier^n, capped at MaxDelay.
func (p Policy) Backoff(n int) time.Duration {
	p = p.withDefaults()
	if n < 0 {
		n = 0
	}
	d := time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(n)))
	if d > p.MaxDelay || d <= 0 {
		return p.MaxDelay
	}
	return d
}

// Do calls fn until it succeeds, returns a non-retryable error, or the policy
// runs out of attempts.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	p = p.withDefaults()

	var lastErr error
	for attempt := 0; attempt <= p.Retries; attempt++ {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !p.IsRetryable(err) {
			return err
		}
		if attempt == p.Retries {
			break
		}

		timer := time.NewTimer(p.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())
		case <-timer.C:
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, p.Retries+1, lastErr)
}

type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Retryable marks err as worth retrying regardless of its text.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

var retryablePatterns = []string{
	"timeout",
	"deadline exceeded",
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"temporary failure",
	"network is unreachable",
	"eof",
}

// DefaultIsRetryable treats network failures, timeouts and errors marked with
// Retryable as transient. Caller cancellation is never retried.
func DefaultIsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	var marked *retryableError
	if errors.As(err, &marked) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range retryablePatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
