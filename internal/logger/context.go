package logger

import (
	"context"
	"fmt"
	"os"
	"sync"
)

type ctxKey struct{}

var (
	defaultMu  sync.RWMutex
	defaultLog Logger
)

// WithContext stores l in ctx.
func WithContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the request-scoped logger, or the default logger when
// ctx carries none.
func FromContext(ctx context.Context) Logger {
	return FromContextOr(ctx, Default())
}

// FromContextOr is FromContext with an explicit fallback, for components that
// own a logger but prefer the request one when a request is in flight.
func FromContextOr(ctx context.Context, fallback Logger) Logger {
	if l, ok := ctx.Value(ctxKey{}).(Logger); ok {
		return l
	}
	return fallback
}

// SetDefault replaces the logger returned for contexts without one.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defaultLog = l
	defaultMu.Unlock()
}

// Default is the logger set with SetDefault. Until then it is a warn-level
// stderr logger.
func Default() Logger {
	defaultMu.RLock()
	l := defaultLog
	defaultMu.RUnlock()
	if l != nil {
		return l
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLog == nil {
		l, err := New(Config{Level: "warn", OutputPaths: []string{"stderr"}})
		if err != nil {
			fmt.Fprintf(os.Stderr, "CRITICAL: failed to create fallback logger: %v\n", err)
			l = NewNop()
		}
		defaultLog = l
	}
	return defaultLog
}
