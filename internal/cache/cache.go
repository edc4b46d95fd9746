// Package cache holds fetched page bodies for a short time so repeated
// searches do not hit the upstream sites again.
package cache

import (
	"context"
	"time"
)

// Entry is one cached page body.
type Entry struct {
	Key      string        `json:"key"`
	StoredAt time.Time     `json:"stored_at"`
	TTL      time.Duration `json:"ttl"`
	Body     string        `json:"body"`
}

// Fresh reports whether the entry may still be served at now.
func (e Entry) Fresh(now time.Time) bool {
	return now.Sub(e.StoredAt) < e.TTL
}

// Store is the cache service injected into the fetcher.
type Store interface {
	// Get returns the body for key when a fresh entry exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores body under key, replacing any previous entry.
	Set(ctx context.Context, key, body string, ttl time.Duration) error
}

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time
