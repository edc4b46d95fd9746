// Package sources defines the capability every upstream site adapter offers
// and the registry the aggregator and API use to find them.
package sources

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/rockaxx/freegames/internal/fetcher"
	"github.com/rockaxx/freegames/internal/game"
	"github.com/rockaxx/freegames/internal/logger"
	"github.com/rockaxx/freegames/internal/scrape"
)

// ErrUnknownSource is returned for URLs no adapter serves.
var ErrUnknownSource = game.ErrUnknownSource

//go:generate mockgen -destination=mocks/mock_sources.go -package=mocks github.com/rockaxx/freegames/internal/sources PageFetcher,Adapter

// PageFetcher is the part of the fetcher adapters depend on.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string, opts fetcher.Options) (string, error)
}

// Adapter scrapes one upstream site.
type Adapter interface {
	Source() game.Source
	// Hosts lists the hostnames the adapter can parse, without "www.".
	Hosts() []string
	// Homepage is the listing page used by the catalog stream and warmer.
	Homepage() string
	// Concurrency is the detail enrichment limit for one stream.
	Concurrency() int
	// Search returns the stubs on the site's search page for query.
	Search(ctx context.Context, query string) ([]game.Stub, error)
	// Listing returns the stubs on a listing page such as the homepage.
	Listing(ctx context.Context, pageURL string) ([]game.Stub, error)
	// Detail enriches a stub from its detail page.
	Detail(ctx context.Context, stub game.Stub) (game.Record, error)
}

// Settings are the per-source knobs adapters are built with.
type Settings struct {
	Concurrency int
	Proxy       string
	Charset     string
}

// Base carries what every adapter needs: a fetcher, fetch options, a
// concurrency limit and a logger.
type Base struct {
	Fetcher PageFetcher
	Options fetcher.Options
	Limit   int
	Log     logger.Logger
}

// NewBase applies settings over the adapter's own fetch options.
func NewBase(src game.Source, f PageFetcher, opts fetcher.Options, s Settings, log logger.Logger) Base {
	if log == nil {
		log = logger.NewNop()
	}
	if s.Proxy != "" {
		opts.Proxy = s.Proxy
	}
	if s.Charset != "" {
		opts.Charset = s.Charset
	}
	limit := s.Concurrency
	if limit <= 0 {
		limit = 1
	}
	return Base{
		Fetcher: f,
		Options: opts,
		Limit:   limit,
		Log:     log.With(logger.Source(string(src))),
	}
}

// Concurrency implements Adapter.
func (b Base) Concurrency() int {
	return b.Limit
}

// Document fetches rawURL and parses it. It also returns the decoded body for
// regex-based extraction. Challenge pages parse as empty documents.
func (b Base) Document(ctx context.Context, rawURL string) (*goquery.Document, string, error) {
	body, err := b.Fetcher.Fetch(ctx, rawURL, b.Options)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	if body == "" {
		b.Log.Debug("Empty page", logger.URL(rawURL))
	}
	doc, err := scrape.Parse(body)
	if err != nil {
		return nil, "", err
	}
	return doc, body, nil
}
