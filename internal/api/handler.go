// Package api exposes the aggregation pipeline over HTTP: SSE streams, a
// batch search endpoint, single-page scraping and an image proxy.
package api

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rockaxx/freegames/internal/aggregator"
	"github.com/rockaxx/freegames/internal/cache"
	"github.com/rockaxx/freegames/internal/fetcher"
	"github.com/rockaxx/freegames/internal/logger"
	"github.com/rockaxx/freegames/internal/sources"
)

// DefaultScrapeTTL is how long a /api/scrape listing is served from cache.
const DefaultScrapeTTL = 5 * time.Minute

// DefaultImageHosts are CDNs allowed through the image proxy besides the
// source sites themselves.
var DefaultImageHosts = []string{"steamstatic.com", "steampowered.com", "ytimg.com"}

const errUnknownDomain = "unknown domain"

// Streamer opens aggregation streams.
type Streamer interface {
	Open(ctx context.Context, req aggregator.Request) *aggregator.Stream
}

// Resolver maps URLs to the adapter serving them.
type Resolver interface {
	ForURL(rawURL string) (sources.Adapter, error)
	Hosts() []string
}

// ImageFetcher performs raw upstream GETs.
type ImageFetcher interface {
	Get(ctx context.Context, rawURL string, opts fetcher.Options) (*fetcher.Response, error)
}

// Config tunes the handler.
type Config struct {
	ScrapeTTL time.Duration
	// ImageHosts extends the image proxy allow-list. A host matches itself
	// and its subdomains.
	ImageHosts []string
}

// Handler serves the /api routes.
type Handler struct {
	streams  Streamer
	resolver Resolver
	images   ImageFetcher
	store    cache.Store
	cfg      Config
	log      logger.Logger
	metrics  http.Handler
}

// Option configures a Handler.
type Option func(*Handler)

// WithMetricsHandler serves h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(x *Handler) { x.metrics = h }
}

// NewHandler creates the API handler.
func NewHandler(
	streams Streamer,
	resolver Resolver,
	images ImageFetcher,
	store cache.Store,
	cfg Config,
	log logger.Logger,
	opts ...Option,
) *Handler {
	if cfg.ScrapeTTL <= 0 {
		cfg.ScrapeTTL = DefaultScrapeTTL
	}
	if cfg.ImageHosts == nil {
		cfg.ImageHosts = DefaultImageHosts
	}
	if log == nil {
		log = logger.NewNop()
	}

	h := &Handler{
		streams:  streams,
		resolver: resolver,
		images:   images,
		store:    store,
		cfg:      cfg,
		log:      log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the routes on r.
func (h *Handler) Register(r gin.IRouter) {
	api := r.Group("/api")
	api.GET("/search/stream", h.searchStream)
	api.GET("/all/stream", h.catalogStream)
	api.GET("/search", h.search)
	api.GET("/scrape", h.scrape)
	api.GET("/img", h.image)

	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics))
	}
}

// search runs the whole aggregation and answers with the records as one
// JSON array.
func (h *Handler) search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	stream := h.streams.Open(c.Request.Context(), aggregator.Request{Query: query})
	c.JSON(http.StatusOK, aggregator.Collect(stream.Events()))
}

// parseUpstreamURL accepts absolute http(s) URLs only.
func parseUpstreamURL(raw string) (*url.URL, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, false
	}
	return u, true
}

// hostAllowed reports whether host is one of allowed or a subdomain of one.
func hostAllowed(host string, allowed []string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	return slices.ContainsFunc(allowed, func(a string) bool {
		return host == a || strings.HasSuffix(host, "."+a)
	})
}
