// Package fetcher retrieves upstream pages with browser-like headers, retries,
// decoding, anti-bot challenge detection and a TTL cache.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/singleflight"

	"github.com/rockaxx/freegames/internal/cache"
	"github.com/rockaxx/freegames/internal/circuitbreaker"
	"github.com/rockaxx/freegames/internal/links"
	"github.com/rockaxx/freegames/internal/logger"
	"github.com/rockaxx/freegames/internal/metrics"
	"github.com/rockaxx/freegames/internal/retry"
)

const (
	defaultTimeout      = 12 * time.Second
	defaultRetries      = 2
	defaultCacheTTL     = 5 * time.Minute
	defaultMaxBodyBytes = 10 * 1024 * 1024
	defaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"
)

// Config holds fetcher-wide defaults. Zero values fall back to the defaults
// above.
type Config struct {
	Timeout           time.Duration
	Retries           int
	CacheTTL          time.Duration
	UserAgent         string
	Proxy             string
	RequestsPerSecond float64
	Burst             int
	Coalesce          bool
	MaxBodyBytes      int64

	// Breaker enables per-host circuit breaking when non-nil.
	Breaker *circuitbreaker.Config
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Retries == 0 {
		c.Retries = defaultRetries
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = defaultCacheTTL
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = defaultMaxBodyBytes
	}
	return c
}

// Options override Config for a single call.
type Options struct {
	// Timeout bounds each attempt.
	Timeout time.Duration
	// Retries is the number of extra attempts; zero uses the default and a
	// negative value disables retrying.
	Retries int
	// CacheTTL is how long a body stays fresh; zero uses the default and a
	// negative value bypasses the cache.
	CacheTTL  time.Duration
	UserAgent string
	// Proxy is a socks5://, socks5h:// or http(s):// URL.
	Proxy string
	// Charset decodes bodies whose Content-Type carries no charset.
	Charset string
	// Bypass routes the request through the anti-bot transport.
	Bypass bool
}

// Response is a fetched, decompressed upstream response.
type Response struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
	// Text is Body decoded to UTF-8, set for textual content types only.
	Text string
	// Challenge is set when Text is an anti-bot interstitial.
	Challenge bool
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithMetrics records fetch and cache metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Fetcher) { f.metrics = m }
}

// WithRetryPolicy replaces the backoff timings. Retries still comes from
// Config and Options.
func WithRetryPolicy(p retry.Policy) Option {
	return func(f *Fetcher) { f.policy = p }
}

// Fetcher is safe for concurrent use.
type Fetcher struct {
	cfg      Config
	store    cache.Store
	log      logger.Logger
	metrics  *metrics.Metrics
	policy   retry.Policy
	limiter  *hostLimiter
	breakers *circuitbreaker.Group
	group    singleflight.Group

	clientsMu sync.Mutex
	clients   map[clientKey]*resty.Client
}

// New creates a Fetcher backed by store. A nil store disables caching.
func New(cfg Config, store cache.Store, log logger.Logger, opts ...Option) *Fetcher {
	if log == nil {
		log = logger.NewNop()
	}
	cfg = cfg.withDefaults()

	f := &Fetcher{
		cfg:     cfg,
		store:   store,
		log:     log,
		policy:  retry.DefaultPolicy(),
		limiter: newHostLimiter(cfg.RequestsPerSecond, cfg.Burst),
		clients: make(map[clientKey]*resty.Client),
	}
	for _, opt := range opts {
		opt(f)
	}

	if cfg.Breaker != nil {
		bc := *cfg.Breaker
		bc.IsFailure = func(err error) bool { return errors.Is(err, ErrTransient) }
		bc.OnStateChange = f.onBreakerChange
		f.breakers = circuitbreaker.NewGroup(bc)
	}

	return f
}

func (f *Fetcher) onBreakerChange(host string, from, to circuitbreaker.State) {
	f.log.Warn("Circuit breaker state changed",
		logger.String("host", host),
		logger.String("from", from.String()),
		logger.String("to", to.String()),
	)
	f.metrics.BreakerState(host, to == circuitbreaker.StateOpen)
}

// Breakers returns per-host breaker stats, or nil when breaking is disabled.
func (f *Fetcher) Breakers() []circuitbreaker.Stats {
	if f.breakers == nil {
		return nil
	}
	return f.breakers.Snapshot()
}

// Fetch returns the decoded body of rawURL. A fresh cache entry is returned
// without touching the network. Challenge pages yield "" and a nil error and
// are never cached.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, opts Options) (string, error) {
	key := cacheKey(rawURL)
	ttl := f.ttl(opts)

	if body, ok := f.cached(ctx, key, ttl); ok {
		return body, nil
	}

	if !f.cfg.Coalesce {
		return f.fetchAndStore(ctx, rawURL, key, ttl, opts)
	}

	// The shared call must not die with whichever caller arrived first.
	v, err, _ := f.group.Do(coalesceKey(key, opts), func() (any, error) {
		return f.fetchAndStore(context.WithoutCancel(ctx), rawURL, key, ttl, opts)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (f *Fetcher) fetchAndStore(ctx context.Context, rawURL, key string, ttl time.Duration, opts Options) (string, error) {
	resp, err := f.Get(ctx, rawURL, opts)
	if err != nil {
		return "", err
	}
	if resp.Challenge {
		f.log.Warn("Challenge detected", logger.URL(rawURL))
		return "", nil
	}

	body := resp.Text
	if !textual(resp.ContentType) {
		body = DecodeText(resp.Body, resp.ContentType, opts.Charset)
	}

	if f.store != nil && ttl > 0 {
		if err := f.store.Set(ctx, key, body, ttl); err != nil {
			f.log.Warn("Failed to cache page", logger.URL(rawURL), logger.Error(err))
		}
	}
	return body, nil
}

func (f *Fetcher) cached(ctx context.Context, key string, ttl time.Duration) (string, bool) {
	if f.store == nil || ttl <= 0 {
		return "", false
	}
	body, ok, err := f.store.Get(ctx, key)
	if err != nil {
		f.log.Warn("Cache lookup failed", logger.String("key", key), logger.Error(err))
		return "", false
	}
	f.metrics.CacheLookup(ok)
	return body, ok
}

// Get performs the request without the page cache and without charset
// decoding. Non-2xx statuses other than challenge pages are errors.
func (f *Fetcher) Get(ctx context.Context, rawURL string, opts Options) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	host := links.Host(rawURL)

	client, err := f.client(f.proxy(opts), opts.Bypass)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var resp *Response
	call := func(ctx context.Context) error {
		r, err := f.retrying(ctx, client, rawURL, host, opts)
		resp = r
		return err
	}

	if f.breakers != nil {
		err = f.breakers.Get(host).Execute(ctx, call)
	} else {
		err = call(ctx)
	}

	f.metrics.ObserveFetch(host, outcome(resp, err), time.Since(start))
	if err != nil {
		f.log.Debug("Fetch failed", logger.URL(rawURL), logger.Error(err))
		return nil, err
	}
	return resp, nil
}

func (f *Fetcher) retrying(ctx context.Context, client *resty.Client, rawURL, host string, opts Options) (*Response, error) {
	policy := f.policy
	policy.Retries = f.retries(opts)

	var resp *Response
	err := policy.Do(ctx, func(ctx context.Context) error {
		r, err := f.attempt(ctx, client, rawURL, host, opts)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})

	switch {
	case err == nil:
		return resp, nil
	case errors.Is(err, retry.ErrExhausted):
		return nil, fmt.Errorf("%w: %s: %w", ErrTransient, rawURL, err)
	default:
		return nil, err
	}
}

func (f *Fetcher) attempt(ctx context.Context, client *resty.Client, rawURL, host string, opts Options) (*Response, error) {
	if err := f.limiter.Wait(ctx, host); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout(opts))
	defer cancel()

	res, err := client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("User-Agent", f.userAgent(opts)).
		Get(rawURL)
	if err != nil {
		return nil, err
	}

	raw := res.RawBody()
	defer raw.Close()

	data, err := io.ReadAll(io.LimitReader(raw, f.cfg.MaxBodyBytes+1))
	if err != nil {
		return nil, retry.Retryable(fmt.Errorf("read body: %w", err))
	}
	if int64(len(data)) > f.cfg.MaxBodyBytes {
		return nil, fmt.Errorf("%w: %s", ErrBodyTooLarge, rawURL)
	}

	header := res.Header()
	resp := &Response{
		URL:         rawURL,
		StatusCode:  res.StatusCode(),
		ContentType: header.Get("Content-Type"),
		Body:        Decompress(data, header.Get("Content-Encoding")),
	}

	if textual(resp.ContentType) {
		resp.Text = DecodeText(resp.Body, resp.ContentType, opts.Charset)
		if IsChallenge(resp.Text) {
			resp.Challenge = true
			return resp, nil
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		statusErr := &StatusError{URL: rawURL, Code: resp.StatusCode}
		if statusErr.Temporary() {
			return nil, retry.Retryable(statusErr)
		}
		return nil, statusErr
	}

	return resp, nil
}

func (f *Fetcher) timeout(opts Options) time.Duration {
	if opts.Timeout > 0 {
		return opts.Timeout
	}
	return f.cfg.Timeout
}

func (f *Fetcher) retries(opts Options) int {
	switch {
	case opts.Retries < 0:
		return 0
	case opts.Retries > 0:
		return opts.Retries
	case f.cfg.Retries < 0:
		return 0
	default:
		return f.cfg.Retries
	}
}

func (f *Fetcher) ttl(opts Options) time.Duration {
	if opts.CacheTTL != 0 {
		return opts.CacheTTL
	}
	return f.cfg.CacheTTL
}

func (f *Fetcher) userAgent(opts Options) string {
	if opts.UserAgent != "" {
		return opts.UserAgent
	}
	return f.cfg.UserAgent
}

func (f *Fetcher) proxy(opts Options) string {
	if opts.Proxy != "" {
		return opts.Proxy
	}
	return f.cfg.Proxy
}

func outcome(resp *Response, err error) string {
	switch {
	case err == nil && resp != nil && resp.Challenge:
		return metrics.OutcomeChallenge
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		return metrics.OutcomeOpen
	case errors.Is(err, ErrStatus):
		return metrics.OutcomeStatus
	default:
		return metrics.OutcomeError
	}
}

// cacheKey is the canonical form of rawURL so tracking parameters and
// fragments do not split the cache.
func cacheKey(rawURL string) string {
	if canonical, err := links.Canonical("", rawURL); err == nil {
		return canonical
	}
	return strings.TrimSpace(rawURL)
}

func coalesceKey(key string, opts Options) string {
	return fmt.Sprintf("%s|%t|%s", key, opts.Bypass, opts.Charset)
}
