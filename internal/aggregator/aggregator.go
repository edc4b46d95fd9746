// Package aggregator fans a query out to every source adapter and merges the
// enriched records into one lazily consumed event sequence.
package aggregator

import (
	"context"
	"iter"
	"time"

	"github.com/google/uuid"

	"github.com/rockaxx/freegames/internal/game"
	"github.com/rockaxx/freegames/internal/logger"
	"github.com/rockaxx/freegames/internal/metrics"
	"github.com/rockaxx/freegames/internal/sources"
)

// DefaultHeartbeatInterval is used when Config.HeartbeatInterval is zero.
const DefaultHeartbeatInterval = 15 * time.Second

// Config tunes every stream an Aggregator opens.
type Config struct {
	HeartbeatInterval time.Duration
	// StreamTimeout ends a stream with done after this long. Zero means no
	// deadline.
	StreamTimeout time.Duration
	// CorrelationSource feeds the correlation index. Defaults to OnlineFix.
	CorrelationSource game.Source
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithMetrics records stream and adapter metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Aggregator) { a.metrics = m }
}

// WithClock replaces time.Now for heartbeat payloads.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// Aggregator opens streams over a fixed set of adapters. It holds no
// per-stream state and is safe for concurrent use.
type Aggregator struct {
	adapters []sources.Adapter
	cfg      Config
	log      logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// New creates an aggregator over adapters.
func New(adapters []sources.Adapter, cfg Config, log logger.Logger, opts ...Option) *Aggregator {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.CorrelationSource == "" {
		cfg.CorrelationSource = game.OnlineFix
	}
	if log == nil {
		log = logger.NewNop()
	}

	a := &Aggregator{
		adapters: append([]sources.Adapter(nil), adapters...),
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Request selects what a stream aggregates.
type Request struct {
	Query string
	// Catalog streams the homepage listing of every source instead of
	// searching. Catalog items are not detail-enriched.
	Catalog bool
}

// Open prepares a stream. Nothing runs until its events are ranged over. A
// request-scoped logger in ctx is preferred over the aggregator's own.
func (a *Aggregator) Open(ctx context.Context, req Request) *Stream {
	id := uuid.NewString()
	fields := []logger.Field{logger.String("stream_id", id)}
	if req.Catalog {
		fields = append(fields, logger.Bool("catalog", true))
	} else {
		fields = append(fields, logger.Query(req.Query))
	}

	return &Stream{
		id:      id,
		agg:     a,
		ctx:     ctx,
		req:     req,
		log:     logger.FromContextOr(ctx, a.log).With(fields...),
		events:  make(chan Event),
		gone:    make(chan struct{}),
		settled: make(chan struct{}),
	}
}

// Search streams the enriched search results of every adapter for query.
func (a *Aggregator) Search(ctx context.Context, query string) iter.Seq[Event] {
	return a.Open(ctx, Request{Query: query}).Events()
}

// Catalog streams the homepage listings of every adapter.
func (a *Aggregator) Catalog(ctx context.Context) iter.Seq[Event] {
	return a.Open(ctx, Request{Catalog: true}).Events()
}

// Collect drains seq into the delivered records, applying tag events to the
// records they refer to. Pings are ignored.
func Collect(seq iter.Seq[Event]) []game.Record {
	var out []game.Record
	index := make(map[string]int)

	for ev := range seq {
		switch data := ev.Data.(type) {
		case ItemData:
			index[data.Item.URL] = len(out)
			out = append(out, data.Item)
		case TagData:
			if i, ok := index[data.Href]; ok {
				of := data.Of
				out[i].Correlation = &of
			}
		}
	}

	if out == nil {
		out = []game.Record{}
	}
	return out
}
