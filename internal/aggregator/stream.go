package aggregator

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rockaxx/freegames/internal/correlation"
	"github.com/rockaxx/freegames/internal/game"
	"github.com/rockaxx/freegames/internal/links"
	"github.com/rockaxx/freegames/internal/logger"
	"github.com/rockaxx/freegames/internal/metrics"
	"github.com/rockaxx/freegames/internal/pool"
	"github.com/rockaxx/freegames/internal/sources"
)

// Stream is one aggregation run. Its events can be ranged over once.
type Stream struct {
	id  string
	agg *Aggregator
	ctx context.Context
	req Request
	log logger.Logger

	state atomic.Int32
	used  atomic.Bool
	items atomic.Int64

	events   chan Event
	gone     chan struct{}
	settled  chan struct{}
	goneOnce sync.Once

	// deliverMu keeps a tag event behind the item it refers to.
	deliverMu sync.Mutex
}

// ID identifies the stream in logs.
func (s *Stream) ID() string { return s.id }

// State reports where the stream is in its lifecycle.
func (s *Stream) State() State { return State(s.state.Load()) }

func (s *Stream) setState(st State) { s.state.Store(int32(st)) }

// Settled is closed once every adapter has returned, including adapters
// still draining after the consumer left.
func (s *Stream) Settled() <-chan struct{} { return s.settled }

// Events returns the event sequence. Ranging over it starts every adapter;
// breaking out of the loop moves the stream to StateDraining. Ranging a
// second time yields nothing.
func (s *Stream) Events() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		if !s.used.CompareAndSwap(false, true) {
			return
		}
		s.run(yield)
	}
}

func (s *Stream) run(yield func(Event) bool) {
	if !s.req.Catalog && strings.TrimSpace(s.req.Query) == "" {
		s.setState(StateClosed)
		close(s.settled)
		yield(doneEvent(0))
		return
	}

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	var deadline <-chan time.Time
	if t := s.agg.cfg.StreamTimeout; t > 0 {
		timer := time.NewTimer(t)
		defer timer.Stop()
		deadline = timer.C
	}

	s.setState(StateStreaming)
	s.agg.metrics.StreamStarted()
	defer s.agg.metrics.StreamFinished()

	started := time.Now()
	index := correlation.NewIndex(s.agg.cfg.CorrelationSource)

	settled := s.settled
	var wg sync.WaitGroup
	for _, ad := range s.agg.adapters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.collect(ctx, ad, index)
		}()
	}
	go func() {
		wg.Wait()
		close(settled)
	}()

	ticker := time.NewTicker(s.agg.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-s.events:
			if !yield(ev) {
				s.drain(settled)
				return
			}
		case <-ticker.C:
			if !yield(pingEvent(s.agg.now().UnixMilli())) {
				s.drain(settled)
				return
			}
		case <-settled:
			s.finish(yield, started)
			return
		case <-deadline:
			s.log.Warn("Stream deadline reached, dropping unsettled adapters")
			s.stop()
			s.finish(yield, started)
			return
		case <-s.ctx.Done():
			s.drain(settled)
			return
		}
	}
}

func (s *Stream) finish(yield func(Event) bool, started time.Time) {
	s.setState(StateClosed)
	items := int(s.items.Load())
	s.log.Info("Stream finished",
		logger.Int("items", items),
		logger.Duration("elapsed", time.Since(started)),
	)
	yield(doneEvent(items))
}

// drain detaches the consumer. Adapters still running finish their current
// fetches; everything they produce afterwards is dropped.
func (s *Stream) drain(settled <-chan struct{}) {
	s.setState(StateDraining)
	s.stop()
	s.log.Debug("Stream consumer left, draining")
	go func() {
		<-settled
		s.log.Debug("Stream drained", logger.Int64("items", s.items.Load()))
	}()
}

func (s *Stream) stop() {
	s.goneOnce.Do(func() { close(s.gone) })
}

// emit hands ev to the consumer, or reports false once the consumer is gone.
func (s *Stream) emit(ev Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.gone:
		return false
	}
}

// collect runs one adapter to completion.
func (s *Stream) collect(ctx context.Context, ad sources.Adapter, index *correlation.Index) {
	src := ad.Source()
	log := s.log.With(logger.Source(string(src)))

	// The listing fetch outlives the consumer; ctx only gates the detail stage.
	stubs, stage, err := s.list(context.WithoutCancel(ctx), ad)
	if err != nil {
		if ctx.Err() != nil {
			log.Debug("Adapter listing abandoned", logger.Error(err))
			return
		}
		log.Warn("Adapter listing failed", logger.String("stage", stage), logger.Error(err))
		s.agg.metrics.AdapterFailure(string(src), stage)
		return
	}
	log.Debug("Adapter listing done", logger.Int("stubs", len(stubs)))

	if s.req.Catalog {
		for _, stub := range stubs {
			if !s.deliver(game.FromStub(stub), index) {
				return
			}
		}
		return
	}

	p := pool.New(ad.Concurrency(), log)
	p.Run(ctx, len(stubs), func(ctx context.Context, i int) error {
		stub := stubs[i]
		rec, err := ad.Detail(ctx, stub)
		if err != nil {
			s.agg.metrics.AdapterFailure(string(src), metrics.StageDetail)
			rec = game.FromStub(stub)
		}
		s.deliver(rec, index)
		if err != nil {
			return fmt.Errorf("detail %s: %w", stub.URL, err)
		}
		return nil
	})
}

func (s *Stream) list(ctx context.Context, ad sources.Adapter) ([]game.Stub, string, error) {
	if s.req.Catalog {
		stubs, err := ad.Listing(ctx, ad.Homepage())
		return stubs, metrics.StageLatest, err
	}
	stubs, err := ad.Search(ctx, s.req.Query)
	return stubs, metrics.StageSearch, err
}

// deliver dedupes the record's links, runs it through the correlation index
// and emits it along with any retags it caused.
func (s *Stream) deliver(rec game.Record, index *correlation.Index) bool {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	rec.DownloadLinks = links.DedupeFrom(rec.URL, rec.DownloadLinks)
	rec.Normalize()

	retags := index.Process(&rec)
	if rec.Correlation != nil {
		s.agg.metrics.Correlated(rec.Correlation.Kind)
	}

	if !s.emit(itemEvent(rec)) {
		return false
	}
	s.items.Add(1)
	s.agg.metrics.StreamItem(string(rec.Source))

	for _, r := range retags {
		s.agg.metrics.Correlated(r.Correlation.Kind)
		if !s.emit(tagEvent(r)) {
			return false
		}
	}
	return true
}
