// Package pool runs per-item work with bounded parallelism.
package pool

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rockaxx/freegames/internal/logger"
)

// Pool bounds how many items are processed at once. A Pool may be shared by
// several concurrent Run calls; the limit applies to each call separately.
type Pool struct {
	limit  int
	logger logger.Logger

	processed atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64
	peak      atomic.Int64
}

// Stats is a snapshot of pool counters.
type Stats struct {
	Processed int64
	Failed    int64
	Skipped   int64
	// Peak is the highest number of items seen in flight within one Run.
	Peak int64
}

// New creates a pool. A limit below 1 is treated as 1.
func New(limit int, log logger.Logger) *Pool {
	if limit < 1 {
		limit = 1
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Pool{limit: limit, logger: log}
}

// Limit returns the maximum number of items in flight per Run.
func (p *Pool) Limit() int {
	return p.limit
}

// Run calls fn for every index in [0, n) with at most Limit calls in flight
// and returns once all started calls have finished. An error from fn is
// logged and counted, never propagated, and never stops the other items.
//
// Once ctx is done no further items are started. Items already running
// receive a context that keeps ctx's values but is not cancelled with it, so
// in-flight work completes and callers decide whether to use the result.
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) {
	if n <= 0 {
		return
	}

	workCtx := context.WithoutCancel(ctx)
	sem := make(chan struct{}, p.limit)
	var (
		wg       sync.WaitGroup
		inFlight atomic.Int64
	)

	// Cancellation stops scheduling only; queued items are counted as skipped.
	for i := range n {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			p.skipped.Add(int64(n - i))
			wg.Wait()
			return
		}
		if ctx.Err() != nil {
			<-sem
			p.skipped.Add(int64(n - i))
			break
		}

		wg.Add(1)
		go func(idx int) {
			defer func() {
				inFlight.Add(-1)
				<-sem
				wg.Done()
			}()

			p.observe(inFlight.Add(1))

			if err := p.call(workCtx, idx, fn); err != nil {
				p.failed.Add(1)
				p.logger.Warn("pool item failed",
					logger.Int("index", idx),
					logger.Error(err),
				)
			}
			p.processed.Add(1)
		}(i)
	}

	wg.Wait()
}

// call runs fn and converts a panic into an error so one bad item cannot take
// the process down.
func (p *Pool) call(ctx context.Context, idx int, fn func(context.Context, int) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return fn(ctx, idx)
}

func (p *Pool) observe(current int64) {
	for {
		peak := p.peak.Load()
		if current <= peak || p.peak.CompareAndSwap(peak, current) {
			return
		}
	}
}

// Stats returns the counters accumulated over every Run.
func (p *Pool) Stats() Stats {
	return Stats{
		Processed: p.processed.Load(),
		Failed:    p.failed.Load(),
		Skipped:   p.skipped.Load(),
		Peak:      p.peak.Load(),
	}
}

// Map applies fn to every item through p and returns results in input order.
// A failed item leaves the zero value in its slot.
func Map[T, R any](ctx context.Context, p *Pool, items []T, fn func(context.Context, T) (R, error)) []R {
	out := make([]R, len(items))
	p.Run(ctx, len(items), func(ctx context.Context, i int) error {
		r, err := fn(ctx, items[i])
		if err != nil {
			return err
		}
		out[i] = r
		return nil
	})
	return out
}
