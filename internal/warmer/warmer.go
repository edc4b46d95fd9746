// Package warmer periodically fetches every source homepage so the page
// cache stays hot for the catalog stream.
package warmer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rockaxx/freegames/internal/logger"
	"github.com/rockaxx/freegames/internal/metrics"
	"github.com/rockaxx/freegames/internal/pool"
	"github.com/rockaxx/freegames/internal/sources"
)

// DefaultSchedule refreshes just inside the default page cache TTL.
const DefaultSchedule = "@every 4m"

const parallelism = 2

// ErrRunning is returned by Start on a warmer that is already running.
var ErrRunning = errors.New("warmer already running")

// Result summarizes one warm-up pass.
type Result struct {
	Warmed int
	Failed int
}

// Warmer runs warm-up passes on a cron schedule.
type Warmer struct {
	adapters []sources.Adapter
	schedule cron.Schedule
	expr     string
	log      logger.Logger
	metrics  *metrics.Metrics

	cron    *cron.Cron
	running atomic.Bool
	passes  atomic.Int64
}

// Option configures a Warmer.
type Option func(*Warmer)

// WithMetrics counts failed homepage fetches.
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Warmer) { w.metrics = m }
}

// New validates schedule, which accepts five-field cron expressions and
// descriptors such as "@every 4m".
func New(adapters []sources.Adapter, schedule string, log logger.Logger, opts ...Option) (*Warmer, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if log == nil {
		log = logger.NewNop()
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	sched, err := parser.Parse(schedule)
	if err != nil {
		return nil, fmt.Errorf("parse warmer schedule %q: %w", schedule, err)
	}

	w := &Warmer{
		adapters: adapters,
		schedule: sched,
		expr:     schedule,
		log:      log.With(logger.String("component", "warmer")),
		cron:     cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger))),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Next is when the schedule fires after t.
func (w *Warmer) Next(t time.Time) time.Time {
	return w.schedule.Next(t)
}

// Passes is the number of completed warm-up passes.
func (w *Warmer) Passes() int64 {
	return w.passes.Load()
}

// Start schedules passes until Stop is called or ctx is cancelled. Passes
// use ctx.
func (w *Warmer) Start(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		return ErrRunning
	}

	w.cron.Schedule(w.schedule, cron.FuncJob(func() {
		res := w.RunOnce(ctx)
		w.log.Info("Cache warm-up finished",
			logger.Int("warmed", res.Warmed),
			logger.Int("failed", res.Failed),
			logger.Time("next_run", w.Next(time.Now())),
		)
	}))
	w.cron.Start()

	w.log.Info("Cache warmer started",
		logger.String("schedule", w.expr),
		logger.Int("sources", len(w.adapters)),
		logger.Time("next_run", w.Next(time.Now())),
	)

	go func() {
		<-ctx.Done()
		w.Stop()
	}()
	return nil
}

// Stop halts the schedule and waits for a running pass to finish.
func (w *Warmer) Stop() {
	if !w.running.CompareAndSwap(true, false) {
		return
	}
	<-w.cron.Stop().Done()
	w.log.Info("Cache warmer stopped")
}

// RunOnce fetches every homepage listing once.
func (w *Warmer) RunOnce(ctx context.Context) Result {
	var warmed, failed atomic.Int64

	p := pool.New(parallelism, w.log)
	p.Run(ctx, len(w.adapters), func(ctx context.Context, i int) error {
		a := w.adapters[i]
		stubs, err := a.Listing(ctx, a.Homepage())
		if err != nil {
			failed.Add(1)
			w.metrics.AdapterFailure(string(a.Source()), metrics.StageLatest)
			return fmt.Errorf("warm %s: %w", a.Source(), err)
		}
		warmed.Add(1)
		w.log.Debug("Warmed homepage",
			logger.Source(string(a.Source())),
			logger.Int("stubs", len(stubs)),
		)
		return nil
	})

	w.passes.Add(1)
	return Result{Warmed: int(warmed.Load()), Failed: int(failed.Load())}
}
