package pool_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rockaxx/freegames/internal/logger"
	"github.com/rockaxx/freegames/internal/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_EachItemOnceWithinLimit(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name  string
		items int
		limit int
	}{
		{name: "more items than limit", items: 40, limit: 3},
		{name: "limit above items", items: 4, limit: 10},
		{name: "single slot", items: 12, limit: 1},
		{name: "zero limit clamps to one", items: 5, limit: 0},
		{name: "no items", items: 0, limit: 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p := pool.New(tc.limit, logger.NewNop())
			calls := make([]atomic.Int32, tc.items)
			var current, maxSeen atomic.Int32

			p.Run(context.Background(), tc.items, func(_ context.Context, i int) error {
				n := current.Add(1)
				for {
					m := maxSeen.Load()
					if n <= m || maxSeen.CompareAndSwap(m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				calls[i].Add(1)
				current.Add(-1)
				return nil
			})

			for i := range calls {
				assert.Equal(t, int32(1), calls[i].Load(), "item %d", i)
			}
			assert.LessOrEqual(t, int(maxSeen.Load()), p.Limit())
			assert.Equal(t, int64(tc.items), p.Stats().Processed)
		})
	}
}

func TestRun_FailureDoesNotHaltBatch(t *testing.T) {
	t.Parallel()

	p := pool.New(2, logger.NewNop())
	var done atomic.Int32

	p.Run(context.Background(), 6, func(_ context.Context, i int) error {
		done.Add(1)
		if i%2 == 0 {
			return errors.New("detail page gone")
		}
		if i == 5 {
			panic("selector blew up")
		}
		return nil
	})

	assert.Equal(t, int32(6), done.Load())
	stats := p.Stats()
	assert.Equal(t, int64(6), stats.Processed)
	assert.Equal(t, int64(4), stats.Failed)
}

func TestMap_PreservesInputOrder(t *testing.T) {
	t.Parallel()

	items := []int{50, 10, 30, 0, 20}
	p := pool.New(5, logger.NewNop())

	got := pool.Map(context.Background(), p, items, func(_ context.Context, ms int) (int, error) {
		time.Sleep(time.Duration(ms) * time.Millisecond)
		if ms == 30 {
			return 0, errors.New("boom")
		}
		return ms * 2, nil
	})

	assert.Equal(t, []int{100, 20, 0, 0, 40}, got)
}

func TestRun_StopsSchedulingAfterCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	p := pool.New(1, logger.NewNop())

	var (
		mu      sync.Mutex
		started []int
		ctxErrs []error
	)

	p.Run(ctx, 10, func(workCtx context.Context, i int) error {
		mu.Lock()
		started = append(started, i)
		mu.Unlock()

		if i == 1 {
			cancel()
			time.Sleep(5 * time.Millisecond)
			mu.Lock()
			ctxErrs = append(ctxErrs, workCtx.Err())
			mu.Unlock()
		}
		return nil
	})

	require.Equal(t, []int{0, 1}, started)
	assert.Equal(t, []error{nil}, ctxErrs, "in-flight work keeps an uncancelled context")
	assert.Equal(t, int64(8), p.Stats().Skipped)
}
