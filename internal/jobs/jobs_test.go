package jobs_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplykpi/internal/jobs"
	"supplykpi/internal/kpi"
	"supplykpi/internal/resultcache"
	"supplykpi/internal/timeframe"
)

type countingRunner struct {
	mu    sync.Mutex
	calls map[kpi.KPI]int
	fail  map[kpi.KPI]bool
}

func newCountingRunner() *countingRunner {
	return &countingRunner{calls: map[kpi.KPI]int{}, fail: map[kpi.KPI]bool{}}
}

func (r *countingRunner) Execute(_ context.Context, id kpi.KPI, _ kpi.Params) (*kpi.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[id]++
	if r.fail[id] {
		return kpi.EmptyTable(), errors.New("query failed")
	}
	return kpi.EmptyTable(), nil
}

func (r *countingRunner) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		n += c
	}
	return n
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func defaultParams() kpi.Params {
	return kpi.Params{
		Range: timeframe.NewDateRange(time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2016, 12, 31, 0, 0, 0, 0, time.UTC)),
		Limit: 10,
	}
}

func TestWarmedKPIsSkipValidation(t *testing.T) {
	warmed := jobs.WarmedKPIs()
	assert.Len(t, warmed, len(kpi.All())-1)
	assert.NotContains(t, warmed, kpi.SpecialDealsCheck)
	assert.Contains(t, warmed, kpi.SalesPurchasesTrend)
}

func TestCacheWarmerRun(t *testing.T) {
	t.Run("executes every warmed KPI once", func(t *testing.T) {
		r := newCountingRunner()
		w := jobs.NewCacheWarmer(r, nil, defaultParams(), 3, discardLogger())

		require.NoError(t, w.Run(context.Background()))
		for _, id := range jobs.WarmedKPIs() {
			assert.Equal(t, 1, r.calls[id], id.String())
		}
		assert.Zero(t, r.calls[kpi.SpecialDealsCheck])
	})

	t.Run("reports failures without stopping", func(t *testing.T) {
		r := newCountingRunner()
		r.fail[kpi.TaxVariance] = true
		r.fail[kpi.GrossProfit] = true
		w := jobs.NewCacheWarmer(r, nil, defaultParams(), 2, discardLogger())

		err := w.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "2 of 17")
		assert.Equal(t, len(jobs.WarmedKPIs()), r.total())
	})

	t.Run("purges expired entries", func(t *testing.T) {
		clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		cache := resultcache.New[*kpi.Table](clock, time.Minute)
		cache.Set(resultcache.Key{KPI: "stale", Params: "x"}, kpi.EmptyTable())
		clock.Advance(2 * time.Minute)

		w := jobs.NewCacheWarmer(newCountingRunner(), cache, defaultParams(), 1, discardLogger())
		require.NoError(t, w.Run(context.Background()))
		assert.Zero(t, cache.Len())
	})
}

func TestCacheWarmerFillsExecutorCache(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	cache := resultcache.New[*kpi.Table](clock, 10*time.Minute)
	q := &staticQuerier{}
	executor := kpi.NewExecutor(q, kpi.WithCache(cache), kpi.WithLogger(discardLogger()))

	w := jobs.NewCacheWarmer(executor, cache, defaultParams(), 4, discardLogger())
	require.NoError(t, w.Run(context.Background()))

	warmedQueries := q.count()
	assert.Positive(t, cache.Len())

	// A dashboard request for the default window is now served from cache.
	_, err := executor.Execute(context.Background(), kpi.SalesVsPurchases, defaultParams())
	require.NoError(t, err)
	assert.Equal(t, warmedQueries, q.count())
}

type staticQuerier struct {
	mu sync.Mutex
	n  int
}

func (q *staticQuerier) Query(context.Context, string, ...any) (*kpi.Table, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.n++
	return kpi.NewTable([]string{"Value"}, []kpi.Row{{"Value": 1.0}}), nil
}

func (q *staticQuerier) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.n
}

func TestSchedulerWarmsOnEveryTick(t *testing.T) {
	clock := clockwork.NewFakeClock()
	r := newCountingRunner()
	warmer := jobs.NewCacheWarmer(r, nil, defaultParams(), 2, discardLogger())
	s := jobs.NewScheduler(warmer, 5*time.Minute, clock, discardLogger())

	perRun := len(jobs.WarmedKPIs())

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())

	// Start warms immediately.
	require.Eventually(t, func() bool { return r.total() == perRun }, time.Second, 5*time.Millisecond)

	blockCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)
	require.NoError(t, clock.BlockUntilContext(blockCtx, 1))

	clock.Advance(5 * time.Minute)
	require.Eventually(t, func() bool { return r.total() == 2*perRun }, time.Second, 5*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())

	clock.Advance(5 * time.Minute)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2*perRun, r.total())
}

func TestSchedulerDisabledWithoutInterval(t *testing.T) {
	r := newCountingRunner()
	warmer := jobs.NewCacheWarmer(r, nil, defaultParams(), 2, discardLogger())
	s := jobs.NewScheduler(warmer, 0, clockwork.NewFakeClock(), discardLogger())

	require.NoError(t, s.Start())
	assert.False(t, s.IsRunning())
	s.Stop()
	assert.Zero(t, r.total())

	require.NoError(t, s.WarmNow(context.Background()))
	assert.Equal(t, len(jobs.WarmedKPIs()), r.total())
}
