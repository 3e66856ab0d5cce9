package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"supplykpi/internal/kpi"
	"supplykpi/internal/resultcache"
)

// Runner executes a single KPI.
type Runner interface {
	Execute(ctx context.Context, id kpi.KPI, p kpi.Params) (*kpi.Table, error)
}

// CacheWarmer recomputes the KPIs of the default window so the first request
// after an expiry is served from cache.
type CacheWarmer struct {
	runner      Runner
	cache       *resultcache.Cache[*kpi.Table]
	params      kpi.Params
	kpis        []kpi.KPI
	concurrency int
	logger      *slog.Logger
}

// WarmedKPIs are every cached dashboard KPI. The special deals check always
// reads fresh rows and is left out.
func WarmedKPIs() []kpi.KPI {
	return lo.FilterMap(kpi.All(), func(def kpi.Definition, _ int) (kpi.KPI, bool) {
		return def.ID, def.ID != kpi.SpecialDealsCheck
	})
}

func NewCacheWarmer(runner Runner, cache *resultcache.Cache[*kpi.Table], params kpi.Params, concurrency int, logger *slog.Logger) *CacheWarmer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &CacheWarmer{
		runner:      runner,
		cache:       cache,
		params:      params,
		kpis:        WarmedKPIs(),
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run drops expired entries and re-executes every warmed KPI. Individual
// failures do not stop the others.
func (w *CacheWarmer) Run(ctx context.Context) error {
	start := time.Now()

	purged := 0
	if w.cache != nil {
		purged = w.cache.PurgeExpired()
	}

	var failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, id := range w.kpis {
		g.Go(func() error {
			if _, err := w.runner.Execute(gctx, id, w.params); err != nil {
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	w.logger.Info("KPI cache warmed",
		slog.Int("kpis", len(w.kpis)),
		slog.Int("failed", int(failed.Load())),
		slog.Int("purged", purged),
		slog.Duration("elapsed", time.Since(start)))

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d KPIs failed to warm", n, len(w.kpis))
	}
	return nil
}
