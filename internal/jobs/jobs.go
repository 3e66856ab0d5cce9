// Package jobs runs the background work of the server process.
package jobs

import (
	"log/slog"

	"github.com/jonboulle/clockwork"

	"supplykpi/internal/config"
	"supplykpi/internal/kpi"
	"supplykpi/internal/resultcache"
)

// NewJobs creates the scheduler for the configured warm interval over the
// default window.
func NewJobs(cfg *config.Config, runner Runner, cache *resultcache.Cache[*kpi.Table], params kpi.Params, logger *slog.Logger) *Scheduler {
	warmer := NewCacheWarmer(runner, cache, params, cfg.QueryWorkers, logger)
	return NewScheduler(warmer, cfg.WarmInterval(), clockwork.NewRealClock(), logger)
}
