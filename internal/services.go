package internal

import (
	"log/slog"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"supplykpi/internal/config"
	"supplykpi/internal/dashboard"
	"supplykpi/internal/kpi"
	"supplykpi/internal/resultcache"
	"supplykpi/internal/timeframe"
)

// Services holds the KPI components shared by the HTTP handlers and the
// background jobs of one process.
type Services struct {
	Cache     *resultcache.Cache[*kpi.Table]
	Executor  *kpi.Executor
	Validator *kpi.Executor
	Dashboard *dashboard.Service
	Parser    *timeframe.DateRangeParser
	Limit     int
}

// NewServices wires the KPI stack over db. A nil clock uses the wall clock.
func NewServices(db *gorm.DB, cfg *config.Config, logger *slog.Logger, clock clockwork.Clock) *Services {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	querier := kpi.NewGormQuerier(db)
	cache := resultcache.New[*kpi.Table](clock, cfg.CacheTTL())

	executor := kpi.NewExecutor(querier, kpi.WithCache(cache), kpi.WithLogger(logger))
	// Data validation always reads current rows.
	validator := kpi.NewExecutor(querier, kpi.WithLogger(logger))

	svc := dashboard.NewService(executor,
		dashboard.WithValidator(validator),
		dashboard.WithWorkers(cfg.QueryWorkers),
		dashboard.WithLogger(logger),
	)

	from, to := cfg.DefaultWindow()

	return &Services{
		Cache:     cache,
		Executor:  executor,
		Validator: validator,
		Dashboard: svc,
		Parser:    timeframe.NewDateRangeParser(from, to),
		Limit:     cfg.DefaultLimit,
	}
}

// DefaultParams are the parameters of a request that supplies none.
func (s *Services) DefaultParams() kpi.Params {
	limit := s.Limit
	if limit <= 0 {
		limit = kpi.DefaultLimit
	}
	return kpi.Params{Range: s.Parser.Defaults(), Limit: limit}
}
