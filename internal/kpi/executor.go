package kpi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"supplykpi/internal/resultcache"
)

// ErrUnknownKPI is returned, next to an empty table, for names or ids outside
// the catalog.
var ErrUnknownKPI = errors.New("unknown kpi")

// QueryError reports a backend fault while running a KPI.
type QueryError struct {
	KPI string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("kpi %s: %v", e.KPI, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Executor binds parameters, runs KPI templates and degrades failures to
// empty tables. It never panics on a querier fault.
type Executor struct {
	querier Querier
	cache   *resultcache.Cache[*Table]
	logger  *slog.Logger
}

type Option func(*Executor)

// WithCache memoizes successful results in c.
func WithCache(c *resultcache.Cache[*Table]) Option {
	return func(e *Executor) {
		e.cache = c
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

func NewExecutor(q Querier, opts ...Option) *Executor {
	e := &Executor{
		querier: q,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cache returns the result cache, nil when results are not memoized.
func (e *Executor) Cache() *resultcache.Cache[*Table] {
	return e.cache
}

// Execute runs the KPI id with p. The returned table is never nil; on error
// it is empty and err is ErrUnknownKPI or a *QueryError.
func (e *Executor) Execute(ctx context.Context, id KPI, p Params) (*Table, error) {
	def, ok := Get(id)
	if !ok {
		return EmptyTable(), fmt.Errorf("%w: %d", ErrUnknownKPI, int(id))
	}
	return e.execute(ctx, def, p)
}

// ExecuteByName is Execute keyed by the KPI wire name.
func (e *Executor) ExecuteByName(ctx context.Context, name string, p Params) (*Table, error) {
	def, ok := Lookup(name)
	if !ok {
		return EmptyTable(), fmt.Errorf("%w: %q", ErrUnknownKPI, name)
	}
	return e.execute(ctx, def, p)
}

func (e *Executor) execute(ctx context.Context, def Definition, p Params) (*Table, error) {
	args := def.Args(p)

	var (
		table *Table
		err   error
	)
	if e.cache != nil {
		// The computation is shared with concurrent callers of the same key,
		// so one caller going away must not cancel it for the others.
		shared := context.WithoutCancel(ctx)
		table, err = e.cache.GetOrCompute(CacheKey(def, args), func() (*Table, error) {
			return e.run(shared, def, args)
		})
	} else {
		table, err = e.run(ctx, def, args)
	}
	if err != nil {
		e.logger.Error("KPI query failed",
			slog.String("kpi", def.Name),
			slog.Any("error", err))
		return EmptyTable(), err
	}
	if table == nil {
		table = EmptyTable()
	}
	return table, nil
}

func (e *Executor) run(ctx context.Context, def Definition, args []any) (table *Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			table = nil
			err = &QueryError{KPI: def.Name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if e.querier == nil {
		return nil, &QueryError{KPI: def.Name, Err: errors.New("no querier configured")}
	}

	table, err = e.querier.Query(ctx, def.Template, args...)
	if err != nil {
		return nil, &QueryError{KPI: def.Name, Err: err}
	}

	e.logger.Debug("KPI query executed",
		slog.String("kpi", def.Name),
		slog.Int("rows", table.Len()))
	return table, nil
}

// CacheKey renders the bound arguments of a KPI call. KPIs without slots share
// one key regardless of the requested window.
func CacheKey(def Definition, args []any) resultcache.Key {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	return resultcache.Key{KPI: def.Name, Params: strings.Join(parts, "|")}
}
