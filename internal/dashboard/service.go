// Package dashboard assembles KPI results into the dashboard view: headline
// metrics, the most discounted clients, the monthly trend and one widget per
// analysis tab.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"supplykpi/internal/kpi"
	"supplykpi/internal/metrics"
	"supplykpi/internal/pkg/async"
	"supplykpi/internal/timeframe"
)

// Runner executes a single KPI. *kpi.Executor implements it.
type Runner interface {
	Execute(ctx context.Context, id kpi.KPI, p kpi.Params) (*kpi.Table, error)
}

// DebugHint accompanies a failed render.
type DebugHint struct {
	Advice         string   `json:"advice"`
	ExpectedTables []string `json:"expected_tables"`
	CommonIssues   []string `json:"common_issues"`
}

var debugHint = DebugHint{
	Advice:         "Please make sure your database is properly initialized and contains all required tables and data.",
	ExpectedTables: []string{"SalesSpecialDeals", "SalesBuyingGroups", "WarehouseStockGroups", "SalesInvoiceLines", "PurchaseOrderLines", "StockItemTransactions"},
	CommonIssues: []string{
		"SalesSpecialDeals table is empty",
		"Table names don't match schema",
		"Missing foreign key relationships",
	},
}

func newDebugHint() *DebugHint {
	hint := debugHint
	return &hint
}

// KPIError records a KPI that failed during a render.
type KPIError struct {
	KPI   string `json:"kpi"`
	Error string `json:"error"`
}

type Dashboard struct {
	From      string            `json:"from"`
	To        string            `json:"to"`
	Limit     int               `json:"limit"`
	Status    Status            `json:"status"`
	Message   string            `json:"message,omitempty"`
	Debug     *DebugHint        `json:"debug,omitempty"`
	Headlines metrics.Headlines `json:"headlines"`
	Display   []metrics.Display `json:"display"`
	TopClient Widget            `json:"top_clients"`
	Trend     []kpi.TrendPoint  `json:"trend"`
	Tabs      []Widget          `json:"tabs"`
	Errors    []KPIError        `json:"errors,omitempty"`
}

// Tab returns the widget with the given id.
func (d *Dashboard) Tab(id string) (Widget, bool) {
	return lo.Find(d.Tabs, func(w Widget) bool { return w.ID == id })
}

type Service struct {
	runner    Runner
	validator Runner
	workers   int
	logger    *slog.Logger
}

type Option func(*Service)

// WithValidator sets the runner used by CheckSpecialDeals, typically one that
// bypasses the result cache.
func WithValidator(r Runner) Option {
	return func(s *Service) {
		s.validator = r
	}
}

// WithWorkers bounds how many KPI queries of one render run at once.
func WithWorkers(n int) Option {
	return func(s *Service) {
		s.workers = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func NewService(runner Runner, opts ...Option) *Service {
	s := &Service{
		runner:  runner,
		workers: 4,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.validator == nil {
		s.validator = runner
	}
	return s
}

// dashboardKPIs are executed on every render.
var dashboardKPIs = []kpi.KPI{
	kpi.SalesVsPurchases,
	kpi.AvgMarginPerProduct,
	kpi.DealCoverage,
	kpi.StockMovementVolume,
	kpi.MostDiscountedClients,
	kpi.SupplierPerformance,
	kpi.PromoPerformance,
	kpi.TransactionDistribution,
	kpi.GrossProfit,
	kpi.COGSvsPurchases,
	kpi.PromoDealsByStockGroup,
	kpi.PromoPerformanceByBuyingGroup,
	kpi.TaxVariance,
	kpi.SalesByStockGroup,
	kpi.CustomerSegmentSales,
	kpi.ProductImbalance,
	kpi.SalesPurchasesTrend,
}

// Render runs every dashboard KPI for p and builds the view. It never fails:
// faulty KPIs degrade their own widgets, and an unexpected fault yields an
// error dashboard with a debug hint.
func (s *Service) Render(ctx context.Context, p kpi.Params) (d *Dashboard) {
	if p.Limit <= 0 {
		p.Limit = kpi.DefaultLimit
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Dashboard render failed", slog.Any("panic", r))
			d = failed(p, fmt.Errorf("%v", r))
		}
	}()

	results := s.load(ctx, p)

	d = &Dashboard{
		From:   p.Range.StartBound(),
		To:     p.Range.End.Format(timeframe.DateLayout),
		Limit:  p.Limit,
		Status: StatusOK,
	}

	d.Headlines = metrics.BuildHeadlines(metrics.HeadlineSources{
		SalesVsPurchases:        results[kpi.SalesVsPurchases].table,
		GrossProfit:             results[kpi.GrossProfit].table,
		COGSvsPurchases:         results[kpi.COGSvsPurchases].table,
		TransactionDistribution: results[kpi.TransactionDistribution].table,
		StockMovementVolume:     results[kpi.StockMovementVolume].table,
		DealCoverage:            results[kpi.DealCoverage].table,
		PromoPerformance:        results[kpi.PromoPerformance].table,
	})
	d.Display = d.Headlines.Format()
	d.TopClient = topClientsWidget(results[kpi.MostDiscountedClients])
	d.Trend = kpi.ParseTrend(results[kpi.SalesPurchasesTrend].table)
	d.Tabs = lo.Map(tabs, func(tab tabSpec, _ int) Widget {
		return tab.render(results[tab.kpi])
	})

	for _, id := range dashboardKPIs {
		if err := results[id].err; err != nil {
			d.Errors = append(d.Errors, KPIError{KPI: id.String(), Error: err.Error()})
		}
	}

	switch {
	case len(d.Errors) == len(dashboardKPIs):
		d.Status = StatusError
		d.Message = "Every KPI query failed"
		d.Debug = newDebugHint()
	case len(d.Errors) > 0:
		d.Status = StatusWarning
		d.Message = fmt.Sprintf("%d of %d KPI queries failed", len(d.Errors), len(dashboardKPIs))
	}

	return d
}

func (s *Service) load(ctx context.Context, p kpi.Params) map[kpi.KPI]loaded {
	tasks := lo.Map(dashboardKPIs, func(id kpi.KPI, _ int) async.Task[*kpi.Table] {
		return async.Task[*kpi.Table]{
			Name: id.String(),
			Execute: func(ctx context.Context) (*kpi.Table, error) {
				return s.runner.Execute(ctx, id, p)
			},
		}
	})

	byName := async.NewPool[*kpi.Table](s.workers).Execute(ctx, tasks)

	results := make(map[kpi.KPI]loaded, len(dashboardKPIs))
	for _, id := range dashboardKPIs {
		r, ok := byName[id.String()]
		switch {
		case !ok:
			err := ctx.Err()
			if err == nil {
				err = fmt.Errorf("kpi %s did not run", id)
			}
			results[id] = loaded{table: kpi.EmptyTable(), err: err}
		case r.Data == nil:
			results[id] = loaded{table: kpi.EmptyTable(), err: r.Err}
		default:
			results[id] = loaded{table: r.Data, err: r.Err}
		}
	}
	return results
}

func failed(p kpi.Params, err error) *Dashboard {
	return &Dashboard{
		From:      p.Range.StartBound(),
		To:        p.Range.End.Format(timeframe.DateLayout),
		Limit:     p.Limit,
		Status:    StatusError,
		Message:   fmt.Sprintf("An unexpected error occurred while loading the dashboard: %v", err),
		Debug:     newDebugHint(),
		TopClient: Widget{ID: "top_clients", Status: StatusError, Table: kpi.EmptyTable()},
		Trend:     []kpi.TrendPoint{},
		Tabs:      []Widget{},
	}
}

// DealsCheck summarizes SalesSpecialDeals for the data validation panel.
type DealsCheck struct {
	Status                   Status   `json:"status"`
	Messages                 []string `json:"messages"`
	TotalRecords             int64    `json:"total_records"`
	RecordsWithStockGroupID  int64    `json:"records_with_stock_group_id"`
	RecordsWithBuyingGroupID int64    `json:"records_with_buying_group_id"`
	RecordsWithDiscount      int64    `json:"records_with_discount"`
	MinDiscountPct           float64  `json:"min_discount_pct"`
	AvgDiscountPct           float64  `json:"avg_discount_pct"`
	MaxDiscountPct           float64  `json:"max_discount_pct"`
	UniqueStockGroups        int64    `json:"unique_stock_groups"`
	UniqueBuyingGroups       int64    `json:"unique_buying_groups"`
}

// CheckSpecialDeals validates that special deals are present and populated.
func (s *Service) CheckSpecialDeals(ctx context.Context) DealsCheck {
	t, err := s.validator.Execute(ctx, kpi.SpecialDealsCheck, kpi.Params{})
	if err != nil || t.IsEmpty() {
		if err != nil {
			s.logger.Warn("Special deals check failed", slog.Any("error", err))
		}
		return DealsCheck{Status: StatusError, Messages: []string{"Cannot access SalesSpecialDeals"}}
	}

	check := DealsCheck{
		TotalRecords:             metrics.Scalar(t, "TotalRecords", int64(0)),
		RecordsWithStockGroupID:  metrics.Scalar(t, "RecordsWithStockGroupID", int64(0)),
		RecordsWithBuyingGroupID: metrics.Scalar(t, "RecordsWithBuyingGroupID", int64(0)),
		RecordsWithDiscount:      metrics.Scalar(t, "RecordsWithDiscount", int64(0)),
		MinDiscountPct:           metrics.Scalar(t, "MinDiscountPct", 0.0),
		AvgDiscountPct:           metrics.Scalar(t, "AvgDiscountPct", 0.0),
		MaxDiscountPct:           metrics.Scalar(t, "MaxDiscountPct", 0.0),
		UniqueStockGroups:        metrics.Scalar(t, "UniqueStockGroups", int64(0)),
		UniqueBuyingGroups:       metrics.Scalar(t, "UniqueBuyingGroups", int64(0)),
	}

	if check.TotalRecords == 0 {
		check.Status = StatusError
		check.Messages = []string{"SalesSpecialDeals is empty!"}
		return check
	}

	check.Status = StatusOK
	check.Messages = []string{
		fmt.Sprintf("%d deals found", check.TotalRecords),
		fmt.Sprintf("%d with discounts", check.RecordsWithDiscount),
	}
	return check
}
