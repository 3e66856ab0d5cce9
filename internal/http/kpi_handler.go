package http

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/samber/lo"

	"supplykpi/internal/dashboard"
	"supplykpi/internal/kpi"
	"supplykpi/internal/timeframe"
)

// KPIHandlers serves the dashboard API. All handlers share one executor so
// cached results are reused across requests.
type KPIHandlers struct {
	dashboard    *dashboard.Service
	executor     *kpi.Executor
	parser       *timeframe.DateRangeParser
	defaultLimit int
}

func NewKPIHandlers(svc *dashboard.Service, executor *kpi.Executor, parser *timeframe.DateRangeParser, defaultLimit int) *KPIHandlers {
	if defaultLimit <= 0 {
		defaultLimit = kpi.DefaultLimit
	}
	return &KPIHandlers{
		dashboard:    svc,
		executor:     executor,
		parser:       parser,
		defaultLimit: defaultLimit,
	}
}

// KPIInfo describes a catalog entry.
type KPIInfo struct {
	Name      string   `json:"name"`
	Title     string   `json:"title"`
	UsesRange bool     `json:"uses_range"`
	Params    []string `json:"params"`
}

// KPIResult is the response of a single KPI execution.
type KPIResult struct {
	KPI   string     `json:"kpi"`
	Title string     `json:"title"`
	From  string     `json:"from"`
	To    string     `json:"to"`
	Limit int        `json:"limit"`
	Table *kpi.Table `json:"table"`
	Error string     `json:"error,omitempty"`
}

func badRequest(ctx *cartridge.Context, err error) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
	})
}

// params reads from, to and limit from the query string.
func (h *KPIHandlers) params(ctx *cartridge.Context) (kpi.Params, error) {
	r, err := h.parser.Parse(timeframe.DateRangeParserParams{
		FromDate: ctx.Query("from"),
		ToDate:   ctx.Query("to"),
	})
	if err != nil {
		return kpi.Params{}, err
	}

	limit := h.defaultLimit
	if raw := strings.TrimSpace(ctx.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return kpi.Params{}, fiber.NewError(fiber.StatusBadRequest, "invalid 'limit': "+raw)
		}
		if n > 0 {
			limit = n
		}
	}

	return kpi.Params{Range: r, Limit: limit}, nil
}

// DashboardAction renders the full dashboard for the requested window.
// A degraded render is still a 200; its status field carries the outcome.
func (h *KPIHandlers) DashboardAction(ctx *cartridge.Context) error {
	p, err := h.params(ctx)
	if err != nil {
		return badRequest(ctx, err)
	}

	d := h.dashboard.Render(ctx.UserContext(), p)
	if d.Status == dashboard.StatusError {
		ctx.Logger.Warn("Dashboard rendered with errors",
			slog.String("message", d.Message),
			slog.Int("failed", len(d.Errors)))
	}
	return ctx.JSON(d)
}

// KPIIndexAction lists the catalog.
func (h *KPIHandlers) KPIIndexAction(ctx *cartridge.Context) error {
	infos := lo.Map(kpi.All(), func(def kpi.Definition, _ int) KPIInfo {
		return KPIInfo{
			Name:      def.Name,
			Title:     def.Title,
			UsesRange: def.UsesRange(),
			Params:    lo.Uniq(lo.Map(def.Slots, func(s kpi.Slot, _ int) string { return s.String() })),
		}
	})
	return ctx.JSON(fiber.Map{"kpis": infos})
}

// KPIShowAction executes one KPI by name.
func (h *KPIHandlers) KPIShowAction(ctx *cartridge.Context) error {
	name := ctx.Params("name")
	def, ok := kpi.Lookup(name)
	if !ok {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "unknown KPI: " + name,
		})
	}

	p, err := h.params(ctx)
	if err != nil {
		return badRequest(ctx, err)
	}

	table, err := h.executor.Execute(ctx.UserContext(), def.ID, p)
	res := KPIResult{
		KPI:   def.Name,
		Title: def.Title,
		From:  p.Range.StartBound(),
		To:    p.Range.End.Format(timeframe.DateLayout),
		Limit: p.Limit,
		Table: table,
	}
	if err != nil {
		res.Error = err.Error()
		return ctx.Status(fiber.StatusInternalServerError).JSON(res)
	}
	return ctx.JSON(res)
}

// TrendAction returns the merged monthly sales and purchases series.
func (h *KPIHandlers) TrendAction(ctx *cartridge.Context) error {
	p, err := h.params(ctx)
	if err != nil {
		return badRequest(ctx, err)
	}

	table, err := h.executor.Execute(ctx.UserContext(), kpi.SalesPurchasesTrend, p)
	resp := fiber.Map{
		"from":   p.Range.StartBound(),
		"to":     p.Range.End.Format(timeframe.DateLayout),
		"points": kpi.ParseTrend(table),
	}
	if err != nil {
		resp["error"] = err.Error()
		return ctx.Status(fiber.StatusInternalServerError).JSON(resp)
	}
	return ctx.JSON(resp)
}

// SpecialDealsValidationAction reports on the SalesSpecialDeals table.
func (h *KPIHandlers) SpecialDealsValidationAction(ctx *cartridge.Context) error {
	return ctx.JSON(h.dashboard.CheckSpecialDeals(ctx.UserContext()))
}

// CacheStatsAction reports result cache counters.
func (h *KPIHandlers) CacheStatsAction(ctx *cartridge.Context) error {
	c := h.executor.Cache()
	if c == nil {
		return ctx.JSON(fiber.Map{"enabled": false})
	}
	return ctx.JSON(fiber.Map{
		"enabled":     true,
		"ttl_seconds": int(c.TTL().Seconds()),
		"stats":       c.Stats(),
	})
}

// CachePurgeAction drops every cached KPI result.
func (h *KPIHandlers) CachePurgeAction(ctx *cartridge.Context) error {
	c := h.executor.Cache()
	if c == nil {
		return ctx.JSON(fiber.Map{"success": true, "purged": 0})
	}
	n := c.Purge()
	ctx.Logger.Info("KPI cache purged", slog.Int("entries", n))
	return ctx.JSON(fiber.Map{"success": true, "purged": n})
}
