package dashboard

import (
	"fmt"

	"supplykpi/internal/kpi"
	"supplykpi/internal/metrics"
)

type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

type ChartKind string

const (
	ChartLine       ChartKind = "line"
	ChartBar        ChartKind = "bar"
	ChartGroupedBar ChartKind = "grouped_bar"
	ChartPie        ChartKind = "pie"
)

// ChartSpec describes a chart over Data. For pies X names the slices and
// Y[0] holds their values.
type ChartSpec struct {
	Kind   ChartKind         `json:"kind"`
	X      string            `json:"x"`
	Y      []string          `json:"y"`
	Color  string            `json:"color,omitempty"`
	Hover  []string          `json:"hover,omitempty"`
	Labels map[string]string `json:"labels,omitempty"`
	Data   *kpi.Table        `json:"data"`
}

// Widget is one panel of the dashboard. A degraded widget carries a warning
// or error status and a message instead of a chart; its table may still hold
// whatever data was available.
type Widget struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Subtitle string     `json:"subtitle"`
	KPI      string     `json:"kpi"`
	Status   Status     `json:"status"`
	Message  string     `json:"message,omitempty"`
	Chart    *ChartSpec `json:"chart,omitempty"`
	Table    *kpi.Table `json:"table"`
}

// loaded is the outcome of one KPI execution.
type loaded struct {
	table *kpi.Table
	err   error
}

// view is what a tab builder produces from a non-empty table. A non-empty
// warning degrades the widget.
type view struct {
	chart   *ChartSpec
	table   *kpi.Table
	warning string
}

type tabSpec struct {
	id       string
	title    string
	subtitle string
	kpi      kpi.KPI
	requires string
	noData   string
	build    func(t *kpi.Table) view
}

func (s tabSpec) render(l loaded) (w Widget) {
	w = Widget{
		ID:       s.id,
		Title:    s.title,
		Subtitle: s.subtitle,
		KPI:      s.kpi.String(),
		Status:   StatusOK,
		Table:    l.table,
	}
	if w.Table == nil {
		w.Table = kpi.EmptyTable()
	}

	if l.err != nil {
		w.Status = StatusError
		w.Message = fmt.Sprintf("Error executing query %s: %v", s.kpi, l.err)
		return w
	}
	if l.table.IsEmpty() || !l.table.HasColumn(s.requires) {
		w.Status = StatusWarning
		w.Message = s.noData
		return w
	}

	defer func() {
		if r := recover(); r != nil {
			w.Status = StatusError
			w.Message = fmt.Sprintf("Error creating %s chart: %v", s.id, r)
			w.Chart = nil
		}
	}()

	v := s.build(l.table)
	if v.table != nil {
		w.Table = v.table
	}
	if v.warning != "" {
		w.Status = StatusWarning
		w.Message = v.warning
		return w
	}
	w.Chart = v.chart
	return w
}

func hasColumns(t *kpi.Table, columns ...string) bool {
	for _, c := range columns {
		if !t.HasColumn(c) {
			return false
		}
	}
	return true
}

// formatColumns replaces the numeric cells of the given columns with their
// display strings. Nulls and non-numeric cells are left alone.
func formatColumns(t *kpi.Table, formats map[string]func(float64) string) *kpi.Table {
	rows := t.Rows()
	for _, r := range rows {
		for col, format := range formats {
			if f, ok := metrics.ToFloat(r[col]); ok {
				r[col] = format(f)
			}
		}
	}
	return kpi.NewTable(t.Columns(), rows)
}

func points2(v float64) string { return metrics.FormatPoints(v, 2) }
func ratio2(v float64) string  { return metrics.FormatNumber(v, 2) }
func count(v float64) string   { return metrics.FormatCount(int64(v)) }

var tabs = []tabSpec{
	{
		id:       "trend",
		title:    "Sales vs Purchases Trend",
		subtitle: "Monthly Sales vs Purchases",
		kpi:      kpi.SalesPurchasesTrend,
		requires: "Period",
		noData:   "No trend data available for the selected date range",
		build: func(t *kpi.Table) view {
			if !hasColumns(t, "Sales", "Purchases") {
				return view{warning: "No trend data available for the selected date range"}
			}
			return view{
				chart: &ChartSpec{
					Kind:   ChartLine,
					X:      "Period",
					Y:      []string{"Sales", "Purchases"},
					Labels: map[string]string{"value": "Amount ($)", "Period": "Month"},
					Data:   t,
				},
				table: formatColumns(t, map[string]func(float64) string{
					"Sales":     metrics.FormatCurrency,
					"Purchases": metrics.FormatCurrency,
				}),
			}
		},
	},
	{
		id:       "margin",
		title:    "Margin by Product",
		subtitle: "Average Margin per Product (Top 10)",
		kpi:      kpi.AvgMarginPerProduct,
		requires: "AvgMargin",
		noData:   "No margin data available for the selected date range",
		build: func(t *kpi.Table) view {
			top := metrics.TopN(t, "AvgMargin", 10)
			if top.IsEmpty() || !top.HasColumn("StockItemName") {
				return view{warning: "Insufficient data to display the margin chart"}
			}
			return view{
				chart: &ChartSpec{
					Kind:  ChartBar,
					X:     "StockItemName",
					Y:     []string{"AvgMargin"},
					Color: "StockGroupName",
					Labels: map[string]string{
						"StockItemName":  "Product",
						"AvgMargin":      "Avg Margin",
						"StockGroupName": "Product Group",
					},
					Data: top,
				},
				table: top,
			}
		},
	},
	{
		id:       "suppliers",
		title:    "Supplier Performance",
		subtitle: "Top Suppliers by Quantity Received",
		kpi:      kpi.SupplierPerformance,
		requires: "TotalQtyReceived",
		noData:   "No supplier performance data available",
		build: func(t *kpi.Table) view {
			top := metrics.TopN(t, "TotalQtyReceived", 20)
			if top.IsEmpty() || !top.HasColumn("SupplierName") {
				return view{warning: "Insufficient data to display the supplier performance chart"}
			}
			return view{
				chart: &ChartSpec{Kind: ChartBar, X: "SupplierName", Y: []string{"TotalQtyReceived"}, Data: top},
				table: top,
			}
		},
	},
	{
		id:       "sales_by_group",
		title:    "Sales by Stock Group",
		subtitle: "Units Sold & Profit by Stock Group",
		kpi:      kpi.SalesByStockGroup,
		requires: "StockGroupName",
		noData:   "No sales by stock group data available for the selected date range",
		build: func(t *kpi.Table) view {
			if !hasColumns(t, "TotalUnitsSold", "TotalProfit") {
				return view{warning: "Missing required columns for sales by group chart"}
			}
			return view{chart: &ChartSpec{
				Kind: ChartGroupedBar,
				X:    "StockGroupName",
				Y:    []string{"TotalUnitsSold", "TotalProfit"},
				Data: t,
			}}
		},
	},
	{
		id:       "customer_segments",
		title:    "Customer Segments",
		subtitle: "Quantity Shipped by Customer Category",
		kpi:      kpi.CustomerSegmentSales,
		requires: "CustomerCategoryName",
		noData:   "No customer segment data available",
		build: func(t *kpi.Table) view {
			if !t.HasColumn("TotalQtyShipped") {
				return view{warning: "Missing required columns for customer segments chart"}
			}
			return view{chart: &ChartSpec{
				Kind: ChartBar,
				X:    "CustomerCategoryName",
				Y:    []string{"TotalQtyShipped"},
				Data: t,
			}}
		},
	},
	{
		id:       "transaction_mix",
		title:    "Transaction Mix",
		subtitle: "Transaction Type Distribution",
		kpi:      kpi.TransactionDistribution,
		requires: "TransactionTypeName",
		noData:   "No transaction distribution data available for the selected date range",
		build: func(t *kpi.Table) view {
			if !t.HasColumn("TxnCount") || metrics.Sum(t, "TxnCount") == 0 {
				return view{warning: "No transaction count data available"}
			}
			return view{chart: &ChartSpec{
				Kind: ChartPie,
				X:    "TransactionTypeName",
				Y:    []string{"TxnCount"},
				Data: t,
			}}
		},
	},
	{
		id:       "promo_stock_group",
		title:    "Promo by Stock Group",
		subtitle: "Deals by Stock Group",
		kpi:      kpi.PromoDealsByStockGroup,
		requires: "StockGroupName",
		noData:   "No deals by stock group. Verify SalesSpecialDeals mapping.",
		build: func(t *kpi.Table) view {
			active := metrics.FilterPositive(t, "DealCount")
			if active.IsEmpty() || !active.HasColumn("DealCount") {
				return view{warning: "No active deals found by stock group"}
			}
			return view{chart: &ChartSpec{
				Kind:  ChartBar,
				X:     "StockGroupName",
				Y:     []string{"DealCount"},
				Hover: []string{"AvgDiscountPct", "AffectedItems"},
				Data:  active,
			}}
		},
	},
	{
		id:       "promo_buying_group",
		title:    "Promo by Buying Group",
		subtitle: "Deals by Buying Group",
		kpi:      kpi.PromoPerformanceByBuyingGroup,
		requires: "BuyingGroupName",
		noData:   "No deals by buying group. Verify SalesSpecialDeals mapping.",
		build: func(t *kpi.Table) view {
			active := metrics.FilterPositive(t, "DealCount")
			if active.IsEmpty() || !active.HasColumn("DealCount") {
				return view{warning: "No active deals found by buying group"}
			}
			return view{chart: &ChartSpec{
				Kind:  ChartBar,
				X:     "BuyingGroupName",
				Y:     []string{"DealCount"},
				Hover: []string{"AvgDiscountPct", "SalesDuringDeals"},
				Data:  active,
			}}
		},
	},
	{
		id:       "tax",
		title:    "Tax Analysis",
		subtitle: "Expected vs Recorded Tax by Rate",
		kpi:      kpi.TaxVariance,
		requires: "TaxRate",
		noData:   "No tax variance data available for the selected date range",
		build: func(t *kpi.Table) view {
			if !hasColumns(t, "ExpectedTaxAmount", "RecordedTaxAmount") {
				return view{warning: "Missing required columns for tax analysis chart"}
			}
			return view{
				chart: &ChartSpec{
					Kind: ChartGroupedBar,
					X:    "TaxRate",
					Y:    []string{"ExpectedTaxAmount", "RecordedTaxAmount"},
					Data: t,
				},
				table: formatColumns(t, map[string]func(float64) string{
					"ExpectedTaxAmount": metrics.FormatCurrency,
					"RecordedTaxAmount": metrics.FormatCurrency,
					"TaxVariance":       metrics.FormatCurrency,
				}),
			}
		},
	},
	{
		id:       "imbalance",
		title:    "Imbalance",
		subtitle: "Top 10 Products by Purchase-Sales Buildup",
		kpi:      kpi.ProductImbalance,
		requires: "StockItemName",
		noData:   "No product imbalance data available for the selected date range",
		build: func(t *kpi.Table) view {
			if !hasColumns(t, "NetBuildUp", "StockGroupNames") {
				return view{warning: "Missing required columns for product imbalance chart"}
			}
			return view{
				chart: &ChartSpec{
					Kind:  ChartBar,
					X:     "StockItemName",
					Y:     []string{"NetBuildUp"},
					Color: "StockGroupNames",
					Hover: []string{"SupplierName", "QtyPurchased", "QtySold", "PurchaseToSalesRatio"},
					Data:  t,
				},
				table: formatColumns(t, map[string]func(float64) string{
					"QtyPurchased":         count,
					"QtySold":              count,
					"NetBuildUp":           count,
					"PurchaseToSalesRatio": ratio2,
				}),
			}
		},
	},
}

// topClientsWidget shows the most discounted buying groups with discounts in
// percentage points.
func topClientsWidget(l loaded) Widget {
	w := Widget{
		ID:       "top_clients",
		Title:    "Top Most-Discounted Clients",
		Subtitle: "Buying groups ranked by total discount",
		KPI:      kpi.MostDiscountedClients.String(),
		Status:   StatusOK,
		Table:    kpi.EmptyTable(),
	}

	switch {
	case l.err != nil:
		w.Status = StatusError
		w.Message = fmt.Sprintf("Error executing query %s: %v", kpi.MostDiscountedClients, l.err)
	case l.table.IsEmpty():
		w.Status = StatusWarning
		w.Message = "No client discount data available - check SalesSpecialDeals table"
	default:
		w.Table = formatColumns(l.table, map[string]func(float64) string{
			"TotalDiscountPct": points2,
			"AvgDiscount":      points2,
		})
	}
	return w
}
