package metrics

import (
	"supplykpi/internal/kpi"
)

// HeadlineSources are the KPI tables the headline panel reads. Any of them may
// be empty or nil.
type HeadlineSources struct {
	SalesVsPurchases        *kpi.Table
	GrossProfit             *kpi.Table
	COGSvsPurchases         *kpi.Table
	TransactionDistribution *kpi.Table
	StockMovementVolume     *kpi.Table
	DealCoverage            *kpi.Table
	PromoPerformance        *kpi.Table
}

// Headlines are the summary values of a dashboard render. Margin and discounts
// are fractions; DealCoverage stays in percentage points as the query returns it.
type Headlines struct {
	TotalSales        float64 `json:"total_sales"`
	TotalPurchases    float64 `json:"total_purchases"`
	TotalProfit       float64 `json:"total_profit"`
	GrossMargin       float64 `json:"gross_margin"`
	COGS              float64 `json:"cogs"`
	TotalTransactions int64   `json:"total_transactions"`
	StockMovement     int64   `json:"stock_movement"`
	DealCoverage      float64 `json:"deal_coverage"`
	ActiveDeals       int64   `json:"active_deals"`
	AvgDiscount       float64 `json:"avg_discount"`
	MaxDiscount       float64 `json:"max_discount"`
}

func BuildHeadlines(src HeadlineSources) Headlines {
	return Headlines{
		TotalSales:        Scalar(src.SalesVsPurchases, "TotalSales", 0.0),
		TotalPurchases:    Scalar(src.SalesVsPurchases, "TotalPurchases", 0.0),
		TotalProfit:       Scalar(src.GrossProfit, "TotalProfit", 0.0),
		GrossMargin:       Scalar(src.GrossProfit, "GrossMarginPct", 0.0),
		COGS:              Scalar(src.COGSvsPurchases, "COGS", 0.0),
		TotalTransactions: int64(Sum(src.TransactionDistribution, "TxnCount")),
		StockMovement:     Scalar(src.StockMovementVolume, "TotalMovementVolume", int64(0)),
		DealCoverage:      Scalar(src.DealCoverage, "DealCoveragePercent", 0.0),
		ActiveDeals:       Scalar(src.PromoPerformance, "ActiveDeals", int64(0)),
		AvgDiscount:       NormalizePercent(Scalar(src.PromoPerformance, "AvgDiscountPct", 0.0)),
		MaxDiscount:       NormalizePercent(Scalar(src.PromoPerformance, "MaxDiscountPct", 0.0)),
	}
}

// Display is the formatted headline panel.
type Display struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Format renders the headlines in panel order.
func (h Headlines) Format() []Display {
	return []Display{
		{"Total Sales", FormatCurrency(h.TotalSales)},
		{"Total Profit", FormatCurrency(h.TotalProfit)},
		{"Gross Margin", FormatPercent(h.GrossMargin, 1)},
		{"Total Purchases", FormatCurrency(h.TotalPurchases)},
		{"COGS", FormatCurrency(h.COGS)},
		{"Total Transactions", FormatCount(h.TotalTransactions)},
		{"Stock Movement Vol.", FormatCount(h.StockMovement)},
		{"Deal Coverage", FormatPoints(h.DealCoverage, 1)},
		{"Active Deals", FormatCount(h.ActiveDeals)},
		{"Avg Discount %", FormatPercent(h.AvgDiscount, 1)},
		{"Max Discount %", FormatPercent(h.MaxDiscount, 1)},
	}
}
