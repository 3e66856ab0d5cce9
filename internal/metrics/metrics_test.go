package metrics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplykpi/internal/kpi"
	"supplykpi/internal/metrics"
)

func table(columns []string, rows ...kpi.Row) *kpi.Table {
	return kpi.NewTable(columns, rows)
}

func TestScalarDefaults(t *testing.T) {
	tests := []struct {
		name  string
		table *kpi.Table
	}{
		{"empty result", table([]string{"TotalSales"})},
		{"nil result", nil},
		{"missing column", table([]string{"TotalPurchases"}, kpi.Row{"TotalPurchases": 10.0})},
		{"null value", table([]string{"TotalSales"}, kpi.Row{"TotalSales": nil})},
		{"not coercible", table([]string{"TotalSales"}, kpi.Row{"TotalSales": "n/a"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, -1.0, metrics.Scalar(tt.table, "TotalSales", -1.0))
			_, ok := metrics.Value[float64](tt.table, "TotalSales")
			assert.False(t, ok)
		})
	}
}

func TestScalarCoercion(t *testing.T) {
	tbl := table([]string{"Float", "Int", "Text", "Name"},
		kpi.Row{"Float": 12.5, "Int": int64(7), "Text": " 3.25 ", "Name": "Premium"},
		kpi.Row{"Float": 99.0, "Int": int64(99), "Text": "99", "Name": "ignored"},
	)

	assert.Equal(t, 12.5, metrics.Scalar(tbl, "Float", 0.0))
	assert.Equal(t, 7.0, metrics.Scalar(tbl, "Int", 0.0))
	assert.Equal(t, int64(7), metrics.Scalar(tbl, "Int", int64(0)))
	assert.Equal(t, int64(12), metrics.Scalar(tbl, "Float", int64(0)))
	assert.Equal(t, 3.25, metrics.Scalar(tbl, "Text", 0.0))
	assert.Equal(t, "Premium", metrics.Scalar(tbl, "Name", ""))
	assert.Equal(t, 0, metrics.Scalar(tbl, "Name", 0))
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{nil, 0, false},
		{12.5, 12.5, true},
		{int64(4), 4, true},
		{"42", 42, true},
		{" 1.5 ", 1.5, true},
		{"", 0, false},
		{"abc", 0, false},
		{true, 0, false},
	}

	for _, tt := range tests {
		got, ok := metrics.ToFloat(tt.in)
		assert.Equal(t, tt.ok, ok, "%#v", tt.in)
		assert.Equal(t, tt.want, got, "%#v", tt.in)
	}
}

func TestTopNCoercesTextBeforeRanking(t *testing.T) {
	// Lexical order would put "9.5" above "100.0".
	tbl := table([]string{"StockItemName", "AvgMargin"},
		kpi.Row{"StockItemName": "a", "AvgMargin": "9.5"},
		kpi.Row{"StockItemName": "b", "AvgMargin": "100.0"},
		kpi.Row{"StockItemName": "c", "AvgMargin": nil},
		kpi.Row{"StockItemName": "d", "AvgMargin": int64(50)},
		kpi.Row{"StockItemName": "e", "AvgMargin": "oops"},
		kpi.Row{"StockItemName": "f", "AvgMargin": 50.0},
	)

	top := metrics.TopN(tbl, "AvgMargin", 3)
	require.Equal(t, 3, top.Len())

	names := []any{}
	for _, r := range top.Rows() {
		names = append(names, r["StockItemName"])
	}
	assert.Equal(t, []any{"b", "d", "f"}, names)
	assert.Equal(t, []any{100.0, 50.0, 50.0}, top.Column("AvgMargin"))

	assert.Equal(t, 4, metrics.TopN(tbl, "AvgMargin", 10).Len())
	assert.True(t, metrics.TopN(tbl, "Missing", 10).IsEmpty())
	assert.True(t, metrics.TopN(nil, "AvgMargin", 10).IsEmpty())
}

func TestSumAndFilterPositive(t *testing.T) {
	tbl := table([]string{"TransactionTypeName", "TxnCount"},
		kpi.Row{"TransactionTypeName": "Stock Issue", "TxnCount": int64(30)},
		kpi.Row{"TransactionTypeName": "Stock Receipt", "TxnCount": "12"},
		kpi.Row{"TransactionTypeName": "Stock Transfer", "TxnCount": int64(0)},
		kpi.Row{"TransactionTypeName": "Unknown", "TxnCount": nil},
	)

	assert.Equal(t, 42.0, metrics.Sum(tbl, "TxnCount"))
	assert.Equal(t, 0.0, metrics.Sum(tbl, "Missing"))
	assert.Equal(t, 0.0, metrics.Sum(nil, "TxnCount"))

	assert.Equal(t, 2, metrics.FilterPositive(tbl, "TxnCount").Len())
	assert.Equal(t, 4, metrics.FilterPositive(tbl, "DealCount").Len())
}

func TestPercentNormalization(t *testing.T) {
	const stored = 25.0

	fraction := metrics.NormalizePercent(stored)
	assert.Equal(t, 0.25, fraction)
	assert.Equal(t, "25.0%", metrics.FormatPercent(fraction, 1))
	assert.Equal(t, "25.00%", metrics.FormatPoints(stored, 2))
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "$1,234.56", metrics.FormatCurrency(1234.56))
	assert.Equal(t, "$0.00", metrics.FormatCurrency(0))
	assert.Equal(t, "1,234,567", metrics.FormatCount(1234567))
	assert.Equal(t, "30.0%", metrics.FormatPoints(30, 1))
	assert.Equal(t, "12.3%", metrics.FormatPercent(0.1234, 1))
	assert.Equal(t, "1,234.50", metrics.FormatNumber(1234.5, 2))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 2.68, metrics.Round(2.675, 2))
	assert.Equal(t, 30.0, metrics.Round(30.000000000000004, 2))
	assert.Equal(t, -1.5, metrics.Round(-1.45, 1))
}

func TestBuildHeadlines(t *testing.T) {
	h := metrics.BuildHeadlines(metrics.HeadlineSources{
		SalesVsPurchases: table([]string{"TotalSales", "TotalPurchases"},
			kpi.Row{"TotalSales": 1500.0, "TotalPurchases": nil}),
		GrossProfit: table([]string{"TotalProfit", "TotalRevenue", "GrossMarginPct"},
			kpi.Row{"TotalProfit": 375.0, "TotalRevenue": 1500.0, "GrossMarginPct": 0.25}),
		TransactionDistribution: table([]string{"TransactionTypeName", "TxnCount"},
			kpi.Row{"TransactionTypeName": "Stock Issue", "TxnCount": int64(3)},
			kpi.Row{"TransactionTypeName": "Stock Receipt", "TxnCount": int64(4)}),
		StockMovementVolume: table([]string{"TotalMovementVolume"}, kpi.Row{"TotalMovementVolume": int64(-1200)}),
		DealCoverage:        table([]string{"DealCoveragePercent"}, kpi.Row{"DealCoveragePercent": 30.0}),
		PromoPerformance: table([]string{"ActiveDeals", "AvgDiscountPct", "MaxDiscountPct"},
			kpi.Row{"ActiveDeals": int64(15), "AvgDiscountPct": 12.5, "MaxDiscountPct": 25.0}),
	})

	assert.Equal(t, metrics.Headlines{
		TotalSales:        1500,
		TotalPurchases:    0,
		TotalProfit:       375,
		GrossMargin:       0.25,
		COGS:              0,
		TotalTransactions: 7,
		StockMovement:     -1200,
		DealCoverage:      30,
		ActiveDeals:       15,
		AvgDiscount:       0.125,
		MaxDiscount:       0.25,
	}, h)

	display := h.Format()
	byLabel := map[string]string{}
	for _, d := range display {
		byLabel[d.Label] = d.Value
	}
	assert.Equal(t, "$1,500.00", byLabel["Total Sales"])
	assert.Equal(t, "25.0%", byLabel["Gross Margin"])
	assert.Equal(t, "30.0%", byLabel["Deal Coverage"])
	assert.Equal(t, "25.0%", byLabel["Max Discount %"])
	assert.Equal(t, "12.5%", byLabel["Avg Discount %"])
	assert.Equal(t, "-1,200", byLabel["Stock Movement Vol."])
}

func TestBuildHeadlinesFromNothing(t *testing.T) {
	assert.Equal(t, metrics.Headlines{}, metrics.BuildHeadlines(metrics.HeadlineSources{}))
}
