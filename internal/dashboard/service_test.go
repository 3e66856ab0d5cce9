package dashboard_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplykpi/internal/dashboard"
	"supplykpi/internal/kpi"
	"supplykpi/internal/testsupport"
	"supplykpi/internal/timeframe"
)

type fakeRunner struct {
	mu     sync.Mutex
	tables map[kpi.KPI]*kpi.Table
	errs   map[kpi.KPI]error
	params map[kpi.KPI]kpi.Params
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		tables: map[kpi.KPI]*kpi.Table{},
		errs:   map[kpi.KPI]error{},
		params: map[kpi.KPI]kpi.Params{},
	}
}

func (f *fakeRunner) Execute(_ context.Context, id kpi.KPI, p kpi.Params) (*kpi.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params[id] = p
	if err := f.errs[id]; err != nil {
		return kpi.EmptyTable(), err
	}
	if t, ok := f.tables[id]; ok {
		return t, nil
	}
	return kpi.EmptyTable(), nil
}

func tbl(columns []string, rows ...kpi.Row) *kpi.Table {
	return kpi.NewTable(columns, rows)
}

func params() kpi.Params {
	return kpi.Params{Range: timeframe.NewDateRange(
		time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2016, 12, 31, 0, 0, 0, 0, time.UTC),
	)}
}

func newService(r dashboard.Runner) *dashboard.Service {
	return dashboard.NewService(r, dashboard.WithWorkers(3), dashboard.WithLogger(testsupport.GetLogger()))
}

func populatedRunner() *fakeRunner {
	r := newFakeRunner()

	r.tables[kpi.SalesVsPurchases] = tbl([]string{"TotalSales", "TotalPurchases"},
		kpi.Row{"TotalSales": 1000.0, "TotalPurchases": 700.0})
	r.tables[kpi.GrossProfit] = tbl([]string{"TotalProfit", "TotalRevenue", "GrossMarginPct"},
		kpi.Row{"TotalProfit": 300.0, "TotalRevenue": 1000.0, "GrossMarginPct": 0.3})
	r.tables[kpi.PromoPerformance] = tbl([]string{"ActiveDeals", "AvgDiscountPct", "MaxDiscountPct"},
		kpi.Row{"ActiveDeals": int64(15), "AvgDiscountPct": 25.0, "MaxDiscountPct": 40.0})
	r.tables[kpi.DealCoverage] = tbl([]string{"DealCoveragePercent"}, kpi.Row{"DealCoveragePercent": 30.0})

	var margin []kpi.Row
	for i := range 12 {
		margin = append(margin, kpi.Row{
			"StockItemName":  fmt.Sprintf("item-%02d", i),
			"StockGroupName": "Novelty Items",
			"AvgMargin":      fmt.Sprintf("%d.5", i),
		})
	}
	r.tables[kpi.AvgMarginPerProduct] = tbl([]string{"StockItemName", "StockGroupName", "AvgMargin"}, margin...)

	r.tables[kpi.MostDiscountedClients] = tbl([]string{"ClientGroup", "TotalDiscountPct", "DealCount", "AvgDiscount", "MaxDiscount"},
		kpi.Row{"ClientGroup": "Premium", "TotalDiscountPct": 37.5, "DealCount": int64(3), "AvgDiscount": 12.5, "MaxDiscount": 20.0})

	r.tables[kpi.PromoDealsByStockGroup] = tbl([]string{"StockGroupName", "DealCount", "AffectedItems", "AvgDiscountPct"},
		kpi.Row{"StockGroupName": "Clothing", "DealCount": int64(2), "AffectedItems": int64(4), "AvgDiscountPct": 10.0},
		kpi.Row{"StockGroupName": "Toys", "DealCount": int64(0), "AffectedItems": int64(3), "AvgDiscountPct": 0.0},
	)

	r.tables[kpi.TransactionDistribution] = tbl([]string{"TransactionTypeName", "TxnCount", "PctShare"},
		kpi.Row{"TransactionTypeName": "Stock Issue", "TxnCount": int64(6), "PctShare": 60.0},
		kpi.Row{"TransactionTypeName": "Stock Receipt", "TxnCount": int64(4), "PctShare": 40.0},
	)

	r.tables[kpi.SalesPurchasesTrend] = tbl([]string{"Period", "Sales", "Purchases"},
		kpi.Row{"Period": "2014-01-01", "Sales": 1000.0, "Purchases": 0.0},
		kpi.Row{"Period": "2014-02-01", "Sales": 0.0, "Purchases": 700.0},
	)

	r.tables[kpi.TaxVariance] = tbl([]string{"TaxRate", "ExpectedTaxAmount", "RecordedTaxAmount", "TaxVariance"},
		kpi.Row{"TaxRate": 15.0, "ExpectedTaxAmount": 1500.0, "RecordedTaxAmount": 1490.5, "TaxVariance": -9.5})

	return r
}

func TestRenderBuildsEveryWidget(t *testing.T) {
	r := populatedRunner()
	d := newService(r).Render(context.Background(), params())

	assert.Equal(t, dashboard.StatusOK, d.Status)
	assert.Empty(t, d.Errors)
	assert.Equal(t, "2013-01-01", d.From)
	assert.Equal(t, "2016-12-31", d.To)
	assert.Equal(t, kpi.DefaultLimit, d.Limit)
	assert.Equal(t, kpi.DefaultLimit, r.params[kpi.MostDiscountedClients].Limit)
	require.Len(t, d.Tabs, 10)

	assert.Equal(t, 1000.0, d.Headlines.TotalSales)
	assert.Equal(t, 0.3, d.Headlines.GrossMargin)
	assert.Equal(t, int64(10), d.Headlines.TotalTransactions)
	assert.Equal(t, 0.25, d.Headlines.AvgDiscount)
	assert.Equal(t, 0.4, d.Headlines.MaxDiscount)
	assert.Equal(t, 30.0, d.Headlines.DealCoverage)

	require.Len(t, d.Trend, 2)
	assert.Equal(t, 700.0, d.Trend[1].Purchases)
	assert.Equal(t, 0.0, d.Trend[1].Sales)

	t.Run("top clients show discounts as points", func(t *testing.T) {
		assert.Equal(t, dashboard.StatusOK, d.TopClient.Status)
		row := d.TopClient.Table.Row(0)
		assert.Equal(t, "37.50%", row["TotalDiscountPct"])
		assert.Equal(t, "12.50%", row["AvgDiscount"])
		assert.Equal(t, 20.0, row["MaxDiscount"])
	})

	t.Run("margin tab keeps the top ten by numeric margin", func(t *testing.T) {
		w, ok := d.Tab("margin")
		require.True(t, ok)
		assert.Equal(t, dashboard.StatusOK, w.Status)
		require.NotNil(t, w.Chart)
		assert.Equal(t, "StockGroupName", w.Chart.Color)
		assert.Equal(t, 10, w.Chart.Data.Len())
		// "11.5" outranks "9.5" once coerced.
		assert.Equal(t, "item-11", w.Chart.Data.Row(0)["StockItemName"])
		assert.Equal(t, 11.5, w.Chart.Data.Row(0)["AvgMargin"])
	})

	t.Run("promo chart drops zero deal groups but the table keeps them", func(t *testing.T) {
		w, ok := d.Tab("promo_stock_group")
		require.True(t, ok)
		assert.Equal(t, dashboard.StatusOK, w.Status)
		assert.Equal(t, 1, w.Chart.Data.Len())
		assert.Equal(t, 2, w.Table.Len())
		assert.Equal(t, []string{"AvgDiscountPct", "AffectedItems"}, w.Chart.Hover)
	})

	t.Run("transaction mix is a pie", func(t *testing.T) {
		w, _ := d.Tab("transaction_mix")
		assert.Equal(t, dashboard.ChartPie, w.Chart.Kind)
	})

	t.Run("tax table is formatted as currency", func(t *testing.T) {
		w, _ := d.Tab("tax")
		assert.Equal(t, dashboard.ChartGroupedBar, w.Chart.Kind)
		assert.Equal(t, "$1,490.50", w.Table.Row(0)["RecordedTaxAmount"])
		assert.Equal(t, "$-9.50", w.Table.Row(0)["TaxVariance"])
		assert.Equal(t, 1490.5, w.Chart.Data.Row(0)["RecordedTaxAmount"])
	})

	t.Run("empty KPIs degrade to warnings", func(t *testing.T) {
		w, _ := d.Tab("suppliers")
		assert.Equal(t, dashboard.StatusWarning, w.Status)
		assert.Equal(t, "No supplier performance data available", w.Message)
		assert.Nil(t, w.Chart)

		w, _ = d.Tab("imbalance")
		assert.Equal(t, dashboard.StatusWarning, w.Status)
	})
}

func TestRenderHidesPieWithoutTransactions(t *testing.T) {
	r := newFakeRunner()
	r.tables[kpi.TransactionDistribution] = tbl([]string{"TransactionTypeName", "TxnCount"},
		kpi.Row{"TransactionTypeName": "Stock Issue", "TxnCount": int64(0)})

	d := newService(r).Render(context.Background(), params())

	w, ok := d.Tab("transaction_mix")
	require.True(t, ok)
	assert.Equal(t, dashboard.StatusWarning, w.Status)
	assert.Equal(t, "No transaction count data available", w.Message)
	assert.Nil(t, w.Chart)
	assert.Equal(t, 1, w.Table.Len())
}

func TestRenderContainsFaultsPerWidget(t *testing.T) {
	r := populatedRunner()
	r.errs[kpi.AvgMarginPerProduct] = &kpi.QueryError{KPI: "avg_margin_per_product", Err: errors.New("no such table: WarehouseStockItem")}

	d := newService(r).Render(context.Background(), params())

	assert.Equal(t, dashboard.StatusWarning, d.Status)
	require.Len(t, d.Errors, 1)
	assert.Equal(t, "avg_margin_per_product", d.Errors[0].KPI)
	assert.Nil(t, d.Debug)

	w, _ := d.Tab("margin")
	assert.Equal(t, dashboard.StatusError, w.Status)
	assert.Contains(t, w.Message, "no such table")
	assert.True(t, w.Table.IsEmpty())

	// The rest of the render is unaffected.
	w, _ = d.Tab("promo_stock_group")
	assert.Equal(t, dashboard.StatusOK, w.Status)
	assert.Equal(t, 1000.0, d.Headlines.TotalSales)
}

func TestRenderAllFailuresCarryDebugHint(t *testing.T) {
	r := newFakeRunner()
	for _, def := range kpi.All() {
		r.errs[def.ID] = errors.New("unable to open database file")
	}

	d := newService(r).Render(context.Background(), params())

	assert.Equal(t, dashboard.StatusError, d.Status)
	require.NotNil(t, d.Debug)
	assert.Contains(t, d.Debug.ExpectedTables, "SalesSpecialDeals")
	assert.Len(t, d.Errors, 17)
	assert.Equal(t, dashboard.StatusError, d.TopClient.Status)
	for _, w := range d.Tabs {
		assert.Equal(t, dashboard.StatusError, w.Status, w.ID)
	}
}

func TestRenderSurvivesPanickingRunner(t *testing.T) {
	d := newService(panicRunner{}).Render(context.Background(), params())

	require.NotNil(t, d)
	assert.Equal(t, dashboard.StatusError, d.Status)
	assert.Len(t, d.Tabs, 10)
}

type panicRunner struct{}

func (panicRunner) Execute(context.Context, kpi.KPI, kpi.Params) (*kpi.Table, error) {
	panic("nil pointer dereference")
}

func TestCheckSpecialDeals(t *testing.T) {
	checkColumns := []string{"TotalRecords", "RecordsWithStockGroupID", "RecordsWithBuyingGroupID",
		"RecordsWithDiscount", "MinDiscountPct", "AvgDiscountPct", "MaxDiscountPct", "UniqueStockGroups", "UniqueBuyingGroups"}

	t.Run("populated", func(t *testing.T) {
		r := newFakeRunner()
		r.tables[kpi.SpecialDealsCheck] = tbl(checkColumns, kpi.Row{
			"TotalRecords": int64(15), "RecordsWithStockGroupID": int64(10), "RecordsWithBuyingGroupID": int64(8),
			"RecordsWithDiscount": int64(12), "MinDiscountPct": 2.5, "AvgDiscountPct": 11.5, "MaxDiscountPct": 25.0,
			"UniqueStockGroups": int64(5), "UniqueBuyingGroups": int64(4),
		})

		check := newService(r).CheckSpecialDeals(context.Background())
		assert.Equal(t, dashboard.StatusOK, check.Status)
		assert.Equal(t, []string{"15 deals found", "12 with discounts"}, check.Messages)
		assert.Equal(t, int64(10), check.RecordsWithStockGroupID)
		assert.Equal(t, 2.5, check.MinDiscountPct)
		assert.Equal(t, 11.5, check.AvgDiscountPct)
		assert.Equal(t, 25.0, check.MaxDiscountPct)
	})

	t.Run("empty table of deals", func(t *testing.T) {
		r := newFakeRunner()
		r.tables[kpi.SpecialDealsCheck] = tbl(checkColumns, kpi.Row{"TotalRecords": int64(0), "AvgDiscountPct": nil})

		check := newService(r).CheckSpecialDeals(context.Background())
		assert.Equal(t, dashboard.StatusError, check.Status)
		assert.Equal(t, []string{"SalesSpecialDeals is empty!"}, check.Messages)
	})

	t.Run("unreachable", func(t *testing.T) {
		r := newFakeRunner()
		r.errs[kpi.SpecialDealsCheck] = errors.New("no such table: SalesSpecialDeals")

		check := newService(r).CheckSpecialDeals(context.Background())
		assert.Equal(t, dashboard.StatusError, check.Status)
		assert.Equal(t, []string{"Cannot access SalesSpecialDeals"}, check.Messages)
	})

	t.Run("validator overrides runner", func(t *testing.T) {
		cached := newFakeRunner()
		fresh := newFakeRunner()
		fresh.tables[kpi.SpecialDealsCheck] = tbl(checkColumns, kpi.Row{"TotalRecords": int64(2), "RecordsWithDiscount": int64(1)})

		svc := dashboard.NewService(cached, dashboard.WithValidator(fresh), dashboard.WithLogger(testsupport.GetLogger()))
		check := svc.CheckSpecialDeals(context.Background())
		assert.Equal(t, []string{"2 deals found", "1 with discounts"}, check.Messages)
		assert.Empty(t, cached.params)
	})
}
