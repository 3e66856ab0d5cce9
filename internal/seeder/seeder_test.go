package seeder_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplykpi/internal/dashboard"
	"supplykpi/internal/kpi"
	"supplykpi/internal/schema"
	"supplykpi/internal/seeder"
	"supplykpi/internal/testsupport"
	"supplykpi/internal/timeframe"
)

func oneYearSeeder(t *testing.T) (*seeder.Seeder, *testsupport.TestDBManager) {
	t.Helper()
	dbManager, logger := testsupport.SetupTestDBManager(t)
	s := seeder.NewSeeder(dbManager, logger)
	s.Years = []int{2014}
	return s, dbManager
}

func TestGenerateIsDeterministic(t *testing.T) {
	s := seeder.NewSeeder(nil, testsupport.GetLogger())
	s.Years = []int{2014}

	first := s.Generate()
	second := s.Generate()
	assert.Equal(t, first.Counts(), second.Counts())
	assert.Equal(t, first.InvoiceLines, second.InvoiceLines)

	s.Seed++
	third := s.Generate()
	assert.NotEqual(t, first.InvoiceLines, third.InvoiceLines)
}

func TestGenerateShape(t *testing.T) {
	s := seeder.NewSeeder(nil, testsupport.GetLogger())
	s.Years = []int{2014}
	d := s.Generate()

	assert.Len(t, d.Countries, 5)
	assert.Len(t, d.Cities, 10)
	assert.Len(t, d.TransactionTypes, 13)
	assert.Len(t, d.StockItems, 13)
	assert.Len(t, d.Customers, 8)
	assert.Len(t, d.SpecialDeals, 15)

	// One order per supplier per month.
	assert.Len(t, d.PurchaseOrders, 60)
	assert.GreaterOrEqual(t, len(d.PurchaseOrderLines), 120)
	assert.LessOrEqual(t, len(d.PurchaseOrderLines), 240)
	assert.GreaterOrEqual(t, len(d.Invoices), 96)
	assert.LessOrEqual(t, len(d.Invoices), 192)

	assert.Len(t, d.StockItemTransactions, len(d.PurchaseOrderLines)+len(d.InvoiceLines))
	assert.Len(t, d.StockMovements, len(d.StockItemTransactions))
	assert.Len(t, d.Transactions, len(d.Invoices)+len(d.PurchaseOrders)+len(d.StockItemTransactions))

	for _, line := range d.InvoiceLines {
		assert.InDelta(t, float64(line.Quantity)*line.UnitPrice, line.ExtendedPrice, 1e-9)
		assert.InDelta(t, line.ExtendedPrice*0.08, line.TaxAmount, 0.01)
		_, err := time.Parse("2006-01-02 15:04:05", line.LastEditedWhen)
		require.NoError(t, err)
		require.Equal(t, "2014", line.LastEditedWhen[:4])
	}

	for _, m := range d.StockMovements {
		assert.Positive(t, m.Quantity)
	}
}

func TestRunPopulatesEveryTable(t *testing.T) {
	s, dbManager := oneYearSeeder(t)
	db := dbManager.GetConnection()

	require.NoError(t, s.Run(context.Background()))

	expected := s.Generate().Counts()
	for _, table := range schema.TableNames() {
		var n int64
		require.NoError(t, db.Table(table).Count(&n).Error)
		assert.Equal(t, int64(expected[table]), n, table)
	}

	t.Run("running again replaces the data", func(t *testing.T) {
		require.NoError(t, s.Run(context.Background()))
		var n int64
		require.NoError(t, db.Table("SalesSpecialDeals").Count(&n).Error)
		assert.Equal(t, int64(15), n)
	})
}

func TestRunHonoursCancellation(t *testing.T) {
	s, _ := oneYearSeeder(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Run(ctx), context.Canceled)
}

func TestSeededDashboard(t *testing.T) {
	s, dbManager := oneYearSeeder(t)
	require.NoError(t, s.Run(context.Background()))

	executor := kpi.NewExecutor(kpi.NewGormQuerier(dbManager.GetConnection()), kpi.WithLogger(testsupport.GetLogger()))
	svc := dashboard.NewService(executor, dashboard.WithLogger(testsupport.GetLogger()))

	year := kpi.Params{Range: timeframe.NewDateRange(
		time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2014, 12, 31, 0, 0, 0, 0, time.UTC),
	)}

	d := svc.Render(context.Background(), year)
	require.Empty(t, d.Errors)
	assert.Equal(t, dashboard.StatusOK, d.Status)
	assert.Positive(t, d.Headlines.TotalSales)
	assert.Positive(t, d.Headlines.TotalPurchases)
	assert.Positive(t, d.Headlines.TotalTransactions)
	assert.Equal(t, int64(15), d.Headlines.ActiveDeals)
	assert.Len(t, d.Trend, 12)

	for _, id := range []string{"trend", "margin", "suppliers", "sales_by_group", "customer_segments", "transaction_mix", "tax"} {
		w, ok := d.Tab(id)
		require.True(t, ok, id)
		assert.Equal(t, dashboard.StatusOK, w.Status, "%s: %s", id, w.Message)
	}

	check := svc.CheckSpecialDeals(context.Background())
	assert.Equal(t, dashboard.StatusOK, check.Status)
	assert.Equal(t, int64(15), check.TotalRecords)
	assert.Equal(t, int64(15), check.RecordsWithDiscount)
	assert.Equal(t, int64(5), check.UniqueStockGroups)
	assert.Equal(t, 5.0, check.MinDiscountPct)
	assert.Equal(t, 25.0, check.MaxDiscountPct)

	t.Run("window outside the data", func(t *testing.T) {
		empty := kpi.Params{Range: timeframe.NewDateRange(
			time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2010, 12, 31, 0, 0, 0, 0, time.UTC),
		)}
		d := svc.Render(context.Background(), empty)
		assert.Empty(t, d.Errors)
		assert.Zero(t, d.Headlines.TotalSales)
		assert.Empty(t, d.Trend)
	})
}
