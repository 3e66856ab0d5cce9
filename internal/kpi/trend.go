package kpi

import (
	"time"

	"github.com/spf13/cast"

	"supplykpi/internal/timeframe"
)

// trendTemplate buckets sales and purchases by calendar month and joins the
// two series. SQLite has no FULL OUTER JOIN, so the join is a LEFT JOIN from
// sales plus the purchase-only months picked by an anti-join; every month
// with activity on either side appears once, the missing side as 0.
const trendTemplate = `
WITH Sales AS (
    SELECT
        strftime('%Y-%m-01', LastEditedWhen) AS Period,
        SUM(ExtendedPrice) AS Sales
    FROM SalesInvoiceLines
    WHERE LastEditedWhen BETWEEN ? AND ?
    GROUP BY strftime('%Y-%m', LastEditedWhen)
), Purchases AS (
    SELECT
        strftime('%Y-%m-01', LastReceiptDate) AS Period,
        SUM(ExpectedUnitPricePerOuter * OrderedOuters) AS Purchases
    FROM PurchaseOrderLines
    WHERE LastReceiptDate BETWEEN ? AND ?
    GROUP BY strftime('%Y-%m', LastReceiptDate)
)
SELECT
    COALESCE(s.Period, p.Period) AS Period,
    COALESCE(s.Sales, 0) AS Sales,
    COALESCE(p.Purchases, 0) AS Purchases
FROM Sales s
LEFT JOIN Purchases p ON s.Period = p.Period
UNION ALL
SELECT
    p.Period,
    0 AS Sales,
    p.Purchases
FROM Purchases p
WHERE p.Period NOT IN (SELECT Period FROM Sales)
ORDER BY Period`

// TrendPoint is one month of the sales vs purchases series.
type TrendPoint struct {
	Period    time.Time `json:"period"`
	Sales     float64   `json:"sales"`
	Purchases float64   `json:"purchases"`
}

// ParseTrend converts the trend KPI result into points. Rows whose period
// cannot be parsed are skipped; non-numeric amounts count as 0.
func ParseTrend(t *Table) []TrendPoint {
	points := make([]TrendPoint, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		raw, _ := t.Value(i, "Period")
		period, err := time.Parse(timeframe.DateLayout, cast.ToString(raw))
		if err != nil {
			continue
		}
		sales, _ := t.Value(i, "Sales")
		purchases, _ := t.Value(i, "Purchases")
		points = append(points, TrendPoint{
			Period:    period,
			Sales:     cast.ToFloat64(sales),
			Purchases: cast.ToFloat64(purchases),
		})
	}
	return points
}
