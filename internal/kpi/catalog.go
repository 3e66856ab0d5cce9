// Package kpi holds the catalog of supply-chain KPI queries and the executor
// that binds their parameters and runs them against the store.
package kpi

import (
	"fmt"
	"strings"

	"supplykpi/internal/timeframe"
)

// KPI identifies one entry of the catalog. The set is closed: every value
// below has exactly one Definition.
type KPI int

const (
	SalesVsPurchases KPI = iota + 1
	AvgMarginPerProduct
	DealCoverage
	StockMovementVolume
	MostDiscountedClients
	SupplierPerformance
	PromoPerformance
	TransactionDistribution
	GrossProfit
	COGSvsPurchases
	PromoDealsByStockGroup
	PromoPerformanceByBuyingGroup
	TaxVariance
	SalesByStockGroup
	CustomerSegmentSales
	ProductImbalance
	SalesPurchasesTrend
	SpecialDealsCheck
)

// Slot is the logical parameter bound to one positional placeholder.
type Slot int

const (
	SlotRangeStart Slot = iota + 1
	SlotRangeEnd
	SlotLimit
)

func (s Slot) String() string {
	switch s {
	case SlotRangeStart:
		return "start"
	case SlotRangeEnd:
		return "end"
	case SlotLimit:
		return "limit"
	default:
		return fmt.Sprintf("slot(%d)", int(s))
	}
}

// DefaultLimit is used for ranked KPIs when Params.Limit is not positive.
const DefaultLimit = 10

// Params are the logical inputs of a KPI. Range bounds are inclusive.
type Params struct {
	Range timeframe.DateRange
	Limit int
}

func (p Params) limit() int {
	if p.Limit <= 0 {
		return DefaultLimit
	}
	return p.Limit
}

// Definition is one catalog entry. Slots lists, in placeholder order, which
// logical parameter each "?" of Template receives; KPIs with independent
// subqueries repeat the range slots.
type Definition struct {
	ID       KPI
	Name     string
	Title    string
	Template string
	Slots    []Slot
}

// Args expands p into the positional arguments of the template.
func (d Definition) Args(p Params) []any {
	args := make([]any, len(d.Slots))
	for i, s := range d.Slots {
		switch s {
		case SlotRangeStart:
			args[i] = p.Range.StartBound()
		case SlotRangeEnd:
			args[i] = p.Range.EndBound()
		case SlotLimit:
			args[i] = p.limit()
		}
	}
	return args
}

// UsesRange reports whether the result depends on the date window.
func (d Definition) UsesRange() bool {
	for _, s := range d.Slots {
		if s == SlotRangeStart || s == SlotRangeEnd {
			return true
		}
	}
	return false
}

func (d Definition) validate() error {
	if d.Name == "" {
		return fmt.Errorf("kpi %d: empty name", int(d.ID))
	}
	if n := countPlaceholders(d.Template); n != len(d.Slots) {
		return fmt.Errorf("kpi %s: template has %d placeholders, %d slots mapped", d.Name, n, len(d.Slots))
	}
	for _, s := range d.Slots {
		if s < SlotRangeStart || s > SlotLimit {
			return fmt.Errorf("kpi %s: unknown slot %d", d.Name, int(s))
		}
	}
	return nil
}

// countPlaceholders counts "?" outside single-quoted string literals.
func countPlaceholders(sql string) int {
	n := 0
	inLiteral := false
	for _, r := range sql {
		switch {
		case r == '\'':
			inLiteral = !inLiteral
		case r == '?' && !inLiteral:
			n++
		}
	}
	return n
}

func (k KPI) String() string {
	if d, ok := catalog.byID[k]; ok {
		return d.Name
	}
	return fmt.Sprintf("kpi(%d)", int(k))
}

type registry struct {
	ordered []Definition
	byID    map[KPI]Definition
	byName  map[string]Definition
}

// newRegistry validates every definition. A mismatch between a template and
// its slot mapping is a programming error, so it panics.
func newRegistry(defs []Definition) *registry {
	r := &registry{
		byID:   make(map[KPI]Definition, len(defs)),
		byName: make(map[string]Definition, len(defs)),
	}
	for _, d := range defs {
		if err := d.validate(); err != nil {
			panic(err)
		}
		if _, dup := r.byID[d.ID]; dup {
			panic(fmt.Sprintf("kpi %s: duplicate id %d", d.Name, int(d.ID)))
		}
		if _, dup := r.byName[d.Name]; dup {
			panic(fmt.Sprintf("kpi %s: duplicate name", d.Name))
		}
		d.Template = strings.TrimSpace(d.Template)
		r.ordered = append(r.ordered, d)
		r.byID[d.ID] = d
		r.byName[d.Name] = d
	}
	return r
}

var catalog = newRegistry(definitions)

// Lookup resolves a KPI by its wire name.
func Lookup(name string) (Definition, bool) {
	d, ok := catalog.byName[name]
	return d, ok
}

// Get resolves a KPI by id.
func Get(id KPI) (Definition, bool) {
	d, ok := catalog.byID[id]
	return d, ok
}

// MustDefinition returns the definition of id and panics for ids outside the
// catalog.
func MustDefinition(id KPI) Definition {
	d, ok := catalog.byID[id]
	if !ok {
		panic(fmt.Sprintf("kpi: no definition for %d", int(id)))
	}
	return d
}

// All returns the catalog in declaration order.
func All() []Definition {
	out := make([]Definition, len(catalog.ordered))
	copy(out, catalog.ordered)
	return out
}

// Names returns the wire names of every KPI in declaration order.
func Names() []string {
	names := make([]string, len(catalog.ordered))
	for i, d := range catalog.ordered {
		names[i] = d.Name
	}
	return names
}

var rangeTwice = []Slot{SlotRangeStart, SlotRangeEnd, SlotRangeStart, SlotRangeEnd}

var definitions = []Definition{
	{
		ID:    SalesVsPurchases,
		Name:  "sales_vs_purchases",
		Title: "Sales vs Purchases",
		Slots: rangeTwice,
		Template: `
SELECT
    (SELECT SUM(ExtendedPrice)
     FROM SalesInvoiceLines
     WHERE LastEditedWhen BETWEEN ? AND ?) AS TotalSales,
    (SELECT SUM(ExpectedUnitPricePerOuter * OrderedOuters)
     FROM PurchaseOrderLines
     WHERE LastReceiptDate BETWEEN ? AND ?) AS TotalPurchases`,
	},
	{
		ID:    AvgMarginPerProduct,
		Name:  "avg_margin_per_product",
		Title: "Average Margin per Product",
		Slots: []Slot{SlotRangeStart, SlotRangeEnd},
		Template: `
SELECT
    si.StockItemID,
    si.StockItemName,
    sg.StockGroupID,
    sg.StockGroupName,
    AVG(il.LineProfit) AS AvgMargin,
    COUNT(DISTINCT il.InvoiceID) AS InvoiceCount,
    SUM(il.LineProfit) AS TotalProfit,
    SUM(il.ExtendedPrice) AS TotalRevenue,
    ROUND(
        SUM(il.LineProfit) * 1.0
        / NULLIF(SUM(il.ExtendedPrice), 0)
        * 100, 2
    ) AS MarginPct
FROM SalesInvoiceLines AS il
JOIN WarehouseStockItem AS si
    ON si.StockItemID = il.StockItemID
LEFT JOIN StockItemsStockGroups AS sisg
    ON sisg.StockItemID = si.StockItemID
LEFT JOIN WarehouseStockGroups AS sg
    ON sg.StockGroupID = sisg.StockGroupID
WHERE il.LastEditedWhen BETWEEN ? AND ?
GROUP BY
    si.StockItemID,
    si.StockItemName,
    sg.StockGroupID,
    sg.StockGroupName
ORDER BY AvgMargin DESC`,
	},
	{
		ID:    DealCoverage,
		Name:  "deal_coverage",
		Title: "Deal Coverage",
		Template: `
SELECT
    (SELECT COUNT(DISTINCT StockGroupID)
     FROM SalesSpecialDeals
     WHERE StockGroupID IS NOT NULL) AS GroupsWithDeals,
    (SELECT COUNT(*) FROM WarehouseStockGroups) AS TotalGroups,
    ROUND(
        CAST((SELECT COUNT(DISTINCT StockGroupID)
              FROM SalesSpecialDeals
              WHERE StockGroupID IS NOT NULL) AS REAL)
        / NULLIF((SELECT COUNT(*) FROM WarehouseStockGroups), 0) * 100.0,
        2
    ) AS DealCoveragePercent`,
	},
	{
		ID:    StockMovementVolume,
		Name:  "stock_movement_volume",
		Title: "Stock Movement Volume",
		Slots: []Slot{SlotRangeStart, SlotRangeEnd},
		Template: `
SELECT
    SUM(Quantity) AS TotalMovementVolume
FROM StockItemTransactions
WHERE TransactionOccurredWhen BETWEEN ? AND ?`,
	},
	{
		ID:    MostDiscountedClients,
		Name:  "most_discounted_clients",
		Title: "Most Discounted Clients",
		Slots: []Slot{SlotLimit},
		Template: `
SELECT
    bg.BuyingGroupName AS ClientGroup,
    ROUND(SUM(COALESCE(sd.DiscountPercentage, 0.0)), 2) AS TotalDiscountPct,
    COUNT(sd.SpecialDealID) AS DealCount,
    ROUND(AVG(COALESCE(sd.DiscountPercentage, 0.0)), 2) AS AvgDiscount,
    ROUND(MAX(COALESCE(sd.DiscountPercentage, 0.0)), 2) AS MaxDiscount
FROM SalesBuyingGroups AS bg
LEFT JOIN SalesSpecialDeals AS sd
    ON bg.BuyingGroupID = sd.BuyingGroupID
    AND sd.DiscountPercentage IS NOT NULL
GROUP BY bg.BuyingGroupName
HAVING COUNT(sd.SpecialDealID) > 0
ORDER BY SUM(COALESCE(sd.DiscountPercentage, 0.0)) DESC
LIMIT ?`,
	},
	{
		ID:    SupplierPerformance,
		Name:  "supplier_performance",
		Title: "Supplier Performance",
		Template: `
WITH Receipts AS (
    SELECT
        sit.SupplierID,
        sit.TransactionOccurredWhen AS ReceiptDate,
        sit.Quantity
    FROM StockItemTransactions sit
    JOIN ApplicationTransactionTypes tt
        ON tt.TransactionTypeID = sit.TransactionTypeID
    WHERE tt.TransactionTypeName = 'Stock Receipt'
        AND sit.SupplierID IS NOT NULL
),
Numbered AS (
    SELECT
        SupplierID,
        Quantity,
        ReceiptDate,
        LAG(ReceiptDate) OVER(
            PARTITION BY SupplierID ORDER BY ReceiptDate
        ) AS PrevReceipt
    FROM Receipts
)
SELECT
    s.SupplierID,
    sp.SupplierName,
    COUNT(*) AS ReceiptEvents,
    SUM(s.Quantity) AS TotalQtyReceived,
    AVG(julianday(s.ReceiptDate) - julianday(s.PrevReceipt)) AS AvgDaysBetweenReceipts
FROM Numbered s
JOIN PurchasingSuppliers sp
    ON sp.SupplierID = s.SupplierID
WHERE s.PrevReceipt IS NOT NULL
GROUP BY s.SupplierID, sp.SupplierName
ORDER BY TotalQtyReceived DESC`,
	},
	{
		ID:    PromoPerformance,
		Name:  "promo_performance",
		Title: "Promo Performance",
		Template: `
SELECT
    COUNT(DISTINCT sd.SpecialDealID) AS ActiveDeals,
    ROUND(AVG(COALESCE(sd.DiscountPercentage, 0.0)), 2) AS AvgDiscountPct,
    ROUND(MAX(COALESCE(sd.DiscountPercentage, 0.0)), 2) AS MaxDiscountPct,
    COUNT(DISTINCT sd.StockGroupID) AS GroupsWithDeals,
    COUNT(DISTINCT sd.BuyingGroupID) AS BuyingGroupsWithDeals
FROM SalesSpecialDeals sd
WHERE sd.DiscountPercentage IS NOT NULL`,
	},
	{
		ID:    TransactionDistribution,
		Name:  "transaction_distribution",
		Title: "Transaction Distribution",
		Slots: []Slot{SlotRangeStart, SlotRangeEnd},
		Template: `
SELECT
    tt.TransactionTypeName,
    COUNT(*) AS TxnCount,
    COUNT(*) * 100.0 / SUM(COUNT(*)) OVER() AS PctShare
FROM StockItemTransactions sit
JOIN ApplicationTransactionTypes tt
    ON sit.TransactionTypeID = tt.TransactionTypeID
WHERE sit.TransactionOccurredWhen BETWEEN ? AND ?
GROUP BY tt.TransactionTypeName
ORDER BY TxnCount DESC`,
	},
	{
		ID:    GrossProfit,
		Name:  "gross_profit",
		Title: "Gross Profit",
		Template: `
SELECT
    SUM(LineProfit) AS TotalProfit,
    SUM(ExtendedPrice) AS TotalRevenue,
    (SUM(LineProfit) * 1.0) / NULLIF(SUM(ExtendedPrice), 0) AS GrossMarginPct
FROM SalesInvoiceLines`,
	},
	{
		ID:    COGSvsPurchases,
		Name:  "cogs_vs_purchases",
		Title: "COGS vs Purchases",
		Template: `
SELECT
    SUM(ExtendedPrice - LineProfit) AS COGS,
    (SELECT SUM(ExpectedUnitPricePerOuter * OrderedOuters)
     FROM PurchaseOrderLines) AS TotalPurchases
FROM SalesInvoiceLines`,
	},
	{
		ID:    PromoDealsByStockGroup,
		Name:  "promo_deals_by_stock_group",
		Title: "Promo Deals by Stock Group",
		Template: `
SELECT
    grp.StockGroupID,
    grp.StockGroupName,
    COUNT(DISTINCT sd.SpecialDealID) AS DealCount,
    COUNT(DISTINCT COALESCE(sd.StockItemID, sisg2.StockItemID)) AS AffectedItems,
    ROUND(AVG(COALESCE(sd.DiscountPercentage, 0.0)), 2) AS AvgDiscountPct
FROM WarehouseStockGroups AS grp
LEFT JOIN SalesSpecialDeals AS sd
    ON grp.StockGroupID = sd.StockGroupID
    OR grp.StockGroupID IN (
        SELECT sisg.StockGroupID
        FROM StockItemsStockGroups sisg
        WHERE sisg.StockItemID = sd.StockItemID
    )
LEFT JOIN StockItemsStockGroups AS sisg2
    ON sisg2.StockGroupID = grp.StockGroupID
GROUP BY grp.StockGroupID, grp.StockGroupName
ORDER BY DealCount DESC`,
	},
	{
		ID:    PromoPerformanceByBuyingGroup,
		Name:  "promo_by_buying_group",
		Title: "Promo Performance by Buying Group",
		Template: `
SELECT
    bg.BuyingGroupID,
    bg.BuyingGroupName,
    COUNT(DISTINCT sd.SpecialDealID) AS DealCount,
    ROUND(AVG(COALESCE(sd.DiscountPercentage, 0.0)), 2) AS AvgDiscountPct,
    SUM(COALESCE(il.ExtendedPrice, 0)) AS SalesDuringDeals,
    SUM(COALESCE(il.LineProfit, 0)) AS ProfitDuringDeals
FROM SalesBuyingGroups AS bg
LEFT JOIN SalesSpecialDeals AS sd
    ON bg.BuyingGroupID = sd.BuyingGroupID
LEFT JOIN StockItemsStockGroups AS sisg
    ON sisg.StockItemID = sd.StockItemID
LEFT JOIN WarehouseStockGroups AS grp
    ON grp.StockGroupID = COALESCE(sisg.StockGroupID, sd.StockGroupID)
LEFT JOIN StockItemsStockGroups AS sisg2
    ON sisg2.StockGroupID = grp.StockGroupID
LEFT JOIN SalesInvoiceLines AS il
    ON il.StockItemID = sisg2.StockItemID
GROUP BY
    bg.BuyingGroupID,
    bg.BuyingGroupName
ORDER BY SalesDuringDeals DESC`,
	},
	{
		ID:    TaxVariance,
		Name:  "tax_variance",
		Title: "Tax Variance",
		Slots: []Slot{SlotRangeStart, SlotRangeEnd},
		Template: `
SELECT
    il.TaxRate,
    SUM(ROUND(
        il.ExtendedPrice
        * (il.TaxRate / (100.0 + il.TaxRate)),
        2
    )) AS ExpectedTaxAmount,
    SUM(il.TaxAmount) AS RecordedTaxAmount,
    SUM(il.TaxAmount) - SUM(ROUND(
        il.ExtendedPrice
        * (il.TaxRate / (100.0 + il.TaxRate)),
        2
    )) AS TaxVariance
FROM SalesInvoiceLines il
WHERE il.LastEditedWhen BETWEEN ? AND ?
GROUP BY il.TaxRate`,
	},
	{
		ID:    SalesByStockGroup,
		Name:  "sales_by_stock_group",
		Title: "Sales by Stock Group",
		Slots: []Slot{SlotRangeStart, SlotRangeEnd},
		Template: `
WITH SalesLines AS (
    SELECT
        il.StockItemID,
        il.Quantity,
        il.LineProfit,
        il.ExtendedPrice,
        si.CustomerID
    FROM SalesInvoiceLines AS il
    LEFT JOIN SalesInvoices AS si
        ON si.InvoiceID = il.InvoiceID
    WHERE il.LastEditedWhen BETWEEN ? AND ?
),
SalesWithGroups AS (
    SELECT
        COALESCE(sisg.StockGroupID, sg0.StockGroupID) AS StockGroupID,
        sl.Quantity,
        sl.LineProfit,
        sl.ExtendedPrice,
        sl.CustomerID
    FROM SalesLines AS sl
    LEFT JOIN StockItemsStockGroups AS sisg
        ON sisg.StockItemID = sl.StockItemID
    LEFT JOIN WarehouseStockGroups AS sg0
        ON sg0.StockGroupID = sisg.StockGroupID
)
SELECT
    sg.StockGroupID,
    sg.StockGroupName,
    SUM(swg.Quantity) AS TotalUnitsSold,
    SUM(swg.LineProfit) AS TotalProfit,
    SUM(swg.ExtendedPrice) AS TotalRevenue,
    ROUND(
        SUM(swg.LineProfit) * 1.0
        / NULLIF(SUM(swg.ExtendedPrice), 0)
        * 100, 2
    ) AS GrossMarginPct
FROM SalesWithGroups AS swg
JOIN WarehouseStockGroups AS sg
    ON sg.StockGroupID = swg.StockGroupID
GROUP BY
    sg.StockGroupID,
    sg.StockGroupName
ORDER BY TotalUnitsSold DESC`,
	},
	{
		ID:    CustomerSegmentSales,
		Name:  "customer_segment_sales",
		Title: "Customer Segment Sales",
		Template: `
SELECT
    cc.CustomerCategoryName,
    COUNT(DISTINCT sit.CustomerID) AS Customers,
    COUNT(*) AS ShipmentEvents,
    SUM(ABS(sit.Quantity)) AS TotalQtyShipped
FROM StockItemTransactions sit
JOIN SalesCustomers c
    ON c.CustomerID = sit.CustomerID
JOIN SalesCustomersCategories cc
    ON cc.CustomerCategoryID = c.CustomerCategoryID
WHERE sit.CustomerID IS NOT NULL
    AND sit.TransactionTypeID = 10
GROUP BY cc.CustomerCategoryName
ORDER BY TotalQtyShipped DESC`,
	},
	{
		ID:    ProductImbalance,
		Name:  "product_imbalance",
		Title: "Product Imbalance",
		Slots: []Slot{SlotRangeStart, SlotRangeEnd, SlotRangeStart, SlotRangeEnd, SlotLimit},
		Template: `
WITH
Sales AS (
    SELECT StockItemID, SUM(Quantity) AS QtySold
    FROM SalesInvoiceLines
    WHERE LastEditedWhen BETWEEN ? AND ?
    GROUP BY StockItemID
),
Purch AS (
    SELECT
        pol.StockItemID,
        po.SupplierID,
        SUM(pol.OrderedOuters) AS QtyPurchased
    FROM PurchaseOrderLines pol
    JOIN PurchaseOrders po
        ON po.PurchaseOrderID = pol.PurchaseOrderID
    WHERE pol.LastReceiptDate BETWEEN ? AND ?
    GROUP BY pol.StockItemID, po.SupplierID
),
Imb AS (
    SELECT
        pur.StockItemID,
        pur.SupplierID,
        COALESCE(pur.QtyPurchased, 0) AS QtyPurchased,
        COALESCE(sal.QtySold, 0) AS QtySold,
        COALESCE(pur.QtyPurchased, 0) - COALESCE(sal.QtySold, 0) AS NetBuildUp,
        CASE
            WHEN COALESCE(sal.QtySold, 0) = 0 THEN NULL
            ELSE CAST(pur.QtyPurchased AS REAL) / sal.QtySold
        END AS PurchaseToSalesRatio
    FROM Purch pur
    LEFT JOIN Sales sal
        ON sal.StockItemID = pur.StockItemID
)
SELECT
    i.StockItemID,
    si.StockItemName,
    GROUP_CONCAT(sg.StockGroupName, ', ') AS StockGroupNames,
    i.SupplierID,
    sup.SupplierName,
    i.QtyPurchased,
    i.QtySold,
    i.NetBuildUp,
    i.PurchaseToSalesRatio
FROM Imb i
JOIN WarehouseStockItem si
    ON si.StockItemID = i.StockItemID
JOIN PurchasingSuppliers sup
    ON sup.SupplierID = i.SupplierID
LEFT JOIN StockItemsStockGroups sisg
    ON sisg.StockItemID = i.StockItemID
LEFT JOIN WarehouseStockGroups sg
    ON sg.StockGroupID = sisg.StockGroupID
GROUP BY
    i.StockItemID,
    si.StockItemName,
    i.SupplierID,
    sup.SupplierName,
    i.QtyPurchased,
    i.QtySold,
    i.NetBuildUp,
    i.PurchaseToSalesRatio
ORDER BY NetBuildUp DESC
LIMIT ?`,
	},
	{
		ID:       SalesPurchasesTrend,
		Name:     "sales_purchases_trend",
		Title:    "Sales vs Purchases Trend",
		Slots:    rangeTwice,
		Template: trendTemplate,
	},
	{
		ID:    SpecialDealsCheck,
		Name:  "special_deals_check",
		Title: "Special Deals Check",
		Template: `
SELECT
    COUNT(*) AS TotalRecords,
    COUNT(StockGroupID) AS RecordsWithStockGroupID,
    COUNT(BuyingGroupID) AS RecordsWithBuyingGroupID,
    COUNT(DiscountPercentage) AS RecordsWithDiscount,
    ROUND(MIN(COALESCE(DiscountPercentage, 0.0)), 2) AS MinDiscountPct,
    ROUND(AVG(COALESCE(DiscountPercentage, 0.0)), 2) AS AvgDiscountPct,
    ROUND(MAX(COALESCE(DiscountPercentage, 0.0)), 2) AS MaxDiscountPct,
    COUNT(DISTINCT StockGroupID) AS UniqueStockGroups,
    COUNT(DISTINCT BuyingGroupID) AS UniqueBuyingGroups
FROM SalesSpecialDeals`,
	},
}
