package seeder

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"supplykpi/internal/metrics"
	"supplykpi/internal/schema"
)

const (
	dateLayout  = "2006-01-02"
	stampLayout = "2006-01-02 15:04:05"
	batchSize   = 500
)

// DefaultSeed makes repeated runs produce the same database.
const DefaultSeed uint64 = 20130101

// DefaultYears matches the default dashboard window.
var DefaultYears = []int{2013, 2014, 2015, 2016}

// Seeder fills the schema with dimension data and generated facts.
type Seeder struct {
	DBManager cartridge.DBManager
	Logger    *slog.Logger
	Seed      uint64
	Years     []int
}

// NewSeeder creates a new seeder instance
func NewSeeder(dbManager cartridge.DBManager, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		DBManager: dbManager,
		Logger:    logger,
		Seed:      DefaultSeed,
		Years:     DefaultYears,
	}
}

// Dataset is everything Run writes, one slice per table.
type Dataset struct {
	Countries             []schema.Country
	StatesProvinces       []schema.StateProvince
	Cities                []schema.City
	People                []schema.Person
	CustomerCategories    []schema.CustomerCategory
	Suppliers             []schema.Supplier
	DeliveryMethods       []schema.DeliveryMethod
	TransactionTypes      []schema.TransactionType
	StockGroups           []schema.StockGroup
	TaxRates              []schema.TaxRate
	BuyingGroups          []schema.BuyingGroup
	StockItems            []schema.StockItem
	StockItemGroups       []schema.StockItemGroup
	Customers             []schema.Customer
	Orders                []schema.Order
	Transactions          []schema.Transaction
	SpecialDeals          []schema.SpecialDeal
	PurchaseOrders        []schema.PurchaseOrder
	PurchaseOrderLines    []schema.PurchaseOrderLine
	Invoices              []schema.Invoice
	InvoiceLines          []schema.InvoiceLine
	StockItemTransactions []schema.StockItemTransaction
	StockMovements        []schema.StockMovement
}

type tableRows struct {
	name  string
	rows  any
	count int
}

// tables lists the dataset in insertion order.
func (d *Dataset) tables() []tableRows {
	return []tableRows{
		{"ApplicationCountries", &d.Countries, len(d.Countries)},
		{"ApplicationStatesProvinces", &d.StatesProvinces, len(d.StatesProvinces)},
		{"ApplicationCities", &d.Cities, len(d.Cities)},
		{"ApplicationPeople", &d.People, len(d.People)},
		{"SalesCustomersCategories", &d.CustomerCategories, len(d.CustomerCategories)},
		{"PurchasingSuppliers", &d.Suppliers, len(d.Suppliers)},
		{"ApplicationDeliveryMethods", &d.DeliveryMethods, len(d.DeliveryMethods)},
		{"ApplicationTransactionTypes", &d.TransactionTypes, len(d.TransactionTypes)},
		{"WarehouseStockGroups", &d.StockGroups, len(d.StockGroups)},
		{"TaxRates", &d.TaxRates, len(d.TaxRates)},
		{"SalesBuyingGroups", &d.BuyingGroups, len(d.BuyingGroups)},
		{"WarehouseStockItem", &d.StockItems, len(d.StockItems)},
		{"StockItemsStockGroups", &d.StockItemGroups, len(d.StockItemGroups)},
		{"SalesCustomers", &d.Customers, len(d.Customers)},
		{"Orders", &d.Orders, len(d.Orders)},
		{"Transactions", &d.Transactions, len(d.Transactions)},
		{"SalesSpecialDeals", &d.SpecialDeals, len(d.SpecialDeals)},
		{"PurchaseOrders", &d.PurchaseOrders, len(d.PurchaseOrders)},
		{"PurchaseOrderLines", &d.PurchaseOrderLines, len(d.PurchaseOrderLines)},
		{"SalesInvoices", &d.Invoices, len(d.Invoices)},
		{"SalesInvoiceLines", &d.InvoiceLines, len(d.InvoiceLines)},
		{"StockItemTransactions", &d.StockItemTransactions, len(d.StockItemTransactions)},
		{"StockMovements", &d.StockMovements, len(d.StockMovements)},
	}
}

// Counts returns the number of rows per table.
func (d *Dataset) Counts() map[string]int {
	counts := make(map[string]int)
	for _, t := range d.tables() {
		counts[t.name] = t.count
	}
	return counts
}

// Run replaces the contents of every schema table with a generated dataset.
func (s *Seeder) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	s.Logger.Info("Starting database seeding...", slog.Uint64("seed", s.Seed), slog.Any("years", s.Years))

	db := s.DBManager.GetConnection()
	if db == nil {
		return gorm.ErrInvalidDB
	}

	data := s.Generate()

	err := sqlite.PerformWrite(s.Logger, db, func(tx *gorm.DB) error {
		names := schema.TableNames()
		for _, name := range slices.Backward(names) {
			if err := tx.Exec("DELETE FROM " + name).Error; err != nil {
				return fmt.Errorf("failed to clear %s: %w", name, err)
			}
		}

		for _, t := range data.tables() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if t.count == 0 {
				continue
			}
			if err := tx.CreateInBatches(t.rows, batchSize).Error; err != nil {
				return fmt.Errorf("failed to insert %s: %w", t.name, err)
			}
			s.Logger.Debug("Seeded table", slog.String("table", t.name), slog.Int("rows", t.count))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}

	s.Logger.Info("Seeding completed successfully",
		slog.Int("invoices", len(data.Invoices)),
		slog.Int("invoiceLines", len(data.InvoiceLines)),
		slog.Int("purchaseOrders", len(data.PurchaseOrders)),
		slog.Int("purchaseOrderLines", len(data.PurchaseOrderLines)),
		slog.Int("stockTransactions", len(data.StockItemTransactions)),
		slog.Int("transactions", len(data.Transactions)),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

// Generate builds the dataset without touching the database. The same seed
// and years always produce the same dataset.
func (s *Seeder) Generate() *Dataset {
	g := &generator{
		rng:    rand.New(rand.NewPCG(s.Seed, s.Seed>>1|1)),
		prices: map[int64]float64{},
		data: &Dataset{
			Countries:          countries(),
			StatesProvinces:    statesProvinces(),
			Cities:             cities(),
			People:             people(),
			CustomerCategories: customerCategories(),
			Suppliers:          suppliers(),
			DeliveryMethods:    deliveryMethods(),
			TransactionTypes:   transactionTypes(),
			StockGroups:        stockGroups(),
			TaxRates:           taxRates(),
			BuyingGroups:       buyingGroups(),
			StockItems:         stockItems(),
			StockItemGroups:    stockItemGroups(),
			Customers:          customers(),
			SpecialDeals:       specialDeals(),
		},
	}
	for _, item := range g.data.StockItems {
		g.prices[item.StockItemID] = *item.UnitPrice
	}

	g.purchaseOrders(s.Years)
	g.orders(s.Years)
	g.invoices(s.Years)
	g.stockTransactions()
	g.stockMovements()
	g.ledger()

	return g.data
}

type generator struct {
	rng    *rand.Rand
	prices map[int64]float64
	data   *Dataset
}

// between returns a uniform integer in [lo, hi].
func (g *generator) between(lo, hi int) int {
	return lo + g.rng.IntN(hi-lo+1)
}

func (g *generator) item() int64 {
	return int64(g.between(1, len(g.data.StockItems)))
}

func day(year, month, d int) time.Time {
	return time.Date(year, time.Month(month), d, 0, 0, 0, 0, time.UTC)
}

// purchaseOrders places one order per supplier on the 15th of every month,
// delivered on the 25th, with 2-4 lines each.
func (g *generator) purchaseOrders(years []int) {
	var poID, lineID int64
	for _, year := range years {
		for month := 1; month <= 12; month++ {
			for _, supplier := range g.data.Suppliers {
				poID++
				delivery := day(year, month, 25).Format(dateLayout)
				g.data.PurchaseOrders = append(g.data.PurchaseOrders, schema.PurchaseOrder{
					PurchaseOrderID:      poID,
					SupplierID:           supplier.SupplierID,
					OrderDate:            day(year, month, 15).Format(dateLayout),
					DeliveryMethodID:     ptr(int64(g.between(1, 3))),
					ContactPersonID:      ptr(int64(g.between(1, 4))),
					AuthorisedPersonID:   ptr(int64(g.between(1, 4))),
					ExpectedDeliveryDate: ptr(delivery),
				})

				for range g.between(2, 4) {
					lineID++
					item := g.item()
					ordered := int64(g.between(10, 100))
					received := ordered - int64(g.between(0, 5))
					g.data.PurchaseOrderLines = append(g.data.PurchaseOrderLines, schema.PurchaseOrderLine{
						PurchaseOrderLineID:       lineID,
						PurchaseOrderID:           poID,
						StockItemID:               item,
						OrderedOuters:             ordered,
						ReceivedOuters:            ptr(received),
						ExpectedUnitPricePerOuter: metrics.Round(g.prices[item]*0.7, 2),
						LastReceiptDate:           ptr(delivery),
					})
				}
			}
		}
	}
}

// orders gives every customer 1-3 orders a month.
func (g *generator) orders(years []int) {
	var orderID int64
	for _, year := range years {
		for month := 1; month <= 12; month++ {
			for _, c := range g.data.Customers {
				for range g.between(1, 3) {
					orderID++
					placed := day(year, month, g.between(1, 28))
					delivery := placed.AddDate(0, 0, g.between(5, 10))
					g.data.Orders = append(g.data.Orders, schema.Order{
						OrderID:              orderID,
						CustomerID:           c.CustomerID,
						OrderDate:            placed.Format(dateLayout),
						ExpectedDeliveryDate: ptr(delivery.Format(dateLayout)),
						OrderStatus:          int64(g.between(0, 4)),
						Quantity:             int64(g.between(1, 50)),
						ContactPersonID:      ptr(int64(g.between(1, 4))),
					})
				}
			}
		}
	}
}

// invoices gives every customer 1-2 invoices a month with 2-5 lines each,
// taxed at the standard rate.
func (g *generator) invoices(years []int) {
	const standardRate = 8.0
	var invoiceID, lineID int64
	for _, year := range years {
		for month := 1; month <= 12; month++ {
			for _, c := range g.data.Customers {
				for range g.between(1, 2) {
					invoiceID++
					issued := day(year, month, g.between(1, 28))
					g.data.Invoices = append(g.data.Invoices, schema.Invoice{
						InvoiceID:   invoiceID,
						CustomerID:  c.CustomerID,
						InvoiceDate: issued.Format(dateLayout),
					})

					edited := issued.Add(time.Duration(g.between(8*3600, 18*3600)) * time.Second)
					for range g.between(2, 5) {
						lineID++
						item := g.item()
						quantity := int64(g.between(1, 20))
						price := g.prices[item]
						extended := float64(quantity) * price
						margin := 0.2 + g.rng.Float64()*0.2
						g.data.InvoiceLines = append(g.data.InvoiceLines, schema.InvoiceLine{
							InvoiceLineID:  lineID,
							InvoiceID:      invoiceID,
							StockItemID:    item,
							Quantity:       quantity,
							UnitPrice:      price,
							ExtendedPrice:  extended,
							TaxAmount:      metrics.Round(extended*standardRate/100, 2),
							TaxRate:        standardRate,
							TaxRateID:      ptr[int64](2),
							LineProfit:     metrics.Round(extended*margin, 2),
							LastEditedWhen: edited.Format(stampLayout),
						})
					}
				}
			}
		}
	}
}

// stockTransactions records a receipt per purchase order line and an issue
// per invoice line.
func (g *generator) stockTransactions() {
	supplierOf := make(map[int64]int64, len(g.data.PurchaseOrders))
	for _, po := range g.data.PurchaseOrders {
		supplierOf[po.PurchaseOrderID] = po.SupplierID
	}
	customerOf := make(map[int64]int64, len(g.data.Invoices))
	for _, inv := range g.data.Invoices {
		customerOf[inv.InvoiceID] = inv.CustomerID
	}

	var id int64
	for _, line := range g.data.PurchaseOrderLines {
		id++
		g.data.StockItemTransactions = append(g.data.StockItemTransactions, schema.StockItemTransaction{
			StockItemTransactionID:  id,
			StockItemID:             line.StockItemID,
			TransactionTypeID:       txnStockReceipt,
			SupplierID:              ptr(supplierOf[line.PurchaseOrderID]),
			Quantity:                *line.ReceivedOuters,
			TransactionOccurredWhen: *line.LastReceiptDate,
		})
	}
	for _, line := range g.data.InvoiceLines {
		id++
		g.data.StockItemTransactions = append(g.data.StockItemTransactions, schema.StockItemTransaction{
			StockItemTransactionID:  id,
			StockItemID:             line.StockItemID,
			TransactionTypeID:       txnStockIssue,
			CustomerID:              ptr(customerOf[line.InvoiceID]),
			Quantity:                -line.Quantity,
			TransactionOccurredWhen: line.LastEditedWhen,
		})
	}
}

// stockMovements mirrors every stock transaction with an absolute quantity.
func (g *generator) stockMovements() {
	for i, st := range g.data.StockItemTransactions {
		movement, quantity := movementInbound, st.Quantity
		if quantity < 0 {
			movement, quantity = movementOutbound, -quantity
		}
		g.data.StockMovements = append(g.data.StockMovements, schema.StockMovement{
			StockMovementID: int64(i + 1),
			StockItemID:     st.StockItemID,
			MovementDate:    st.TransactionOccurredWhen,
			Quantity:        quantity,
			MovementTypeID:  ptr(movement),
			CustomerID:      st.CustomerID,
			SupplierID:      st.SupplierID,
			Notes:           ptr(fmt.Sprintf("Stock movement for item %d", st.StockItemID)),
		})
	}
}

// ledger writes one finalized transaction per invoice, purchase order and
// stock transaction.
func (g *generator) ledger() {
	invoiceTotals := map[int64]float64{}
	for _, line := range g.data.InvoiceLines {
		invoiceTotals[line.InvoiceID] += line.ExtendedPrice
	}
	poTotals := map[int64]float64{}
	for _, line := range g.data.PurchaseOrderLines {
		poTotals[line.PurchaseOrderID] += float64(line.OrderedOuters) * line.ExpectedUnitPricePerOuter
	}

	var id int64
	add := func(t schema.Transaction) {
		id++
		t.TransactionID = id
		t.PaymentMethodID = ptr[int64](1)
		t.IsFinalized = 1
		g.data.Transactions = append(g.data.Transactions, t)
	}

	for _, inv := range g.data.Invoices {
		add(schema.Transaction{
			TransactionDate:   inv.InvoiceDate,
			TransactionTypeID: txnSales,
			CustomerID:        ptr(inv.CustomerID),
			InvoiceID:         ptr(inv.InvoiceID),
			Amount:            ptr(metrics.Round(invoiceTotals[inv.InvoiceID], 2)),
		})
	}
	for _, po := range g.data.PurchaseOrders {
		add(schema.Transaction{
			TransactionDate:   po.OrderDate,
			TransactionTypeID: txnPurchase,
			SupplierID:        ptr(po.SupplierID),
			PurchaseOrderID:   ptr(po.PurchaseOrderID),
			Amount:            ptr(metrics.Round(poTotals[po.PurchaseOrderID], 2)),
		})
	}
	for _, st := range g.data.StockItemTransactions {
		quantity := st.Quantity
		if quantity < 0 {
			quantity = -quantity
		}
		add(schema.Transaction{
			TransactionDate:   st.TransactionOccurredWhen,
			TransactionTypeID: st.TransactionTypeID,
			CustomerID:        st.CustomerID,
			SupplierID:        st.SupplierID,
			Amount:            ptr(metrics.Round(float64(quantity)*g.prices[st.StockItemID], 2)),
		})
	}
}
