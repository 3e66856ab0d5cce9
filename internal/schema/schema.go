// Package schema defines the relational model the KPI catalog queries.
//
// Table and column names are part of the query contract: every KPI template
// refers to them verbatim, so the gorm tags pin them instead of relying on the
// naming strategy. Dates are stored as sortable ISO-8601 text.
package schema

// ===== Dimension tables =====

type Country struct {
	CountryID   int64  `gorm:"column:CountryID;primaryKey"`
	CountryName string `gorm:"column:CountryName;not null"`
}

func (Country) TableName() string { return "ApplicationCountries" }

type StateProvince struct {
	StateProvinceID   int64  `gorm:"column:StateProvinceID;primaryKey"`
	StateProvinceName string `gorm:"column:StateProvinceName;not null"`
	CountryID         int64  `gorm:"column:CountryID;not null"`
}

func (StateProvince) TableName() string { return "ApplicationStatesProvinces" }

type City struct {
	CityID          int64  `gorm:"column:CityID;primaryKey"`
	CityName        string `gorm:"column:CityName;not null"`
	StateProvinceID int64  `gorm:"column:StateProvinceID;not null"`
}

func (City) TableName() string { return "ApplicationCities" }

type Person struct {
	PersonID      int64   `gorm:"column:PersonID;primaryKey"`
	FullName      string  `gorm:"column:FullName;not null"`
	PreferredName *string `gorm:"column:PreferredName"`
}

func (Person) TableName() string { return "ApplicationPeople" }

type CustomerCategory struct {
	CustomerCategoryID   int64  `gorm:"column:CustomerCategoryID;primaryKey"`
	CustomerCategoryName string `gorm:"column:CustomerCategoryName;not null"`
}

func (CustomerCategory) TableName() string { return "SalesCustomersCategories" }

type Supplier struct {
	SupplierID   int64   `gorm:"column:SupplierID;primaryKey"`
	SupplierName string  `gorm:"column:SupplierName;not null"`
	PhoneNumber  *string `gorm:"column:PhoneNumber"`
	WebsiteURL   *string `gorm:"column:WebsiteURL"`
}

func (Supplier) TableName() string { return "PurchasingSuppliers" }

type DeliveryMethod struct {
	DeliveryMethodID   int64  `gorm:"column:DeliveryMethodID;primaryKey"`
	DeliveryMethodName string `gorm:"column:DeliveryMethodName;not null"`
}

func (DeliveryMethod) TableName() string { return "ApplicationDeliveryMethods" }

type TransactionType struct {
	TransactionTypeID   int64  `gorm:"column:TransactionTypeID;primaryKey"`
	TransactionTypeName string `gorm:"column:TransactionTypeName;not null"`
}

func (TransactionType) TableName() string { return "ApplicationTransactionTypes" }

type StockGroup struct {
	StockGroupID   int64  `gorm:"column:StockGroupID;primaryKey"`
	StockGroupName string `gorm:"column:StockGroupName;not null"`
}

func (StockGroup) TableName() string { return "WarehouseStockGroups" }

type TaxRate struct {
	TaxRateID   int64   `gorm:"column:TaxRateID;primaryKey"`
	TaxRate     float64 `gorm:"column:TaxRate;not null"`
	TaxRateName string  `gorm:"column:TaxRateName;not null"`
}

func (TaxRate) TableName() string { return "TaxRates" }

type BuyingGroup struct {
	BuyingGroupID   int64  `gorm:"column:BuyingGroupID;primaryKey"`
	BuyingGroupName string `gorm:"column:BuyingGroupName;not null"`
}

func (BuyingGroup) TableName() string { return "SalesBuyingGroups" }

type StockItem struct {
	StockItemID            int64    `gorm:"column:StockItemID;primaryKey"`
	StockItemName          string   `gorm:"column:StockItemName;not null"`
	SupplierID             *int64   `gorm:"column:SupplierID"`
	UnitPrice              *float64 `gorm:"column:UnitPrice"`
	RecommendedRetailPrice *float64 `gorm:"column:RecommendedRetailPrice"`
	TypicalWeightPerUnit   *float64 `gorm:"column:TypicalWeightPerUnit"`
}

func (StockItem) TableName() string { return "WarehouseStockItem" }

// StockItemGroup is the many-to-many bridge between items and groups. An item
// may belong to several groups, which is why group level KPIs count DISTINCT.
type StockItemGroup struct {
	StockItemID  int64 `gorm:"column:StockItemID;primaryKey;autoIncrement:false"`
	StockGroupID int64 `gorm:"column:StockGroupID;primaryKey;autoIncrement:false"`
}

func (StockItemGroup) TableName() string { return "StockItemsStockGroups" }

type Customer struct {
	CustomerID         int64  `gorm:"column:CustomerID;primaryKey"`
	CustomerName       string `gorm:"column:CustomerName;not null"`
	CustomerCategoryID *int64 `gorm:"column:CustomerCategoryID"`
	BuyingGroupID      *int64 `gorm:"column:BuyingGroupID"`
	DeliveryCityID     *int64 `gorm:"column:DeliveryCityID"`
}

func (Customer) TableName() string { return "SalesCustomers" }

// ===== Fact tables =====

type Order struct {
	OrderID              int64   `gorm:"column:OrderID;primaryKey"`
	CustomerID           int64   `gorm:"column:CustomerID;not null;index:idx_Orders_CustomerID"`
	OrderDate            string  `gorm:"column:OrderDate;not null;index:idx_Orders_OrderDate"`
	ExpectedDeliveryDate *string `gorm:"column:ExpectedDeliveryDate"`
	OrderStatus          int64   `gorm:"column:OrderStatus"`
	Quantity             int64   `gorm:"column:Quantity;not null"`
	ContactPersonID      *int64  `gorm:"column:ContactPersonID"`
}

func (Order) TableName() string { return "Orders" }

// Transaction is the financial ledger line, one per invoice, purchase order
// and stock transaction.
type Transaction struct {
	TransactionID     int64    `gorm:"column:TransactionID;primaryKey"`
	TransactionDate   string   `gorm:"column:TransactionDate;not null;index:idx_Transactions_TransactionDate"`
	TransactionTypeID int64    `gorm:"column:TransactionTypeID;not null;index:idx_Transactions_TransactionTypeID"`
	CustomerID        *int64   `gorm:"column:CustomerID"`
	SupplierID        *int64   `gorm:"column:SupplierID"`
	InvoiceID         *int64   `gorm:"column:InvoiceID"`
	PurchaseOrderID   *int64   `gorm:"column:PurchaseOrderID"`
	PaymentMethodID   *int64   `gorm:"column:PaymentMethodID"`
	Amount            *float64 `gorm:"column:Amount"`
	IsFinalized       int64    `gorm:"column:IsFinalized"`
}

func (Transaction) TableName() string { return "Transactions" }

type SpecialDeal struct {
	SpecialDealID      int64    `gorm:"column:SpecialDealID;primaryKey"`
	StockItemID        *int64   `gorm:"column:StockItemID"`
	StockGroupID       *int64   `gorm:"column:StockGroupID;index:idx_SalesSpecialDeals_StockGroupID"`
	CustomerID         *int64   `gorm:"column:CustomerID"`
	BuyingGroupID      *int64   `gorm:"column:BuyingGroupID;index:idx_SalesSpecialDeals_BuyingGroupID"`
	DiscountPercentage *float64 `gorm:"column:DiscountPercentage"`
	StartDate          *string  `gorm:"column:StartDate"`
	EndDate            *string  `gorm:"column:EndDate;index:idx_SalesSpecialDeals_EndDate"`
}

func (SpecialDeal) TableName() string { return "SalesSpecialDeals" }

type PurchaseOrder struct {
	PurchaseOrderID      int64   `gorm:"column:PurchaseOrderID;primaryKey"`
	SupplierID           int64   `gorm:"column:SupplierID;not null"`
	OrderDate            string  `gorm:"column:OrderDate;not null"`
	DeliveryMethodID     *int64  `gorm:"column:DeliveryMethodID"`
	ContactPersonID      *int64  `gorm:"column:ContactPersonID"`
	AuthorisedPersonID   *int64  `gorm:"column:AuthorisedPersonID"`
	ExpectedDeliveryDate *string `gorm:"column:ExpectedDeliveryDate"`
}

func (PurchaseOrder) TableName() string { return "PurchaseOrders" }

type PurchaseOrderLine struct {
	PurchaseOrderLineID       int64   `gorm:"column:PurchaseOrderLineID;primaryKey"`
	PurchaseOrderID           int64   `gorm:"column:PurchaseOrderID;not null"`
	StockItemID               int64   `gorm:"column:StockItemID;not null;index:idx_PurchaseOrderLines_StockItemID"`
	OrderedOuters             int64   `gorm:"column:OrderedOuters;not null"`
	ReceivedOuters            *int64  `gorm:"column:ReceivedOuters"`
	ExpectedUnitPricePerOuter float64 `gorm:"column:ExpectedUnitPricePerOuter;not null"`
	LastReceiptDate           *string `gorm:"column:LastReceiptDate;index:idx_PurchaseOrderLines_LastReceiptDate"`
}

func (PurchaseOrderLine) TableName() string { return "PurchaseOrderLines" }

type Invoice struct {
	InvoiceID   int64  `gorm:"column:InvoiceID;primaryKey"`
	CustomerID  int64  `gorm:"column:CustomerID;not null"`
	InvoiceDate string `gorm:"column:InvoiceDate;not null"`
}

func (Invoice) TableName() string { return "SalesInvoices" }

// InvoiceLine carries the tax inclusive ExtendedPrice the tax variance KPI
// back-computes expected tax from.
type InvoiceLine struct {
	InvoiceLineID  int64   `gorm:"column:InvoiceLineID;primaryKey"`
	InvoiceID      int64   `gorm:"column:InvoiceID;not null"`
	StockItemID    int64   `gorm:"column:StockItemID;not null;index:idx_SalesInvoiceLines_StockItemID"`
	Quantity       int64   `gorm:"column:Quantity;not null"`
	UnitPrice      float64 `gorm:"column:UnitPrice;not null"`
	ExtendedPrice  float64 `gorm:"column:ExtendedPrice;not null"`
	TaxAmount      float64 `gorm:"column:TaxAmount;not null"`
	TaxRate        float64 `gorm:"column:TaxRate;not null"`
	TaxRateID      *int64  `gorm:"column:TaxRateID"`
	LineProfit     float64 `gorm:"column:LineProfit;not null"`
	LastEditedWhen string  `gorm:"column:LastEditedWhen;not null;index:idx_SalesInvoiceLines_LastEditedWhen"`
}

func (InvoiceLine) TableName() string { return "SalesInvoiceLines" }

type StockItemTransaction struct {
	StockItemTransactionID  int64  `gorm:"column:StockItemTransactionID;primaryKey"`
	StockItemID             int64  `gorm:"column:StockItemID;not null;index:idx_StockItemTransactions_StockItemID"`
	TransactionTypeID       int64  `gorm:"column:TransactionTypeID;not null;index:idx_StockItemTransactions_TransactionTypeID"`
	CustomerID              *int64 `gorm:"column:CustomerID"`
	SupplierID              *int64 `gorm:"column:SupplierID"`
	Quantity                int64  `gorm:"column:Quantity;not null"`
	TransactionOccurredWhen string `gorm:"column:TransactionOccurredWhen;not null;index:idx_StockItemTransactions_TransactionOccurredWhen"`
}

func (StockItemTransaction) TableName() string { return "StockItemTransactions" }

type StockMovement struct {
	StockMovementID int64   `gorm:"column:StockMovementID;primaryKey"`
	StockItemID     int64   `gorm:"column:StockItemID;not null;index:idx_StockMovements_StockItemID"`
	MovementDate    string  `gorm:"column:MovementDate;not null;index:idx_StockMovements_MovementDate"`
	Quantity        int64   `gorm:"column:Quantity;not null"`
	MovementTypeID  *int64  `gorm:"column:MovementTypeID"`
	CustomerID      *int64  `gorm:"column:CustomerID"`
	SupplierID      *int64  `gorm:"column:SupplierID"`
	Notes           *string `gorm:"column:Notes"`
}

func (StockMovement) TableName() string { return "StockMovements" }

// Models returns every table of the schema in dependency order, for AutoMigrate.
func Models() []any {
	return []any{
		&Country{},
		&StateProvince{},
		&City{},
		&Person{},
		&CustomerCategory{},
		&Supplier{},
		&DeliveryMethod{},
		&TransactionType{},
		&StockGroup{},
		&TaxRate{},
		&BuyingGroup{},
		&StockItem{},
		&StockItemGroup{},
		&Customer{},
		&Order{},
		&Transaction{},
		&SpecialDeal{},
		&PurchaseOrder{},
		&PurchaseOrderLine{},
		&Invoice{},
		&InvoiceLine{},
		&StockItemTransaction{},
		&StockMovement{},
	}
}

// TableNames lists the tables the KPI catalog expects, in Models order.
func TableNames() []string {
	return []string{
		"ApplicationCountries",
		"ApplicationStatesProvinces",
		"ApplicationCities",
		"ApplicationPeople",
		"SalesCustomersCategories",
		"PurchasingSuppliers",
		"ApplicationDeliveryMethods",
		"ApplicationTransactionTypes",
		"WarehouseStockGroups",
		"TaxRates",
		"SalesBuyingGroups",
		"WarehouseStockItem",
		"StockItemsStockGroups",
		"SalesCustomers",
		"Orders",
		"Transactions",
		"SalesSpecialDeals",
		"PurchaseOrders",
		"PurchaseOrderLines",
		"SalesInvoices",
		"SalesInvoiceLines",
		"StockItemTransactions",
		"StockMovements",
	}
}
