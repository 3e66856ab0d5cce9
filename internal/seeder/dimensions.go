package seeder

import (
	"github.com/samber/lo"

	"supplykpi/internal/schema"
)

// Transaction type ids the generated facts refer to.
const (
	txnSales        int64 = 1
	txnPurchase     int64 = 2
	txnStockIssue   int64 = 10
	txnStockReceipt int64 = 11
)

// Movement type ids of StockMovements.
const (
	movementInbound  int64 = 1
	movementOutbound int64 = 2
)

const (
	dealStart = "2013-01-01"
	dealEnd   = "2016-12-31"
)

func ptr[T any](v T) *T { return lo.ToPtr(v) }

func countries() []schema.Country {
	return []schema.Country{
		{CountryID: 1, CountryName: "United States"},
		{CountryID: 2, CountryName: "United Kingdom"},
		{CountryID: 3, CountryName: "Canada"},
		{CountryID: 4, CountryName: "Germany"},
		{CountryID: 5, CountryName: "France"},
	}
}

func statesProvinces() []schema.StateProvince {
	return []schema.StateProvince{
		{StateProvinceID: 1, StateProvinceName: "California", CountryID: 1},
		{StateProvinceID: 2, StateProvinceName: "New York", CountryID: 1},
		{StateProvinceID: 3, StateProvinceName: "Texas", CountryID: 1},
		{StateProvinceID: 4, StateProvinceName: "England", CountryID: 2},
		{StateProvinceID: 5, StateProvinceName: "Scotland", CountryID: 2},
		{StateProvinceID: 6, StateProvinceName: "Ontario", CountryID: 3},
		{StateProvinceID: 7, StateProvinceName: "Quebec", CountryID: 3},
		{StateProvinceID: 8, StateProvinceName: "Bavaria", CountryID: 4},
		{StateProvinceID: 9, StateProvinceName: "Ile-de-France", CountryID: 5},
	}
}

func cities() []schema.City {
	return []schema.City{
		{CityID: 1, CityName: "Los Angeles", StateProvinceID: 1},
		{CityID: 2, CityName: "San Francisco", StateProvinceID: 1},
		{CityID: 3, CityName: "New York City", StateProvinceID: 2},
		{CityID: 4, CityName: "London", StateProvinceID: 4},
		{CityID: 5, CityName: "Manchester", StateProvinceID: 4},
		{CityID: 6, CityName: "Edinburgh", StateProvinceID: 5},
		{CityID: 7, CityName: "Toronto", StateProvinceID: 6},
		{CityID: 8, CityName: "Montreal", StateProvinceID: 7},
		{CityID: 9, CityName: "Munich", StateProvinceID: 8},
		{CityID: 10, CityName: "Paris", StateProvinceID: 9},
	}
}

func people() []schema.Person {
	return []schema.Person{
		{PersonID: 1, FullName: "John Smith", PreferredName: ptr("John")},
		{PersonID: 2, FullName: "Jane Doe", PreferredName: ptr("Jane")},
		{PersonID: 3, FullName: "Robert Johnson", PreferredName: ptr("Rob")},
		{PersonID: 4, FullName: "Sarah Williams", PreferredName: ptr("Sarah")},
	}
}

func customerCategories() []schema.CustomerCategory {
	return []schema.CustomerCategory{
		{CustomerCategoryID: 1, CustomerCategoryName: "Retail"},
		{CustomerCategoryID: 2, CustomerCategoryName: "Wholesale"},
		{CustomerCategoryID: 3, CustomerCategoryName: "Corporate"},
		{CustomerCategoryID: 4, CustomerCategoryName: "Government"},
	}
}

func buyingGroups() []schema.BuyingGroup {
	return []schema.BuyingGroup{
		{BuyingGroupID: 1, BuyingGroupName: "Premium"},
		{BuyingGroupID: 2, BuyingGroupName: "Standard"},
		{BuyingGroupID: 3, BuyingGroupName: "Budget"},
		{BuyingGroupID: 4, BuyingGroupName: "Luxury"},
	}
}

func suppliers() []schema.Supplier {
	return []schema.Supplier{
		{SupplierID: 1, SupplierName: "Acme Supplies", PhoneNumber: ptr("555-123-4567"), WebsiteURL: ptr("www.acmesupplies.com")},
		{SupplierID: 2, SupplierName: "Global Distributors", PhoneNumber: ptr("555-234-5678"), WebsiteURL: ptr("www.globaldist.com")},
		{SupplierID: 3, SupplierName: "Tech Parts Inc.", PhoneNumber: ptr("555-345-6789"), WebsiteURL: ptr("www.techparts.com")},
		{SupplierID: 4, SupplierName: "Wholesale Direct", PhoneNumber: ptr("555-456-7890"), WebsiteURL: ptr("www.wholesaledirect.com")},
		{SupplierID: 5, SupplierName: "Quality Products", PhoneNumber: ptr("555-567-8901"), WebsiteURL: ptr("www.qualityproducts.com")},
	}
}

func deliveryMethods() []schema.DeliveryMethod {
	return []schema.DeliveryMethod{
		{DeliveryMethodID: 1, DeliveryMethodName: "Standard"},
		{DeliveryMethodID: 2, DeliveryMethodName: "Express"},
		{DeliveryMethodID: 3, DeliveryMethodName: "Overnight"},
	}
}

// transactionTypes repeats "Stock Issue" and "Stock Receipt" under two ids
// each; the generated stock transactions use 10 and 11.
func transactionTypes() []schema.TransactionType {
	names := []string{
		"Sales", "Purchase", "Stock Receipt", "Stock Issue",
		"Customer Payment", "Supplier Payment", "Stock Transfer",
		"Customer Refund", "Supplier Refund", "Stock Issue",
		"Stock Receipt", "Customer Returns", "Supplier Returns",
	}
	return lo.Map(names, func(name string, i int) schema.TransactionType {
		return schema.TransactionType{TransactionTypeID: int64(i + 1), TransactionTypeName: name}
	})
}

func stockGroups() []schema.StockGroup {
	return []schema.StockGroup{
		{StockGroupID: 1, StockGroupName: "Electronics"},
		{StockGroupID: 2, StockGroupName: "Clothing"},
		{StockGroupID: 3, StockGroupName: "Food"},
		{StockGroupID: 4, StockGroupName: "Books"},
		{StockGroupID: 5, StockGroupName: "Furniture"},
	}
}

func taxRates() []schema.TaxRate {
	return []schema.TaxRate{
		{TaxRateID: 1, TaxRate: 0.0, TaxRateName: "Tax Exempt"},
		{TaxRateID: 2, TaxRate: 8.0, TaxRateName: "Standard Rate"},
		{TaxRateID: 3, TaxRate: 5.0, TaxRateName: "Reduced Rate"},
		{TaxRateID: 4, TaxRate: 20.0, TaxRateName: "Higher Rate"},
	}
}

func stockItem(id int64, name string, supplierID int64, price, rrp, weight float64) schema.StockItem {
	return schema.StockItem{
		StockItemID:            id,
		StockItemName:          name,
		SupplierID:             ptr(supplierID),
		UnitPrice:              ptr(price),
		RecommendedRetailPrice: ptr(rrp),
		TypicalWeightPerUnit:   ptr(weight),
	}
}

func stockItems() []schema.StockItem {
	return []schema.StockItem{
		stockItem(1, "Laptop Computer", 1, 800.00, 1200.00, 2.5),
		stockItem(2, "Smartphone Device", 1, 400.00, 699.99, 0.3),
		stockItem(3, "Tablet Computer", 3, 200.00, 349.99, 0.5),
		stockItem(4, "Cotton T-shirt", 2, 8.00, 19.99, 0.2),
		stockItem(5, "Denim Jeans", 2, 20.00, 49.99, 0.8),
		stockItem(6, "Premium Coffee", 3, 6.00, 12.99, 0.5),
		stockItem(7, "Herbal Tea", 3, 3.00, 7.99, 0.1),
		stockItem(8, "Dark Chocolate", 4, 2.00, 4.99, 0.2),
		stockItem(9, "Fiction Novel", 4, 5.00, 14.99, 0.4),
		stockItem(10, "Technical Textbook", 4, 30.00, 79.99, 1.5),
		stockItem(11, "Office Chair", 5, 40.00, 99.99, 5.0),
		stockItem(12, "Study Desk", 5, 100.00, 249.99, 20.0),
		stockItem(13, "Wooden Bookshelf", 5, 70.00, 179.99, 15.0),
	}
}

func stockItemGroups() []schema.StockItemGroup {
	membership := map[int64][]int64{
		1: {1, 2, 3},    // Electronics
		2: {4, 5},       // Clothing
		3: {6, 7, 8},    // Food
		4: {9, 10},      // Books
		5: {11, 12, 13}, // Furniture
	}
	var out []schema.StockItemGroup
	for group := int64(1); group <= 5; group++ {
		for _, item := range membership[group] {
			out = append(out, schema.StockItemGroup{StockItemID: item, StockGroupID: group})
		}
	}
	return out
}

func customer(id int64, name string, category int64, buyingGroup *int64, city int64) schema.Customer {
	return schema.Customer{
		CustomerID:         id,
		CustomerName:       name,
		CustomerCategoryID: ptr(category),
		BuyingGroupID:      buyingGroup,
		DeliveryCityID:     ptr(city),
	}
}

func customers() []schema.Customer {
	return []schema.Customer{
		customer(1, "ABC Corporation", 3, ptr[int64](1), 1),
		customer(2, "Local Shop Ltd", 1, ptr[int64](2), 2),
		customer(3, "Big Retailer Inc", 2, ptr[int64](3), 4),
		customer(4, "Government Agency", 4, nil, 3),
		customer(5, "Small Business Co", 1, ptr[int64](2), 5),
		customer(6, "Tech Startup LLC", 3, ptr[int64](1), 1),
		customer(7, "Fashion Boutique", 1, ptr[int64](4), 2),
		customer(8, "Grocery Chain Corp", 2, ptr[int64](2), 4),
	}
}

// deal builds a special deal; a zero item, group or buying group id is NULL.
func deal(id, item, group, customerID, buyingGroup int64, discount float64) schema.SpecialDeal {
	nullable := func(v int64) *int64 {
		if v == 0 {
			return nil
		}
		return ptr(v)
	}
	return schema.SpecialDeal{
		SpecialDealID:      id,
		StockItemID:        nullable(item),
		StockGroupID:       nullable(group),
		CustomerID:         ptr(customerID),
		BuyingGroupID:      nullable(buyingGroup),
		DiscountPercentage: ptr(discount),
		StartDate:          ptr(dealStart),
		EndDate:            ptr(dealEnd),
	}
}

func specialDeals() []schema.SpecialDeal {
	return []schema.SpecialDeal{
		deal(1, 1, 0, 1, 1, 10.0),
		deal(2, 0, 1, 2, 2, 15.0),
		deal(3, 4, 0, 3, 0, 5.0),
		deal(4, 0, 2, 4, 4, 12.5),
		deal(5, 7, 0, 5, 1, 7.5),
		deal(6, 2, 0, 6, 3, 20.0),
		deal(7, 3, 0, 7, 2, 18.0),
		deal(8, 5, 0, 8, 4, 25.0),
		deal(9, 0, 3, 1, 1, 8.0),
		deal(10, 0, 4, 2, 2, 10.0),
		deal(11, 9, 0, 3, 3, 6.0),
		deal(12, 0, 5, 4, 4, 14.0),
		deal(13, 11, 0, 5, 1, 9.0),
		deal(14, 12, 0, 6, 2, 22.0),
		deal(15, 0, 1, 7, 3, 11.0),
	}
}
