package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatusUpdate moves an order to a status and appends a history note
type OrderStatusUpdate struct {
	Comment  string
	OrderID  int64
	StatusID int
	Notify   bool
}

// OrderProduct is one purchased line of an order
type OrderProduct struct {
	Name       string
	Price      decimal.Decimal
	ProductID  int64
	Quantity   int
	TaxClassID int
}

// OrderTotal is one row of an order's totals breakdown
type OrderTotal struct {
	Code  string
	Title string
	Value decimal.Decimal
}

// Order holds the order fields needed to start a payment
type Order struct {
	Billing      Address
	Shipping     Address
	Email        string
	Telephone    string
	Currency     string
	Language     string
	Total        decimal.Decimal
	OrderID      int64
	CustomerID   int64
	StoreName    string
	Recurring    bool
	ProductNames []string
}

// Address is a billing or shipping address
type Address struct {
	FirstName string
	LastName  string
	Address1  string
	Address2  string
	ZipCode   string
	City      string
	State     string
	Country   string
}

// VirtualProductTaxClass marks downloadable products in the store tax table
const VirtualProductTaxClass = 10

// InvoiceItemType classifies invoice line items
type InvoiceItemType string

const (
	InvoiceItemPhysical    InvoiceItemType = "physical"
	InvoiceItemDigital     InvoiceItemType = "digital"
	InvoiceItemSurcharge   InvoiceItemType = "surcharge"
	InvoiceItemShippingFee InvoiceItemType = "shipping_fee"
)

// InvoiceItem is a line item required by invoice-class captures and refunds
type InvoiceItem struct {
	Name      string
	Type      InvoiceItemType
	UnitPrice decimal.Decimal
	Quantity  int
}

// BuildInvoiceItems derives invoice lines from products and totals.
// Tax and shipping become one surcharge and one shipping line when non-zero.
func BuildInvoiceItems(products []OrderProduct, totals []OrderTotal) []InvoiceItem {
	items := make([]InvoiceItem, 0, len(products)+2)
	for _, p := range products {
		itemType := InvoiceItemPhysical
		if p.TaxClassID == VirtualProductTaxClass {
			itemType = InvoiceItemDigital
		}
		items = append(items, InvoiceItem{Name: p.Name, Type: itemType, Quantity: p.Quantity, UnitPrice: p.Price})
	}

	tax, shipping := decimal.Zero, decimal.Zero
	for _, t := range totals {
		switch t.Code {
		case "tax":
			tax = tax.Add(t.Value)
		case "shipping":
			shipping = shipping.Add(t.Value)
		}
	}
	if !tax.IsZero() {
		items = append(items, InvoiceItem{Name: "Taxes", Type: InvoiceItemSurcharge, Quantity: 1, UnitPrice: tax})
	}
	if !shipping.IsZero() {
		items = append(items, InvoiceItem{Name: "Shipping Costs", Type: InvoiceItemShippingFee, Quantity: 1, UnitPrice: shipping})
	}
	return items
}

// RecurringStatus is the state of a subscription order
type RecurringStatus int

const (
	RecurringStatusInactive  RecurringStatus = 0
	RecurringStatusActive    RecurringStatus = 1
	RecurringStatusSuspended RecurringStatus = 2
	RecurringStatusCancelled RecurringStatus = 3
	RecurringStatusExpired   RecurringStatus = 4
	RecurringStatusPending   RecurringStatus = 5
)

// RecurringTransactionType codes the subscription ledger entries
type RecurringTransactionType int

const (
	RecurringTxDateAdded RecurringTransactionType = iota
	RecurringTxPayment
	RecurringTxOutstandingPayment
	RecurringTxSkipped
	RecurringTxFailed
	RecurringTxCancelled
	RecurringTxSuspended
	RecurringTxSuspendedFailed
	RecurringTxOutstandingFailed
	RecurringTxExpired
)

// RecurringOrder links a subscription to the order that started it
type RecurringOrder struct {
	Reference        string
	OrderRecurringID int64
	OrderID          int64
	Status           RecurringStatus
}

// RecurringTransaction is one entry of a subscription ledger
type RecurringTransaction struct {
	CreatedAt        time.Time
	Reference        string
	Amount           decimal.Decimal
	OrderRecurringID int64
	Type             RecurringTransactionType
}
