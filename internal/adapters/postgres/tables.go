package postgres

// Module names of the two payment module variants
const (
	ModuleCheckout = "emerchantpay_checkout"
	ModuleDirect   = "emerchantpay_direct"
)

// TableSet names the ledger tables of one module variant
type TableSet struct {
	Transactions        string
	Consumers           string
	CronLog             string
	CronLogTransactions string
}

// ModuleTables returns the table names of a module variant
func ModuleTables(module string) TableSet {
	return TableSet{
		Transactions:        module + "_transactions",
		Consumers:           module + "_consumers",
		CronLog:             module + "_cronlog",
		CronLogTransactions: module + "_cronlog_transactions",
	}
}

// StoreTables names the storefront tables read for orders and subscriptions
type StoreTables struct {
	Order                     string
	OrderHistory              string
	OrderProduct              string
	OrderTotal                string
	Product                   string
	OrderRecurring            string
	OrderRecurringTransaction string
}

// NewStoreTables applies the storefront table prefix, e.g. "oc_"
func NewStoreTables(prefix string) StoreTables {
	return StoreTables{
		Order:                     prefix + "order",
		OrderHistory:              prefix + "order_history",
		OrderProduct:              prefix + "order_product",
		OrderTotal:                prefix + "order_total",
		Product:                   prefix + "product",
		OrderRecurring:            prefix + "order_recurring",
		OrderRecurringTransaction: prefix + "order_recurring_transaction",
	}
}
