package domain

// TransactionType is the gateway transaction type name
type TransactionType string

const (
	TransactionTypeCheckout            TransactionType = "checkout"
	TransactionTypeAuthorize           TransactionType = "authorize"
	TransactionTypeAuthorize3D         TransactionType = "authorize3d"
	TransactionTypeSale                TransactionType = "sale"
	TransactionTypeSale3D              TransactionType = "sale3d"
	TransactionTypeCapture             TransactionType = "capture"
	TransactionTypeRefund              TransactionType = "refund"
	TransactionTypeVoid                TransactionType = "void"
	TransactionTypeInitRecurringSale   TransactionType = "init_recurring_sale"
	TransactionTypeInitRecurringSale3D TransactionType = "init_recurring_sale3d"
	TransactionTypeRecurringSale       TransactionType = "recurring_sale"
	TransactionTypeGooglePay           TransactionType = "google_pay"
	TransactionTypePayPal              TransactionType = "pay_pal"
	TransactionTypeApplePay            TransactionType = "apple_pay"
	TransactionTypePPRO                TransactionType = "ppro"
	TransactionTypeInvoice             TransactionType = "invoice"
	TransactionTypeInvoiceCapture      TransactionType = "invoice_capture"
	TransactionTypeInvoiceRefund       TransactionType = "invoice_refund"
	TransactionTypeKlarnaAuthorize     TransactionType = "klarna_authorize"
	TransactionTypeKlarnaCapture       TransactionType = "klarna_capture"
	TransactionTypeKlarnaRefund        TransactionType = "klarna_refund"
	TransactionTypeBitpaySale          TransactionType = "bitpay_sale"
	TransactionTypeBitpayRefund        TransactionType = "bitpay_refund"
	TransactionTypeTrustlySale         TransactionType = "trustly_sale"
	TransactionTypeIDebitPayin         TransactionType = "idebit_payin"
	TransactionTypeInstaDebitPayin     TransactionType = "insta_debit_payin"
	TransactionTypeOnlineBankingPayin  TransactionType = "online_banking"
	TransactionTypePaysafecard         TransactionType = "paysafecard"
	TransactionTypeSDDInitRecurring    TransactionType = "sdd_init_recurring_sale"
)

// TypeDescriptor describes what an operator may do with a transaction type
type TypeDescriptor struct {
	Name TransactionType
	// CaptureAs is the gateway type that captures this type
	CaptureAs TransactionType
	// RefundAs is the gateway type that refunds this type
	RefundAs       TransactionType
	Capturable     bool
	Refundable     bool
	Voidable       bool
	AuthorizeClass bool
	CaptureClass   bool
	RefundClass    bool
	Recurring      bool
	// WalletGated types depend on the configured wallet sub-type
	WalletGated bool
	// RequiresItems types need order line items on capture or refund
	RequiresItems bool
	// Card types are ordered first in hosted page requests
	Card bool
}

// TransactionTypes is the closed table of known gateway transaction types
var TransactionTypes = map[TransactionType]TypeDescriptor{
	TransactionTypeAuthorize: {
		Name: TransactionTypeAuthorize, CaptureAs: TransactionTypeCapture,
		Capturable: true, Voidable: true, AuthorizeClass: true, Card: true,
	},
	TransactionTypeAuthorize3D: {
		Name: TransactionTypeAuthorize3D, CaptureAs: TransactionTypeCapture,
		Capturable: true, Voidable: true, AuthorizeClass: true, Card: true,
	},
	TransactionTypeSale: {
		Name: TransactionTypeSale, RefundAs: TransactionTypeRefund,
		Refundable: true, Voidable: true, Card: true,
	},
	TransactionTypeSale3D: {
		Name: TransactionTypeSale3D, RefundAs: TransactionTypeRefund,
		Refundable: true, Voidable: true, Card: true,
	},
	TransactionTypeInitRecurringSale: {
		Name: TransactionTypeInitRecurringSale, RefundAs: TransactionTypeRefund,
		Refundable: true, Voidable: true, Recurring: true, Card: true,
	},
	TransactionTypeInitRecurringSale3D: {
		Name: TransactionTypeInitRecurringSale3D, RefundAs: TransactionTypeRefund,
		Refundable: true, Voidable: true, Recurring: true, Card: true,
	},
	TransactionTypeRecurringSale: {
		Name: TransactionTypeRecurringSale, RefundAs: TransactionTypeRefund,
		Refundable: true, Voidable: true,
	},
	TransactionTypeCapture: {
		Name: TransactionTypeCapture, RefundAs: TransactionTypeRefund,
		Refundable: true, Voidable: true, CaptureClass: true,
	},
	TransactionTypeRefund: {
		Name: TransactionTypeRefund, Voidable: true, RefundClass: true,
	},
	TransactionTypeVoid: {
		Name: TransactionTypeVoid,
	},
	TransactionTypeGooglePay: {
		Name: TransactionTypeGooglePay, CaptureAs: TransactionTypeCapture, RefundAs: TransactionTypeRefund,
		Capturable: true, Refundable: true, Voidable: true, AuthorizeClass: true, WalletGated: true,
	},
	TransactionTypePayPal: {
		Name: TransactionTypePayPal, CaptureAs: TransactionTypeCapture, RefundAs: TransactionTypeRefund,
		Capturable: true, Refundable: true, Voidable: true, AuthorizeClass: true, WalletGated: true,
	},
	TransactionTypeApplePay: {
		Name: TransactionTypeApplePay, CaptureAs: TransactionTypeCapture, RefundAs: TransactionTypeRefund,
		Capturable: true, Refundable: true, Voidable: true, AuthorizeClass: true, WalletGated: true,
	},
	TransactionTypeInvoice: {
		Name: TransactionTypeInvoice, CaptureAs: TransactionTypeInvoiceCapture,
		Capturable: true, Voidable: true, AuthorizeClass: true, RequiresItems: true,
	},
	TransactionTypeInvoiceCapture: {
		Name: TransactionTypeInvoiceCapture, RefundAs: TransactionTypeInvoiceRefund,
		Refundable: true, CaptureClass: true, RequiresItems: true,
	},
	TransactionTypeInvoiceRefund: {
		Name: TransactionTypeInvoiceRefund, RefundClass: true,
	},
	TransactionTypeKlarnaAuthorize: {
		Name: TransactionTypeKlarnaAuthorize, CaptureAs: TransactionTypeKlarnaCapture,
		Capturable: true, AuthorizeClass: true, RequiresItems: true,
	},
	TransactionTypeKlarnaCapture: {
		Name: TransactionTypeKlarnaCapture, RefundAs: TransactionTypeKlarnaRefund,
		Refundable: true, CaptureClass: true, RequiresItems: true,
	},
	TransactionTypeKlarnaRefund: {
		Name: TransactionTypeKlarnaRefund, RefundClass: true,
	},
	TransactionTypeBitpaySale: {
		Name: TransactionTypeBitpaySale, RefundAs: TransactionTypeBitpayRefund, Refundable: true,
	},
	TransactionTypeBitpayRefund: {
		Name: TransactionTypeBitpayRefund, RefundClass: true,
	},
	TransactionTypeTrustlySale: {
		Name: TransactionTypeTrustlySale, RefundAs: TransactionTypeRefund, Refundable: true, Voidable: true,
	},
	TransactionTypeIDebitPayin:        {Name: TransactionTypeIDebitPayin},
	TransactionTypeInstaDebitPayin:    {Name: TransactionTypeInstaDebitPayin},
	TransactionTypeOnlineBankingPayin: {Name: TransactionTypeOnlineBankingPayin},
	TransactionTypePaysafecard:        {Name: TransactionTypePaysafecard},
	TransactionTypePPRO:               {Name: TransactionTypePPRO},
	TransactionTypeCheckout:           {Name: TransactionTypeCheckout},
	TransactionTypeSDDInitRecurring:   {Name: TransactionTypeSDDInitRecurring},
}

// CardTypeOrder is the order card types are presented to the hosted payment page
var CardTypeOrder = []TransactionType{
	TransactionTypeAuthorize,
	TransactionTypeAuthorize3D,
	TransactionTypeSale,
	TransactionTypeSale3D,
	TransactionTypeInitRecurringSale,
	TransactionTypeInitRecurringSale3D,
}

// Describe returns the descriptor for t; unknown types carry no capabilities
func (t TransactionType) Describe() TypeDescriptor {
	if d, ok := TransactionTypes[t]; ok {
		return d
	}
	return TypeDescriptor{Name: t}
}

// IsKnown reports whether t is in the closed type table
func (t TransactionType) IsKnown() bool {
	_, ok := TransactionTypes[t]
	return ok
}

// IsRecurringInit reports init_recurring_sale and its 3D variant
func (t TransactionType) IsRecurringInit() bool {
	return t.Describe().Recurring
}

// TypesWhere lists the known types matching pred, in stable order
func TypesWhere(pred func(TypeDescriptor) bool) []TransactionType {
	out := make([]TransactionType, 0)
	for _, name := range typeOrder {
		if pred(TransactionTypes[name]) {
			out = append(out, name)
		}
	}
	return out
}

var typeOrder = []TransactionType{
	TransactionTypeCheckout,
	TransactionTypeAuthorize,
	TransactionTypeAuthorize3D,
	TransactionTypeSale,
	TransactionTypeSale3D,
	TransactionTypeInitRecurringSale,
	TransactionTypeInitRecurringSale3D,
	TransactionTypeRecurringSale,
	TransactionTypeCapture,
	TransactionTypeRefund,
	TransactionTypeVoid,
	TransactionTypeGooglePay,
	TransactionTypePayPal,
	TransactionTypeApplePay,
	TransactionTypePPRO,
	TransactionTypeInvoice,
	TransactionTypeInvoiceCapture,
	TransactionTypeInvoiceRefund,
	TransactionTypeKlarnaAuthorize,
	TransactionTypeKlarnaCapture,
	TransactionTypeKlarnaRefund,
	TransactionTypeBitpaySale,
	TransactionTypeBitpayRefund,
	TransactionTypeTrustlySale,
	TransactionTypeIDebitPayin,
	TransactionTypeInstaDebitPayin,
	TransactionTypeOnlineBankingPayin,
	TransactionTypePaysafecard,
	TransactionTypeSDDInitRecurring,
}
