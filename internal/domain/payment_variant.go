package domain

import (
	"fmt"
	"sort"
	"strings"
)

// VariantKind tags the PaymentVariant union
type VariantKind int

const (
	// VariantPlain is a standalone gateway transaction type such as sale3d
	VariantPlain VariantKind = iota
	// VariantWallet is a google_pay, pay_pal or apple_pay sub-type
	VariantWallet
	// VariantPPRO is an alternative payment method routed through ppro
	VariantPPRO
)

const pproSuffix = "_ppro"

// PaymentVariant is one configured entry of the enabled transaction types
type PaymentVariant struct {
	// Key is the configured name, e.g. pay_pal_express
	Key string
	// Parent is the gateway transaction type sent on the wire
	Parent TransactionType
	// ParamKey is the custom attribute name carried with Parent, empty for plain types
	ParamKey string
	// ParamValue is the sub-type value carried under ParamKey
	ParamValue string
	Kind       VariantKind
}

type walletSubtype struct {
	parent   TransactionType
	paramKey string
	value    string
}

var walletSubtypes = map[string]walletSubtype{
	"google_pay_authorize": {TransactionTypeGooglePay, "payment_subtype", "authorize"},
	"google_pay_sale":      {TransactionTypeGooglePay, "payment_subtype", "sale"},
	"pay_pal_authorize":    {TransactionTypePayPal, "payment_type", "authorize"},
	"pay_pal_sale":         {TransactionTypePayPal, "payment_type", "sale"},
	"pay_pal_express":      {TransactionTypePayPal, "payment_type", "express"},
	"apple_pay_authorize":  {TransactionTypeApplePay, "payment_subtype", "authorize"},
	"apple_pay_sale":       {TransactionTypeApplePay, "payment_subtype", "sale"},
}

// ParsePaymentVariant resolves a configured transaction type name into its variant
func ParsePaymentVariant(key string) (PaymentVariant, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return PaymentVariant{}, fmt.Errorf("empty transaction type")
	}
	if w, ok := walletSubtypes[key]; ok {
		return PaymentVariant{Key: key, Parent: w.parent, ParamKey: w.paramKey, ParamValue: w.value, Kind: VariantWallet}, nil
	}
	if strings.HasSuffix(key, pproSuffix) {
		method := strings.TrimSuffix(key, pproSuffix)
		if method == "" {
			return PaymentVariant{}, fmt.Errorf("ppro variant %q has no payment method", key)
		}
		return PaymentVariant{Key: key, Parent: TransactionTypePPRO, ParamKey: "payment_method", ParamValue: method, Kind: VariantPPRO}, nil
	}
	t := TransactionType(key)
	if !t.IsKnown() {
		return PaymentVariant{}, fmt.Errorf("unknown transaction type %q", key)
	}
	return PaymentVariant{Key: key, Parent: t, Kind: VariantPlain}, nil
}

// VariantTable is the typed form of the enabled transaction types
type VariantTable struct {
	byKey    map[string]PaymentVariant
	variants []PaymentVariant
}

// NewVariantTable parses every configured key once
func NewVariantTable(keys []string) (*VariantTable, error) {
	t := &VariantTable{byKey: make(map[string]PaymentVariant, len(keys))}
	for _, k := range keys {
		v, err := ParsePaymentVariant(k)
		if err != nil {
			return nil, err
		}
		if _, dup := t.byKey[v.Key]; dup {
			continue
		}
		t.byKey[v.Key] = v
		t.variants = append(t.variants, v)
	}
	return t, nil
}

// Has reports whether a configured key is enabled
func (t *VariantTable) Has(key string) bool {
	if t == nil {
		return false
	}
	_, ok := t.byKey[key]
	return ok
}

// Len returns the number of enabled variants
func (t *VariantTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.variants)
}

// PermitsCapture reports whether the configured wallet sub-types allow capturing txType
func (t *VariantTable) PermitsCapture(txType TransactionType) bool {
	switch txType {
	case TransactionTypeGooglePay:
		return t.Has("google_pay_authorize")
	case TransactionTypePayPal:
		return t.Has("pay_pal_authorize")
	case TransactionTypeApplePay:
		return t.Has("apple_pay_authorize")
	}
	return true
}

// PermitsRefund reports whether the configured wallet sub-types allow refunding txType
func (t *VariantTable) PermitsRefund(txType TransactionType) bool {
	switch txType {
	case TransactionTypeGooglePay:
		return t.Has("google_pay_sale")
	case TransactionTypePayPal:
		return t.Has("pay_pal_sale") || t.Has("pay_pal_express")
	case TransactionTypeApplePay:
		return t.Has("apple_pay_sale")
	}
	return true
}

// RequestType is one transaction_types entry of a hosted page request
type RequestType struct {
	Name       TransactionType
	Parameters []map[string]string
}

// RequestTypes produces the hosted page transaction_types list.
// Card types come first in canonical order; wallet and ppro variants fold into their parent.
func (t *VariantTable) RequestTypes() []RequestType {
	if t == nil {
		return nil
	}
	rank := make(map[TransactionType]int, len(CardTypeOrder))
	for i, ct := range CardTypeOrder {
		rank[ct] = i
	}

	cards := make([]RequestType, 0)
	rest := make([]RequestType, 0)
	folded := make(map[TransactionType]int)

	for _, v := range t.variants {
		if v.Kind == VariantPlain {
			if _, ok := rank[v.Parent]; ok {
				cards = append(cards, RequestType{Name: v.Parent})
			} else {
				rest = append(rest, RequestType{Name: v.Parent})
			}
			continue
		}
		idx, ok := folded[v.Parent]
		if !ok {
			rest = append(rest, RequestType{Name: v.Parent})
			idx = len(rest) - 1
			folded[v.Parent] = idx
		}
		rest[idx].Parameters = append(rest[idx].Parameters, map[string]string{v.ParamKey: v.ParamValue})
	}

	sort.SliceStable(cards, func(i, j int) bool { return rank[cards[i].Name] < rank[cards[j].Name] })
	return append(cards, rest...)
}
