package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the gateway-reported state of a transaction
type TransactionStatus string

const (
	TransactionStatusApproved     TransactionStatus = "approved"
	TransactionStatusDeclined     TransactionStatus = "declined"
	TransactionStatusError        TransactionStatus = "error"
	TransactionStatusPending      TransactionStatus = "pending"
	TransactionStatusPendingAsync TransactionStatus = "pending_async"
	TransactionStatusNew          TransactionStatus = "new"
	TransactionStatusInProgress   TransactionStatus = "in_progress"
	TransactionStatusUser         TransactionStatus = "user"
	TransactionStatusTimeout      TransactionStatus = "timeout"
	TransactionStatusVoided       TransactionStatus = "voided"
	TransactionStatusRefunded     TransactionStatus = "refunded"
	TransactionStatusChargebacked TransactionStatus = "chargebacked"
	TransactionStatusUnsuccessful TransactionStatus = "unsuccessful"
)

// IsApproved reports whether the gateway approved the transaction
func (s TransactionStatus) IsApproved() bool {
	return s == TransactionStatusApproved
}

// IsTerminalFailure reports the statuses that move an order to its failure status
func (s TransactionStatus) IsTerminalFailure() bool {
	return s == TransactionStatusDeclined || s == TransactionStatusError
}

// IsTerminal reports statuses that end an order-history relevant lifecycle step
func (s TransactionStatus) IsTerminal() bool {
	return s.IsApproved() || s.IsTerminalFailure()
}

// NoReference is the sentinel stored in reference_id for root transactions
const NoReference = "0"

// IsRootReference reports whether a reference_id value means "no parent"
func IsRootReference(ref string) bool {
	return ref == "" || ref == NoReference
}

// Transaction is one row of the module transaction ledger
type Transaction struct {
	Timestamp        time.Time         `json:"timestamp"`
	Message          *string           `json:"message"`
	TechnicalMessage *string           `json:"technical_message"`
	TerminalToken    *string           `json:"terminal_token"`
	Amount           decimal.Decimal   `json:"amount"`
	UniqueID         string            `json:"unique_id"`
	ReferenceID      string            `json:"reference_id"`
	Type             TransactionType   `json:"type"`
	Mode             string            `json:"mode"`
	Status           TransactionStatus `json:"status"`
	Currency         string            `json:"currency"`
	OrderID          int64             `json:"order_id"`
}

// IsRoot returns true when the transaction has no parent
func (t *Transaction) IsRoot() bool {
	return IsRootReference(t.ReferenceID)
}

// IsApproved returns true if the transaction was approved by the gateway
func (t *Transaction) IsApproved() bool {
	return t.Status.IsApproved()
}

// GetTerminalToken safely retrieves the terminal token
func (t *Transaction) GetTerminalToken() string {
	if t.TerminalToken != nil {
		return *t.TerminalToken
	}
	return ""
}

// GetMessage safely retrieves the gateway message
func (t *Transaction) GetMessage() string {
	if t.Message != nil {
		return *t.Message
	}
	return ""
}

// Upsert returns a write model supplying every field of t
func (t *Transaction) Upsert() TransactionUpsert {
	u := TransactionUpsert{
		UniqueID:         t.UniqueID,
		ReferenceID:      String(t.ReferenceID),
		OrderID:          Int64(t.OrderID),
		Type:             TypeRef(t.Type),
		Mode:             String(t.Mode),
		Status:           StatusRef(t.Status),
		Message:          t.Message,
		TechnicalMessage: t.TechnicalMessage,
		TerminalToken:    t.TerminalToken,
		Currency:         String(t.Currency),
	}
	if !t.Timestamp.IsZero() {
		ts := t.Timestamp
		u.Timestamp = &ts
	}
	amount := t.Amount
	u.Amount = &amount
	return u
}

// TransactionUpsert is the write model for the ledger.
// Nil fields are left untouched on an existing row.
type TransactionUpsert struct {
	Timestamp        *time.Time
	Message          *string
	TechnicalMessage *string
	TerminalToken    *string
	Amount           *decimal.Decimal
	ReferenceID      *string
	OrderID          *int64
	Type             *TransactionType
	Mode             *string
	Status           *TransactionStatus
	Currency         *string
	UniqueID         string
}

// String returns a pointer to s, or nil when s is empty
func String(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences s, returning "" for nil
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Int64 returns a pointer to v, or nil when v is zero
func Int64(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}

// TypeRef returns a pointer to t, or nil when t is empty
func TypeRef(t TransactionType) *TransactionType {
	if t == "" {
		return nil
	}
	return &t
}

// StatusRef returns a pointer to s, or nil when s is empty
func StatusRef(s TransactionStatus) *TransactionStatus {
	if s == "" {
		return nil
	}
	return &s
}

// Decimal returns a pointer to d
func Decimal(d decimal.Decimal) *decimal.Decimal {
	return &d
}

// SumAmounts adds the amounts of txs.
// Rows with an empty currency are counted; rows disagreeing on a non-empty currency fail closed.
func SumAmounts(txs []Transaction) (decimal.Decimal, string, error) {
	total := decimal.Zero
	currency := ""
	for i := range txs {
		c := txs[i].Currency
		if c != "" {
			if currency != "" && c != currency {
				return decimal.Zero, "", ErrCurrencyMismatch.WithDetail("currencies", []string{currency, c})
			}
			currency = c
		}
		total = total.Add(txs[i].Amount)
	}
	return total, currency, nil
}
