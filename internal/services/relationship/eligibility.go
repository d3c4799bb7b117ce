package relationship

import (
	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/shopspring/decimal"
)

// Policy carries the configured action capabilities of a module variant
type Policy struct {
	Variants       *domain.VariantTable
	PartialCapture bool
	PartialRefund  bool
	Void           bool
}

// Eligibility holds the computed action flags of one transaction
type Eligibility struct {
	AvailableCapture decimal.Decimal
	AvailableRefund  decimal.Decimal
	Currency         string
	// Reason is set when an amount could not be computed and the actions were closed
	Reason     string
	CanCapture bool
	CanRefund  bool
	CanVoid    bool
	VoidExists bool
}

// ReasonCurrencyMismatch closes capture and refund when related rows disagree on currency
const ReasonCurrencyMismatch = "currency mismatch"

func matching(all []domain.Transaction, reference string, status domain.TransactionStatus, pred func(domain.TypeDescriptor) bool) []domain.Transaction {
	out := make([]domain.Transaction, 0)
	for i := range all {
		tx := all[i]
		if tx.Status != status {
			continue
		}
		if !domain.IsRootReference(reference) && tx.ReferenceID != reference {
			continue
		}
		if pred(tx.Type.Describe()) {
			out = append(out, tx)
		}
	}
	return out
}

func isAuthorize(d domain.TypeDescriptor) bool { return d.AuthorizeClass }
func isCapture(d domain.TypeDescriptor) bool   { return d.CaptureClass }
func isRefund(d domain.TypeDescriptor) bool    { return d.RefundClass }
func isVoid(d domain.TypeDescriptor) bool      { return d.Name == domain.TransactionTypeVoid }

// HasApprovedVoid reports whether an approved void references uniqueID
func HasApprovedVoid(all []domain.Transaction, uniqueID string) bool {
	if uniqueID == "" {
		return false
	}
	return len(matching(all, uniqueID, domain.TransactionStatusApproved, isVoid)) > 0
}

// AvailableCapture is the approved authorized amount of the transaction's level minus
// the approved captures already referencing it
func AvailableCapture(tx domain.Transaction, all []domain.Transaction) (decimal.Decimal, string, error) {
	authorized, currency, err := domain.SumAmounts(matching(all, tx.ReferenceID, domain.TransactionStatusApproved, isAuthorize))
	if err != nil {
		return decimal.Zero, "", err
	}
	captured, capCurrency, err := domain.SumAmounts(matching(all, tx.UniqueID, domain.TransactionStatusApproved, isCapture))
	if err != nil {
		return decimal.Zero, "", err
	}
	if currency != "" && capCurrency != "" && currency != capCurrency {
		return decimal.Zero, "", domain.ErrCurrencyMismatch.WithDetail("currencies", []string{currency, capCurrency})
	}
	return clampZero(authorized.Sub(captured)), currency, nil
}

// AvailableRefund is the transaction amount minus approved refunds referencing it,
// or zero once an approved void exists
func AvailableRefund(tx domain.Transaction, all []domain.Transaction) (decimal.Decimal, string, error) {
	if HasApprovedVoid(all, tx.UniqueID) {
		return decimal.Zero, tx.Currency, nil
	}
	refunds := matching(all, tx.UniqueID, domain.TransactionStatusApproved, isRefund)
	refunded, currency, err := domain.SumAmounts(refunds)
	if err != nil {
		return decimal.Zero, "", err
	}
	if currency != "" && tx.Currency != "" && currency != tx.Currency {
		return decimal.Zero, "", domain.ErrCurrencyMismatch.WithDetail("currencies", []string{tx.Currency, currency})
	}
	return clampZero(tx.Amount.Sub(refunded)), tx.Currency, nil
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Evaluate computes the action flags of tx against the other rows of its order
func Evaluate(tx domain.Transaction, all []domain.Transaction, policy Policy) Eligibility {
	d := tx.Type.Describe()
	approved := tx.IsApproved()

	e := Eligibility{Currency: tx.Currency, VoidExists: HasApprovedVoid(all, tx.UniqueID)}

	e.CanVoid = policy.Void && approved && d.Voidable && !e.VoidExists

	if approved && d.Capturable && policy.Variants.PermitsCapture(tx.Type) && !e.VoidExists {
		amount, _, err := AvailableCapture(tx, all)
		if err != nil {
			e.Reason = ReasonCurrencyMismatch
		} else {
			e.AvailableCapture = amount
			e.CanCapture = amount.IsPositive()
		}
	}

	if approved && d.Refundable && policy.Variants.PermitsRefund(tx.Type) && !e.VoidExists {
		amount, _, err := AvailableRefund(tx, all)
		if err != nil {
			e.Reason = ReasonCurrencyMismatch
		} else {
			e.AvailableRefund = amount
			e.CanRefund = amount.IsPositive()
		}
	}
	return e
}

// Row is a tree node with its computed flags
type Row struct {
	Node
	Eligibility
}

// Resolve builds the tree and evaluates every row
func Resolve(txs []domain.Transaction, policy Policy) []Row {
	nodes := BuildTree(txs)
	rows := make([]Row, len(nodes))
	for i, n := range nodes {
		rows[i] = Row{Node: n, Eligibility: Evaluate(n.Transaction, txs, policy)}
	}
	return rows
}
