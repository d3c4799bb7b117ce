package relationship

import (
	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/shopspring/decimal"
)

// Modal is the data behind the capture, refund or void dialog
type Modal struct {
	Amount      decimal.Decimal   `json:"amount"`
	Action      domain.ActionKind `json:"type"`
	ReferenceID string            `json:"reference_id"`
	Currency    string            `json:"currency"`
	Reason      string            `json:"reason,omitempty"`
	IsAllowed   bool              `json:"is_allowed"`
	// Partial reports whether the operator may change the prefilled amount
	Partial bool `json:"partial"`
}

// ModalForm computes the dialog for action against tx
func ModalForm(action domain.ActionKind, tx domain.Transaction, all []domain.Transaction, policy Policy) (Modal, error) {
	m := Modal{Action: action, ReferenceID: tx.UniqueID, Currency: tx.Currency}
	e := Evaluate(tx, all, policy)
	m.Reason = e.Reason

	switch action {
	case domain.ActionCapture:
		m.Amount = e.AvailableCapture
		m.IsAllowed = e.CanCapture
		m.Partial = policy.PartialCapture
	case domain.ActionRefund:
		m.Amount = e.AvailableRefund
		m.IsAllowed = e.CanRefund
		m.Partial = policy.PartialRefund
	case domain.ActionVoid:
		m.IsAllowed = e.CanVoid
	default:
		return Modal{}, domain.ErrInvalidRequest.WithDetail("type", string(action))
	}
	return m, nil
}
