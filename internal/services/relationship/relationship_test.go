package relationship

import (
	"testing"
	"time"

	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func at(minutes int) time.Time { return base.Add(time.Duration(minutes) * time.Minute) }

func tx(id, ref string, typ domain.TransactionType, status domain.TransactionStatus, amount string, ts time.Time) domain.Transaction {
	return domain.Transaction{
		UniqueID:    id,
		ReferenceID: ref,
		Type:        typ,
		Status:      status,
		Amount:      decimal.RequireFromString(amount),
		Currency:    "EUR",
		Timestamp:   ts,
		OrderID:     42,
	}
}

func ids(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Transaction.UniqueID
	}
	return out
}

func fullPolicy(t *testing.T, keys ...string) Policy {
	t.Helper()
	variants, err := domain.NewVariantTable(append([]string{"authorize"}, keys...))
	require.NoError(t, err)
	return Policy{Variants: variants, PartialCapture: true, PartialRefund: true, Void: true}
}

func TestBuildTree(t *testing.T) {
	a := tx("A", "0", domain.TransactionTypeAuthorize, domain.TransactionStatusApproved, "10", at(1))
	b := tx("B", "A", domain.TransactionTypeCapture, domain.TransactionStatusApproved, "5", at(2))
	c := tx("C", "B", domain.TransactionTypeRefund, domain.TransactionStatusApproved, "1", at(3))
	d := tx("D", "A", domain.TransactionTypeCapture, domain.TransactionStatusApproved, "5", at(4))

	tests := []struct {
		name  string
		input []domain.Transaction
		want  []string
	}{
		{name: "chronological input", input: []domain.Transaction{a, b, c, d}, want: []string{"A", "B", "C", "D"}},
		{name: "shuffled input", input: []domain.Transaction{d, c, a, b}, want: []string{"A", "B", "C", "D"}},
		{
			name: "descendant later than sibling",
			// C is timestamped after D but still follows its parent B
			input: []domain.Transaction{
				a, b, d,
				tx("C", "B", domain.TransactionTypeRefund, domain.TransactionStatusApproved, "1", at(9)),
			},
			want: []string{"A", "B", "C", "D"},
		},
		{
			name: "orphan becomes root",
			input: []domain.Transaction{
				a,
				tx("X", "gone", domain.TransactionTypeRefund, domain.TransactionStatusApproved, "1", at(0)),
			},
			want: []string{"X", "A"},
		},
		{
			name: "equal timestamps keep input order",
			input: []domain.Transaction{
				tx("R2", "0", domain.TransactionTypeSale, domain.TransactionStatusApproved, "1", at(1)),
				tx("R1", "", domain.TransactionTypeSale, domain.TransactionStatusApproved, "1", at(1)),
			},
			want: []string{"R2", "R1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(BuildTree(tt.input)))
		})
	}
}

func TestBuildTree_Depth(t *testing.T) {
	nodes := BuildTree([]domain.Transaction{
		tx("A", "0", domain.TransactionTypeAuthorize, domain.TransactionStatusApproved, "10", at(1)),
		tx("B", "A", domain.TransactionTypeCapture, domain.TransactionStatusApproved, "5", at(2)),
		tx("C", "B", domain.TransactionTypeRefund, domain.TransactionStatusApproved, "1", at(3)),
	})
	require.Len(t, nodes, 3)
	assert.Equal(t, 0, nodes[0].Depth)
	assert.Equal(t, 1, nodes[1].Depth)
	assert.Equal(t, 2, nodes[2].Depth)
}

func TestBuildTree_CycleDoesNotLoop(t *testing.T) {
	nodes := BuildTree([]domain.Transaction{
		tx("P", "Q", domain.TransactionTypeCapture, domain.TransactionStatusApproved, "1", at(1)),
		tx("Q", "P", domain.TransactionTypeCapture, domain.TransactionStatusApproved, "1", at(2)),
	})
	assert.ElementsMatch(t, []string{"P", "Q"}, ids(nodes))
}

func TestBuildTree_DoesNotMutateInput(t *testing.T) {
	input := []domain.Transaction{
		tx("B", "A", domain.TransactionTypeCapture, domain.TransactionStatusApproved, "5", at(2)),
		tx("A", "0", domain.TransactionTypeAuthorize, domain.TransactionStatusApproved, "10", at(1)),
	}
	BuildTree(input)
	assert.Equal(t, "B", input[0].UniqueID)
}

func TestEvaluate_VoidBlocksRefund(t *testing.T) {
	capture := tx("X", "A", domain.TransactionTypeCapture, domain.TransactionStatusApproved, "30", at(2))
	all := []domain.Transaction{
		tx("A", "0", domain.TransactionTypeAuthorize, domain.TransactionStatusApproved, "30", at(1)),
		capture,
		tx("V", "X", domain.TransactionTypeVoid, domain.TransactionStatusApproved, "0", at(3)),
	}

	e := Evaluate(capture, all, fullPolicy(t))
	assert.True(t, e.VoidExists)
	assert.False(t, e.CanRefund)
	assert.False(t, e.CanVoid)
	assert.True(t, e.AvailableRefund.IsZero())

	modal, err := ModalForm(domain.ActionRefund, capture, all, fullPolicy(t))
	require.NoError(t, err)
	assert.True(t, modal.Amount.IsZero())
	assert.False(t, modal.IsAllowed)
}

func TestEvaluate_DeclinedVoidDoesNotBlock(t *testing.T) {
	capture := tx("X", "A", domain.TransactionTypeCapture, domain.TransactionStatusApproved, "30", at(2))
	all := []domain.Transaction{
		capture,
		tx("V", "X", domain.TransactionTypeVoid, domain.TransactionStatusDeclined, "0", at(3)),
	}

	e := Evaluate(capture, all, fullPolicy(t))
	assert.False(t, e.VoidExists)
	assert.True(t, e.CanRefund)
	assert.True(t, e.CanVoid)
	assert.Equal(t, "30", e.AvailableRefund.String())
}

func TestEvaluate_CaptureScenario(t *testing.T) {
	auth := tx("abc123", "0", domain.TransactionTypeAuthorize, domain.TransactionStatusApproved, "49.99", at(1))

	e := Evaluate(auth, []domain.Transaction{auth}, fullPolicy(t))
	assert.True(t, e.CanCapture)
	assert.Equal(t, "49.99", e.AvailableCapture.String())
	assert.False(t, e.CanRefund, "authorize is not refundable")

	capture := tx("cap456", "abc123", domain.TransactionTypeCapture, domain.TransactionStatusApproved, "49.99", at(2))
	all := []domain.Transaction{auth, capture}

	e = Evaluate(auth, all, fullPolicy(t))
	assert.False(t, e.CanCapture, "fully captured")
	assert.True(t, e.AvailableCapture.IsZero())

	e = Evaluate(capture, all, fullPolicy(t))
	assert.True(t, e.CanRefund)
	assert.Equal(t, "49.99", e.AvailableRefund.String())
}

func TestEvaluate_PartialCaptureAndRefund(t *testing.T) {
	auth := tx("A", "0", domain.TransactionTypeAuthorize, domain.TransactionStatusApproved, "100", at(1))
	capture := tx("C1", "A", domain.TransactionTypeCapture, domain.TransactionStatusApproved, "60", at(2))
	refund := tx("R1", "C1", domain.TransactionTypeRefund, domain.TransactionStatusApproved, "20", at(3))
	declined := tx("R2", "C1", domain.TransactionTypeRefund, domain.TransactionStatusDeclined, "40", at(4))
	all := []domain.Transaction{auth, capture, refund, declined}

	e := Evaluate(auth, all, fullPolicy(t))
	assert.Equal(t, "40", e.AvailableCapture.String())

	e = Evaluate(capture, all, fullPolicy(t))
	assert.Equal(t, "40", e.AvailableRefund.String())
}

func TestEvaluate_WalletGating(t *testing.T) {
	pp := tx("P", "0", domain.TransactionTypePayPal, domain.TransactionStatusApproved, "10", at(1))

	tests := []struct {
		name        string
		keys        []string
		wantCapture bool
		wantRefund  bool
	}{
		{name: "authorize sub-type", keys: []string{"pay_pal_authorize"}, wantCapture: true},
		{name: "sale sub-type", keys: []string{"pay_pal_sale"}, wantRefund: true},
		{name: "express sub-type", keys: []string{"pay_pal_express"}, wantRefund: true},
		{name: "no pay_pal configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Evaluate(pp, []domain.Transaction{pp}, fullPolicy(t, tt.keys...))
			assert.Equal(t, tt.wantCapture, e.CanCapture)
			assert.Equal(t, tt.wantRefund, e.CanRefund)
		})
	}
}

func TestEvaluate_CurrencyMismatchFailsClosed(t *testing.T) {
	auth := tx("A", "0", domain.TransactionTypeAuthorize, domain.TransactionStatusApproved, "100", at(1))
	other := tx("B", "0", domain.TransactionTypeAuthorize, domain.TransactionStatusApproved, "100", at(2))
	other.Currency = "USD"

	e := Evaluate(auth, []domain.Transaction{auth, other}, fullPolicy(t))
	assert.False(t, e.CanCapture)
	assert.Equal(t, ReasonCurrencyMismatch, e.Reason)
}

func TestEvaluate_NotApproved(t *testing.T) {
	sale := tx("S", "0", domain.TransactionTypeSale, domain.TransactionStatusPendingAsync, "10", at(1))
	e := Evaluate(sale, []domain.Transaction{sale}, fullPolicy(t))
	assert.False(t, e.CanRefund)
	assert.False(t, e.CanVoid)
	assert.False(t, e.CanCapture)
}

func TestEvaluate_VoidDisabled(t *testing.T) {
	sale := tx("S", "0", domain.TransactionTypeSale, domain.TransactionStatusApproved, "10", at(1))
	policy := fullPolicy(t)
	policy.Void = false

	assert.False(t, Evaluate(sale, []domain.Transaction{sale}, policy).CanVoid)
}

func TestModalForm(t *testing.T) {
	auth := tx("A", "0", domain.TransactionTypeAuthorize, domain.TransactionStatusApproved, "25", at(1))
	policy := fullPolicy(t)
	policy.PartialCapture = false

	m, err := ModalForm(domain.ActionCapture, auth, []domain.Transaction{auth}, policy)
	require.NoError(t, err)
	assert.True(t, m.IsAllowed)
	assert.False(t, m.Partial)
	assert.Equal(t, "25", m.Amount.String())
	assert.Equal(t, "EUR", m.Currency)

	m, err = ModalForm(domain.ActionVoid, auth, []domain.Transaction{auth}, policy)
	require.NoError(t, err)
	assert.True(t, m.IsAllowed)

	_, err = ModalForm("settle", auth, nil, policy)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestResolve(t *testing.T) {
	rows := Resolve([]domain.Transaction{
		tx("B", "A", domain.TransactionTypeCapture, domain.TransactionStatusApproved, "10", at(2)),
		tx("A", "0", domain.TransactionTypeAuthorize, domain.TransactionStatusApproved, "10", at(1)),
	}, fullPolicy(t))

	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0].Transaction.UniqueID)
	assert.False(t, rows[0].CanCapture)
	assert.True(t, rows[1].CanRefund)
	assert.Equal(t, 1, rows[1].Depth)
}
