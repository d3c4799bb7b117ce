package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/kevin07696/genesis-reconciliation/internal/domain/ports"
	"github.com/kevin07696/genesis-reconciliation/internal/services/ledger"
	"github.com/kevin07696/genesis-reconciliation/test/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newStore() (*ledger.Store, *mocks.TransactionRepository) {
	repo := new(mocks.TransactionRepository)
	return ledger.NewStore(repo, "emerchantpay_checkout", mocks.NopLogger{}), repo
}

func TestStore_FindByIDHidesStorageErrors(t *testing.T) {
	ctx := context.Background()
	store, repo := newStore()

	repo.On("FindByID", ctx, nil, "broken").Return(nil, errors.New("connection reset"))
	repo.On("FindByID", ctx, nil, "missing").Return(nil, domain.ErrTransactionNotFound)
	repo.On("FindByID", ctx, nil, "ok").Return(&domain.Transaction{UniqueID: "ok", OrderID: 7}, nil)

	_, err := store.FindByID(ctx, "broken")
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)

	_, err = store.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)

	tx, err := store.FindByID(ctx, "ok")
	require.NoError(t, err)
	assert.Equal(t, int64(7), tx.OrderID)

	_, err = store.FindByID(ctx, "")
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
	repo.AssertNumberOfCalls(t, "FindByID", 3)
}

func TestStore_SumAmount(t *testing.T) {
	ctx := context.Background()

	t.Run("storage failure sums to zero", func(t *testing.T) {
		store, repo := newStore()
		repo.On("SumAmount", ctx, nil, mock.Anything).Return(decimal.Zero, errors.New("timeout"))

		sum, err := store.SumAmount(ctx, ports.TransactionFilter{OrderID: 1})
		require.NoError(t, err)
		assert.True(t, sum.IsZero())
	})

	t.Run("currency mismatch propagates", func(t *testing.T) {
		store, repo := newStore()
		repo.On("SumAmount", ctx, nil, mock.Anything).Return(decimal.Zero, domain.ErrCurrencyMismatch)

		_, err := store.SumAmount(ctx, ports.TransactionFilter{OrderID: 1})
		assert.ErrorIs(t, err, domain.ErrCurrencyMismatch)
	})
}

func TestStore_SaveRequiresUniqueID(t *testing.T) {
	store, repo := newStore()

	err := store.Save(context.Background(), domain.TransactionUpsert{})
	assert.True(t, domain.IsValidationError(err))
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestStore_ListsDegradeToEmpty(t *testing.T) {
	ctx := context.Background()
	store, repo := newStore()
	repo.On("FindByOrder", ctx, nil, int64(3)).Return(nil, errors.New("boom"))
	repo.On("FindByTypeAndStatus", ctx, nil, mock.Anything).Return(nil, errors.New("boom"))

	assert.Empty(t, store.FindByOrder(ctx, 3))
	assert.Empty(t, store.FindByTypeAndStatus(ctx, ports.TransactionFilter{OrderID: 3}))
}
