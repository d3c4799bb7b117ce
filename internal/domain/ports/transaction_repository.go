package ports

import (
	"context"

	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/shopspring/decimal"
)

// TransactionFilter selects ledger rows of one order.
// ReferenceID is ignored when empty or "0"; Types match with OR semantics.
type TransactionFilter struct {
	ReferenceID string
	Status      domain.TransactionStatus
	Types       []domain.TransactionType
	OrderID     int64
}

// TransactionRepository persists the module transaction ledger
type TransactionRepository interface {
	// Save inserts the row or updates the supplied fields of an existing row, atomically
	Save(ctx context.Context, db DBTX, tx domain.TransactionUpsert) error

	// FindByID returns domain.ErrTransactionNotFound when no row exists
	FindByID(ctx context.Context, db DBTX, uniqueID string) (*domain.Transaction, error)

	// FindByOrder returns every row of an order, unordered
	FindByOrder(ctx context.Context, db DBTX, orderID int64) ([]domain.Transaction, error)

	// FindByTypeAndStatus returns the rows matching filter
	FindByTypeAndStatus(ctx context.Context, db DBTX, filter TransactionFilter) ([]domain.Transaction, error)

	// SumAmount sums the amount of rows matching filter.
	// It returns domain.ErrCurrencyMismatch when matched rows disagree on currency.
	SumAmount(ctx context.Context, db DBTX, filter TransactionFilter) (decimal.Decimal, error)
}
