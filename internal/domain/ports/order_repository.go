package ports

import (
	"context"

	"github.com/kevin07696/genesis-reconciliation/internal/domain"
)

// OrderRepository reaches the store's order tables
type OrderRepository interface {
	GetOrder(ctx context.Context, orderID int64) (*domain.Order, error)

	// ApplyStatus sets the order status and appends a history row.
	// It returns false without writing when the latest history row already records
	// the same status and comment, so redelivered notifications do not duplicate history.
	ApplyStatus(ctx context.Context, update domain.OrderStatusUpdate) (bool, error)

	ListProducts(ctx context.Context, orderID int64) ([]domain.OrderProduct, error)
	ListTotals(ctx context.Context, orderID int64) ([]domain.OrderTotal, error)
}

// RecurringRepository reaches the store's subscription tables
type RecurringRepository interface {
	// FindByOrder returns domain.ErrRecurringNotFound for non-recurring orders
	FindByOrder(ctx context.Context, orderID int64) (*domain.RecurringOrder, error)

	// Link records the init recurring transaction as the subscription reference
	Link(ctx context.Context, orderID int64, reference string, status domain.RecurringStatus) error

	// AddTransaction is a no-op when the subscription already has an entry of the same type and reference
	AddTransaction(ctx context.Context, tx domain.RecurringTransaction) error

	// Cancel marks every subscription of the order cancelled
	Cancel(ctx context.Context, orderID int64) error
}
