package ledger

import (
	"context"
	"errors"

	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/kevin07696/genesis-reconciliation/internal/domain/ports"
	"github.com/shopspring/decimal"
)

// Store is the transaction ledger of one module variant.
// Read failures are logged and reported as not found or zero; writes still return their error
// so the notification path can withhold its acknowledgement.
type Store struct {
	repo   ports.TransactionRepository
	logger ports.Logger
	module string
}

// NewStore binds a ledger to the repository of one module variant
func NewStore(repo ports.TransactionRepository, module string, logger ports.Logger) *Store {
	return &Store{repo: repo, module: module, logger: logger}
}

// Module returns the module variant name the store is bound to
func (s *Store) Module() string {
	return s.module
}

// Save upserts a row by unique id. Only supplied fields overwrite an existing row.
func (s *Store) Save(ctx context.Context, u domain.TransactionUpsert) error {
	if u.UniqueID == "" {
		return domain.ErrValidationMissingField.WithDetail("field", "unique_id")
	}
	if err := s.repo.Save(ctx, nil, u); err != nil {
		s.logger.Error("Failed to save transaction",
			ports.String("module", s.module),
			ports.String("unique_id", u.UniqueID),
			ports.Err(err))
		return err
	}
	return nil
}

// FindByID returns domain.ErrTransactionNotFound for missing rows and for storage failures
func (s *Store) FindByID(ctx context.Context, uniqueID string) (*domain.Transaction, error) {
	if uniqueID == "" {
		return nil, domain.ErrTransactionNotFound
	}
	tx, err := s.repo.FindByID(ctx, nil, uniqueID)
	if err != nil {
		if !errors.Is(err, domain.ErrTransactionNotFound) {
			s.logger.Error("Failed to load transaction",
				ports.String("module", s.module),
				ports.String("unique_id", uniqueID),
				ports.Err(err))
		}
		return nil, domain.ErrTransactionNotFound
	}
	return tx, nil
}

// FindByOrder returns every row of an order, or none when storage fails
func (s *Store) FindByOrder(ctx context.Context, orderID int64) []domain.Transaction {
	txs, err := s.repo.FindByOrder(ctx, nil, orderID)
	if err != nil {
		s.logger.Error("Failed to list order transactions",
			ports.String("module", s.module),
			ports.Int64("order_id", orderID),
			ports.Err(err))
		return nil
	}
	return txs
}

// FindByTypeAndStatus returns the matching rows, or none when storage fails
func (s *Store) FindByTypeAndStatus(ctx context.Context, filter ports.TransactionFilter) []domain.Transaction {
	txs, err := s.repo.FindByTypeAndStatus(ctx, nil, filter)
	if err != nil {
		s.logger.Error("Failed to filter transactions",
			ports.String("module", s.module),
			ports.Int64("order_id", filter.OrderID),
			ports.String("reference_id", filter.ReferenceID),
			ports.Err(err))
		return nil
	}
	return txs
}

// SumAmount returns zero when nothing matches or storage fails.
// A currency mismatch is returned so availability checks fail closed.
func (s *Store) SumAmount(ctx context.Context, filter ports.TransactionFilter) (decimal.Decimal, error) {
	sum, err := s.repo.SumAmount(ctx, nil, filter)
	if err != nil {
		if errors.Is(err, domain.ErrCurrencyMismatch) {
			return decimal.Zero, err
		}
		s.logger.Error("Failed to sum transaction amounts",
			ports.String("module", s.module),
			ports.Int64("order_id", filter.OrderID),
			ports.Err(err))
		return decimal.Zero, nil
	}
	return sum, nil
}
