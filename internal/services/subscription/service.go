package subscription

import (
	"context"
	"errors"
	"fmt"

	"github.com/kevin07696/genesis-reconciliation/internal/domain"
	"github.com/kevin07696/genesis-reconciliation/internal/domain/ports"
	"github.com/kevin07696/genesis-reconciliation/pkg/timeutil"
	"github.com/shopspring/decimal"
)

// Service keeps the store's recurring order tables in step with gateway transactions.
// A nil *Service is valid and does nothing, for variants without subscriptions.
type Service struct {
	recurring ports.RecurringRepository
	orders    ports.OrderRepository
	logger    ports.Logger
}

// NewService creates a subscription service
func NewService(recurring ports.RecurringRepository, orders ports.OrderRepository, logger ports.Logger) *Service {
	return &Service{recurring: recurring, orders: orders, logger: logger}
}

// RecordPayment links a terminal payment to the order's subscription.
// An approved init recurring sale becomes the subscription reference; a failed first payment is
// recorded as a failed entry. Orders without a subscription are ignored.
func (s *Service) RecordPayment(ctx context.Context, orderID int64, payment domain.Transaction) error {
	if s == nil || s.recurring == nil || !payment.Status.IsTerminal() {
		return nil
	}

	sub, err := s.recurring.FindByOrder(ctx, orderID)
	if errors.Is(err, domain.ErrRecurringNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load recurring order: %w", err)
	}

	switch {
	case payment.Type.IsRecurringInit() && payment.IsApproved() && sub.Reference != payment.UniqueID:
		// the entry goes first; the reference only moves once it is recorded
		if err := s.addEntry(ctx, sub, payment.UniqueID, domain.RecurringTxPayment, payment.Amount); err != nil {
			return err
		}
		if err := s.recurring.Link(ctx, orderID, payment.UniqueID, domain.RecurringStatusActive); err != nil {
			return fmt.Errorf("link recurring order: %w", err)
		}
		s.logger.Info("Recurring order linked",
			ports.Int64("order_id", orderID),
			ports.String("reference", payment.UniqueID))
	case payment.Status.IsTerminalFailure() && sub.Reference == "":
		if err := s.addEntry(ctx, sub, payment.UniqueID, domain.RecurringTxFailed, payment.Amount); err != nil {
			return err
		}
	}
	return nil
}

// Cancel ends the subscription of an order, records the cancellation and moves the order to update.StatusID.
// It returns false when the order has no subscription.
func (s *Service) Cancel(ctx context.Context, reference string, update domain.OrderStatusUpdate) (bool, error) {
	if s == nil || s.recurring == nil {
		return false, nil
	}

	sub, err := s.recurring.FindByOrder(ctx, update.OrderID)
	if errors.Is(err, domain.ErrRecurringNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load recurring order: %w", err)
	}

	if err := s.recurring.Cancel(ctx, update.OrderID); err != nil {
		return false, fmt.Errorf("cancel recurring order: %w", err)
	}
	if err := s.addEntry(ctx, sub, reference, domain.RecurringTxCancelled, decimal.Zero); err != nil {
		return false, err
	}
	if _, err := s.orders.ApplyStatus(ctx, update); err != nil {
		return false, fmt.Errorf("apply order status: %w", err)
	}

	s.logger.Info("Recurring order cancelled",
		ports.Int64("order_id", update.OrderID),
		ports.String("reference", reference))
	return true, nil
}

func (s *Service) addEntry(ctx context.Context, sub *domain.RecurringOrder, reference string, kind domain.RecurringTransactionType, amount decimal.Decimal) error {
	err := s.recurring.AddTransaction(ctx, domain.RecurringTransaction{
		OrderRecurringID: sub.OrderRecurringID,
		Reference:        reference,
		Type:             kind,
		Amount:           amount,
		CreatedAt:        timeutil.Now(),
	})
	if err != nil {
		return fmt.Errorf("record recurring transaction: %w", err)
	}
	return nil
}
